package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"spark-health-backend/internal/domain"
)

type stubUserRepo struct {
	users  map[string]domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]domain.User), nextID: 1}
}

func (s *stubUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, errors.New("not found")
}

func (s *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (domain.User, error) {
	if u, ok := s.users[identifier]; ok {
		return u, nil
	}
	for _, u := range s.users {
		if u.Phone == identifier {
			return u, nil
		}
	}
	return domain.User{}, errors.New("not found")
}

func (s *stubUserRepo) UpdateProfile(_ context.Context, user domain.User) (domain.User, error) {
	s.users[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, email, passwordHash string) error {
	u, ok := s.users[email]
	if !ok {
		return errors.New("not found")
	}
	u.Password = passwordHash
	s.users[email] = u
	return nil
}

type stubIssuer struct{}

func (stubIssuer) AccessToken(user domain.User) (string, error)  { return "access-" + user.Email, nil }
func (stubIssuer) RefreshToken(user domain.User) (string, error) { return "refresh-" + user.Email, nil }

type stubMailer struct {
	lastTo   string
	lastLink string
	lastLang string
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, link, lang string) error {
	m.lastTo, m.lastLink, m.lastLang = to, link, lang
	return nil
}

func newTestService(repo *stubUserRepo, mailer *stubMailer) *Service {
	return NewService(repo, stubIssuer{}, mailer, "https://app.example.com")
}

func TestRegisterHashesPasswordAndIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubMailer{})

	pair, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "secret123"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("ожидали пару токенов")
	}

	stored := repo.users["a@b.c"]
	if stored.Password == "secret123" {
		t.Fatal("пароль не должен храниться открытым текстом")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")) != nil {
		t.Fatal("хеш должен соответствовать исходному паролю")
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubMailer{})

	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "secret123"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "other"}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("ожидали ErrAlreadyRegistered, получили %v", err)
	}
}

func TestLoginByEmailAndPhone(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubMailer{})
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Phone: "+77001234567", Password: "secret123"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@b.c", "secret123"); err != nil {
		t.Fatalf("вход по email должен работать: %v", err)
	}
	if _, err := svc.Login(context.Background(), "+77001234567", "secret123"); err != nil {
		t.Fatalf("вход по телефону должен работать: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидали ErrInvalidCredentials, получили %v", err)
	}
}

func TestResetPasswordRejectsSamePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubMailer{})
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "secret123"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), "a@b.c", "secret123"); !errors.Is(err, ErrSamePassword) {
		t.Fatalf("ожидали ErrSamePassword, получили %v", err)
	}
	if err := svc.ResetPassword(context.Background(), "a@b.c", "brand-new"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.c", "brand-new"); err != nil {
		t.Fatalf("после сброса должен работать новый пароль: %v", err)
	}
}

func TestRequestPasswordChangeSendsLink(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestService(repo, mailer)
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "secret123"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if err := svc.RequestPasswordChange(context.Background(), "a@b.c", "kz"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if mailer.lastTo != "a@b.c" || mailer.lastLang != "kz" {
		t.Fatalf("неожиданные параметры письма: %+v", mailer)
	}
	if !strings.HasPrefix(mailer.lastLink, "https://app.example.com/reset-password?token=") {
		t.Fatalf("неожиданная ссылка: %s", mailer.lastLink)
	}
}
