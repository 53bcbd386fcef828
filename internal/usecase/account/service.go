package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"spark-health-backend/internal/domain"
)

// ErrAlreadyRegistered возвращается при повторной регистрации.
var ErrAlreadyRegistered = errors.New("пользователь с такими данными уже существует")

// ErrInvalidCredentials возвращается при неверном логине или пароле.
var ErrInvalidCredentials = errors.New("неверные учётные данные")

// ErrSamePassword возвращается, если новый пароль совпадает со старым.
var ErrSamePassword = errors.New("новый пароль совпадает со старым")

// ErrUserNotFound возвращается, если пользователь не найден.
var ErrUserNotFound = errors.New("пользователь не найден")

// TokenIssuer выпускает пары токенов для пользователя.
type TokenIssuer interface {
	AccessToken(user domain.User) (string, error)
	RefreshToken(user domain.User) (string, error)
}

// TokenPair содержит access и refresh токены.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterParams данные регистрации.
type RegisterParams struct {
	Email      string
	Phone      string
	Password   string
	FirstName  string
	LastName   string
	Patronymic string
	MedDoc     string
	Diseases   []string
}

// Service реализует регистрацию и вход.
type Service struct {
	users   domain.UserRepo
	tokens  TokenIssuer
	mailer  domain.Mailer
	baseURL string
}

// NewService создаёт сервис учётных записей.
func NewService(users domain.UserRepo, tokens TokenIssuer, mailer domain.Mailer, baseURL string) *Service {
	return &Service{users: users, tokens: tokens, mailer: mailer, baseURL: baseURL}
}

// Register создаёт пользователя и возвращает пару токенов.
func (s *Service) Register(ctx context.Context, params RegisterParams) (TokenPair, error) {
	if _, err := s.users.FindByIdentifier(ctx, params.Email); err == nil {
		return TokenPair{}, ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("хеширование пароля: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Email:      params.Email,
		Phone:      params.Phone,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Patronymic: params.Patronymic,
		MedDoc:     params.MedDoc,
		Diseases:   params.Diseases,
		Password:   string(hash),
		Role:       domain.RoleUser,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("создание пользователя: %w", err)
	}
	return s.issuePair(user)
}

// Login проверяет учётные данные по email или телефону.
func (s *Service) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issuePair(user)
}

// ResetPassword устанавливает новый пароль аутентифицированного пользователя.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.users.FindByIdentifier(ctx, email)
	if err != nil {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)) == nil {
		return ErrSamePassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("хеширование пароля: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Email, string(hash)); err != nil {
		return fmt.Errorf("обновление пароля: %w", err)
	}
	return nil
}

// RequestPasswordChange отправляет письмо со ссылкой на сброс пароля.
func (s *Service) RequestPasswordChange(ctx context.Context, email, lang string) error {
	user, err := s.users.FindByIdentifier(ctx, email)
	if err != nil {
		return ErrUserNotFound
	}
	token, err := s.tokens.AccessToken(user)
	if err != nil {
		return fmt.Errorf("выпуск токена: %w", err)
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link, lang); err != nil {
		return fmt.Errorf("отправка письма: %w", err)
	}
	return nil
}

// RefreshFor выпускает новый access-токен для пользователя из refresh-токена.
func (s *Service) RefreshFor(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByIdentifier(ctx, email)
	if err != nil {
		return "", ErrUserNotFound
	}
	token, err := s.tokens.AccessToken(user)
	if err != nil {
		return "", fmt.Errorf("выпуск токена: %w", err)
	}
	return token, nil
}

func (s *Service) issuePair(user domain.User) (TokenPair, error) {
	access, err := s.tokens.AccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("выпуск access-токена: %w", err)
	}
	refresh, err := s.tokens.RefreshToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("выпуск refresh-токена: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
