package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"spark-health-backend/internal/domain"
)

type stubNotificationRepo struct {
	byClock map[string][]domain.Notification
	err     error
}

func (s *stubNotificationRepo) Create(context.Context, domain.Notification) (domain.Notification, error) {
	return domain.Notification{}, nil
}
func (s *stubNotificationRepo) GetByID(context.Context, int64) (domain.Notification, error) {
	return domain.Notification{}, nil
}
func (s *stubNotificationRepo) List(context.Context, int, int) (domain.NotificationPage, error) {
	return domain.NotificationPage{}, nil
}
func (s *stubNotificationRepo) Update(context.Context, domain.Notification) (domain.Notification, error) {
	return domain.Notification{}, nil
}
func (s *stubNotificationRepo) Delete(context.Context, int64) error { return nil }
func (s *stubNotificationRepo) ListByClock(_ context.Context, clock string) ([]domain.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byClock[clock], nil
}

type stubQueue struct {
	published []domain.ReminderPush
	failIDs   map[int64]bool
}

func (s *stubQueue) Publish(_ context.Context, push domain.ReminderPush) error {
	if s.failIDs[push.Notification.ID] {
		return errors.New("queue down")
	}
	s.published = append(s.published, push)
	return nil
}

func (s *stubQueue) Consume(context.Context, func(domain.ReminderPush)) error { return nil }

type passCache struct{}

func (passCache) Once(_ string, _ time.Duration, fn func() error) error { return fn() }
func (passCache) Set(string, []byte, time.Duration) error               { return nil }
func (passCache) Get(string) ([]byte, error)                            { return nil, nil }

func newService(repo *stubNotificationRepo, queue *stubQueue) *Service {
	return NewService(repo, queue, passCache{}, zerolog.Nop())
}

// 4 июня 2025 — среда.
var wednesday = time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)

func TestEvaluateTickSelectsOnlyMatchingClock(t *testing.T) {
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {{ID: 1, UserID: 10, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily}},
		"09:01": {{ID: 2, UserID: 10, Time: "09:01", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily}},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 1 || due[0].Notification.ID != 1 {
		t.Fatalf("ожидали только напоминание 1, получили %v", due)
	}
}

func TestEvaluateTickExpiryIsChronological(t *testing.T) {
	// "05.01.2030" лексикографически меньше "28.12.2025", но хронологически позже.
	now := time.Date(2026, time.June, 4, 9, 0, 0, 0, time.UTC) // четверг
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {
			{ID: 1, UserID: 1, Time: "09:00", EndDate: "05.01.2030", Recurrence: domain.RecurrenceDaily},
			{ID: 2, UserID: 1, Time: "09:00", EndDate: "28.12.2025", Recurrence: domain.RecurrenceDaily},
		},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), now)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 1 || due[0].Notification.ID != 1 {
		t.Fatalf("ожидали только напоминание 1 (конец 2030), получили %v", due)
	}
}

func TestEvaluateTickEndDateInclusive(t *testing.T) {
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {{ID: 1, UserID: 1, Time: "09:00", EndDate: "04.06.2025", Recurrence: domain.RecurrenceDaily}},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 1 {
		t.Fatal("напоминание должно срабатывать в день окончания включительно")
	}
}

func TestEvaluateTickRecurrenceScenario(t *testing.T) {
	// Среда: weekdays срабатывает, weekly (понедельник) — нет.
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {
			{ID: 1, UserID: 1, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceWeekdays},
			{ID: 2, UserID: 1, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceWeekly},
		},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 1 || due[0].Notification.ID != 1 {
		t.Fatalf("ожидали только weekdays-напоминание, получили %v", due)
	}
}

func TestEvaluateTickUnknownRuleNeverFires(t *testing.T) {
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {{ID: 1, UserID: 1, Time: "09:00", EndDate: "31.12.2099", Recurrence: "biweekly"}},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(due) != 0 {
		t.Fatal("неизвестное правило не должно срабатывать")
	}
}

func TestEvaluateTickSkipsMalformedEndDate(t *testing.T) {
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {
			{ID: 1, UserID: 1, Time: "09:00", EndDate: "завтра", Recurrence: domain.RecurrenceDaily},
			{ID: 2, UserID: 2, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily},
		},
	}}
	svc := newService(repo, &stubQueue{})

	due, err := svc.EvaluateTick(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("некорректная запись не должна прерывать проход: %v", err)
	}
	if len(due) != 1 || due[0].Notification.ID != 2 {
		t.Fatalf("ожидали только корректное напоминание, получили %v", due)
	}
}

func TestEvaluateTickAbortsOnStorageError(t *testing.T) {
	repo := &stubNotificationRepo{err: errors.New("db unavailable")}
	svc := newService(repo, &stubQueue{})

	if _, err := svc.EvaluateTick(context.Background(), wednesday); err == nil {
		t.Fatal("ошибка чтения БД должна прерывать проход")
	}
}

func TestRunTickDeliveryFailureIsIsolated(t *testing.T) {
	repo := &stubNotificationRepo{byClock: map[string][]domain.Notification{
		"09:00": {
			{ID: 1, UserID: 1, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily},
			{ID: 2, UserID: 2, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily},
			{ID: 3, UserID: 3, Time: "09:00", EndDate: "31.12.2099", Recurrence: domain.RecurrenceDaily},
		},
	}}
	queue := &stubQueue{failIDs: map[int64]bool{2: true}}
	svc := newService(repo, queue)

	svc.RunTick(context.Background(), wednesday)

	if len(queue.published) != 2 {
		t.Fatalf("ожидали доставку 2 напоминаний, получили %d", len(queue.published))
	}
	if queue.published[0].Notification.ID != 1 || queue.published[1].Notification.ID != 3 {
		t.Fatalf("сбой доставки одного напоминания не должен влиять на остальные: %v", queue.published)
	}
}
