package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// dedupeTTL должен переживать минуту срабатывания, чтобы перезапуск
// планировщика внутри той же минуты не публиковал напоминание повторно.
const dedupeTTL = 2 * time.Minute

// Service раз в минуту вычисляет сработавшие напоминания и передаёт их
// в очередь доставки. Записи никогда не изменяются.
type Service struct {
	notifications domain.NotificationRepo
	queue         domain.ReminderQueue
	cache         domain.Cache
	log           zerolog.Logger
}

// NewService создаёт сервис напоминаний.
func NewService(notifications domain.NotificationRepo, queue domain.ReminderQueue, cache domain.Cache, logger zerolog.Logger) *Service {
	return &Service{notifications: notifications, queue: queue, cache: cache, log: logger}
}

// EvaluateTick возвращает напоминания, активные в минуту now.
// Ошибка чтения хранилища прерывает весь проход; некорректная дата
// в отдельной записи приводит только к её пропуску.
func (s *Service) EvaluateTick(ctx context.Context, now time.Time) ([]domain.ReminderPush, error) {
	clock := domain.FormatClock(now)
	candidates, err := s.notifications.ListByClock(ctx, clock)
	if err != nil {
		return nil, fmt.Errorf("выборка напоминаний на %s: %w", clock, err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := make([]domain.ReminderPush, 0, len(candidates))
	for _, n := range candidates {
		endDate, err := domain.ParseDate(n.EndDate)
		if err != nil {
			metrics.ReminderSkippedMalformed.Inc()
			s.log.Warn().Err(err).Int64("notification", n.ID).Msg("reminder: некорректная дата окончания, запись пропущена")
			continue
		}
		if endDate.Before(today) {
			continue
		}
		if !n.Recurrence.Matches(today) {
			continue
		}
		due = append(due, domain.ReminderPush{UserID: n.UserID, Notification: n, FiredAt: now})
	}
	return due, nil
}

// RunTick выполняет один проход: вычисляет сработавшие напоминания и
// публикует каждое в очередь доставки. Ошибка публикации одного
// напоминания не влияет на остальные.
func (s *Service) RunTick(ctx context.Context, now time.Time) {
	metrics.ReminderTicks.Inc()
	due, err := s.EvaluateTick(ctx, now)
	if err != nil {
		metrics.ReminderTickErrors.Inc()
		s.log.Error().Err(err).Msg("reminder: проход прерван")
		return
	}
	for _, push := range due {
		key := fmt.Sprintf("reminder:%d:%s_%s", push.Notification.ID, domain.FormatDate(now), domain.FormatClock(now))
		err := s.cache.Once(key, dedupeTTL, func() error {
			return s.queue.Publish(ctx, push)
		})
		if err != nil {
			metrics.PushSendErrors.Inc()
			s.log.Error().Err(err).Int64("notification", push.Notification.ID).Int64("user", push.UserID).Msg("reminder: публикация не удалась")
			continue
		}
		metrics.ReminderFired.Inc()
	}
}
