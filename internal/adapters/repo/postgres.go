package repo

import (
	"context"
	"errors"
	"time"

	"spark-health-backend/internal/domain"
)

// ErrNotFound возвращается, когда запись отсутствует в БД.
var ErrNotFound = errors.New("запись не найдена")

var (
	_ domain.UserRepo         = (*Users)(nil)
	_ domain.NotificationRepo = (*Notifications)(nil)
	_ domain.WeeklyMetricRepo = (*WeeklyMetrics)(nil)
	_ domain.AppointmentRepo  = (*Appointments)(nil)
	_ domain.DoctorRepo       = (*Doctors)(nil)
	_ domain.CheckRepo        = (*Checks)(nil)
	_ domain.RiskRepo         = (*Risks)(nil)
	_ domain.TranscriptRepo   = (*Transcripts)(nil)
)

// connCtx ограничивает время обращения к БД, если дедлайна ещё нет.
func connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}
