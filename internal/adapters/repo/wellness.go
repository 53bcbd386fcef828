package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// WeeklyMetrics реализует domain.WeeklyMetricRepo на pgxpool.
type WeeklyMetrics struct {
	pool *pgxpool.Pool
}

// NewWeeklyMetrics создаёт репозиторий недельных метрик.
func NewWeeklyMetrics(pool *pgxpool.Pool) *WeeklyMetrics {
	return &WeeklyMetrics{pool: pool}
}

// ListWeekly возвращает записи метрики по возрастанию даты.
func (r *WeeklyMetrics) ListWeekly(ctx context.Context, userID int64, kind domain.MetricKind) ([]domain.WeeklyEntry, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT to_char(date, 'DD.MM.YYYY'), value
FROM weekly_metrics
WHERE user_id = $1 AND metric = $2
ORDER BY date
`, userID, kind)
	metrics.ObserveNetworkRequest("postgres", "weekly_metrics_select", "weekly_metrics", start, err)
	if err != nil {
		return nil, fmt.Errorf("select weekly_metrics: %w", err)
	}
	defer rows.Close()

	var entries []domain.WeeklyEntry
	for rows.Next() {
		var e domain.WeeklyEntry
		if err := rows.Scan(&e.Date, &e.Value); err != nil {
			return nil, fmt.Errorf("scan weekly_metrics: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows weekly_metrics: %w", err)
	}
	return entries, nil
}

// ReplaceWeekly транзакционно заменяет окно метрики пользователя.
// Записи с нечитаемой датой в БД не попадают.
func (r *WeeklyMetrics) ReplaceWeekly(ctx context.Context, userID int64, kind domain.MetricKind, entries []domain.WeeklyEntry) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin weekly_metrics: %w", err)
	}
	defer tx.Rollback(ctx)

	start := time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM weekly_metrics WHERE user_id = $1 AND metric = $2`, userID, kind)
	metrics.ObserveNetworkRequest("postgres", "weekly_metrics_delete", "weekly_metrics", start, err)
	if err != nil {
		return fmt.Errorf("delete weekly_metrics: %w", err)
	}

	for _, e := range entries {
		day, err := domain.ParseDate(e.Date)
		if err != nil {
			continue
		}
		start = time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO weekly_metrics (user_id, metric, date, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, metric, date) DO UPDATE SET value = EXCLUDED.value
`, userID, kind, day, e.Value)
		metrics.ObserveNetworkRequest("postgres", "weekly_metrics_upsert", "weekly_metrics", start, err)
		if err != nil {
			return fmt.Errorf("upsert weekly_metrics: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit weekly_metrics: %w", err)
	}
	return nil
}
