package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// Notifications реализует domain.NotificationRepo на pgxpool.
type Notifications struct {
	pool *pgxpool.Pool
}

// NewNotifications создаёт репозиторий напоминаний.
func NewNotifications(pool *pgxpool.Pool) *Notifications {
	return &Notifications{pool: pool}
}

const selectNotification = `
SELECT id, user_id, time, end_date, recurrence, title, description, created_at, updated_at
FROM notifications`

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Time, &n.EndDate, &n.Recurrence, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// Create сохраняет новое напоминание.
func (r *Notifications) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO notifications (user_id, time, end_date, recurrence, title, description)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at
`, n.UserID, n.Time, n.EndDate, n.Recurrence, n.Title, n.Description).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "notifications_insert", "notifications", start, err)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("insert notifications: %w", err)
	}
	return n, nil
}

// GetByID возвращает напоминание по идентификатору.
func (r *Notifications) GetByID(ctx context.Context, id int64) (domain.Notification, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	n, err := scanNotification(r.pool.QueryRow(ctx, selectNotification+` WHERE id = $1`, id))
	metrics.ObserveNetworkRequest("postgres", "notifications_select", "notifications", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, ErrNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("select notifications: %w", err)
	}
	return n, nil
}

// List возвращает страницу напоминаний, отсортированных по id.
func (r *Notifications) List(ctx context.Context, page, limit int) (domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var total int
	start := time.Now()
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications`).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "notifications_count", "notifications", start, err)
	if err != nil {
		return domain.NotificationPage{}, fmt.Errorf("count notifications: %w", err)
	}

	start = time.Now()
	rows, err := r.pool.Query(ctx, selectNotification+` ORDER BY id LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	metrics.ObserveNetworkRequest("postgres", "notifications_select", "notifications", start, err)
	if err != nil {
		return domain.NotificationPage{}, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return domain.NotificationPage{}, fmt.Errorf("scan notifications: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return domain.NotificationPage{}, fmt.Errorf("rows notifications: %w", err)
	}

	lastPage := (total + limit - 1) / limit
	if lastPage < 1 {
		lastPage = 1
	}
	return domain.NotificationPage{Data: items, Total: total, Page: page, LastPage: lastPage}, nil
}

// ListByClock возвращает напоминания с точным совпадением времени "HH:mm".
// Фильтрация по дате окончания и правилу повторения выполняется вызывающим.
func (r *Notifications) ListByClock(ctx context.Context, clock string) ([]domain.Notification, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, selectNotification+` WHERE time = $1 ORDER BY id`, clock)
	metrics.ObserveNetworkRequest("postgres", "notifications_by_clock", "notifications", start, err)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notifications: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows notifications: %w", err)
	}
	return items, nil
}

// Update изменяет существующее напоминание.
func (r *Notifications) Update(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
UPDATE notifications
SET time = $2, end_date = $3, recurrence = $4, title = $5, description = $6, updated_at = now()
WHERE id = $1
RETURNING user_id, created_at, updated_at
`, n.ID, n.Time, n.EndDate, n.Recurrence, n.Title, n.Description).
		Scan(&n.UserID, &n.CreatedAt, &n.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "notifications_update", "notifications", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, ErrNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("update notifications: %w", err)
	}
	return n, nil
}

// Delete удаляет напоминание.
func (r *Notifications) Delete(ctx context.Context, id int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "notifications_delete", "notifications", start, err)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
