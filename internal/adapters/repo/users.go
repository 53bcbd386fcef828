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

// Users реализует domain.UserRepo на pgxpool.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers создаёт репозиторий пользователей.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Create сохраняет нового пользователя.
func (r *Users) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (email, phone, first_name, last_name, patronymic, gender, age, height, weight, diseases, med_doc, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, created_at, updated_at
`, user.Email, user.Phone, user.FirstName, user.LastName, user.Patronymic, user.Gender,
		user.Age, user.Height, user.Weight, user.Diseases, user.MedDoc, user.Password, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_insert", "users", start, err)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert users: %w", err)
	}
	return user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *Users) GetByID(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	metrics.ObserveNetworkRequest("postgres", "users_select", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select users: %w", err)
	}
	return user, nil
}

// FindByIdentifier ищет пользователя по email или телефону.
func (r *Users) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE email = $1 OR phone = $1`, identifier))
	metrics.ObserveNetworkRequest("postgres", "users_select", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select users: %w", err)
	}
	return user, nil
}

// UpdateProfile обновляет анкетные данные пользователя.
func (r *Users) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
UPDATE users
SET first_name = $2, last_name = $3, patronymic = $4, gender = $5,
    age = $6, height = $7, weight = $8, diseases = $9, med_doc = $10, updated_at = now()
WHERE id = $1
RETURNING email, phone, password_hash, role, created_at, updated_at
`, user.ID, user.FirstName, user.LastName, user.Patronymic, user.Gender,
		user.Age, user.Height, user.Weight, user.Diseases, user.MedDoc).
		Scan(&user.Email, &user.Phone, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_update", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update users: %w", err)
	}
	return user, nil
}

// UpdatePassword устанавливает новый хеш пароля.
func (r *Users) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`, email, passwordHash)
	metrics.ObserveNetworkRequest("postgres", "users_update", "users", start, err)
	if err != nil {
		return fmt.Errorf("update users: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectUser = `
SELECT id, email, phone, first_name, last_name, patronymic, gender, age, height, weight, diseases, med_doc, password_hash, role, created_at, updated_at
FROM users`

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Phone, &user.FirstName, &user.LastName, &user.Patronymic,
		&user.Gender, &user.Age, &user.Height, &user.Weight, &user.Diseases, &user.MedDoc,
		&user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
