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

// Appointments реализует domain.AppointmentRepo на pgxpool.
type Appointments struct {
	pool *pgxpool.Pool
}

// NewAppointments создаёт репозиторий записей к врачу.
func NewAppointments(pool *pgxpool.Pool) *Appointments {
	return &Appointments{pool: pool}
}

const selectAppointment = `
SELECT a.id, a.user_id, a.doctor_id, a.date, a.description, a.created_at,
       d.id, d.first_name, d.last_name, d.patronymic, d.speciality, d.clinic_name, d.created_at
FROM appointments a
JOIN doctors d ON d.id = a.doctor_id`

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.Date, &a.Description, &a.CreatedAt,
		&a.Doctor.ID, &a.Doctor.FirstName, &a.Doctor.LastName, &a.Doctor.Patronymic,
		&a.Doctor.Speciality, &a.Doctor.ClinicName, &a.Doctor.CreatedAt)
	return a, err
}

// Create сохраняет новую запись к врачу.
func (r *Appointments) Create(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO appointments (user_id, doctor_id, date, description)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, a.UserID, a.DoctorID, a.Date, a.Description).Scan(&a.ID, &a.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "appointments_insert", "appointments", start, err)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("insert appointments: %w", err)
	}
	return a, nil
}

// GetByID возвращает запись вместе с данными врача.
func (r *Appointments) GetByID(ctx context.Context, id int64) (domain.Appointment, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	a, err := scanAppointment(r.pool.QueryRow(ctx, selectAppointment+` WHERE a.id = $1`, id))
	metrics.ObserveNetworkRequest("postgres", "appointments_select", "appointments", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Appointment{}, ErrNotFound
	}
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("select appointments: %w", err)
	}
	return a, nil
}

// ListAll возвращает все записи по возрастанию даты.
func (r *Appointments) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	return r.list(ctx, selectAppointment+` ORDER BY a.date`)
}

// ListByUser возвращает записи пользователя по возрастанию даты.
func (r *Appointments) ListByUser(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	return r.list(ctx, selectAppointment+` WHERE a.user_id = $1 ORDER BY a.date`, userID)
}

func (r *Appointments) list(ctx context.Context, query string, args ...any) ([]domain.Appointment, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "appointments_select", "appointments", start, err)
	if err != nil {
		return nil, fmt.Errorf("select appointments: %w", err)
	}
	defer rows.Close()

	var items []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointments: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows appointments: %w", err)
	}
	return items, nil
}

// Update переносит запись.
func (r *Appointments) Update(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET date = $2, description = $3 WHERE id = $1`, a.ID, a.Date, a.Description)
	metrics.ObserveNetworkRequest("postgres", "appointments_update", "appointments", start, err)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("update appointments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Appointment{}, ErrNotFound
	}
	return r.GetByID(ctx, a.ID)
}

// Delete удаляет запись.
func (r *Appointments) Delete(ctx context.Context, id int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "appointments_delete", "appointments", start, err)
	if err != nil {
		return fmt.Errorf("delete appointments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Doctors реализует domain.DoctorRepo на pgxpool.
type Doctors struct {
	pool *pgxpool.Pool
}

// NewDoctors создаёт репозиторий врачей.
func NewDoctors(pool *pgxpool.Pool) *Doctors {
	return &Doctors{pool: pool}
}

const selectDoctor = `
SELECT id, first_name, last_name, patronymic, speciality, clinic_name, created_at
FROM doctors`

// GetDoctor возвращает врача по идентификатору.
func (r *Doctors) GetDoctor(ctx context.Context, id int64) (domain.Doctor, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var d domain.Doctor
	start := time.Now()
	err := r.pool.QueryRow(ctx, selectDoctor+` WHERE id = $1`, id).
		Scan(&d.ID, &d.FirstName, &d.LastName, &d.Patronymic, &d.Speciality, &d.ClinicName, &d.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "doctors_select", "doctors", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Doctor{}, ErrNotFound
	}
	if err != nil {
		return domain.Doctor{}, fmt.Errorf("select doctors: %w", err)
	}
	return d, nil
}

// ListDoctors возвращает справочник врачей.
func (r *Doctors) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, selectDoctor+` ORDER BY last_name, first_name`)
	metrics.ObserveNetworkRequest("postgres", "doctors_select", "doctors", start, err)
	if err != nil {
		return nil, fmt.Errorf("select doctors: %w", err)
	}
	defer rows.Close()

	var items []domain.Doctor
	for rows.Next() {
		var d domain.Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Patronymic, &d.Speciality, &d.ClinicName, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doctors: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows doctors: %w", err)
	}
	return items, nil
}
