package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spark-health-backend/internal/domain"
)

// ErrForbidden возвращается при попытке изменить чужую запись.
var ErrForbidden = errors.New("запись принадлежит другому пользователю")

// CreateParams данные новой записи к врачу.
type CreateParams struct {
	DoctorID    int64
	Date        time.Time
	Description string
}

// Service управляет записями к врачу.
type Service struct {
	appointments domain.AppointmentRepo
	doctors      domain.DoctorRepo
}

// NewService создаёт сервис записей.
func NewService(appointments domain.AppointmentRepo, doctors domain.DoctorRepo) *Service {
	return &Service{appointments: appointments, doctors: doctors}
}

// Create создаёт запись пользователя к врачу.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (domain.Appointment, error) {
	doctor, err := s.doctors.GetDoctor(ctx, params.DoctorID)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("получение врача: %w", err)
	}
	appointment, err := s.appointments.Create(ctx, domain.Appointment{
		UserID:      userID,
		DoctorID:    doctor.ID,
		Date:        params.Date,
		Description: params.Description,
	})
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("создание записи: %w", err)
	}
	appointment.Doctor = doctor
	return appointment, nil
}

// ListMine возвращает записи пользователя.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	return s.appointments.ListByUser(ctx, userID)
}

// ListAll возвращает все записи (админ).
func (s *Service) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	return s.appointments.ListAll(ctx)
}

// Doctors возвращает справочник врачей.
func (s *Service) Doctors(ctx context.Context) ([]domain.Doctor, error) {
	return s.doctors.ListDoctors(ctx)
}

// Reschedule переносит запись пользователя.
func (s *Service) Reschedule(ctx context.Context, userID, appointmentID int64, date time.Time, description string) (domain.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("получение записи: %w", err)
	}
	if appointment.UserID != userID {
		return domain.Appointment{}, ErrForbidden
	}
	appointment.Date = date
	if description != "" {
		appointment.Description = description
	}
	updated, err := s.appointments.Update(ctx, appointment)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("обновление записи: %w", err)
	}
	return updated, nil
}

// Cancel отменяет запись пользователя.
func (s *Service) Cancel(ctx context.Context, userID, appointmentID int64) error {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("получение записи: %w", err)
	}
	if appointment.UserID != userID {
		return ErrForbidden
	}
	if err := s.appointments.Delete(ctx, appointmentID); err != nil {
		return fmt.Errorf("удаление записи: %w", err)
	}
	return nil
}
