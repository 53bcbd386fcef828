package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	FindByIdentifier(ctx context.Context, identifier string) (User, error)
	UpdateProfile(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// NotificationRepo управляет напоминаниями.
type NotificationRepo interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	GetByID(ctx context.Context, id int64) (Notification, error)
	List(ctx context.Context, page, limit int) (NotificationPage, error)
	ListByClock(ctx context.Context, clock string) ([]Notification, error)
	Update(ctx context.Context, n Notification) (Notification, error)
	Delete(ctx context.Context, id int64) error
}

// WeeklyMetricRepo хранит недельные метрики пользователя.
type WeeklyMetricRepo interface {
	ListWeekly(ctx context.Context, userID int64, kind MetricKind) ([]WeeklyEntry, error)
	ReplaceWeekly(ctx context.Context, userID int64, kind MetricKind, entries []WeeklyEntry) error
}

// AppointmentRepo управляет записями к врачу.
type AppointmentRepo interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	GetByID(ctx context.Context, id int64) (Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)
	ListByUser(ctx context.Context, userID int64) ([]Appointment, error)
	Update(ctx context.Context, a Appointment) (Appointment, error)
	Delete(ctx context.Context, id int64) error
}

// DoctorRepo управляет справочником врачей.
type DoctorRepo interface {
	GetDoctor(ctx context.Context, id int64) (Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
}

// CheckRepo хранит результаты медицинских проверок.
type CheckRepo interface {
	SaveDentalCheck(ctx context.Context, check DentalCheck) (DentalCheck, error)
	SaveSkinCheck(ctx context.Context, check SkinCheck) (SkinCheck, error)
	SaveAnalysis(ctx context.Context, analysis MedicalAnalysis) (MedicalAnalysis, error)
	LatestSkinCheck(ctx context.Context, userID int64) (SkinCheck, bool, error)
	LatestAnalysis(ctx context.Context, userID int64) (MedicalAnalysis, bool, error)
}

// RiskRepo хранит профили рисков.
type RiskRepo interface {
	UpsertRiskProfile(ctx context.Context, profile RiskProfile) (RiskProfile, error)
	GetRiskProfile(ctx context.Context, userID int64) (RiskProfile, bool, error)
}

// TranscriptRepo хранит расшифровки приёмов.
type TranscriptRepo interface {
	SaveTranscript(ctx context.Context, t Transcript) (Transcript, error)
	ListTranscripts(ctx context.Context, patientID, doctorID int64) ([]Transcript, error)
}

// Pusher доставляет полезную нагрузку подключённым сессиям пользователя.
// Доставка best-effort: подтверждение не ожидается.
type Pusher interface {
	Push(userID int64, payload any) error
}

// ReminderQueue передаёт сработавшие напоминания процессу доставки.
type ReminderQueue interface {
	Publish(ctx context.Context, push ReminderPush) error
	Consume(ctx context.Context, handle func(push ReminderPush)) error
}

// TranscriptQueue передаёт задачи расшифровки аудио воркеру.
type TranscriptQueue interface {
	Publish(ctx context.Context, job TranscriptJob) error
	Consume(ctx context.Context, handle func(job TranscriptJob)) error
}

// Advisor формирует медицинские рекомендации через LLM.
type Advisor interface {
	HealthAdvice(ctx context.Context, user User) (HealthAdvice, error)
	HydrationStats(ctx context.Context, user User) (HydrationStats, error)
	Assist(ctx context.Context, user User, query string) (HealthAdvice, error)
	AssessRisk(ctx context.Context, user User, skin *SkinCheck, analysis *MedicalAnalysis) (RiskAssessment, error)
	ExplainDentalFindings(ctx context.Context, user User, findings []byte) (string, error)
	SummarizeVisit(ctx context.Context, transcript string) (VisitSummary, error)
	DiagnoseAnalysisImage(ctx context.Context, user User, imageURL string) (string, error)
}

// DentalRecognizer распознаёт заболевания зубов по снимку.
type DentalRecognizer interface {
	DetectDental(ctx context.Context, image []byte) ([]byte, error)
}

// SkinRecognizer оценивает состояние кожи по фото.
type SkinRecognizer interface {
	PredictSkin(ctx context.Context, filename, contentType string, image []byte) (SkinCheck, error)
}

// Transcriber переводит аудиозапись в текст.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// ClinicSearcher ищет клиники во внешнем каталоге.
type ClinicSearcher interface {
	SearchClinics(ctx context.Context, query, city string, page, pageSize int) ([]ClinicResult, error)
}

// ReportBuilder строит PDF-отчёты.
type ReportBuilder interface {
	BuildRiskReport(user User, profile RiskProfile) (string, error)
	BuildVisitSummary(user User, doctor Doctor, summary VisitSummary) (string, error)
}

// Mailer отправляет служебные письма.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link, lang string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
