package transcript

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spark-health-backend/internal/domain"
)

// Service принимает аудиозаписи приёмов и расшифровывает их в фоне.
type Service struct {
	transcripts domain.TranscriptRepo
	users       domain.UserRepo
	doctors     domain.DoctorRepo
	queue       domain.TranscriptQueue
	transcriber domain.Transcriber
	advisor     domain.Advisor
	reports     domain.ReportBuilder
	pusher      domain.Pusher
	log         zerolog.Logger
}

// NewService создаёт сервис расшифровок.
func NewService(
	transcripts domain.TranscriptRepo,
	users domain.UserRepo,
	doctors domain.DoctorRepo,
	queue domain.TranscriptQueue,
	transcriber domain.Transcriber,
	advisor domain.Advisor,
	reports domain.ReportBuilder,
	pusher domain.Pusher,
	log zerolog.Logger,
) *Service {
	return &Service{
		transcripts: transcripts,
		users:       users,
		doctors:     doctors,
		queue:       queue,
		transcriber: transcriber,
		advisor:     advisor,
		reports:     reports,
		pusher:      pusher,
		log:         log.With().Str("component", "transcript").Logger(),
	}
}

// Enqueue ставит аудиозапись в очередь расшифровки и сразу возвращает
// идентификатор задачи.
func (s *Service) Enqueue(ctx context.Context, patientID, doctorID int64, fileName, filePath string) (string, error) {
	job := domain.TranscriptJob{
		ID:        uuid.NewString(),
		PatientID: patientID,
		DoctorID:  doctorID,
		FileName:  fileName,
		FilePath:  filePath,
	}
	if err := s.queue.Publish(ctx, job); err != nil {
		return "", fmt.Errorf("публикация задачи: %w", err)
	}
	return job.ID, nil
}

// ProcessJob расшифровывает аудио, строит рекомендации и отчёт,
// сохраняет результат и уведомляет пациента.
func (s *Service) ProcessJob(ctx context.Context, job domain.TranscriptJob) error {
	audio, err := os.ReadFile(job.FilePath)
	if err != nil {
		return fmt.Errorf("чтение аудио %s: %w", job.FilePath, err)
	}

	text, err := s.transcriber.Transcribe(ctx, job.FileName, audio)
	if err != nil {
		return fmt.Errorf("расшифровка аудио: %w", err)
	}

	summary, err := s.advisor.SummarizeVisit(ctx, text)
	if err != nil {
		return fmt.Errorf("сводка приёма: %w", err)
	}

	saved, err := s.transcripts.SaveTranscript(ctx, domain.Transcript{
		PatientID: job.PatientID,
		DoctorID:  job.DoctorID,
		Text:      text,
		FilePath:  job.FilePath,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("сохранение расшифровки: %w", err)
	}

	// Отчёт и пуш — best-effort: расшифровка уже сохранена.
	if user, err := s.users.GetByID(ctx, job.PatientID); err == nil {
		doctor, _ := s.doctors.GetDoctor(ctx, job.DoctorID)
		if _, err := s.reports.BuildVisitSummary(user, doctor, summary); err != nil {
			s.log.Warn().Err(err).Str("job_id", job.ID).Msg("не удалось построить отчёт о приёме")
		}
	}
	if err := s.pusher.Push(job.PatientID, map[string]any{
		"type":            "transcript_ready",
		"job_id":          job.ID,
		"transcript_id":   saved.ID,
		"summary":         summary.Summary,
		"recommendations": summary.Recommendations,
	}); err != nil {
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("не удалось уведомить пациента")
	}
	return nil
}

// List возвращает расшифровки по пациенту и/или врачу.
func (s *Service) List(ctx context.Context, patientID, doctorID int64) ([]domain.Transcript, error) {
	return s.transcripts.ListTranscripts(ctx, patientID, doctorID)
}
