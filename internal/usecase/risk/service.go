package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spark-health-backend/internal/domain"
)

// ErrProfileNotFound возвращается, если профиль рисков ещё не построен.
var ErrProfileNotFound = errors.New("профиль рисков не найден, сначала сформируйте его")

// Result содержит обновлённый профиль и путь к PDF-отчёту.
type Result struct {
	Profile domain.RiskProfile
	PDFPath string
}

// Service строит профиль рисков по последним проверкам пользователя.
type Service struct {
	users   domain.UserRepo
	checks  domain.CheckRepo
	risks   domain.RiskRepo
	advisor domain.Advisor
	reports domain.ReportBuilder
}

// NewService создаёт сервис рисков.
func NewService(users domain.UserRepo, checks domain.CheckRepo, risks domain.RiskRepo, advisor domain.Advisor, reports domain.ReportBuilder) *Service {
	return &Service{users: users, checks: checks, risks: risks, advisor: advisor, reports: reports}
}

// Calculate собирает последние проверки, запрашивает оценку у LLM,
// обновляет профиль и строит PDF-отчёт.
func (s *Service) Calculate(ctx context.Context, userID int64) (Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("получение пользователя: %w", err)
	}

	var skin *domain.SkinCheck
	if latest, ok, err := s.checks.LatestSkinCheck(ctx, userID); err != nil {
		return Result{}, fmt.Errorf("последняя проверка кожи: %w", err)
	} else if ok {
		skin = &latest
	}

	var analysis *domain.MedicalAnalysis
	if latest, ok, err := s.checks.LatestAnalysis(ctx, userID); err != nil {
		return Result{}, fmt.Errorf("последний анализ: %w", err)
	} else if ok {
		analysis = &latest
	}

	assessment, err := s.advisor.AssessRisk(ctx, user, skin, analysis)
	if err != nil {
		return Result{}, fmt.Errorf("оценка рисков: %w", err)
	}

	profile := domain.RiskProfile{
		UserID:      userID,
		RiskScore:   assessment.RiskScore,
		RiskFactors: assessment.RiskFactors,
		UpdatedAt:   time.Now().UTC(),
	}
	// Путь отчёта сохраняется вместе с профилем: каталог отчётов
	// настраивается, восстановить путь по одному профилю нельзя.
	pdfPath, err := s.reports.BuildRiskReport(user, profile)
	if err != nil {
		return Result{}, fmt.Errorf("построение отчёта: %w", err)
	}
	profile.ReportPath = pdfPath

	saved, err := s.risks.UpsertRiskProfile(ctx, profile)
	if err != nil {
		return Result{}, fmt.Errorf("сохранение профиля: %w", err)
	}
	return Result{Profile: saved, PDFPath: saved.ReportPath}, nil
}

// Report возвращает путь к последнему сформированному отчёту.
func (s *Service) Report(ctx context.Context, userID int64) (string, error) {
	profile, ok, err := s.risks.GetRiskProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("чтение профиля: %w", err)
	}
	if !ok || profile.ReportPath == "" {
		return "", ErrProfileNotFound
	}
	return profile.ReportPath, nil
}
