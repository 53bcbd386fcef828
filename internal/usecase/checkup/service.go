package checkup

import (
	"context"
	"fmt"
	"time"

	"spark-health-backend/internal/domain"
)

// Service проводит медицинские проверки по изображениям.
type Service struct {
	users   domain.UserRepo
	checks  domain.CheckRepo
	dental  domain.DentalRecognizer
	skin    domain.SkinRecognizer
	advisor domain.Advisor
}

// NewService создаёт сервис проверок.
func NewService(users domain.UserRepo, checks domain.CheckRepo, dental domain.DentalRecognizer, skin domain.SkinRecognizer, advisor domain.Advisor) *Service {
	return &Service{users: users, checks: checks, dental: dental, skin: skin, advisor: advisor}
}

// DentalCheck распознаёт снимок зубов и объясняет находки.
func (s *Service) DentalCheck(ctx context.Context, userID int64, imageURL string, image []byte) (domain.DentalCheck, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.DentalCheck{}, fmt.Errorf("получение пользователя: %w", err)
	}

	raw, err := s.dental.DetectDental(ctx, image)
	if err != nil {
		return domain.DentalCheck{}, fmt.Errorf("распознавание снимка: %w", err)
	}
	explanation, err := s.advisor.ExplainDentalFindings(ctx, user, raw)
	if err != nil {
		return domain.DentalCheck{}, fmt.Errorf("пояснение находок: %w", err)
	}

	check, err := s.checks.SaveDentalCheck(ctx, domain.DentalCheck{
		UserID:      userID,
		ImageURL:    imageURL,
		RawResult:   raw,
		Explanation: explanation,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.DentalCheck{}, fmt.Errorf("сохранение проверки: %w", err)
	}
	return check, nil
}

// SkinCheck оценивает состояние кожи по фото.
func (s *Service) SkinCheck(ctx context.Context, userID int64, filename, contentType string, image []byte) (domain.SkinCheck, error) {
	check, err := s.skin.PredictSkin(ctx, filename, contentType, image)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("проверка кожи: %w", err)
	}
	check.UserID = userID
	check.CreatedAt = time.Now().UTC()

	saved, err := s.checks.SaveSkinCheck(ctx, check)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("сохранение проверки: %w", err)
	}
	return saved, nil
}

// AnalyzeImage расшифровывает фото медицинского анализа через LLM.
func (s *Service) AnalyzeImage(ctx context.Context, userID int64, imageURL string) (domain.MedicalAnalysis, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.MedicalAnalysis{}, fmt.Errorf("получение пользователя: %w", err)
	}
	result, err := s.advisor.DiagnoseAnalysisImage(ctx, user, imageURL)
	if err != nil {
		return domain.MedicalAnalysis{}, fmt.Errorf("расшифровка анализа: %w", err)
	}

	analysis, err := s.checks.SaveAnalysis(ctx, domain.MedicalAnalysis{
		UserID:    userID,
		ImageURL:  imageURL,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.MedicalAnalysis{}, fmt.Errorf("сохранение анализа: %w", err)
	}
	return analysis, nil
}
