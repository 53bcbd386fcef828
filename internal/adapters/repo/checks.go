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

// Checks реализует domain.CheckRepo на pgxpool.
type Checks struct {
	pool *pgxpool.Pool
}

// NewChecks создаёт репозиторий медицинских проверок.
func NewChecks(pool *pgxpool.Pool) *Checks {
	return &Checks{pool: pool}
}

// SaveDentalCheck сохраняет результат распознавания снимка зубов.
func (r *Checks) SaveDentalCheck(ctx context.Context, check domain.DentalCheck) (domain.DentalCheck, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO dental_checks (user_id, image_url, raw_result, explanation)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, check.UserID, check.ImageURL, check.RawResult, check.Explanation).Scan(&check.ID, &check.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "dental_checks_insert", "dental_checks", start, err)
	if err != nil {
		return domain.DentalCheck{}, fmt.Errorf("insert dental_checks: %w", err)
	}
	return check, nil
}

// SaveSkinCheck сохраняет результат проверки кожи.
func (r *Checks) SaveSkinCheck(ctx context.Context, check domain.SkinCheck) (domain.SkinCheck, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO skin_checks (user_id, risk_level, risk_description, raw_result)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, check.UserID, check.RiskLevel, check.RiskDescription, check.RawResult).Scan(&check.ID, &check.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "skin_checks_insert", "skin_checks", start, err)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("insert skin_checks: %w", err)
	}
	return check, nil
}

// SaveAnalysis сохраняет расшифровку медицинского анализа.
func (r *Checks) SaveAnalysis(ctx context.Context, analysis domain.MedicalAnalysis) (domain.MedicalAnalysis, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO medical_analyses (user_id, image_url, result)
VALUES ($1, $2, $3)
RETURNING id, created_at
`, analysis.UserID, analysis.ImageURL, analysis.Result).Scan(&analysis.ID, &analysis.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "medical_analyses_insert", "medical_analyses", start, err)
	if err != nil {
		return domain.MedicalAnalysis{}, fmt.Errorf("insert medical_analyses: %w", err)
	}
	return analysis, nil
}

// LatestSkinCheck возвращает последнюю проверку кожи пользователя.
func (r *Checks) LatestSkinCheck(ctx context.Context, userID int64) (domain.SkinCheck, bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var check domain.SkinCheck
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, risk_level, risk_description, raw_result, created_at
FROM skin_checks
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`, userID).Scan(&check.ID, &check.UserID, &check.RiskLevel, &check.RiskDescription, &check.RawResult, &check.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "skin_checks_select", "skin_checks", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SkinCheck{}, false, nil
	}
	if err != nil {
		return domain.SkinCheck{}, false, fmt.Errorf("select skin_checks: %w", err)
	}
	return check, true, nil
}

// LatestAnalysis возвращает последний анализ пользователя.
func (r *Checks) LatestAnalysis(ctx context.Context, userID int64) (domain.MedicalAnalysis, bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var analysis domain.MedicalAnalysis
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, image_url, result, created_at
FROM medical_analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`, userID).Scan(&analysis.ID, &analysis.UserID, &analysis.ImageURL, &analysis.Result, &analysis.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "medical_analyses_select", "medical_analyses", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MedicalAnalysis{}, false, nil
	}
	if err != nil {
		return domain.MedicalAnalysis{}, false, fmt.Errorf("select medical_analyses: %w", err)
	}
	return analysis, true, nil
}

// Risks реализует domain.RiskRepo на pgxpool.
type Risks struct {
	pool *pgxpool.Pool
}

// NewRisks создаёт репозиторий профилей рисков.
func NewRisks(pool *pgxpool.Pool) *Risks {
	return &Risks{pool: pool}
}

// UpsertRiskProfile сохраняет или обновляет профиль рисков пользователя.
func (r *Risks) UpsertRiskProfile(ctx context.Context, profile domain.RiskProfile) (domain.RiskProfile, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := r.pool.Exec(ctx, `
INSERT INTO risk_profiles (user_id, risk_score, risk_factors, report_path, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET risk_score = EXCLUDED.risk_score, risk_factors = EXCLUDED.risk_factors,
    report_path = EXCLUDED.report_path, updated_at = EXCLUDED.updated_at
`, profile.UserID, profile.RiskScore, profile.RiskFactors, profile.ReportPath, profile.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "risk_profiles_upsert", "risk_profiles", start, err)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("upsert risk_profiles: %w", err)
	}
	return profile, nil
}

// GetRiskProfile возвращает профиль рисков, если он уже построен.
func (r *Risks) GetRiskProfile(ctx context.Context, userID int64) (domain.RiskProfile, bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var profile domain.RiskProfile
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT user_id, risk_score, risk_factors, report_path, updated_at
FROM risk_profiles
WHERE user_id = $1
`, userID).Scan(&profile.UserID, &profile.RiskScore, &profile.RiskFactors, &profile.ReportPath, &profile.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "risk_profiles_select", "risk_profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RiskProfile{}, false, nil
	}
	if err != nil {
		return domain.RiskProfile{}, false, fmt.Errorf("select risk_profiles: %w", err)
	}
	return profile, true, nil
}

// Transcripts реализует domain.TranscriptRepo на pgxpool.
type Transcripts struct {
	pool *pgxpool.Pool
}

// NewTranscripts создаёт репозиторий расшифровок.
func NewTranscripts(pool *pgxpool.Pool) *Transcripts {
	return &Transcripts{pool: pool}
}

// SaveTranscript сохраняет расшифровку приёма.
func (r *Transcripts) SaveTranscript(ctx context.Context, t domain.Transcript) (domain.Transcript, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO transcripts (patient_id, doctor_id, text, file_path)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, t.PatientID, t.DoctorID, t.Text, t.FilePath).Scan(&t.ID, &t.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "transcripts_insert", "transcripts", start, err)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("insert transcripts: %w", err)
	}
	return t, nil
}

// ListTranscripts возвращает расшифровки по пациенту и/или врачу.
// Нулевой идентификатор означает отсутствие фильтра.
func (r *Transcripts) ListTranscripts(ctx context.Context, patientID, doctorID int64) ([]domain.Transcript, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT id, patient_id, doctor_id, text, file_path, created_at
FROM transcripts
WHERE ($1 = 0 OR patient_id = $1) AND ($2 = 0 OR doctor_id = $2)
ORDER BY created_at DESC
`, patientID, doctorID)
	metrics.ObserveNetworkRequest("postgres", "transcripts_select", "transcripts", start, err)
	if err != nil {
		return nil, fmt.Errorf("select transcripts: %w", err)
	}
	defer rows.Close()

	var items []domain.Transcript
	for rows.Next() {
		var t domain.Transcript
		if err := rows.Scan(&t.ID, &t.PatientID, &t.DoctorID, &t.Text, &t.FilePath, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcripts: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows transcripts: %w", err)
	}
	return items, nil
}
