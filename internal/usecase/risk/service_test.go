package risk

import (
	"context"
	"errors"
	"testing"

	"spark-health-backend/internal/domain"
)

type stubUsers struct{ user domain.User }

func (s *stubUsers) Create(context.Context, domain.User) (domain.User, error) {
	return domain.User{}, nil
}
func (s *stubUsers) GetByID(context.Context, int64) (domain.User, error) { return s.user, nil }
func (s *stubUsers) FindByIdentifier(context.Context, string) (domain.User, error) {
	return s.user, nil
}
func (s *stubUsers) UpdateProfile(context.Context, domain.User) (domain.User, error) {
	return s.user, nil
}
func (s *stubUsers) UpdatePassword(context.Context, string, string) error { return nil }

type stubChecks struct {
	skin        *domain.SkinCheck
	analysis    *domain.MedicalAnalysis
	skinErr     error
	analysisErr error
}

func (s *stubChecks) SaveDentalCheck(_ context.Context, c domain.DentalCheck) (domain.DentalCheck, error) {
	return c, nil
}
func (s *stubChecks) SaveSkinCheck(_ context.Context, c domain.SkinCheck) (domain.SkinCheck, error) {
	return c, nil
}
func (s *stubChecks) SaveAnalysis(_ context.Context, a domain.MedicalAnalysis) (domain.MedicalAnalysis, error) {
	return a, nil
}
func (s *stubChecks) LatestSkinCheck(context.Context, int64) (domain.SkinCheck, bool, error) {
	if s.skinErr != nil {
		return domain.SkinCheck{}, false, s.skinErr
	}
	if s.skin == nil {
		return domain.SkinCheck{}, false, nil
	}
	return *s.skin, true, nil
}
func (s *stubChecks) LatestAnalysis(context.Context, int64) (domain.MedicalAnalysis, bool, error) {
	if s.analysisErr != nil {
		return domain.MedicalAnalysis{}, false, s.analysisErr
	}
	if s.analysis == nil {
		return domain.MedicalAnalysis{}, false, nil
	}
	return *s.analysis, true, nil
}

type stubRisks struct {
	saved   *domain.RiskProfile
	current *domain.RiskProfile
}

func (s *stubRisks) UpsertRiskProfile(_ context.Context, p domain.RiskProfile) (domain.RiskProfile, error) {
	s.saved = &p
	return p, nil
}
func (s *stubRisks) GetRiskProfile(context.Context, int64) (domain.RiskProfile, bool, error) {
	if s.current == nil {
		return domain.RiskProfile{}, false, nil
	}
	return *s.current, true, nil
}

type stubAdvisor struct {
	assessment   domain.RiskAssessment
	err          error
	lastSkin     *domain.SkinCheck
	lastAnalysis *domain.MedicalAnalysis
}

func (s *stubAdvisor) HealthAdvice(context.Context, domain.User) (domain.HealthAdvice, error) {
	return domain.HealthAdvice{}, nil
}
func (s *stubAdvisor) HydrationStats(context.Context, domain.User) (domain.HydrationStats, error) {
	return domain.HydrationStats{}, nil
}
func (s *stubAdvisor) Assist(context.Context, domain.User, string) (domain.HealthAdvice, error) {
	return domain.HealthAdvice{}, nil
}
func (s *stubAdvisor) AssessRisk(_ context.Context, _ domain.User, skin *domain.SkinCheck, analysis *domain.MedicalAnalysis) (domain.RiskAssessment, error) {
	s.lastSkin, s.lastAnalysis = skin, analysis
	return s.assessment, s.err
}
func (s *stubAdvisor) ExplainDentalFindings(context.Context, domain.User, []byte) (string, error) {
	return "", nil
}
func (s *stubAdvisor) SummarizeVisit(context.Context, string) (domain.VisitSummary, error) {
	return domain.VisitSummary{}, nil
}
func (s *stubAdvisor) DiagnoseAnalysisImage(context.Context, domain.User, string) (string, error) {
	return "", nil
}

type stubReports struct{ path string }

func (s *stubReports) BuildRiskReport(domain.User, domain.RiskProfile) (string, error) {
	return s.path, nil
}
func (s *stubReports) BuildVisitSummary(domain.User, domain.Doctor, domain.VisitSummary) (string, error) {
	return s.path, nil
}

func TestCalculatePassesLatestChecksToAdvisor(t *testing.T) {
	checks := &stubChecks{
		skin:     &domain.SkinCheck{RiskLevel: "high"},
		analysis: &domain.MedicalAnalysis{Result: "гемоглобин понижен"},
	}
	adv := &stubAdvisor{assessment: domain.RiskAssessment{RiskScore: 55, RiskFactors: []string{"кожа"}}}
	risks := &stubRisks{}
	svc := NewService(&stubUsers{}, checks, risks, adv, &stubReports{path: "reports/r.pdf"})

	result, err := svc.Calculate(context.Background(), 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if adv.lastSkin == nil || adv.lastAnalysis == nil {
		t.Fatal("последние проверки должны передаваться в оценку")
	}
	if risks.saved == nil || risks.saved.RiskScore != 55 {
		t.Fatalf("профиль должен сохраняться: %+v", risks.saved)
	}
	if result.PDFPath != "reports/r.pdf" {
		t.Fatalf("неожиданный путь отчёта: %s", result.PDFPath)
	}
	if risks.saved.ReportPath != "reports/r.pdf" {
		t.Fatalf("путь отчёта должен сохраняться в профиле: %+v", risks.saved)
	}
}

func TestReportReturnsPathFromBuilder(t *testing.T) {
	// Каталог отчётов настраивается, путь нельзя выводить заново.
	adv := &stubAdvisor{assessment: domain.RiskAssessment{RiskScore: 20}}
	risks := &stubRisks{}
	svc := NewService(&stubUsers{}, &stubChecks{}, risks, adv, &stubReports{path: "/var/reports/risk_report_1_1750000000.pdf"})

	if _, err := svc.Calculate(context.Background(), 1); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	risks.current = risks.saved

	path, err := svc.Report(context.Background(), 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if path != "/var/reports/risk_report_1_1750000000.pdf" {
		t.Fatalf("ожидали путь построителя, получили %s", path)
	}
}

func TestCalculateWorksWithoutChecks(t *testing.T) {
	adv := &stubAdvisor{assessment: domain.RiskAssessment{RiskScore: 10}}
	svc := NewService(&stubUsers{}, &stubChecks{}, &stubRisks{}, adv, &stubReports{})

	if _, err := svc.Calculate(context.Background(), 1); err != nil {
		t.Fatalf("отсутствие проверок не должно быть ошибкой: %v", err)
	}
	if adv.lastSkin != nil || adv.lastAnalysis != nil {
		t.Fatal("без проверок в оценку должны передаваться nil")
	}
}

func TestCalculateAbortsOnStorageError(t *testing.T) {
	checks := &stubChecks{skinErr: errors.New("db down")}
	svc := NewService(&stubUsers{}, checks, &stubRisks{}, &stubAdvisor{}, &stubReports{})

	if _, err := svc.Calculate(context.Background(), 1); err == nil {
		t.Fatal("ошибка чтения проверок должна прерывать расчёт")
	}
}

func TestReportRequiresExistingProfile(t *testing.T) {
	svc := NewService(&stubUsers{}, &stubChecks{}, &stubRisks{}, &stubAdvisor{}, &stubReports{})
	if _, err := svc.Report(context.Background(), 1); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("ожидали ErrProfileNotFound, получили %v", err)
	}
}
