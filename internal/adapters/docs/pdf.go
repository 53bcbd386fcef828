package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"spark-health-backend/internal/domain"
)

// PDF строит отчёты в формате PDF и сохраняет их на диск.
type PDF struct {
	dir      string
	fontDir  string
	fontName string
}

var _ domain.ReportBuilder = (*PDF)(nil)

// NewPDF создаёт построитель отчётов. fontDir должен содержать
// шрифт DejaVuSans.ttf с поддержкой кириллицы.
func NewPDF(dir, fontDir string) *PDF {
	return &PDF{dir: dir, fontDir: fontDir, fontName: "DejaVuSans"}
}

func (p *PDF) newDoc() *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", p.fontDir)
	doc.AddUTF8Font(p.fontName, "", "DejaVuSans.ttf")
	doc.SetFont(p.fontName, "", 12)
	doc.AddPage()
	return doc
}

func (p *PDF) save(doc *gofpdf.Fpdf, name string) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("создание каталога отчётов: %w", err)
	}
	path := filepath.Join(p.dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("сохранение отчёта: %w", err)
	}
	return path, nil
}

// BuildRiskReport строит PDF с профилем рисков пользователя.
func (p *PDF) BuildRiskReport(user domain.User, profile domain.RiskProfile) (string, error) {
	doc := p.newDoc()
	doc.SetFont(p.fontName, "", 16)
	doc.CellFormat(0, 10, "Отчёт о рисках для здоровья", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont(p.fontName, "", 12)
	doc.CellFormat(0, 8, "Пациент: "+user.FullName(), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 8, fmt.Sprintf("Возраст: %d, рост: %.0f см, вес: %.0f кг", user.Age, user.Height, user.Weight), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 8, "Дата: "+profile.UpdatedAt.Format("02.01.2006 15:04"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont(p.fontName, "", 14)
	doc.CellFormat(0, 10, fmt.Sprintf("Оценка риска: %.1f из 100", profile.RiskScore), "", 1, "L", false, 0, "")
	doc.Ln(2)

	doc.SetFont(p.fontName, "", 12)
	doc.CellFormat(0, 8, "Факторы риска:", "", 1, "L", false, 0, "")
	for _, factor := range profile.RiskFactors {
		doc.MultiCell(0, 7, "• "+factor, "", "L", false)
	}

	name := fmt.Sprintf("risk_report_%d_%d.pdf", user.ID, profile.UpdatedAt.Unix())
	return p.save(doc, name)
}

// BuildVisitSummary строит PDF со сводкой приёма у врача.
func (p *PDF) BuildVisitSummary(user domain.User, doctor domain.Doctor, summary domain.VisitSummary) (string, error) {
	doc := p.newDoc()
	doc.SetFont(p.fontName, "", 16)
	doc.CellFormat(0, 10, "Сводка приёма у врача", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont(p.fontName, "", 12)
	doc.CellFormat(0, 8, "Пациент: "+user.FullName(), "", 1, "L", false, 0, "")
	if doctor.ID != 0 {
		doctorName := doctor.LastName + " " + doctor.FirstName
		if doctor.Speciality != "" {
			doctorName += " (" + doctor.Speciality + ")"
		}
		doc.CellFormat(0, 8, "Врач: "+doctorName, "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	doc.MultiCell(0, 7, summary.Summary, "", "L", false)
	doc.Ln(2)

	if len(summary.Recommendations) > 0 {
		doc.CellFormat(0, 8, "Рекомендации:", "", 1, "L", false, 0, "")
		for _, rec := range summary.Recommendations {
			doc.MultiCell(0, 7, "• "+rec, "", "L", false)
		}
	}

	name := fmt.Sprintf("visit_summary_%d_%d.pdf", user.ID, time.Now().Unix())
	return p.save(doc, name)
}
