package domain

import "time"

// UserRole определяет роль учётной записи.
type UserRole string

const (
	// RoleUser обычный пациент.
	RoleUser UserRole = "user"
	// RoleAdmin администратор системы.
	RoleAdmin UserRole = "admin"
)

// User описывает пациента приложения.
type User struct {
	ID         int64
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	Patronymic string
	Gender     string
	Age        int
	Height     float64
	Weight     float64
	Diseases   []string
	MedDoc     string
	Password   string
	Role       UserRole
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName возвращает ФИО пациента.
func (u User) FullName() string {
	name := u.LastName + " " + u.FirstName
	if u.Patronymic != "" {
		name += " " + u.Patronymic
	}
	return name
}

// Notification описывает напоминание пользователя.
// Time хранится как "HH:mm", EndDate как "dd.MM.yyyy".
type Notification struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Time        string     `json:"time"`
	EndDate     string     `json:"end_date"`
	Recurrence  Recurrence `json:"recurrence"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NotificationPage страница списка напоминаний.
type NotificationPage struct {
	Data     []Notification
	Total    int
	Page     int
	LastPage int
}

// MetricKind обозначает вид недельной метрики.
type MetricKind string

const (
	// MetricSleep часы сна за сутки.
	MetricSleep MetricKind = "sleep"
	// MetricWater литры воды за сутки.
	MetricWater MetricKind = "water"
)

// WeeklyEntry одна суточная запись недельной статистики.
type WeeklyEntry struct {
	Date  string  `json:"date"` // "dd.MM.yyyy"
	Value float64 `json:"value"`
}

// WeeklyStatistic недельные последовательности пользователя.
type WeeklyStatistic struct {
	Sleep []WeeklyEntry
	Water []WeeklyEntry
}

// Doctor описывает врача клиники.
type Doctor struct {
	ID         int64
	FirstName  string
	LastName   string
	Patronymic string
	Speciality string
	ClinicName string
	CreatedAt  time.Time
}

// Appointment запись пациента к врачу.
type Appointment struct {
	ID          int64
	UserID      int64
	DoctorID    int64
	Date        time.Time
	Description string
	CreatedAt   time.Time
	Doctor      Doctor
}

// ClinicResult результат поиска клиники в каталоге 2GIS.
type ClinicResult struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	Schedule   string   `json:"schedule"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Categories []string `json:"categories"`
}

// RiskProfile агрегированный профиль рисков пользователя.
// ReportPath указывает на PDF-отчёт, построенный при последнем расчёте.
type RiskProfile struct {
	UserID      int64
	RiskScore   float64
	RiskFactors []string
	ReportPath  string
	UpdatedAt   time.Time
}

// DentalCheck результат распознавания снимка зубов.
type DentalCheck struct {
	ID          int64
	UserID      int64
	ImageURL    string
	RawResult   []byte
	Explanation string
	CreatedAt   time.Time
}

// SkinCheck результат проверки кожи.
type SkinCheck struct {
	ID              int64
	UserID          int64
	RiskLevel       string
	RiskDescription string
	RawResult       []byte
	CreatedAt       time.Time
}

// MedicalAnalysis расшифровка фото медицинского анализа.
type MedicalAnalysis struct {
	ID        int64
	UserID    int64
	ImageURL  string
	Result    string
	CreatedAt time.Time
}

// Transcript расшифровка аудиозаписи приёма.
type Transcript struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Text      string
	FilePath  string
	CreatedAt time.Time
}

// HealthAdvice персональная рекомендация от LLM.
type HealthAdvice struct {
	Advice string `json:"advice"`
}

// HydrationStats рекомендованные нормы сна и воды.
type HydrationStats struct {
	DailySleep     string `json:"daily_sleep"`
	DailyWater     string `json:"daily_water"`
	Recommendation string `json:"recommendation"`
}

// RiskAssessment ответ LLM по профилю рисков.
type RiskAssessment struct {
	RiskScore   float64  `json:"risk_score"`
	RiskFactors []string `json:"risk_factors"`
}

// VisitSummary краткие рекомендации по расшифровке приёма.
type VisitSummary struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}
