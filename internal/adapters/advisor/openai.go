package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/openai"
)

// chatClient покрывает используемую часть клиента OpenAI.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует domain.Advisor через Chat Completions.
type OpenAI struct {
	client chatClient
	model  string
}

var _ domain.Advisor = (*OpenAI)(nil)

// NewOpenAI создаёт адаптер рекомендаций.
func NewOpenAI(client chatClient, model string) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	return &OpenAI{client: client, model: model}
}

const advisorSystemPrompt = `Ты — медицинский ассистент мобильного приложения о здоровье.
Отвечай на русском языке, кратко и по делу. Не ставь диагнозов,
при тревожных симптомах рекомендуй обратиться к врачу.
Отвечай строго JSON-объектом без пояснений вокруг.`

func profileSummary(user domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Пол: %s, возраст: %d, рост: %.0f см, вес: %.0f кг.", user.Gender, user.Age, user.Height, user.Weight)
	if len(user.Diseases) > 0 {
		fmt.Fprintf(&b, " Хронические заболевания: %s.", strings.Join(user.Diseases, ", "))
	}
	return b.String()
}

// generateJSON выполняет запрос с требованием JSON-ответа и
// декодирует его в out.
func (a *OpenAI) generateJSON(ctx context.Context, userPrompt string, out any) error {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.3,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: advisorSystemPrompt},
			{Role: openai.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("advisor: пустой ответ модели")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("advisor: разбор ответа модели: %w", err)
	}
	return nil
}

// HealthAdvice возвращает общий совет по профилю пользователя.
func (a *OpenAI) HealthAdvice(ctx context.Context, user domain.User) (domain.HealthAdvice, error) {
	prompt := fmt.Sprintf(`%s
Дай одну персональную рекомендацию по здоровью на сегодня.
Формат ответа: {"advice": "текст рекомендации"}`, profileSummary(user))

	var advice domain.HealthAdvice
	if err := a.generateJSON(ctx, prompt, &advice); err != nil {
		return domain.HealthAdvice{}, err
	}
	return advice, nil
}

// HydrationStats возвращает рекомендованные нормы сна и воды.
func (a *OpenAI) HydrationStats(ctx context.Context, user domain.User) (domain.HydrationStats, error) {
	prompt := fmt.Sprintf(`%s
Рассчитай рекомендованные нормы сна и потребления воды в сутки.
Формат ответа: {"daily_sleep": "8 часов", "daily_water": "2.1 литра", "recommendation": "краткое пояснение"}`, profileSummary(user))

	var stats domain.HydrationStats
	if err := a.generateJSON(ctx, prompt, &stats); err != nil {
		return domain.HydrationStats{}, err
	}
	return stats, nil
}

// Assist отвечает на произвольный вопрос пользователя.
func (a *OpenAI) Assist(ctx context.Context, user domain.User, query string) (domain.HealthAdvice, error) {
	prompt := fmt.Sprintf(`%s
Вопрос пользователя: %s
Формат ответа: {"advice": "текст ответа"}`, profileSummary(user), query)

	var advice domain.HealthAdvice
	if err := a.generateJSON(ctx, prompt, &advice); err != nil {
		return domain.HealthAdvice{}, err
	}
	return advice, nil
}

// AssessRisk оценивает риски по профилю и последним проверкам.
func (a *OpenAI) AssessRisk(ctx context.Context, user domain.User, skin *domain.SkinCheck, analysis *domain.MedicalAnalysis) (domain.RiskAssessment, error) {
	var b strings.Builder
	b.WriteString(profileSummary(user))
	if skin != nil {
		fmt.Fprintf(&b, "\nПоследняя проверка кожи: уровень риска %s, %s.", skin.RiskLevel, skin.RiskDescription)
	}
	if analysis != nil {
		fmt.Fprintf(&b, "\nПоследняя расшифровка анализов: %s", analysis.Result)
	}
	b.WriteString(`
Оцени общий риск для здоровья по шкале от 0 до 100 и перечисли факторы риска.
Формат ответа: {"risk_score": 42.5, "risk_factors": ["фактор 1", "фактор 2"]}`)

	var assessment domain.RiskAssessment
	if err := a.generateJSON(ctx, b.String(), &assessment); err != nil {
		return domain.RiskAssessment{}, err
	}
	return assessment, nil
}

// ExplainDentalFindings объясняет сырой результат распознавания снимка.
func (a *OpenAI) ExplainDentalFindings(ctx context.Context, user domain.User, findings []byte) (string, error) {
	prompt := fmt.Sprintf(`%s
Результат автоматического распознавания снимка зубов (JSON): %s
Объясни находки простым языком и подскажи, нужен ли визит к стоматологу.
Формат ответа: {"advice": "пояснение"}`, profileSummary(user), string(findings))

	var advice domain.HealthAdvice
	if err := a.generateJSON(ctx, prompt, &advice); err != nil {
		return "", err
	}
	return advice.Advice, nil
}

// SummarizeVisit строит сводку и рекомендации по расшифровке приёма.
func (a *OpenAI) SummarizeVisit(ctx context.Context, transcript string) (domain.VisitSummary, error) {
	prompt := fmt.Sprintf(`Расшифровка приёма у врача:
%s
Составь краткую сводку приёма и список рекомендаций пациенту.
Формат ответа: {"summary": "сводка", "recommendations": ["рекомендация 1"]}`, transcript)

	var summary domain.VisitSummary
	if err := a.generateJSON(ctx, prompt, &summary); err != nil {
		return domain.VisitSummary{}, err
	}
	return summary, nil
}

// DiagnoseAnalysisImage расшифровывает фото медицинского анализа по ссылке.
func (a *OpenAI) DiagnoseAnalysisImage(ctx context.Context, user domain.User, imageURL string) (string, error) {
	prompt := fmt.Sprintf(`%s
Фото медицинского анализа: %s
Расшифруй показатели анализа и отметь отклонения от нормы.
Формат ответа: {"advice": "расшифровка"}`, profileSummary(user), imageURL)

	var advice domain.HealthAdvice
	if err := a.generateJSON(ctx, prompt, &advice); err != nil {
		return "", err
	}
	return advice.Advice, nil
}
