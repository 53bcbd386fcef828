package advisor

import (
	"context"
	"errors"
	"testing"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/openai"
)

type stubChat struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatMessage{Role: "assistant", Content: s.content}},
	}}, nil
}

var patient = domain.User{Gender: "male", Age: 30, Height: 180, Weight: 75, Diseases: []string{"астма"}}

func TestHealthAdviceParsesJSON(t *testing.T) {
	chat := &stubChat{content: `{"advice": "пейте больше воды"}`}
	adv := NewOpenAI(chat, "gpt-4.1-mini")

	got, err := adv.HealthAdvice(context.Background(), patient)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Advice != "пейте больше воды" {
		t.Fatalf("неожиданный совет: %q", got.Advice)
	}
	if chat.lastReq.ResponseFormat == nil || chat.lastReq.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatal("запрос должен требовать JSON-ответ")
	}
}

func TestAssessRiskParsesScoreAndFactors(t *testing.T) {
	chat := &stubChat{content: `{"risk_score": 42.5, "risk_factors": ["курение", "лишний вес"]}`}
	adv := NewOpenAI(chat, "gpt-4.1-mini")

	skin := &domain.SkinCheck{RiskLevel: "high", RiskDescription: "подозрительное образование"}
	got, err := adv.AssessRisk(context.Background(), patient, skin, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.RiskScore != 42.5 || len(got.RiskFactors) != 2 {
		t.Fatalf("неожиданная оценка: %+v", got)
	}
}

func TestGenerateJSONRejectsMalformedResponse(t *testing.T) {
	chat := &stubChat{content: "не json"}
	adv := NewOpenAI(chat, "gpt-4.1-mini")

	if _, err := adv.HealthAdvice(context.Background(), patient); err == nil {
		t.Fatal("нечитаемый ответ модели должен быть ошибкой")
	}
}

func TestAdvisorPropagatesClientError(t *testing.T) {
	chat := &stubChat{err: errors.New("rate limited")}
	adv := NewOpenAI(chat, "gpt-4.1-mini")

	if _, err := adv.SummarizeVisit(context.Background(), "текст приёма"); err == nil {
		t.Fatal("ошибка клиента должна пробрасываться")
	}
}
