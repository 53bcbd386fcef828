package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// cacheTTL определяет, как долго рекомендация по неизменному профилю
// отдаётся из кэша без обращения к LLM.
const cacheTTL = 12 * time.Hour

// Service выдаёт ИИ-рекомендации по профилю пользователя.
type Service struct {
	users   domain.UserRepo
	advisor domain.Advisor
	cache   domain.Cache
}

// NewService создаёт сервис рекомендаций.
func NewService(users domain.UserRepo, advisor domain.Advisor, cache domain.Cache) *Service {
	return &Service{users: users, advisor: advisor, cache: cache}
}

// HealthAdvice возвращает общий совет по здоровью.
func (s *Service) HealthAdvice(ctx context.Context, userID int64) (domain.HealthAdvice, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.HealthAdvice{}, fmt.Errorf("получение пользователя: %w", err)
	}
	metrics.IncAdviceRequest("health_advice")

	key := cacheKey("health_advice", user)
	if cached, err := s.cache.Get(key); err == nil && len(cached) > 0 {
		var advice domain.HealthAdvice
		if json.Unmarshal(cached, &advice) == nil {
			return advice, nil
		}
	}

	advice, err := s.advisor.HealthAdvice(ctx, user)
	if err != nil {
		return domain.HealthAdvice{}, fmt.Errorf("генерация совета: %w", err)
	}
	if payload, err := json.Marshal(advice); err == nil {
		_ = s.cache.Set(key, payload, cacheTTL)
	}
	return advice, nil
}

// HydrationStats возвращает рекомендованные нормы сна и воды.
func (s *Service) HydrationStats(ctx context.Context, userID int64) (domain.HydrationStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.HydrationStats{}, fmt.Errorf("получение пользователя: %w", err)
	}
	metrics.IncAdviceRequest("hydration_stats")

	key := cacheKey("hydration_stats", user)
	if cached, err := s.cache.Get(key); err == nil && len(cached) > 0 {
		var stats domain.HydrationStats
		if json.Unmarshal(cached, &stats) == nil {
			return stats, nil
		}
	}

	stats, err := s.advisor.HydrationStats(ctx, user)
	if err != nil {
		return domain.HydrationStats{}, fmt.Errorf("генерация норм: %w", err)
	}
	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(key, payload, cacheTTL)
	}
	return stats, nil
}

// Assist отвечает на произвольный вопрос с учётом профиля.
// Свободные вопросы не кэшируются.
func (s *Service) Assist(ctx context.Context, userID int64, query string) (domain.HealthAdvice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.HealthAdvice{}, fmt.Errorf("пустой вопрос")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.HealthAdvice{}, fmt.Errorf("получение пользователя: %w", err)
	}
	metrics.IncAdviceRequest("assist")
	answer, err := s.advisor.Assist(ctx, user, query)
	if err != nil {
		return domain.HealthAdvice{}, fmt.Errorf("ответ ассистента: %w", err)
	}
	return answer, nil
}

// cacheKey строит ключ из вида запроса и значимых полей профиля:
// смена параметров тела или диагнозов инвалидирует кэш.
func cacheKey(kind string, user domain.User) string {
	payload := fmt.Sprintf("%d|%s|%d|%.1f|%.1f|%s", user.ID, user.Gender, user.Age, user.Height, user.Weight, strings.Join(user.Diseases, ","))
	sum := sha256.Sum256([]byte(payload))
	return "advice:" + kind + ":" + hex.EncodeToString(sum[:8])
}
