package wellness

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spark-health-backend/internal/domain"
)

// WindowSize предельная длина недельного окна.
const WindowSize = 7

// AppendSample добавляет суточную запись в последовательность и
// возвращает окно из не более чем WindowSize последних дат по
// возрастанию. Запись за ту же дату перезаписывается, некорректные
// записи отбрасываются.
func AppendSample(existing []domain.WeeklyEntry, value float64, today time.Time) []domain.WeeklyEntry {
	type dated struct {
		at    time.Time
		entry domain.WeeklyEntry
	}
	todayStr := domain.FormatDate(today)

	parsed := make([]dated, 0, len(existing)+1)
	for _, e := range existing {
		if e.Date == todayStr {
			continue
		}
		at, err := domain.ParseDate(e.Date)
		if err != nil {
			continue
		}
		parsed = append(parsed, dated{at: at, entry: e})
	}
	parsed = append(parsed, dated{
		at:    time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
		entry: domain.WeeklyEntry{Date: todayStr, Value: value},
	})

	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].at.Before(parsed[j].at) })
	if len(parsed) > WindowSize {
		parsed = parsed[len(parsed)-WindowSize:]
	}

	out := make([]domain.WeeklyEntry, 0, len(parsed))
	for _, d := range parsed {
		out = append(out, d.entry)
	}
	return out
}

// Service ведёт недельную статистику сна и воды пользователя.
type Service struct {
	repo  domain.WeeklyMetricRepo
	clock func() time.Time
}

// NewService создаёт сервис недельной статистики.
func NewService(repo domain.WeeklyMetricRepo) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// AddWeeklyStatistic добавляет суточные значения. Отсутствующая метрика
// оставляет свою последовательность нетронутой, сон и вода обновляются
// независимо.
func (s *Service) AddWeeklyStatistic(ctx context.Context, userID int64, sleep, water *float64) error {
	today := s.clock().UTC()
	if sleep != nil {
		if err := s.append(ctx, userID, domain.MetricSleep, *sleep, today); err != nil {
			return err
		}
	}
	if water != nil {
		if err := s.append(ctx, userID, domain.MetricWater, *water, today); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) append(ctx context.Context, userID int64, kind domain.MetricKind, value float64, today time.Time) error {
	existing, err := s.repo.ListWeekly(ctx, userID, kind)
	if err != nil {
		return fmt.Errorf("чтение статистики %s: %w", kind, err)
	}
	next := AppendSample(existing, value, today)
	if err := s.repo.ReplaceWeekly(ctx, userID, kind, next); err != nil {
		return fmt.Errorf("сохранение статистики %s: %w", kind, err)
	}
	return nil
}

// GetWeeklyStatistic возвращает обе последовательности пользователя.
func (s *Service) GetWeeklyStatistic(ctx context.Context, userID int64) (domain.WeeklyStatistic, error) {
	sleep, err := s.repo.ListWeekly(ctx, userID, domain.MetricSleep)
	if err != nil {
		return domain.WeeklyStatistic{}, fmt.Errorf("чтение статистики sleep: %w", err)
	}
	water, err := s.repo.ListWeekly(ctx, userID, domain.MetricWater)
	if err != nil {
		return domain.WeeklyStatistic{}, fmt.Errorf("чтение статистики water: %w", err)
	}
	return domain.WeeklyStatistic{Sleep: sleep, Water: water}, nil
}
