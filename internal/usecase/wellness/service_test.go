package wellness

import (
	"context"
	"fmt"
	"testing"
	"time"

	"spark-health-backend/internal/domain"
)

type stubMetricRepo struct {
	stored map[domain.MetricKind][]domain.WeeklyEntry
}

func newStubMetricRepo() *stubMetricRepo {
	return &stubMetricRepo{stored: make(map[domain.MetricKind][]domain.WeeklyEntry)}
}

func (s *stubMetricRepo) ListWeekly(_ context.Context, _ int64, kind domain.MetricKind) ([]domain.WeeklyEntry, error) {
	return s.stored[kind], nil
}

func (s *stubMetricRepo) ReplaceWeekly(_ context.Context, _ int64, kind domain.MetricKind, entries []domain.WeeklyEntry) error {
	s.stored[kind] = entries
	return nil
}

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 12, 0, 0, 0, time.UTC)
}

func TestAppendSampleEmpty(t *testing.T) {
	got := AppendSample(nil, 7.5, time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC))
	if len(got) != 1 {
		t.Fatalf("ожидали 1 запись, получили %d", len(got))
	}
	if got[0].Date != "01.06.2025" || got[0].Value != 7.5 {
		t.Fatalf("неожиданная запись: %+v", got[0])
	}
}

func TestAppendSampleEightDaysKeepsLastSeven(t *testing.T) {
	var seq []domain.WeeklyEntry
	for d := 1; d <= 8; d++ {
		seq = AppendSample(seq, float64(d), day(d))
	}
	if len(seq) != 7 {
		t.Fatalf("ожидали окно из 7 записей, получили %d", len(seq))
	}
	for i, e := range seq {
		want := fmt.Sprintf("%02d.06.2025", i+2)
		if e.Date != want {
			t.Fatalf("позиция %d: ожидали %s, получили %s", i, want, e.Date)
		}
	}
}

func TestAppendSampleBackfillIsResorted(t *testing.T) {
	var seq []domain.WeeklyEntry
	seq = AppendSample(seq, 6, day(10))
	seq = AppendSample(seq, 8, day(12))
	// Ретроспективная запись за более раннюю дату.
	seq = AppendSample(seq, 7, day(11))

	want := []string{"10.06.2025", "11.06.2025", "12.06.2025"}
	if len(seq) != 3 {
		t.Fatalf("ожидали 3 записи, получили %d", len(seq))
	}
	for i, e := range seq {
		if e.Date != want[i] {
			t.Fatalf("позиция %d: ожидали %s, получили %s", i, want[i], e.Date)
		}
	}
}

func TestAppendSampleOverwritesSameDate(t *testing.T) {
	var seq []domain.WeeklyEntry
	seq = AppendSample(seq, 6, day(10))
	seq = AppendSample(seq, 9, day(10))

	if len(seq) != 1 {
		t.Fatalf("повтор за ту же дату должен перезаписываться, получили %d записей", len(seq))
	}
	if seq[0].Value != 9 {
		t.Fatalf("ожидали значение 9, получили %v", seq[0].Value)
	}
}

func TestAppendSampleDropsMalformedEntries(t *testing.T) {
	existing := []domain.WeeklyEntry{
		{Date: "09.06.2025", Value: 5},
		{Date: "not-a-date", Value: 1},
		{Date: "", Value: 2},
	}
	got := AppendSample(existing, 6, day(10))
	if len(got) != 2 {
		t.Fatalf("некорректные записи должны отбрасываться, получили %d", len(got))
	}
	if got[0].Date != "09.06.2025" || got[1].Date != "10.06.2025" {
		t.Fatalf("неожиданный порядок: %v", got)
	}
}

func TestAddWeeklyStatisticIndependentMetrics(t *testing.T) {
	repo := newStubMetricRepo()
	repo.stored[domain.MetricWater] = []domain.WeeklyEntry{{Date: "09.06.2025", Value: 2}}
	svc := NewService(repo).WithClock(func() time.Time { return day(10) })

	sleep := 7.5
	if err := svc.AddWeeklyStatistic(context.Background(), 1, &sleep, nil); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if len(repo.stored[domain.MetricSleep]) != 1 {
		t.Fatalf("ожидали 1 запись сна, получили %d", len(repo.stored[domain.MetricSleep]))
	}
	// Вода не передана — последовательность не тронута.
	if len(repo.stored[domain.MetricWater]) != 1 || repo.stored[domain.MetricWater][0].Value != 2 {
		t.Fatalf("последовательность воды должна остаться нетронутой: %v", repo.stored[domain.MetricWater])
	}
}

func TestGetWeeklyStatistic(t *testing.T) {
	repo := newStubMetricRepo()
	repo.stored[domain.MetricSleep] = []domain.WeeklyEntry{{Date: "09.06.2025", Value: 8}}
	repo.stored[domain.MetricWater] = []domain.WeeklyEntry{{Date: "09.06.2025", Value: 2.5}}
	svc := NewService(repo)

	stat, err := svc.GetWeeklyStatistic(context.Background(), 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(stat.Sleep) != 1 || len(stat.Water) != 1 {
		t.Fatalf("неожиданная статистика: %+v", stat)
	}
}
