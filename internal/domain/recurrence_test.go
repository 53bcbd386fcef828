package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestRecurrenceDaily(t *testing.T) {
	for d := 1; d <= 7; d++ {
		if !RecurrenceDaily.Matches(date(2025, time.June, d)) {
			t.Fatalf("daily должно срабатывать каждый день, не сработало %d июня", d)
		}
	}
}

func TestRecurrenceWeekdays(t *testing.T) {
	// 2 июня 2025 — понедельник.
	for d := 2; d <= 6; d++ {
		if !RecurrenceWeekdays.Matches(date(2025, time.June, d)) {
			t.Fatalf("weekdays должно срабатывать в будни, не сработало %d июня", d)
		}
	}
	if RecurrenceWeekdays.Matches(date(2025, time.June, 7)) {
		t.Fatal("weekdays не должно срабатывать в субботу")
	}
	if RecurrenceWeekdays.Matches(date(2025, time.June, 8)) {
		t.Fatal("weekdays не должно срабатывать в воскресенье")
	}
}

func TestRecurrenceWeeklyOnlyMonday(t *testing.T) {
	if !RecurrenceWeekly.Matches(date(2025, time.June, 2)) {
		t.Fatal("weekly должно срабатывать в понедельник")
	}
	for d := 3; d <= 8; d++ {
		if RecurrenceWeekly.Matches(date(2025, time.June, d)) {
			t.Fatalf("weekly не должно срабатывать %d июня", d)
		}
	}
}

func TestRecurrenceMonthlyOnlyFirstDay(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		if !RecurrenceMonthly.Matches(date(2025, m, 1)) {
			t.Fatalf("monthly должно срабатывать первого числа, месяц %v", m)
		}
		for d := 2; d <= 28; d++ {
			if RecurrenceMonthly.Matches(date(2025, m, d)) {
				t.Fatalf("monthly не должно срабатывать %d числа, месяц %v", d, m)
			}
		}
	}
}

func TestRecurrenceUnknownNeverFires(t *testing.T) {
	for _, rule := range []Recurrence{"biweekly", "", "DAILY", "yearly"} {
		for d := 1; d <= 7; d++ {
			if rule.Matches(date(2025, time.June, d)) {
				t.Fatalf("неизвестное правило %q не должно срабатывать", rule)
			}
		}
	}
}

func TestParseDateChronology(t *testing.T) {
	// Лексикографический порядок строк здесь обратен хронологическому.
	early, err := ParseDate("28.12.2025")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	late, err := ParseDate("05.01.2030")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !early.Before(late) {
		t.Fatal("28.12.2025 должно быть раньше 05.01.2030")
	}
	if !("05.01.2030" < "28.12.2025") {
		t.Fatal("контрольная пара должна ломать сравнение строк")
	}
}

func TestParseDateMalformed(t *testing.T) {
	for _, raw := range []string{"", "2025-06-01", "32.01.2025", "01.13.2025", "сегодня"} {
		if _, err := ParseDate(raw); err == nil {
			t.Fatalf("ожидали ошибку разбора для %q", raw)
		}
	}
}

func TestClockRoundTrip(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 5, 33, 0, time.UTC)
	if got := FormatClock(now); got != "09:05" {
		t.Fatalf("ожидали 09:05, получили %s", got)
	}
	if _, err := ParseClock("23:59"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := ParseClock("24:00"); err == nil {
		t.Fatal("ожидали ошибку для 24:00")
	}
}
