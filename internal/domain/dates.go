package domain

import (
	"fmt"
	"time"
)

const (
	// DateLayout формат календарной даты в хранилище.
	DateLayout = "02.01.2006"
	// ClockLayout формат времени суток напоминания.
	ClockLayout = "15:04"
)

// ParseDate разбирает дату формата "dd.MM.yyyy".
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("разбор даты %q: %w", raw, err)
	}
	return t, nil
}

// FormatDate приводит дату к "dd.MM.yyyy".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock разбирает время суток формата "HH:mm".
func ParseClock(raw string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("разбор времени %q: %w", raw, err)
	}
	return t, nil
}

// FormatClock приводит момент к "HH:mm".
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// SameDate сравнивает календарные дни без учёта времени.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
