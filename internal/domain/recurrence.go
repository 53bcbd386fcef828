package domain

import "time"

// Recurrence описывает календарное правило повторения напоминания.
type Recurrence string

const (
	// RecurrenceDaily срабатывает каждый день.
	RecurrenceDaily Recurrence = "daily"
	// RecurrenceWeekdays срабатывает с понедельника по пятницу.
	RecurrenceWeekdays Recurrence = "weekdays"
	// RecurrenceWeekly срабатывает по понедельникам.
	RecurrenceWeekly Recurrence = "weekly"
	// RecurrenceMonthly срабатывает первого числа месяца.
	RecurrenceMonthly Recurrence = "monthly"
)

// Matches сообщает, активно ли правило в указанный календарный день.
// Неизвестное правило никогда не срабатывает.
func (r Recurrence) Matches(day time.Time) bool {
	switch r {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekdays:
		wd := day.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case RecurrenceWeekly:
		return day.Weekday() == time.Monday
	case RecurrenceMonthly:
		return day.Day() == 1
	default:
		return false
	}
}

// Valid сообщает, известно ли правило повторения.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekdays, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}
