package clock

import "time"

// Clock - источник текущего времени
type Clock interface {
	Now() time.Time
}

// Real возвращает системное время в UTC
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed всегда возвращает одно и то же время. Используется в тестах.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

// StartOfDay возвращает полночь дня t в часовом поясе loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalendarDay возвращает полночь UTC календарной даты t в часовом поясе loc.
// Сроки хранятся как полночь UTC даты, поэтому граница дня строится в том же виде.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
