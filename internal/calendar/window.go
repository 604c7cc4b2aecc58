package calendar

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidClock     = errors.New("invalid time of day")
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// Window — интервал по настенным часам внутри одного дня [Start, End).
type Window struct {
	Start datatypes.Time
	End   datatypes.Time
}

// NewWindow создаёт интервал; конец должен быть строго позже начала.
func NewWindow(start, end datatypes.Time) (Window, error) {
	if end <= start {
		return Window{}, ErrInvalidTimeRange
	}
	return Window{Start: start, End: end}, nil
}

// Overlaps — предикат пересечения записей:
// s1 < e2 && e1 > s2, либо полное совпадение границ.
func (w Window) Overlaps(o Window) bool {
	if w.Start == o.Start && w.End == o.End {
		return true
	}
	return w.Start < o.End && w.End > o.Start
}

// Covers — w целиком накрывает o, границы включительно.
func (w Window) Covers(o Window) bool {
	return w.Start <= o.Start && w.End >= o.End
}

func (w Window) Duration() time.Duration {
	return time.Duration(w.End) - time.Duration(w.Start)
}

// BillableHours — количество оплачиваемых часов: неполный час считается целым.
func BillableHours(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

// ParseDate разбирает дату YYYY-MM-DD в полночь UTC.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return datatypes.Date(t.UTC()), nil
}

// ParseClock разбирает HH:MM или HH:MM:SS.
func ParseClock(s string) (datatypes.Time, error) {
	for _, layout := range []string{ClockLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// DateOf отбрасывает время и переводит дату в UTC, как она хранится в БД.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Today возвращает текущую дату в часовом поясе клиники.
func Today(now time.Time, loc *time.Location) datatypes.Date {
	if loc != nil {
		now = now.In(loc)
	}
	return DateOf(now)
}

// DateBefore сравнивает только календарные даты.
func DateBefore(a, b datatypes.Date) bool {
	return time.Time(DateOf(time.Time(a))).Before(time.Time(DateOf(time.Time(b))))
}
