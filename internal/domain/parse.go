package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var hhmmRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// ParseTimeOfDay parses a literal "HH:MM" (exactly two digits each).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidInput, s)
	}
	h, _ := strconv.Atoi(m[1])
	if h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour %d", ErrInvalidInput, h)
	}
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute %d", ErrInvalidInput, mm)
	}
	return TimeOfDay{Hour: h, Minute: mm}, nil
}

// TimeOfDayOf truncates t to its hour and minute.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String returns HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidInput, tz, err)
	}
	return loc, nil
}

// DateKey returns the ISO calendar date used as a horoscope key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Genitive month names keyed by the default (English) month token.
var monthsRU = map[string]string{
	"January":   "января",
	"February":  "февраля",
	"March":     "марта",
	"April":     "апреля",
	"May":       "мая",
	"June":      "июня",
	"July":      "июля",
	"August":    "августа",
	"September": "сентября",
	"October":   "октября",
	"November":  "ноября",
	"December":  "декабря",
}

// DayMonth renders t as "5 июня". Unknown month tokens are kept as is.
func DayMonth(t time.Time) string {
	token := t.Month().String()
	month, ok := monthsRU[token]
	if !ok {
		month = token
	}
	return strconv.Itoa(t.Day()) + " " + month
}
