package natal

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// DateLayout is the accepted birth date format (ДД.ММ.ГГГГ).
const DateLayout = "02.01.2006"

const maxPlaceLen = 128

// BirthData is what the user reports about their birth.
type BirthData struct {
	Date  time.Time
	Time  domain.TimeOfDay
	Place string
}

// Step is the next piece of data a Session waits for.
type Step int

const (
	StepDate Step = iota
	StepTime
	StepPlace
	StepDone
)

// Session walks a user through date, time and place.
type Session struct {
	Step Step
	Data BirthData
}

// Prompt returns the question for the current step.
func (s *Session) Prompt() string {
	switch s.Step {
	case StepDate:
		return "🌌 Введите дату рождения в формате ДД.ММ.ГГГГ"
	case StepTime:
		return "🕒 Введите время рождения в формате ЧЧ:ММ"
	case StepPlace:
		return "🌍 Введите город рождения"
	default:
		return ""
	}
}

// Feed validates input for the current step and advances on success.
// On error the step is unchanged.
func (s *Session) Feed(input string, now time.Time) error {
	switch s.Step {
	case StepDate:
		d, err := ParseBirthDate(input, now)
		if err != nil {
			return err
		}
		s.Data.Date = d
	case StepTime:
		t, err := domain.ParseTimeOfDay(strings.TrimSpace(input))
		if err != nil {
			return err
		}
		s.Data.Time = t
	case StepPlace:
		p, err := ParsePlace(input)
		if err != nil {
			return err
		}
		s.Data.Place = p
	default:
		return fmt.Errorf("%w: session already complete", domain.ErrInvalidInput)
	}
	s.Step++
	return nil
}

// Done reports whether all data has been collected.
func (s *Session) Done() bool { return s.Step == StepDone }

// ParseBirthDate parses ДД.ММ.ГГГГ and rejects dates in the future or before 1900.
func ParseBirthDate(raw string, now time.Time) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expected ДД.ММ.ГГГГ, got %q", domain.ErrInvalidInput, raw)
	}
	if d.Year() < 1900 {
		return time.Time{}, fmt.Errorf("%w: year %d is too early", domain.ErrInvalidInput, d.Year())
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return time.Time{}, fmt.Errorf("%w: birth date is in the future", domain.ErrInvalidInput)
	}
	return d, nil
}

// ParsePlace trims the place name and checks its length.
func ParsePlace(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", fmt.Errorf("%w: empty place", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(p) > maxPlaceLen {
		return "", fmt.Errorf("%w: place is longer than %d characters", domain.ErrInvalidInput, maxPlaceLen)
	}
	return p, nil
}
