package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Sign is one of the twelve zodiac signs, stored by its Russian name.
type Sign string

const (
	Aries       Sign = "Овен"
	Taurus      Sign = "Телец"
	Gemini      Sign = "Близнецы"
	Cancer      Sign = "Рак"
	Leo         Sign = "Лев"
	Virgo       Sign = "Дева"
	Libra       Sign = "Весы"
	Scorpio     Sign = "Скорпион"
	Sagittarius Sign = "Стрелец"
	Capricorn   Sign = "Козерог"
	Aquarius    Sign = "Водолей"
	Pisces      Sign = "Рыбы"
)

var signs = []Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

// folded sign name -> sign
var signIndex = func() map[string]Sign {
	fold := cases.Fold()
	m := make(map[string]Sign, len(signs))
	for _, s := range signs {
		m[fold.String(string(s))] = s
	}
	return m
}()

// Signs returns the signs in zodiac order.
func Signs() []Sign {
	out := make([]Sign, len(signs))
	copy(out, signs)
	return out
}

func (s Sign) String() string { return string(s) }

// Valid reports whether s is one of the twelve signs.
func (s Sign) Valid() bool {
	for _, v := range signs {
		if v == s {
			return true
		}
	}
	return false
}

// ParseSign accepts a sign name regardless of case and surrounding spaces.
func ParseSign(raw string) (Sign, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty sign", ErrInvalidInput)
	}
	sign, ok := signIndex[cases.Fold().String(s)]
	if !ok {
		return "", fmt.Errorf("%w: unknown sign %q", ErrInvalidInput, s)
	}
	return sign, nil
}
