// Package horoscope reads daily horoscope texts keyed by sign and date.
package horoscope

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// ErrSignNotFound means there is no horoscope source for the sign at all.
var ErrSignNotFound = fmt.Errorf("%w: sign", domain.ErrNotFound)

// Lookup returns the horoscope text for a sign on an ISO date (YYYY-MM-DD).
// Missing entries are reported with an error wrapping domain.ErrNotFound.
type Lookup interface {
	Lookup(ctx context.Context, sign domain.Sign, date string) (string, error)
}

// FileLookup reads <Dir>/<sign>.txt where each line is "YYYY-MM-DD: text".
type FileLookup struct {
	Dir string
}

// NewFileLookup creates a lookup over dir.
func NewFileLookup(dir string) *FileLookup {
	return &FileLookup{Dir: dir}
}

// Path returns the file holding horoscopes for sign.
func (l *FileLookup) Path(sign domain.Sign) string {
	return filepath.Join(l.Dir, string(sign)+".txt")
}

// Lookup returns the first line for date in the sign's file.
func (l *FileLookup) Lookup(ctx context.Context, sign domain.Sign, date string) (string, error) {
	f, err := os.Open(l.Path(sign))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrSignNotFound
		}
		return "", fmt.Errorf("open horoscope file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if day, text, ok := ParseLine(sc.Text()); ok && day == date {
			return text, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read horoscope file: %w", err)
	}
	return "", fmt.Errorf("%w: %s %s", domain.ErrNotFound, sign, date)
}

// ParseLine splits "YYYY-MM-DD: text" on the first ": ".
func ParseLine(line string) (date, text string, ok bool) {
	line = strings.TrimSpace(line)
	date, text, ok = strings.Cut(line, ": ")
	if !ok || len(date) != len("2006-01-02") {
		return "", "", false
	}
	return date, strings.TrimSpace(text), true
}

// TextOrPlaceholder returns the horoscope text, or a user-facing placeholder
// when the lookup has no entry. Other lookup errors are returned.
func TextOrPlaceholder(ctx context.Context, l Lookup, sign domain.Sign, date string) (string, error) {
	text, err := l.Lookup(ctx, sign, date)
	if err == nil {
		return text, nil
	}
	if p, ok := Placeholder(err, sign, date); ok {
		return p, nil
	}
	return "", err
}

// Placeholder maps a not-found lookup error to the text shown instead of a horoscope.
func Placeholder(err error, sign domain.Sign, date string) (string, bool) {
	switch {
	case errors.Is(err, ErrSignNotFound):
		return fmt.Sprintf("Извините, гороскоп для %s не найден.", sign), true
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Извините, гороскоп на %s для %s не найден.", date, sign), true
	default:
		return "", false
	}
}
