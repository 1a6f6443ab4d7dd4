package store

import (
	"context"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// Repo defines storage operations for horoscope texts.
type Repo interface {
	Upsert(ctx context.Context, sign domain.Sign, day, body string) error
	Lookup(ctx context.Context, sign domain.Sign, day string) (string, error)
	ImportDir(ctx context.Context, dir string) (int, error)
	Close() error
}
