package store

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/horoscope"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const upsertSQL = `
	INSERT INTO horoscopes (sign, day, body, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(sign, day) DO UPDATE SET
		body       = excluded.body,
		updated_at = excluded.updated_at`

// Upsert stores the text for (sign, day), replacing an existing one.
func (r *SQLiteRepo) Upsert(ctx context.Context, sign domain.Sign, day, body string) error {
	if !sign.Valid() {
		return fmt.Errorf("%w: unknown sign %q", domain.ErrInvalidInput, sign)
	}
	_, err := r.db.ExecContext(ctx, upsertSQL, string(sign), day, body, time.Now().UTC().Unix())
	return err
}

// Lookup returns the text for (sign, day). It satisfies horoscope.Lookup.
// A sign without any rows yields horoscope.ErrSignNotFound.
func (r *SQLiteRepo) Lookup(ctx context.Context, sign domain.Sign, day string) (string, error) {
	var (
		body sql.NullString
		n    int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT body FROM horoscopes WHERE sign = ? AND day = ?),
			(SELECT COUNT(1) FROM horoscopes WHERE sign = ?)`,
		string(sign), day, string(sign),
	).Scan(&body, &n)
	if err != nil {
		return "", fmt.Errorf("lookup %s %s: %w", sign, day, err)
	}
	switch {
	case body.Valid:
		return body.String, nil
	case n == 0:
		return "", horoscope.ErrSignNotFound
	default:
		return "", fmt.Errorf("%w: %s %s", domain.ErrNotFound, sign, day)
	}
}

// ImportDir loads every <Sign>.txt file found in dir. Within a file the first
// line for a date wins; existing rows are overwritten. Returns rows written.
func (r *SQLiteRepo) ImportDir(ctx context.Context, dir string) (int, error) {
	files := horoscope.NewFileLookup(dir)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Unix()
	total := 0
	for _, sign := range domain.Signs() {
		entries, err := readSignFile(files.Path(sign))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", sign, err)
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, upsertSQL, string(sign), e.day, e.body, now); err != nil {
				return 0, fmt.Errorf("upsert %s %s: %w", sign, e.day, err)
			}
			total++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

type fileEntry struct{ day, body string }

func readSignFile(path string) ([]fileEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var out []fileEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		day, body, ok := horoscope.ParseLine(sc.Text())
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, fileEntry{day: day, body: body})
	}
	return out, sc.Err()
}
