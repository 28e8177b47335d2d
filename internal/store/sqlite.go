package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database. Each
// subscriber is one row; the collection fields are JSON columns in the
// command-surface wire format (birthdays name->"MM-DD", reminders as
// {type, value} pairs).
type SQLiteRepo struct{ db *sql.DB }

// subscriberRecord is the persisted shape of one subscriber's
// collections.
type subscriberRecord struct {
	Birthdays map[string]string `json:"birthdays"`
	Endpoints []string          `json:"endpoints"`
	Reminders []reminderRecord  `json:"reminders"`
}

type reminderRecord struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

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

// SaveSubscriber upserts the subscriber's full record.
func (r *SQLiteRepo) SaveSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	rec := subscriberRecord{
		Birthdays: make(map[string]string, len(sub.Birthdays)),
		Endpoints: sub.Endpoints,
		Reminders: make([]reminderRecord, 0, len(sub.Reminders)),
	}
	for name, md := range sub.Birthdays {
		rec.Birthdays[name] = md.String()
	}
	for _, rule := range sub.Reminders {
		rec.Reminders = append(rec.Reminders, reminderRecord{
			Type:  string(rule.Kind),
			Value: rule.Value(),
		})
	}

	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO subscribers (user_id, timezone, record)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			timezone = excluded.timezone,
			record   = excluded.record`,
		sub.UserID, sub.Timezone, string(blob),
	)
	return err
}

// LoadAll reads every persisted subscriber. A row whose record fails to
// decode is skipped with an error rather than aborting the whole load.
func (r *SQLiteRepo) LoadAll(ctx context.Context) (map[string]*domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, timezone, record FROM subscribers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string]*domain.Subscriber)
	for rows.Next() {
		var userID, tz, blob string
		if err := rows.Scan(&userID, &tz, &blob); err != nil {
			return nil, err
		}
		sub, err := decodeSubscriber(userID, tz, blob)
		if err != nil {
			return nil, fmt.Errorf("decode record for %s: %w", userID, err)
		}
		res[userID] = sub
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func decodeSubscriber(userID, tz, blob string) (*domain.Subscriber, error) {
	var rec subscriberRecord
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return nil, err
	}

	sub := domain.NewSubscriber(userID, tz)
	for name, date := range rec.Birthdays {
		md, err := domain.ParseMonthDay(date)
		if err != nil {
			return nil, fmt.Errorf("birthday %q: %w", name, err)
		}
		sub.Birthdays[name] = md
	}
	sub.Endpoints = append(sub.Endpoints, rec.Endpoints...)
	for _, rr := range rec.Reminders {
		rule, err := domain.ParseRule(rr.Type, rr.Value)
		if err != nil {
			return nil, err
		}
		sub.Reminders = append(sub.Reminders, rule)
	}
	return sub, nil
}
