// Package sqlite implements core.Store on an embedded SQLite database using
// the pure-Go modernc.org/sqlite driver. It serves single-host deployments
// and tests that need a real database without a server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/config"
	"github.com/JonMunkholm/fieldprompts/internal/core"
)

// Store is a core.Store backed by a SQLite file.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the database at cfg.URL, which is a file
// path or a "file:" URI.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(cfg.URL))
	if err != nil {
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("open sqlite: %w", err))
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("ping sqlite: %w", err))
	}
	return &Store{db: db}, nil
}

// dsn adds the pragmas every connection needs. Writers wait on a locked
// database instead of failing immediately.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *Store) Close() {
	s.db.Close()
}

// EnsureSchema creates the tables and indexes in a single transaction.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return wrapErr(err)
		}
	}
	return wrapErr(tx.Commit())
}

// OpenSession reserves a single connection from the pool.
func (s *Store) OpenSession(ctx context.Context) (core.Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("acquire connection: %w", wrapErr(err)))
	}
	return &session{conn: conn}, nil
}

func (s *Store) Stats(ctx context.Context, since time.Time) (core.Stats, error) {
	var (
		st   core.Stats
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, qStats, formatTime(since)).Scan(
		&st.TotalRecords,
		&st.UniqueAreas,
		&st.UniqueSubAreas,
		&st.RecentlyUpdated,
		&last,
	)
	if err != nil {
		return core.Stats{}, wrapErr(err)
	}
	if last.Valid {
		t, err := parseTime(last.String)
		if err != nil {
			return core.Stats{}, fmt.Errorf("parse last updated: %w", err)
		}
		st.LastUpdated = &t
	}
	return st, nil
}

func (s *Store) Areas(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, qAreas)
}

func (s *Store) SubAreas(ctx context.Context, area string) ([]string, error) {
	return s.queryStrings(ctx, qSubAreas, area)
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, v)
	}
	return out, wrapErr(rows.Err())
}

func (s *Store) Prompts(ctx context.Context, area, subArea string) ([]core.FieldPrompt, error) {
	rows, err := s.db.QueryContext(ctx, qPrompts, area, subArea)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := []core.FieldPrompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, wrapErr(rows.Err())
}

func (s *Store) PromptByID(ctx context.Context, id int64) (core.FieldPrompt, error) {
	return scanOnePrompt(s.db.QueryRowContext(ctx, qPromptByID, id))
}

func (s *Store) PromptByKey(ctx context.Context, key core.Key) (core.FieldPrompt, error) {
	return scanOnePrompt(s.db.QueryRowContext(ctx, qPromptByKey, key.Area, key.SubArea, key.Field))
}

func (s *Store) UpdatePrompt(ctx context.Context, id int64, prompt string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, qUpdatePrompt, prompt, formatTime(now), id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return core.ErrPromptNotFound
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, run core.RunRecord) error {
	_, err := s.db.ExecContext(ctx, qRecordRun,
		run.ID,
		run.Source,
		run.Total,
		run.Inserted,
		run.SkippedExisting,
		run.Failed,
		run.NotAttempted,
		formatTime(run.StartedAt),
		run.Duration.Milliseconds(),
	)
	return wrapErr(err)
}

func (s *Store) Runs(ctx context.Context, limit int) ([]core.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, qRuns, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := []core.RunRecord{}
	for rows.Next() {
		var (
			run        core.RunRecord
			startedAt  string
			durationMs int64
		)
		err := rows.Scan(&run.ID, &run.Source, &run.Total, &run.Inserted, &run.SkippedExisting,
			&run.Failed, &run.NotAttempted, &startedAt, &durationMs)
		if err != nil {
			return nil, wrapErr(err)
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, run)
	}
	return out, wrapErr(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (core.FieldPrompt, error) {
	var (
		p                    core.FieldPrompt
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Area, &p.SubArea, &p.Field, &p.Prompt, &createdAt, &updatedAt); err != nil {
		return p, wrapErr(err)
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return p, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

func scanOnePrompt(row *sql.Row) (core.FieldPrompt, error) {
	p, err := scanPrompt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FieldPrompt{}, core.ErrPromptNotFound
	}
	return p, err
}
