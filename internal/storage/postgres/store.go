// Package postgres implements core.Store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/config"
	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/JonMunkholm/fieldprompts/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a core.Store backed by a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open parses the connection URL, applies the pool settings and verifies
// the database is reachable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("connect: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("ping: %w", err))
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		logging.FromContext(ctx).Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	return New(pool), nil
}

// New wraps an existing pool. The Store takes ownership of it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables and indexes in a single transaction.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// OpenSession acquires a dedicated pool connection.
func (s *Store) OpenSession(ctx context.Context) (core.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, core.NewStorageError(core.KindConnection, fmt.Errorf("acquire connection: %w", err))
	}
	return &session{conn: conn}, nil
}

func (s *Store) Stats(ctx context.Context, since time.Time) (core.Stats, error) {
	var (
		st   core.Stats
		last pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, qStats, since.UTC()).Scan(
		&st.TotalRecords,
		&st.UniqueAreas,
		&st.UniqueSubAreas,
		&st.RecentlyUpdated,
		&last,
	)
	if err != nil {
		return core.Stats{}, err
	}
	st.LastUpdated = pgTimePtr(last)
	return st, nil
}

func (s *Store) Areas(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, qAreas)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) SubAreas(ctx context.Context, area string) ([]string, error) {
	rows, err := s.pool.Query(ctx, qSubAreas, area)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) Prompts(ctx context.Context, area, subArea string) ([]core.FieldPrompt, error) {
	rows, err := s.pool.Query(ctx, qPrompts, area, subArea)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPrompt)
}

func (s *Store) PromptByID(ctx context.Context, id int64) (core.FieldPrompt, error) {
	rows, err := s.pool.Query(ctx, qPromptByID, id)
	if err != nil {
		return core.FieldPrompt{}, err
	}
	return collectOnePrompt(rows)
}

func (s *Store) PromptByKey(ctx context.Context, key core.Key) (core.FieldPrompt, error) {
	rows, err := s.pool.Query(ctx, qPromptByKey, key.Area, key.SubArea, key.Field)
	if err != nil {
		return core.FieldPrompt{}, err
	}
	return collectOnePrompt(rows)
}

func (s *Store) UpdatePrompt(ctx context.Context, id int64, prompt string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, qUpdatePrompt, id, prompt, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrPromptNotFound
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, run core.RunRecord) error {
	_, err := s.pool.Exec(ctx, qRecordRun,
		toPgUUID(run.ID),
		run.Source,
		run.Total,
		run.Inserted,
		run.SkippedExisting,
		run.Failed,
		run.NotAttempted,
		toPgTimestamptz(run.StartedAt),
		run.Duration.Milliseconds(),
	)
	return err
}

func (s *Store) Runs(ctx context.Context, limit int) ([]core.RunRecord, error) {
	rows, err := s.pool.Query(ctx, qRuns, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.RunRecord, error) {
		var (
			run        core.RunRecord
			id         pgtype.UUID
			startedAt  pgtype.Timestamptz
			durationMs int64
		)
		err := row.Scan(&id, &run.Source, &run.Total, &run.Inserted, &run.SkippedExisting,
			&run.Failed, &run.NotAttempted, &startedAt, &durationMs)
		if err != nil {
			return run, err
		}
		run.ID = pgUUIDToString(id)
		run.StartedAt = startedAt.Time.UTC()
		run.Duration = time.Duration(durationMs) * time.Millisecond
		return run, nil
	})
}

func scanPrompt(row pgx.CollectableRow) (core.FieldPrompt, error) {
	var p core.FieldPrompt
	err := row.Scan(&p.ID, &p.Area, &p.SubArea, &p.Field, &p.Prompt, &p.CreatedAt, &p.UpdatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

func collectOnePrompt(rows pgx.Rows) (core.FieldPrompt, error) {
	p, err := pgx.CollectExactlyOneRow(rows, scanPrompt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.FieldPrompt{}, core.ErrPromptNotFound
	}
	return p, err
}
