package postgres

import (
	"context"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// session owns one pooled connection for the duration of a run.
type session struct {
	conn   *pgxpool.Conn
	broken bool
}

func (s *session) Exists(ctx context.Context, key core.Key) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx, qExists, key.Area, key.SubArea, key.Field).Scan(&exists)
	if err != nil {
		s.markBroken(err)
		return false, err
	}
	return exists, nil
}

func (s *session) InsertIgnore(ctx context.Context, rec core.NormalizedRecord, now time.Time) (bool, error) {
	var inserted bool
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, qInsertIgnore, rec.Area, rec.SubArea, rec.Field, rec.Prompt, now.UTC())
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		s.markBroken(err)
		return false, err
	}
	return inserted, nil
}

// Close returns the connection to the pool, or destroys it when the
// session saw a failure other than a unique violation.
func (s *session) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil

	if !s.broken {
		conn.Release()
		return nil
	}
	return conn.Hijack().Close(ctx)
}

func (s *session) markBroken(err error) {
	if core.Classify(err) != core.KindConstraint {
		s.broken = true
	}
}
