package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/core"
)

// session pins one *sql.Conn for the duration of a run.
type session struct {
	conn   *sql.Conn
	broken bool
}

func (s *session) Exists(ctx context.Context, key core.Key) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx, qExists, key.Area, key.SubArea, key.Field).Scan(&exists)
	if err != nil {
		err = wrapErr(err)
		s.markBroken(err)
		return false, err
	}
	return exists, nil
}

func (s *session) InsertIgnore(ctx context.Context, rec core.NormalizedRecord, now time.Time) (bool, error) {
	inserted, err := s.insertIgnore(ctx, rec, now)
	if err != nil {
		err = wrapErr(err)
		s.markBroken(err)
		return false, err
	}
	return inserted, nil
}

func (s *session) insertIgnore(ctx context.Context, rec core.NormalizedRecord, now time.Time) (bool, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ts := formatTime(now)
	res, err := tx.ExecContext(ctx, qInsertIgnore, rec.Area, rec.SubArea, rec.Field, rec.Prompt, ts, ts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n == 1, nil
}

// Close returns the connection to the pool. A connection that saw a
// failure is evicted so the next session starts fresh.
func (s *session) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil

	if s.broken {
		// Returning ErrBadConn from Raw makes database/sql close and
		// discard the driver connection; conn is unusable afterwards.
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		return nil
	}
	return conn.Close()
}

func (s *session) markBroken(err error) {
	if core.Classify(err) != core.KindConstraint {
		s.broken = true
	}
}
