package core

import (
	"context"
	"time"
)

// Store is the storage backend for field prompts.
// Implemented by internal/storage/postgres and internal/storage/sqlite.
type Store interface {
	// EnsureSchema creates the tables and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error

	// OpenSession acquires a connection owned by a single pipeline run.
	// The caller must Close it.
	OpenSession(ctx context.Context) (Session, error)

	// Stats returns table-wide counts; rows with updated_at >= since are
	// counted as recently updated.
	Stats(ctx context.Context, since time.Time) (Stats, error)

	Areas(ctx context.Context) ([]string, error)
	SubAreas(ctx context.Context, area string) ([]string, error)
	Prompts(ctx context.Context, area, subArea string) ([]FieldPrompt, error)
	PromptByID(ctx context.Context, id int64) (FieldPrompt, error)
	PromptByKey(ctx context.Context, key Key) (FieldPrompt, error)

	// UpdatePrompt sets the prompt text and bumps updated_at at time now.
	// Returns ErrPromptNotFound if no row has the id.
	UpdatePrompt(ctx context.Context, id int64, prompt string, now time.Time) error

	RecordRun(ctx context.Context, run RunRecord) error
	Runs(ctx context.Context, limit int) ([]RunRecord, error)

	Close()
}

// Session is a single connection used for the per-record work of a run.
// A session is not safe for concurrent use.
type Session interface {
	// Exists reports whether a prompt with the key is stored. Read-only,
	// takes no locks.
	Exists(ctx context.Context, key Key) (bool, error)

	// InsertIgnore inserts the record in its own transaction unless the key
	// already exists. Returns true if a row was created. An existing row is
	// never modified.
	InsertIgnore(ctx context.Context, rec NormalizedRecord, now time.Time) (bool, error)

	// Close releases the connection. When the session saw a connection
	// failure the underlying connection is discarded instead of reused.
	Close(ctx context.Context) error
}
