package core

import (
	"context"
	"log/slog"
	"time"
)

// EnsureSchema creates the prompts table and its indexes if missing.
// Safe to call on every start. A failure is fatal for the run and is
// returned as *SchemaError before any data operation.
func (s *Service) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	if err := s.store.EnsureSchema(ctx); err != nil {
		return &SchemaError{Err: err}
	}
	slog.Debug("schema ensured", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
