package core

import (
	"context"
	"fmt"
)

// DefaultHistoryLimit is used when History is called with a non-positive limit.
const DefaultHistoryLimit = 50

// History returns the most recent ingest runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs, err := s.store.Runs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	return runs, nil
}
