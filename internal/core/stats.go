package core

import (
	"context"
	"fmt"
)

// Stats returns table-wide counts in a single read. RecentlyUpdated counts
// rows updated within the recent window ending now.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	since := s.now().Add(-s.recentWindow)
	stats, err := s.store.Stats(ctx, since)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}
