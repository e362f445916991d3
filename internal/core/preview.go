package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/logging"
)

// Preview counts how many records are new and how many already exist,
// without mutating storage. Lookups are plain reads on a session owned by
// this call, so a concurrent ingest is never blocked. An empty record set
// reports {0, 0} without touching storage.
func (s *Service) Preview(ctx context.Context, records []NormalizedRecord) (PreviewSummary, error) {
	var summary PreviewSummary
	if len(records) == 0 {
		return summary, nil
	}

	start := time.Now()
	sess, err := s.store.OpenSession(ctx)
	if err != nil {
		return summary, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close(context.WithoutCancel(ctx))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		exists, err := sess.Exists(ctx, rec.Key)
		if err != nil {
			return summary, fmt.Errorf("lookup %s: %w", rec.Key, err)
		}
		if exists {
			summary.Existing++
		} else {
			summary.New++
		}
	}

	logging.FromContext(ctx).Debug("preview completed",
		"records", len(records),
		"new", summary.New,
		"existing", summary.Existing,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}
