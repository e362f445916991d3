package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/logging"
	"github.com/google/uuid"
)

// RunOptions controls a reconciliation run.
type RunOptions struct {
	// Apply commits the records. Without it the run is a dry run that only
	// previews.
	Apply bool

	// Preview classifies records before applying them. Always done for a
	// dry run.
	Preview bool
}

// RunReport is the full outcome of a reconciliation run.
type RunReport struct {
	RunID     string          `json:"runId"`
	Source    string          `json:"source"`
	Applied   bool            `json:"applied"`
	Normalize NormalizeStats  `json:"normalize"`
	Before    Stats           `json:"before"`
	Preview   *PreviewSummary `json:"preview,omitempty"`
	Result    *IngestResult   `json:"result,omitempty"`
	After     *Stats          `json:"after,omitempty"`
	Delta     *StatsDelta     `json:"delta,omitempty"`
}

// Run executes normalize, preview, ingest and stats for one export.
//
// Storage failures before the ingest starts abort the run. Once ingesting,
// per-record failures are only counted; if ctx is cancelled between records
// the partial report is returned together with the context error. The run
// summary is recorded in the run history; failing to record it is logged
// and does not fail the run.
func (s *Service) Run(ctx context.Context, source string, raw []RawRecord, opts RunOptions) (*RunReport, error) {
	runID := uuid.New().String()
	ctx = logging.ContextWithLogger(ctx, logging.WithFields(ctx, "run_id", runID, "source", source))
	logger := logging.FromContext(ctx)

	records, nstats := NormalizeWithStats(raw)
	report := &RunReport{
		RunID:     runID,
		Source:    source,
		Applied:   opts.Apply,
		Normalize: nstats,
	}
	logger.Info("records normalized",
		"input", nstats.Input,
		"incomplete", nstats.Incomplete,
		"superseded", nstats.Superseded,
		"output", nstats.Output,
	)

	if opts.Apply && s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	before, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	report.Before = before

	if opts.Preview || !opts.Apply {
		summary, err := s.Preview(ctx, records)
		if err != nil {
			return nil, err
		}
		report.Preview = &summary
	}

	if !opts.Apply {
		return report, nil
	}

	startedAt := s.now()
	result, ingestErr := s.ingest(ctx, runID, records)
	report.Result = &result

	s.recordRun(ctx, RunRecord{
		ID:              runID,
		Source:          source,
		Total:           len(records),
		Inserted:        result.Inserted,
		SkippedExisting: result.SkippedExisting,
		Failed:          result.Failed,
		NotAttempted:    result.NotAttempted,
		StartedAt:       startedAt,
		Duration:        result.Duration,
	})

	// The after snapshot is taken even for a cancelled run so the caller
	// sees what was committed.
	afterCtx := context.WithoutCancel(ctx)
	if after, err := s.Stats(afterCtx); err == nil {
		report.After = &after
		delta := Delta(before, after)
		report.Delta = &delta
	} else {
		logger.Warn("stats after ingest failed", "error", err)
	}

	return report, ingestErr
}

func (s *Service) recordRun(ctx context.Context, run RunRecord) {
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.RecordRun(recCtx, run); err != nil {
		logging.FromContext(ctx).Warn("record run history failed", "error", err)
	}
}
