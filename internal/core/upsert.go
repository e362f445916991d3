package core

// upsert.go applies normalized records with insert-or-ignore semantics.
//
// Each record is its own transaction on a session owned by the run. A failed
// record is rolled back by the backend, counted, and the session is
// discarded; the next record opens a fresh connection. One bad record never
// aborts the batch, and re-running the same input is safe because existing
// keys are skipped, never overwritten.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/logging"
	"github.com/JonMunkholm/fieldprompts/internal/metrics"
	"github.com/google/uuid"
)

// Ingest applies records in order and returns the aggregate tally.
//
// The returned error is non-nil only when ctx is cancelled between records;
// the partial result is still returned, with the remaining records counted
// as NotAttempted. Per-record failures are reported in the result.
func (s *Service) Ingest(ctx context.Context, records []NormalizedRecord) (IngestResult, error) {
	return s.ingest(ctx, uuid.New().String(), records)
}

func (s *Service) ingest(ctx context.Context, runID string, records []NormalizedRecord) (IngestResult, error) {
	start := time.Now()
	result := IngestResult{RunID: runID}
	logger := logging.WithFields(ctx, "run_id", runID)

	logger.Info("ingest started", "records", len(records))
	metrics.IngestRuns.Inc()

	var sess Session
	defer func() {
		if sess != nil {
			_ = sess.Close(context.WithoutCancel(ctx))
		}
	}()

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			result.NotAttempted = len(records) - i
			result.Duration = time.Since(start)
			metrics.IngestRunDuration.Observe(result.Duration.Seconds())
			metrics.IngestRecords.WithLabelValues("not_attempted").Add(float64(result.NotAttempted))
			logger.Warn("ingest cancelled",
				"inserted", result.Inserted,
				"skipped_existing", result.SkippedExisting,
				"failed", result.Failed,
				"not_attempted", result.NotAttempted,
			)
			return result, err
		}

		res := s.applyRecord(ctx, &sess, rec, logger)
		result.add(res)
		metrics.IngestRecords.WithLabelValues(string(res.Outcome)).Inc()
		s.observe(res)
	}

	result.Duration = time.Since(start)
	metrics.IngestRunDuration.Observe(result.Duration.Seconds())
	logger.Info("ingest completed",
		"inserted", result.Inserted,
		"skipped_existing", result.SkippedExisting,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// applyRecord runs one record to a terminal outcome. The unit runs detached
// from ctx cancellation, bounded by the record timeout, so a cancel request
// never leaves a record half-applied.
func (s *Service) applyRecord(ctx context.Context, sess *Session, rec NormalizedRecord, logger *slog.Logger) RecordResult {
	unitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()

	res := RecordResult{Record: rec, Outcome: OutcomePending}

	if *sess == nil {
		opened, err := s.store.OpenSession(unitCtx)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Kind = KindConnection
			res.Err = fmt.Errorf("open session: %w", err)
			logger.Error("record failed", "key", rec.Key.String(), "line", rec.Line, "kind", res.Kind, "error", res.Err)
			return res
		}
		*sess = opened
	}

	inserted, err := (*sess).InsertIgnore(unitCtx, rec, s.now())
	if err == nil {
		if inserted {
			res.Outcome = OutcomeInserted
		} else {
			res.Outcome = OutcomeSkippedExisting
		}
		return res
	}

	kind := Classify(err)
	if kind == KindConstraint {
		// A concurrent run inserted the key first.
		logger.Debug("duplicate key race", "key", rec.Key.String())
		res.Outcome = OutcomeSkippedExisting
		return res
	}

	res.Outcome = OutcomeFailed
	res.Kind = kind
	res.Err = err
	logger.Error("record failed", "key", rec.Key.String(), "line", rec.Line, "kind", kind, "error", err)

	// Reconnect for the remaining records.
	if cerr := (*sess).Close(unitCtx); cerr != nil {
		logger.Debug("close failed session", "error", cerr)
	}
	*sess = nil
	return res
}
