package core

import (
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/config"
)

// Defaults used when no configuration is supplied.
const (
	DefaultRecordTimeout = 30 * time.Second
	DefaultRecentWindow  = 7 * 24 * time.Hour
)

// Service provides the reconciliation pipeline and the editing contract.
// The store handle is explicit; there is no process-wide connection state.
type Service struct {
	store Store

	recordTimeout time.Duration
	recentWindow  time.Duration
	maxFileSize   int64

	limiter  *RunLimiter
	observer func(RecordResult)
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecordObserver registers a callback invoked after each record is applied.
// It runs on the ingest goroutine and must not block.
func WithRecordObserver(fn func(RecordResult)) Option {
	return func(s *Service) { s.observer = fn }
}

// WithRunLimiter bounds how many ingest runs may execute at once.
func WithRunLimiter(l *RunLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates a Service over store. cfg may be nil, in which case
// defaults apply.
func NewService(store Store, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:         store,
		recordTimeout: DefaultRecordTimeout,
		recentWindow:  DefaultRecentWindow,
		now:           time.Now,
	}

	if cfg != nil {
		if cfg.Ingest.RecordTimeout > 0 {
			s.recordTimeout = cfg.Ingest.RecordTimeout
		}
		if cfg.Ingest.RecentWindow > 0 {
			s.recentWindow = cfg.Ingest.RecentWindow
		}
		s.maxFileSize = cfg.Ingest.MaxFileSize
		s.limiter = NewRunLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxFileSize is the configured size limit for exports, 0 when unlimited.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Limiter returns the run limiter, or nil when runs are unbounded.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

func (s *Service) observe(res RecordResult) {
	if s.observer != nil {
		s.observer(res)
	}
}
