// Package core provides the business logic for field prompt ingestion.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"time"
)

// Column names of the tabular export. Matching is case- and name-exact.
const (
	ColumnArea    = "Area"
	ColumnSubArea = "Sub Area"
	ColumnField   = "Field"
	ColumnPrompt  = "Prompt"
)

// ExpectedColumns lists the header an export must carry, in canonical order.
var ExpectedColumns = []string{ColumnArea, ColumnSubArea, ColumnField, ColumnPrompt}

// Key is the natural key of a stored prompt.
type Key struct {
	Area    string `json:"area"`
	SubArea string `json:"subArea"`
	Field   string `json:"field"`
}

// String renders the key as "area|sub_area|field" for logs and messages.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Area, k.SubArea, k.Field)
}

// FieldPrompt is the persisted entity.
type FieldPrompt struct {
	ID        int64     `json:"id"`
	Area      string    `json:"area"`
	SubArea   string    `json:"subArea"`
	Field     string    `json:"field"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the natural key of the prompt.
func (p FieldPrompt) Key() Key {
	return Key{Area: p.Area, SubArea: p.SubArea, Field: p.Field}
}

// RawRecord is a row as loaded from the export, before normalization.
type RawRecord struct {
	Line    int // 1-indexed source line, 0 if unknown
	Area    string
	SubArea string
	Field   string
	Prompt  string
}

// NormalizedRecord is a cleaned, deduplicated row ready for storage.
type NormalizedRecord struct {
	Key
	Prompt string `json:"prompt"`
	Line   int    `json:"line,omitempty"`
}

// Outcome is the terminal state of a record within one ingest run.
type Outcome string

const (
	OutcomePending         Outcome = "pending"
	OutcomeInserted        Outcome = "inserted"
	OutcomeSkippedExisting Outcome = "skipped_existing"
	OutcomeFailed          Outcome = "failed"
)

// RecordResult is the outcome of applying a single record.
type RecordResult struct {
	Record  NormalizedRecord
	Outcome Outcome
	Kind    ErrorKind // set when Outcome is OutcomeFailed
	Err     error     // set when Outcome is OutcomeFailed
}

// RecordFailure describes a record that could not be applied.
type RecordFailure struct {
	Key    Key       `json:"key"`
	Line   int       `json:"line,omitempty"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

// IngestResult is the aggregate report of an ingest run.
type IngestResult struct {
	RunID           string          `json:"runId"`
	Inserted        int             `json:"inserted"`
	SkippedExisting int             `json:"skippedExisting"`
	Failed          int             `json:"failed"`
	NotAttempted    int             `json:"notAttempted,omitempty"`
	Failures        []RecordFailure `json:"failures,omitempty"`
	Duration        time.Duration   `json:"duration"`
}

// Total returns the number of records accounted for by the result.
func (r IngestResult) Total() int {
	return r.Inserted + r.SkippedExisting + r.Failed + r.NotAttempted
}

// add tallies a single record outcome.
func (r *IngestResult) add(res RecordResult) {
	switch res.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeSkippedExisting:
		r.SkippedExisting++
	case OutcomeFailed:
		r.Failed++
		reason := ""
		if res.Err != nil {
			reason = res.Err.Error()
		}
		r.Failures = append(r.Failures, RecordFailure{
			Key:    res.Record.Key,
			Line:   res.Record.Line,
			Kind:   res.Kind,
			Reason: reason,
		})
	}
}

// PreviewSummary is the dry-run classification of a record set.
type PreviewSummary struct {
	New      int `json:"new"`
	Existing int `json:"existing"`
}

// Stats is a table-wide snapshot of stored prompts.
type Stats struct {
	TotalRecords    int64      `json:"totalRecords"`
	UniqueAreas     int64      `json:"uniqueAreas"`
	UniqueSubAreas  int64      `json:"uniqueSubAreas"`
	RecentlyUpdated int64      `json:"recentlyUpdated"`
	LastUpdated     *time.Time `json:"lastUpdated,omitempty"`
}

// StatsDelta is the difference between two snapshots (after - before).
type StatsDelta struct {
	TotalRecords    int64 `json:"totalRecords"`
	UniqueAreas     int64 `json:"uniqueAreas"`
	UniqueSubAreas  int64 `json:"uniqueSubAreas"`
	RecentlyUpdated int64 `json:"recentlyUpdated"`
}

// Delta returns after minus before for each counter.
func Delta(before, after Stats) StatsDelta {
	return StatsDelta{
		TotalRecords:    after.TotalRecords - before.TotalRecords,
		UniqueAreas:     after.UniqueAreas - before.UniqueAreas,
		UniqueSubAreas:  after.UniqueSubAreas - before.UniqueSubAreas,
		RecentlyUpdated: after.RecentlyUpdated - before.RecentlyUpdated,
	}
}

// RunRecord is a persisted summary of a completed ingest run.
type RunRecord struct {
	ID              string        `json:"id"`
	Source          string        `json:"source"`
	Total           int           `json:"total"`
	Inserted        int           `json:"inserted"`
	SkippedExisting int           `json:"skippedExisting"`
	Failed          int           `json:"failed"`
	NotAttempted    int           `json:"notAttempted"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration"`
}
