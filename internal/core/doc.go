// Package core reconciles tabular field-prompt exports into a relational
// table keyed by (area, sub_area, field).
//
// # Pipeline
//
// A run moves an export through four stages:
//
//  1. [ReadRecords] decodes a CSV export and checks its header.
//  2. [Normalize] trims values, drops rows missing a key part and collapses
//     duplicate keys so the last occurrence wins.
//  3. [Service.Preview] classifies records as new or existing without
//     writing anything.
//  4. [Service.Ingest] inserts new keys and leaves existing rows untouched.
//
// [Service.Run] chains the stages and brackets the ingest with
// [Service.Stats] snapshots so callers see the [StatsDelta] of a run.
//
// # Fault isolation
//
// Each record is applied in its own transaction. A failed record is
// counted, the connection is discarded and the next record reconnects.
// A duplicate key raised by a concurrent writer counts as an existing
// record, not a failure. Cancellation is honored between records only.
//
// # Editing
//
// Existing prompts change only through [Service.UpdatePrompt] and
// [Service.UpdatePromptByKey]. Ingest never overwrites prompt text.
//
// # Error Handling
//
// Storage errors are classified into an [ErrorKind] by [Classify], and
// [MapError] turns any error into a [UserMessage] with a support code:
//
//   - DB001-DB010: database errors (duplicates, connections, schema)
//   - VAL004: malformed exports
//   - FILE001-FILE005: file errors (size, empty, parse)
//   - RUN001-RUN002: run errors (busy, cancelled)
//   - PRM001: unknown prompt
package core
