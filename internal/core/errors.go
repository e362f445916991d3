package core

// errors.go defines the error taxonomy of the ingestion pipeline.
//
// Batch-fatal conditions (input format, schema) are returned as typed errors
// and abort a run before any mutation. Per-record storage failures are never
// returned from Ingest; they are classified with Classify and counted.

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a failure for counting and reporting.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindConnection  ErrorKind = "connection"
	KindInputFormat ErrorKind = "input_format"
	KindConstraint  ErrorKind = "constraint_violation"
	KindUnexpected  ErrorKind = "unexpected_storage"
	KindSchema      ErrorKind = "schema"
	KindCancelled   ErrorKind = "cancelled"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// NaturalKeyConstraint names the unique constraint on (area, sub_area, field).
// Only a violation of this constraint means the record already exists; any
// other unique violation is a failure.
const NaturalKeyConstraint = "field_prompts_area_sub_area_field_key"

// ErrPromptNotFound is returned when an update or lookup targets a missing prompt.
var ErrPromptNotFound = errors.New("prompt not found")

// InputFormatError reports source data that cannot be turned into rows.
type InputFormatError struct {
	Expected []string
	Got      []string
	Reason   string
	Err      error
}

func (e *InputFormatError) Error() string {
	var b strings.Builder
	b.WriteString("invalid input format")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected columns: %s", quoteList(e.Expected))
		if e.Got != nil {
			fmt.Fprintf(&b, "; got: %s", quoteList(e.Got))
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *InputFormatError) Unwrap() error { return e.Err }

// SchemaError wraps a DDL failure. It is fatal for the run.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string { return "ensure schema: " + e.Err.Error() }

func (e *SchemaError) Unwrap() error { return e.Err }

// StorageError is a backend error already classified by the backend.
type StorageError struct {
	Kind ErrorKind
	Err  error
}

func (e *StorageError) Error() string { return e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err with a known kind. Returns nil for a nil err.
func NewStorageError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: kind, Err: err}
}

// Classify maps an error to its ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var inputErr *InputFormatError
	if errors.As(err, &inputErr) {
		return KindInputFormat
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return KindSchema
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) && storageErr.Kind != KindNone {
		return storageErr.Kind
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == NaturalKeyConstraint:
			return KindConstraint
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01":
			// connection_exception class, admin_shutdown
			return KindConnection
		default:
			return KindUnexpected
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnection
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return KindConnection
	}

	return KindUnexpected
}

// IsConnectionError reports whether err means the connection is unusable.
func IsConnectionError(err error) bool {
	return Classify(err) == KindConnection
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
