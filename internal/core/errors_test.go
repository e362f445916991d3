package core

import (
	"context"
	"database/sql/driver"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"input format", &InputFormatError{Reason: "bad header"}, KindInputFormat},
		{"schema", &SchemaError{Err: errors.New("permission denied")}, KindSchema},
		{"schema wrapping pg error", &SchemaError{Err: &pgconn.PgError{Code: "42501"}}, KindSchema},
		{"storage error keeps kind", NewStorageError(KindConstraint, errors.New("UNIQUE constraint failed")), KindConstraint},
		{"wrapped storage error", fmt.Errorf("insert: %w", NewStorageError(KindConnection, errors.New("locked"))), KindConnection},
		{"pg natural key violation", &pgconn.PgError{Code: "23505", ConstraintName: NaturalKeyConstraint}, KindConstraint},
		{"pg other unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "field_prompts_prompt_key"}, KindUnexpected},
		{"pg connection exception", &pgconn.PgError{Code: "08006"}, KindConnection},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, KindConnection},
		{"pg other", &pgconn.PgError{Code: "22001"}, KindUnexpected},
		{"context canceled", context.Canceled, KindCancelled},
		{"deadline exceeded", fmt.Errorf("insert: %w", context.DeadlineExceeded), KindCancelled},
		{"net error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindConnection},
		{"bad conn", driver.ErrBadConn, KindConnection},
		{"unexpected eof", io.ErrUnexpectedEOF, KindConnection},
		{"closed", fmt.Errorf("read: %w", net.ErrClosed), KindConnection},
		{"anything else", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewStorageError_Nil(t *testing.T) {
	if err := NewStorageError(KindConnection, nil); err != nil {
		t.Errorf("NewStorageError(nil) = %v, want nil", err)
	}
}

func TestInputFormatError_ListsExpectedColumns(t *testing.T) {
	err := &InputFormatError{
		Expected: ExpectedColumns,
		Got:      []string{"Area"},
		Reason:   "expected 4 columns, got 1",
	}

	want := `invalid input format: expected 4 columns, got 1 (expected columns: "Area", "Sub Area", "Field", "Prompt"; got: "Area")`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"empty file", &InputFormatError{Err: ErrEmptyInput}, "FILE005"},
		{"file too large", &InputFormatError{Err: ErrFileTooLarge}, "FILE001"},
		{"csv parse error", &InputFormatError{Err: &csv.ParseError{Line: 3, Err: csv.ErrQuote}}, "FILE002"},
		{"header mismatch", &InputFormatError{Expected: ExpectedColumns, Reason: "missing required column Field"}, "VAL004"},
		{"schema", &SchemaError{Err: errors.New("permission denied")}, "DB010"},
		{"prompt not found", fmt.Errorf("update prompt 3: %w", ErrPromptNotFound), "PRM001"},
		{"too many runs", ErrTooManyRuns, "RUN002"},
		{"pg duplicate", &pgconn.PgError{Code: "23505"}, "DB001"},
		{"connection", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, "DB004"},
		{"cancelled", context.Canceled, "RUN001"},
		{"deadline", context.DeadlineExceeded, "DB006"},
		{"untyped duplicate", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"untyped timeout", errors.New("statement timeout"), "DB006"},
		{"case insensitive", errors.New("Connection Refused by host"), "DB004"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantCode != "" && got.Message == "" {
				t.Error("MapError() message is empty")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrPromptNotFound)
	want := "The prompt does not exist. Refresh the list and select the prompt again (PRM001)"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	if got := FormatUserError(&InputFormatError{Expected: ExpectedColumns}); !strings.Contains(got, "Area, Sub Area, Field, Prompt") {
		t.Errorf("FormatUserError() = %q, should name the expected columns", got)
	}
}
