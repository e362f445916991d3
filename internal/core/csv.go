package core

// csv.go loads the tabular export into RawRecords.
//
// The reader is wrapped with a BOM-aware decoder so that UTF-8 files saved
// with a BOM and UTF-16 exports from spreadsheet tools are read correctly;
// invalid UTF-8 bytes are replaced with U+FFFD. The header is validated
// before any row is returned, so a wrong export never reaches storage.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyInput is wrapped by InputFormatError when the source has no header.
	ErrEmptyInput = errors.New("empty file")

	// ErrFileTooLarge is wrapped by InputFormatError when the source exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ReadRecords parses a CSV export into raw records.
// maxBytes limits the decoded size; zero or negative means no limit.
// Any structural problem is returned as *InputFormatError.
func ReadRecords(r io.Reader, maxBytes int64) ([]RawRecord, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	var src io.Reader = decoded
	if maxBytes > 0 {
		src = io.LimitReader(decoded, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, &InputFormatError{Reason: "read input", Err: err}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &InputFormatError{
			Reason: fmt.Sprintf("exceeds %d bytes", maxBytes),
			Err:    ErrFileTooLarge,
		}
	}

	return parseRecords(data)
}

func parseRecords(data []byte) ([]RawRecord, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		header  []string
		columns map[string]int
		records []RawRecord
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &InputFormatError{Expected: ExpectedColumns, Reason: "parse CSV", Err: err}
		}
		if isEmptyRow(row) {
			continue
		}

		if header == nil {
			header = row
			columns, err = validateHeader(header)
			if err != nil {
				return nil, err
			}
			continue
		}

		line, _ := cr.FieldPos(0)
		records = append(records, RawRecord{
			Line:    line,
			Area:    cell(row, columns[ColumnArea]),
			SubArea: cell(row, columns[ColumnSubArea]),
			Field:   cell(row, columns[ColumnField]),
			Prompt:  cell(row, columns[ColumnPrompt]),
		})
	}

	if header == nil {
		return nil, &InputFormatError{Expected: ExpectedColumns, Err: ErrEmptyInput}
	}
	return records, nil
}

// validateHeader checks that the header is exactly the expected column set
// and returns each expected column's position.
func validateHeader(header []string) (map[string]int, error) {
	fail := func(reason string) error {
		return &InputFormatError{
			Expected: ExpectedColumns,
			Got:      append([]string(nil), header...),
			Reason:   reason,
		}
	}

	if len(header) != len(ExpectedColumns) {
		return nil, fail(fmt.Sprintf("expected %d columns, got %d", len(ExpectedColumns), len(header)))
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; dup {
			return nil, fail(fmt.Sprintf("duplicate column %q", name))
		}
		columns[name] = i
	}

	var missing []string
	for _, want := range ExpectedColumns {
		if _, ok := columns[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fail("missing required column " + strings.Join(missing, ", "))
	}
	return columns, nil
}

func cell(row []string, pos int) string {
	if pos < len(row) {
		return row[pos]
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
