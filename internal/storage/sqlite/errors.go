package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// naturalKeyColumns is how SQLite names the (area, sub_area, field) unique
// constraint in a violation message.
const naturalKeyColumns = "field_prompts.area, field_prompts.sub_area, field_prompts.field"

// wrapErr classifies driver errors so core can tell a duplicate key from a
// broken connection. Only a violation of the natural key counts as a
// duplicate; other unique indexes fail the record.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return err
	}

	code := sqErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(sqErr.Error(), naturalKeyColumns) {
		return core.NewStorageError(core.KindConstraint, err)
	}
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
		return core.NewStorageError(core.KindConnection, err)
	}
	return core.NewStorageError(core.KindUnexpected, err)
}
