package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Front ends (CLI, HTTP) show the message and action and log
// the original error.
//
// Codes:
//
//	DB001  - Duplicate key
//	DB004  - Connection failure
//	DB006  - Timeout
//	DB010  - Schema could not be created
//	VAL004 - Export columns do not match
//	FILE001 - File too large
//	FILE002 - Not a readable CSV
//	FILE005 - Empty file
//	RUN001 - Run cancelled
//	RUN002 - Too many concurrent runs
//	PRM001 - Prompt not found
//	ERR000 - Anything else
//
// Typed errors are matched first. Untyped errors fall back to
// case-insensitive substring patterns; the first match wins.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	msgDuplicate = UserMessage{
		Message: "A prompt for this area, sub area and field already exists",
		Action:  "Edit the existing prompt instead of re-importing it",
		Code:    "DB001",
	}
	msgConnection = UserMessage{
		Message: "Unable to reach the database",
		Action:  "Please try again in a few moments; re-running an import is safe",
		Code:    "DB004",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Try again later or import a smaller file",
		Code:    "DB006",
	}
	msgSchema = UserMessage{
		Message: "The prompts table could not be created",
		Action:  "Check database permissions and connectivity",
		Code:    "DB010",
	}
	msgColumns = UserMessage{
		Message: "The export does not have the expected columns",
		Action:  "Use exactly the columns: Area, Sub Area, Field, Prompt",
		Code:    "VAL004",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Export the sheet as comma-separated values",
		Code:    "FILE002",
	}
	msgEmpty = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row",
		Code:    "FILE005",
	}
	msgCancelled = UserMessage{
		Message: "The import was cancelled",
		Action:  "Re-run the import; records already applied are skipped",
		Code:    "RUN001",
	}
	msgBusy = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "RUN002",
	}
	msgNotFound = UserMessage{
		Message: "The prompt does not exist",
		Action:  "Refresh the list and select the prompt again",
		Code:    "PRM001",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback for errors that carry no type information.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "connection refused", msg: msgConnection},
	{pattern: "connection reset", msg: msgConnection},
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "empty file", msg: msgEmpty},
	{pattern: "too many", msg: msgBusy},
	{pattern: "timeout", msg: msgTimeout},
}

// MapError converts a technical error into a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var inputErr *InputFormatError
	if errors.As(err, &inputErr) {
		switch {
		case errors.Is(err, ErrEmptyInput):
			return msgEmpty
		case errors.Is(err, ErrFileTooLarge):
			return msgTooLarge
		case inputErr.Err != nil:
			return msgInvalidCSV
		default:
			return msgColumns
		}
	}
	if errors.Is(err, ErrPromptNotFound) {
		return msgNotFound
	}
	if errors.Is(err, ErrTooManyRuns) {
		return msgBusy
	}

	switch Classify(err) {
	case KindSchema:
		return msgSchema
	case KindConstraint:
		return msgDuplicate
	case KindCancelled:
		if strings.Contains(err.Error(), "deadline") {
			return msgTimeout
		}
		return msgCancelled
	case KindConnection:
		return msgConnection
	}

	errLower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errLower, p.pattern) {
			return p.msg
		}
	}
	return msgDefault
}

// FormatUserError returns "Message. Action (Code)" for display in a terminal.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	if msg.Action == "" {
		return msg.Message + " (" + msg.Code + ")"
	}
	return msg.Message + ". " + msg.Action + " (" + msg.Code + ")"
}
