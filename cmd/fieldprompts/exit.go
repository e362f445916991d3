package main

import (
	"github.com/JonMunkholm/fieldprompts/internal/core"
)

// Process exit codes. Per-record failures inside a completed run are not
// errors and exit 0.
const (
	exitInternal = 1
	exitUsage    = 2
	exitInput    = 3
	exitDB       = 4
	exitCanceled = 130
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// classified attaches the exit code that matches err's kind.
func classified(err error) error {
	if err == nil {
		return nil
	}
	switch core.Classify(err) {
	case core.KindInputFormat:
		return withCode(exitInput, err)
	case core.KindSchema, core.KindConnection:
		return withCode(exitDB, err)
	case core.KindCancelled:
		return withCode(exitCanceled, err)
	default:
		return withCode(exitInternal, err)
	}
}

// userError renders err with its support code, keeping usage errors as-is.
func userError(err error) string {
	if ee, ok := err.(*exitError); ok && ee.code == exitUsage {
		return err.Error()
	}
	if msg := core.MapError(err); msg.Code != "ERR000" {
		return core.FormatUserError(err) + ": " + err.Error()
	}
	return err.Error()
}
