package web

// errors.go renders every handler error the same way: the technical error
// is logged with the request ID and the client receives the mapped
// core.UserMessage with a status derived from the error kind.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/JonMunkholm/fieldprompts/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Report is the partial run report when an ingest stopped early.
	Report *core.RunReport `json:"report,omitempty"`
}

// errBadRequest marks request-shape problems detected by the handlers.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(msg string) error { return errBadRequest{msg: msg} }

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondRunError(w, r, err, nil)
}

// respondRunError is respondError carrying what a run committed before it
// stopped.
func (s *Server) respondRunError(w http.ResponseWriter, r *http.Request, err error, report *core.RunReport) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	var br errBadRequest
	if errors.As(err, &br) {
		userMsg = core.UserMessage{Message: br.msg, Code: "REQ001"}
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	} else {
		logger.Warn("request rejected",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "30")
	}

	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Report:  report,
	})
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var br errBadRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrPromptNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusTooManyRequests
	}

	switch core.Classify(err) {
	case core.KindInputFormat:
		return http.StatusBadRequest
	case core.KindConnection, core.KindSchema:
		return http.StatusServiceUnavailable
	case core.KindCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
