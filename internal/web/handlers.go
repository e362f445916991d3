package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/JonMunkholm/fieldprompts/internal/logging"
	"github.com/go-chi/chi/v5"
)

// UpdatePromptRequest is the body of PUT /api/prompts/{id}.
type UpdatePromptRequest struct {
	Prompt *string `json:"prompt"`
}

// UpdatePromptResponse reports whether the text changed and the stored row.
type UpdatePromptResponse struct {
	Changed bool             `json:"changed"`
	Prompt  core.FieldPrompt `json:"prompt"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), parseIntParam(r, "limit", core.DefaultHistoryLimit))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.service.Areas(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) handleSubAreas(w http.ResponseWriter, r *http.Request) {
	subAreas, err := s.service.SubAreas(r.Context(), chi.URLParam(r, "area"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subAreas)
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("area")
	subArea := r.URL.Query().Get("sub_area")
	if area == "" || subArea == "" {
		s.respondError(w, r, badRequest("area and sub_area are required"))
		return
	}

	prompts, err := s.service.Prompts(r.Context(), area, subArea)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	prompt, err := s.service.Prompt(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req UpdatePromptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil || req.Prompt == nil {
		s.respondError(w, r, badRequest("body must be a JSON object with a prompt field"))
		return
	}

	changed, err := s.service.UpdatePrompt(r.Context(), id, *req.Prompt)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	prompt, err := s.service.Prompt(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdatePromptResponse{Changed: changed, Prompt: prompt})
}

// handlePreview reports what an import would do without writing.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, core.RunOptions{})
}

// handleIngest applies an export. Per-record failures are part of the
// report, so a run with failures still answers 200.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	preview, _ := strconv.ParseBool(r.URL.Query().Get("preview"))
	s.handleRun(w, r, core.RunOptions{Apply: true, Preview: preview})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, opts core.RunOptions) {
	source, body, err := s.openExport(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()

	raw, err := core.ReadRecords(body, s.service.MaxFileSize())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.Run(r.Context(), source, raw, opts)
	if err != nil {
		if report != nil && report.Result != nil {
			res := report.Result
			logging.FromContext(r.Context()).Warn("ingest stopped early",
				"run_id", report.RunID,
				"source", report.Source,
				"inserted", res.Inserted,
				"skipped_existing", res.SkippedExisting,
				"failed", res.Failed,
				"not_attempted", res.NotAttempted,
			)
		}
		s.respondRunError(w, r, err, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// openExport returns the export from a multipart "file" field or the raw
// request body, bounded by the configured size limit.
func (s *Server) openExport(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	if maxSize := s.service.MaxFileSize(); maxSize > 0 {
		// Headroom for multipart framing; the decoded size is enforced by
		// ReadRecords.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	}

	source := r.URL.Query().Get("source")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if source == "" {
			source = "api"
		}
		return source, r.Body, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, &core.InputFormatError{Err: core.ErrFileTooLarge}
		}
		return "", nil, badRequest("no file provided")
	}
	if source == "" {
		source = header.Filename
	}
	return source, file, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("invalid prompt id")
	}
	return id, nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
