package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xymaxim/vpick/internal/extract"
	"github.com/xymaxim/vpick/internal/picker"
)

// HandlerFunc is an HTTP handler that reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WithError turns errors returned by h into JSON error envelopes: validation
// errors become 400, everything else 500.
func (a *App) WithError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.writeError(w, r, err)
		}
	}
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := loggerFrom(r.Context())
	messages := negotiateMessages(r, a.Config.Server.Locale)

	var validationErr *picker.ValidationError
	if errors.As(err, &validationErr) {
		logger.Info("rejecting request", "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: messages.MissingURL})
		return
	}

	logger.Error("processing video", "err", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: messages.Processing + describe(err, messages),
	})
}

// describe returns the cause text embedded into the processing message.
func describe(err error, messages Messages) string {
	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) {
		if d := extractionErr.Description(); d != "" {
			return d
		}
	}
	if s := err.Error(); s != "" {
		return s
	}
	return messages.Unknown
}

// outcome classifies an error for metrics.
func outcome(err error) string {
	var (
		validationErr *picker.ValidationError
		extractionErr *extract.ExtractionError
		malformedErr  *picker.MalformedFormatError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &extractionErr):
		return "extraction_error"
	case errors.As(err, &malformedErr):
		return "malformed"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("writing json response", "err", err)
	}
}
