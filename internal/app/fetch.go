package app

import (
	"net/http"

	"github.com/xymaxim/vpick/internal/picker"
)

// FetchHandler resolves the url query parameter into a picker response.
func (a *App) FetchHandler(w http.ResponseWriter, r *http.Request) error {
	url := r.URL.Query().Get("url")

	payload, err := picker.Select(r.Context(), url, a.Provider, a.Options)
	fetchRequests.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	loggerFrom(r.Context()).Debug(
		"picked formats",
		"url", url,
		"items", len(payload.Picker),
	)
	pickerSize.Observe(float64(len(payload.Picker)))
	writeJSON(w, http.StatusOK, payload)

	return nil
}
