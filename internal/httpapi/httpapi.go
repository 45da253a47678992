// Package httpapi adapts the function services to net/http: method checks,
// CORS, request decoding, status mapping and JSON responses.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/services"
)

const allowedHeaders = "Content-Type, X-Api-Key"

// withCORS sets permissive cross-origin headers, answers pre-flight
// requests and rejects methods outside allowed.
func withCORS(next http.HandlerFunc, allowed ...string) http.HandlerFunc {
	methods := strings.Join(append(append([]string(nil), allowed...), http.MethodOptions), ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, methods)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		for _, m := range allowed {
			if r.Method == m {
				next(w, r)
				return
			}
		}
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func setCORS(w http.ResponseWriter, methods string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", methods)
	h.Set("Access-Control-Allow-Headers", allowedHeaders)
}

// InitFailed answers a request that arrived after the function failed to
// initialize.
func InitFailed(w http.ResponseWriter, r *http.Request, err error) {
	setCORS(w, "GET, POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// writeFailure maps err onto a status code and logs server-side failures.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("Request failed", "error", err, "status", status)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrDisallowedHost):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return upstream.Status
	default:
		return http.StatusInternalServerError
	}
}

// queryInt parses a non-negative integer parameter, falling back on
// absent or malformed values.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
