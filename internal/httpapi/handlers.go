package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/intake"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/services"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

const maxJSONBody = 64 << 10

type WebhookService interface {
	Fields() config.FieldMap
	Process(ctx context.Context, p *intake.Payload) (*models.WebhookResponse, error)
}

type BackfillService interface {
	Authorize(key string) error
	Process(ctx context.Context, req models.BackfillRequest) (*models.ReconcileSummary, error)
}

type ListService interface {
	Process(ctx context.Context) ([]models.Record, error)
}

type LikeService interface {
	Process(ctx context.Context, req *models.LikeRequest) (*models.LikeResponse, error)
}

type ProxyService interface {
	Process(ctx context.Context, rawURL string) (*services.ProxyResult, error)
}

// Webhook accepts form provider deliveries.
func Webhook(svc WebhookService) http.HandlerFunc {
	return withCORS(func(w http.ResponseWriter, r *http.Request) {
		payload, err := intake.Parse(r, svc.Fields())
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		resp, err := svc.Process(r.Context(), payload)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}, http.MethodPost)
}

// Backfill runs one reconciliation batch selected by offset and limit.
func Backfill(svc BackfillService) http.HandlerFunc {
	return withCORS(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		if key == "" {
			key = r.URL.Query().Get("key")
		}
		if err := svc.Authorize(key); err != nil {
			writeFailure(w, r, err)
			return
		}

		req := models.BackfillRequest{
			Offset: queryInt(r, "offset", 0),
			Limit:  queryInt(r, "limit", 0),
		}
		summary, err := svc.Process(r.Context(), req)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}, http.MethodGet)
}

// List serves the visible records. Store errors are passed through with
// their original status and body.
func List(svc ListService) http.HandlerFunc {
	return withCORS(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")

		records, err := svc.Process(r.Context())
		var statusErr *store.StatusError
		if errors.As(err, &statusErr) {
			h.Set("Content-Type", "application/json")
			w.WriteHeader(statusErr.Status)
			_, _ = w.Write(statusErr.Body)
			return
		}
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}, http.MethodGet)
}

// Like increments one record's like counter.
func Like(svc LikeService) http.HandlerFunc {
	return withCORS(func(w http.ResponseWriter, r *http.Request) {
		var req models.LikeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		resp, err := svc.Process(r.Context(), &req)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}, http.MethodPost)
}

// ImageProxy streams an allow-listed upstream image back with a long cache
// lifetime, or redirects to it when it is too large to relay.
func ImageProxy(svc ProxyService) http.HandlerFunc {
	return withCORS(func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Process(r.Context(), r.URL.Query().Get("url"))
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if result.RedirectURL != "" {
			http.Redirect(w, r, result.RedirectURL, http.StatusFound)
			return
		}

		h := w.Header()
		h.Set("Content-Type", result.ContentType)
		h.Set("Cache-Control", "public, max-age=31536000, immutable")
		if result.Cached {
			h.Set("X-Cache", "HIT")
		} else {
			h.Set("X-Cache", "MISS")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Body)
	}, http.MethodGet)
}
