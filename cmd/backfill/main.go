package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/submissionwall/internal/httpapi"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/services"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logging.Setup()

	// "HandleBackfill" is the entry point name configured in GCP.
	functions.HTTP("HandleBackfill", handleBackfill)
}

// main is required by the Go Functions Framework.
func main() {}

func handleBackfill(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var svc *services.BackfillFunction
		svc, initErr = services.NewBackfill(context.Background())
		if initErr == nil {
			handler = httpapi.Backfill(svc)
		}
	})
	if initErr != nil {
		slog.Error("Critical: BackfillFunction initialization failed", "error", initErr)
		httpapi.InitFailed(w, r, initErr)
		return
	}

	ctx, _ := logging.NewInvocation(r.Context(), "HandleBackfill")
	handler.ServeHTTP(w, r.WithContext(ctx))
}
