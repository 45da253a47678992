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

	// "HandleListSubmissions" is the entry point name configured in GCP.
	functions.HTTP("HandleListSubmissions", handleListSubmissions)
}

// main is required by the Go Functions Framework.
func main() {}

// handleListSubmissions serves the wall to the front-end.
func handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var svc *services.ListFunction
		svc, initErr = services.NewList(context.Background())
		if initErr == nil {
			handler = httpapi.List(svc)
		}
	})
	if initErr != nil {
		slog.Error("Critical: ListFunction initialization failed", "error", initErr)
		httpapi.InitFailed(w, r, initErr)
		return
	}

	ctx, _ := logging.NewInvocation(r.Context(), "HandleListSubmissions")
	handler.ServeHTTP(w, r.WithContext(ctx))
}
