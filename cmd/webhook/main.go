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

	// "HandleWebhook" is the entry point name configured in GCP.
	functions.HTTP("HandleWebhook", handleWebhook)
}

// main is required by the Go Functions Framework.
func main() {}

func handleWebhook(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var svc *services.WebhookFunction
		svc, initErr = services.NewWebhook(context.Background())
		if initErr == nil {
			handler = httpapi.Webhook(svc)
		}
	})
	if initErr != nil {
		slog.Error("Critical: WebhookFunction initialization failed", "error", initErr)
		httpapi.InitFailed(w, r, initErr)
		return
	}

	ctx, _ := logging.NewInvocation(r.Context(), "HandleWebhook")
	handler.ServeHTTP(w, r.WithContext(ctx))
}
