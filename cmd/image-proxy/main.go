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

	// "HandleImageProxy" is the entry point name configured in GCP.
	functions.HTTP("HandleImageProxy", handleImageProxy)
}

// main is required by the Go Functions Framework.
func main() {}

func handleImageProxy(w http.ResponseWriter, r *http.Request) {
	// The proxy cache lives on the service, so it is shared by every
	// request this instance serves.
	once.Do(func() {
		var svc *services.ProxyFunction
		svc, initErr = services.NewProxy(context.Background())
		if initErr == nil {
			handler = httpapi.ImageProxy(svc)
		}
	})
	if initErr != nil {
		slog.Error("Critical: ProxyFunction initialization failed", "error", initErr)
		httpapi.InitFailed(w, r, initErr)
		return
	}

	ctx, _ := logging.NewInvocation(r.Context(), "HandleImageProxy")
	handler.ServeHTTP(w, r.WithContext(ctx))
}
