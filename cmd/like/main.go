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

	functions.HTTP("HandleLike", handleLike)
}

// main is required by the Go Functions Framework.
func main() {}

func handleLike(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var svc *services.LikeFunction
		svc, initErr = services.NewLike(context.Background())
		if initErr == nil {
			handler = httpapi.Like(svc)
		}
	})
	if initErr != nil {
		slog.Error("Critical: LikeFunction initialization failed", "error", initErr)
		httpapi.InitFailed(w, r, initErr)
		return
	}

	ctx, _ := logging.NewInvocation(r.Context(), "HandleLike")
	handler.ServeHTTP(w, r.WithContext(ctx))
}
