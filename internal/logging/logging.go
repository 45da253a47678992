// Package logging installs the structured JSON logger and carries a
// per-invocation logger through request contexts.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Setup makes a JSON handler on stdout the default logger.
func Setup() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
}

// NewInvocation tags a fresh invocationId onto the default logger and
// stores the result in the returned context.
func NewInvocation(ctx context.Context, function string) (context.Context, *slog.Logger) {
	logCtx := slog.With("function", function, "invocationId", uuid.NewString())
	return WithLogger(ctx, logCtx), logCtx
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the invocation logger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
