package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/reconcile"
)

// Reconciler runs one reconciliation batch.
type Reconciler interface {
	Reconcile(ctx context.Context, offset, limit int) (*models.ReconcileSummary, error)
}

// BackfillFunction is the HTTP-triggered reconciliation batch.
type BackfillFunction struct {
	reconciler   Reconciler
	defaultLimit int
	key          string
}

func NewBackfill(ctx context.Context) (*BackfillFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	r, err := newReconciler(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewBackfillFunction(r, cfg.BatchSize, cfg.BackfillKey), nil
}

func NewBackfillFunction(r Reconciler, defaultLimit int, key string) *BackfillFunction {
	return &BackfillFunction{reconciler: r, defaultLimit: defaultLimit, key: key}
}

func newReconciler(ctx context.Context, cfg *config.Config) (*reconcile.Reconciler, error) {
	accessor, err := newStoreAccessor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	fetcher, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	relayer, err := newRelay(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return reconcile.New(accessor, fetcher, relayer, cfg.Fields), nil
}

// Authorize checks the shared static key when one is configured.
func (f *BackfillFunction) Authorize(key string) error {
	if f.key != "" && key != f.key {
		return models.ErrUnauthorized
	}
	return nil
}

// DefaultLimit is the batch size used when the request has none.
func (f *BackfillFunction) DefaultLimit() int {
	return f.defaultLimit
}

func (f *BackfillFunction) Process(ctx context.Context, req models.BackfillRequest) (*models.ReconcileSummary, error) {
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Limit <= 0 {
		req.Limit = f.defaultLimit
	}
	logging.FromContext(ctx).Info("Starting backfill batch.", "offset", req.Offset, "limit", req.Limit)
	return f.reconciler.Reconcile(ctx, req.Offset, req.Limit)
}
