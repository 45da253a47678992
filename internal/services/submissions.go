package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// ListFunction serves the records the front-end displays.
type ListFunction struct {
	store *store.Accessor
}

func NewList(ctx context.Context) (*ListFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	accessor, err := newStoreAccessor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewListFunction(accessor), nil
}

func NewListFunction(accessor *store.Accessor) *ListFunction {
	return &ListFunction{store: accessor}
}

// Process returns the visible records in stored order. Store failures are
// returned as is so a *store.StatusError can be passed through.
func (f *ListFunction) Process(ctx context.Context) ([]models.Record, error) {
	records, err := f.store.Backend().Load(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.Visible() {
			visible = append(visible, rec)
		}
	}
	return visible, nil
}
