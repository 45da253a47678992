package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// LikeFunction increments a record's like counter.
type LikeFunction struct {
	mutators *Mutators
}

func NewLike(ctx context.Context) (*LikeFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	accessor, err := newStoreAccessor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewLikeFunction(accessor), nil
}

func NewLikeFunction(accessor *store.Accessor) *LikeFunction {
	return &LikeFunction{mutators: NewMutators(accessor)}
}

func (f *LikeFunction) Process(ctx context.Context, req *models.LikeRequest) (*models.LikeResponse, error) {
	likes, err := f.mutators.IncrementLike(ctx, req.SubmissionID)
	if err != nil {
		return nil, err
	}
	return &models.LikeResponse{Success: true, Likes: likes}, nil
}
