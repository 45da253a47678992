package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// Mutators are the two single-record changes to the wall. They use the
// backend's atomic per-record operations when available and fall back to
// a whole-document read-modify-write.
type Mutators struct {
	store *store.Accessor
}

func NewMutators(accessor *store.Accessor) *Mutators {
	return &Mutators{store: accessor}
}

// Exists reports whether a record with the identifier is stored. An
// unreadable store counts as empty.
func (m *Mutators) Exists(ctx context.Context, submissionID string) bool {
	if submissionID == "" {
		return false
	}
	return indexOf(m.store.FetchAll(ctx), submissionID) >= 0
}

// InsertIfAbsent puts rec at the front of the wall unless its identifier
// is already stored, and reports whether it was inserted.
func (m *Mutators) InsertIfAbsent(ctx context.Context, rec models.Record) (bool, error) {
	if mut, ok := m.store.Mutator(); ok {
		inserted, err := mut.InsertIfAbsent(ctx, rec)
		if err != nil {
			return false, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
		return inserted, nil
	}

	records, err := m.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if rec.SubmissionID != "" && indexOf(records, rec.SubmissionID) >= 0 {
		return false, nil
	}
	if err := m.store.ReplaceAll(ctx, append([]models.Record{rec}, records...)); err != nil {
		return false, err
	}
	return true, nil
}

// IncrementLike adds exactly one like and returns the new count.
func (m *Mutators) IncrementLike(ctx context.Context, submissionID string) (int, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return 0, fmt.Errorf("%w: submissionId is required", models.ErrInvalidInput)
	}
	logCtx := logging.FromContext(ctx).With("submissionId", submissionID)

	if mut, ok := m.store.Mutator(); ok {
		return mut.IncrementLikes(ctx, submissionID)
	}

	records, err := m.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	i := indexOf(records, submissionID)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrNotFound, submissionID)
	}
	records[i].Likes++
	if err := m.store.ReplaceAll(ctx, records); err != nil {
		return 0, err
	}
	logCtx.Info("Like recorded.", "likes", records[i].Likes)
	return records[i].Likes, nil
}

func indexOf(records []models.Record, submissionID string) int {
	for i, rec := range records {
		if rec.SubmissionID == submissionID {
			return i
		}
	}
	return -1
}
