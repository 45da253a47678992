package reconcile

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/relay"
	"github.com/Lllllllleong/submissionwall/internal/source"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// Reconciler runs batches against the live store and submission source.
type Reconciler struct {
	store  *store.Accessor
	source source.Fetcher
	relay  relay.Relayer
	fields config.FieldMap
	now    func() time.Time
}

func New(accessor *store.Accessor, fetcher source.Fetcher, relayer relay.Relayer, fields config.FieldMap) *Reconciler {
	return &Reconciler{
		store:  accessor,
		source: fetcher,
		relay:  relayer,
		fields: fields,
		now:    time.Now,
	}
}

// Reconcile processes one batch. Per-item relay failures are reported in
// the summary; a failed upstream fetch or store write fails the call.
func (r *Reconciler) Reconcile(ctx context.Context, offset, limit int) (*models.ReconcileSummary, error) {
	logCtx := logging.FromContext(ctx).With("offset", offset, "limit", limit)

	var (
		stored   []models.Record
		upstream []models.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stored = r.store.FetchAll(gctx)
		return nil
	})
	g.Go(func() error {
		subs, err := r.source.FetchAll(gctx)
		if err != nil {
			return err
		}
		upstream = subs
		return nil
	})
	if err := g.Wait(); err != nil {
		logCtx.Error("Failed to read submission source", "error", err)
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	plan := NewPlan(stored, upstream, offset, limit)
	logCtx.Info("Planned reconciliation batch.",
		"stored", len(stored),
		"upstream", len(upstream),
		"active", len(plan.Active),
		"removed", plan.Removed,
		"totalMissing", len(plan.Missing),
		"batchSize", len(plan.Batch),
	)

	summary := &models.ReconcileSummary{
		Success:      true,
		Errors:       []string{},
		TotalMissing: len(plan.Missing),
		HasMore:      plan.HasMore,
	}
	if plan.HasMore {
		next := plan.NextOffset
		summary.NextOffset = &next
	}

	var staged []models.Record
	for _, sub := range plan.Batch {
		fields := source.Extract(sub, r.fields)
		if fields.ImageURL == "" {
			logCtx.Info("Submission has no image, skipping.", "submissionId", sub.ID)
			summary.Skipped++
			continue
		}
		imageURL, err := r.relay.Relay(ctx, fields.ImageURL)
		if err != nil {
			logCtx.Warn("Image relay failed.", "submissionId", sub.ID, "error", err)
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", sub.ID, err))
			continue
		}
		staged = append(staged, models.Record{
			SubmissionID: sub.ID,
			Name:         fields.Name,
			ImageURL:     imageURL,
			Timestamp:    r.timestamp(sub),
		})
		summary.Processed++
	}

	if len(staged) == 0 && plan.Removed == 0 {
		logCtx.Info("Nothing to write.", "failed", summary.Failed)
		return summary, nil
	}

	// Re-read right before writing to shorten the lost-update window
	// against concurrent likes and overlapping batches.
	fresh, err := r.store.Load(ctx)
	if err != nil {
		logCtx.Error("Store re-read failed, not writing.", "error", err, "staged", len(staged))
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	// Upstream order is oldest first; the wall shows newest first.
	slices.Reverse(staged)
	merged, removed := Merge(fresh, plan.Active, staged)
	if err := r.store.ReplaceAll(ctx, merged); err != nil {
		logCtx.Error("Store write failed.", "error", err)
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	summary.Removed = removed
	if removed != plan.Removed {
		logCtx.Info("Store changed between reads.", "plannedRemovals", plan.Removed, "removed", removed)
	}

	logCtx.Info("Reconciliation batch complete.",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"removed", summary.Removed,
		"hasMore", summary.HasMore,
	)
	return summary, nil
}

func (r *Reconciler) timestamp(sub models.Submission) string {
	if sub.CreatedAt != "" {
		return source.NormalizeTimestamp(sub.CreatedAt)
	}
	return r.now().UTC().Format(time.RFC3339)
}
