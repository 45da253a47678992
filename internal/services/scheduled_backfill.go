package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/gcp"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/reconcile"
)

// WorkflowStarter starts a workflow execution with a JSON argument.
type WorkflowStarter interface {
	Trigger(ctx context.Context, argument any) (string, error)
}

// ScheduledBackfillResult summarizes one scheduled run.
type ScheduledBackfillResult struct {
	Batches   int
	Processed int
	Failed    int
	Removed   int
	Skipped   int
	Remaining int
	// Done is set once every missing submission has been attempted.
	Done bool
	// NextOffset is where the handed-off workflow resumes.
	NextOffset int
	Execution  string
}

// ScheduledBackfillFunction runs several reconciliation batches per
// scheduler tick and hands the rest to a workflow.
type ScheduledBackfillFunction struct {
	reconciler   Reconciler
	workflow     WorkflowStarter
	defaultLimit int
	maxBatches   int
}

func NewScheduledBackfill(ctx context.Context) (*ScheduledBackfillFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	r, err := newReconciler(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var workflow WorkflowStarter
	if cfg.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			return nil, err
		}
		workflow = trigger
	}
	return NewScheduledBackfillFunction(r, workflow, cfg.BatchSize, cfg.ScheduledMaxBatches), nil
}

// NewScheduledBackfillFunction wires the function. workflow may be nil, in
// which case leftover work waits for the next tick.
func NewScheduledBackfillFunction(r Reconciler, workflow WorkflowStarter, defaultLimit, maxBatches int) *ScheduledBackfillFunction {
	return &ScheduledBackfillFunction{
		reconciler:   r,
		workflow:     workflow,
		defaultLimit: defaultLimit,
		maxBatches:   max(maxBatches, 1),
	}
}

func (f *ScheduledBackfillFunction) Process(ctx context.Context, msg models.ScheduledBackfillMessage) (*ScheduledBackfillResult, error) {
	offset := max(msg.Offset, 0)
	limit := msg.Limit
	if limit <= 0 {
		limit = f.defaultLimit
	}
	maxBatches := msg.MaxBatches
	if maxBatches <= 0 {
		maxBatches = f.maxBatches
	}
	logCtx := logging.FromContext(ctx).With("offset", offset, "limit", limit, "maxBatches", maxBatches)

	result := &ScheduledBackfillResult{}
	for result.Batches < maxBatches {
		summary, err := f.reconciler.Reconcile(ctx, offset, limit)
		if err != nil {
			logCtx.Error("Scheduled batch failed", "error", err, "batch", result.Batches, "batchOffset", offset)
			return result, err
		}
		result.Batches++
		result.Processed += summary.Processed
		result.Failed += summary.Failed
		result.Removed += summary.Removed
		result.Skipped += summary.Skipped

		offset = reconcile.ResumeOffset(offset, summary)
		result.Remaining = reconcile.Remaining(summary)
		result.NextOffset = offset
		if offset >= result.Remaining {
			result.Done = true
			break
		}
	}

	if !result.Done && f.workflow != nil {
		execution, err := f.workflow.Trigger(ctx, models.BackfillRequest{Offset: offset, Limit: limit})
		if err != nil {
			logCtx.Error("Failed to hand off remaining batches", "error", err, "nextOffset", offset)
			return result, err
		}
		result.Execution = execution
		logCtx.Info("Handed remaining batches to workflow.", "execution", execution, "nextOffset", offset)
	}

	logCtx.Info("Scheduled backfill finished.",
		"batches", result.Batches,
		"processed", result.Processed,
		"failed", result.Failed,
		"removed", result.Removed,
		"remaining", result.Remaining,
	)
	return result, nil
}
