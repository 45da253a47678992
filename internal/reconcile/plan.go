// Package reconcile keeps the stored wall consistent with the active
// submissions upstream: it prunes stale records and materializes missing
// ones in bounded batches.
package reconcile

import (
	"github.com/Lllllllleong/submissionwall/internal/models"
)

// Plan is the read-only part of one reconciliation batch, computed from a
// store snapshot and a complete upstream snapshot.
type Plan struct {
	Active   map[string]bool
	Retained []models.Record
	Removed  int

	// Missing is every active submission without a retained record, in
	// upstream order. Batch is the slice of it selected by offset/limit.
	Missing    []models.Submission
	Batch      []models.Submission
	HasMore    bool
	NextOffset int
}

// ActiveIDs collects the identifiers of active submissions.
func ActiveIDs(upstream []models.Submission) map[string]bool {
	active := make(map[string]bool, len(upstream))
	for _, sub := range upstream {
		if sub.ID != "" && sub.IsActive() {
			active[sub.ID] = true
		}
	}
	return active
}

// Prune keeps records without a SubmissionID and records whose
// SubmissionID is active.
func Prune(records []models.Record, active map[string]bool) ([]models.Record, int) {
	kept := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.SubmissionID == "" || active[rec.SubmissionID] {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

// NewPlan prunes the snapshot and selects the batch [offset, offset+limit)
// of the missing set.
func NewPlan(stored []models.Record, upstream []models.Submission, offset, limit int) Plan {
	offset = max(offset, 0)
	limit = max(limit, 0)

	p := Plan{Active: ActiveIDs(upstream)}
	p.Retained, p.Removed = Prune(stored, p.Active)

	have := idSet(p.Retained)
	for _, sub := range upstream {
		if !p.Active[sub.ID] || have[sub.ID] {
			continue
		}
		have[sub.ID] = true
		p.Missing = append(p.Missing, sub)
	}

	start := min(offset, len(p.Missing))
	end := min(offset+limit, len(p.Missing))
	p.Batch = p.Missing[start:end]
	p.HasMore = offset+limit < len(p.Missing)
	if p.HasMore {
		p.NextOffset = offset + limit
	}
	return p
}

// Merge applies the prune predicate to a freshly read snapshot and puts
// the staged records that are still absent in front of it, newest first.
func Merge(fresh []models.Record, active map[string]bool, staged []models.Record) ([]models.Record, int) {
	kept, removed := Prune(fresh, active)
	have := idSet(kept)

	merged := make([]models.Record, 0, len(staged)+len(kept))
	for _, rec := range staged {
		if rec.SubmissionID != "" {
			if have[rec.SubmissionID] {
				continue
			}
			have[rec.SubmissionID] = true
		}
		merged = append(merged, rec)
	}
	return append(merged, kept...), removed
}

func idSet(records []models.Record) map[string]bool {
	ids := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.SubmissionID != "" {
			ids[rec.SubmissionID] = true
		}
	}
	return ids
}

// ResumeOffset is where a driver that keeps calling Reconcile should
// continue after a batch: the records it stored have left the missing set,
// so only the failed and skipped submissions still occupy positions.
func ResumeOffset(offset int, s *models.ReconcileSummary) int {
	return max(offset, 0) + s.Failed + s.Skipped
}

// Remaining is the size of the missing set after a batch.
func Remaining(s *models.ReconcileSummary) int {
	return s.TotalMissing - s.Processed
}
