package models

// These structs define the JSON bodies exchanged with the front-end, the
// form provider's webhook, and the scheduler/workflow that drives backfills.

// WebhookResponse is returned by the webhook function.
type WebhookResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// BackfillRequest selects one reconciliation batch.
type BackfillRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ReconcileSummary is the outcome of one reconciliation batch.
// Callers must inspect Failed and Errors even on success. Skipped counts
// batch submissions without an image; they are not failures.
type ReconcileSummary struct {
	Success      bool     `json:"success"`
	Processed    int      `json:"processed"`
	Failed       int      `json:"failed"`
	Removed      int      `json:"removed"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors"`
	TotalMissing int      `json:"totalMissing"`
	HasMore      bool     `json:"hasMore"`
	NextOffset   *int     `json:"nextOffset,omitempty"`
}

// LikeRequest is the body of a like call.
type LikeRequest struct {
	SubmissionID string `json:"submissionId"`
}

// LikeResponse carries the record's new like count.
type LikeResponse struct {
	Success bool `json:"success"`
	Likes   int  `json:"likes"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ScheduledBackfillMessage is the optional JSON body of the Pub/Sub message
// published by Cloud Scheduler. Zero values fall back to configuration.
type ScheduledBackfillMessage struct {
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	MaxBatches int `json:"maxBatches"`
}
