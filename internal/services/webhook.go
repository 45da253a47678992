package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/intake"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/relay"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// WebhookFunction turns one webhook delivery into one record.
type WebhookFunction struct {
	mutators *Mutators
	relay    relay.Relayer
	fields   config.FieldMap
	now      func() time.Time
}

// NewWebhook creates a WebhookFunction from the environment.
func NewWebhook(ctx context.Context) (*WebhookFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	accessor, err := newStoreAccessor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	relayer, err := newRelay(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWebhookFunction(accessor, relayer, cfg.Fields), nil
}

func NewWebhookFunction(accessor *store.Accessor, relayer relay.Relayer, fields config.FieldMap) *WebhookFunction {
	return &WebhookFunction{
		mutators: NewMutators(accessor),
		relay:    relayer,
		fields:   fields,
		now:      time.Now,
	}
}

// Fields is the field map used to parse deliveries.
func (f *WebhookFunction) Fields() config.FieldMap {
	return f.fields
}

// Process relays the delivery's image and inserts the record unless its
// identifier is already stored.
func (f *WebhookFunction) Process(ctx context.Context, p *intake.Payload) (*models.WebhookResponse, error) {
	logCtx := logging.FromContext(ctx).With("submissionId", p.SubmissionID)

	if p.ImageURL == "" {
		logCtx.Warn("Webhook delivery has no image URL.")
		return nil, fmt.Errorf("%w: no image URL found", models.ErrInvalidInput)
	}

	// Checked before relaying so redeliveries do not upload again.
	if f.mutators.Exists(ctx, p.SubmissionID) {
		logCtx.Info("Duplicate delivery, skipping.")
		return duplicateResponse(), nil
	}

	imageURL, err := f.relay.Relay(ctx, p.ImageURL)
	if err != nil {
		logCtx.Error("Image relay failed", "error", err, "sourceUrl", p.ImageURL)
		return nil, err
	}

	rec := models.Record{
		SubmissionID: p.SubmissionID,
		Name:         p.Name,
		ImageURL:     imageURL,
		Timestamp:    f.now().UTC().Format(time.RFC3339),
	}
	inserted, err := f.mutators.InsertIfAbsent(ctx, rec)
	if err != nil {
		logCtx.Error("Failed to store record", "error", err)
		return nil, err
	}
	if !inserted {
		logCtx.Info("Record appeared while relaying, skipping.")
		return duplicateResponse(), nil
	}

	logCtx.Info("Submission stored.", "imageUrl", imageURL)
	return &models.WebhookResponse{Success: true, ImageURL: imageURL}, nil
}

func duplicateResponse() *models.WebhookResponse {
	return &models.WebhookResponse{Success: true, Skipped: true, Reason: "duplicate submissionId"}
}
