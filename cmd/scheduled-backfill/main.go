package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/services"
)

var (
	backfillInstance *services.ScheduledBackfillFunction
	once             sync.Once
	initErr          error
)

// messagePublishedData is the Pub/Sub CloudEvent payload. Data arrives
// base64 encoded, which encoding/json decodes into a byte slice.
type messagePublishedData struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func init() {
	logging.Setup()

	// Cloud Scheduler publishes to the topic this function subscribes to.
	functions.CloudEvent("ScheduledBackfill", scheduledBackfill)
}

// main is required by the Go Functions Framework.
func main() {}

func scheduledBackfill(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		backfillInstance, initErr = services.NewScheduledBackfill(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	ctx, logCtx := logging.NewInvocation(ctx, "ScheduledBackfill")
	msg, err := decodeMessage(e)
	if err != nil {
		logCtx.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID())
		return err
	}

	_, err = backfillInstance.Process(ctx, msg)
	return err
}

// decodeMessage extracts the optional batch overrides. An empty message
// body means configured defaults.
func decodeMessage(e cloudevents.Event) (models.ScheduledBackfillMessage, error) {
	var msg models.ScheduledBackfillMessage
	var data messagePublishedData
	if len(e.Data()) == 0 {
		return msg, nil
	}
	if err := json.Unmarshal(e.Data(), &data); err != nil {
		return msg, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if len(data.Message.Data) == 0 {
		return msg, nil
	}
	if err := json.Unmarshal(data.Message.Data, &msg); err != nil {
		return msg, fmt.Errorf("decode scheduler message: %w", err)
	}
	return msg, nil
}
