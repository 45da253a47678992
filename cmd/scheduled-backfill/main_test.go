package main

import (
	"encoding/base64"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

func pubsubEvent(t *testing.T, payload string) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//pubsub.googleapis.com/projects/p/topics/backfill")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	body := map[string]any{
		"message":      map[string]any{"data": base64.StdEncoding.EncodeToString([]byte(payload))},
		"subscription": "projects/p/subscriptions/backfill",
	}
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, body))
	return e
}

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage(pubsubEvent(t, `{"offset":4,"limit":10,"maxBatches":2}`))
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBackfillMessage{Offset: 4, Limit: 10, MaxBatches: 2}, msg)
}

func TestDecodeMessageEmptyMeansDefaults(t *testing.T) {
	msg, err := decodeMessage(pubsubEvent(t, ""))
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBackfillMessage{}, msg)

	msg, err = decodeMessage(cloudevents.NewEvent())
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledBackfillMessage{}, msg)
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := decodeMessage(pubsubEvent(t, "not json"))
	assert.Error(t, err)
}
