package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/intake"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
	"github.com/Lllllllleong/submissionwall/internal/store/storetest"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestWebhook(mem *storetest.Memory, rel *fakeRelay) *WebhookFunction {
	f := NewWebhookFunction(store.NewAccessor(mem), rel, config.FieldMap{})
	f.now = func() time.Time { return fixedNow }
	return f
}

func TestWebhookStoresNewSubmissionFirst(t *testing.T) {
	mem := storetest.NewMemory(models.Record{SubmissionID: "old", ImageURL: "https://host/old.png"})
	rel := &fakeRelay{}

	resp, err := newTestWebhook(mem, rel).Process(context.Background(), &intake.Payload{
		SubmissionID: "A", Name: "Mario", ImageURL: "http://x/a.png",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.Skipped)
	assert.Equal(t, "https://host/a.png", resp.ImageURL)

	records := mem.Records()
	require.Len(t, records, 2)
	assert.Equal(t, models.Record{
		SubmissionID: "A",
		Name:         "Mario",
		ImageURL:     "https://host/a.png",
		Timestamp:    "2024-06-01T12:00:00Z",
	}, records[0])
	assert.Equal(t, "old", records[1].SubmissionID)
}

func TestWebhookSkipsDuplicateWithoutRelaying(t *testing.T) {
	mem := storetest.NewMemory(models.Record{SubmissionID: "A", ImageURL: "https://host/a.png", Likes: 2})
	rel := &fakeRelay{}

	resp, err := newTestWebhook(mem, rel).Process(context.Background(), &intake.Payload{
		SubmissionID: "A", ImageURL: "http://x/a.png",
	})
	require.NoError(t, err)
	assert.True(t, resp.Skipped)
	assert.Equal(t, "duplicate submissionId", resp.Reason)
	assert.Empty(t, rel.calls)
	assert.Zero(t, mem.Saves)
}

func TestWebhookSkipsRecordStoredWhileRelaying(t *testing.T) {
	mem := storetest.NewMemory()
	rel := &fakeRelay{onRelay: func() {
		mem.Set(models.Record{SubmissionID: "A", ImageURL: "https://host/first.png"})
	}}

	resp, err := newTestWebhook(mem, rel).Process(context.Background(), &intake.Payload{
		SubmissionID: "A", ImageURL: "http://x/a.png",
	})
	require.NoError(t, err)
	assert.True(t, resp.Skipped)
	require.Len(t, mem.Records(), 1)
	assert.Equal(t, "https://host/first.png", mem.Records()[0].ImageURL)
}

func TestWebhookWithoutIDAlwaysInserts(t *testing.T) {
	mem := storetest.NewMemory(models.Record{Name: "legacy", ImageURL: "https://host/l.png"})
	f := newTestWebhook(mem, &fakeRelay{})

	for i := 0; i < 2; i++ {
		_, err := f.Process(context.Background(), &intake.Payload{ImageURL: "http://x/a.png"})
		require.NoError(t, err)
	}
	assert.Len(t, mem.Records(), 3)
}

func TestWebhookRequiresImage(t *testing.T) {
	mem := storetest.NewMemory()
	_, err := newTestWebhook(mem, &fakeRelay{}).Process(context.Background(), &intake.Payload{SubmissionID: "A"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestWebhookRelayFailureAborts(t *testing.T) {
	mem := storetest.NewMemory()
	_, err := newTestWebhook(mem, &fakeRelay{fail: true}).Process(context.Background(), &intake.Payload{
		SubmissionID: "A", ImageURL: "http://x/a.png",
	})
	assert.ErrorIs(t, err, models.ErrDownloadFailed)
	assert.Zero(t, mem.Saves)
}
