package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

func newEmulatorBackend(t *testing.T) *FirestoreBackend {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "submissionwall-it")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewFirestoreBackend(client, fmt.Sprintf("submissions_it_%d", time.Now().UnixNano()))
}

func TestFirestoreIntegrationSaveAndLoad(t *testing.T) {
	backend := newEmulatorBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, []models.Record{
		{SubmissionID: "A", Name: "Mario", ImageURL: "https://i/a.png", Timestamp: "2024-01-01T00:00:00Z"},
		{SubmissionID: "B", Name: "Luigi", ImageURL: "https://i/b.png", Timestamp: "2024-02-01T00:00:00Z"},
		{Name: "seed", ImageURL: "https://i/s.png"},
	}))

	records, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "B", records[0].SubmissionID)
	assert.Equal(t, "A", records[1].SubmissionID)
	assert.Equal(t, "seed", records[2].Name)
	seedID := records[2].DocID
	require.NotEmpty(t, seedID)

	// Dropping A deletes its document; the seed keeps its id.
	require.NoError(t, backend.Save(ctx, []models.Record{records[0], records[2]}))
	records, err = backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "B", records[0].SubmissionID)
	assert.Equal(t, seedID, records[1].DocID)
}

func TestFirestoreIntegrationMutators(t *testing.T) {
	backend := newEmulatorBackend(t)
	ctx := context.Background()

	inserted, err := backend.InsertIfAbsent(ctx, models.Record{SubmissionID: "A", ImageURL: "https://i/a.png", Likes: 3})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = backend.InsertIfAbsent(ctx, models.Record{SubmissionID: "A", ImageURL: "https://i/other.png"})
	require.NoError(t, err)
	assert.False(t, inserted)

	likes, err := backend.IncrementLikes(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 4, likes)

	_, err = backend.IncrementLikes(ctx, "Z")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
