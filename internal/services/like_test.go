package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
	"github.com/Lllllllleong/submissionwall/internal/store/storetest"
)

func TestLikeIncrementsByOne(t *testing.T) {
	mem := storetest.NewMemory(
		models.Record{SubmissionID: "B", Likes: 1},
		models.Record{SubmissionID: "A", Likes: 3},
	)
	resp, err := NewLikeFunction(store.NewAccessor(mem)).Process(context.Background(), &models.LikeRequest{SubmissionID: "A"})
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResponse{Success: true, Likes: 4}, resp)
	assert.Equal(t, 4, mem.Records()[1].Likes)
	assert.Equal(t, 1, mem.Records()[0].Likes)
}

func TestLikeRepeatedCallsAddUp(t *testing.T) {
	mem := storetest.NewMemory(models.Record{SubmissionID: "A", Likes: 3})
	f := NewLikeFunction(store.NewAccessor(mem))
	for i := 0; i < 5; i++ {
		_, err := f.Process(context.Background(), &models.LikeRequest{SubmissionID: "A"})
		require.NoError(t, err)
	}
	assert.Equal(t, 8, mem.Records()[0].Likes)
}

func TestLikeErrors(t *testing.T) {
	mem := storetest.NewMemory(models.Record{SubmissionID: "A", Likes: 3})
	f := NewLikeFunction(store.NewAccessor(mem))

	_, err := f.Process(context.Background(), &models.LikeRequest{SubmissionID: "Z"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.Process(context.Background(), &models.LikeRequest{SubmissionID: "  "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	mem.LoadErr = errors.New("boom")
	_, err = f.Process(context.Background(), &models.LikeRequest{SubmissionID: "A"})
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Zero(t, mem.Saves)
}
