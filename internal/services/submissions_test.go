package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/store"
	"github.com/Lllllllleong/submissionwall/internal/store/storetest"
)

func TestListReturnsVisibleRecordsInOrder(t *testing.T) {
	mem := storetest.NewMemory(
		models.Record{SubmissionID: "B", ImageURL: "https://host/b.png"},
		models.Record{SubmissionID: "draft"},
		models.Record{Name: "legacy", ImageURL: "https://host/l.png"},
		models.Record{SubmissionID: "A", ImageURL: "https://host/a.png", Likes: 2},
	)
	records, err := NewListFunction(store.NewAccessor(mem)).Process(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "B", records[0].SubmissionID)
	assert.Equal(t, "legacy", records[1].Name)
	assert.Equal(t, 2, records[2].Likes)
}

func TestListPassesStatusErrorThrough(t *testing.T) {
	mem := storetest.NewMemory()
	mem.LoadErr = &store.StatusError{Status: http.StatusTooManyRequests, Body: []byte(`{"message":"rate"}`)}

	_, err := NewListFunction(store.NewAccessor(mem)).Process(context.Background())
	var statusErr *store.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Status)
}
