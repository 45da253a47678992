package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

func TestFetchAllPagesAndSorts(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/form/form-9/submissions", r.URL.Path)
		require.Equal(t, "source-key", r.URL.Query().Get("apiKey"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, r.URL.Query().Get("offset"))

		var content []map[string]any
		switch offset {
		case 0:
			content = []map[string]any{
				{"id": "3", "status": "ACTIVE", "created_at": "2024-03-01 09:00:00"},
				{"id": "2", "status": "DELETED", "created_at": "2024-02-01 09:00:00"},
			}
		case 2:
			content = []map[string]any{
				{"id": "1", "status": "active", "created_at": "2024-01-01 09:00:00"},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": 200, "content": content})
	}))
	defer server.Close()

	client := NewJotformClient(server.URL, "form-9", "source-key", server.Client())
	client.pageSize = 2

	subs, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2"}, offsets)
	require.Len(t, subs, 3)
	assert.Equal(t, "1", subs[0].ID)
	assert.Equal(t, "2", subs[1].ID)
	assert.Equal(t, "3", subs[2].ID)
	assert.True(t, subs[0].IsActive())
	assert.False(t, subs[1].IsActive())
}

func TestFetchAllFailsOnUpstreamError(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{name: "http status", status: http.StatusBadGateway, body: `oops`},
		{name: "response code", status: http.StatusOK, body: `{"responseCode":401,"message":"You're not authorized to use (form-9)"}`},
		{name: "bad json", status: http.StatusOK, body: `<html>`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			_, err := NewJotformClient(server.URL, "form-9", "k", server.Client()).FetchAll(context.Background())
			assert.ErrorIs(t, err, models.ErrSourceUnavailable)
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "2024-01-02T15:04:05Z", NormalizeTimestamp("2024-01-02 15:04:05"))
	assert.Equal(t, "yesterday", NormalizeTimestamp("yesterday"))
}
