package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/relay"
)

func newProxyServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		switch r.URL.Path {
		case "/uploads/a.png":
			assert.Equal(t, relay.BrowserUserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "https://www.jotform.com/", r.Header.Get("Referer"))
			assert.Equal(t, "key", r.URL.Query().Get("apiKey"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		case "/uploads/big.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/uploads/page.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<script>alert(1)</script>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyFetchesAndCaches(t *testing.T) {
	hits := 0
	srv := newProxyServer(t, &hits)
	f := NewProxyFunction(srv.Client(), []string{srv.URL + "/uploads/"}, "key", 32)

	first, err := f.Process(context.Background(), srv.URL+"/uploads/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(first.Body))
	assert.Equal(t, "image/png", first.ContentType)
	assert.False(t, first.Cached)

	second, err := f.Process(context.Background(), srv.URL+"/uploads/a.png")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "png-bytes", string(second.Body))
	assert.Equal(t, 1, hits)
}

func TestProxyRedirectsOversizedImages(t *testing.T) {
	hits := 0
	srv := newProxyServer(t, &hits)
	f := NewProxyFunction(srv.Client(), []string{srv.URL + "/uploads/"}, "", 32)

	result, err := f.Process(context.Background(), srv.URL+"/uploads/big.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/uploads/big.png", result.RedirectURL)
	assert.Empty(t, result.Body)
}

func TestProxyRejectsBadRequests(t *testing.T) {
	f := NewProxyFunction(nil, []string{"https://files.jotform.com/"}, "", 32)

	_, err := f.Process(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.Process(context.Background(), "https://evil.example.com/files.jotform.com/a.png")
	assert.ErrorIs(t, err, models.ErrDisallowedHost)

	_, err = f.Process(context.Background(), "ftp://files.jotform.com/a.png")
	assert.ErrorIs(t, err, models.ErrDisallowedHost)
}

func TestProxyPassesUpstreamStatus(t *testing.T) {
	hits := 0
	srv := newProxyServer(t, &hits)
	f := NewProxyFunction(srv.Client(), []string{srv.URL + "/uploads/"}, "", 32)

	_, err := f.Process(context.Background(), srv.URL+"/uploads/missing.png")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.Status)
}

func TestProxyRejectsNonImageResponses(t *testing.T) {
	hits := 0
	srv := newProxyServer(t, &hits)
	f := NewProxyFunction(srv.Client(), []string{srv.URL + "/uploads/"}, "", 1024)

	for i := 0; i < 2; i++ {
		result, err := f.Process(context.Background(), srv.URL+"/uploads/page.html")
		assert.Nil(t, result)
		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusBadGateway, upstream.Status)
	}
	assert.Equal(t, 2, hits)
}
