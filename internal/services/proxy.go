package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/logging"
	"github.com/Lllllllleong/submissionwall/internal/models"
	"github.com/Lllllllleong/submissionwall/internal/relay"
)

const (
	proxyReferer        = "https://www.jotform.com/"
	proxyCacheEntries   = 128
	proxyCacheTTL       = 10 * time.Minute
	proxyCacheableBytes = 1 << 20
)

// UpstreamError is a failed image fetch. Status is the code to answer with.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ProxyResult is either an image body or, when RedirectURL is set, a
// payload too large to send back through the function.
type ProxyResult struct {
	Body        []byte
	ContentType string
	RedirectURL string
	Cached      bool
}

// ProxyFunction re-fetches allow-listed upstream images server-side.
type ProxyFunction struct {
	client   *http.Client
	prefixes []string
	apiKey   string
	maxBytes int64
	cache    *expirable.LRU[string, *ProxyResult]
}

func NewProxy(ctx context.Context) (*ProxyFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewProxyFunction(nil, cfg.ProxyAllowedPrefixes, cfg.JotformAPIKey, cfg.ProxyMaxBytes), nil
}

func NewProxyFunction(client *http.Client, prefixes []string, apiKey string, maxBytes int64) *ProxyFunction {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ProxyFunction{
		client:   client,
		prefixes: prefixes,
		apiKey:   apiKey,
		maxBytes: maxBytes,
		cache:    expirable.NewLRU[string, *ProxyResult](proxyCacheEntries, nil, proxyCacheTTL),
	}
}

// Allowed reports whether rawURL starts with one of the allow-listed prefixes.
func (f *ProxyFunction) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return false
}

func (f *ProxyFunction) Process(ctx context.Context, rawURL string) (*ProxyResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url parameter is required", models.ErrInvalidInput)
	}
	if !f.Allowed(rawURL) {
		return nil, fmt.Errorf("%w: %s", models.ErrDisallowedHost, rawURL)
	}
	logCtx := logging.FromContext(ctx).With("url", rawURL)

	if cached, ok := f.cache.Get(rawURL); ok {
		hit := *cached
		hit.Cached = true
		return &hit, nil
	}

	fetchURL := rawURL
	if f.apiKey != "" {
		withKey, err := relay.WithAPIKey(rawURL, f.apiKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		fetchURL = withKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", relay.BrowserUserAgent)
	req.Header.Set("Referer", proxyReferer)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logCtx.Warn("Upstream image fetch failed", "status", resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return &ProxyResult{RedirectURL: rawURL}, nil
	}
	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Err: err}
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		logCtx.Info("Image exceeds proxy ceiling, redirecting.", "bytes", len(body))
		return &ProxyResult{RedirectURL: rawURL}, nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if !relay.IsImageContentType(contentType) {
		logCtx.Warn("Upstream returned a non-image response", "contentType", contentType)
		return nil, &UpstreamError{Status: http.StatusBadGateway, Err: fmt.Errorf("unexpected content type %q", contentType)}
	}
	result := &ProxyResult{Body: body, ContentType: contentType}
	if len(body) <= proxyCacheableBytes {
		f.cache.Add(rawURL, result)
	}
	return result, nil
}
