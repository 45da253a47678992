// Package relay moves an uploaded image from the form provider to a
// permanent image host.
package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// BrowserUserAgent is sent on image downloads; the provider's CDN blocks
// requests that do not look like they come from a browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const maxDownloadBytes = 25 << 20

// Relayer turns a source image locator into a permanent URL.
type Relayer interface {
	Relay(ctx context.Context, sourceURL string) (string, error)
}

// Host stores image bytes and returns their permanent URL.
type Host interface {
	Upload(ctx context.Context, image []byte, contentType, name string) (string, error)
}

// Transformer rewrites image bytes before upload.
type Transformer interface {
	Transform(image []byte, contentType string) ([]byte, string, error)
}

// Relay downloads with the provider's API key and uploads to a Host.
// It never retries; callers account for failures per item.
type Relay struct {
	client       *http.Client
	sourceAPIKey string
	host         Host
	transform    Transformer
}

// New creates a Relay. transform may be nil to upload the original bytes.
func New(client *http.Client, sourceAPIKey string, host Host, transform Transformer) *Relay {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Relay{
		client:       client,
		sourceAPIKey: sourceAPIKey,
		host:         host,
		transform:    transform,
	}
}

func (r *Relay) Relay(ctx context.Context, sourceURL string) (string, error) {
	data, contentType, err := r.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	if r.transform != nil {
		out, outType, err := r.transform.Transform(data, contentType)
		if err != nil {
			slog.Warn("Image transform failed, uploading original.", "error", err, "sourceUrl", sourceURL)
		} else {
			data, contentType = out, outType
		}
	}

	permanent, err := r.host.Upload(ctx, data, contentType, imageName(sourceURL))
	if err != nil {
		return "", err
	}
	return permanent, nil
}

func (r *Relay) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	target, err := WithAPIKey(sourceURL, r.sourceAPIKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: status %d", models.ErrDownloadFailed, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !IsImageContentType(contentType) {
		return nil, "", fmt.Errorf("%w: content type %q is not an image", models.ErrDownloadFailed, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	if len(data) > maxDownloadBytes {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", models.ErrDownloadFailed, maxDownloadBytes)
	}
	return data, contentType, nil
}

// WithAPIKey appends the provider's apiKey query parameter.
func WithAPIKey(rawURL, apiKey string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("apiKey", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// IsImageContentType reports whether a Content-Type header names an image.
func IsImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

func imageName(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "submission"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "submission"
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
