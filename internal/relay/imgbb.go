package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// ImgBBHost uploads base64 images with a form-encoded POST.
type ImgBBHost struct {
	uploadURL string
	apiKey    string
	client    *http.Client
}

func NewImgBBHost(uploadURL, apiKey string, client *http.Client) *ImgBBHost {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ImgBBHost{uploadURL: uploadURL, apiKey: apiKey, client: client}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *ImgBBHost) Upload(ctx context.Context, image []byte, contentType, name string) (string, error) {
	form := url.Values{}
	form.Set("key", h.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	if name != "" {
		form.Set("name", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", models.ErrUploadFailed, err)
	}
	var out imgbbResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: status %d: undecodable response", models.ErrUploadFailed, resp.StatusCode)
	}
	if !out.Success || out.Data.URL == "" {
		msg := out.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", models.ErrUploadFailed, msg)
	}
	return out.Data.URL, nil
}
