// Package source reads submissions from the form provider's polling API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

const defaultPageSize = 1000

// Fetcher returns every submission of the configured form, whatever its status.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Submission, error)
}

// JotformClient pages through /form/{id}/submissions.
type JotformClient struct {
	baseURL  string
	formID   string
	apiKey   string
	client   *http.Client
	pageSize int
}

func NewJotformClient(baseURL, formID, apiKey string, client *http.Client) *JotformClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &JotformClient{
		baseURL:  baseURL,
		formID:   formID,
		apiKey:   apiKey,
		client:   client,
		pageSize: defaultPageSize,
	}
}

type submissionsPage struct {
	ResponseCode int                 `json:"responseCode"`
	Message      string              `json:"message"`
	Content      []models.Submission `json:"content"`
}

// FetchAll returns the complete submission set ordered by creation time,
// oldest first. Any failed page fails the whole fetch.
func (c *JotformClient) FetchAll(ctx context.Context) ([]models.Submission, error) {
	var all []models.Submission
	for offset := 0; ; offset += c.pageSize {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			break
		}
	}
	SortByCreation(all)
	return all, nil
}

func (c *JotformClient) fetchPage(ctx context.Context, offset int) ([]models.Submission, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	endpoint := fmt.Sprintf("%s/form/%s/submissions?%s", c.baseURL, url.PathEscape(c.formID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", models.ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", models.ErrSourceUnavailable, resp.StatusCode)
	}

	var page submissionsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrSourceUnavailable, err)
	}
	if page.ResponseCode != 0 && page.ResponseCode != http.StatusOK {
		return nil, fmt.Errorf("%w: responseCode %d: %s", models.ErrSourceUnavailable, page.ResponseCode, page.Message)
	}
	return page.Content, nil
}

// SortByCreation orders submissions oldest first, keeping the given order
// between submissions created at the same time.
func SortByCreation(subs []models.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt < subs[j].CreatedAt
	})
}

// createdAtLayout is the provider's timestamp format.
const createdAtLayout = "2006-01-02 15:04:05"

// NormalizeTimestamp converts a provider timestamp to RFC 3339 in UTC.
// Unparseable values are returned unchanged.
func NormalizeTimestamp(createdAt string) string {
	t, err := time.ParseInLocation(createdAtLayout, createdAt, time.UTC)
	if err != nil {
		return createdAt
	}
	return t.UTC().Format(time.RFC3339)
}
