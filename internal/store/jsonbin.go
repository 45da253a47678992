package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// JSONBinBackend keeps the wall as a single JSON array in a jsonbin.io bin.
// Reads and writes always move the whole document.
type JSONBinBackend struct {
	baseURL string
	binID   string
	apiKey  string
	client  *http.Client
}

func NewJSONBinBackend(baseURL, binID, apiKey string, client *http.Client) *JSONBinBackend {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &JSONBinBackend{
		baseURL: baseURL,
		binID:   binID,
		apiKey:  apiKey,
		client:  client,
	}
}

// Load fetches the latest version of the bin.
func (b *JSONBinBackend) Load(ctx context.Context) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/b/%s/latest", b.baseURL, b.binID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", b.apiKey)
	req.Header.Set("X-Bin-Meta", "false")

	body, err := b.do(req)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode store document: %w", err)
	}
	return withoutSentinel(records), nil
}

// Save replaces the bin. The store rejects empty documents, so an empty
// wall is written as the sentinel record alone.
func (b *JSONBinBackend) Save(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		records = []models.Record{{Init: true}}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode store document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/b/%s", b.baseURL, b.binID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", b.apiKey)

	_, err = b.do(req)
	return err
}

func (b *JSONBinBackend) do(req *http.Request) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}

func withoutSentinel(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.Init {
			continue
		}
		out = append(out, rec)
	}
	return out
}
