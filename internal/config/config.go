// Package config loads the environment configuration shared by every
// function in the repository.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	StoreJSONBin   = "jsonbin"
	StoreFirestore = "firestore"

	HostImgBB = "imgbb"
	HostGCS   = "gcs"
)

// DefaultProxyPrefixes are the upload CDNs of the form provider.
var DefaultProxyPrefixes = []string{
	"https://www.jotform.com/uploads/",
	"https://files.jotform.com/",
	"https://eu.jotform.com/uploads/",
}

// FieldMap names the provider fields that carry each role. Empty lists
// mean the positional fallback order applies.
type FieldMap struct {
	NameKeys  []string
	ImageKeys []string
}

type Config struct {
	StoreBackend        string
	JSONBinAPIKey       string
	JSONBinBinID        string
	JSONBinBaseURL      string
	ProjectID           string
	FirestoreCollection string

	JotformAPIKey  string
	JotformFormID  string
	JotformBaseURL string

	ImageHost        string
	ImgBBAPIKey      string
	ImgBBUploadURL   string
	ImageBucket      string
	ImageMaxWidth    int
	ImageJPEGQuality int

	BatchSize           int
	BackfillKey         string
	ScheduledMaxBatches int
	WorkflowID          string
	WorkflowLocation    string

	Fields FieldMap

	ProxyAllowedPrefixes []string
	ProxyMaxBytes        int64
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("STORE_BACKEND", StoreJSONBin)
	v.SetDefault("JSONBIN_BASE_URL", "https://api.jsonbin.io/v3")
	v.SetDefault("FIRESTORE_COLLECTION", "submissions")
	v.SetDefault("JOTFORM_BASE_URL", "https://api.jotform.com")
	v.SetDefault("IMAGE_HOST", HostImgBB)
	v.SetDefault("IMGBB_UPLOAD_URL", "https://api.imgbb.com/1/upload")
	v.SetDefault("IMAGE_MAX_WIDTH", 1200)
	v.SetDefault("IMAGE_JPEG_QUALITY", 80)
	v.SetDefault("BACKFILL_BATCH_SIZE", 5)
	v.SetDefault("SCHEDULED_MAX_BATCHES", 3)
	v.SetDefault("WORKFLOW_LOCATION", "us-central1")
	v.SetDefault("PROXY_MAX_BYTES", 4<<20)

	cfg := &Config{
		StoreBackend:        strings.ToLower(v.GetString("STORE_BACKEND")),
		JSONBinAPIKey:       v.GetString("JSONBIN_API_KEY"),
		JSONBinBinID:        v.GetString("JSONBIN_BIN_ID"),
		JSONBinBaseURL:      strings.TrimRight(v.GetString("JSONBIN_BASE_URL"), "/"),
		ProjectID:           v.GetString("PROJECT_ID"),
		FirestoreCollection: v.GetString("FIRESTORE_COLLECTION"),

		JotformAPIKey:  v.GetString("JOTFORM_API_KEY"),
		JotformFormID:  v.GetString("JOTFORM_FORM_ID"),
		JotformBaseURL: strings.TrimRight(v.GetString("JOTFORM_BASE_URL"), "/"),

		ImageHost:        strings.ToLower(v.GetString("IMAGE_HOST")),
		ImgBBAPIKey:      v.GetString("IMGBB_API_KEY"),
		ImgBBUploadURL:   v.GetString("IMGBB_UPLOAD_URL"),
		ImageBucket:      v.GetString("IMAGE_BUCKET"),
		ImageMaxWidth:    v.GetInt("IMAGE_MAX_WIDTH"),
		ImageJPEGQuality: v.GetInt("IMAGE_JPEG_QUALITY"),

		BatchSize:           v.GetInt("BACKFILL_BATCH_SIZE"),
		BackfillKey:         v.GetString("BACKFILL_KEY"),
		ScheduledMaxBatches: v.GetInt("SCHEDULED_MAX_BATCHES"),
		WorkflowID:          v.GetString("WORKFLOW_ID"),
		WorkflowLocation:    v.GetString("WORKFLOW_LOCATION"),

		Fields: FieldMap{
			NameKeys:  splitList(v.GetString("FIELD_NAME_KEYS")),
			ImageKeys: splitList(v.GetString("FIELD_IMAGE_KEYS")),
		},

		ProxyAllowedPrefixes: splitList(v.GetString("PROXY_ALLOWED_PREFIXES")),
		ProxyMaxBytes:        v.GetInt64("PROXY_MAX_BYTES"),
	}
	if len(cfg.ProxyAllowedPrefixes) == 0 {
		cfg.ProxyAllowedPrefixes = append([]string(nil), DefaultProxyPrefixes...)
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("BACKFILL_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.ImageMaxWidth < 0 {
		return nil, fmt.Errorf("IMAGE_MAX_WIDTH must not be negative, got %d", cfg.ImageMaxWidth)
	}
	if cfg.ImageJPEGQuality < 1 || cfg.ImageJPEGQuality > 100 {
		return nil, fmt.Errorf("IMAGE_JPEG_QUALITY must be within 1..100, got %d", cfg.ImageJPEGQuality)
	}
	return cfg, nil
}

// ValidateStore checks the keys required by the selected store backend.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case StoreJSONBin:
		if c.JSONBinAPIKey == "" || c.JSONBinBinID == "" {
			return fmt.Errorf("JSONBIN_API_KEY and JSONBIN_BIN_ID must be set")
		}
	case StoreFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID must be set for the firestore store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ValidateSource checks the submission source keys.
func (c *Config) ValidateSource() error {
	if c.JotformAPIKey == "" || c.JotformFormID == "" {
		return fmt.Errorf("JOTFORM_API_KEY and JOTFORM_FORM_ID must be set")
	}
	return nil
}

// ValidateImageHost checks the keys required by the selected image host.
func (c *Config) ValidateImageHost() error {
	switch c.ImageHost {
	case HostImgBB:
		if c.ImgBBAPIKey == "" {
			return fmt.Errorf("IMGBB_API_KEY must be set")
		}
	case HostGCS:
		if c.ImageBucket == "" {
			return fmt.Errorf("IMAGE_BUCKET must be set for the gcs image host")
		}
	default:
		return fmt.Errorf("unknown IMAGE_HOST %q", c.ImageHost)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
