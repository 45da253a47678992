package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/gcp"
	"github.com/Lllllllleong/submissionwall/internal/relay"
	"github.com/Lllllllleong/submissionwall/internal/source"
	"github.com/Lllllllleong/submissionwall/internal/store"
)

// newStoreAccessor builds the accessor for the configured store backend.
func newStoreAccessor(ctx context.Context, cfg *config.Config) (*store.Accessor, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		return store.NewAccessor(store.NewFirestoreBackend(client, cfg.FirestoreCollection)), nil
	default:
		client := &http.Client{Timeout: 15 * time.Second}
		return store.NewAccessor(store.NewJSONBinBackend(cfg.JSONBinBaseURL, cfg.JSONBinBinID, cfg.JSONBinAPIKey, client)), nil
	}
}

func newSource(cfg *config.Config) (source.Fetcher, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	return source.NewJotformClient(cfg.JotformBaseURL, cfg.JotformFormID, cfg.JotformAPIKey, nil), nil
}

// newRelay builds the image relay with the configured host and downscaler.
func newRelay(ctx context.Context, cfg *config.Config) (*relay.Relay, error) {
	if err := cfg.ValidateImageHost(); err != nil {
		return nil, err
	}

	var host relay.Host
	switch cfg.ImageHost {
	case config.HostGCS:
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		host = relay.NewGCSHost(storageClient, cfg.ImageBucket)
	default:
		host = relay.NewImgBBHost(cfg.ImgBBUploadURL, cfg.ImgBBAPIKey, nil)
	}

	var transform relay.Transformer
	if cfg.ImageMaxWidth > 0 {
		transform = relay.Downscaler{MaxWidth: cfg.ImageMaxWidth, Quality: cfg.ImageJPEGQuality}
	}
	return relay.New(nil, cfg.JotformAPIKey, host, transform), nil
}
