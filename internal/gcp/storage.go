package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// It reports whether the object was already present; that is not a failure
// for content-addressed objects.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, content []byte) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000, immutable"

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		closeErr := writer.Close()
		if isPreconditionFailed(err) || isPreconditionFailed(closeErr) {
			slog.Info("Object already exists, skipping write.", "gcsObject", objectName)
			return true, nil
		}
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	// The precondition is only evaluated when the upload is finalized.
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "gcsObject", objectName)
			return true, nil
		}
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return false, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// PublicObjectURL is the public HTTPS URL of an object in a publicly readable bucket.
func PublicObjectURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectName)
}
