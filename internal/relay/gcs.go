package relay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/submissionwall/internal/gcp"
	"github.com/Lllllllleong/submissionwall/internal/models"
)

// GCSHost stores images as content-addressed objects in a public bucket,
// so relaying the same image twice writes one object.
type GCSHost struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGCSHost(client *storage.Client, bucketName string) *GCSHost {
	return &GCSHost{bucket: client.Bucket(bucketName), bucketName: bucketName}
}

func (h *GCSHost) Upload(ctx context.Context, image []byte, contentType, name string) (string, error) {
	objectName := ObjectName(image, contentType)
	existed, err := gcp.SaveToGCSAtomically(ctx, h.bucket, objectName, contentType, image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	if existed {
		slog.Info("Image already hosted.", "gcsObject", objectName, "name", name)
	}
	return gcp.PublicObjectURL(h.bucketName, objectName), nil
}

// ObjectName derives the object name from the content hash.
func ObjectName(image []byte, contentType string) string {
	sum := sha256.Sum256(image)
	return "submissions/" + hex.EncodeToString(sum[:]) + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
