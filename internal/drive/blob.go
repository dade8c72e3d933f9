package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/abhisek/studentai/internal/logger"
)

// BlobStore keeps uploaded files in cloud storage.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// GCSBlobStore stores files in one Google Cloud Storage bucket.
type GCSBlobStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
	log     *logger.Logger
}

// NewGCSBlobStore connects to bucket. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS_JSON when set, otherwise from the
// default application credentials. baseURL replaces
// https://storage.googleapis.com/<bucket> in public links.
func NewGCSBlobStore(ctx context.Context, bucket, baseURL string, log *logger.Logger) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing drive bucket name")
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if js := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); js != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(js)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSBlobStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("blob", "gcs", "bucket", bucket),
	}, nil
}

func (g *GCSBlobStore) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	g.log.Debug("object uploaded", "key", key)
	return nil
}

func (g *GCSBlobStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := g.client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, g.bucket, err)
	}
	return nil
}

func (g *GCSBlobStore) PublicURL(key string) string {
	if g.baseURL != "" {
		return g.baseURL + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}

func (g *GCSBlobStore) Close() error {
	return g.client.Close()
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".mp4":
		return "video/mp4"
	case ".zip":
		return "application/zip"
	}
	return ""
}
