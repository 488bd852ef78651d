package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// DownloadTokenKey is the object metadata key Firebase Storage reads its
// download tokens from.
const DownloadTokenKey = "firebaseStorageDownloadTokens"

const defaultDownloadHost = "https://firebasestorage.googleapis.com"

// NewClient creates a Cloud Storage client. STORAGE_EMULATOR_HOST is honoured
// by the client itself.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*gcs.Client, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// GCSBlobStore writes objects into one bucket and hands out Firebase-style
// token download URLs for them.
type GCSBlobStore struct {
	Client       *gcs.Client
	Bucket       string
	DownloadHost string
}

func NewGCSBlobStore(client *gcs.Client, bucket string) *GCSBlobStore {
	return &GCSBlobStore{
		Client:       client,
		Bucket:       bucket,
		DownloadHost: defaultDownloadHost,
	}
}

// Upload writes content under key. A fresh download token is always added to
// the metadata so DownloadURL can build a durable link.
func (s *GCSBlobStore) Upload(ctx context.Context, key string, content []byte, contentType string, metadata map[string]string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	md := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md[DownloadTokenKey] = uuid.NewString()

	w := s.Client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = md

	if _, err := w.Write(content); err != nil {
		// cancelling aborts the resumable upload before Close
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSBlobStore) DownloadURL(ctx context.Context, key string) (string, error) {
	attrs, err := s.Client.Bucket(s.Bucket).Object(key).Attrs(ctx)
	if err != nil {
		return "", err
	}

	token, _, _ := strings.Cut(attrs.Metadata[DownloadTokenKey], ",")
	if token == "" {
		return "", fmt.Errorf("object %q has no download token", key)
	}
	return BuildDownloadURL(s.DownloadHost, s.Bucket, key, token), nil
}

// BuildDownloadURL returns the public token URL for an object. The object
// path is escaped as one segment, so "/" becomes %2F.
func BuildDownloadURL(host, bucket, key, token string) string {
	if host == "" {
		host = defaultDownloadHost
	}
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("token", token)
	return fmt.Sprintf("%s/v0/b/%s/o/%s?%s",
		strings.TrimRight(host, "/"),
		url.PathEscape(bucket),
		url.PathEscape(key),
		q.Encode(),
	)
}
