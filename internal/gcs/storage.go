package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// ErrInvalidURI is returned for URIs that are not gs://bucket/object.
var ErrInvalidURI = errors.New("gcs: invalid URI")

// GCSStorageService is the concrete implementation of StorageService that
// interacts with Google Cloud Storage through a shared client.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a storage client. It assumes Application
// Default Credentials are configured.
func NewGCSStorageService(ctx context.Context) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// Close releases the storage client.
func (s *GCSStorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// FetchFromGCS downloads the object bytes with the shared client.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCSWithClient(ctx, s.client, gcsURI)
}

// ExtractFilenameFromGCSURI delegates to ExtractFilenameFromGCSURI.
func (s *GCSStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

// FetchFromGCS downloads the file bytes from the given GCS URI with a
// short-lived client.
func FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if _, _, err := ParseGCSURI(gcsURI); err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	return FetchFromGCSWithClient(ctx, client, gcsURI)
}

// FetchFromGCSWithClient downloads the file bytes using the provided client.
func FetchFromGCSWithClient(ctx context.Context, client *storage.Client, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// ParseGCSURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("%q: missing gs:// scheme: %w", gcsURI, ErrInvalidURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	bucket, object, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%q: no object path: %w", gcsURI, ErrInvalidURI)
	}
	return bucket, object, nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/spend.csv" → "spend.csv"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	_, object, ok := strings.Cut(trimmed, "/")
	if !ok {
		return trimmed
	}
	return path.Base(object)
}
