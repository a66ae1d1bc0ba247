package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const signedURLTTL = 24 * time.Hour

// Config selects the bucket and, for local emulators, the endpoint.
type Config struct {
	Bucket   string
	Endpoint string
}

// Object describes an uploaded object.
type Object struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Service handles Cloud Storage operations.
type Service struct {
	client     *storage.Client
	bucketName string
	endpoint   string
	now        func() time.Time
}

// NewService creates a storage service for cfg.Bucket.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}

	var opts []option.ClientOption
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint+"/storage/v1/"), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Service{client: client, bucketName: cfg.Bucket, endpoint: endpoint, now: time.Now}, nil
}

// Upload writes data to objectPath and returns a URL the client can fetch it from.
func (s *Service) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (Object, error) {
	writer := s.client.Bucket(s.bucketName).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=3600"

	if _, err := io.Copy(writer, data); err != nil {
		_ = writer.Close()
		return Object{}, fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close writer: %w", err)
	}

	signed, err := s.SignedURL(objectPath, signedURLTTL)
	if err != nil {
		return Object{}, err
	}
	return Object{Path: objectPath, URL: signed}, nil
}

// SignedURL creates a V4 GET URL for objectPath. Emulators cannot sign, so
// they get a direct download link instead.
func (s *Service) SignedURL(objectPath string, expiration time.Duration) (string, error) {
	if s.endpoint != "" {
		return emulatorURL(s.endpoint, s.bucketName, objectPath), nil
	}

	signed, err := s.client.Bucket(s.bucketName).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: s.now().Add(expiration),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signed, nil
}

// Close closes the storage client.
func (s *Service) Close() error {
	return s.client.Close()
}

// ObjectPath joins a key prefix, an owner and a file name into an object path.
// Owner and name are reduced to their base element so callers cannot escape the prefix.
func ObjectPath(prefix, owner, name string) string {
	owner = path.Base("/" + strings.TrimSpace(owner))
	if owner == "/" || owner == "." {
		owner = "anonymous"
	}
	return path.Join(prefix, owner, path.Base("/"+name))
}

func emulatorURL(endpoint, bucket, objectPath string) string {
	return fmt.Sprintf("%s/download/storage/v1/b/%s/o/%s?alt=media",
		endpoint, url.PathEscape(bucket), url.PathEscape(objectPath))
}
