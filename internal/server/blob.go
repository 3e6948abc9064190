package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobInfo carries the object metadata the download handler needs to set
// response headers.
type BlobInfo struct {
	ContentType string
	Size        int64
}

// blobStorage is the object-storage contract the handlers depend on.
// BlobStore is the MinIO implementation; tests substitute stubs.
type blobStorage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, BlobInfo, error)
	Ping(ctx context.Context) error
}

// BlobStore stores raw file bytes in a MinIO bucket. It owns the bytes;
// the file record only references them by object key.
type BlobStore struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewBlobStore connects to MinIO using the configured endpoint and
// credentials and verifies that the bucket exists.
func NewBlobStore(cfg Config) (*BlobStore, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	// Sanity check: bucket must exist.
	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket does not exist: %s", cfg.Bucket)
	}

	return &BlobStore{client: client, bucket: cfg.Bucket}, nil
}

// Put streams the reader into the bucket under key. Size -1 lets MinIO
// chunk the stream without knowing the length up front.
func (b *BlobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, -1,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get opens the object under key for reading. The Stat call forces an
// early error for a missing object or auth issues instead of failing
// midway through the response body.
func (b *BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, BlobInfo, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("get object %s: %w", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, BlobInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return obj, BlobInfo{ContentType: stat.ContentType, Size: stat.Size}, nil
}

// Ping checks that the bucket is still reachable. Used by the health endpoint.
func (b *BlobStore) Ping(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s missing", b.bucket)
	}
	return nil
}
