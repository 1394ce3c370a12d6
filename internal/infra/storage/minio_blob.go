// File: internal/infra/storage/minio_blob.go
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"shorts-factory/internal/config"
	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/ports/adapter"
)

var _ adapter.BlobStore = (*MinioBlobStore)(nil)

// MinioBlobStore backs the pipeline's media references with object storage.
// Source videos arrive as s3:// or http(s) URIs and are staged into workDir;
// mock-mode outputs are published back under the configured bucket.
type MinioBlobStore struct {
	client  *minio.Client
	bucket  string
	workDir string
	http    *http.Client
	log     *zerolog.Logger
}

func NewMinioBlobStore(cfg *config.StorageConfig, workDir string, logger *zerolog.Logger) (*MinioBlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &MinioBlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		workDir: workDir,
		http:    &http.Client{Timeout: 2 * time.Minute},
		log:     logger,
	}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
// Called once at startup.
func (s *MinioBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: create bucket: %w", err)
	}
	return nil
}

func (s *MinioBlobStore) ResolveToLocal(ctx context.Context, uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		bucket, key, err := splitObjectURI(uri)
		if err != nil {
			return "", err
		}
		local := filepath.Join(s.workDir, filepath.Base(key))
		if err := s.client.FGetObject(ctx, bucket, key, local, minio.GetObjectOptions{}); err != nil {
			return "", fmt.Errorf("storage: fetch %s: %w", uri, err)
		}
		s.log.Debug().Str("uri", uri).Str("local", local).Msg("object staged")
		return local, nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return s.download(ctx, uri)
	default:
		return "", fmt.Errorf("%w: unsupported media location %q", domain.ErrValidation, uri)
	}
}

func (s *MinioBlobStore) Put(ctx context.Context, localPath, destinationHint string) (string, error) {
	key := destinationHint
	if key == "" {
		key = filepath.Base(localPath)
	}
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(key),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Info().Str("uri", uri).Msg("artifact published")
	return uri, nil
}

func (s *MinioBlobStore) download(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: download %s: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: download %s: unexpected status %d", uri, resp.StatusCode)
	}

	f, err := os.CreateTemp(s.workDir, "source-*"+filepath.Ext(req.URL.Path))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: download %s: %w", uri, err)
	}
	return f.Name(), nil
}

// splitObjectURI parses s3://bucket/key/with/slashes.
func splitObjectURI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: malformed object uri %q", domain.ErrValidation, uri)
	}
	return parts[0], parts[1], nil
}

func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
