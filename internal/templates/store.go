package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/muhammadolammi/cvtailor/internal/config"
)

// Store reads raw template documents by name.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// FileStore reads templates from Dir, falling back to the parent of Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	candidates := []string{
		filepath.Join(s.Dir, name),
		filepath.Join(s.Dir, "..", name),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("template file not found: %s (looked in %s and its parent)", name, s.Dir)
}

// R2Store reads templates from a Cloudflare R2 (S3 compatible) bucket.
type R2Store struct {
	client *s3.Client
	bucket string
}

// NewR2Store builds an S3 client pointed at the account's R2 endpoint.
func NewR2Store(ctx context.Context, r2 *config.R2Config) (*R2Store, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID)
	return NewR2StoreFromConfig(awsConfig, endpoint, r2.Bucket), nil
}

func NewR2StoreFromConfig(awsConfig aws.Config, endpoint, bucket string) *R2Store {
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Store{client: client, bucket: bucket}
}

func (s *R2Store) Load(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", name, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// NewStore picks the store configured by TEMPLATE_SOURCE.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.TemplateSource == config.SourceR2 {
		return NewR2Store(ctx, cfg.R2)
	}
	return NewFileStore(cfg.TemplateDir), nil
}
