package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docqa-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using Amazon S3.
type Store struct {
	client *s3.Client
	bucket string
	region string
	prefix string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, region, bucket, prefix string) (object.ObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if region == "" {
		region = cfg.Region
	}

	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		prefix: normalizePrefix(prefix),
	}, nil
}

// Save uploads the reader contents to S3 under the given storage key.
func (s *Store) Save(ctx context.Context, storageKey string, r io.Reader) (int64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}

	objectKey := applyPrefix(s.prefix, storageKey)

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read sniff: %w", readErr)
	}

	mimeType := http.DetectContentType(sniff[:n])

	body := io.MultiReader(bytes.NewReader(sniff[:n]), r)
	counter := &countingReader{r: body}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        counter,
		ContentType: aws.String(mimeType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}

	return counter.n, mimeType, nil
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectKey := applyPrefix(s.prefix, storageKey)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return out.Body, nil
}

// URL returns the public-style object URL for a storage key.
func (s *Store) URL(storageKey string) string {
	objectKey := applyPrefix(s.prefix, storageKey)
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escapeKey(objectKey))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escapeKey(objectKey))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
