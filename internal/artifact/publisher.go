package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorage indicates a provider-level upload failure. Callers decide
// whether it is fatal for their branch; the pipeline treats it as a
// degraded (null URL) result.
var ErrStorage = errors.New("artifact: storage failure")

// Artifact categories. They become the first path segment of the object
// key and select the content type.
const (
	CategoryRecording  = "recordings"
	CategoryTranscript = "transcripts"
)

// S3Client abstracts the S3 API operations used by [Publisher].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config contains object storage configuration.
type Config struct {
	Bucket        string
	Region        string
	Prefix        string        // optional key prefix, no trailing slash
	PublicBaseURL string        // optional CDN/alias base; default is the virtual-hosted S3 URL
	Timeout       time.Duration // per-upload bound
}

// Publisher implements the uniform upload contract
// (bytes, category, identifier) -> URL on top of an S3-compatible store.
type Publisher struct {
	client S3Client
	config Config
	logger *slog.Logger
}

// NewPublisher creates an artifact publisher. The client should be
// pre-configured (credentials, region, endpoint); any type satisfying
// [S3Client] is accepted.
func NewPublisher(client S3Client, config Config, logger *slog.Logger) *Publisher {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Publisher{client: client, config: config, logger: logger}
}

// Upload stores one artifact and returns its retrievable URL.
// The identifier is expected to already be unique per session and
// finalization (session id plus timestamp), so keys never collide
// across sessions.
func (p *Publisher) Upload(ctx context.Context, data []byte, category, identifier string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: refusing to upload empty artifact %s/%s", ErrStorage, category, identifier)
	}

	key := p.objectKey(category, identifier)
	contentType := contentTypeFor(category)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", ErrStorage, key, err)
	}

	url := p.objectURL(key)

	p.logger.Info("Artifact uploaded",
		slog.String("category", category),
		slog.String("key", key),
		slog.Int("size_bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return url, nil
}

// objectKey builds the full object key for a category and identifier.
func (p *Publisher) objectKey(category, identifier string) string {
	key := category + "/" + identifier + extensionFor(category)
	if p.config.Prefix != "" {
		key = p.config.Prefix + "/" + key
	}
	return key
}

// objectURL builds the retrievable URL for an uploaded key.
func (p *Publisher) objectURL(key string) string {
	if p.config.PublicBaseURL != "" {
		return strings.TrimRight(p.config.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.config.Bucket, p.config.Region, key)
}

func contentTypeFor(category string) string {
	switch category {
	case CategoryRecording:
		return "audio/wav"
	case CategoryTranscript:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func extensionFor(category string) string {
	switch category {
	case CategoryRecording:
		return ".wav"
	case CategoryTranscript:
		return ".txt"
	default:
		return ""
	}
}
