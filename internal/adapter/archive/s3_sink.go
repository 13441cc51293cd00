package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iho/bookkeeper/internal/domain"
)

// uploader is the part of manager.Uploader the sink needs.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// record is one archived event, one JSON object per line.
type record struct {
	ID         int64     `json:"id"`
	Currency   string    `json:"currency"`
	Rate       string    `json:"rate"`
	OccurredAt time.Time `json:"occurred_at"`
	Policy     string    `json:"policy"`
	Source     *string   `json:"source,omitempty"`
	ArchivedAt time.Time `json:"archived_at"`
}

// S3Sink implements usecase.ArchiveSink by writing each batch of audit
// events as one JSON Lines object.
type S3Sink struct {
	uploader uploader
	bucket   string
	prefix   string
	now      func() time.Time
}

// NewS3Sink creates a sink that uploads through client.
func NewS3Sink(client *s3.Client, bucket, prefix string) *S3Sink {
	return newS3Sink(manager.NewUploader(client), bucket, prefix)
}

// NewS3SinkFromEnv creates a sink using the default AWS credential chain.
func NewS3SinkFromEnv(ctx context.Context, bucket, prefix string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3Sink(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3Sink(up uploader, bucket, prefix string) *S3Sink {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Sink{
		uploader: up,
		bucket:   bucket,
		prefix:   prefix,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Archive uploads events and returns how many were written.
func (s *S3Sink) Archive(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	now := s.now()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(record{
			ID:         e.ID,
			Currency:   e.Code.String(),
			Rate:       e.Rate.String(),
			OccurredAt: e.OccurredAt.UTC(),
			Policy:     string(e.Policy),
			Source:     e.Source,
			ArchivedAt: now,
		}); err != nil {
			return 0, err
		}
	}

	key := s.objectKey(now, events)
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	}); err != nil {
		return 0, fmt.Errorf("upload %s: %w", key, err)
	}

	return len(events), nil
}

func (s *S3Sink) objectKey(now time.Time, events []*domain.ExchangeRateEvent) string {
	first, last := events[0].ID, events[0].ID
	for _, e := range events[1:] {
		if e.ID < first {
			first = e.ID
		}
		if e.ID > last {
			last = e.ID
		}
	}
	return fmt.Sprintf("%s%s/%020d-%020d.jsonl", s.prefix, now.Format("2006/01/02"), first, last)
}
