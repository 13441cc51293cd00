package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &manager.UploadOutput{}, nil
}

var archivedAt = time.Date(2025, 11, 11, 3, 0, 0, 0, time.UTC)

func newTestSink(up uploader) *S3Sink {
	s := newS3Sink(up, "audit", "fx")
	s.now = func() time.Time { return archivedAt }
	return s
}

func TestS3SinkArchive(t *testing.T) {
	up := &fakeUploader{}
	sink := newTestSink(up)

	source := "ecb"
	events := []*domain.ExchangeRateEvent{
		{ID: 12, Code: "EUR", Rate: decimal.RequireFromString("1.10"), OccurredAt: archivedAt.AddDate(0, 0, -100), Policy: domain.PolicyLastWrite, Source: &source},
		{ID: 7, Code: "GBP", Rate: decimal.RequireFromString("0.85"), OccurredAt: archivedAt.AddDate(0, 0, -120), Policy: domain.PolicyWeightedAverage},
	}

	n, err := sink.Archive(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, up.inputs, 1)
	in := up.inputs[0]
	assert.Equal(t, "audit", aws.ToString(in.Bucket))
	assert.Equal(t, "fx/2025/11/11/00000000000000000007-00000000000000000012.jsonl", aws.ToString(in.Key))
	assert.Equal(t, "application/x-ndjson", aws.ToString(in.ContentType))

	var got []record
	scanner := bufio.NewScanner(bytes.NewReader(up.bodies[0]))
	for scanner.Scan() {
		var r record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		got = append(got, r)
	}
	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].ID)
	assert.Equal(t, "1.1", got[0].Rate)
	require.NotNil(t, got[0].Source)
	assert.Equal(t, "ecb", *got[0].Source)
	assert.Nil(t, got[1].Source)
	assert.Equal(t, archivedAt, got[1].ArchivedAt)
}

func TestS3SinkArchiveEmpty(t *testing.T) {
	up := &fakeUploader{}
	n, err := newTestSink(up).Archive(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, up.inputs)
}

func TestS3SinkArchiveUploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	n, err := newTestSink(up).Archive(context.Background(), []*domain.ExchangeRateEvent{{ID: 1, Code: "EUR"}})
	assert.Error(t, err)
	assert.Zero(t, n, "nothing counts as archived when the upload fails")
}
