package s3service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	s3service "mortgage-qualification-engine/internal/services/s3"
)

type fakeObjects struct {
	body    string
	getErr  error
	copies  []*s3.CopyObjectInput
	deletes []*s3.DeleteObjectInput
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func (f *fakeObjects) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copies = append(f.copies, in)
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	input   *s3.PutObjectInput
	expires time.Duration
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = in
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://catalog.s3.amazonaws.com/" + aws.ToString(in.Key) + "?sig=abc", Method: "PUT"}, nil
}

func TestGeneratePresignedUploadURL(t *testing.T) {
	presigner := &fakePresigner{}
	svc := s3service.NewServiceWithClient(&fakeObjects{}, presigner, "catalog", zaptest.NewLogger(t))

	result, err := svc.GeneratePresignedUploadURL(context.Background(), "catalog/uploads/rates.csv", "text/csv", 0)

	require.NoError(t, err)
	assert.Equal(t, "catalog/uploads/rates.csv", result.Key)
	assert.Contains(t, result.URL, "catalog/uploads/rates.csv")
	assert.Equal(t, "catalog", aws.ToString(presigner.input.Bucket))
	assert.Equal(t, "text/csv", aws.ToString(presigner.input.ContentType))
	assert.Equal(t, s3service.DefaultUploadExpiry, presigner.expires)
	assert.WithinDuration(t, time.Now().Add(s3service.DefaultUploadExpiry), result.ExpiresAt, 5*time.Second)
}

func TestDownloadFile(t *testing.T) {
	svc := s3service.NewServiceWithClient(&fakeObjects{body: "id,bank\n"}, &fakePresigner{}, "catalog", zaptest.NewLogger(t))

	data, err := svc.DownloadFile(context.Background(), "uploads/a.csv")

	require.NoError(t, err)
	assert.Equal(t, "id,bank\n", string(data))

	failing := s3service.NewServiceWithClient(&fakeObjects{getErr: errors.New("NoSuchKey")}, &fakePresigner{}, "catalog", zaptest.NewLogger(t))
	_, err = failing.DownloadFile(context.Background(), "uploads/missing.csv")
	assert.ErrorContains(t, err, "NoSuchKey")
}

func TestMoveFile(t *testing.T) {
	objects := &fakeObjects{}
	svc := s3service.NewServiceWithClient(objects, &fakePresigner{}, "catalog", zaptest.NewLogger(t))

	require.NoError(t, svc.MoveFile(context.Background(), "uploads/a.csv", "processed/a.csv"))

	require.Len(t, objects.copies, 1)
	assert.Equal(t, "catalog/uploads/a.csv", aws.ToString(objects.copies[0].CopySource))
	assert.Equal(t, "processed/a.csv", aws.ToString(objects.copies[0].Key))
	require.Len(t, objects.deletes, 1)
	assert.Equal(t, "uploads/a.csv", aws.ToString(objects.deletes[0].Key))
}
