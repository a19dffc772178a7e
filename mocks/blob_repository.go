package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type BlobRepository struct {
	mock.Mock
}

func (m *BlobRepository) GenerateSignedUploadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketUrl, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *BlobRepository) GenerateSignedReadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketUrl, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *BlobRepository) ReadBlob(ctx context.Context, bucketUrl, key string) ([]byte, error) {
	args := m.Called(ctx, bucketUrl, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *BlobRepository) WriteBlobIfAbsent(ctx context.Context, bucketUrl, key, contentType string, content []byte) error {
	args := m.Called(ctx, bucketUrl, key, contentType, content)
	return args.Error(0)
}

func (m *BlobRepository) BlobUrl(bucketUrl, key string) string {
	args := m.Called(bucketUrl, key)
	return args.String(0)
}
