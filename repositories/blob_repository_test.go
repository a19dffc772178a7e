package repositories

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	"github.com/checkmarble/kyc-backend/models"
)

const testBucketUrl = "mem://documents"

func newTestBlobRepository(t *testing.T) *BlobRepository {
	repo, err := NewBlobRepository("")
	require.NoError(t, err)
	repo.buckets[testBucketUrl] = memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestBlobRepository_WriteBlobIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestBlobRepository(t)

	err := repo.WriteBlobIfAbsent(ctx, testBucketUrl, "case-1/document-intel.json", "application/json", []byte(`{"v":1}`))
	require.NoError(t, err)

	err = repo.WriteBlobIfAbsent(ctx, testBucketUrl, "case-1/document-intel.json", "application/json", []byte(`{"v":2}`))
	assert.ErrorIs(t, err, models.ErrBlobAlreadyExists)
	assert.ErrorIs(t, err, models.ConflictError)

	content, err := repo.ReadBlob(ctx, testBucketUrl, "case-1/document-intel.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(content), "an existing blob is never overwritten")
}

func TestBlobRepository_ReadBlob_missing(t *testing.T) {
	repo := newTestBlobRepository(t)

	_, err := repo.ReadBlob(context.Background(), testBucketUrl, "case-1/nothing.json")
	assert.ErrorIs(t, err, models.NotFoundError)
}

func TestBlobRepository_SignedUrls(t *testing.T) {
	ctx := context.Background()
	repo := newTestBlobRepository(t)

	baseUrl, err := url.Parse("https://files.example.com/signed")
	require.NoError(t, err)
	bucket, err := fileblob.OpenBucket(t.TempDir(), &fileblob.Options{
		URLSigner: fileblob.NewURLSignerHMAC(baseUrl, []byte("signing-secret")),
	})
	require.NoError(t, err)
	repo.buckets["file:///documents"] = bucket

	uploadUrl, err := repo.GenerateSignedUploadUrl(ctx, "file:///documents", "case-1/document-1.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploadUrl, "https://files.example.com/signed"))

	readUrl, err := repo.GenerateSignedReadUrl(ctx, "file:///documents", "case-1/document-1.jpg", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, uploadUrl, readUrl, "the signature covers the http method")
}

func TestBlobRepository_BlobUrl(t *testing.T) {
	repo := &BlobRepository{buckets: map[string]*blob.Bucket{}}

	assert.Equal(t, "gs://kyc-documents/case-1/document-intel.json",
		repo.BlobUrl("gs://kyc-documents", "case-1/document-intel.json"))
	assert.Equal(t, "file:///tmp/kyc/case-1/document-intel.json",
		repo.BlobUrl("file:///tmp/kyc/?create_dir=true", "case-1/document-intel.json"))
}
