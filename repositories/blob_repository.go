package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
	"gocloud.dev/gcp"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

// BlobRepository stores the identity documents and the extraction audit blobs.
// Buckets are opened lazily and kept for the lifetime of the process.
type BlobRepository struct {
	buckets              map[string]*blob.Bucket
	m                    sync.Mutex
	googleAccessId       string
	serviceAccountPemKey []byte
}

func NewBlobRepository(googleApplicationCredentials string) (*BlobRepository, error) {
	repo := &BlobRepository{buckets: make(map[string]*blob.Bucket)}
	if googleApplicationCredentials == "" {
		return repo, nil
	}

	key, err := os.ReadFile(googleApplicationCredentials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read service account key")
	}
	repo.serviceAccountPemKey, err = gcpServiceAccountKeyToPEM(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert service account key to PEM")
	}
	repo.googleAccessId, err = gcpServiceAccountKeyToGoogleAccessId(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get google access id")
	}
	return repo, nil
}

func (repo *BlobRepository) openBlobBucket(ctx context.Context, bucketUrl string) (*blob.Bucket, error) {
	repo.m.Lock()
	defer repo.m.Unlock()

	if bucket, ok := repo.buckets[bucketUrl]; ok {
		return bucket, nil
	}

	ctx, span := utils.StartSpan(ctx, "repositories.BlobRepository.openBlobBucket", "",
		attribute.String("bucket", bucketUrl))
	defer span.End()

	parsed, err := url.Parse(bucketUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse bucket url %s", bucketUrl)
	}

	var bucket *blob.Bucket
	if parsed.Scheme == "gs" {
		// signing urls on GCS needs the service account key, which the url opener does not take
		creds, err := gcp.DefaultCredentials(ctx)
		if err != nil {
			return nil, err
		}
		client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
		if err != nil {
			return nil, err
		}
		bucket, err = gcsblob.OpenBucket(ctx, client, parsed.Host, &gcsblob.Options{
			GoogleAccessID: repo.googleAccessId,
			PrivateKey:     repo.serviceAccountPemKey,
		})
		if err != nil {
			return nil, err
		}
	} else {
		bucket, err = blob.OpenBucket(ctx, bucketUrl)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open bucket %s", bucketUrl)
		}
	}

	repo.buckets[bucketUrl] = bucket
	return bucket, nil
}

func (repo *BlobRepository) signedUrl(ctx context.Context, bucketUrl, key, method string, expiry time.Duration) (string, error) {
	bucket, err := repo.openBlobBucket(ctx, bucketUrl)
	if err != nil {
		return "", err
	}

	signed, err := bucket.SignedURL(ctx, key, &blob.SignedURLOptions{Method: method, Expiry: expiry})
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign %s url for %s", method, key)
	}
	return signed, nil
}

// GenerateSignedUploadUrl returns a url the client can PUT the document to, without credentials.
func (repo *BlobRepository) GenerateSignedUploadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error) {
	return repo.signedUrl(ctx, bucketUrl, key, http.MethodPut, expiry)
}

func (repo *BlobRepository) GenerateSignedReadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error) {
	return repo.signedUrl(ctx, bucketUrl, key, http.MethodGet, expiry)
}

func (repo *BlobRepository) ReadBlob(ctx context.Context, bucketUrl, key string) ([]byte, error) {
	bucket, err := repo.openBlobBucket(ctx, bucketUrl)
	if err != nil {
		return nil, err
	}

	reader, err := bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, errors.Wrapf(models.NotFoundError, "blob %s does not exist in bucket %s", key, bucketUrl)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open blob %s", key)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read blob %s", key)
	}
	return content, nil
}

// WriteBlobIfAbsent never overwrites an existing object: it returns ErrBlobAlreadyExists instead.
func (repo *BlobRepository) WriteBlobIfAbsent(ctx context.Context, bucketUrl, key, contentType string, content []byte) error {
	ctx, span := utils.StartSpan(ctx, "repositories.BlobRepository.WriteBlobIfAbsent", "",
		attribute.String("key", key))
	defer span.End()

	bucket, err := repo.openBlobBucket(ctx, bucketUrl)
	if err != nil {
		return err
	}

	err = bucket.WriteAll(ctx, key, content, &blob.WriterOptions{
		ContentType: contentType,
		IfNotExist:  true,
	})
	if gcerrors.Code(err) == gcerrors.FailedPrecondition {
		return errors.Wrapf(models.ErrBlobAlreadyExists, "blob %s", key)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write blob %s", key)
	}
	return nil
}

// BlobUrl is the stable location of an object, as recorded on the audit trail.
func (repo *BlobRepository) BlobUrl(bucketUrl, key string) string {
	base := bucketUrl
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

func (repo *BlobRepository) Close() error {
	repo.m.Lock()
	defer repo.m.Unlock()

	var errs []error
	for url, bucket := range repo.buckets {
		if err := bucket.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "closing bucket %s", url))
		}
		delete(repo.buckets, url)
	}
	return errors.Join(errs...)
}

func gcpServiceAccountKeyToPEM(key []byte) ([]byte, error) {
	var k struct {
		PrivateKey string `json:"private_key"` //nolint:tagliatelle
	}
	if err := json.Unmarshal(key, &k); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal service account key")
	}

	block, _ := pem.Decode([]byte(k.PrivateKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM")
	}

	buf := new(bytes.Buffer)
	if err := pem.Encode(buf, block); err != nil {
		return nil, errors.Wrap(err, "failed to encode PEM")
	}
	return buf.Bytes(), nil
}

func gcpServiceAccountKeyToGoogleAccessId(key []byte) (string, error) {
	var sa struct {
		ClientEmail        string `json:"client_email"`                      //nolint:tagliatelle
		SAImpersonationURL string `json:"service_account_impersonation_url"` //nolint:tagliatelle
		CredType           string `json:"type"`
	}
	if err := json.Unmarshal(key, &sa); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal service account key")
	}

	switch sa.CredType {
	case "impersonated_service_account", "external_account":
		start, end := strings.LastIndex(sa.SAImpersonationURL, "/"),
			strings.LastIndex(sa.SAImpersonationURL, ":")
		if end <= start {
			return "", errors.New("error parsing external or impersonated service account credentials")
		}
		return sa.SAImpersonationURL[start+1 : end], nil
	case "service_account":
		if sa.ClientEmail != "" {
			return sa.ClientEmail, nil
		}
		return "", errors.New("empty service account client email")
	default:
		return "", errors.Newf("unsupported credentials type %q", sa.CredType)
	}
}
