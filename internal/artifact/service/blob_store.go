// Package service implements the artifact store on top of gocloud.dev/blob.
//
// Any bucket URL supported by the registered drivers works (s3://, azblob://,
// gs://). The file:// scheme is opened with an HMAC URL signer so local
// deployments can hand out expiring download links served by this process.
package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	// Register blob drivers
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	apperrors "github.com/allisson/charms/internal/errors"
)

// ErrArtifactNotFound indicates no artifact is stored under the key.
var ErrArtifactNotFound = apperrors.Wrap(apperrors.ErrNotFound, "artifact not found")

// BlobStore writes artifacts to a bucket and issues time-limited read URLs.
type BlobStore struct {
	bucket *blob.Bucket
}

// NewBlobStore creates a new BlobStore on an open bucket.
func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// OpenBucket opens the bucket at bucketURL. For file:// URLs the directory is
// created when missing and signer is attached for SignedURL support.
func OpenBucket(ctx context.Context, bucketURL string, signer fileblob.URLSigner) (*blob.Bucket, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid artifact bucket url")
	}

	if u.Scheme == fileblob.Scheme {
		bucket, err := fileblob.OpenBucket(u.Path, &fileblob.Options{
			URLSigner: signer,
			CreateDir: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open file bucket: %w", err)
		}
		return bucket, nil
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact bucket: %w", err)
	}
	return bucket, nil
}

// Put writes data under key, replacing any previous object.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to write artifact")
	}
	return nil
}

// ReadURL returns a GET URL for key valid for ttl.
func (s *BlobStore) ReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to check artifact")
	}
	if !exists {
		return "", ErrArtifactNotFound
	}

	signed, err := s.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry: ttl,
		Method: http.MethodGet,
	})
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign artifact url")
	}
	return signed, nil
}

// Open returns a reader for key. Callers must close it.
func (s *BlobStore) Open(ctx context.Context, key string) (*blob.Reader, error) {
	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrArtifactNotFound
		}
		return nil, apperrors.Wrap(err, "failed to open artifact")
	}
	return reader, nil
}

// Close closes the underlying bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
