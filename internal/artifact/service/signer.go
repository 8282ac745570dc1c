package service

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"net/url"

	"gocloud.dev/blob/fileblob"
	"golang.org/x/crypto/hkdf"

	apperrors "github.com/allisson/charms/internal/errors"
)

// DownloadPath is the route serving file backed artifacts.
const DownloadPath = "/v1/artifacts/download"

const signingKeyInfo = "artifact-url-signing-v1"

// DeriveSigningKey derives the 32-byte HMAC key for download URLs from secret
// with HKDF-SHA256. An empty secret yields a random key, so links stop working
// after a restart.
func DeriveSigningKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	if secret == "" {
		if _, err := rand.Read(key); err != nil {
			return nil, apperrors.Wrap(err, "failed to generate signing key")
		}
		return key, nil
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	return key, nil
}

// NewURLSigner creates the HMAC signer whose URLs point at the download route
// under publicBaseURL.
func NewURLSigner(publicBaseURL, secret string) (*fileblob.URLSignerHMAC, error) {
	base, err := url.Parse(publicBaseURL + DownloadPath)
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid public base url")
	}

	key, err := DeriveSigningKey(secret)
	if err != nil {
		return nil, err
	}
	return fileblob.NewURLSignerHMAC(base, key), nil
}
