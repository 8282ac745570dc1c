// Package keeper unseals configuration secrets through a gocloud.dev secrets keeper.
//
// A sealed value has the form "sealed:<base64 ciphertext>". Values without the
// prefix are returned unchanged, so plain secrets keep working in development.
package keeper

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"gocloud.dev/secrets"

	apperrors "github.com/allisson/charms/internal/errors"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// SealedPrefix marks a configuration value as keeper ciphertext.
const SealedPrefix = "sealed:"

// ErrNoKeeper is returned when a sealed value is found but no keeper URI is configured.
var ErrNoKeeper = apperrors.Wrap(apperrors.ErrInvalidInput, "sealed value without SECRETS_KEEPER_URI")

// Keeper seals and unseals configuration values.
type Keeper struct {
	keeper *secrets.Keeper
}

// Open opens the keeper at uri. Supports base64key://, awskms://, azurekeyvault://,
// gcpkms:// and hashivault://. An empty uri yields a Keeper that only passes
// plain values through.
func Open(ctx context.Context, uri string) (*Keeper, error) {
	if uri == "" {
		return &Keeper{}, nil
	}
	keeper, err := secrets.OpenKeeper(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open secrets keeper: %w", err)
	}
	return &Keeper{keeper: keeper}, nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// Unseal decrypts value when sealed and returns it unchanged otherwise.
func (k *Keeper) Unseal(ctx context.Context, value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if k.keeper == nil {
		return "", ErrNoKeeper
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "sealed value is not valid base64")
	}

	plaintext, err := k.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to unseal value")
	}
	return string(plaintext), nil
}

// Seal encrypts plaintext into the sealed form accepted by Unseal.
func (k *Keeper) Seal(ctx context.Context, plaintext string) (string, error) {
	if k.keeper == nil {
		return "", ErrNoKeeper
	}
	ciphertext, err := k.keeper.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to seal value")
	}
	return SealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Close releases the underlying keeper.
func (k *Keeper) Close() error {
	if k.keeper == nil {
		return nil
	}
	return k.keeper.Close()
}
