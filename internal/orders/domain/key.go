package domain

import (
	"strings"
)

// KeyKind distinguishes the two identifier schemes an order can be addressed by.
type KeyKind int

const (
	// KeyLocal is a client generated correlation token.
	KeyLocal KeyKind = iota + 1
	// KeyProvider is a payment provider session handle.
	KeyProvider
)

// OrderKey is either Local(token) or Provider(handle). A local key is resolved
// to the provider keyed record once; every later operation uses the provider key.
type OrderKey struct {
	kind  KeyKind
	value string
}

// LocalKey builds a key from a client correlation token.
func LocalKey(token string) OrderKey {
	return OrderKey{kind: KeyLocal, value: token}
}

// ProviderKey builds a key from a provider session handle.
func ProviderKey(handle string) OrderKey {
	return OrderKey{kind: KeyProvider, value: handle}
}

// Kind returns the identifier scheme of k.
func (k OrderKey) Kind() KeyKind {
	return k.kind
}

// IsProvider reports whether k is a provider session handle.
func (k OrderKey) IsProvider() bool {
	return k.kind == KeyProvider
}

// Value returns the raw identifier.
func (k OrderKey) Value() string {
	return k.value
}

func (k OrderKey) String() string {
	if k.kind == KeyProvider {
		return "provider:" + k.value
	}
	return "local:" + k.value
}

// ParseOrderKey classifies a raw identifier. isProviderHandle recognizes the
// payment provider's session handle format; anything else is a local token.
func ParseOrderKey(raw string, isProviderHandle func(string) bool) (OrderKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return OrderKey{}, ErrMissingIdentifier
	}
	if isProviderHandle != nil && isProviderHandle(raw) {
		return ProviderKey(raw), nil
	}
	return LocalKey(raw), nil
}
