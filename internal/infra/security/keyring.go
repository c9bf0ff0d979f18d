package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// SigningKey is one HMAC secret with a stable identifier carried in the
// token header so verification can pick the right key after a rotation.
type SigningKey struct {
	KID       string
	Secret    []byte
	CreatedAt time.Time
}

// Keyring holds the active signing key plus a bounded history of retired
// keys. Tokens signed before a rotation stay verifiable until their key
// falls off the end of the ring.
type Keyring struct {
	mu        sync.RWMutex
	keys      []SigningKey
	retention int
}

const defaultKeyRetention = 5

// NewKeyring seeds a ring from a configured secret. The kid is derived from
// the secret so every replica of the service agrees on it.
func NewKeyring(secret string, retention int) (*Keyring, error) {
	if secret == "" {
		return nil, fmt.Errorf("keyring: empty secret")
	}
	if retention <= 0 {
		retention = defaultKeyRetention
	}

	sum := sha256.Sum256([]byte(secret))
	seed := SigningKey{
		KID:       hex.EncodeToString(sum[:8]),
		Secret:    []byte(secret),
		CreatedAt: time.Now(),
	}

	return &Keyring{keys: []SigningKey{seed}, retention: retention}, nil
}

// Rotate generates a fresh random key and makes it current. The oldest key
// is dropped once the ring exceeds its retention.
func (r *Keyring) Rotate() (SigningKey, error) {
	secret := make([]byte, 48)
	if _, err := rand.Read(secret); err != nil {
		return SigningKey{}, fmt.Errorf("keyring: generate secret: %w", err)
	}
	kid := make([]byte, 8)
	if _, err := rand.Read(kid); err != nil {
		return SigningKey{}, fmt.Errorf("keyring: generate kid: %w", err)
	}

	key := SigningKey{
		KID:       hex.EncodeToString(kid),
		Secret:    secret,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append([]SigningKey{key}, r.keys...)
	if len(r.keys) > r.retention {
		r.keys = r.keys[:r.retention]
	}

	return key, nil
}

// Current returns the key new tokens are signed with.
func (r *Keyring) Current() SigningKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[0]
}

// ByKID looks up a key by identifier, including retired keys still inside
// the retention window.
func (r *Keyring) ByKID(kid string) (SigningKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.keys {
		if k.KID == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// Len reports how many keys the ring currently holds.
func (r *Keyring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
