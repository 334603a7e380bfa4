package security

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// KeyLength is the fixed length of a license key.
	KeyLength = 16
	// KeyCharset is the restricted alphabet keys are drawn from.
	KeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxGenerateAttempts = 5
)

// KeyExistsFunc reports whether a candidate key is already present in the
// license store.
type KeyExistsFunc func(ctx context.Context, key string) (bool, error)

// KeyGenerator produces license keys from a cryptographically secure source
// and verifies store uniqueness before handing a key out. Collisions at this
// alphabet size are unlikely but not impossible.
type KeyGenerator struct {
	exists KeyExistsFunc
}

func NewKeyGenerator(exists KeyExistsFunc) *KeyGenerator {
	return &KeyGenerator{exists: exists}
}

// Generate returns a fresh key that does not collide with any stored key.
func (g *KeyGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		key, err := randomKey()
		if err != nil {
			return "", err
		}
		exists, err := g.exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to check key uniqueness: %w", err)
		}
		if !exists {
			return key, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts to generate a unique license key", maxGenerateAttempts)
}

func randomKey() (string, error) {
	charsetLength := big.NewInt(int64(len(KeyCharset)))
	var builder strings.Builder
	builder.Grow(KeyLength)
	for i := 0; i < KeyLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		builder.WriteByte(KeyCharset[n.Int64()])
	}
	return builder.String(), nil
}
