package security

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FormatAndAlphabet(t *testing.T) {
	g := NewKeyGenerator(func(ctx context.Context, key string) (bool, error) {
		return false, nil
	})

	for i := 0; i < 50; i++ {
		key, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, key, KeyLength)
		for _, c := range key {
			assert.True(t, strings.ContainsRune(KeyCharset, c), "unexpected character %q", c)
		}
	}
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	calls := 0
	g := NewKeyGenerator(func(ctx context.Context, key string) (bool, error) {
		calls++
		// First two candidates collide, the third is free.
		return calls < 3, nil
	})

	key, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)
	assert.Equal(t, 3, calls)
}

func TestGenerate_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	g := NewKeyGenerator(func(ctx context.Context, key string) (bool, error) {
		calls++
		return true, nil
	})

	_, err := g.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, maxGenerateAttempts, calls)
}

func TestGenerate_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("store down")
	g := NewKeyGenerator(func(ctx context.Context, key string) (bool, error) {
		return false, storeErr
	})

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, storeErr)
}

func TestGenerate_KeysAreDistinct(t *testing.T) {
	g := NewKeyGenerator(func(ctx context.Context, key string) (bool, error) {
		return false, nil
	})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}
