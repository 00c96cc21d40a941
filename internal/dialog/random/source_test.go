package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCryptoSourceBounds(t *testing.T) {
	src := NewCryptoSource()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(t, "n")
		got := src.Intn(n)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, n)
	})
}

func TestCryptoSourcePanicsOnNonPositive(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-1) })
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	a := NewSeededSource(42)
	b := NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestSeededSourceCoversRange(t *testing.T) {
	src := NewSeededSource(7)
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		v := src.Intn(4)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
}
