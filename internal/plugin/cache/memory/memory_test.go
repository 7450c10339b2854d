package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCache_RoundTrip(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "m1", "hello", []float32{1, 2, 3}))
	c.(*memoryCache).Wait()

	v, ok, err := c.Get(ctx, "m1", "hello")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 2, 3}, v)
}

func TestMemoryCache_KeyIncludesModel(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "m1", "hello", []float32{1}))
	c.(*memoryCache).Wait()

	_, ok, err := c.Get(ctx, "m2", "hello")
	require.NoError(t, err)
	require.False(t, ok)
}
