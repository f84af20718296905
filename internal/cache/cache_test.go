package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	b, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryIncr(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	n, _ := m.Incr(ctx, "c")
	assert.EqualValues(t, 1, n)
	n, _ = m.Incr(ctx, "c")
	assert.EqualValues(t, 2, n)
}

func TestJobViewsInvalidate(t *testing.T) {
	ctx := context.Background()
	v := NewJobViews(NewMemory(), time.Minute)

	var count int64
	assert.False(t, v.Get(ctx, "count", &count))

	v.Set(ctx, "count", int64(12))
	require.True(t, v.Get(ctx, "count", &count))
	assert.EqualValues(t, 12, count)

	require.NoError(t, v.InvalidateJobs(ctx))
	assert.False(t, v.Get(ctx, "count", &count))

	v.Set(ctx, "count", int64(13))
	require.True(t, v.Get(ctx, "count", &count))
	assert.EqualValues(t, 13, count)
}
