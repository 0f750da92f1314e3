package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Students int     `json:"students"`
	Fees     float64 `json:"fees"`
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got payload
	found, err := m.Get(ctx, "dashboard:b1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.Set(ctx, "dashboard:b1", payload{Students: 10, Fees: 99.5}, time.Minute))
	found, err = m.Get(ctx, "dashboard:b1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Students: 10, Fees: 99.5}, got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", payload{Students: 1}, time.Minute))
	now = now.Add(2 * time.Minute)

	var got payload
	found, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "dashboard:b1", 1, 0))
	require.NoError(t, m.Set(ctx, "dashboard:b2", 2, 0))
	require.NoError(t, m.Set(ctx, "indents:b1", 3, 0))

	require.NoError(t, m.DeletePrefix(ctx, "dashboard:"))

	var v int
	found, _ := m.Get(ctx, "dashboard:b1", &v)
	assert.False(t, found)
	found, _ = m.Get(ctx, "indents:b1", &v)
	assert.True(t, found)
	assert.Equal(t, 3, v)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", 1, time.Minute))
	var v int
	found, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
