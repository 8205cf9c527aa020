package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryCache_Expiry(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewMemoryCache(0).WithClock(clk.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "1", string(got))

	clk.Advance(time.Second)
	_, err = c.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheMiss)

	got, err = c.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "2", string(got))
}

func TestMemoryCache_SizeCap(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewMemoryCache(2).WithClock(clk.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "long", []byte("x"), time.Hour))
	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "new", []byte("x"), time.Hour))

	require.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "long")
	require.NoError(t, err)

	// overwriting an existing key never evicts
	require.NoError(t, c.Set(ctx, "long", []byte("y"), time.Hour))
	require.Equal(t, 2, c.Len())
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c := NewMemoryCache(0)
	ctx := context.Background()
	v := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", v, 0))
	v[0] = 'z'
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}
