package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOnly_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := New(nil, Options{Namespace: "properties", LocalTTL: time.Minute})

	gen := c.Generation(ctx)
	_, ok := c.Get(ctx, gen, "search?destination=paris")
	assert.False(t, ok)

	c.Set(ctx, gen, "search?destination=paris", []byte(`[{"name":"Loft"}]`))
	got, ok := c.Get(ctx, gen, "search?destination=paris")
	require.True(t, ok)
	assert.Equal(t, `[{"name":"Loft"}]`, string(got))

	// Keys are case-folded and trimmed.
	got, ok = c.Get(ctx, gen, "  search?destination=PARIS ")
	require.True(t, ok)
	assert.Equal(t, `[{"name":"Loft"}]`, string(got))

	c.Invalidate(ctx)
	assert.Equal(t, gen+1, c.Generation(ctx))
	_, ok = c.Get(ctx, c.Generation(ctx), "search?destination=paris")
	assert.False(t, ok)
}

func TestLocalOnly_StaleGenerationWriteIsDropped(t *testing.T) {
	ctx := context.Background()
	c := New(nil, Options{Namespace: "properties", LocalTTL: time.Minute})

	// A reader loads a value, a writer invalidates, then the reader stores.
	before := c.Generation(ctx)
	c.Invalidate(ctx)
	c.Set(ctx, before, "search?", []byte(`["old"]`))

	_, ok := c.Get(ctx, c.Generation(ctx), "search?")
	assert.False(t, ok)
	_, ok = c.Get(ctx, before, "search?")
	assert.False(t, ok, "stale write is not stored at all")
}

func TestLocalOnly_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := New(nil, Options{Namespace: "a"}).(*twoLevel)
	b := &twoLevel{local: a.local, opts: Options{Namespace: "b", LocalTTL: time.Minute}, fold: a.fold}

	a.Set(ctx, 0, "k", []byte("from a"))
	b.Set(ctx, 0, "k", []byte("from b"))

	b.Invalidate(ctx)
	got, ok := a.Get(ctx, a.Generation(ctx), "k")
	require.True(t, ok)
	assert.Equal(t, "from a", string(got))
	_, ok = b.Get(ctx, b.Generation(ctx), "k")
	assert.False(t, ok)
	_, ok = b.Get(ctx, 0, "k")
	assert.False(t, ok)
}

func TestLocalOnly_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	c := New(nil, Options{Namespace: "properties", LocalTTL: time.Millisecond})

	c.Set(ctx, 0, "k", []byte("v"))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, 0, "k")
	assert.False(t, ok)
}

func TestObserve_OnlyMovesForward(t *testing.T) {
	c := New(nil, Options{Namespace: "properties"}).(*twoLevel)

	assert.Equal(t, int64(4), c.observe(4))
	assert.Equal(t, int64(4), c.observe(2), "a lagging shared counter never rewinds")
	assert.Equal(t, int64(4), c.Generation(context.Background()))
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a redis url")
	assert.Error(t, err)
}
