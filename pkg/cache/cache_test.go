package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suratkita/suratkita/pkg/observability"
	"github.com/suratkita/suratkita/pkg/paginate"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	_, hit, _ = c.Get(ctx, "key")
	assert.False(t, hit, "NullCache should not store data")
	assert.NoError(t, c.Delete(ctx, "key"))
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	_, hit, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "letter", []byte("%PDF-1.3"), 0))
	data, hit, err := c.Get(ctx, "letter")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("%PDF-1.3"), data)

	require.NoError(t, c.Delete(ctx, "letter"))
	_, hit, _ = c.Get(ctx, "letter")
	assert.False(t, hit)
	assert.NoError(t, c.Delete(ctx, "letter"), "deleting a missing key")
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "expired entry served")
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	require.NoError(t, err)

	fc := c.(*FileCache)
	path := fc.path("k")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt entry not removed")
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	assert.Equal(t, h1, Hash([]byte("hello")))
	assert.NotEqual(t, h1, Hash([]byte("world")))
	assert.Len(t, h1, 64)
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	opts := ArtifactKeyOpts{Strategy: "discrete", Geometry: paginate.A4, Overflow: "error", Format: "pdf"}

	base := k.ArtifactKey("hash123", opts)
	assert.Equal(t, base, k.ArtifactKey("hash123", opts), "keys must be deterministic")
	assert.NotEqual(t, base, k.ArtifactKey("hash456", opts), "content hash must change the key")

	f4 := opts
	f4.Geometry = paginate.F4
	assert.NotEqual(t, base, k.ArtifactKey("hash123", f4), "geometry must change the key")

	flow := opts
	flow.Strategy = "flow"
	assert.NotEqual(t, base, k.ArtifactKey("hash123", flow), "strategy must change the key")

	capped := opts
	capped.Capacity = map[string]int{"BUDGET_TABLE": 10}
	assert.NotEqual(t, base, k.ArtifactKey("hash123", capped), "capacity must change the key")
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(inner, "org-7:")
	opts := ArtifactKeyOpts{Format: "pdf"}
	assert.Equal(t, "org-7:"+inner.ArtifactKey("h", opts), k.ArtifactKey("h", opts))
}

func TestScopedKeyerNilInner(t *testing.T) {
	k := NewScopedKeyer(nil, "p:")
	assert.Contains(t, k.ArtifactKey("h", ArtifactKeyOpts{}), "p:artifact:")
}

type countingHooks struct {
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.set++
	h.mu.Unlock()
}

func TestObservedFiresHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := Observed(fc)

	_, _, _ = c.Get(ctx, "k")
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, _, _ = c.Get(ctx, "k")

	assert.Equal(t, 1, hooks.misses)
	assert.Equal(t, 1, hooks.set)
	assert.Equal(t, 1, hooks.hits)
}
