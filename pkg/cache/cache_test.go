package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cooketh/flow/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// runCacheTests covers behavior shared by storing backends.
func runCacheTests(t *testing.T, newCache func(t *testing.T) Cache) {
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		c := newCache(t)
		if err := c.Set(ctx, "artifact:abc", []byte("<svg/>"), time.Hour); err != nil {
			t.Fatalf("Set: %v", err)
		}
		data, hit, err := c.Get(ctx, "artifact:abc")
		if err != nil || !hit {
			t.Fatalf("Get = hit %v, err %v", hit, err)
		}
		if string(data) != "<svg/>" {
			t.Errorf("Get = %q", data)
		}
		if err := c.Delete(ctx, "artifact:abc"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, hit, _ := c.Get(ctx, "artifact:abc"); hit {
			t.Error("entry still present after Delete")
		}
		if err := c.Delete(ctx, "artifact:abc"); err != nil {
			t.Errorf("deleting a missing key: %v", err)
		}
	})

	t.Run("miss", func(t *testing.T) {
		c := newCache(t)
		if _, hit, err := c.Get(ctx, "nope"); hit || err != nil {
			t.Errorf("Get missing = hit %v, err %v", hit, err)
		}
	})
}

func TestFileCache(t *testing.T) {
	runCacheTests(t, func(t *testing.T) Cache {
		c, err := NewFileCache(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return c
	})
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	_ = c.Set(ctx, "short", []byte("x"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("y"), 0)

	clock = clock.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL expired")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear removed %d entries, want 2", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("FLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLOW_TEST_REDIS_ADDR not set")
	}
	runCacheTests(t, func(t *testing.T) Cache {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { client.Close() })
		return NewRedisCache(client, "flowtest:cache:")
	})
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	j1, err := HashJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if j1 != Hash([]byte(`{"a":1}`)) {
		t.Error("HashJSON should hash the JSON encoding")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON should fail on unencodable values")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer("")

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Style: "tree"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Style: "radial"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	scoped := NewDefaultKeyer("flow:")
	if got := scoped.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"}); got != "flow:"+ak1 {
		t.Errorf("prefixed key = %s, want flow:%s", got, ak1)
	}
}

func TestKeyType(t *testing.T) {
	k := NewDefaultKeyer("flow:")
	tests := []struct {
		key  string
		want string
	}{
		{k.LayoutKey("h", LayoutKeyOpts{}), "layout"},
		{k.ArtifactKey("h", ArtifactKeyOpts{}), "artifact"},
		{NewDefaultKeyer("").LayoutKey("h", LayoutKeyOpts{}), "layout"},
		{"plain", "other"},
		{"something:else", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.key, func(t *testing.T) {
			if got := KeyType(tt.key); got != tt.want {
				t.Errorf("KeyType(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.mu.Lock(); h.hits++; h.mu.Unlock() }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.mu.Lock(); h.misses++; h.mu.Unlock() }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.mu.Lock(); h.set++; h.mu.Unlock() }

func TestInstrument(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	_, _, _ = c.Get(ctx, "artifact:x")
	_ = c.Set(ctx, "artifact:x", []byte("1"), 0)
	_, _, _ = c.Get(ctx, "artifact:x")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.set != 1 {
		t.Errorf("hits=%d misses=%d sets=%d, want 1/1/1", hooks.hits, hooks.misses, hooks.set)
	}
}
