package templater

import (
	"errors"
	"testing"
	"time"
)

func newTestCache(maxSize int, ttl time.Duration) *Cache {
	store := StoreConfig{MaxSize: maxSize, TTL: ttl}
	return NewCacheWithConfig(CacheConfig{Template: store, Document: store, Data: store})
}

func TestCacheLRUEviction(t *testing.T) {
	cache := newTestCache(2, 0)
	defer cache.Stop()

	cache.Set(StoreTransformedData, "a", "1")
	cache.Set(StoreTransformedData, "b", "2")
	cache.Set(StoreTransformedData, "c", "3")

	if _, ok := cache.Get(StoreTransformedData, "a"); ok {
		t.Error("oldest entry must be evicted at capacity")
	}
	if v, ok := cache.Get(StoreTransformedData, "b"); !ok || v != "2" {
		t.Errorf("get b = %v, %v; want 2, true", v, ok)
	}
	if v, ok := cache.Get(StoreTransformedData, "c"); !ok || v != "3" {
		t.Errorf("get c = %v, %v; want 3, true", v, ok)
	}
}

func TestCacheLRURecencyOrder(t *testing.T) {
	cache := newTestCache(2, 0)
	defer cache.Stop()

	cache.Set(StoreTransformedData, "a", "1")
	cache.Set(StoreTransformedData, "b", "2")
	// Touching a promotes it, so b is now the eviction victim.
	cache.Get(StoreTransformedData, "a")
	cache.Set(StoreTransformedData, "c", "3")

	if _, ok := cache.Get(StoreTransformedData, "a"); !ok {
		t.Error("recently used entry must survive eviction")
	}
	if _, ok := cache.Get(StoreTransformedData, "b"); ok {
		t.Error("least recently used entry must be evicted")
	}
}

func TestCacheStoresAreIndependent(t *testing.T) {
	cache := newTestCache(1, 0)
	defer cache.Stop()

	cache.Set(StoreParsedTemplate, "k", "template")
	cache.Set(StoreRenderedDocument, "k", "document")
	cache.Set(StoreTransformedData, "k", "data")

	for name, want := range map[StoreName]string{
		StoreParsedTemplate:   "template",
		StoreRenderedDocument: "document",
		StoreTransformedData:  "data",
	} {
		if v, ok := cache.Get(name, "k"); !ok || v != want {
			t.Errorf("store %s: got %v, %v; want %q, true", name, v, ok, want)
		}
	}
}

func TestCacheStoreLazyExpiry(t *testing.T) {
	store := newCacheStore(StoreTransformedData, StoreConfig{MaxSize: 10, TTL: time.Minute})
	base := time.Now()

	store.set("k", "v", 1, base)

	if _, ok := store.get("k", base.Add(30*time.Second)); !ok {
		t.Error("entry within TTL must hit")
	}
	if _, ok := store.get("k", base.Add(2*time.Minute)); ok {
		t.Error("entry past TTL must miss")
	}
	// Expiry removes the entry, not just hides it.
	if got := store.stats().Size; got != 0 {
		t.Errorf("store size after lazy expiry = %d, want 0", got)
	}
}

func TestCacheStoreSweepBatch(t *testing.T) {
	store := newCacheStore(StoreTransformedData, StoreConfig{MaxSize: 200, TTL: time.Minute})
	base := time.Now()
	for i := 0; i < 100; i++ {
		store.set(string(rune('a'+i%26))+string(rune('0'+i/26)), i, 1, base)
	}

	later := base.Add(2 * time.Minute)
	if removed := store.removeExpiredBatch(later, sweepBatch); removed != sweepBatch {
		t.Errorf("first batch removed %d, want %d", removed, sweepBatch)
	}
	if removed := store.removeExpiredBatch(later, sweepBatch); removed != 100-sweepBatch {
		t.Errorf("second batch removed %d, want %d", removed, 100-sweepBatch)
	}
	if got := store.stats().Size; got != 0 {
		t.Errorf("store size after sweep = %d, want 0", got)
	}
}

func TestCacheDeepCopyIsolation(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	original := map[string]interface{}{"user": map[string]interface{}{"name": "Ann"}}
	cache.Set(StoreTransformedData, "k", original)

	// Mutating the stored-from value must not reach the cache.
	original["user"].(map[string]interface{})["name"] = "mutated"

	first, ok := cache.Get(StoreTransformedData, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got := first.(map[string]interface{})["user"].(map[string]interface{})["name"]; got != "Ann" {
		t.Errorf("cached value leaked a caller mutation: %v", got)
	}

	// Mutating a returned copy must not reach later readers.
	first.(map[string]interface{})["user"].(map[string]interface{})["name"] = "mutated"
	second, _ := cache.Get(StoreTransformedData, "k")
	if got := second.(map[string]interface{})["user"].(map[string]interface{})["name"]; got != "Ann" {
		t.Errorf("cached value leaked a reader mutation: %v", got)
	}
}

func TestCacheParseResultCopy(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	pr := Parse([]Part{{Path: "word/document.xml", Text: "Hi (((name)))."}})
	cache.SetTemplate("k", pr)

	got, ok := cache.GetTemplate("k")
	if !ok {
		t.Fatal("expected hit")
	}
	got.Parts[0].Text = "mutated"

	again, _ := cache.GetTemplate("k")
	if again.Parts[0].Text != "Hi (((name)))." {
		t.Errorf("parse result copies must be independent, got %q", again.Parts[0].Text)
	}
}

func TestCacheStats(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	cache.Set(StoreTransformedData, "k", "value")
	cache.Get(StoreTransformedData, "k")
	cache.Get(StoreTransformedData, "absent")

	stats := cache.Stats()
	s := stats.Stores[StoreTransformedData]
	if s.Hits != 1 || s.Misses != 1 || s.Writes != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 write", s)
	}
	if s.Size != 1 {
		t.Errorf("size = %d, want 1", s.Size)
	}
	if stats.TotalBytes < int64(len("value")) {
		t.Errorf("total bytes = %d, want at least %d", stats.TotalBytes, len("value"))
	}
}

func TestCacheClearPreservesCounters(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	cache.Set(StoreTransformedData, "k", "value")
	cache.Get(StoreTransformedData, "k")
	cache.Clear()

	stats := cache.Stats().Stores[StoreTransformedData]
	if stats.Size != 0 {
		t.Errorf("size after clear = %d, want 0", stats.Size)
	}
	if stats.Hits != 1 || stats.Writes != 1 {
		t.Errorf("counters must survive clear, got %+v", stats)
	}
	if _, ok := cache.Get(StoreTransformedData, "k"); ok {
		t.Error("cleared entry must miss")
	}
}

func TestCacheZeroSizeDisablesStore(t *testing.T) {
	cache := newTestCache(0, 0)
	defer cache.Stop()

	cache.Set(StoreTransformedData, "k", "value")
	if _, ok := cache.Get(StoreTransformedData, "k"); ok {
		t.Error("disabled store must never hit")
	}
}

func TestCacheUnknownStorePanics(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for undefined store")
		}
		if _, ok := r.(*CacheError); !ok {
			t.Fatalf("panic value = %T, want *CacheError", r)
		}
	}()
	cache.Get(StoreName("no-such-store"), "k")
}

func TestCacheMemoize(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	calls := 0
	transform := func() (interface{}, error) {
		calls++
		return map[string]interface{}{"n": calls}, nil
	}

	first, err := cache.Memoize("normalize", "input", transform)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Memoize("normalize", "input", transform)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("transform ran %d times, want 1", calls)
	}
	if first.(map[string]interface{})["n"] != second.(map[string]interface{})["n"] {
		t.Error("memoized results must agree")
	}

	// A different transform id over the same input recomputes.
	if _, err := cache.Memoize("enrich", "input", transform); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("transform ran %d times, want 2", calls)
	}
}

func TestCacheMemoizeError(t *testing.T) {
	cache := newTestCache(10, 0)
	defer cache.Stop()

	wantErr := errors.New("transform failed")
	calls := 0
	_, err := cache.Memoize("broken", "input", func() (interface{}, error) {
		calls++
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// Failures are not cached; the next call retries.
	cache.Memoize("broken", "input", func() (interface{}, error) {
		calls++
		return "ok", nil
	})
	if calls != 2 {
		t.Errorf("transform ran %d times, want 2", calls)
	}
}

func TestCacheStopIsIdempotent(t *testing.T) {
	cache := newTestCache(10, time.Minute)
	cache.Stop()
	cache.Stop()

	// The cache stays usable after the sweep stops.
	cache.Set(StoreTransformedData, "k", "value")
	if _, ok := cache.Get(StoreTransformedData, "k"); !ok {
		t.Error("cache must remain usable after Stop")
	}
}

func TestSweepInterval(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
		ok   bool
	}{
		{"no ttl disables sweep", 0, 0, false},
		{"quarter of ttl", 8 * time.Minute, 2 * time.Minute, true},
		{"floored at one second", 2 * time.Second, time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(10, tt.ttl)
			defer cache.Stop()
			got, ok := cache.sweepInterval()
			if got != tt.want || ok != tt.ok {
				t.Errorf("sweepInterval = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
