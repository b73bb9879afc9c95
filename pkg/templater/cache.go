package templater

import (
	"container/list"
	"sync"
	"time"
)

// StoreName identifies one of the three independent cache stores.
type StoreName string

const (
	StoreParsedTemplate   StoreName = "parsed-template"
	StoreRenderedDocument StoreName = "rendered-document"
	StoreTransformedData  StoreName = "transformed-data"
)

// StoreConfig configures one cache store.
type StoreConfig struct {
	// MaxSize is the maximum number of entries. 0 disables the store.
	MaxSize int
	// TTL is the per-entry time-to-live. TTL <= 0 disables expiry.
	TTL time.Duration
}

// CacheConfig configures all three stores.
type CacheConfig struct {
	Template StoreConfig
	Document StoreConfig
	Data     StoreConfig
}

// DefaultCacheConfig derives a cache configuration from the global
// engine configuration, applied uniformly to all three stores.
func DefaultCacheConfig() CacheConfig {
	config := GetGlobalConfig()
	store := StoreConfig{MaxSize: config.CacheMaxSize, TTL: config.CacheTTL}
	return CacheConfig{Template: store, Document: store, Data: store}
}

// sweepFloor bounds how often the background sweep may run.
const sweepFloor = time.Second

// sweepBatch bounds how many expired entries one lock acquisition may
// remove, so a full sweep never holds a store lock for its duration.
const sweepBatch = 64

type cacheEntry struct {
	key        string
	value      interface{}
	size       int64
	createdAt  time.Time
	lastAccess time.Time
	element    *list.Element
}

// cacheStore is one LRU map with per-entry TTL. Each store serializes
// its own get/set/eviction; stores are independent, so there is no
// cross-store locking.
type cacheStore struct {
	mu      sync.Mutex
	name    StoreName
	entries map[string]*cacheEntry
	lru     *list.List
	config  StoreConfig

	hits   uint64
	misses uint64
	writes uint64
	bytes  int64
}

func newCacheStore(name StoreName, config StoreConfig) *cacheStore {
	return &cacheStore{
		name:    name,
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		config:  config,
	}
}

func (s *cacheStore) expired(entry *cacheEntry, now time.Time) bool {
	return s.config.TTL > 0 && now.Sub(entry.createdAt) > s.config.TTL
}

func (s *cacheStore) get(key string, now time.Time) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		s.misses++
		return nil, false
	}
	if s.expired(entry, now) {
		// Lazy self-expiry regardless of sweep timing.
		s.removeLocked(entry)
		s.misses++
		return nil, false
	}
	s.hits++
	entry.lastAccess = now
	s.lru.MoveToFront(entry.element)
	return entry.value, true
}

func (s *cacheStore) set(key string, value interface{}, size int64, now time.Time) {
	if s.config.MaxSize == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if existing, exists := s.entries[key]; exists {
		s.bytes += size - existing.size
		existing.value = value
		existing.size = size
		existing.createdAt = now
		existing.lastAccess = now
		s.lru.MoveToFront(existing.element)
		return
	}

	// New key at capacity: evict the least-recently-used entry first so
	// the size bound holds when this call returns.
	if s.lru.Len() >= s.config.MaxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeLocked(oldest.Value.(*cacheEntry))
		}
	}

	entry := &cacheEntry{
		key:        key,
		value:      value,
		size:       size,
		createdAt:  now,
		lastAccess: now,
	}
	entry.element = s.lru.PushFront(entry)
	s.entries[key] = entry
	s.bytes += size
}

func (s *cacheStore) removeLocked(entry *cacheEntry) {
	delete(s.entries, entry.key)
	s.lru.Remove(entry.element)
	s.bytes -= entry.size
}

// removeExpiredBatch removes up to limit expired entries under one lock
// acquisition and reports how many were removed.
func (s *cacheStore) removeExpiredBatch(now time.Time, limit int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.TTL <= 0 {
		return 0
	}
	removed := 0
	for _, entry := range s.entries {
		if removed >= limit {
			break
		}
		if s.expired(entry, now) {
			s.removeLocked(entry)
			removed++
		}
	}
	return removed
}

func (s *cacheStore) stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreStats{
		Hits:   s.hits,
		Misses: s.misses,
		Writes: s.writes,
		Size:   len(s.entries),
		Bytes:  s.bytes,
	}
}

func (s *cacheStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*cacheEntry)
	s.lru = list.New()
	s.bytes = 0
}

// StoreStats reports counters and sizes for one store.
type StoreStats struct {
	Hits   uint64
	Misses uint64
	Writes uint64
	Size   int
	Bytes  int64
}

// CacheStats reports counters for all stores plus an approximate total
// byte-size estimate.
type CacheStats struct {
	Stores     map[StoreName]StoreStats
	TotalBytes int64
}

// Cache is the memoization layer: three independent fixed-capacity
// stores for parsed templates, rendered documents, and transformed
// data. Get returns deep copies so a hit can never let a caller mutate
// shared state.
type Cache struct {
	stores   map[StoreName]*cacheStore
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache from the global configuration.
func NewCache() *Cache {
	return NewCacheWithConfig(DefaultCacheConfig())
}

// NewCacheWithConfig creates a cache with per-store configuration and
// starts the background expiry sweep when any store has a TTL.
func NewCacheWithConfig(config CacheConfig) *Cache {
	c := &Cache{
		stores: map[StoreName]*cacheStore{
			StoreParsedTemplate:   newCacheStore(StoreParsedTemplate, config.Template),
			StoreRenderedDocument: newCacheStore(StoreRenderedDocument, config.Document),
			StoreTransformedData:  newCacheStore(StoreTransformedData, config.Data),
		},
		stop: make(chan struct{}),
	}
	if interval, ok := c.sweepInterval(); ok {
		go c.sweepLoop(interval)
	}
	return c
}

// sweepInterval is a quarter of the smallest configured TTL, floored at
// one second. No TTL anywhere means no sweep.
func (c *Cache) sweepInterval() (time.Duration, bool) {
	var minTTL time.Duration
	for _, store := range c.stores {
		ttl := store.config.TTL
		if ttl <= 0 {
			continue
		}
		if minTTL == 0 || ttl < minTTL {
			minTTL = ttl
		}
	}
	if minTTL == 0 {
		return 0, false
	}
	interval := minTTL / 4
	if interval < sweepFloor {
		interval = sweepFloor
	}
	return interval, true
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweepExpired(time.Now())
		}
	}
}

// sweepExpired removes expired entries from all stores in bounded
// batches, releasing each store lock between batches.
func (c *Cache) sweepExpired(now time.Time) {
	for _, store := range c.stores {
		for store.removeExpiredBatch(now, sweepBatch) == sweepBatch {
			select {
			case <-c.stop:
				return
			default:
			}
		}
	}
}

// Stop cancels the background sweep. In-flight get/set calls are not
// affected; the cache remains usable.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// store returns the named store or panics: requesting an undefined
// store name is a programming error, fatal at the call site.
func (c *Cache) store(name StoreName) *cacheStore {
	s, ok := c.stores[name]
	if !ok {
		panic(NewCacheError(string(name), "undefined cache store"))
	}
	return s
}

// Get retrieves a deep copy of the value under key from the named
// store. It reports false on miss or expiry.
func (c *Cache) Get(name StoreName, key string) (interface{}, bool) {
	value, ok := c.store(name).get(key, time.Now())
	if !ok {
		return nil, false
	}
	return deepCopyValue(value), true
}

// Set stores a deep copy of value under key in the named store,
// evicting the least-recently-used entry when the store is full.
func (c *Cache) Set(name StoreName, key string, value interface{}) {
	copied := deepCopyValue(value)
	c.store(name).set(key, copied, estimateSize(copied), time.Now())
}

// GetTemplate retrieves a cached parse result.
func (c *Cache) GetTemplate(key string) (*ParseResult, bool) {
	value, ok := c.Get(StoreParsedTemplate, key)
	if !ok {
		return nil, false
	}
	pr, ok := value.(*ParseResult)
	return pr, ok
}

// SetTemplate caches a parse result.
func (c *Cache) SetTemplate(key string, pr *ParseResult) {
	c.Set(StoreParsedTemplate, key, pr)
}

// GetDocument retrieves a cached render result.
func (c *Cache) GetDocument(key string) (*RenderResult, bool) {
	value, ok := c.Get(StoreRenderedDocument, key)
	if !ok {
		return nil, false
	}
	rr, ok := value.(*RenderResult)
	return rr, ok
}

// SetDocument caches a render result.
func (c *Cache) SetDocument(key string, rr *RenderResult) {
	c.Set(StoreRenderedDocument, key, rr)
}

// GetData retrieves a cached transformed value.
func (c *Cache) GetData(key string) (interface{}, bool) {
	return c.Get(StoreTransformedData, key)
}

// SetData caches a transformed value.
func (c *Cache) SetData(key string, value interface{}) {
	c.Set(StoreTransformedData, key, value)
}

// Memoize runs transform at most once per (transformID, input) content
// pair, serving repeats from the transformed-data store.
func (c *Cache) Memoize(transformID string, input interface{}, transform func() (interface{}, error)) (interface{}, error) {
	key := DataKey(transformID, input)
	if value, ok := c.GetData(key); ok {
		return value, nil
	}
	value, err := transform()
	if err != nil {
		return nil, err
	}
	c.SetData(key, value)
	return deepCopyValue(value), nil
}

// Stats returns hit/miss/write counters, per-store sizes, and the
// approximate byte-size estimate across stores.
func (c *Cache) Stats() CacheStats {
	stats := CacheStats{Stores: make(map[StoreName]StoreStats, len(c.stores))}
	for name, store := range c.stores {
		s := store.stats()
		stats.Stores[name] = s
		stats.TotalBytes += s.Bytes
	}
	return stats
}

// Clear empties all three stores. Counters are preserved.
func (c *Cache) Clear() {
	for _, store := range c.stores {
		store.clear()
	}
}

// deepCopyValue copies a cacheable value so neither the cache nor the
// caller can observe the other's mutations. Scalars are immutable and
// pass through.
func deepCopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case *ParseResult:
		return v.Clone()
	case *RenderResult:
		return v.Clone()
	case TemplateData:
		return TemplateData(copyMap(v))
	case map[string]interface{}:
		return copyMap(v)
	case []interface{}:
		return copySlice(v)
	default:
		return value
	}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func copySlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = deepCopyValue(v)
	}
	return out
}

// estimateSize approximates the in-memory footprint of a cached value.
// It is an estimate for the stats surface, not an accounting guarantee.
func estimateSize(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return int64(len(v))
	case *ParseResult:
		if v == nil {
			return 0
		}
		var size int64
		for _, part := range v.Parts {
			size += int64(len(part.Path) + len(part.Text))
		}
		for path, markers := range v.MarkersByPart {
			size += int64(len(path))
			for _, m := range markers {
				size += int64(len(m.Raw) + len(m.Path) + 32)
			}
		}
		return size
	case *RenderResult:
		if v == nil {
			return 0
		}
		var size int64
		for _, part := range v.Parts {
			size += int64(len(part.Path) + len(part.Text))
		}
		return size
	case TemplateData:
		return estimateSize(map[string]interface{}(v))
	case map[string]interface{}:
		var size int64
		for k, item := range v {
			size += int64(len(k)) + estimateSize(item)
		}
		return size
	case []interface{}:
		var size int64
		for _, item := range v {
			size += estimateSize(item)
		}
		return size
	default:
		return 8
	}
}
