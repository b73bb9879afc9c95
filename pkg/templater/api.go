// Package templater fills typed placeholders embedded in the XML parts
// of Office-document containers and conditionally removes whole
// structural regions (pages, slides, rows) whose driving value is empty.
//
// It operates on raw part text with scoped boundary scans, never a DOM.
// Container (ZIP) handling, fetching, and type detection belong to the
// surrounding I/O layer, which hands in []Part and writes the rendered
// parts back out.
//
// Basic usage:
//
//	parts := []templater.Part{{Path: "word/document.xml", Text: xml}}
//	engine := templater.New()
//	defer engine.Close()
//
//	result, err := engine.Render(parts, templater.TemplateData{
//	    "user": map[string]interface{}{"name": "Ann"},
//	}, templater.DefaultOptions())
//
// Marker syntax, bit-exact:
//
//	(((user.name)))              standard placeholder
//	(((100000=sales.q1)))        numeric chart placeholder
//	(((DeletePageIfEmpty=x)))    structural deletion directive
package templater

// Engine bundles the configuration and the memoization cache behind a
// single facade. The pipeline itself is pure; the cache is the only
// shared mutable state, and its stores serialize their own access, so
// one Engine may render many documents concurrently.
type Engine struct {
	config *Config
	cache  *Cache
}

// New creates an engine with the global configuration.
func New() *Engine {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	store := StoreConfig{MaxSize: config.CacheMaxSize, TTL: config.CacheTTL}
	return &Engine{
		config: config,
		cache:  NewCacheWithConfig(CacheConfig{Template: store, Document: store, Data: store}),
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithCacheSize sets the per-store cache capacity (0 disables caching).
func WithCacheSize(maxSize int) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
	}
}

// WithStrictMode toggles strict missing-path handling.
func WithStrictMode(strict bool) Option {
	return func(e *Engine) {
		e.config.StrictMode = strict
	}
}

// NewWithOptions creates an engine with the given options applied over
// the global configuration.
func NewWithOptions(opts ...Option) *Engine {
	config := GetGlobalConfig()
	engine := &Engine{config: config}
	for _, opt := range opts {
		opt(engine)
	}
	store := StoreConfig{MaxSize: engine.config.CacheMaxSize, TTL: engine.config.CacheTTL}
	engine.cache = NewCacheWithConfig(CacheConfig{Template: store, Document: store, Data: store})
	return engine
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Cache exposes the engine's memoization cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Parse scans the parts for markers, serving repeats of the identical
// part set from the parsed-template store.
func (e *Engine) Parse(parts []Part) *ParseResult {
	key := TemplateKey(parts)
	if cached, ok := e.cache.GetTemplate(key); ok {
		return cached
	}
	result := Parse(parts)
	e.cache.SetTemplate(key, result)
	return result
}

// Render chains parse, substitution, and structural deletion, serving
// byte-identical (parts, data, options) triples from the
// rendered-document store.
func (e *Engine) Render(parts []Part, data TemplateData, opts Options) (*RenderResult, error) {
	templateKey := TemplateKey(parts)
	documentKey := DocumentKey(templateKey, data, opts)
	if cached, ok := e.cache.GetDocument(documentKey); ok {
		return cached, nil
	}

	parsed := e.Parse(parts)
	result, err := Substitute(parsed, data, opts)
	if err != nil {
		return result, err
	}
	e.cache.SetDocument(documentKey, result)
	return result, nil
}

// Validate runs the read-only pre-check for the parts against the data.
func (e *Engine) Validate(parts []Part, data TemplateData) ValidationReport {
	return Validate(e.Parse(parts), data)
}

// Close stops the cache's background sweep. The engine must not be
// used afterwards.
func (e *Engine) Close() error {
	if e.cache != nil {
		e.cache.Stop()
	}
	return nil
}
