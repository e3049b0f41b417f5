package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haview/pkg/cache"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/observability"
)

// CachedEngine stores the positions computed by another engine.
//
// Cache failures never fail a layout: they are logged and the inner engine
// runs as if the cache were empty.
type CachedEngine struct {
	inner  Engine
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// CachedOption configures a CachedEngine.
type CachedOption func(*CachedEngine)

// WithKeyer overrides the default keyer.
func WithKeyer(k cache.Keyer) CachedOption {
	return func(c *CachedEngine) { c.keyer = k }
}

// WithTTL sets the expiry of stored layouts. Zero keeps them forever.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *CachedEngine) { c.ttl = ttl }
}

// WithLogger sets the logger for cache failures.
func WithLogger(l *log.Logger) CachedOption {
	return func(c *CachedEngine) { c.logger = l }
}

// NewCachedEngine wraps inner with c. A nil cache disables caching.
func NewCachedEngine(inner Engine, c cache.Cache, opts ...CachedOption) *CachedEngine {
	if c == nil {
		c = cache.NewNullCache()
	}
	e := &CachedEngine{
		inner:  inner,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Engine.
func (e *CachedEngine) Name() string { return e.inner.Name() }

// Layout implements Engine.
func (e *CachedEngine) Layout(ctx context.Context, m *graph.Model, opts Options) (Positions, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	key := e.keyer.LayoutKey(modelHash(m, opts), opts.keyOpts(e.inner.Name()))

	if pos, ok := e.lookup(ctx, key, m); ok {
		observability.Cache().OnCacheHit(ctx, "layout")
		return pos, nil
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	pos, err := e.inner.Layout(ctx, m, opts)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(pos)
	if err != nil {
		return pos, nil
	}
	if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
		e.logger.Warn("layout cache write failed", "err", err)
		return pos, nil
	}
	observability.Cache().OnCacheSet(ctx, "layout", len(data))
	return pos, nil
}

func (e *CachedEngine) lookup(ctx context.Context, key string, m *graph.Model) (Positions, bool) {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("layout cache read failed", "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var pos Positions
	if err := json.Unmarshal(data, &pos); err != nil || !pos.Covers(m) {
		e.logger.Debug("discarding stale layout cache entry", "key", key)
		return nil, false
	}
	return pos, true
}
