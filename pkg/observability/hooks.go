// Package observability lets the layout, cache and API code report events
// without depending on a logging or metrics backend.
//
// Library code calls the hooks returned by [View], [Cache] and [HTTP]; they
// do nothing until the command line installs an implementation such as
// [LogHooks]:
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetViewHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
//	observability.View().OnLayoutComplete(ctx, "main", time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// ViewHooks receives events from the layout engines and the dual-view renderer.
type ViewHooks interface {
	OnLayoutStart(ctx context.Context, view string, nodeCount int)
	OnLayoutComplete(ctx context.Context, view string, duration time.Duration, err error)

	// OnRender fires once per Render call after both views are committed or
	// the render was abandoned.
	OnRender(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)
}

// CacheHooks receives layout and SVG cache lookups. keyType is "layout" or
// "svg".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the configuration API client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (no response received).
	OnError(ctx context.Context, method, host, path string, err error)
}

// nop implements every hook interface and discards the events.
type nop struct{}

func (nop) OnLayoutStart(context.Context, string, int)                             {}
func (nop) OnLayoutComplete(context.Context, string, time.Duration, error)         {}
func (nop) OnRender(context.Context, int, int, time.Duration, error)               {}
func (nop) OnCacheHit(context.Context, string)                                     {}
func (nop) OnCacheMiss(context.Context, string)                                    {}
func (nop) OnCacheSet(context.Context, string, int)                                {}
func (nop) OnRequest(context.Context, string, string, string)                      {}
func (nop) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (nop) OnError(context.Context, string, string, string, error)                 {}

// registry is replaced as a whole on every Set call, so readers never
// need a lock.
type registry struct {
	view  ViewHooks
	cache CacheHooks
	http  HTTPHooks
}

var current atomic.Pointer[registry]

func init() { Reset() }

func update(f func(*registry)) {
	for {
		old := current.Load()
		next := *old
		f(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetViewHooks installs view hooks. Nil is ignored.
func SetViewHooks(h ViewHooks) {
	if h != nil {
		update(func(r *registry) { r.view = h })
	}
}

// SetCacheHooks installs cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks installs HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

func View() ViewHooks { return current.Load().view }

func Cache() CacheHooks { return current.Load().cache }

func HTTP() HTTPHooks { return current.Load().http }

// Reset uninstalls all hooks.
func Reset() {
	current.Store(&registry{view: nop{}, cache: nop{}, http: nop{}})
}
