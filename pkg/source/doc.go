// Package source loads topology graphs and configuration text.
//
// A [Source] answers the three collaborator calls of the viewer:
//
//	LoadGraph(ctx)           -> graph.Graph   (GET  /api/graph)
//	LoadConfigText(ctx)      -> string        (GET  /api/config)
//	SaveConfigText(ctx, txt) -> error         (POST /api/config)
//
// [HTTPClient] talks to a running API server. [LocalSource] reads and writes
// an HAProxy configuration file directly and derives the graph with
// [haproxy.Parse]; it can also [LocalSource.Watch] the file for changes.
//
// Requests are never retried: a failed save or fetch is reported to the
// caller, which keeps its previous state.
package source

import (
	"context"

	"github.com/matzehuels/haview/pkg/graph"
)

// Source provides the graph and the configuration text it was derived from.
type Source interface {
	LoadGraph(ctx context.Context) (graph.Graph, error)
	LoadConfigText(ctx context.Context) (string, error)
	SaveConfigText(ctx context.Context, text string) error
}

// Event reports a change of the underlying configuration.
type Event struct {
	Path string
	Err  error
}

// Watcher is implemented by sources that can report external changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
