// Package pkg holds the libraries behind haview, a terminal viewer for
// HAProxy topologies.
//
// # Data flow
//
//	haproxy.cfg or /api/graph
//	         ↓
//	    [source]   fetch the graph and the configuration text
//	         ↓
//	    [graph]    validate and split into main and overview models
//	         ↓
//	    [layout]   place nodes (Graphviz or the level engine, optionally cached)
//	         ↓
//	    [view]     two cameras, overview clicks mapped through [geom]
//	         ↓
//	    [app]      load, confirm and save flows driving the viewer
//
// # Packages
//
//   - [graph]: wire types, JSON/YAML codecs and [graph.BuildDocument].
//   - [dag]: the ranked graph used to reject dangling edges and detect cycles.
//   - [geom]: bounds and proportional point mapping between views.
//   - [layout]: layout engines, DOT generation and the cached engine.
//   - [view]: the dual-view renderer, camera commands and hit testing.
//   - [haproxy]: configuration parser producing the topology graph.
//   - [source]: HTTP API client and local file source with change watching.
//   - [app]: the controller behind the viewer and the push command.
//   - [prefs]: persisted viewer preferences.
//   - [cache]: file, memory, Redis and null caches for layouts and SVGs.
//   - [observability]: hooks for layout, cache and HTTP events.
//   - [errors]: coded errors and exit statuses.
//   - [buildinfo]: version information.
//
// # Quick Start
//
// Parse a configuration file and compute the main view layout:
//
//	g, err := haproxy.ParseFile("/etc/haproxy/haproxy.cfg")
//	if err != nil {
//	    return err
//	}
//	doc := graph.BuildDocument(g)
//	r := view.NewRenderer(layout.NewLevelEngine())
//	if err := r.Render(ctx, doc); err != nil {
//	    return err
//	}
//	views, _ := r.Views()
//	pos, _ := views.Main.Position(doc.Entry)
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/graph
// [dag]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/dag
// [geom]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/layout
// [view]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/view
// [haproxy]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/haproxy
// [source]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/source
// [app]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/app
// [prefs]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/prefs
// [cache]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/buildinfo
// [graph.BuildDocument]: https://pkg.go.dev/github.com/matzehuels/haview/pkg/graph#BuildDocument
package pkg
