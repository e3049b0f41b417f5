package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/matzehuels/haview/pkg/cache"
	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
)

// Engine names accepted by [New].
const (
	EngineGraphviz = "dot"
	EngineLevel    = "level"
)

// DirectionUD lays ranks out top to bottom. It is the only direction used.
const DirectionUD = "UD"

// Engine computes node positions for a model.
type Engine interface {
	Name() string
	Layout(ctx context.Context, m *graph.Model, opts Options) (Positions, error)
}

// NodeStyle is the layout-relevant part of a group style.
type NodeStyle struct {
	Shape string `json:"shape"`          // Graphviz shape: box, ellipse, diamond, point
	Fill  string `json:"fill,omitempty"` // Fill color for rendered output
}

// Options configure a hierarchical layout.
type Options struct {
	Direction       string  `json:"direction"`
	LevelSeparation float64 `json:"level_separation"`
	NodeSpacing     float64 `json:"node_spacing"`
	TreeSpacing     float64 `json:"tree_spacing"`

	// Styles maps a node group to its shape. Groups without an entry use
	// DefaultStyle.
	Styles       map[string]NodeStyle `json:"styles,omitempty"`
	DefaultStyle NodeStyle            `json:"default_style"`

	// DotSize, when positive, draws every node as a point of that diameter
	// and ignores labels.
	DotSize float64 `json:"dot_size,omitempty"`

	// EdgeWidth and EdgeColor only affect rendered output.
	EdgeWidth float64 `json:"edge_width,omitempty"`
	EdgeColor string  `json:"edge_color,omitempty"`
	Arrows    bool    `json:"arrows"`
}

// MainOptions are the layout settings of the detailed view.
func MainOptions() Options {
	return Options{
		Direction:       DirectionUD,
		LevelSeparation: 75,
		NodeSpacing:     150,
		TreeSpacing:     100,
		DefaultStyle:    NodeStyle{Shape: "box"},
		Arrows:          true,
	}
}

// OverviewOptions are the layout settings of the overview.
func OverviewOptions() Options {
	return Options{
		Direction:       DirectionUD,
		LevelSeparation: 40,
		NodeSpacing:     30,
		TreeSpacing:     30,
		DefaultStyle:    NodeStyle{Shape: "point"},
		DotSize:         15,
		EdgeWidth:       5,
		EdgeColor:       "#0053f8",
	}
}

// Style returns the style for a group.
func (o Options) Style(group string) NodeStyle {
	if s, ok := o.Styles[group]; ok {
		return s
	}
	return o.DefaultStyle
}

func (o Options) keyOpts(engine string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine:          engine,
		LevelSeparation: o.LevelSeparation,
		NodeSpacing:     o.NodeSpacing,
		TreeSpacing:     o.TreeSpacing,
		Direction:       o.Direction,
	}
}

// Positions maps node ids to canvas coordinates.
type Positions map[string]geom.Point

// Covers reports whether every node of m has a position.
func (p Positions) Covers(m *graph.Model) bool {
	for _, n := range m.Nodes {
		if _, ok := p[n.ID]; !ok {
			return false
		}
	}
	return true
}

// IDs returns the positioned ids in sorted order.
func (p Positions) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New returns the engine registered under name.
func New(name string) (Engine, error) {
	switch name {
	case EngineGraphviz, "graphviz", "":
		return NewGraphvizEngine(), nil
	case EngineLevel:
		return NewLevelEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownEngine, name, EngineGraphviz, EngineLevel)
	}
}

// modelHash identifies a model together with the style inputs that change
// node sizes. Positions are a pure function of this hash and the key options.
func modelHash(m *graph.Model, opts Options) string {
	data, _ := json.Marshal(struct {
		Model   *graph.Model         `json:"model"`
		Styles  map[string]NodeStyle `json:"styles"`
		Default NodeStyle            `json:"default"`
		DotSize float64              `json:"dot_size"`
	}{m, opts.Styles, opts.DefaultStyle, opts.DotSize})
	return cache.Hash(data)
}
