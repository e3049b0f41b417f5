package view

import (
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/layout"
)

// Style describes how nodes of one group are drawn.
type Style struct {
	Shape  string  // box, ellipse, diamond or dot
	Color  string  // fill color
	Width  float64 // extent used for hit testing, canvas units
	Height float64
}

// groupStyles is shared by both views; the overview only uses the colors.
var groupStyles = map[string]Style{
	graph.GroupFrontend: {Shape: "ellipse", Color: "#ffd966", Width: 120, Height: 40},
	graph.GroupBackend:  {Shape: "box", Color: "#9fc5e8", Width: 120, Height: 40},
	graph.GroupACL:      {Shape: "diamond", Color: "#f4cccc", Width: 60, Height: 60},
	graph.GroupServer:   {Shape: "ellipse", Color: "#b6d7a8", Width: 140, Height: 50},
}

var defaultStyle = Style{Shape: "box", Color: "#ffffff", Width: 120, Height: 40}

// GroupStyle returns the style for a node group.
func GroupStyle(group string) Style {
	if s, ok := groupStyles[group]; ok {
		return s
	}
	return defaultStyle
}

// Interaction lists what a user may do with a view.
type Interaction struct {
	Drag       bool
	Zoom       bool
	Pan        bool
	Selectable bool
}

// Config is the static configuration of one view.
type Config struct {
	Name        string
	Layout      layout.Options
	Interaction Interaction

	// DotSize, when positive, draws every node as a dot and is used for hit
	// testing instead of the group style.
	DotSize     float64
	BorderColor string
	EdgeColor   string
	EdgeWidth   float64
}

// Names of the two views.
const (
	MainView     = "main"
	OverviewView = "overview"
)

// MainConfig is the configuration of the detailed view.
func MainConfig() Config {
	opts := layout.MainOptions()
	opts.Styles = layoutStyles()
	return Config{
		Name:        MainView,
		Layout:      opts,
		Interaction: Interaction{Drag: true, Zoom: true, Pan: true, Selectable: true},
		EdgeWidth:   1,
	}
}

// OverviewConfig is the configuration of the overview. It only reacts to
// clicks.
func OverviewConfig() Config {
	opts := layout.OverviewOptions()
	opts.Styles = layoutStyles()
	for g, s := range opts.Styles {
		s.Shape = "point"
		opts.Styles[g] = s
	}
	return Config{
		Name:        OverviewView,
		Layout:      opts,
		DotSize:     opts.DotSize,
		BorderColor: "#111827",
		EdgeColor:   opts.EdgeColor,
		EdgeWidth:   opts.EdgeWidth,
	}
}

func layoutStyles() map[string]layout.NodeStyle {
	out := make(map[string]layout.NodeStyle, len(groupStyles))
	for g, s := range groupStyles {
		out[g] = layout.NodeStyle{Shape: s.Shape, Fill: s.Color}
	}
	return out
}

// hitSize returns the half extents of a node for hit testing.
func (c Config) hitSize(group string) (float64, float64) {
	if c.DotSize > 0 {
		return c.DotSize / 2, c.DotSize / 2
	}
	s := GroupStyle(group)
	return s.Width / 2, s.Height / 2
}
