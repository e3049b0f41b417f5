package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/internal/config"
	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/view"
)

// Views accepted by --view.
const (
	viewMain     = view.MainView
	viewOverview = view.OverviewView
	viewBoth     = "both"
)

// viewLayout is the JSON output of the layout command for one view.
type viewLayout struct {
	View      string                `json:"view"`
	Engine    string                `json:"engine"`
	Bounds    *geom.Bounds          `json:"bounds,omitempty"`
	Positions map[string]geom.Point `json:"positions"`
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		viewName string
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions of the main view and the overview",
		Long: `Compute node positions of the main view and the overview.

The graph is read from the given file (as written by 'graph' or 'parse') or
fetched from the configured source. Results are cached by the configured
layout cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateView(viewName, true); err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, err := c.loadDocument(cmd.Context(), cfg, firstArg(args))
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), cfg, doc, viewName, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&viewName, "view", viewBoth, "view: main, overview, both")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, stdout io.Writer, cfg *config.Config, doc *graph.Document, viewName, output string) error {
	engine, err := c.newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	var configs []view.Config
	switch viewName {
	case viewMain:
		configs = []view.Config{view.MainConfig()}
	case viewOverview:
		configs = []view.Config{view.OverviewConfig()}
	default:
		configs = []view.Config{view.MainConfig(), view.OverviewConfig()}
	}

	prog := newProgress(c.Logger)
	results := make([]viewLayout, 0, len(configs))
	for _, vc := range configs {
		m := doc.Main
		if vc.Name == viewOverview {
			m = doc.Overview
		}
		pos, err := engine.Layout(ctx, m, vc.Layout)
		if err != nil {
			return fmt.Errorf("%s layout: %w", vc.Name, err)
		}
		res := viewLayout{View: vc.Name, Engine: engine.Name(), Positions: pos}
		if b, ok := geom.ComputeBounds(positionSource{m, pos}); ok {
			res.Bounds = &b
		}
		results = append(results, res)
	}
	prog.done("Laid out views", "views", len(results), "nodes", len(doc.Main.Nodes))

	out, err := openOutput(stdout, output)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Wrote layout")
		printFile(output)
	}
	return nil
}

// mapCommand creates the map command that translates overview coordinates
// into main-view coordinates the same way a click on the overview does.
func (c *CLI) mapCommand() *cobra.Command {
	var (
		pointer bool
		width   float64
		height  float64
		input   string
	)

	cmd := &cobra.Command{
		Use:   "map <x> <y>",
		Short: "Translate an overview point to main-view coordinates",
		Long: `Translate an overview point to main-view coordinates.

By default x and y are overview canvas coordinates and the result is the
proportionally mapped main-view point. With --pointer they are pixel
coordinates of a click inside an overview of --width x --height, and the
result is the camera command the click produces.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, err := c.loadDocument(cmd.Context(), cfg, input)
			if err != nil {
				return err
			}
			views, renderer, cleanup, err := c.renderViews(cmd.Context(), cfg, doc)
			if err != nil {
				return err
			}
			defer cleanup()

			if !pointer {
				mapped := geom.MapPoint(p, views.Overview, views.Main)
				printKeyValue("overview", formatPoint(p))
				printKeyValue("main", formatPoint(mapped))
				return nil
			}

			views.Overview.SetViewport(width, height)
			views.Overview.Fit()
			camCmd, ok := renderer.OverviewClick(view.ClickEvent{Pointer: p})
			if !ok {
				return fmt.Errorf("click ignored: nothing rendered")
			}
			printCameraCommand(camCmd)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pointer, "pointer", false, "treat x y as a click position in the overview viewport")
	cmd.Flags().Float64Var(&width, "width", 300, "overview viewport width (with --pointer)")
	cmd.Flags().Float64Var(&height, "height", 200, "overview viewport height (with --pointer)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON or YAML graph file (fetched from the source if empty)")

	return cmd
}

// renderViews lays out doc into a fresh renderer. The initial focus of the
// viewer is not applied.
func (c *CLI) renderViews(ctx context.Context, cfg *config.Config, doc *graph.Document) (view.Views, *view.Renderer, func(), error) {
	engine, err := c.newEngine(ctx, cfg)
	if err != nil {
		return view.Views{}, nil, nil, err
	}
	renderer := view.NewRenderer(engine,
		view.WithScheduler(skipScheduler{}),
		view.WithLogger(c.Logger),
	)
	if err := renderer.Render(ctx, doc); err != nil {
		engine.Close()
		return view.Views{}, nil, nil, err
	}
	views, _ := renderer.Views()
	return views, renderer, func() { engine.Close() }, nil
}

// loadDocument reads the graph from input, or from the configured source
// when input is empty, and builds the view document. Rejected elements are
// logged at warn level.
func (c *CLI) loadDocument(ctx context.Context, cfg *config.Config, input string) (*graph.Document, error) {
	var (
		g   graph.Graph
		err error
	)
	if input != "" {
		g, err = graph.ReadGraphFile(input)
	} else {
		src, serr := c.newSource(cfg)
		if serr != nil {
			return nil, serr
		}
		g, err = fetchGraph(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	doc := graph.BuildDocument(g)
	for _, issue := range doc.Dropped {
		c.Logger.Warn("ignoring invalid graph element", "element", issue.Subject, "err", issue.Err)
	}
	if doc.Cyclic {
		c.Logger.Warn("graph contains a cycle; layout may be irregular")
	}
	return doc, nil
}

// positionSource pairs a model with positions computed for it.
type positionSource struct {
	m   *graph.Model
	pos map[string]geom.Point
}

func (s positionSource) NodeIDs() []string { return s.m.NodeIDs() }

func (s positionSource) Position(id string) (geom.Point, bool) {
	p, ok := s.pos[id]
	return p, ok
}

// skipScheduler drops delayed work. One-shot commands exit before a
// delayed camera move could matter.
type skipScheduler struct{}

func (skipScheduler) AfterFunc(time.Duration, func()) {}

func validateView(name string, allowBoth bool) error {
	switch name {
	case viewMain, viewOverview:
		return nil
	case viewBoth:
		if allowBoth {
			return nil
		}
	}
	return fmt.Errorf("invalid view %q", name)
}

func parsePoint(xs, ys string) (geom.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	return geom.Point{X: x, Y: y}, nil
}

func formatPoint(p geom.Point) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

func printCameraCommand(cmd view.CameraCommand) {
	printKeyValue("command", string(cmd.Kind))
	if cmd.NodeID != "" {
		printKeyValue("node", cmd.NodeID)
	}
	printKeyValue("target", formatPoint(cmd.Target))
	printKeyValue("scale", strconv.FormatFloat(cmd.Scale, 'f', -1, 64))
	printKeyValue("duration", cmd.Duration.String())
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
