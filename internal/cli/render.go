package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/pkg/cache"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/layout"
	"github.com/matzehuels/haview/pkg/observability"
	"github.com/matzehuels/haview/pkg/view"
)

// Render output formats.
const (
	renderSVG = "svg"
	renderDOT = "dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file; defaults to <view>.<format> in the working directory
	input    string // graph file; fetched from the source if empty
	viewName string // main or overview
	format   string // svg or dot
}

// renderCommand creates the render command for writing a view as SVG or
// Graphviz source.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{viewName: viewMain, format: renderSVG}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a view of the topology to SVG",
		Long: `Render a view of the topology to SVG or Graphviz DOT.

The main view draws labelled, colored shapes per group; the overview draws the
compact dot diagram used as minimap. SVG output always uses Graphviz, whatever
layout engine is configured, and is cached by the layout cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateView(opts.viewName, false); err != nil {
				return err
			}
			if opts.format != renderSVG && opts.format != renderDOT {
				return fmt.Errorf("invalid format %q (want svg or dot)", opts.format)
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, err := c.loadDocument(cmd.Context(), cfg, opts.input)
			if err != nil {
				return err
			}
			engine, err := c.newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Close()
			return c.runRender(cmd.Context(), engine, doc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <view>.<format>)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON or YAML graph file (fetched from the source if empty)")
	cmd.Flags().StringVar(&opts.viewName, "view", opts.viewName, "view: main, overview")
	cmd.Flags().StringVar(&opts.format, "format", opts.format, "output format: svg, dot")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, engine *engineHandle, doc *graph.Document, opts renderOpts) error {
	vc := view.MainConfig()
	m := doc.Main
	if opts.viewName == viewOverview {
		vc = view.OverviewConfig()
		m = doc.Overview
	}

	var (
		data []byte
		err  error
	)
	prog := newProgress(c.Logger)
	if opts.format == renderDOT {
		data = []byte(layout.ToDOT(m, vc.Layout))
	} else {
		data, err = engine.renderSVG(ctx, m, vc.Layout)
		if err != nil {
			return err
		}
	}
	prog.done("Rendered view", "view", vc.Name, "format", opts.format)

	path := opts.output
	if path == "" {
		path = vc.Name + "." + opts.format
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	printSuccess("Rendered %s", strings.ToUpper(opts.format))
	printStats(len(m.Nodes), len(m.Edges), len(doc.Dropped))
	printFile(path)
	return nil
}

// renderSVG renders m with Graphviz, reusing a cached SVG when the DOT
// source and layout options are unchanged.
func (h *engineHandle) renderSVG(ctx context.Context, m *graph.Model, opts layout.Options) ([]byte, error) {
	key := h.keyer.SVGKey(cache.Hash([]byte(layout.ToDOT(m, opts))), cache.LayoutKeyOpts{
		Engine:          layout.EngineGraphviz,
		LevelSeparation: opts.LevelSeparation,
		NodeSpacing:     opts.NodeSpacing,
		TreeSpacing:     opts.TreeSpacing,
		Direction:       opts.Direction,
	})
	if data, ok, err := h.store.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "svg")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "svg")

	gv, ok := h.base.(*layout.GraphvizEngine)
	if !ok {
		gv = layout.NewGraphvizEngine()
		defer gv.Close()
	}
	data, err := gv.RenderSVG(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	if err := h.store.Set(ctx, key, data, h.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "svg", len(data))
	}
	return data, nil
}
