package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/haview/pkg/graph"
)

// GraphvizEngine lays models out with the Graphviz dot algorithm.
//
// The Graphviz runtime is created on first use and reused; call Close to
// release it. A GraphvizEngine is safe for concurrent use.
type GraphvizEngine struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphvizEngine returns an engine that initializes Graphviz lazily.
func NewGraphvizEngine() *GraphvizEngine {
	return &GraphvizEngine{}
}

// Name implements Engine.
func (e *GraphvizEngine) Name() string { return EngineGraphviz }

// Layout implements Engine.
func (e *GraphvizEngine) Layout(ctx context.Context, m *graph.Model, opts Options) (Positions, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if len(m.Nodes) == 0 {
		return Positions{}, nil
	}
	out, err := e.render(ctx, ToDOT(m, opts), graphviz.XDOT)
	if err != nil {
		return nil, err
	}
	return ParsePositions(out, m)
}

// RenderSVG lays out m and renders it as a standalone SVG document.
func (e *GraphvizEngine) RenderSVG(ctx context.Context, m *graph.Model, opts Options) ([]byte, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	out, err := e.render(ctx, ToDOT(m, opts), graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// Close releases the Graphviz runtime.
func (e *GraphvizEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gv == nil {
		return nil
	}
	cgraphMu.Lock()
	defer cgraphMu.Unlock()
	err := e.gv.Close()
	e.gv = nil
	return err
}

func (e *GraphvizEngine) render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cgraphMu.Lock()
	defer cgraphMu.Unlock()

	if e.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init graphviz: %w", err)
		}
		e.gv = gv
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg element with one whose
// width and height match the viewBox, so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
