package layout

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
)

const pointsPerInch = 72.0

// ToDOT converts a model to Graphviz DOT source.
//
// Graphviz node names are n0, n1, ... in model order so that arbitrary ids
// never need escaping; the real id is carried in the id attribute. Nodes of
// the same rank share a rank=same subgraph.
func ToDOT(m *graph.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.LevelSeparation))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSpacing))
	if opts.TreeSpacing > 0 {
		fmt.Fprintf(&buf, "  pack=%d;\n", int(opts.TreeSpacing))
	}
	buf.WriteString("  node [style=\"filled\", fillcolor=white, fontsize=14, fontname=\"Helvetica\"];\n")
	buf.WriteString(edgeDefaults(opts))
	buf.WriteString("\n")

	index := make(map[string]int, len(m.Nodes))
	ranks := map[int][]string{}
	for i, n := range m.Nodes {
		index[n.ID] = i
		name := dotName(i)
		ranks[n.Rank] = append(ranks[n.Rank], name)
		fmt.Fprintf(&buf, "  %s [%s];\n", name, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	rankIDs := make([]int, 0, len(ranks))
	for r := range ranks {
		rankIDs = append(rankIDs, r)
	}
	sort.Ints(rankIDs)
	for _, r := range rankIDs {
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ranks[r], "; "))
	}

	buf.WriteString("\n")
	for _, e := range m.Edges {
		from, okFrom := index[e.From]
		to, okTo := index[e.To]
		if !okFrom || !okTo {
			continue
		}
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %s -> %s;\n", dotName(from), dotName(to))
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", dotName(from), dotName(to), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotName(i int) string { return "n" + strconv.Itoa(i) }

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// dotQuote quotes s as a DOT string. Line breaks become the \n label escape.
func dotQuote(s string) string { return `"` + dotEscaper.Replace(s) + `"` }

func inches(pt float64) string {
	return strconv.FormatFloat(pt/pointsPerInch, 'f', 3, 64)
}

func edgeDefaults(opts Options) string {
	attrs := []string{}
	if !opts.Arrows {
		attrs = append(attrs, "arrowhead=none")
	}
	if opts.EdgeWidth > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%g", opts.EdgeWidth))
	}
	if opts.EdgeColor != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", opts.EdgeColor))
	}
	if len(attrs) == 0 {
		return ""
	}
	return "  edge [" + strings.Join(attrs, ", ") + "];\n"
}

func nodeAttrs(n graph.ModelNode, opts Options) []string {
	style := opts.Style(n.Group)
	attrs := []string{"id=" + dotQuote(n.ID)}
	if opts.DotSize > 0 {
		size := inches(opts.DotSize)
		attrs = append(attrs, "shape=point", "width="+size, "height="+size, "fixedsize=true")
	} else {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		attrs = append(attrs, "label="+dotQuote(label))
		if style.Shape != "" {
			attrs = append(attrs, "shape="+style.Shape)
		}
	}
	if style.Fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", style.Fill))
	}
	if n.Tooltip != "" {
		attrs = append(attrs, "tooltip="+dotQuote(n.Tooltip))
	}
	return attrs
}

func edgeAttrs(e graph.ModelEdge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, "label="+dotQuote(e.Label))
	}
	if e.Dashed {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// cgraphMu serializes calls into the Graphviz runtime, which is a single
// WebAssembly module shared by the whole process.
var cgraphMu sync.Mutex

// ParsePositions reads node positions from laid-out DOT output produced for
// a [ToDOT] graph of m. The output is parsed with Graphviz itself, so ids and
// labels may contain any characters. Y is negated so that rank 1 ends up on
// top.
func ParsePositions(out []byte, m *graph.Model) (Positions, error) {
	cgraphMu.Lock()
	defer cgraphMu.Unlock()

	g, err := graphviz.ParseBytes(out)
	if err != nil {
		return nil, fmt.Errorf("parse layout output: %w", err)
	}
	defer g.Close()

	pos := make(Positions, len(m.Nodes))
	for i, n := range m.Nodes {
		gn, err := g.NodeByName(dotName(i))
		if err != nil || gn == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingPosition, n.ID)
		}
		attr := gn.GetStr("pos")
		if attr == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingPosition, n.ID)
		}
		p, err := parsePoint(attr)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		pos[n.ID] = geom.Point{X: p.X, Y: -p.Y}
	}
	return pos, nil
}

// parsePoint parses a Graphviz point "x,y" with an optional trailing "!".
func parsePoint(s string) (geom.Point, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "!")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("malformed pos %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed pos %q: %w", s, err)
	}
	// A 3D pos "x,y,z" keeps only y.
	ys, _, _ = strings.Cut(ys, ",")
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed pos %q: %w", s, err)
	}
	return geom.Point{X: x, Y: y}, nil
}
