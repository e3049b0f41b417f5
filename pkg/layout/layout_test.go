package layout

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/haview/pkg/cache"
	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
)

func sampleModel() *graph.Model {
	doc := graph.BuildDocument(graph.Graph{
		Nodes: []graph.Node{
			{ID: "frontend::web", Label: "web", Type: graph.GroupFrontend},
			{ID: "acl::is_api", Label: "is_api", Type: graph.GroupACL},
			{ID: "backend::api", Label: "api", Type: graph.GroupBackend},
			{ID: "backend::static", Label: "static", Type: graph.GroupBackend},
			{ID: "server::api::a1", Label: "a1\n10.0.0.1:80", Type: graph.GroupServer, Title: "10.0.0.1:80"},
		},
		Edges: []graph.Edge{
			{From: "frontend::web", To: "acl::is_api"},
			{From: "acl::is_api", To: "backend::api"},
			{From: "frontend::web", To: "backend::static"},
			{From: "backend::api", To: "server::api::a1"},
		},
	})
	return doc.Main
}

func TestNew(t *testing.T) {
	for _, tt := range []struct{ name, want string }{
		{"", EngineGraphviz},
		{"dot", EngineGraphviz},
		{"graphviz", EngineGraphviz},
		{"level", EngineLevel},
	} {
		e, err := New(tt.name)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.name, err)
		}
		if e.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, e.Name(), tt.want)
		}
	}
	if _, err := New("force"); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("New(force) err = %v, want ErrUnknownEngine", err)
	}
}

func TestLevelEngineRanksTopToBottom(t *testing.T) {
	m := sampleModel()
	pos, err := NewLevelEngine().Layout(context.Background(), m, MainOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !pos.Covers(m) {
		t.Fatalf("positions %v do not cover model", pos)
	}

	y := func(id string) float64 { return pos[id].Y }
	if !(y("frontend::web") < y("acl::is_api") && y("acl::is_api") < y("backend::api") && y("backend::api") < y("server::api::a1")) {
		t.Errorf("ranks not ordered top to bottom: %v", pos)
	}
	if y("backend::api") != y("backend::static") {
		t.Errorf("same rank at different heights: %v vs %v", pos["backend::api"], pos["backend::static"])
	}
	if got := y("acl::is_api") - y("frontend::web"); got != 75 {
		t.Errorf("level separation = %v, want 75", got)
	}
	if got := pos["backend::static"].X - pos["backend::api"].X; got != 150 && got != -150 {
		t.Errorf("node spacing = %v, want 150", got)
	}
}

func TestLevelEngineComponents(t *testing.T) {
	m := &graph.Model{Nodes: []graph.ModelNode{
		{ID: "a", Rank: 1},
		{ID: "b", Rank: 1},
	}}
	opts := Options{LevelSeparation: 10, NodeSpacing: 20, TreeSpacing: 100}
	pos, err := NewLevelEngine().Layout(context.Background(), m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if pos["a"] != (geom.Point{X: 0, Y: 0}) || pos["b"] != (geom.Point{X: 100, Y: 0}) {
		t.Errorf("disconnected nodes = %v, want tree spacing apart", pos)
	}
}

func TestLevelEngineDeterministic(t *testing.T) {
	m := sampleModel()
	first, _ := NewLevelEngine().Layout(context.Background(), m, OverviewOptions())
	for range 5 {
		again, _ := NewLevelEngine().Layout(context.Background(), m, OverviewOptions())
		for id, p := range first {
			if again[id] != p {
				t.Fatalf("position of %s changed: %v -> %v", id, p, again[id])
			}
		}
	}
}

func TestLevelEngineNilModel(t *testing.T) {
	if _, err := NewLevelEngine().Layout(context.Background(), nil, MainOptions()); !errors.Is(err, ErrNilModel) {
		t.Errorf("err = %v, want ErrNilModel", err)
	}
}

func TestToDOT(t *testing.T) {
	m := sampleModel()
	m.Edges[2].Dashed = true
	m.Edges[2].Label = "acl"
	opts := MainOptions()
	opts.Styles = map[string]NodeStyle{graph.GroupFrontend: {Shape: "ellipse", Fill: "#ffd966"}}

	dot := ToDOT(m, opts)
	for _, want := range []string{
		"ranksep=1.042;",
		"nodesep=2.083;",
		"pack=100;",
		`n0 [id="frontend::web", label="web", shape=ellipse, fillcolor="#ffd966"];`,
		`n4 [id="server::api::a1", label="a1\n10.0.0.1:80", shape=box, tooltip="10.0.0.1:80"];`,
		"{ rank=same; n2; n3; }",
		`n0 -> n3 [label="acl", style=dashed];`,
		"n2 -> n4;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "arrowhead=none") {
		t.Error("main view should draw arrows")
	}
}

func TestToDOTOverviewDots(t *testing.T) {
	dot := ToDOT(sampleModel(), OverviewOptions())
	for _, want := range []string{"shape=point", "penwidth=5", `color="#0053f8"`, "arrowhead=none"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "label=") {
		t.Error("overview nodes should not carry labels")
	}
}

func TestParsePositions(t *testing.T) {
	m := &graph.Model{Nodes: []graph.ModelNode{{ID: "frontend::web"}, {ID: "backend::api"}}}
	out := "digraph G {\n" +
		"\tgraph [bb=\"0,0,62,108\",\n\t\tnodesep=0.5\n\t];\n" +
		"\tnode [label=\"\\N\"];\n" +
		"\tn0\t[height=0.5,\n\t\tid=\"frontend::web\",\n\t\tpos=\"27,90\",\n\t\twidth=0.75];\n" +
		"\tn1\t[id=\"backend::api\", pos=\"27.5,1\\\n8!\"];\n" +
		"\tn0 -> n1\t[pos=\"e,27,36.104 27,71.697 27,63.983\"];\n" +
		"}\n"

	pos, err := ParsePositions([]byte(out), m)
	if err != nil {
		t.Fatal(err)
	}
	if pos["frontend::web"] != (geom.Point{X: 27, Y: -90}) {
		t.Errorf("frontend = %v", pos["frontend::web"])
	}
	if pos["backend::api"] != (geom.Point{X: 27.5, Y: -18}) {
		t.Errorf("backend = %v", pos["backend::api"])
	}
}

func TestParsePositionsMissingNode(t *testing.T) {
	m := &graph.Model{Nodes: []graph.ModelNode{{ID: "a"}, {ID: "b"}}}
	out := "digraph G {\n\tn0 [pos=\"1,2\"];\n}\n"
	if _, err := ParsePositions([]byte(out), m); !errors.Is(err, ErrMissingPosition) {
		t.Errorf("err = %v, want ErrMissingPosition", err)
	}
}

func TestParsePositionsQuotedBrackets(t *testing.T) {
	m := &graph.Model{Nodes: []graph.ModelNode{{ID: "backend::x];y"}, {ID: `acl::"q"`}}}
	out := "digraph G {\n" +
		"\tn0\t[id=\"backend::x];y\", label=\"x];y\", pos=\"10,20\"];\n" +
		"\tn1\t[id=\"acl::\\\"q\\\"\", label=\"];\", pos=\"30,40\"];\n" +
		"}\n"

	pos, err := ParsePositions([]byte(out), m)
	if err != nil {
		t.Fatal(err)
	}
	if pos["backend::x];y"] != (geom.Point{X: 10, Y: -20}) || pos[`acl::"q"`] != (geom.Point{X: 30, Y: -40}) {
		t.Errorf("positions = %v", pos)
	}
}

func TestDotQuote(t *testing.T) {
	for in, want := range map[string]string{
		"web":          `"web"`,
		`say "hi"];`:   `"say \"hi\"];"`,
		"a1\n10.0.0.1": `"a1\n10.0.0.1"`,
		`C:\x`:         `"C:\\x"`,
	} {
		if got := dotQuote(in); got != want {
			t.Errorf("dotQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestGraphvizEngineAwkwardIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	e := NewGraphvizEngine()
	defer e.Close()

	doc := graph.BuildDocument(graph.Graph{
		Nodes: []graph.Node{
			{ID: "frontend::web", Type: graph.GroupFrontend},
			{ID: "backend::x];y", Label: `x];y "quoted"`, Type: graph.GroupBackend},
		},
		Edges: []graph.Edge{{From: "frontend::web", To: "backend::x];y"}},
	})
	for _, tc := range []struct {
		m    *graph.Model
		opts Options
	}{{doc.Main, MainOptions()}, {doc.Overview, OverviewOptions()}} {
		pos, err := e.Layout(context.Background(), tc.m, tc.opts)
		if err != nil {
			t.Fatal(err)
		}
		if !pos.Covers(tc.m) {
			t.Errorf("positions %v do not cover model", pos)
		}
	}
}

func TestParsePoint(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    geom.Point
		wantErr bool
	}{
		{"1,2", geom.Point{X: 1, Y: 2}, false},
		{"1.5,2.25!", geom.Point{X: 1.5, Y: 2.25}, false},
		{"1,2,3", geom.Point{X: 1, Y: 2}, false},
		{"12", geom.Point{}, true},
		{"x,2", geom.Point{}, true},
	} {
		got, err := parsePoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePoint(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 62.00 116.00" width="62" height="116"`) {
		t.Errorf("normalizeViewBox = %s", got)
	}
	if string(normalizeViewBox([]byte("<svg>"))) != "<svg>" {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestGraphvizEngine(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	e := NewGraphvizEngine()
	defer e.Close()

	m := sampleModel()
	pos, err := e.Layout(context.Background(), m, MainOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !pos.Covers(m) {
		t.Fatalf("positions %v do not cover model", pos)
	}
	if pos["frontend::web"].Y >= pos["backend::api"].Y {
		t.Errorf("frontend should be above backend: %v", pos)
	}

	svg, err := e.RenderSVG(context.Background(), m, MainOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG did not produce an svg document")
	}
}

type countingEngine struct {
	calls atomic.Int32
	inner Engine
}

func (c *countingEngine) Name() string { return "counting" }

func (c *countingEngine) Layout(ctx context.Context, m *graph.Model, opts Options) (Positions, error) {
	c.calls.Add(1)
	return c.inner.Layout(ctx, m, opts)
}

func TestCachedEngine(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingEngine{inner: NewLevelEngine()}
	e := NewCachedEngine(inner, mem)
	m := sampleModel()

	first, err := e.Layout(ctx, m, MainOptions())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Layout(ctx, m, MainOptions())
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner engine ran %d times, want 1", inner.calls.Load())
	}
	for id, p := range first {
		if second[id] != p {
			t.Errorf("cached position of %s = %v, want %v", id, second[id], p)
		}
	}

	if _, err := e.Layout(ctx, m, OverviewOptions()); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("different options should miss the cache, calls = %d", inner.calls.Load())
	}
}

func TestCachedEngineNilCache(t *testing.T) {
	inner := &countingEngine{inner: NewLevelEngine()}
	e := NewCachedEngine(inner, nil)
	for range 2 {
		if _, err := e.Layout(context.Background(), sampleModel(), MainOptions()); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 without a cache", inner.calls.Load())
	}
}
