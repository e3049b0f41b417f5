package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/haview/pkg/dag"
)

func TestRank(t *testing.T) {
	tests := []struct {
		group string
		want  int
	}{
		{GroupFrontend, 1},
		{GroupACL, 2},
		{GroupBackend, 3},
		{GroupServer, 4},
		{"listen", RankUnknown},
		{"", RankUnknown},
		{"Frontend", RankUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if got := Rank(tt.group); got != tt.want {
					t.Fatalf("Rank(%q) = %d, want %d", tt.group, got, tt.want)
				}
			}
		})
	}
}

func TestRankUnknownBelowKnown(t *testing.T) {
	for _, unknown := range []string{"listen", "peers", "cache", "x"} {
		for _, known := range KnownGroups() {
			if Rank(unknown) <= Rank(known) {
				t.Errorf("Rank(%q) = %d, want > Rank(%q) = %d", unknown, Rank(unknown), known, Rank(known))
			}
		}
	}
}

func TestKnownGroupsOrdered(t *testing.T) {
	got := KnownGroups()
	want := []string{GroupFrontend, GroupACL, GroupBackend, GroupServer}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("KnownGroups() = %v, want %v", got, want)
	}
}

func TestBuildDocumentFrontendBackend(t *testing.T) {
	g, err := UnmarshalGraph([]byte(`{
		"nodes": [{"id": 1, "type": "frontend"}, {"id": 2, "type": "backend"}],
		"edges": [{"from": 1, "to": 2}]
	}`))
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}

	doc := BuildDocument(g)

	for _, m := range []*Model{doc.Main, doc.Overview} {
		if ids := strings.Join(m.NodeIDs(), ","); ids != "1,2" {
			t.Fatalf("NodeIDs() = %s, want 1,2", ids)
		}
		if m.Nodes[0].Rank != 1 || m.Nodes[1].Rank != 3 {
			t.Errorf("ranks = %d,%d, want 1,3", m.Nodes[0].Rank, m.Nodes[1].Rank)
		}
		if len(m.Edges) != 1 || m.Edges[0].From != "1" || m.Edges[0].To != "2" {
			t.Errorf("edges = %+v", m.Edges)
		}
	}
	if doc.Entry != "1" {
		t.Errorf("Entry = %q, want 1", doc.Entry)
	}
	if len(doc.Dropped) != 0 {
		t.Errorf("Dropped = %v", doc.Dropped)
	}
}

func TestBuildDocumentDetailLevels(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "frontend::www", Label: "www", Type: GroupFrontend, Title: "www"},
			{ID: "backend::app", Type: GroupBackend, Title: "app"},
		},
		Edges: []Edge{{From: "frontend::www", To: "backend::app", Label: "acl", Dashes: true}},
	}

	doc := BuildDocument(g)

	main := doc.Main.Nodes
	if main[0].Label != "www" || main[0].Tooltip != "www" {
		t.Errorf("main node = %+v", main[0])
	}
	if main[1].Label != "backend::app" {
		t.Errorf("missing label should fall back to id, got %q", main[1].Label)
	}
	if e := doc.Main.Edges[0]; e.Label != "acl" || !e.Dashed {
		t.Errorf("main edge = %+v", e)
	}

	for _, n := range doc.Overview.Nodes {
		if n.Label != "" || n.Tooltip != "" {
			t.Errorf("overview node should be unlabeled: %+v", n)
		}
	}
	if e := doc.Overview.Edges[0]; e.Label != "" || e.Dashed {
		t.Errorf("overview edge = %+v", e)
	}

	for i := range main {
		o := doc.Overview.Nodes[i]
		if main[i].ID != o.ID || main[i].Group != o.Group || main[i].Rank != o.Rank {
			t.Errorf("models diverge at %d: %+v vs %+v", i, main[i], o)
		}
	}
}

func TestBuildDocumentDropsInvalid(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "a", Type: GroupFrontend},
			{ID: "", Type: GroupBackend},
			{ID: "a", Type: GroupServer},
			{ID: "b", Type: GroupBackend},
		},
		Edges: []Edge{
			{From: "a", To: "b"},
			{From: "a", To: "ghost"},
			{From: "ghost", To: "b"},
		},
	}

	doc := BuildDocument(g)

	if len(doc.Main.Nodes) != 2 {
		t.Fatalf("nodes = %v, want [a b]", doc.Main.NodeIDs())
	}
	if doc.Main.Nodes[0].Group != GroupFrontend {
		t.Errorf("duplicate should keep first occurrence, got %+v", doc.Main.Nodes[0])
	}
	if len(doc.Main.Edges) != 1 || len(doc.Overview.Edges) != 1 {
		t.Fatalf("edges = %+v", doc.Main.Edges)
	}
	if len(doc.Dropped) != 4 {
		t.Fatalf("Dropped = %v, want 4 issues", doc.Dropped)
	}
	if !errors.Is(doc.Dropped[2].Err, dag.ErrUnknownTargetNode) {
		t.Errorf("Dropped[2] = %v", doc.Dropped[2])
	}
	if !errors.Is(doc.Dropped[3].Err, dag.ErrUnknownSourceNode) {
		t.Errorf("Dropped[3] = %v", doc.Dropped[3])
	}

	for _, m := range []*Model{doc.Main, doc.Overview} {
		ids := map[string]bool{}
		for _, n := range m.Nodes {
			ids[n.ID] = true
		}
		for _, e := range m.Edges {
			if !ids[e.From] || !ids[e.To] {
				t.Errorf("dangling edge in model: %+v", e)
			}
		}
	}
}

func TestBuildDocumentNoEntry(t *testing.T) {
	doc := BuildDocument(Graph{Nodes: []Node{{ID: "b", Type: GroupBackend}}})
	if doc.Entry != "" {
		t.Errorf("Entry = %q, want empty", doc.Entry)
	}

	doc = BuildDocument(Graph{Nodes: []Node{
		{ID: "b", Type: GroupBackend},
		{ID: "f2", Type: GroupFrontend},
		{ID: "f1", Type: GroupFrontend},
	}})
	if doc.Entry != "f2" {
		t.Errorf("Entry = %q, want first frontend f2", doc.Entry)
	}
}

func TestBuildDocumentCyclic(t *testing.T) {
	doc := BuildDocument(Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
	})
	if !doc.Cyclic {
		t.Error("Cyclic = false, want true")
	}
}

func TestBuildDocumentDeterministic(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "z", Type: "x"}, {ID: "a", Type: GroupServer}, {ID: "m", Type: GroupACL}},
		Edges: []Edge{{From: "m", To: "a"}, {From: "z", To: "a"}},
	}
	first := BuildDocument(g)
	for i := 0; i < 5; i++ {
		again := BuildDocument(g)
		if strings.Join(again.Main.NodeIDs(), ",") != strings.Join(first.Main.NodeIDs(), ",") {
			t.Fatal("node order changed between builds")
		}
		for j := range first.Main.Edges {
			if again.Main.Edges[j] != first.Main.Edges[j] {
				t.Fatal("edge order changed between builds")
			}
		}
	}
}
