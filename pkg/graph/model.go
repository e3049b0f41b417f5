package graph

import (
	"fmt"

	"github.com/matzehuels/haview/pkg/dag"
)

// ModelNode is a node as handed to a view.
type ModelNode struct {
	ID      string
	Label   string
	Tooltip string
	Group   string
	Rank    int
}

// ModelEdge is an edge as handed to a view.
type ModelEdge struct {
	From   string
	To     string
	Label  string
	Dashed bool
}

// Model is the node/edge data owned by one view. Every edge endpoint
// references a node in Nodes.
type Model struct {
	Nodes []ModelNode
	Edges []ModelEdge
}

// NodeIDs returns the node ids in model order.
func (m *Model) NodeIDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (ModelNode, bool) {
	if m == nil {
		return ModelNode{}, false
	}
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ModelNode{}, false
}

// Issue records a node or edge that was rejected while building a document.
type Issue struct {
	Subject string
	Err     error
}

func (i Issue) String() string { return fmt.Sprintf("%s: %v", i.Subject, i.Err) }

// Document is the immutable snapshot both views are built from.
type Document struct {
	Main     *Model
	Overview *Model

	// Entry is the id of the first EntryGroup node, or empty if there is none.
	Entry string

	// Dropped lists rejected nodes and edges in input order.
	Dropped []Issue

	// Cyclic is set when the accepted edges form a directed cycle.
	Cyclic bool
}

// BuildDocument derives the main and overview models from a fetched graph.
//
// Nodes with an empty or repeated id are dropped (first occurrence wins).
// Edges referencing a node that is not in the accepted set are dropped.
// BuildDocument is deterministic: the same graph always yields the same
// document.
func BuildDocument(g Graph) *Document {
	d, dropped := ToDAG(g)

	doc := &Document{
		Main:     &Model{},
		Overview: &Model{},
		Dropped:  dropped,
		Cyclic:   d.Validate() != nil,
	}

	for _, n := range d.Nodes() {
		wire := n.Value
		doc.Main.Nodes = append(doc.Main.Nodes, ModelNode{
			ID:      wire.ID,
			Label:   wire.DisplayLabel(),
			Tooltip: wire.Title,
			Group:   wire.Type,
			Rank:    n.Row,
		})
		doc.Overview.Nodes = append(doc.Overview.Nodes, ModelNode{
			ID:    wire.ID,
			Group: wire.Type,
			Rank:  n.Row,
		})
		if doc.Entry == "" && wire.Type == EntryGroup {
			doc.Entry = wire.ID
		}
	}

	for _, e := range d.Edges() {
		wire := e.Value
		doc.Main.Edges = append(doc.Main.Edges, ModelEdge{
			From:   wire.From,
			To:     wire.To,
			Label:  wire.Label,
			Dashed: wire.Dashes,
		})
		doc.Overview.Edges = append(doc.Overview.Edges, ModelEdge{
			From: wire.From,
			To:   wire.To,
		})
	}

	return doc
}

// ToDAG inserts the graph into a DAG with rows set to each node's rank.
// Rejected nodes and edges are returned instead of failing the whole graph.
func ToDAG(g Graph) (*dag.DAG[Node, Edge], []Issue) {
	d := dag.New[Node, Edge]()
	var dropped []Issue

	for _, n := range g.Nodes {
		err := d.AddNode(dag.Node[Node]{ID: n.ID, Row: Rank(n.Type), Value: n})
		if err != nil {
			dropped = append(dropped, Issue{Subject: fmt.Sprintf("node %q", n.ID), Err: err})
		}
	}

	for _, e := range g.Edges {
		if err := d.AddEdge(dag.Edge[Edge]{From: e.From, To: e.To, Value: e}); err != nil {
			dropped = append(dropped, Issue{Subject: fmt.Sprintf("edge %s -> %s", e.From, e.To), Err: err})
		}
	}

	return d, dropped
}
