package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] for an empty id.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when the id is taken.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when From is not a node.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when To is not a node.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate].
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Node is a vertex on a row, carrying a value of type N.
type Node[N any] struct {
	ID    string
	Row   int // lower rows are drawn above higher rows
	Value N
}

// Edge is a directed connection carrying a value of type E.
type Edge[E any] struct {
	From  string
	To    string
	Value E
}

// DAG is a directed graph whose nodes are organized into rows. Nodes and
// edges keep insertion order.
//
// Use New to create one. A DAG is not safe for concurrent use.
type DAG[N, E any] struct {
	index map[string]int
	nodes []Node[N]
	edges []Edge[E]
	out   map[string][]string
	in    map[string][]string
}

// New creates an empty graph.
func New[N, E any]() *DAG[N, E] {
	return &DAG[N, E]{
		index: make(map[string]int),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// AddNode appends n. The first node with a given id wins.
func (d *DAG[N, E]) AddNode(n Node[N]) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := d.index[n.ID]; ok {
		return ErrDuplicateNodeID
	}
	d.index[n.ID] = len(d.nodes)
	d.nodes = append(d.nodes, n)
	return nil
}

// AddEdge appends e if both endpoints exist. Parallel edges are kept.
func (d *DAG[N, E]) AddEdge(e Edge[E]) error {
	if _, ok := d.index[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.index[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, e)
	d.out[e.From] = append(d.out[e.From], e.To)
	d.in[e.To] = append(d.in[e.To], e.From)
	return nil
}

// Nodes returns a copy of the nodes in insertion order.
func (d *DAG[N, E]) Nodes() []Node[N] { return slices.Clone(d.nodes) }

// Edges returns a copy of the edges in insertion order.
func (d *DAG[N, E]) Edges() []Edge[E] { return slices.Clone(d.edges) }

// Node looks up a node by id.
func (d *DAG[N, E]) Node(id string) (Node[N], bool) {
	i, ok := d.index[id]
	if !ok {
		return Node[N]{}, false
	}
	return d.nodes[i], true
}

func (d *DAG[N, E]) NodeCount() int { return len(d.nodes) }

func (d *DAG[N, E]) EdgeCount() int { return len(d.edges) }

// Children returns the targets of id's outgoing edges. The slice must not be
// modified.
func (d *DAG[N, E]) Children(id string) []string { return d.out[id] }

// Parents returns the sources of id's incoming edges. The slice must not be
// modified.
func (d *DAG[N, E]) Parents(id string) []string { return d.in[id] }

// Rows returns the occupied rows in ascending order.
func (d *DAG[N, E]) Rows() []int {
	seen := make(map[int]struct{}, len(d.nodes))
	for _, n := range d.nodes {
		seen[n.Row] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Row returns the ids on row r in insertion order.
func (d *DAG[N, E]) Row(r int) []string {
	var ids []string
	for _, n := range d.nodes {
		if n.Row == r {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Sources returns the ids without incoming edges in insertion order.
func (d *DAG[N, E]) Sources() []string {
	var ids []string
	for _, n := range d.nodes {
		if len(d.in[n.ID]) == 0 {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Validate reports ErrGraphHasCycle, naming the nodes that are on a cycle
// or downstream of one.
func (d *DAG[N, E]) Validate() error {
	indegree := make(map[string]int, len(d.nodes))
	for _, e := range d.edges {
		indegree[e.To]++
	}
	queue := d.Sources()
	done := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		done++
		for _, child := range d.out[id] {
			if indegree[child]--; indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	if done == len(d.nodes) {
		return nil
	}

	var stuck []string
	for _, n := range d.nodes {
		if indegree[n.ID] > 0 {
			stuck = append(stuck, n.ID)
		}
	}
	return fmt.Errorf("%w: %s", ErrGraphHasCycle, strings.Join(stuck, ", "))
}
