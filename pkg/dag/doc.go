// Package dag provides the directed graph that backs a topology document.
//
// # Overview
//
// A load-balancer topology flows one way: frontends route through ACLs to
// backends, and backends fan out to servers. This package stores that graph
// with every node assigned a row (its rank), so layered layouts can place
// rows top to bottom.
//
// Unlike a strict Sugiyama layering, edges may skip rows: an unconditional
// use_backend connects a frontend (row 1) straight to a backend (row 3).
//
// # Basic Usage
//
// Create a graph with [New], typed by the values carried on nodes and
// edges. [DAG.AddEdge] refuses edges whose endpoints are unknown, which is
// how callers keep dangling references out of a layout:
//
//	g := dag.New[graph.Node, graph.Edge]()
//	g.AddNode(dag.Node[graph.Node]{ID: "frontend::www", Row: 1, Value: n})
//	g.AddEdge(dag.Edge[graph.Edge]{From: "frontend::www", To: "backend::app", Value: e})
//
// Nodes are returned in insertion order, so two graphs built from the same
// input always iterate identically.
//
// # Validation
//
// [DAG.Validate] reports cycles and the nodes caught in them. Topologies parsed from a configuration file
// are acyclic by construction, but graphs fetched from an API are not trusted.
package dag
