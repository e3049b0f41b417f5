// Package graph defines the topology wire format and the per-view models
// derived from it.
//
// # Wire Format
//
// The API's graph endpoint returns a node-link document:
//
//	{
//	  "nodes": [{"id": "frontend::www", "label": "www", "type": "frontend", "title": "www"}],
//	  "edges": [{"from": "frontend::www", "to": "backend::app", "label": "acl", "dashes": true}]
//	}
//
// [Graph], [Node] and [Edge] mirror that document exactly.
//
// # Documents
//
// [BuildDocument] turns a fetched [Graph] into a [Document] holding two
// parallel [Model] values:
//
//   - Main: labels and tooltips kept, for the detailed view
//   - Overview: labels stripped, for the compact minimap
//
// Both models share node ids, groups and ranks so that their layouts stay
// topologically comparable. Edges whose endpoints are missing never make it
// into a model; they are listed in [Document.Dropped].
//
// # Ranks
//
// [Rank] maps a group to its vertical level (frontend=1, acl=2, backend=3,
// server=4). Unknown groups get [RankUnknown] so they sink below every
// recognized group.
package graph
