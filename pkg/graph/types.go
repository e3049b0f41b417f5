package graph

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Node groups produced by the HAProxy topology parser.
const (
	GroupFrontend = "frontend"
	GroupACL      = "acl"
	GroupBackend  = "backend"
	GroupServer   = "server"
)

// EntryGroup is the group whose first node receives the initial focus.
const EntryGroup = GroupFrontend

// RankUnknown is assigned to groups missing from the rank table.
// It is greater than every known rank.
const RankUnknown = 99

var groupRanks = map[string]int{
	GroupFrontend: 1,
	GroupACL:      2,
	GroupBackend:  3,
	GroupServer:   4,
}

// Rank returns the vertical level for a node group.
func Rank(group string) int {
	if r, ok := groupRanks[group]; ok {
		return r
	}
	return RankUnknown
}

// KnownGroups returns the recognized groups ordered by rank.
func KnownGroups() []string {
	groups := make([]string, 0, len(groupRanks))
	for g := range groupRanks {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b string) int { return groupRanks[a] - groupRanks[b] })
	return groups
}

// Graph is the wire format returned by the graph endpoint.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is a topology element as sent by the API.
type Node struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`   // Group: frontend, acl, backend, server
	Title string `json:"title,omitempty" yaml:"title,omitempty"` // Tooltip text
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed relationship as sent by the API.
type Edge struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Dashes bool   `json:"dashes,omitempty" yaml:"dashes,omitempty"` // Conditional relationship
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	*n = Node(raw.alias)
	n.ID = id
	return nil
}

// UnmarshalJSON accepts numeric endpoints as well as strings.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type alias Edge
	var raw struct {
		alias
		From json.RawMessage `json:"from"`
		To   json.RawMessage `json:"to"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	from, err := decodeID(raw.From)
	if err != nil {
		return fmt.Errorf("edge from: %w", err)
	}
	to, err := decodeID(raw.To)
	if err != nil {
		return fmt.Errorf("edge to: %w", err)
	}
	*e = Edge(raw.alias)
	e.From, e.To = from, to
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", err
	}
	return num.String(), nil
}
