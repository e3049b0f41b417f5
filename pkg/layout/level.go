package layout

import (
	"context"
	"slices"
	"sort"

	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
)

// LevelEngine places nodes on one row per rank without calling Graphviz.
//
// Weakly connected components are laid out side by side, TreeSpacing apart,
// in the order their first node appears in the model. Inside a component
// each row is ordered by the mean position of the node's parents in the
// rows above (ties keep model order) and centered on the component.
type LevelEngine struct{}

// NewLevelEngine returns a level engine.
func NewLevelEngine() *LevelEngine { return &LevelEngine{} }

// Name implements Engine.
func (*LevelEngine) Name() string { return EngineLevel }

// Layout implements Engine.
func (*LevelEngine) Layout(ctx context.Context, m *graph.Model, opts Options) (Positions, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankRow := rowIndex(m)
	parents := make(map[string][]string)
	for _, e := range m.Edges {
		parents[e.To] = append(parents[e.To], e.From)
	}

	pos := make(Positions, len(m.Nodes))
	left := 0.0
	for _, comp := range components(m) {
		rows := map[int][]graph.ModelNode{}
		for _, n := range comp {
			r := rankRow[n.Rank]
			rows[r] = append(rows[r], n)
		}

		order := map[string]float64{}
		widest := 0
		rowIDs := make([]int, 0, len(rows))
		for r := range rows {
			rowIDs = append(rowIDs, r)
		}
		sort.Ints(rowIDs)
		for _, r := range rowIDs {
			row := rows[r]
			weight := make(map[string]float64, len(row))
			for i, n := range row {
				weight[n.ID] = barycenter(parents[n.ID], order, float64(i))
			}
			sort.SliceStable(row, func(a, b int) bool { return weight[row[a].ID] < weight[row[b].ID] })
			for i, n := range row {
				order[n.ID] = float64(i)
			}
			widest = max(widest, len(row))
		}

		width := float64(widest-1) * opts.NodeSpacing
		for _, r := range rowIDs {
			row := rows[r]
			offset := left + (width-float64(len(row)-1)*opts.NodeSpacing)/2
			for i, n := range row {
				pos[n.ID] = geom.Point{
					X: offset + float64(i)*opts.NodeSpacing,
					Y: float64(r) * opts.LevelSeparation,
				}
			}
		}
		left += width + opts.TreeSpacing
	}
	return pos, nil
}

// rowIndex maps each rank present in m to a dense row number.
func rowIndex(m *graph.Model) map[int]int {
	var ranks []int
	for _, n := range m.Nodes {
		if !slices.Contains(ranks, n.Rank) {
			ranks = append(ranks, n.Rank)
		}
	}
	sort.Ints(ranks)
	idx := make(map[int]int, len(ranks))
	for i, r := range ranks {
		idx[r] = i
	}
	return idx
}

// barycenter returns the mean order of the already placed parents, or
// fallback when none is placed.
func barycenter(parents []string, order map[string]float64, fallback float64) float64 {
	sum, n := 0.0, 0
	for _, p := range parents {
		if o, ok := order[p]; ok {
			sum += o
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}

// components returns the weakly connected components of m, each in model
// order, ordered by their first node.
func components(m *graph.Model) [][]graph.ModelNode {
	parent := make(map[string]string, len(m.Nodes))
	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	for _, n := range m.Nodes {
		parent[n.ID] = n.ID
	}
	for _, e := range m.Edges {
		if _, ok := parent[e.From]; !ok {
			continue
		}
		if _, ok := parent[e.To]; !ok {
			continue
		}
		a, b := find(e.From), find(e.To)
		if a != b {
			parent[b] = a
		}
	}

	var out [][]graph.ModelNode
	slot := map[string]int{}
	for _, n := range m.Nodes {
		root := find(n.ID)
		i, ok := slot[root]
		if !ok {
			i = len(out)
			slot[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], n)
	}
	return out
}
