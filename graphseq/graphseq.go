// Package graphseq tracks how the bipartite sparsity structure of a matrix
// evolves as a penalty threshold decreases. Rows and columns are vertices;
// |x_ij| is the weight of the edge joining row i to column j. Walking the
// distinct weights ("knots") in descending order and merging the connected
// components incrementally yields, per knot, a vertex partition whose blocks
// only grow or merge, never split. The ADMM path solver restricts its work
// to these blocks instead of the full dense matrix.
package graphseq

import (
	"math"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/notargets/gosvps/blockmat"
	"github.com/notargets/gosvps/utils"
)

// Entry associates a threshold with the vertex partition active once the
// penalty drops to that threshold.
type Entry struct {
	Threshold float64
	Partition blockmat.Partition
}

// BiGraphSeq is an immutable sequence of (threshold, partition) entries in
// strictly descending threshold order. The first entry is (+Inf, empty).
type BiGraphSeq struct {
	Nr, Nc  int
	Entries []Entry
}

type edge struct {
	row, col int
	weight   float64
}

// New builds the sequence for x, refining down to the first knot strictly
// below minThreshold so that every partition queried at a lambda >=
// minThreshold covers all edges heavier than that lambda.
func New(x utils.Matrix, minThreshold float64) (gs *BiGraphSeq) {
	var (
		nr, nc = x.Dims()
	)
	gs = &BiGraphSeq{
		Nr:      nr,
		Nc:      nc,
		Entries: []Entry{{Threshold: math.Inf(1), Partition: blockmat.Partition{}}},
	}

	// Edge weights held sparsely; zero entries of x contribute no edge.
	weights := sparse.NewDOK(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if v := math.Abs(x.At(i, j)); v > 0. {
				weights.Set(i, j, v)
			}
		}
	}
	edges := make([]edge, 0, weights.NNZ())
	weights.DoNonZero(func(i, j int, v float64) {
		edges = append(edges, edge{row: i, col: j, weight: v})
	})
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].weight != edges[b].weight {
			return edges[a].weight > edges[b].weight
		}
		if edges[a].row != edges[b].row {
			return edges[a].row < edges[b].row
		}
		return edges[a].col < edges[b].col
	})

	// Vertices: rows are 0..nr-1, columns are nr..nr+nc-1.
	uf := newUnionFind(nr + nc)
	active := make([]bool, nr+nc)

	for k := 0; k < len(edges); {
		knot := edges[k].weight
		// Merge every edge tied at this knot before snapshotting.
		for ; k < len(edges) && edges[k].weight == knot; k++ {
			e := edges[k]
			uf.union(e.row, nr+e.col)
			active[e.row] = true
			active[nr+e.col] = true
		}
		gs.Entries = append(gs.Entries, Entry{
			Threshold: knot,
			Partition: snapshot(uf, active, nr, nc),
		})
		if knot < minThreshold {
			break
		}
	}
	return
}

// snapshot groups the active vertices by connected component into blocks
// ordered by their smallest member vertex.
func snapshot(uf *unionFind, active []bool, nr, nc int) blockmat.Partition {
	var (
		byRoot = make(map[int]*blockmat.Block)
		order  []int
	)
	for v, on := range active {
		if !on {
			continue
		}
		root := uf.find(v)
		b, ok := byRoot[root]
		if !ok {
			b = &blockmat.Block{}
			byRoot[root] = b
			order = append(order, root)
		}
		if v < nr {
			b.Rows = append(b.Rows, v)
		} else {
			b.Cols = append(b.Cols, v-nr)
		}
	}
	// Active vertices were scanned in ascending order, so the per-block
	// index sets are already sorted; order blocks by first-seen root.
	p := make(blockmat.Partition, len(order))
	for i, root := range order {
		p[i] = *byRoot[root]
	}
	return p
}

// GetActive returns the partition of the first entry whose threshold is
// <= lambda. For lambda below the last threshold the last (most merged)
// partition is returned.
func (gs *BiGraphSeq) GetActive(lambda float64) blockmat.Partition {
	for _, e := range gs.Entries {
		if e.Threshold <= lambda {
			return e.Partition
		}
	}
	return gs.Entries[len(gs.Entries)-1].Partition
}

// LambdaRange computes the default penalty range. lambdamax is the first
// finite knot. lambdamin, when negative, defaults to the last knot or to
// lambdaminratio*lambdamax. A positive maxnvar caps block growth: lambdamin
// becomes the knot preceding the first entry whose largest block exceeds
// 2*maxnvar combined rows and columns.
func (gs *BiGraphSeq) LambdaRange(lambdamin, lambdaminratio float64, maxnvar int) (min, max float64) {
	for _, e := range gs.Entries {
		if !math.IsInf(e.Threshold, 1) {
			max = e.Threshold
			break
		}
	}
	min = lambdamin
	if min < 0 {
		if lambdaminratio < 0 {
			min = math.Min(gs.Entries[len(gs.Entries)-1].Threshold, max)
		} else {
			min = max * lambdaminratio
		}
	}
	if maxnvar <= 0 {
		return
	}
	i := sort.Search(len(gs.Entries), func(i int) bool {
		return gs.Entries[i].Partition.MaxBlockSize() >= 2*maxnvar
	})
	if i == len(gs.Entries) {
		i--
	} else if i > 0 {
		i--
	}
	min = math.Min(gs.Entries[i].Threshold, max)
	return
}

// Permutation returns 1-based row and column orders that render solutions
// supported on the partition block diagonal, with inactive indices appended
// in natural order.
func (gs *BiGraphSeq) Permutation(p blockmat.Partition) (rows, cols []int) {
	var (
		seenRow = make([]bool, gs.Nr)
		seenCol = make([]bool, gs.Nc)
	)
	for _, b := range p {
		for _, i := range b.Rows {
			rows = append(rows, i+1)
			seenRow[i] = true
		}
		for _, j := range b.Cols {
			cols = append(cols, j+1)
			seenCol[j] = true
		}
	}
	for i, seen := range seenRow {
		if !seen {
			rows = append(rows, i+1)
		}
	}
	for j, seen := range seenCol {
		if !seen {
			cols = append(cols, j+1)
		}
	}
	return
}
