// Package blockmat provides a block-structured view over a dense matrix: a
// partition of row and column index sets into disjoint blocks, and a
// container holding one independently owned dense submatrix per block.
// Elementwise arithmetic applies blockwise; reductions are sums over blocks.
package blockmat

import (
	"fmt"

	"github.com/notargets/gosvps/utils"
)

// Block pairs a row index set with a column index set. The sets are
// independent, so blocks are rectangular in general.
type Block struct {
	Rows, Cols utils.Index
}

func (b Block) Size() int { return len(b.Rows) + len(b.Cols) }

// Partition is an ordered sequence of blocks. Row index sets are pairwise
// disjoint across blocks, as are column index sets. Indices outside every
// block are inactive.
type Partition []Block

// MaxBlockSize is the largest combined row+column count over the blocks.
func (p Partition) MaxBlockSize() (maxsize int) {
	for _, b := range p {
		if s := b.Size(); s > maxsize {
			maxsize = s
		}
	}
	return
}

// Trivial is the single-block partition covering an nr x nc matrix.
func Trivial(nr, nc int) Partition {
	return Partition{{Rows: utils.NewRange(0, nr-1), Cols: utils.NewRange(0, nc-1)}}
}

type BlockMat struct {
	Blocks []utils.Matrix
	Part   Partition
}

// NewBlockMat gathers one dense submatrix per block of the partition. The
// container owns its storage independently of m.
func NewBlockMat(m utils.Matrix, p Partition) (R BlockMat) {
	R = BlockMat{
		Blocks: make([]utils.Matrix, len(p)),
		Part:   p,
	}
	for i, b := range p {
		R.Blocks[i] = m.SubMatrix(b.Rows, b.Cols)
	}
	return
}

// NewSymBlockMat is the symmetric special case: each group indexes both the
// rows and the columns of its block. Results agree with NewBlockMat called
// with Rows == Cols per block.
func NewSymBlockMat(m utils.Matrix, groups []utils.Index) (R BlockMat) {
	p := make(Partition, len(groups))
	for i, g := range groups {
		p[i] = Block{Rows: g, Cols: g}
	}
	return NewBlockMat(m, p)
}

// CopyTo scatters the blocks back into dst. Entries of dst outside every
// block are left untouched; callers wanting zeros there must clear dst first.
func (bm BlockMat) CopyTo(dst utils.Matrix) {
	for i, b := range bm.Part {
		dst.SetSubMatrix(b.Rows, b.Cols, bm.Blocks[i])
	}
}

func (bm BlockMat) Copy() (R BlockMat) {
	R = BlockMat{
		Blocks: make([]utils.Matrix, len(bm.Blocks)),
		Part:   bm.Part,
	}
	for i, b := range bm.Blocks {
		R.Blocks[i] = b.Copy()
	}
	return
}

func (bm BlockMat) samePartition(A BlockMat) {
	if len(bm.Blocks) != len(A.Blocks) {
		panic(fmt.Errorf("block count mismatch: %d vs %d", len(bm.Blocks), len(A.Blocks)))
	}
}

// Chainable blockwise arithmetic (mutates receiver storage)

func (bm BlockMat) Assign(A BlockMat) BlockMat {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		b.Assign(A.Blocks[i])
	}
	return bm
}

func (bm BlockMat) Add(A BlockMat) BlockMat {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		b.Add(A.Blocks[i])
	}
	return bm
}

func (bm BlockMat) Subtract(A BlockMat) BlockMat {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		b.Subtract(A.Blocks[i])
	}
	return bm
}

func (bm BlockMat) AddScaled(A BlockMat, a float64) BlockMat {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		b.AddScaled(A.Blocks[i], a)
	}
	return bm
}

func (bm BlockMat) Scale(a float64) BlockMat {
	for _, b := range bm.Blocks {
		b.Scale(a)
	}
	return bm
}

func (bm BlockMat) Apply(f func(float64) float64) BlockMat {
	for _, b := range bm.Blocks {
		b.Apply(f)
	}
	return bm
}

// Reductions, defined as the sum of the per-block quantity

func (bm BlockMat) SumAbs() (s float64) {
	for _, b := range bm.Blocks {
		s += b.SumAbs()
	}
	return
}

func (bm BlockMat) SumSq() (s float64) {
	for _, b := range bm.Blocks {
		s += b.SumSq()
	}
	return
}

func (bm BlockMat) DistanceSq(A BlockMat) (s float64) {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		s += b.DistanceSq(A.Blocks[i])
	}
	return
}

// DotSq is sum_i ||B_i' A_i||_F^2, the blockwise trace(BB'AA') cross term.
func (bm BlockMat) DotSq(A BlockMat) (s float64) {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		s += b.Transpose().Mul(A.Blocks[i]).SumSq()
	}
	return
}

// TDotSq is sum_i ||B_i A_i'||_F^2, the blockwise trace(B'BA'A) cross term.
func (bm BlockMat) TDotSq(A BlockMat) (s float64) {
	bm.samePartition(A)
	for i, b := range bm.Blocks {
		s += b.Mul(A.Blocks[i].Transpose()).SumSq()
	}
	return
}
