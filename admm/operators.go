package admm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosvps/blockmat"
	"github.com/notargets/gosvps/simplex"
	"github.com/notargets/gosvps/utils"
)

// SingularValueProjection projects its argument onto the convex set of
// matrices whose singular values lie in [0,1] and sum to at most Dim. The
// singular values of the argument are projected onto the capped simplex and
// the matrix is rebuilt from its thin SVD in place.
type SingularValueProjection struct {
	Dim float64
}

func (p SingularValueProjection) Apply(m utils.Matrix) {
	var svd mat.SVD
	if ok := svd.Factorize(m.M, mat.SVDThin); !ok {
		panic(fmt.Errorf("SVD factorization failed"))
	}
	s := svd.Values(nil)
	simplex.Project(s, p.Dim, true)
	reconstruct(m, &svd, s)
}

// ApplyBlocks projects a block-diagonal matrix. The singular values of a
// block-diagonal matrix are the union of the per-block singular values, so
// the simplex projection runs once over the concatenated values; the sum
// constraint couples the blocks even though each SVD is local.
func (p SingularValueProjection) ApplyBlocks(bm blockmat.BlockMat) {
	var (
		svds    = make([]mat.SVD, len(bm.Blocks))
		offsets = make([]int, len(bm.Blocks)+1)
		all     []float64
	)
	for i, b := range bm.Blocks {
		if ok := svds[i].Factorize(b.M, mat.SVDThin); !ok {
			panic(fmt.Errorf("SVD factorization failed on block %d", i))
		}
		offsets[i] = len(all)
		all = append(all, svds[i].Values(nil)...)
	}
	offsets[len(bm.Blocks)] = len(all)
	simplex.Project(all, p.Dim, true)
	for i, b := range bm.Blocks {
		reconstruct(b, &svds[i], all[offsets[i]:offsets[i+1]])
	}
}

// reconstruct overwrites m with U diag(s) V'.
func reconstruct(m utils.Matrix, svd *mat.SVD, s []float64) {
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var (
		ur, uc = u.Dims()
		data   = u.RawMatrix().Data
	)
	for i := 0; i < ur; i++ {
		for j := 0; j < uc; j++ {
			data[i*uc+j] *= s[j]
		}
	}
	m.M.Mul(&u, v.T())
}

// EntrywiseSoftThreshold is the proximal operator of the scaled entrywise L1
// regularizer: each entry is shrunk toward zero by Lambda*scale.
type EntrywiseSoftThreshold struct {
	Lambda float64
}

func (s EntrywiseSoftThreshold) Apply(m utils.Matrix, scale float64) {
	m.Apply(softAt(s.Lambda * scale))
}

func (s EntrywiseSoftThreshold) ApplyBlocks(bm blockmat.BlockMat, scale float64) {
	bm.Apply(softAt(s.Lambda * scale))
}

func softAt(t float64) func(float64) float64 {
	return func(v float64) float64 {
		switch {
		case v > t:
			return v - t
		case v < -t:
			return v + t
		}
		return 0.
	}
}
