package admm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosvps/blockmat"
	"github.com/notargets/gosvps/utils"
)

func TestEntrywiseSoftThreshold(t *testing.T) {
	sel := EntrywiseSoftThreshold{Lambda: 1.}
	M := utils.NewMatrix(2, 2, []float64{3, -3, 0.25, -0.25})
	sel.Apply(M, 0.5) // shrink by lambda*scale = 0.5
	assert.Equal(t, []float64{2.5, -2.5, 0, 0}, M.Data())

	// Blockwise form shrinks every block identically
	bm := blockmat.NewBlockMat(M, blockmat.Trivial(2, 2))
	sel.ApplyBlocks(bm, 0.5)
	assert.Equal(t, []float64{2, -2, 0, 0}, bm.Blocks[0].Data())
}

func TestSingularValueProjection(t *testing.T) {
	// diag(3,1) has singular values (3,1); capping them in [0,1] with sum
	// at most 1.5 shifts them to (1, 0.5)
	prj := SingularValueProjection{Dim: 1.5}
	M := utils.NewMatrix(2, 2, []float64{
		3, 0,
		0, 1,
	})
	prj.Apply(M)
	assert.InDelta(t, 1., M.At(0, 0), 1.e-12)
	assert.InDelta(t, 0.5, M.At(1, 1), 1.e-12)
	assert.InDelta(t, 0., M.At(0, 1), 1.e-12)
	assert.InDelta(t, 0., M.At(1, 0), 1.e-12)

	// Already feasible: singular values inside the set are untouched
	A := utils.NewMatrix(2, 2, []float64{
		0.5, 0,
		0, 0.25,
	})
	SingularValueProjection{Dim: 1.}.Apply(A)
	assert.InDelta(t, 0.5, A.At(0, 0), 1.e-12)
	assert.InDelta(t, 0.25, A.At(1, 1), 1.e-12)

	// Block form: the sum constraint couples blocks, so the larger of two
	// per-block singular values absorbs the budget
	D := utils.NewMatrix(4, 4, []float64{
		3, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 0,
	})
	p := blockmat.Partition{
		{Rows: utils.Index{0, 1}, Cols: utils.Index{0, 1}},
		{Rows: utils.Index{2, 3}, Cols: utils.Index{2, 3}},
	}
	bm := blockmat.NewBlockMat(D, p)
	SingularValueProjection{Dim: 1.5}.ApplyBlocks(bm)
	assert.InDelta(t, 1., bm.Blocks[0].At(0, 0), 1.e-12)
	assert.InDelta(t, 0.5, bm.Blocks[1].At(0, 0), 1.e-12)
}

func testInput() utils.Matrix {
	return utils.NewMatrix(3, 3, []float64{
		2.0, 0.3, 0.0,
		0.3, 1.5, 0.1,
		0.0, 0.1, 1.0,
	})
}

func solveDense(maxiter int) (z utils.Matrix, niter int, st *State) {
	var (
		x   = testInput()
		prj = SingularValueProjection{Dim: 1.}
		sel = EntrywiseSoftThreshold{Lambda: 0.2}
		u   = utils.NewMatrix(3, 3)
	)
	z = utils.NewMatrix(3, 3)
	st = &State{Penalty: x.MaxAbs(), Adjust: 2.}
	niter = Solve(prj.Apply, sel.Apply, x, z, u, st, maxiter, 1.e-6)
	return
}

func TestSolveConverges(t *testing.T) {
	z, niter, st := solveDense(1000)
	require.NotEqual(t, NotConverged, niter)
	assert.True(t, niter > 0)
	assert.True(t, st.Penalty > 0.)
	// The solution is feasible-ish: bounded entries, nonzero somewhere
	assert.True(t, z.SumAbs() > 0.)
	assert.True(t, z.MaxAbs() <= 1.+1.e-6)
}

func TestSolveMaxIter(t *testing.T) {
	// One iteration cannot satisfy both residuals here
	_, niter, _ := solveDense(1)
	assert.Equal(t, NotConverged, niter)

	// Once converged at some maxiter, a larger cap returns the same count
	_, n1, _ := solveDense(1000)
	require.NotEqual(t, NotConverged, n1)
	_, n2, _ := solveDense(2000)
	assert.Equal(t, n1, n2)
}

func TestSolveBlockDenseEquivalence(t *testing.T) {
	var (
		x   = testInput()
		prj = SingularValueProjection{Dim: 1.}
		sel = EntrywiseSoftThreshold{Lambda: 0.2}
	)

	zd := utils.NewMatrix(3, 3)
	ud := utils.NewMatrix(3, 3)
	std := &State{Penalty: x.MaxAbs(), Adjust: 2.}
	nd := Solve(prj.Apply, sel.Apply, x, zd, ud, std, 500, 1.e-6)

	// Same problem over the trivial single-block partition
	var (
		bx = blockmat.NewBlockMat(x, blockmat.Trivial(3, 3))
		bz = blockmat.NewBlockMat(utils.NewMatrix(3, 3), blockmat.Trivial(3, 3))
		bu = blockmat.NewBlockMat(utils.NewMatrix(3, 3), blockmat.Trivial(3, 3))
	)
	stb := &State{Penalty: x.MaxAbs(), Adjust: 2.}
	nb := Solve(prj.ApplyBlocks, sel.ApplyBlocks, bx, bz, bu, stb, 500, 1.e-6)

	require.Equal(t, nd, nb)
	assert.Equal(t, std.Penalty, stb.Penalty)
	zb := utils.NewMatrix(3, 3)
	bz.CopyTo(zb)
	for i, v := range zd.Data() {
		assert.InDelta(t, v, zb.Data()[i], 1.e-12)
	}
}
