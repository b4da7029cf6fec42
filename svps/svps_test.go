package svps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosvps/admm"
	"github.com/notargets/gosvps/utils"
)

func exampleMatrix() utils.Matrix {
	return utils.NewMatrix(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 1,
	})
}

func TestComputeValidation(t *testing.T) {
	opts := DefaultOptions()
	opts.NDim = 1

	// Degenerate shapes
	_, err := Compute(utils.NewMatrix(1, 3, []float64{1, 2, 3}), opts)
	assert.Error(t, err)
	_, err = Compute(utils.NewMatrix(3, 1, []float64{1, 2, 3}), opts)
	assert.Error(t, err)

	// ndim out of range
	bad := opts
	bad.NDim = 0
	_, err = Compute(exampleMatrix(), bad)
	assert.Error(t, err)
	bad.NDim = 3
	_, err = Compute(exampleMatrix(), bad)
	assert.Error(t, err)

	// nsol, maxiter, tolerance
	bad = opts
	bad.NSol = 0
	_, err = Compute(exampleMatrix(), bad)
	assert.Error(t, err)
	bad = opts
	bad.MaxIter = 0
	_, err = Compute(exampleMatrix(), bad)
	assert.Error(t, err)
	bad = opts
	bad.Tolerance = 0
	_, err = Compute(exampleMatrix(), bad)
	assert.Error(t, err)

	// A matrix with no nonzero entries has no finite knots
	_, err = Compute(utils.NewMatrix(2, 2), opts)
	assert.Error(t, err)
}

func TestComputeExample(t *testing.T) {
	x := exampleMatrix()
	opts := DefaultOptions()
	opts.NDim = 1
	opts.Lambda = []float64{0.1}
	opts.MaxIter = 200
	opts.Tolerance = 1.e-6

	path, err := Compute(x, opts)
	require.NoError(t, err)
	require.Equal(t, 1, len(path.Lambda))

	// Converged within the iteration cap
	require.NotEqual(t, admm.NotConverged, path.NIter[0])
	assert.True(t, path.NIter[0] > 0 && path.NIter[0] < 200)

	// Regularization cannot push L1 mass above the input's
	assert.True(t, path.L1[0] <= x.SumAbs())
	assert.True(t, path.L1[0] > 0.)

	// Leverages are sums of squares, hence non-negative, and the projection
	// has the input's shape with zeros outside the active blocks
	nr, nc := path.Projection[0].Dims()
	assert.Equal(t, 4, nr)
	assert.Equal(t, 3, nc)
	for i := 0; i < 4; i++ {
		assert.True(t, path.LeverageRow.At(i, 0) >= 0.)
	}
	for j := 0; j < 3; j++ {
		assert.True(t, path.LeverageCol.At(j, 0) >= 0.)
	}

	assert.Equal(t, 6., path.VarTotal)
	assert.True(t, path.VarRow[0] >= 0. && path.VarCol[0] >= 0.)

	// Block-diagonalizing permutations cover all indices exactly once
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, path.RowPerm)
	assert.ElementsMatch(t, []int{1, 2, 3}, path.ColPerm)
}

func TestComputeDenseMatchesBlocks(t *testing.T) {
	x := exampleMatrix()
	opts := DefaultOptions()
	opts.NDim = 1
	opts.Lambda = []float64{0.3, 0.1}
	opts.MaxIter = 500
	opts.Tolerance = 1.e-6

	blockPath, err := Compute(x, opts)
	require.NoError(t, err)

	opts.Dense = true
	densePath, err := Compute(x, opts)
	require.NoError(t, err)

	// The example's single knot joins every row and column into one block,
	// so the block-restricted path solves the same dense problem
	require.Equal(t, densePath.NIter, blockPath.NIter)
	for k := range blockPath.Lambda {
		assert.InDelta(t, densePath.L1[k], blockPath.L1[k], 1.e-9)
		for i, v := range densePath.Projection[k].Data() {
			assert.InDelta(t, v, blockPath.Projection[k].Data()[i], 1.e-9)
		}
	}
	// Only the block path reports a permutation
	assert.Nil(t, densePath.RowPerm)
	assert.Equal(t, 4, len(blockPath.RowPerm))
	assert.Equal(t, 3, len(blockPath.ColPerm))
}

func TestComputeAutoGrid(t *testing.T) {
	x := utils.NewMatrix(3, 3, []float64{
		2.0, 0.3, 0.0,
		0.3, 1.5, 0.1,
		0.0, 0.1, 1.0,
	})
	opts := DefaultOptions()
	opts.NDim = 1
	opts.NSol = 5

	path, err := Compute(x, opts)
	require.NoError(t, err)
	require.Equal(t, 5, len(path.Lambda))

	// Grid is strictly descending from the largest knot
	assert.Equal(t, 2., path.Lambda[0])
	for i := 1; i < len(path.Lambda); i++ {
		assert.True(t, path.Lambda[i] < path.Lambda[i-1])
	}
	assert.Equal(t, 0.1, path.Lambda[len(path.Lambda)-1])

	// Warm starts keep later solutions cheap and every solve reported
	for _, n := range path.NIter {
		assert.True(t, n == admm.NotConverged || n >= 1)
	}
}

func TestComputeExplicitGridSorted(t *testing.T) {
	x := exampleMatrix()
	opts := DefaultOptions()
	opts.NDim = 1
	opts.Lambda = []float64{0.1, 0.5, 0.5, 0.3}
	opts.MaxIter = 300

	path, err := Compute(x, opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.3, 0.1}, path.Lambda)
}
