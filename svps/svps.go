// Package svps computes the Singular Value Projection and Selection
// regularization path: a sequence of projection-matrix estimates trading
// fidelity to the data matrix against an entrywise L1 penalty, one estimate
// per value of a descending penalty grid. Solutions are warm-started from
// their predecessor, and each solve is restricted to the active block
// partition supplied by the graph sequence unless the dense path is forced.
package svps

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gosvps/admm"
	"github.com/notargets/gosvps/blockmat"
	"github.com/notargets/gosvps/graphseq"
	"github.com/notargets/gosvps/utils"
)

type Options struct {
	NDim           float64   // Target subspace dimension, may be fractional
	NSol           int       // Number of solutions when the grid is automatic
	MaxNVar        int       // Suggested max rows+cols per block (ignored if <= 0)
	LambdaMinRatio float64   // lambdamin as a fraction of lambdamax (ignored if < 0)
	LambdaMin      float64   // Explicit lambdamin (set automatically if < 0)
	Lambda         []float64 // Explicit grid; overrides the automatic one
	MaxIter        int       // Per-solution ADMM iteration cap
	Tolerance      float64   // Residual tolerance, scaled by sqrt(NDim) internally
	Dense          bool      // Skip the block-partition optimization
	Verbose        int       // 0 silent; higher values print more progress
}

func DefaultOptions() Options {
	return Options{
		NSol:           50,
		MaxNVar:        -1,
		LambdaMinRatio: -1,
		LambdaMin:      -1,
		MaxIter:        100,
		Tolerance:      1.e-3,
	}
}

// Path holds one estimate per lambda plus path-level diagnostics.
type Path struct {
	NDim        float64
	Lambda      []float64
	Projection  []utils.Matrix // Dense estimates, zero outside active blocks
	LeverageRow utils.Matrix   // nr x nsol, row sums of squared entries
	LeverageCol utils.Matrix   // nc x nsol, column sums of squared entries
	L1          []float64
	VarRow      []float64 // ||X'Z||_F^2 per solution
	VarCol      []float64 // ||XZ'||_F^2 per solution
	VarTotal    float64   // ||X||_F^2, constant across the path
	NIter       []int     // Iteration counts; admm.NotConverged flags failure
	RowPerm     []int     // 1-based block-diagonalizing orders (block path only)
	ColPerm     []int
}

// Compute runs the full solution path. Argument validation fails fast,
// before any solver state is allocated. A non-converged solution is
// reported through NIter, not an error; the path continues.
func Compute(x utils.Matrix, opts Options) (*Path, error) {
	nr, nc := x.Dims()
	if nr < 2 || nc < 2 {
		return nil, fmt.Errorf("expected x to be a matrix with at least 2 rows and columns")
	}
	if opts.NDim <= 0. || opts.NDim >= float64(min(nr, nc)) {
		return nil, fmt.Errorf("expected 0 < ndim < min(dim(x)), have ndim = %v", opts.NDim)
	}
	if opts.NSol < 1 {
		return nil, fmt.Errorf("expected nsol > 0, have %d", opts.NSol)
	}
	if opts.MaxIter < 1 {
		return nil, fmt.Errorf("expected maxiter > 0, have %d", opts.MaxIter)
	}
	if opts.Tolerance <= 0. {
		return nil, fmt.Errorf("expected tolerance > 0, have %v", opts.Tolerance)
	}
	x.SetReadOnly("svps input")

	// The graph sequence is built once and queried for every lambda.
	gs := graphseq.New(x, math.Max(0., opts.LambdaMin))

	lambda, err := lambdaGrid(gs, &opts)
	if err != nil {
		return nil, err
	}
	nsol := len(lambda)

	path := &Path{
		NDim:        opts.NDim,
		Lambda:      lambda,
		Projection:  make([]utils.Matrix, nsol),
		LeverageRow: utils.NewMatrix(nr, nsol),
		LeverageCol: utils.NewMatrix(nc, nsol),
		L1:          make([]float64, nsol),
		VarRow:      make([]float64, nsol),
		VarCol:      make([]float64, nsol),
		NIter:       make([]int, nsol),
		VarTotal:    x.SumSq(),
	}

	// ADMM state, shared across the path for warm starting.
	var (
		z   = utils.NewMatrix(nr, nc)
		u   = utils.NewMatrix(nr, nc)
		st  = &admm.State{Penalty: x.MaxAbs(), Adjust: 2.}
		tol = math.Sqrt(opts.NDim) * opts.Tolerance
		prj = admm.SingularValueProjection{Dim: opts.NDim}
	)
	for i, l := range lambda {
		if opts.Verbose > 0 {
			fmt.Print(".")
		}
		sel := admm.EntrywiseSoftThreshold{Lambda: l}
		p := utils.NewMatrix(nr, nc)

		if opts.Dense {
			path.NIter[i] = admm.Solve(prj.Apply, sel.Apply,
				x, z, u, st, opts.MaxIter, tol)
			p.Assign(z)
			path.L1[i] = z.SumAbs()
			path.VarRow[i] = x.Transpose().Mul(z).SumSq()  // trace(xx' pp')
			path.VarCol[i] = x.Mul(z.Transpose()).SumSq()  // trace(x'x p'p)
		} else {
			active := gs.GetActive(l)
			var (
				bx = blockmat.NewBlockMat(x, active)
				bz = blockmat.NewBlockMat(z, active)
				bu = blockmat.NewBlockMat(u, active)
			)
			path.NIter[i] = admm.Solve(prj.ApplyBlocks, sel.ApplyBlocks,
				bx, bz, bu, st, opts.MaxIter, tol)

			// Restore the dense iterates for the next warm start.
			bz.CopyTo(z)
			bu.CopyTo(u)
			bz.CopyTo(p)
			path.L1[i] = bz.SumAbs()
			path.VarRow[i] = bx.DotSq(bz)  // trace(xx' pp')
			path.VarCol[i] = bx.TDotSq(bz) // trace(x'x p'p)
		}
		path.Projection[i] = p
		path.LeverageRow.SetCol(i, p.RowSumSq())
		path.LeverageCol.SetCol(i, p.ColSumSq())

		if opts.Verbose > 1 {
			fmt.Printf("%d", path.NIter[i])
		}
		if opts.Verbose > 2 {
			fmt.Printf("(%g)", st.Penalty)
		}
	}
	if opts.Verbose > 0 {
		fmt.Println()
	}

	if !opts.Dense {
		path.RowPerm, path.ColPerm = gs.Permutation(gs.GetActive(lambda[nsol-1]))
	}
	return path, nil
}

// lambdaGrid returns the descending penalty grid: the explicit one, sorted
// and deduplicated, or a log-linear sequence over the automatic range.
func lambdaGrid(gs *graphseq.BiGraphSeq, opts *Options) ([]float64, error) {
	if len(opts.Lambda) > 0 {
		lambda := make([]float64, len(opts.Lambda))
		copy(lambda, opts.Lambda)
		sort.Sort(sort.Reverse(sort.Float64Slice(lambda)))
		out := lambda[:1]
		for _, l := range lambda[1:] {
			if l != out[len(out)-1] {
				out = append(out, l)
			}
		}
		if out[len(out)-1] < 0. {
			return nil, fmt.Errorf("expected lambda >= 0, have %v", out[len(out)-1])
		}
		return out, nil
	}
	lmin, lmax := gs.LambdaRange(opts.LambdaMin, opts.LambdaMinRatio, opts.MaxNVar)
	if lmax <= 0. {
		return nil, fmt.Errorf("input matrix has no nonzero entries")
	}
	if lmin <= 0. {
		return nil, fmt.Errorf("expected lambdamin > 0 for the automatic grid, have %v", lmin)
	}
	return utils.LogSpace(lmin, lmax, opts.NSol), nil
}
