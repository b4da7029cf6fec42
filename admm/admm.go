// Package admm implements a projection/selection ADMM iteration for
// problems of the form
//
//	max_{x in C} <input, x> - R(x)
//
// where membership in the convex set C is enforced by a projection operator
// and R is a regularizer whose proximal operator is the selection step. The
// solver is generic over the matrix representation, so the same iteration
// runs on a dense matrix or on a block-partitioned one.
package admm

import "math"

// NotConverged is returned in place of an iteration count when maxiter is
// reached before both residuals fall below tolerance. The iterates are left
// at their last computed values and remain usable.
const NotConverged = -1

// Operand is the matrix-like capability the solver iterates over:
// elementwise arithmetic plus a squared Frobenius distance. utils.Matrix and
// blockmat.BlockMat both satisfy it.
type Operand[T any] interface {
	Copy() T
	Assign(T) T
	Add(T) T
	Subtract(T) T
	Scale(float64) T
	AddScaled(T, float64) T
	DistanceSq(T) float64
}

// State carries the penalty parameter across successive solves so that warm
// starts along a regularization path keep their dual scaling. Penalty must
// be positive and Adjust strictly greater than one.
type State struct {
	Penalty float64
	Adjust  float64
}

// Solve runs the ADMM iteration until both the primal residual ||x-z|| and
// the dual residual penalty*||z-z_old|| drop below tolerance, returning the
// iteration count, or NotConverged once maxiter is exhausted. z and u are
// updated in place and may be passed back in as warm starts.
func Solve[T Operand[T]](projection func(T), selection func(T, float64),
	input T, z, u T, st *State, maxiter int, tolerance float64) int {

	var (
		x    = z.Copy()
		zOld = z.Copy()
	)
	for niter := 1; niter <= maxiter; niter++ {
		zOld.Assign(z)

		// Projection
		x.Assign(z).Subtract(u).AddScaled(input, 1./st.Penalty)
		projection(x)

		// Selection
		z.Assign(x).Add(u)
		selection(z, 1./st.Penalty)

		// Dual variable update
		u.Add(x).Subtract(z)

		rr := math.Sqrt(x.DistanceSq(z))
		ss := st.Penalty * math.Sqrt(z.DistanceSq(zOld))
		if rr < tolerance && ss < tolerance {
			return niter
		}

		// Penalty adjustment (Boyd, et al. 2010)
		if rr > 10.*ss {
			st.Penalty *= st.Adjust
			u.Scale(1. / st.Adjust)
		} else if ss > 10.*rr {
			st.Penalty /= st.Adjust
			u.Scale(st.Adjust)
		}
	}
	return NotConverged
}
