// Package simplex implements exact Euclidean projection onto the capped
// simplex {z : 0 <= z <= 1, sum(z) = d} by breakpoint search.
package simplex

import "sort"

// Sum evaluates f(theta) = sum_i clip(x_i - theta, 0, 1). f is continuous,
// piecewise linear and non-increasing in theta, with breakpoints at
// {x_i, x_i - 1}.
func Sum(x []float64, theta float64) (y float64) {
	for _, v := range x {
		z := v - theta
		if z > 1. {
			y += 1.
		} else if z > 0. {
			y += z
		}
	}
	return
}

// Project projects x in place onto the capped simplex with target sum d and
// returns the support size (number of entries left strictly positive).
// When interior is true and the unshifted sum already satisfies f(0) <= d,
// the sum constraint is not binding and x is only clipped to [0,1]; this is
// the projection onto the interior-capped set {0 <= z <= 1, sum(z) <= d}.
// Callers must supply 0 < d < len(x).
func Project(x []float64, d float64, interior bool) (rank int) {
	if interior && Sum(x, 0.) <= d {
		return clip(x, 0.)
	}

	// Knots, sorted ascending and deduplicated. Ties must be removed so that
	// every bracketing interval has nonzero width.
	knots := make([]float64, 0, 2*len(x))
	for _, v := range x {
		knots = append(knots, v-1., v)
	}
	sort.Float64s(knots)
	knots = dedup(knots)

	// f is non-increasing, so the leftmost knot with f(t) < d is the right
	// endpoint of the interval bracketing the solution of f(theta) = d.
	i := sort.Search(len(knots), func(i int) bool {
		return Sum(x, knots[i]) < d
	})

	// Interpolate. f is affine on [a,b] and fa != fb at a genuine bracket.
	var (
		a, b   = knots[i-1], knots[i]
		fa, fb = Sum(x, a), Sum(x, b)
		theta  = a + (b-a)*(d-fa)/(fb-fa)
	)
	return clip(x, theta)
}

func clip(x []float64, theta float64) (rank int) {
	for i, v := range x {
		v -= theta
		if v > 1. {
			v = 1.
		} else if v <= 0. {
			x[i] = 0.
			continue
		}
		x[i] = v
		rank++
	}
	return
}

func dedup(sorted []float64) []float64 {
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
