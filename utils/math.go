package utils

import "math"

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// LogSpace generates N values spaced log-linearly from max down to min.
// min and max must be positive.
func LogSpace(min, max float64, N int) (v []float64) {
	v = make([]float64, N)
	if N == 1 {
		v[0] = max
		return
	}
	var (
		lmax = math.Log(max)
		lmin = math.Log(min)
		step = (lmin - lmax) / float64(N-1)
	)
	for i := range v {
		v[i] = math.Exp(lmax + float64(i)*step)
	}
	v[0] = max
	v[N-1] = min
	return
}
