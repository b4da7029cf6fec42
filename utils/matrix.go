package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) Data() []float64           { return m.M.RawMatrix().Data }
func (m Matrix) IsEmpty() bool             { return m.M == nil }

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *Matrix) SetWritable() Matrix {
	m.readOnly = false
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		data   = m.M.RawMatrix().Data
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, data)
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.M.RawMatrix().Data
	)
	R = NewMatrix(nc, nr)
	dataR := R.M.RawMatrix().Data
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			dataR[j*nr+i] = data[i*nc+j]
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, _ = m.M.Dims()
		_, ncA = A.M.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return R
}

// SubMatrix gathers the dense submatrix addressed by the cross product of the
// row and column index sets. Does not change receiver.
func (m Matrix) SubMatrix(RI, CI Index) (R Matrix) {
	var (
		nr, nc = m.Dims()
		data   = m.RawMatrix().Data
	)
	R = NewMatrix(len(RI), len(CI))
	dataR := R.RawMatrix().Data
	for ii, i := range RI {
		if i < 0 || i > nr-1 {
			panic(fmt.Errorf("row index out of bounds: index = %d, max_bounds = %d", i, nr-1))
		}
		for jj, j := range CI {
			if j < 0 || j > nc-1 {
				panic(fmt.Errorf("column index out of bounds: index = %d, max_bounds = %d", j, nc-1))
			}
			dataR[ii*len(CI)+jj] = data[i*nc+j]
		}
	}
	return
}

// SetSubMatrix scatters A into the entries addressed by the row and column
// index sets, leaving all other entries untouched.
func (m Matrix) SetSubMatrix(RI, CI Index, A Matrix) Matrix { // Changes receiver
	var (
		_, nc  = m.Dims()
		data   = m.RawMatrix().Data
		dataA  = A.RawMatrix().Data
		ra, ca = A.Dims()
	)
	m.checkWritable()
	if ra != len(RI) || ca != len(CI) {
		err := fmt.Errorf("submatrix shape mismatch: have %v,%v, index sets %v,%v", ra, ca, len(RI), len(CI))
		panic(err)
	}
	for ii, i := range RI {
		for jj, j := range CI {
			data[i*nc+j] = dataA[ii*ca+jj]
		}
	}
	return m
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) SetCol(j int, data []float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.SetCol(j, data)
	return m
}

// Assign overwrites the receiver elementwise with the values of A.
func (m Matrix) Assign(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	m.checkWritable()
	copy(dataM, dataA)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	m.checkWritable()
	for i, val := range dataA {
		dataM[i] += val
	}
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	m.checkWritable()
	for i, val := range dataA {
		dataM[i] -= val
	}
	return m
}

// AddScaled adds a*A to the receiver elementwise.
func (m Matrix) AddScaled(A Matrix, a float64) Matrix { // Changes receiver
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	m.checkWritable()
	for i, val := range dataA {
		dataM[i] += a * val
	}
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	var (
		data = m.M.RawMatrix().Data
	)
	m.checkWritable()
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	var (
		data = m.M.RawMatrix().Data
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

// Non chainable methods

// SumAbs is the entrywise L1 norm.
func (m Matrix) SumAbs() (s float64) {
	for _, val := range m.RawMatrix().Data {
		s += math.Abs(val)
	}
	return
}

// SumSq is the squared Frobenius norm.
func (m Matrix) SumSq() (s float64) {
	for _, val := range m.RawMatrix().Data {
		s += val * val
	}
	return
}

// MaxAbs is the entrywise infinity norm.
func (m Matrix) MaxAbs() (s float64) {
	for _, val := range m.RawMatrix().Data {
		if a := math.Abs(val); a > s {
			s = a
		}
	}
	return
}

// DistanceSq is the squared Frobenius distance to A.
func (m Matrix) DistanceSq(A Matrix) (s float64) {
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	for i, val := range dataM {
		d := val - dataA[i]
		s += d * d
	}
	return
}

// RowSumSq returns the per-row sums of squared entries.
func (m Matrix) RowSumSq() (s []float64) {
	var (
		nr, nc = m.Dims()
		data   = m.RawMatrix().Data
	)
	s = make([]float64, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			val := data[i*nc+j]
			s[i] += val * val
		}
	}
	return
}

// ColSumSq returns the per-column sums of squared entries.
func (m Matrix) ColSumSq() (s []float64) {
	var (
		nr, nc = m.Dims()
		data   = m.RawMatrix().Data
	)
	s = make([]float64, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			val := data[i*nc+j]
			s[j] += val * val
		}
	}
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
