// Package linalg holds the dense-matrix helpers shared by the GLM solver
// and hypothesis builders.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultPinvTolerance is the relative singular-value cutoff of PseudoInverse
const DefaultPinvTolerance = 1e-10

// PseudoInverse returns the Moore–Penrose inverse of a, dropping singular
// values below DefaultPinvTolerance times the largest one.
func PseudoInverse(a mat.Matrix) *mat.Dense {
	return PseudoInverseTol(a, DefaultPinvTolerance)
}

// PseudoInverseTol is PseudoInverse with an explicit relative cutoff
func PseudoInverseTol(a mat.Matrix, rtol float64) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(c, r, nil)
	if r == 0 || c == 0 || MaxAbs(a) == 0 {
		return out
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return out
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	cut := rtol * sigma[0]
	k := len(sigma)
	sInv := mat.NewDense(k, k, nil)
	for i, s := range sigma {
		if s > cut {
			sInv.Set(i, i, 1/s)
		}
	}
	// A⁺ = V Σ⁺ Uᵀ
	var tmp mat.Dense
	tmp.Mul(&v, sInv)
	out.Mul(&tmp, u.T())
	return out
}

// Rank counts singular values above rtol times the largest one
func Rank(a mat.Matrix, rtol float64) int {
	r, c := a.Dims()
	if r == 0 || c == 0 || MaxAbs(a) == 0 {
		return 0
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0
	}
	sigma := svd.Values(nil)
	cut := rtol * sigma[0]
	n := 0
	for _, s := range sigma {
		if s > cut {
			n++
		}
	}
	return n
}

// MaxAbs returns the largest absolute entry of a
func MaxAbs(a mat.Matrix) float64 {
	r, c := a.Dims()
	m := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := math.Abs(a.At(i, j)); v > m {
				m = v
			}
		}
	}
	return m
}

// IsZero reports whether every entry of a is within tol of zero
func IsZero(a mat.Matrix, tol float64) bool {
	return MaxAbs(a) <= tol
}

// IndependentRowIndices walks the rows of m in order and returns the
// indices of those that enlarge the span of the rows kept so far. Rows
// whose norm is at most zeroTol are treated as zero; a row is dependent
// when its component orthogonal to the kept rows is at most relTol times
// its own norm.
func IndependentRowIndices(m mat.Matrix, zeroTol, relTol float64) []int {
	r, c := m.Dims()
	var basis [][]float64
	var keep []int
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, m)
		norm := floats.Norm(row, 2)
		if norm <= zeroTol || math.IsNaN(norm) {
			continue
		}
		v := make([]float64, c)
		copy(v, row)
		// two passes of modified Gram–Schmidt
		for pass := 0; pass < 2; pass++ {
			for _, q := range basis {
				floats.AddScaled(v, -floats.Dot(v, q), q)
			}
		}
		resid := floats.Norm(v, 2)
		if resid <= relTol*norm || resid <= zeroTol {
			continue
		}
		floats.Scale(1/resid, v)
		basis = append(basis, v)
		keep = append(keep, i)
	}
	return keep
}

// SelectRows copies the listed rows of m; nil when rows is empty
func SelectRows(m mat.Matrix, rows []int) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for k, i := range rows {
		out.SetRow(k, mat.Row(nil, i, m))
	}
	return out
}

// Block copies the sub-matrix of m at the given row and column indices
func Block(m mat.Matrix, rows, cols []int) *mat.Dense {
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), len(cols), nil)
	for a, i := range rows {
		for b, j := range cols {
			out.Set(a, b, m.At(i, j))
		}
	}
	return out
}

// Span returns the integers [start, end)
func Span(start, end int) []int {
	if end <= start {
		return nil
	}
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// Quadratic returns x' A x
func Quadratic(x mat.Vector, a mat.Matrix) float64 {
	var ax mat.VecDense
	ax.MulVec(a, x)
	return mat.Dot(x, &ax)
}
