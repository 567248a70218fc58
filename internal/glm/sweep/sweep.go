// Package sweep implements the cross-product builder and the SWEEP
// operator that turns it into a generalized least-squares solution.
package sweep

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
)

// DefaultTolerance is the relative pivot threshold used when none is configured
const DefaultTolerance = 1e-10

// Pivots sweeps m in place on each listed pivot, in order, and reports
// which pivots were swept. A pivot whose current diagonal is not above
// tol times its diagonal before any sweep is redundant: it is skipped
// and the matrix is left untouched for it.
//
// Sweeping pivot k with d = m[k,k]:
//
//	m[i,j] -= m[i,k]*m[k,j]/d   for i,j != k
//	m[i,k] /= d, m[k,j] /= d    for i,j != k
//	m[k,k]  = -1/d
func Pivots(m *mat.Dense, pivots []int, tol float64) []bool {
	n, _ := m.Dims()
	orig := make([]float64, n)
	for i := 0; i < n; i++ {
		orig[i] = m.At(i, i)
	}
	swept := make([]bool, len(pivots))
	for idx, k := range pivots {
		d := m.At(k, k)
		if orig[k] <= 0 || !(d > tol*orig[k]) {
			continue
		}
		sweepOne(m, k, d)
		swept[idx] = true
	}
	return swept
}

func sweepOne(m *mat.Dense, k int, d float64) {
	n, _ := m.Dims()
	colK := mat.Col(nil, k, m)
	rowK := mat.Row(nil, k, m)
	for i := 0; i < n; i++ {
		if i == k || colK[i] == 0 {
			continue
		}
		f := colK[i] / d
		for j := 0; j < n; j++ {
			if j == k {
				continue
			}
			m.Set(i, j, m.At(i, j)-f*rowK[j])
		}
	}
	for i := 0; i < n; i++ {
		if i == k {
			continue
		}
		m.Set(i, k, colK[i]/d)
		m.Set(k, i, rowK[i]/d)
	}
	m.Set(k, k, -1/d)
}

// Solve sweeps pivots 0..p-1 of a copy of m, a (p+1)×(p+1) augmented
// cross-product matrix, and reads off β̂ = M[0:p,p], G⁻ = -M[0:p,0:p] and
// SSE = M[p,p]. Rows and columns of aliased pivots are zeroed in G⁻ and
// β̂, which selects the generalized inverse that sets redundant
// parameters to zero. Solve never fails.
func Solve(m mat.Matrix, p int, tol float64) *glm.SweptResult {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	work := mat.DenseCopyOf(m)
	pivots := make([]int, p)
	for k := range pivots {
		pivots[k] = k
	}
	swept := Pivots(work, pivots, tol)

	res := &glm.SweptResult{
		Beta:    mat.NewVecDense(p, nil),
		G:       mat.NewDense(p, p, nil),
		Aliased: make([]bool, p),
	}
	for k := 0; k < p; k++ {
		if !swept[k] {
			res.Aliased[k] = true
			continue
		}
		res.Rank++
	}
	for i := 0; i < p; i++ {
		if res.Aliased[i] {
			continue
		}
		res.Beta.SetVec(i, work.At(i, p))
		for j := 0; j < p; j++ {
			if res.Aliased[j] {
				continue
			}
			res.G.Set(i, j, -work.At(i, j))
		}
	}

	sse := work.At(p, p)
	switch {
	case math.IsNaN(sse) || math.IsInf(sse, 0):
		sse = math.NaN()
	case sse < 0:
		// rounding residue of an exact fit
		sse = 0
	}
	res.SSE = sse
	return res
}
