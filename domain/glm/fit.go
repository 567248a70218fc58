package glm

import (
	"gonum.org/v1/gonum/mat"
)

// SweptResult is the outcome of sweeping the cross-product matrix.
// It is immutable after construction and shared read-only by all
// hypothesis evaluations.
type SweptResult struct {
	Beta *mat.VecDense // one generalized least-squares solution
	G    *mat.Dense    // generalized inverse of X'WX
	SSE  float64       // residual sum of squares, NaN if not computable
	Rank int           // number of pivots actually swept
	// Aliased[k] is true when pivot k was redundant and left un-swept
	Aliased []bool
}

// Fit bundles a design with its solution and the error term
type Fit struct {
	Design *DesignMatrixInfo
	XtWX   *mat.Dense // p×p cross-product block
	Swept  *SweptResult
	// H = G⁻·X'WX for the G⁻ of a sweep in canonical term order; a row
	// vector l is estimable iff l·H == l
	H         *mat.Dense
	DFError   int
	MSE       float64
	Tolerance float64
	// TotalSS is y'Wy; CorrectedTotalSS is centred at the weighted mean
	TotalSS          float64
	CorrectedTotalSS float64
	WeightedMean     float64
}

// P returns the number of model parameters
func (f *Fit) P() int {
	return f.Design.P
}
