// Package lineartest evaluates general linear hypotheses Lβ = 0 against
// a fitted model: sums of squares, F tests, effect sizes and power, and
// single-row contrasts with t tests and confidence intervals.
package lineartest

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
	"glmengine/internal/glm/linalg"
	"glmengine/ports"
)

const (
	// estimability: ‖l·H − l‖ relative to ‖l‖
	estimableTol = 1e-8
	// quantities below this fraction of their natural scale count as zero
	zeroFrac = 1e-12
)

// Evaluator tests hypotheses on one immutable fit. It is safe for
// concurrent use.
type Evaluator struct {
	fit        *glm.Fit
	dist       ports.Distributions
	alpha      float64
	powerAlpha float64
}

// NewEvaluator creates an evaluator. alpha sets interval coverage
// (1 − alpha) and powerAlpha the level at which observed power is computed.
func NewEvaluator(fit *glm.Fit, dist ports.Distributions, alpha, powerAlpha float64) *Evaluator {
	return &Evaluator{fit: fit, dist: dist, alpha: alpha, powerAlpha: powerAlpha}
}

// Fit returns the fitted model the evaluator reads from
func (e *Evaluator) Fit() *glm.Fit { return e.fit }

// Distributions returns the distribution lookup used for p-values and power
func (e *Evaluator) Distributions() ports.Distributions { return e.dist }

// Alpha returns the level that sets confidence interval coverage
func (e *Evaluator) Alpha() float64 { return e.alpha }

// PowerAlpha returns the level at which observed power is computed
func (e *Evaluator) PowerAlpha() float64 { return e.powerAlpha }

// ErrorTerm returns the residual row of the fit
func (e *Evaluator) ErrorTerm() glm.ErrorTerm {
	return glm.ErrorTerm{
		SumOfSquares: e.fit.Swept.SSE,
		DF:           e.fit.DFError,
		MeanSquare:   e.fit.MSE,
	}
}

// Estimate returns Lβ̂ and its covariance MSE·L G⁻ L'
func (e *Evaluator) Estimate(l *mat.Dense) (*mat.VecDense, *mat.Dense) {
	var lb mat.VecDense
	lb.MulVec(l, e.fit.Swept.Beta)
	lgl := e.lgl(l)
	lgl.Scale(e.fit.MSE, lgl)
	return &lb, lgl
}

// Estimable reports whether row·H reproduces row
func (e *Evaluator) Estimable(row []float64) bool {
	norm := floats.Norm(row, 2)
	if norm == 0 {
		return true
	}
	v := mat.NewVecDense(len(row), row)
	var lh mat.VecDense
	lh.MulVec(e.fit.H.T(), v)
	lh.SubVec(&lh, v)
	return mat.Norm(&lh, 2) <= estimableTol*norm
}

// Contrast evaluates the single-row hypothesis row·β = hypothesized.
// A non-estimable row yields NaN throughout.
func (e *Evaluator) Contrast(row []float64, hypothesized float64) glm.ContrastEstimate {
	df := e.fit.DFError
	out := glm.ContrastEstimate{DF: df}
	if !e.Estimable(row) {
		nan := math.NaN()
		out.Estimate, out.StdError, out.T, out.Significance = nan, nan, nan, nan
		out.LowerBound, out.UpperBound = nan, nan
		return out
	}
	v := mat.NewVecDense(len(row), row)
	est := mat.Dot(v, e.fit.Swept.Beta)
	variance := linalg.Quadratic(v, e.fit.Swept.G) * e.fit.MSE
	if variance < 0 {
		variance = 0
	}
	se := math.Sqrt(variance)

	out.Estimate = est
	out.StdError = se
	diff := est - hypothesized
	switch {
	case math.IsNaN(se):
		out.T = math.NaN()
	case se == 0 && diff == 0:
		out.T = math.NaN()
	case se == 0:
		out.T = math.Copysign(math.Inf(1), diff)
	default:
		out.T = diff / se
	}
	out.Significance = e.dist.TSignificance(math.Abs(out.T), float64(df))
	crit := e.dist.TCritical(e.alpha, float64(df))
	out.LowerBound = est - crit*se
	out.UpperBound = est + crit*se
	return out
}

// Test evaluates the omnibus hypothesis Lβ = 0. A nil L has no degrees of
// freedom and reports zero sum of squares.
func (e *Evaluator) Test(source string, ssType glm.SSType, l *mat.Dense) glm.HypothesisTestResult {
	res := glm.HypothesisTestResult{
		Source:  source,
		SSType:  ssType,
		ErrorDF: e.fit.DFError,
	}
	if l == nil {
		nan := math.NaN()
		res.MeanSquare, res.F, res.Significance = nan, nan, nan
		res.PartialEtaSquared, res.Noncentrality, res.ObservedPower = nan, nan, nan
		return res
	}
	k, _ := l.Dims()
	res.DF = k
	res.SumOfSquares = e.sumOfSquares(l)
	e.complete(&res)
	return res
}

// TestSS fills the derived columns of a row whose sum of squares and
// degrees of freedom are already known, e.g. the corrected model
func (e *Evaluator) TestSS(source string, ssType glm.SSType, ss float64, df int) glm.HypothesisTestResult {
	res := glm.HypothesisTestResult{
		Source:       source,
		SSType:       ssType,
		SumOfSquares: ss,
		DF:           df,
		ErrorDF:      e.fit.DFError,
	}
	if df <= 0 {
		nan := math.NaN()
		res.MeanSquare, res.F, res.Significance = nan, nan, nan
		res.PartialEtaSquared, res.Noncentrality, res.ObservedPower = nan, nan, nan
		return res
	}
	e.complete(&res)
	return res
}

// sumOfSquares computes (Lβ)'(LG⁻L')⁻¹(Lβ) with the degenerate cases:
// a regular inverse when possible, the pseudo-inverse when LG⁻L' is
// singular but non-zero, 0 when both LG⁻L' and Lβ vanish and NaN when
// only LG⁻L' does.
func (e *Evaluator) sumOfSquares(l *mat.Dense) float64 {
	beta := e.fit.Swept.Beta
	var lb mat.VecDense
	lb.MulVec(l, beta)
	lgl := e.lgl(l)

	lNorm := mat.Norm(l, math.Inf(1))
	lglScale := lNorm * lNorm * linalg.MaxAbs(e.fit.Swept.G)
	lglZero := linalg.MaxAbs(lgl) <= zeroFrac*lglScale
	lbZero := mat.Norm(&lb, math.Inf(1)) <= zeroFrac*lNorm*mat.Norm(beta, math.Inf(1))
	switch {
	case lglZero && lbZero:
		return 0
	case lglZero:
		return math.NaN()
	}

	var inv mat.Dense
	if err := inv.Inverse(lgl); err != nil {
		inv.CloneFrom(linalg.PseudoInverse(lgl))
	}
	ss := linalg.Quadratic(&lb, &inv)
	if ss < 0 {
		ss = 0
	}
	return ss
}

func (e *Evaluator) lgl(l *mat.Dense) *mat.Dense {
	var lg, lgl mat.Dense
	lg.Mul(l, e.fit.Swept.G)
	lgl.Mul(&lg, l.T())
	return &lgl
}

// complete derives mean square, F, significance, effect size and power
func (e *Evaluator) complete(res *glm.HypothesisTestResult) {
	k := float64(res.DF)
	dfE := float64(e.fit.DFError)
	sse := e.fit.Swept.SSE
	mse := e.fit.MSE

	res.MeanSquare = res.SumOfSquares / k

	scale := e.fit.CorrectedTotalSS / math.Max(1, float64(e.fit.Design.N))
	mseZero := mse == 0 || math.Abs(mse) <= zeroFrac*scale
	mshZero := res.MeanSquare == 0 || math.Abs(res.MeanSquare) <= zeroFrac*scale
	switch {
	case math.IsNaN(mse) || math.IsNaN(res.MeanSquare):
		res.F = math.NaN()
	case mseZero && mshZero:
		res.F = math.NaN()
	case mseZero:
		res.F = math.Inf(1)
	default:
		res.F = res.MeanSquare / mse
	}
	res.Significance = e.dist.FSignificance(k, dfE, res.F)

	if denom := res.SumOfSquares + sse; denom > 0 {
		res.PartialEtaSquared = res.SumOfSquares / denom
	} else {
		res.PartialEtaSquared = math.NaN()
	}
	res.Noncentrality = res.F * k
	res.ObservedPower = e.dist.ObservedPowerF(k, dfE, res.Noncentrality, e.powerAlpha)
}
