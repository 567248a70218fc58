package sweep

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
)

// Fit chains the cross-product builder and the solver, and derives the
// error term and the estimability projector H. H comes from a second sweep
// in canonical term order, so it does not depend on how terms were
// declared; β̂ and G⁻ keep the declaration order.
func Fit(info *glm.DesignMatrixInfo, tol float64) (*glm.Fit, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	m, err := CrossProduct(info)
	if err != nil {
		return nil, err
	}
	p := info.P
	swept := Solve(m, p, tol)

	xtwx := mat.DenseCopyOf(m.Slice(0, p, 0, p))
	h := projector(m, xtwx, CanonicalOrder(info), tol)

	fit := &glm.Fit{
		Design:    info,
		XtWX:      xtwx,
		Swept:     swept,
		H:         h,
		Tolerance: tol,
		TotalSS:   m.At(p, p),
	}

	fit.DFError = info.PositiveWeightCount() - swept.Rank
	if fit.DFError > 0 && !math.IsNaN(swept.SSE) {
		fit.MSE = swept.SSE / float64(fit.DFError)
	} else {
		fit.MSE = math.NaN()
	}

	var sw, swy float64
	for i := 0; i < info.N; i++ {
		w := info.Weight(i)
		sw += w
		swy += w * info.Y.AtVec(i)
	}
	if sw > 0 {
		fit.WeightedMean = swy / sw
		var ss float64
		for i := 0; i < info.N; i++ {
			d := info.Y.AtVec(i) - fit.WeightedMean
			ss += info.Weight(i) * d * d
		}
		fit.CorrectedTotalSS = ss
	} else {
		fit.WeightedMean = math.NaN()
		fit.CorrectedTotalSS = math.NaN()
	}
	return fit, nil
}
