package hypothesis

import (
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
	"glmengine/internal/glm/linalg"
	"glmengine/internal/glm/sweep"
)

// TypeI builds the sequential hypothesis of term: X'WX is swept on the
// columns of every preceding term, the swept rows and columns and the rows
// of every following term are zeroed, and the term's remaining rows are
// reduced to an independent basis. The result depends on term order.
func TypeI(fit *glm.Fit, term string) (*mat.Dense, error) {
	_, rng, err := lookup(fit, term)
	if err != nil {
		return nil, err
	}
	if rng.Len() == 0 {
		return nil, nil
	}
	info := fit.Design
	idx := info.Terms.Index(term)

	var preceding []int
	for _, name := range info.TermOrder[:idx] {
		r := info.TermColumns[name]
		preceding = append(preceding, linalg.Span(r.Start, r.End)...)
	}

	l0 := mat.DenseCopyOf(fit.XtWX)
	sweep.Pivots(l0, preceding, fit.Tolerance)
	p, _ := l0.Dims()
	for _, k := range preceding {
		for j := 0; j < p; j++ {
			l0.Set(k, j, 0)
			l0.Set(j, k, 0)
		}
	}
	for _, name := range info.TermOrder[idx+1:] {
		r := info.TermColumns[name]
		for i := r.Start; i < r.End; i++ {
			for j := 0; j < p; j++ {
				l0.Set(i, j, 0)
			}
		}
	}

	rows := linalg.Span(rng.Start, rng.End)
	candidate := linalg.SelectRows(l0, rows)

	// Test independence on the correlation scale so the zero threshold
	// does not depend on the units of the columns.
	s := columnScale(fit.XtWX)
	scaled := mat.NewDense(len(rows), p, nil)
	for a, i := range rows {
		for j := 0; j < p; j++ {
			scaled.Set(a, j, candidate.At(a, j)*s[i]*s[j])
		}
	}
	keep := linalg.IndependentRowIndices(scaled, zeroFrac, relTol)
	return linalg.SelectRows(candidate, keep), nil
}
