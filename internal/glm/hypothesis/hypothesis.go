// Package hypothesis builds the L matrices whose tests Lβ = 0 express the
// four conventional sum-of-squares semantics for a model term.
//
// Every builder returns a k×p matrix with linearly independent rows, or
// nil when the term has no testable hypothesis (k = 0).
package hypothesis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
	"glmengine/internal/glm/linalg"
)

const (
	// rows whose orthogonal remainder falls below this fraction of their
	// own norm are linear combinations of earlier rows
	relTol = 1e-9
	// rows smaller than this fraction of the reference scale are zero
	zeroFrac = 1e-8
)

// Build dispatches to the builder of the requested sum-of-squares type
func Build(ssType glm.SSType, fit *glm.Fit, term string) (*mat.Dense, error) {
	switch ssType {
	case glm.SSTypeI:
		return TypeI(fit, term)
	case glm.SSTypeII:
		return TypeII(fit, term)
	case glm.SSTypeIII:
		return TypeIII(fit, term)
	case glm.SSTypeIV:
		return TypeIV(fit, term)
	}
	return nil, errors.InvalidInput(core.ErrUnknownSSType, fmt.Sprintf("sum of squares %s", ssType))
}

// lookup resolves term against the fitted model
func lookup(fit *glm.Fit, term string) (glm.Term, glm.ColumnRange, error) {
	t, err := fit.Design.Term(term)
	if err != nil {
		return glm.Term{}, glm.ColumnRange{}, errors.NotFound(err, "hypothesis matrix")
	}
	r, err := fit.Design.ColumnsOf(term)
	if err != nil {
		return glm.Term{}, glm.ColumnRange{}, errors.NotFound(err, "hypothesis matrix")
	}
	return t, r, nil
}

// estimableBasis projects raw onto the estimable space (L·H) and keeps an
// independent set of non-zero rows. fit.H comes from a canonical-order
// sweep, so the projection does not depend on term declaration order.
func estimableBasis(fit *glm.Fit, raw *mat.Dense) *mat.Dense {
	if raw == nil {
		return nil
	}
	scale := maxRowNorm(raw)
	if scale == 0 {
		return nil
	}
	var lh mat.Dense
	lh.Mul(raw, fit.H)
	keep := linalg.IndependentRowIndices(&lh, zeroFrac*scale, relTol)
	return linalg.SelectRows(&lh, keep)
}

func maxRowNorm(m *mat.Dense) float64 {
	r, _ := m.Dims()
	best := 0.0
	for i := 0; i < r; i++ {
		if n := floats.Norm(m.RawRowView(i), 2); n > best {
			best = n
		}
	}
	return best
}

// termColumns returns the column indices of every term selected by keep
func termColumns(info *glm.DesignMatrixInfo, keep func(glm.Term) bool) []int {
	var cols []int
	for _, t := range info.Terms.Terms() {
		if !keep(t) {
			continue
		}
		r := info.TermColumns[t.Name]
		cols = append(cols, linalg.Span(r.Start, r.End)...)
	}
	return cols
}

// columnScale returns 1/√diag(X'WX), zero for empty columns
func columnScale(xtwx mat.Matrix) []float64 {
	p, _ := xtwx.Dims()
	s := make([]float64, p)
	for j := 0; j < p; j++ {
		if d := xtwx.At(j, j); d > 0 {
			s[j] = 1 / math.Sqrt(d)
		}
	}
	return s
}
