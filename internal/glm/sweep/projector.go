package sweep

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
	"glmengine/internal/glm/linalg"
)

// CanonicalOrder lists the design columns term by term with lower-order
// terms first. Terms of equal order are ranked by their sorted component
// names, so two designs that differ only in declaration order share it.
func CanonicalOrder(info *glm.DesignMatrixInfo) []int {
	if info.Terms == nil {
		return linalg.Span(0, info.P)
	}
	terms := append([]glm.Term(nil), info.Terms.Terms()...)
	sort.SliceStable(terms, func(i, j int) bool {
		oi, oj := len(terms[i].Components()), len(terms[j].Components())
		if oi != oj {
			return oi < oj
		}
		return canonicalName(terms[i]) < canonicalName(terms[j])
	})
	order := make([]int, 0, info.P)
	for _, t := range terms {
		r := info.TermColumns[t.Name]
		order = append(order, linalg.Span(r.Start, r.End)...)
	}
	if len(order) != info.P {
		return linalg.Span(0, info.P)
	}
	return order
}

func canonicalName(t glm.Term) string {
	c := t.Components()
	sort.Strings(c)
	return strings.Join(c, "*")
}

// projector returns H = G⁻·X'WX where G⁻ comes from sweeping the augmented
// matrix m in the given column order. Redundant columns are then always
// found in the highest-order terms.
func projector(m *mat.Dense, xtwx *mat.Dense, order []int, tol float64) *mat.Dense {
	p := len(order)
	perm := append(append(make([]int, 0, p+1), order...), p)
	pm := mat.NewDense(p+1, p+1, nil)
	for i, a := range perm {
		for j, b := range perm {
			pm.Set(i, j, m.At(a, b))
		}
	}
	swept := Solve(pm, p, tol)

	g := mat.NewDense(p, p, nil)
	for i, a := range order {
		for j, b := range order {
			g.Set(a, b, swept.G.At(i, j))
		}
	}
	var h mat.Dense
	h.Mul(g, xtwx)
	return &h
}
