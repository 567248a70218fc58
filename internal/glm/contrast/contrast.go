package contrast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
	"glmengine/internal/glm/emmeans"
	"glmengine/internal/glm/lineartest"
	"glmengine/internal/glm/linalg"
)

// Request asks for one contrast factor, e.g. {Factor: "dose", Spec: "polynomial"}
type Request struct {
	Factor string `json:"factor"`
	Spec   string `json:"spec"`
}

// Key identifies the request in reports
func (r Request) Key() string {
	return r.Factor + ": " + r.Spec
}

// Tester evaluates contrast requests against one fit
type Tester struct {
	ev   *lineartest.Evaluator
	emms *emmeans.Calculator
}

// NewTester creates a tester over ev
func NewTester(ev *lineartest.Evaluator) *Tester {
	return &Tester{ev: ev, emms: emmeans.NewCalculator(ev)}
}

// Evaluate builds each contrast row over the factor's marginal means,
// tests it on its own and tests all rows jointly
func (t *Tester) Evaluate(req Request) (glm.ContrastReport, error) {
	spec, err := ParseSpec(req.Spec)
	if err != nil {
		return glm.ContrastReport{}, err
	}
	info := t.ev.Fit().Design
	levels, ok := info.FactorLevels[req.Factor]
	if !ok {
		return glm.ContrastReport{}, errors.NotFound(
			fmt.Errorf("%w: %s", core.ErrUnknownEffect, req.Factor), "contrast")
	}

	report := glm.ContrastReport{
		Spec:   req.Key(),
		Factor: req.Factor,
		Method: spec.String(),
	}
	rows := spec.Matrix(levels)
	if len(rows) == 0 {
		report.Test = glm.ContrastTestResult{
			Contrast: t.ev.Test(req.Factor, 0, nil),
			Error:    t.ev.ErrorTerm(),
		}
		return report, nil
	}

	emmRows := make([][]float64, len(levels))
	for j, lvl := range levels {
		emmRows[j] = t.emms.Row(map[string]string{req.Factor: lvl})
	}

	l := mat.NewDense(len(rows), info.P, nil)
	for i, r := range rows {
		lr := combine(r.Coefficients, emmRows, info.P)
		report.Results = append(report.Results, glm.ContrastResult{
			Label:            r.Label,
			Coefficients:     r.Coefficients,
			ContrastEstimate: t.ev.Contrast(lr, 0),
		})
		if t.ev.Estimable(lr) {
			l.SetRow(i, lr)
		}
	}

	keep := linalg.IndependentRowIndices(l, 1e-12, 1e-9)
	report.Test = glm.ContrastTestResult{
		Contrast: t.ev.Test(req.Factor, 0, linalg.SelectRows(l, keep)),
		Error:    t.ev.ErrorTerm(),
	}
	return report, nil
}

// combine returns Σ_j c[j]·rows[j]
func combine(c []float64, rows [][]float64, p int) []float64 {
	out := make([]float64, p)
	for j, w := range c {
		if w == 0 {
			continue
		}
		for a, v := range rows[j] {
			out[a] += w * v
		}
	}
	return out
}
