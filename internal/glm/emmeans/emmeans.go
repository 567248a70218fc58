// Package emmeans computes estimated marginal means: model-implied means
// of factor-level combinations that average uniformly over unspecified
// factors and hold covariates at their means. Pairwise comparisons and
// univariate tests reuse the same L rows.
package emmeans

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
	"glmengine/internal/glm/lineartest"
	"glmengine/internal/glm/linalg"
	"glmengine/ports"
)

// Overall requests the grand marginal mean
const Overall = "OVERALL"

// Request is one EMMeans specification
type Request struct {
	// Effect is a factor or factor interaction such as "A*B", or Overall
	Effect string `json:"effect"`
	// Compare names a factor of Effect whose levels are compared pairwise
	// within every combination of the remaining factors
	Compare string           `json:"compare,omitempty"`
	Adjust  glm.AdjustMethod `json:"adjust,omitempty"`
}

// Calculator evaluates EMMeans requests against one fit
type Calculator struct {
	ev *lineartest.Evaluator
}

// NewCalculator creates a calculator over ev
func NewCalculator(ev *lineartest.Evaluator) *Calculator {
	return &Calculator{ev: ev}
}

// Factors resolves the factors of an effect specification
func (c *Calculator) Factors(effect string) ([]string, error) {
	effect = strings.TrimSpace(effect)
	if effect == "" || strings.EqualFold(effect, Overall) || effect == glm.InterceptTerm {
		return nil, nil
	}
	info := c.ev.Fit().Design
	var factors []string
	for _, part := range strings.Split(effect, "*") {
		f := strings.TrimSpace(part)
		if _, ok := info.FactorLevels[f]; !ok {
			return nil, errors.NotFound(fmt.Errorf("%w: %s", core.ErrUnknownEffect, effect), "emmeans")
		}
		for _, seen := range factors {
			if seen == f {
				return nil, errors.InvalidInput(core.ErrInvalidModel, "factor repeated in effect "+effect)
			}
		}
		factors = append(factors, f)
	}
	return factors, nil
}

// Row builds the L row of the marginal mean at levels. Factors missing
// from levels are averaged over with weight 1/levels; covariates are
// held at their means.
func (c *Calculator) Row(levels map[string]string) []float64 {
	info := c.ev.Fit().Design
	row := make([]float64, info.P)
	for j, col := range info.Columns {
		coef := 1.0
		for _, p := range col.Params {
			if p.IsCovariate {
				coef *= info.CovariateMeans[p.Name]
				continue
			}
			if want, ok := levels[p.Name]; ok {
				if p.Level != want {
					coef = 0
					break
				}
				continue
			}
			coef /= float64(info.NumLevels(p.Name))
		}
		row[j] = coef
	}
	return row
}

// Estimate evaluates the marginal mean at levels. Non-estimable
// combinations, such as empty cells, get NaN mean and standard error.
func (c *Calculator) Estimate(levels map[string]string) glm.EMMeansEstimate {
	row := c.Row(levels)
	est := glm.EMMeansEstimate{Levels: levels}
	if !c.ev.Estimable(row) {
		nan := math.NaN()
		est.Mean, est.StdError, est.LowerBound, est.UpperBound = nan, nan, nan, nan
		return est
	}
	ce := c.ev.Contrast(row, 0)
	est.Estimable = true
	est.Mean = ce.Estimate
	est.StdError = ce.StdError
	est.LowerBound = ce.LowerBound
	est.UpperBound = ce.UpperBound
	return est
}

// Estimates evaluates every level combination of factors, last factor fastest
func (c *Calculator) Estimates(factors []string) []glm.EMMeansEstimate {
	combos := c.combinations(factors)
	out := make([]glm.EMMeansEstimate, len(combos))
	for i, levels := range combos {
		out[i] = c.Estimate(levels)
	}
	return out
}

// Compute runs a full request: estimates, optional pairwise comparisons
// and univariate tests of the compared factor
func (c *Calculator) Compute(req Request) (glm.EMMeansReport, error) {
	factors, err := c.Factors(req.Effect)
	if err != nil {
		return glm.EMMeansReport{}, err
	}
	report := glm.EMMeansReport{
		Effect:    effectName(factors),
		Estimates: c.Estimates(factors),
	}
	if req.Compare == "" {
		return report, nil
	}
	if !contains(factors, req.Compare) {
		return glm.EMMeansReport{}, errors.InvalidInput(
			fmt.Errorf("%w: %s not in %s", core.ErrUnknownEffect, req.Compare, report.Effect), "emmeans compare")
	}
	provider, err := NewProvider(req.Adjust, c.ev.Distributions())
	if err != nil {
		return glm.EMMeansReport{}, err
	}

	others := without(factors, req.Compare)
	for _, given := range c.combinations(others) {
		report.Pairwise = append(report.Pairwise, c.Pairwise(req.Compare, given, provider)...)
		report.UnivariateTests = append(report.UnivariateTests, c.UnivariateTest(req.Compare, given))
	}
	return report, nil
}

// Pairwise compares every pair i < j of the levels of factor with the
// other factors fixed at given
func (c *Calculator) Pairwise(factor string, given map[string]string, provider ports.CriticalValueProvider) []glm.PairwiseComparison {
	info := c.ev.Fit().Design
	levels := info.FactorLevels[factor]
	k := len(levels)
	m := k * (k - 1) / 2
	df := float64(c.ev.Fit().DFError)
	crit := provider.CriticalValue(c.ev.Alpha(), df, m)

	rows := make([][]float64, k)
	estimable := make([]bool, k)
	for i, lvl := range levels {
		rows[i] = c.Row(with(given, factor, lvl))
		estimable[i] = c.ev.Estimable(rows[i])
	}

	out := make([]glm.PairwiseComparison, 0, m)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			pc := glm.PairwiseComparison{
				Factor:      factor,
				LevelI:      levels[i],
				LevelJ:      levels[j],
				Given:       given,
				Adjustment:  glm.AdjustMethod(provider.Name()),
				Comparisons: m,
			}
			if !estimable[i] || !estimable[j] {
				nan := math.NaN()
				pc.Difference, pc.StdError, pc.Significance, pc.RawSignificance = nan, nan, nan, nan
				pc.LowerBound, pc.UpperBound = nan, nan
				out = append(out, pc)
				continue
			}
			diff := make([]float64, len(rows[i]))
			for a := range diff {
				diff[a] = rows[i][a] - rows[j][a]
			}
			ce := c.ev.Contrast(diff, 0)
			pc.Difference = ce.Estimate
			pc.StdError = ce.StdError
			pc.RawSignificance = ce.Significance
			pc.Significance = provider.AdjustSignificance(ce.Significance, m)
			pc.LowerBound = ce.Estimate - crit*ce.StdError
			pc.UpperBound = ce.Estimate + crit*ce.StdError
			out = append(out, pc)
		}
	}
	return out
}

// UnivariateTest tests equality of the marginal means of factor with the
// other factors fixed at given. Rows are each level against the last; the
// non-estimable and redundant ones are dropped.
func (c *Calculator) UnivariateTest(factor string, given map[string]string) glm.HypothesisTestResult {
	info := c.ev.Fit().Design
	levels := info.FactorLevels[factor]
	source := factor
	if len(given) > 0 {
		source = factor + " | " + describe(given)
	}
	k := len(levels)
	if k < 2 {
		return c.ev.Test(source, 0, nil)
	}

	last := c.Row(with(given, factor, levels[k-1]))
	l := mat.NewDense(k-1, info.P, nil)
	for i := 0; i < k-1; i++ {
		row := c.Row(with(given, factor, levels[i]))
		for a := range row {
			row[a] -= last[a]
		}
		if c.ev.Estimable(row) {
			l.SetRow(i, row)
		}
	}
	keep := linalg.IndependentRowIndices(l, 1e-12, 1e-9)
	return c.ev.Test(source, 0, linalg.SelectRows(l, keep))
}

// combinations enumerates level assignments of factors, last fastest
func (c *Calculator) combinations(factors []string) []map[string]string {
	info := c.ev.Fit().Design
	out := []map[string]string{{}}
	for _, f := range factors {
		var next []map[string]string
		for _, prefix := range out {
			for _, lvl := range info.FactorLevels[f] {
				next = append(next, with(prefix, f, lvl))
			}
		}
		out = next
	}
	return out
}

func with(levels map[string]string, factor, level string) map[string]string {
	out := make(map[string]string, len(levels)+1)
	for k, v := range levels {
		out[k] = v
	}
	out[factor] = level
	return out
}

func without(list []string, s string) []string {
	var out []string
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func effectName(factors []string) string {
	if len(factors) == 0 {
		return Overall
	}
	return strings.Join(factors, "*")
}

func describe(levels map[string]string) string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + levels[k]
	}
	return strings.Join(parts, ", ")
}
