package hypothesis

import (
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
)

// averager returns the weight a column of a term containing the tested
// term receives when averaging over the factors the tested term lacks.
// Returning 0 drops the column from the hypothesis.
type averager func(col glm.ColumnInfo, test glm.Term) float64

// TypeIII builds the hypothesis of term that is invariant to term order
// and, for estimable designs, to cell frequencies. Each row contrasts one
// non-reference level combination of the term's factors with the
// reference; columns of containing terms are averaged uniformly over the
// levels of their additional factors. Rows are projected onto the
// estimable space before reduction.
func TypeIII(fit *glm.Fit, term string) (*mat.Dense, error) {
	t, _, err := lookup(fit, term)
	if err != nil {
		return nil, err
	}
	info := fit.Design
	// TypeIV's observedOnly relies on this being exactly Π 1/levels(f)
	uniform := func(col glm.ColumnInfo, test glm.Term) float64 {
		w := 1.0
		for _, f := range col.Factors() {
			if !test.HasFactor(f) {
				w /= float64(info.NumLevels(f))
			}
		}
		return w
	}
	return estimableBasis(fit, generalRows(info, t, uniform)), nil
}

// generalRows evaluates the coefficient rule shared by Type III and IV
func generalRows(info *glm.DesignMatrixInfo, t glm.Term, avg averager) *mat.Dense {
	p := info.P
	if rng := info.TermColumns[t.Name]; rng.Len() == 0 {
		return nil
	}

	// covariate-only term: a unit row per own column
	if len(t.Factors) == 0 && t.HasCovariates() {
		rng := info.TermColumns[t.Name]
		l := mat.NewDense(rng.Len(), p, nil)
		for a := 0; a < rng.Len(); a++ {
			l.Set(a, rng.Start+a, 1)
		}
		return l
	}

	combos := levelCombinations(info, t.Factors)
	if len(combos) == 0 {
		return nil
	}
	l := mat.NewDense(len(combos), p, nil)
	for r, combo := range combos {
		for j, col := range info.Columns {
			if !sameSet(col.Covariates(), t.Covariates) {
				continue
			}
			coef := 1.0
			for k, f := range t.Factors {
				level, ok := col.LevelOf(f)
				if !ok {
					coef = 0
					break
				}
				coef *= indicator(info, f, combo[k], level)
			}
			if coef == 0 {
				continue
			}
			l.Set(r, j, coef*avg(col, t))
		}
	}
	return l
}

// indicator is δ(i, l) − δ(ref, l) for the level index i of factor f
func indicator(info *glm.DesignMatrixInfo, f string, i int, level string) float64 {
	levels := info.FactorLevels[f]
	ref := len(levels) - 1
	v := 0.0
	if levels[i] == level {
		v++
	}
	if levels[ref] == level {
		v--
	}
	return v
}

// levelCombinations enumerates the non-reference level indices of
// factors, last factor fastest. A factor with fewer than two levels
// leaves nothing to contrast.
func levelCombinations(info *glm.DesignMatrixInfo, factors []string) [][]int {
	combos := [][]int{{}}
	for _, f := range factors {
		n := info.NumLevels(f) - 1
		if n < 1 {
			return nil
		}
		next := make([][]int, 0, len(combos)*n)
		for _, c := range combos {
			for i := 0; i < n; i++ {
				nc := make([]int, len(c), len(c)+1)
				copy(nc, c)
				next = append(next, append(nc, i))
			}
		}
		combos = next
	}
	return combos
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
