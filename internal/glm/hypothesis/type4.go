package hypothesis

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
)

// TypeIV builds the Type III hypothesis with containing-term columns
// re-weighted by the cells actually observed: a column whose cell has no
// positive-weight records gets 0, any other column gets 1 over the number
// of observed cells of its term that agree with it on the tested term's
// factors. Without empty cells this equals TypeIII.
func TypeIV(fit *glm.Fit, term string) (*mat.Dense, error) {
	t, _, err := lookup(fit, term)
	if err != nil {
		return nil, err
	}
	info := fit.Design

	type cellCounts struct {
		observed map[string]int
		matching map[string]int
	}
	cache := make(map[string]cellCounts)
	counts := func(col glm.ColumnInfo) cellCounts {
		if c, ok := cache[col.Term]; ok {
			return c
		}
		factors := col.Factors()
		observed := info.ObservedCells(factors)
		matching := make(map[string]int)
		for key := range observed {
			matching[restrict(key, factors, t.Factors)]++
		}
		c := cellCounts{observed: observed, matching: matching}
		cache[col.Term] = c
		return c
	}

	// observedOnly replaces the Type III weight rather than rescaling it.
	// That matches rescaling the Type III coefficient by
	// Π levels(f) / observed-matching only while TypeIII weights columns by
	// exactly Π 1/levels(f); change both together.
	observedOnly := func(col glm.ColumnInfo, test glm.Term) float64 {
		factors := col.Factors()
		if len(factors) == len(test.Factors) {
			return 1
		}
		levels := make([]string, len(factors))
		for k, f := range factors {
			levels[k], _ = col.LevelOf(f)
		}
		key := glm.LevelKey(levels)
		c := counts(col)
		if c.observed[key] == 0 {
			return 0
		}
		n := c.matching[restrict(key, factors, test.Factors)]
		if n == 0 {
			return 0
		}
		return 1 / float64(n)
	}
	return estimableBasis(fit, generalRows(info, t, observedOnly)), nil
}

// restrict projects a cell key over factors onto the subset sub
func restrict(key string, factors, sub []string) string {
	parts := strings.Split(key, "\x1f")
	out := make([]string, 0, len(sub))
	for _, s := range sub {
		for k, f := range factors {
			if f == s {
				out = append(out, parts[k])
				break
			}
		}
	}
	return glm.LevelKey(out)
}
