package glm

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
)

// ParsedParameter is one component of a design column: a factor at a
// level, or a covariate (Level empty).
type ParsedParameter struct {
	Name        string `json:"name"`
	Level       string `json:"level,omitempty"`
	IsCovariate bool   `json:"is_covariate,omitempty"`
}

// ColumnInfo describes which model parameter a design column carries
type ColumnInfo struct {
	Term   string            `json:"term"`
	Params []ParsedParameter `json:"params,omitempty"`
}

// Label renders the column the way parameter tables print it, e.g. [A=1]*[B=2]*x
func (c ColumnInfo) Label() string {
	if len(c.Params) == 0 {
		return c.Term
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		if p.IsCovariate {
			parts[i] = p.Name
		} else {
			parts[i] = "[" + p.Name + "=" + p.Level + "]"
		}
	}
	return strings.Join(parts, "*")
}

// LevelOf returns the level the column fixes for factor
func (c ColumnInfo) LevelOf(factor string) (string, bool) {
	for _, p := range c.Params {
		if !p.IsCovariate && p.Name == factor {
			return p.Level, true
		}
	}
	return "", false
}

// Factors returns the factor names entering the column
func (c ColumnInfo) Factors() []string {
	var out []string
	for _, p := range c.Params {
		if !p.IsCovariate {
			out = append(out, p.Name)
		}
	}
	return out
}

// Covariates returns the covariate names entering the column
func (c ColumnInfo) Covariates() []string {
	var out []string
	for _, p := range c.Params {
		if p.IsCovariate {
			out = append(out, p.Name)
		}
	}
	return out
}

// ColumnRange is a half-open range [Start, End) of design columns
type ColumnRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of columns in the range
func (r ColumnRange) Len() int {
	return r.End - r.Start
}

// Contains reports whether column j lies in the range
func (r ColumnRange) Contains(j int) bool {
	return j >= r.Start && j < r.End
}

// DesignMatrixInfo holds the numeric design and its bookkeeping.
// INVARIANTS:
// - term column ranges are disjoint and inside [0,P)
// - N == Y.Len(); W, when present, has length N with entries >= 0
type DesignMatrixInfo struct {
	X *mat.Dense
	Y *mat.VecDense
	W *mat.VecDense // nil when unweighted

	P int
	N int

	Terms           *TermSet
	TermColumns     map[string]ColumnRange
	TermOrder       []string
	InterceptColumn int // -1 when the model has no intercept
	Columns         []ColumnInfo

	// RetainedRows are the original record indices that survived listwise deletion
	RetainedRows []int

	FactorLevels   map[string][]string
	CovariateMeans map[string]float64
	// LevelIndex[f][i] is the index into FactorLevels[f] of retained record i
	LevelIndex map[string][]int

	Config ModelConfig
}

// Weight returns the weight of retained record i (1 when unweighted)
func (d *DesignMatrixInfo) Weight(i int) float64 {
	if d.W == nil {
		return 1
	}
	return d.W.AtVec(i)
}

// PositiveWeightCount counts retained records that carry information
func (d *DesignMatrixInfo) PositiveWeightCount() int {
	if d.W == nil {
		return d.N
	}
	n := 0
	for i := 0; i < d.N; i++ {
		if d.W.AtVec(i) > 0 {
			n++
		}
	}
	return n
}

// ColumnsOf returns the column range of a model term
func (d *DesignMatrixInfo) ColumnsOf(term string) (ColumnRange, error) {
	r, ok := d.TermColumns[term]
	if !ok {
		return ColumnRange{}, core.NewUnknownTermError(term)
	}
	return r, nil
}

// Term looks a model term up by name
func (d *DesignMatrixInfo) Term(name string) (Term, error) {
	return d.Terms.Get(name)
}

// NumLevels returns the number of observed levels of factor
func (d *DesignMatrixInfo) NumLevels(factor string) int {
	return len(d.FactorLevels[factor])
}

// CellKey identifies the level combination of retained record i over factors
func (d *DesignMatrixInfo) CellKey(i int, factors []string) string {
	var b strings.Builder
	for k, f := range factors {
		if k > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(d.FactorLevels[f][d.LevelIndex[f][i]])
	}
	return b.String()
}

// ObservedCells counts positive-weight records per level combination of factors
func (d *DesignMatrixInfo) ObservedCells(factors []string) map[string]int {
	cells := make(map[string]int)
	for i := 0; i < d.N; i++ {
		if d.Weight(i) <= 0 {
			continue
		}
		cells[d.CellKey(i, factors)]++
	}
	return cells
}

// LevelKey builds the same key CellKey produces from explicit levels
func LevelKey(levels []string) string {
	return strings.Join(levels, "\x1f")
}
