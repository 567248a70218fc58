// Package design turns analysis records and a model configuration into
// the numeric design matrix of a univariate general linear model.
package design

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/dataset"
	"glmengine/domain/glm"
	"glmengine/internal"
	"glmengine/internal/errors"
)

// Builder constructs DesignMatrixInfo values
type Builder struct {
	logger *internal.Logger
}

// NewBuilder creates a builder; a nil logger silences it
func NewBuilder(logger *internal.Logger) *Builder {
	return &Builder{logger: logger.With("design")}
}

// Build is a convenience wrapper around a silent Builder
func Build(ds *dataset.Dataset, cfg glm.ModelConfig) (*glm.DesignMatrixInfo, error) {
	return (&Builder{}).Build(ds, cfg)
}

// Build applies listwise deletion and emits one design row per retained
// record: the intercept, reference-coded factor blocks (every level but
// the last), covariate values and interaction products, term by term in
// model order.
func (b *Builder) Build(ds *dataset.Dataset, cfg glm.ModelConfig) (*glm.DesignMatrixInfo, error) {
	if ds == nil {
		return nil, errors.InvalidInput(core.ErrInsufficientData, "dataset is nil")
	}
	if err := validateVariables(ds, cfg); err != nil {
		return nil, err
	}
	terms, err := glm.BuildTermSet(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve model terms")
	}
	factors := cfg.AllFactors()
	for _, f := range factors {
		if levels := dataset.Levels(ds.Records, f); len(levels) == 0 {
			return nil, errors.InvalidInput(core.NewNoLevelsError(f), "invalid factor")
		}
	}

	retained, weights := listwise(ds, cfg)
	if len(retained) == 0 {
		return nil, errors.InvalidInput(core.NewNoValidDataError(cfg.Dependent), "listwise deletion removed every record")
	}
	b.logger.Debug("retained %d of %d records", len(retained), ds.Len())

	kept := make([]dataset.Record, len(retained))
	for i, idx := range retained {
		kept[i] = ds.Records[idx]
	}

	info := &glm.DesignMatrixInfo{
		N:               len(retained),
		Terms:           terms,
		TermColumns:     make(map[string]glm.ColumnRange),
		TermOrder:       terms.Names(),
		InterceptColumn: -1,
		RetainedRows:    retained,
		FactorLevels:    make(map[string][]string),
		CovariateMeans:  make(map[string]float64),
		LevelIndex:      make(map[string][]int),
		Config:          cfg,
	}

	for _, f := range factors {
		levels := dataset.Levels(kept, f)
		if len(levels) == 0 {
			return nil, errors.InvalidInput(core.NewNoLevelsError(f), "invalid factor")
		}
		if len(levels) == 1 {
			b.logger.Warn("factor %s has a single level after filtering; its effects are not testable", f)
		}
		info.FactorLevels[f] = levels
		pos := make(map[string]int, len(levels))
		for i, lv := range levels {
			pos[lv] = i
		}
		idx := make([]int, len(kept))
		for i, r := range kept {
			lv, _ := dataset.LevelValue(r, f)
			idx[i] = pos[lv]
		}
		info.LevelIndex[f] = idx
	}

	covValues := make(map[string][]float64, len(cfg.Covariates))
	for _, c := range cfg.Covariates {
		vals := make([]float64, len(kept))
		var sw, swx float64
		for i, r := range kept {
			v, _ := dataset.NumericValue(r, c)
			vals[i] = v
			sw += weights[i]
			swx += weights[i] * v
		}
		covValues[c] = vals
		if sw > 0 {
			info.CovariateMeans[c] = swx / sw
		}
	}

	for _, t := range terms.Terms() {
		start := len(info.Columns)
		if t.IsIntercept() {
			info.InterceptColumn = start
			info.Columns = append(info.Columns, glm.ColumnInfo{Term: t.Name})
		} else {
			for _, params := range termColumns(t, info.FactorLevels) {
				info.Columns = append(info.Columns, glm.ColumnInfo{Term: t.Name, Params: params})
			}
		}
		info.TermColumns[t.Name] = glm.ColumnRange{Start: start, End: len(info.Columns)}
		if len(info.Columns) == start {
			b.logger.Debug("term %s contributes no columns", t.Name)
		}
	}
	info.P = len(info.Columns)
	if info.P == 0 {
		return nil, errors.InvalidInput(core.ErrEmptyModel, "model has no estimable columns")
	}

	x := mat.NewDense(info.N, info.P, nil)
	for j, c := range info.Columns {
		for i := 0; i < info.N; i++ {
			x.Set(i, j, columnValue(c, i, info, covValues))
		}
	}
	info.X = x

	y := make([]float64, info.N)
	for i, r := range kept {
		y[i], _ = dataset.NumericValue(r, cfg.Dependent)
	}
	info.Y = mat.NewVecDense(info.N, y)
	if cfg.Weight != "" {
		info.W = mat.NewVecDense(info.N, weights)
	}

	b.logger.Debug("design %d×%d over %d terms", info.N, info.P, terms.Len())
	return info, nil
}

// termColumns enumerates the parameters of a term as the Cartesian
// product of its components' columns; the first component varies slowest.
func termColumns(t glm.Term, levels map[string][]string) [][]glm.ParsedParameter {
	out := [][]glm.ParsedParameter{{}}
	for _, comp := range t.Components() {
		var choices []glm.ParsedParameter
		if t.HasFactor(comp) {
			lv := levels[comp]
			for _, l := range lv[:len(lv)-1] {
				choices = append(choices, glm.ParsedParameter{Name: comp, Level: l})
			}
		} else {
			choices = []glm.ParsedParameter{{Name: comp, IsCovariate: true}}
		}
		next := make([][]glm.ParsedParameter, 0, len(out)*len(choices))
		for _, prefix := range out {
			for _, ch := range choices {
				params := make([]glm.ParsedParameter, len(prefix), len(prefix)+1)
				copy(params, prefix)
				next = append(next, append(params, ch))
			}
		}
		out = next
	}
	return out
}

// columnValue is the product of the column's components for retained record i
func columnValue(c glm.ColumnInfo, i int, info *glm.DesignMatrixInfo, cov map[string][]float64) float64 {
	v := 1.0
	for _, p := range c.Params {
		if p.IsCovariate {
			v *= cov[p.Name][i]
			continue
		}
		if info.FactorLevels[p.Name][info.LevelIndex[p.Name][i]] != p.Level {
			return 0
		}
	}
	return v
}

// listwise returns the indices of records with every model variable
// present and valid, and their weights (1 when unweighted)
func listwise(ds *dataset.Dataset, cfg glm.ModelConfig) ([]int, []float64) {
	var rows []int
	var weights []float64
	factors := cfg.AllFactors()
	for i, r := range ds.Records {
		if _, ok := dataset.NumericValue(r, cfg.Dependent); !ok {
			continue
		}
		ok := true
		for _, f := range factors {
			if _, has := dataset.LevelValue(r, f); !has {
				ok = false
				break
			}
		}
		for _, c := range cfg.Covariates {
			if !ok {
				break
			}
			_, ok = dataset.NumericValue(r, c)
		}
		if !ok {
			continue
		}
		w := 1.0
		if cfg.Weight != "" {
			v, has := dataset.NumericValue(r, cfg.Weight)
			if !has || v < 0 {
				continue
			}
			w = v
		}
		rows = append(rows, i)
		weights = append(weights, w)
	}
	return rows, weights
}

func validateVariables(ds *dataset.Dataset, cfg glm.ModelConfig) error {
	if cfg.Dependent == "" {
		return errors.InvalidInput(core.ErrInvalidModel, "dependent variable is required")
	}
	names := []string{cfg.Dependent}
	names = append(names, cfg.AllFactors()...)
	names = append(names, cfg.Covariates...)
	if cfg.Weight != "" {
		names = append(names, cfg.Weight)
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			return errors.InvalidInput(core.ErrInvalidModel, fmt.Sprintf("variable %q is used twice in the model", n))
		}
		seen[n] = true
		if !ds.HasColumn(n) {
			return errors.NotFound(core.NewUnknownVariableError(n), "model variable missing from dataset")
		}
	}
	return nil
}
