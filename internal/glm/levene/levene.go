// Package levene implements Levene's test of equality of error variances
// across the cells of the model's factors. The test is the one-way GLM F
// test on absolute deviations from each cell's centre.
package levene

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"glmengine/domain/core"
	"glmengine/domain/dataset"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
	"glmengine/internal/glm/design"
	"glmengine/internal/glm/hypothesis"
	"glmengine/internal/glm/lineartest"
	"glmengine/internal/glm/sweep"
	"glmengine/ports"
)

// Center selects how each cell is centred
type Center string

const (
	Mean   Center = "mean"
	Median Center = "median"
)

// ParseCenter accepts "mean" (default) and "median"
func ParseCenter(s string) (Center, error) {
	switch Center(s) {
	case "", Mean:
		return Mean, nil
	case Median:
		return Median, nil
	}
	return "", errors.InvalidInput(core.ErrInvalidModel, fmt.Sprintf("unknown levene centre %q", s))
}

const (
	deviationColumn = "abs_deviation"
	cellColumn      = "cell"
)

// Test runs Levene's test for the dependent variable of info over the
// cells formed by factors. With fewer than two observed cells the result
// has zero numerator degrees of freedom and NaN statistics.
func Test(info *glm.DesignMatrixInfo, factors []string, center Center, dist ports.Distributions, tol float64) (*glm.LeveneResult, error) {
	groups := make(map[string][]float64)
	var order []string
	for i := 0; i < info.N; i++ {
		if info.Weight(i) <= 0 {
			continue
		}
		key := info.CellKey(i, factors)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], info.Y.AtVec(i))
	}

	res := &glm.LeveneResult{
		Dependent: info.Config.Dependent,
		Center:    string(center),
	}
	if len(groups) < 2 {
		res.F, res.Significance = math.NaN(), math.NaN()
		return res, nil
	}

	ds := &dataset.Dataset{Name: "levene", Columns: []string{deviationColumn, cellColumn}}
	for k, key := range order {
		data := groups[key]
		c, err := centre(data, center)
		if err != nil {
			return nil, errors.Wrapf(err, "levene centre of cell %d", k)
		}
		label := fmt.Sprintf("%d", k)
		for _, y := range data {
			ds.Records = append(ds.Records, dataset.Record{
				deviationColumn: math.Abs(y - c),
				cellColumn:      label,
			})
		}
	}

	cfg := glm.ModelConfig{Dependent: deviationColumn, Factors: []string{cellColumn}}
	devInfo, err := design.Build(ds, cfg)
	if err != nil {
		return nil, err
	}
	fit, err := sweep.Fit(devInfo, tol)
	if err != nil {
		return nil, err
	}
	l, err := hypothesis.TypeIII(fit, cellColumn)
	if err != nil {
		return nil, err
	}
	test := lineartest.NewEvaluator(fit, dist, 0.05, 0.05).Test(cellColumn, glm.SSTypeIII, l)

	res.F = test.F
	res.DF1 = test.DF
	res.DF2 = test.ErrorDF
	res.Significance = test.Significance
	return res, nil
}

func centre(data []float64, center Center) (float64, error) {
	if center == Median {
		return stats.Median(data)
	}
	return stats.Mean(data)
}
