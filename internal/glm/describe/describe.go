// Package describe summarises the dependent variable within the cells
// formed by the model's factors.
package describe

import (
	"math"

	"github.com/montanaflynn/stats"

	"glmengine/domain/glm"
)

// Cells returns one descriptive row per observed level combination of
// factors (last factor fastest) followed by a total row with no levels.
// Records with zero weight are left out.
func Cells(info *glm.DesignMatrixInfo, factors []string) []glm.CellDescriptive {
	groups := make(map[string][]float64)
	var all []float64
	for i := 0; i < info.N; i++ {
		if info.Weight(i) <= 0 {
			continue
		}
		y := info.Y.AtVec(i)
		key := info.CellKey(i, factors)
		groups[key] = append(groups[key], y)
		all = append(all, y)
	}

	var out []glm.CellDescriptive
	if len(factors) > 0 {
		for _, levels := range combinations(info, factors) {
			key := glm.LevelKey(levels)
			data, ok := groups[key]
			if !ok {
				continue
			}
			row := summarise(data)
			row.Levels = make(map[string]string, len(factors))
			for k, f := range factors {
				row.Levels[f] = levels[k]
			}
			out = append(out, row)
		}
	}
	total := summarise(all)
	total.Levels = map[string]string{}
	return append(out, total)
}

// summarise computes count, mean, sample standard deviation and range.
// Statistics that need more data than available are NaN.
func summarise(data []float64) glm.CellDescriptive {
	row := glm.CellDescriptive{N: len(data)}
	nan := math.NaN()
	row.Mean, row.StdDev, row.Min, row.Max = nan, nan, nan, nan
	if len(data) == 0 {
		return row
	}
	if mean, err := stats.Mean(data); err == nil {
		row.Mean = mean
	}
	if len(data) > 1 {
		if sd, err := stats.StandardDeviationSample(data); err == nil {
			row.StdDev = sd
		}
	}
	if min, err := stats.Min(data); err == nil {
		row.Min = min
	}
	if max, err := stats.Max(data); err == nil {
		row.Max = max
	}
	return row
}

func combinations(info *glm.DesignMatrixInfo, factors []string) [][]string {
	out := [][]string{{}}
	for _, f := range factors {
		var next [][]string
		for _, prefix := range out {
			for _, lvl := range info.FactorLevels[f] {
				c := make([]string, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, lvl))
			}
		}
		out = next
	}
	return out
}
