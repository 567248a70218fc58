package testkit

import (
	"fmt"
	"math/rand"

	"glmengine/domain/dataset"
)

// FactorialConfig configures the synthetic factorial data generator
type FactorialConfig struct {
	Dependent  string    `json:"dependent"`
	Factors    []string  `json:"factors"`
	Levels     []int     `json:"levels"`     // levels per factor
	Replicates int       `json:"replicates"` // records per cell
	Effects    []float64 `json:"effects"`    // per-factor slope on the level index
	Noise      float64   `json:"noise"`
	Covariate  string    `json:"covariate,omitempty"`
	Slope      float64   `json:"slope"`
	// EmptyCells lists cells (level index per factor) left without records
	EmptyCells [][]int `json:"empty_cells,omitempty"`
	// Unbalanced adds (sum of the cell's level indices) mod 3 extra records,
	// which makes cell counts non-proportional
	Unbalanced bool  `json:"unbalanced"`
	Seed       int64 `json:"seed"`
}

// DefaultFactorialConfig returns a balanced 2×3 design with noise
func DefaultFactorialConfig() FactorialConfig {
	return FactorialConfig{
		Dependent:  "y",
		Factors:    []string{"A", "B"},
		Levels:     []int{2, 3},
		Replicates: 4,
		Effects:    []float64{2, -1},
		Noise:      1,
		Seed:       42,
	}
}

// FactorialGenerator generates designed datasets for GLM tests
type FactorialGenerator struct {
	config FactorialConfig
	rng    *rand.Rand
}

// NewFactorialGenerator creates a new factorial data generator
func NewFactorialGenerator(config FactorialConfig) *FactorialGenerator {
	return &FactorialGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds one record per replicate of every non-empty cell.
// Factor levels are labelled "1".."k".
func (g *FactorialGenerator) Generate() *dataset.Dataset {
	cfg := g.config
	ds := &dataset.Dataset{Name: "factorial"}
	ds.Columns = append(ds.Columns, cfg.Dependent)
	ds.Columns = append(ds.Columns, cfg.Factors...)
	if cfg.Covariate != "" {
		ds.Columns = append(ds.Columns, cfg.Covariate)
	}

	for _, cell := range cells(cfg.Levels) {
		if g.isEmpty(cell) {
			continue
		}
		reps := cfg.Replicates
		if cfg.Unbalanced {
			sum := 0
			for _, l := range cell {
				sum += l
			}
			reps += sum % 3
		}
		for r := 0; r < reps; r++ {
			rec := dataset.Record{}
			mean := 10.0
			for k, f := range cfg.Factors {
				rec[f] = fmt.Sprintf("%d", cell[k]+1)
				if k < len(cfg.Effects) {
					mean += cfg.Effects[k] * float64(cell[k])
				}
			}
			if cfg.Covariate != "" {
				x := g.rng.Float64() * 10
				rec[cfg.Covariate] = x
				mean += cfg.Slope * x
			}
			rec[cfg.Dependent] = mean + cfg.Noise*g.rng.NormFloat64()
			ds.Records = append(ds.Records, rec)
		}
	}
	return ds
}

func (g *FactorialGenerator) isEmpty(cell []int) bool {
	for _, e := range g.config.EmptyCells {
		match := len(e) == len(cell)
		for k := 0; match && k < len(e); k++ {
			match = e[k] == cell[k]
		}
		if match {
			return true
		}
	}
	return false
}

// cells enumerates every level-index combination, last factor fastest
func cells(levels []int) [][]int {
	out := [][]int{{}}
	for _, n := range levels {
		var next [][]int
		for _, prefix := range out {
			for l := 0; l < n; l++ {
				c := make([]int, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, l))
			}
		}
		out = next
	}
	return out
}

// OneWay builds a dataset with a single factor "group" whose levels are
// labels, and dependent "y" taken from values[i] for labels[i]
func OneWay(labels []string, values [][]float64) *dataset.Dataset {
	ds := &dataset.Dataset{Name: "one_way", Columns: []string{"y", "group"}}
	for i, lbl := range labels {
		for _, v := range values[i] {
			ds.Records = append(ds.Records, dataset.Record{"y": v, "group": lbl})
		}
	}
	return ds
}

// TwoGroupExample is the classical two-sample example: A = 10,12,14 and B = 20,22,24
func TwoGroupExample() *dataset.Dataset {
	return OneWay([]string{"A", "B"}, [][]float64{{10, 12, 14}, {20, 22, 24}})
}
