package describe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glmengine/domain/glm"
	"glmengine/internal/glm/design"
	"glmengine/internal/testkit"
)

func TestTwoGroupCells(t *testing.T) {
	info, err := design.Build(testkit.TwoGroupExample(), glm.ModelConfig{Dependent: "y", Factors: []string{"group"}})
	require.NoError(t, err)

	rows := Cells(info, []string{"group"})
	require.Len(t, rows, 3)

	assert.Equal(t, map[string]string{"group": "A"}, rows[0].Levels)
	assert.Equal(t, 3, rows[0].N)
	assert.InDelta(t, 12, rows[0].Mean, 1e-12)
	assert.InDelta(t, 2, rows[0].StdDev, 1e-12)
	assert.Equal(t, 10.0, rows[0].Min)
	assert.Equal(t, 14.0, rows[0].Max)

	assert.InDelta(t, 22, rows[1].Mean, 1e-12)

	total := rows[2]
	assert.Empty(t, total.Levels)
	assert.Equal(t, 6, total.N)
	assert.InDelta(t, 17, total.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(166.0/5), total.StdDev, 1e-12)
}

func TestEmptyCellsAreSkipped(t *testing.T) {
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	info, err := design.Build(testkit.NewFactorialGenerator(cfg).Generate(),
		glm.ModelConfig{Dependent: "y", Factors: []string{"A", "B"}})
	require.NoError(t, err)

	rows := Cells(info, []string{"A", "B"})
	// five observed cells and the total
	require.Len(t, rows, 6)
	for _, r := range rows[:5] {
		assert.Equal(t, 4, r.N)
		assert.False(t, r.Levels["A"] == "1" && r.Levels["B"] == "3")
	}
	assert.Equal(t, 20, rows[5].N)
}

func TestSingleObservationHasNoSpread(t *testing.T) {
	row := summarise([]float64{3})
	assert.Equal(t, 1, row.N)
	assert.Equal(t, 3.0, row.Mean)
	assert.True(t, math.IsNaN(row.StdDev))
}
