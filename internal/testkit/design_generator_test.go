package testkit

import (
	"testing"

	"glmengine/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func TestFactorialGeneratorBalanced(t *testing.T) {
	ds := NewFactorialGenerator(DefaultFactorialConfig()).Generate()
	assert.Len(t, ds.Records, 2*3*4)
	assert.Equal(t, []string{"1", "2"}, dataset.Levels(ds.Records, "A"))
	assert.Equal(t, []string{"1", "2", "3"}, dataset.Levels(ds.Records, "B"))
}

func TestFactorialGeneratorEmptyCellsAndImbalance(t *testing.T) {
	cfg := DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{1, 2}}
	cfg.Unbalanced = true
	ds := NewFactorialGenerator(cfg).Generate()

	// counts 4,5,6 for A=1 and 5,6 for the observed A=2 cells
	assert.Len(t, ds.Records, 4+5+6+5+6)
	for _, r := range ds.Records {
		assert.False(t, r["A"] == "2" && r["B"] == "3", "empty cell populated")
	}
}

func TestFactorialGeneratorDeterministic(t *testing.T) {
	a := NewFactorialGenerator(DefaultFactorialConfig()).Generate()
	b := NewFactorialGenerator(DefaultFactorialConfig()).Generate()
	assert.Equal(t, a.Records, b.Records)
}

func TestTwoGroupExample(t *testing.T) {
	ds := TwoGroupExample()
	assert.Len(t, ds.Records, 6)
	assert.Equal(t, []string{"A", "B"}, dataset.Levels(ds.Records, "group"))
}
