package glm

import (
	"errors"
	"testing"

	"glmengine/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() ModelConfig {
	return ModelConfig{
		Dependent:  "y",
		Factors:    []string{"A", "B"},
		Covariates: []string{"x"},
	}
}

func TestGenerateTermsFullFactorial(t *testing.T) {
	cfg := testConfig()
	cfg.Factors = []string{"A", "B", "C"}
	assert.Equal(t, []string{"x", "A", "B", "C", "A*B", "A*C", "B*C", "A*B*C"}, GenerateTerms(cfg))

	cfg.MaxInteractionOrder = 1
	assert.Equal(t, []string{"x", "A", "B", "C"}, GenerateTerms(cfg))
}

func TestBuildTermSetOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Terms = []string{"B", "A", "A*B"}

	set, err := BuildTermSet(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{InterceptTerm, "B", "A", "A*B"}, set.Names())
	assert.Equal(t, 2, set.Index("A"))
	assert.Equal(t, -1, set.Index("C"))

	_, err = set.Get("A*C")
	assert.True(t, errors.Is(err, core.ErrUnknownTerm))
}

func TestBuildTermSetRejectsUnknownVariable(t *testing.T) {
	cfg := testConfig()
	cfg.Terms = []string{"A", "A*Z"}

	_, err := BuildTermSet(cfg)
	assert.True(t, errors.Is(err, core.ErrUnknownVariable))
}

func TestBuildTermSetRejectsDuplicates(t *testing.T) {
	cfg := testConfig()
	cfg.Terms = []string{"A", "A"}

	_, err := BuildTermSet(cfg)
	assert.True(t, errors.Is(err, core.ErrInvalidModel))
}

func TestTermContains(t *testing.T) {
	cfg := testConfig()
	a, _ := ParseTerm("A", cfg)
	ab, _ := ParseTerm("A*B", cfg)
	ba, _ := ParseTerm("B*A", cfg)
	x, _ := ParseTerm("x", cfg)
	ax, _ := ParseTerm("A*x", cfg)
	intercept := Term{Name: InterceptTerm}

	assert.True(t, ab.Contains(a))
	assert.False(t, a.Contains(ab))
	assert.False(t, ab.Contains(ab))
	assert.False(t, ab.Contains(ba), "same components, different spelling")
	assert.True(t, ax.Contains(x))
	assert.True(t, ax.Contains(a))
	assert.False(t, ab.Contains(x))
	assert.True(t, a.Contains(intercept))
	assert.False(t, intercept.Contains(a))

	assert.Equal(t, []string{"A"}, ax.Factors)
	assert.Equal(t, []string{"x"}, ax.Covariates)
}

func TestParseSSType(t *testing.T) {
	for in, want := range map[string]SSType{"1": SSTypeI, "II": SSTypeII, "type iii": SSTypeIII, "Type 4": SSTypeIV} {
		got, err := ParseSSType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSSType("V")
	assert.True(t, errors.Is(err, core.ErrUnknownSSType))
	assert.Equal(t, "Type III", SSTypeIII.String())
}

func TestColumnInfoLabel(t *testing.T) {
	c := ColumnInfo{Term: "A*x", Params: []ParsedParameter{{Name: "A", Level: "1"}, {Name: "x", IsCovariate: true}}}
	assert.Equal(t, "[A=1]*x", c.Label())
	lv, ok := c.LevelOf("A")
	assert.True(t, ok)
	assert.Equal(t, "1", lv)
	assert.Equal(t, []string{"x"}, c.Covariates())
	assert.Equal(t, InterceptTerm, ColumnInfo{Term: InterceptTerm}.Label())
}

func TestParseAdjustMethod(t *testing.T) {
	m, err := ParseAdjustMethod("bonferroni")
	require.NoError(t, err)
	assert.Equal(t, AdjustBonferroni, m)
	_, err = ParseAdjustMethod("tukey")
	assert.ErrorIs(t, err, core.ErrUnknownAdjust)
}
