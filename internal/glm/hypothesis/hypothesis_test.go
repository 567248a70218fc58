package hypothesis

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/dataset"
	"glmengine/domain/glm"
	"glmengine/internal/glm/design"
	"glmengine/internal/glm/linalg"
	"glmengine/internal/glm/sweep"
	"glmengine/internal/testkit"
)

func fitModel(t *testing.T, ds *dataset.Dataset, terms ...string) *glm.Fit {
	t.Helper()
	cfg := glm.ModelConfig{Dependent: "y", Factors: []string{"A", "B"}, Terms: terms}
	info, err := design.Build(ds, cfg)
	require.NoError(t, err)
	fit, err := sweep.Fit(info, sweep.DefaultTolerance)
	require.NoError(t, err)
	return fit
}

// sumOfSquares evaluates (Lβ)'(LGL')⁺(Lβ) and the row count of L
func sumOfSquares(fit *glm.Fit, l *mat.Dense) (float64, int) {
	if l == nil {
		return 0, 0
	}
	k, _ := l.Dims()
	var lb mat.VecDense
	lb.MulVec(l, fit.Swept.Beta)
	var lg, lgl mat.Dense
	lg.Mul(l, fit.Swept.G)
	lgl.Mul(&lg, l.T())
	return linalg.Quadratic(&lb, linalg.PseudoInverse(&lgl)), k
}

func termSS(t *testing.T, fit *glm.Fit, ssType glm.SSType, term string) (float64, int) {
	t.Helper()
	l, err := Build(ssType, fit, term)
	require.NoError(t, err)
	return sumOfSquares(fit, l)
}

var allTypes = []glm.SSType{glm.SSTypeI, glm.SSTypeII, glm.SSTypeIII, glm.SSTypeIV}

func TestBalancedDesignAllTypesAgree(t *testing.T) {
	ds := testkit.NewFactorialGenerator(testkit.DefaultFactorialConfig()).Generate()
	fit := fitModel(t, ds)

	for _, term := range []string{"A", "B", "A*B"} {
		want, wantDF := termSS(t, fit, glm.SSTypeI, term)
		for _, ss := range allTypes[1:] {
			got, df := termSS(t, fit, ss, term)
			assert.Equal(t, wantDF, df, "%s %s", ss, term)
			assert.InDelta(t, want, got, 1e-8*(1+want), "%s %s", ss, term)
		}
	}
	_, df := termSS(t, fit, glm.SSTypeIII, "A")
	assert.Equal(t, 1, df)
	_, df = termSS(t, fit, glm.SSTypeIII, "B")
	assert.Equal(t, 2, df)
	_, df = termSS(t, fit, glm.SSTypeIII, "A*B")
	assert.Equal(t, 2, df)
}

func unbalanced() *dataset.Dataset {
	cfg := testkit.DefaultFactorialConfig()
	cfg.Unbalanced = true
	return testkit.NewFactorialGenerator(cfg).Generate()
}

func TestTypeISumsToModelSS(t *testing.T) {
	fit := fitModel(t, unbalanced())
	total := 0.0
	for _, term := range []string{"A", "B", "A*B"} {
		ss, _ := termSS(t, fit, glm.SSTypeI, term)
		total += ss
	}
	assert.InDelta(t, fit.CorrectedTotalSS-fit.Swept.SSE, total, 1e-8*fit.CorrectedTotalSS)
}

func TestTypeIDependsOnOrder(t *testing.T) {
	ds := unbalanced()
	ab := fitModel(t, ds, "A", "B")
	ba := fitModel(t, ds, "B", "A")

	first, _ := termSS(t, ab, glm.SSTypeI, "A")
	last, _ := termSS(t, ba, glm.SSTypeI, "A")
	assert.Greater(t, abs(first-last), 1e-6)

	// entered last, Type I equals Type II for an additive model
	typeII, _ := termSS(t, ab, glm.SSTypeII, "A")
	assert.InDelta(t, last, typeII, 1e-8*(1+last))
}

func TestTypesIIToIVIgnoreOrder(t *testing.T) {
	ds := unbalanced()
	ab := fitModel(t, ds, "A", "B", "A*B")
	ba := fitModel(t, ds, "B", "A", "A*B")
	for _, ss := range allTypes[1:] {
		for _, term := range []string{"A", "B", "A*B"} {
			x, dx := termSS(t, ab, ss, term)
			y, dy := termSS(t, ba, ss, term)
			assert.Equal(t, dx, dy, "%s %s", ss, term)
			assert.InDelta(t, x, y, 1e-8*(1+x), "%s %s", ss, term)
		}
	}
}

func emptyCell() *dataset.Dataset {
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	cfg.Unbalanced = true
	return testkit.NewFactorialGenerator(cfg).Generate()
}

func TestTypesIIToIVIgnoreOrderWithEmptyCell(t *testing.T) {
	ds := emptyCell()
	orders := [][]string{
		{"A", "B", "A*B"},
		{"B", "A", "A*B"},
		{"A*B", "A", "B"},
		{"A*B", "B", "A"},
	}
	base := fitModel(t, ds, orders[0]...)
	for _, order := range orders[1:] {
		fit := fitModel(t, ds, order...)
		for _, ss := range allTypes[1:] {
			for _, term := range []string{"A", "B", "A*B"} {
				want, wantDF := termSS(t, base, ss, term)
				got, df := termSS(t, fit, ss, term)
				if df != wantDF || abs(got-want) > 1e-8*(1+want) {
					t.Fatalf("%v %s %s: SS %v on %d df, want %v on %d df", order, ss, term, got, df, want, wantDF)
				}
			}
		}
	}
}

// oneObservationPerCell is a 2×3 layout with cell (A=1, B=3) empty.
// With d1 = y11−y21 = 6 and d2 = y12−y22 = 2, Type IV tests (d1+d2)/2
// for A while Type III tests d1/3 + 2·d2/3.
func oneObservationPerCell() *dataset.Dataset {
	ds := &dataset.Dataset{Columns: []string{"y", "A", "B"}}
	for _, c := range []struct {
		a, b string
		y    float64
	}{
		{"1", "1", 10}, {"1", "2", 8},
		{"2", "1", 4}, {"2", "2", 6}, {"2", "3", 5},
	} {
		ds.Records = append(ds.Records, dataset.Record{"y": c.y, "A": c.a, "B": c.b})
	}
	return ds
}

func TestTypeIVDiffersFromTypeIIIWithEmptyCell(t *testing.T) {
	for _, order := range [][]string{{"A", "B", "A*B"}, {"A*B", "B", "A"}} {
		fit := fitModel(t, oneObservationPerCell(), order...)

		ss3, df3 := termSS(t, fit, glm.SSTypeIII, "A")
		ss4, df4 := termSS(t, fit, glm.SSTypeIV, "A")
		assert.Equal(t, 1, df3)
		assert.Equal(t, 1, df4)
		// (10/3)² / (10/9)
		assert.InDelta(t, 10, ss3, 1e-9, "%v", order)
		// 4² / 1
		assert.InDelta(t, 16, ss4, 1e-9, "%v", order)

		for _, ss := range []glm.SSType{glm.SSTypeIII, glm.SSTypeIV} {
			got, df := termSS(t, fit, ss, "A*B")
			assert.Equal(t, 1, df, ss.String())
			// (d1−d2)² / 4
			assert.InDelta(t, 4, got, 1e-9, "%v %s", order, ss)
		}
	}
}

func TestTypeIIIEqualsTypeIVWithoutEmptyCells(t *testing.T) {
	fit := fitModel(t, unbalanced())
	for _, term := range []string{"Intercept", "A", "B", "A*B"} {
		x, dx := termSS(t, fit, glm.SSTypeIII, term)
		y, dy := termSS(t, fit, glm.SSTypeIV, term)
		assert.Equal(t, dx, dy, term)
		assert.InDelta(t, x, y, 1e-8*(1+x), term)
	}
}

func TestHighestOrderTermSameAcrossTypes(t *testing.T) {
	fit := fitModel(t, unbalanced())
	want, _ := termSS(t, fit, glm.SSTypeI, "A*B")
	for _, ss := range allTypes[1:] {
		got, df := termSS(t, fit, ss, "A*B")
		assert.Equal(t, 2, df)
		assert.InDelta(t, want, got, 1e-8*(1+want), ss.String())
	}
}

func TestEmptyCellReducesInteractionDF(t *testing.T) {
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	fit := fitModel(t, testkit.NewFactorialGenerator(cfg).Generate())
	require.Equal(t, 5, fit.Swept.Rank)

	for _, ss := range allTypes {
		_, df := termSS(t, fit, ss, "A*B")
		assert.Equal(t, 1, df, ss.String())
	}
	for _, ss := range []glm.SSType{glm.SSTypeIII, glm.SSTypeIV} {
		_, df := termSS(t, fit, ss, "A")
		assert.Equal(t, 1, df, ss.String())
		_, df = termSS(t, fit, ss, "B")
		assert.Equal(t, 2, df, ss.String())
	}
}

func TestRowsAreEstimable(t *testing.T) {
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	fit := fitModel(t, testkit.NewFactorialGenerator(cfg).Generate())
	for _, ss := range allTypes {
		l, err := Build(ss, fit, "B")
		require.NoError(t, err)
		require.NotNil(t, l)
		var lh mat.Dense
		lh.Mul(l, fit.H)
		assert.True(t, mat.EqualApprox(l, &lh, 1e-8), ss.String())
	}
}

func TestSingleLevelFactorHasNoHypothesis(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"y", "A", "B"}}
	for i, v := range []float64{1, 2, 4, 3, 6, 5} {
		a := "lo"
		if i%2 == 1 {
			a = "hi"
		}
		ds.Records = append(ds.Records, dataset.Record{"y": v, "A": a, "B": "only"})
	}
	fit := fitModel(t, ds, "A", "B")
	for _, ss := range allTypes {
		l, err := Build(ss, fit, "B")
		require.NoError(t, err)
		assert.Nil(t, l, ss.String())
	}
}

func TestUnknownTerm(t *testing.T) {
	fit := fitModel(t, unbalanced())
	for _, ss := range allTypes {
		_, err := Build(ss, fit, "C")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, core.ErrUnknownTerm), ss.String())
	}
	_, err := Build(glm.SSType(7), fit, "A")
	assert.True(t, stderrors.Is(err, core.ErrUnknownSSType))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
