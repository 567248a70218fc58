package sweep

import (
	"math"
	"testing"

	"glmengine/domain/dataset"
	"glmengine/domain/glm"
	"glmengine/internal/glm/design"
	"glmengine/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func covariateDesign(t *testing.T, weighted bool) *glm.DesignMatrixInfo {
	t.Helper()
	ds := &dataset.Dataset{Columns: []string{"y", "x1", "x2", "w"}}
	xs1 := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	xs2 := []float64{2, 1, 4, 3, 6, 5, 8, 9}
	ys := []float64{3.1, 3.9, 6.2, 6.8, 9.1, 9.7, 12.4, 13.9}
	ws := []float64{1, 2, 1, 3, 1, 2, 1, 0.5}
	for i := range xs1 {
		ds.Records = append(ds.Records, dataset.Record{"y": ys[i], "x1": xs1[i], "x2": xs2[i], "w": ws[i]})
	}
	cfg := glm.ModelConfig{Dependent: "y", Covariates: []string{"x1", "x2"}}
	if weighted {
		cfg.Weight = "w"
	}
	info, err := design.Build(ds, cfg)
	require.NoError(t, err)
	return info
}

func TestSolveFullRankMatchesDirectInverse(t *testing.T) {
	info := covariateDesign(t, false)
	m, err := CrossProduct(info)
	require.NoError(t, err)

	res := Solve(m, info.P, DefaultTolerance)
	assert.Equal(t, info.P, res.Rank)

	var xtx, inv mat.Dense
	xtx.Mul(info.X.T(), info.X)
	require.NoError(t, inv.Inverse(&xtx))
	assert.True(t, mat.EqualApprox(&inv, res.G, 1e-8))

	var beta mat.VecDense
	require.NoError(t, beta.SolveVec(info.X, info.Y))
	assert.True(t, mat.EqualApprox(&beta, res.Beta, 1e-8))

	var fitted, resid mat.VecDense
	fitted.MulVec(info.X, res.Beta)
	resid.SubVec(info.Y, &fitted)
	assert.InDelta(t, mat.Dot(&resid, &resid), res.SSE, 1e-8)
}

func TestSolveWeightedLeastSquares(t *testing.T) {
	info := covariateDesign(t, true)
	fit, err := Fit(info, DefaultTolerance)
	require.NoError(t, err)

	// (X'WX) β = X'Wy
	w := mat.NewDiagDense(info.N, info.W.RawVector().Data)
	var xtw, xtwx mat.Dense
	xtw.Mul(info.X.T(), w)
	xtwx.Mul(&xtw, info.X)
	var xtwy, beta mat.VecDense
	xtwy.MulVec(&xtw, info.Y)
	require.NoError(t, beta.SolveVec(&xtwx, &xtwy))

	assert.True(t, mat.EqualApprox(&beta, fit.Swept.Beta, 1e-8))
	assert.True(t, mat.EqualApprox(&xtwx, fit.XtWX, 1e-9))
	// every weight is positive: 8 records, 3 parameters
	assert.Equal(t, 5, fit.DFError)
}

func TestSolveRankDeficientGeneralizedInverse(t *testing.T) {
	// third column duplicates the second
	x := mat.NewDense(5, 3, []float64{
		1, 1, 1,
		1, 2, 2,
		1, 3, 3,
		1, 4, 4,
		1, 5, 5,
	})
	y := []float64{2, 4.1, 5.9, 8.2, 9.8}
	z := mat.NewDense(5, 4, nil)
	z.Slice(0, 5, 0, 3).(*mat.Dense).Copy(x)
	z.SetCol(3, y)
	var m mat.Dense
	m.Mul(z.T(), z)

	res := Solve(&m, 3, DefaultTolerance)
	assert.Equal(t, 2, res.Rank)
	assert.Equal(t, []bool{false, false, true}, res.Aliased)
	assert.Equal(t, 0.0, res.Beta.AtVec(2))

	// A G A = A
	xtx := mat.DenseCopyOf(m.Slice(0, 3, 0, 3))
	var ag, aga mat.Dense
	ag.Mul(xtx, res.G)
	aga.Mul(&ag, xtx)
	assert.True(t, mat.EqualApprox(xtx, &aga, 1e-8))

	// same residual as the reduced full-rank model
	reduced := Solve(mat.NewDense(3, 3, []float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 3),
		m.At(1, 0), m.At(1, 1), m.At(1, 3),
		m.At(3, 0), m.At(3, 1), m.At(3, 3),
	}), 2, DefaultTolerance)
	assert.InDelta(t, reduced.SSE, res.SSE, 1e-9)
	assert.InDelta(t, reduced.Beta.AtVec(1), res.Beta.AtVec(1), 1e-9)
}

func TestFitTwoGroupExample(t *testing.T) {
	info, err := design.Build(testkit.TwoGroupExample(), glm.ModelConfig{Dependent: "y", Factors: []string{"group"}})
	require.NoError(t, err)
	fit, err := Fit(info, 0)
	require.NoError(t, err)

	// intercept is the reference (B) mean, the A column the A−B difference
	assert.InDelta(t, 22, fit.Swept.Beta.AtVec(0), 1e-10)
	assert.InDelta(t, -10, fit.Swept.Beta.AtVec(1), 1e-10)
	// within-group squares: (4+0+4) per group
	assert.InDelta(t, 16, fit.Swept.SSE, 1e-10)
	assert.Equal(t, 4, fit.DFError)
	assert.InDelta(t, 4, fit.MSE, 1e-10)
	assert.InDelta(t, 17, fit.WeightedMean, 1e-12)
	assert.InDelta(t, 166, fit.CorrectedTotalSS, 1e-10)
	assert.InDelta(t, 6*17*17+166, fit.TotalSS, 1e-9)
}

func TestFitEmptyCellAliasesInteraction(t *testing.T) {
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	ds := testkit.NewFactorialGenerator(cfg).Generate()
	info, err := design.Build(ds, glm.ModelConfig{Dependent: "y", Factors: []string{"A", "B"}})
	require.NoError(t, err)

	fit, err := Fit(info, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, fit.Swept.Rank)
	aliased := 0
	for _, a := range fit.Swept.Aliased {
		if a {
			aliased++
		}
	}
	assert.Equal(t, 1, aliased)
	assert.Equal(t, info.N-5, fit.DFError)
}

func TestCrossProductRequiresParameters(t *testing.T) {
	_, err := CrossProduct(&glm.DesignMatrixInfo{})
	assert.Error(t, err)
}

func TestPivotsSkipsZeroDiagonal(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 0, 0, 4})
	swept := Pivots(m, []int{0, 1}, DefaultTolerance)
	assert.Equal(t, []bool{false, true}, swept)
	assert.Equal(t, -0.25, m.At(1, 1))
	assert.False(t, math.IsNaN(m.At(0, 0)))
}

func emptyCellDesign(t *testing.T, terms ...string) *glm.DesignMatrixInfo {
	t.Helper()
	cfg := testkit.DefaultFactorialConfig()
	cfg.EmptyCells = [][]int{{0, 2}}
	cfg.Unbalanced = true
	ds := testkit.NewFactorialGenerator(cfg).Generate()
	info, err := design.Build(ds, glm.ModelConfig{Dependent: "y", Factors: []string{"A", "B"}, Terms: terms})
	require.NoError(t, err)
	return info
}

func TestCanonicalOrderPutsInteractionsLast(t *testing.T) {
	info := emptyCellDesign(t, "A*B", "B", "A")
	// declared: Intercept 0, A*B 1-2, B 3-4, A 5
	assert.Equal(t, []int{0, 5, 3, 4, 1, 2}, CanonicalOrder(info))

	info = emptyCellDesign(t, "A", "B", "A*B")
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, CanonicalOrder(info))
}

func TestProjectorIgnoresTermOrder(t *testing.T) {
	canonical, err := Fit(emptyCellDesign(t, "A", "B", "A*B"), 0)
	require.NoError(t, err)
	reordered, err := Fit(emptyCellDesign(t, "A*B", "A", "B"), 0)
	require.NoError(t, err)

	// the declared sweep aliases the main effect when the interaction comes first
	a, err := reordered.Design.ColumnsOf("A")
	require.NoError(t, err)
	assert.True(t, reordered.Swept.Aliased[a.Start])

	index := func(info *glm.DesignMatrixInfo) map[string]int {
		out := make(map[string]int, info.P)
		for j, c := range info.Columns {
			out[c.Label()] = j
		}
		return out
	}
	ci, ri := index(canonical.Design), index(reordered.Design)
	require.Len(t, ri, len(ci))
	for li, i := range ci {
		for lj, j := range ci {
			if math.Abs(canonical.H.At(i, j)-reordered.H.At(ri[li], ri[lj])) > 1e-9 {
				t.Fatalf("H[%s,%s] = %v, reordered %v", li, lj, canonical.H.At(i, j), reordered.H.At(ri[li], ri[lj]))
			}
		}
	}

	// the redundant direction is always charged to the interaction
	last := ri["[A=1]*[B=2]"]
	for j := 0; j < reordered.Design.P; j++ {
		assert.InDelta(t, 0, reordered.H.At(last, j), 1e-12)
	}
}
