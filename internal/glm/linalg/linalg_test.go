package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPseudoInverseMatchesInverseWhenRegular(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{4, 1, 1, 3})
	var inv mat.Dense
	require.NoError(t, inv.Inverse(a))

	pinv := PseudoInverse(a)
	assert.True(t, mat.EqualApprox(&inv, pinv, 1e-12))
}

func TestPseudoInverseSingular(t *testing.T) {
	// rank one: [1 2; 2 4]
	a := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
	pinv := PseudoInverse(a)

	// A A⁺ A = A
	var tmp, back mat.Dense
	tmp.Mul(a, pinv)
	back.Mul(&tmp, a)
	assert.True(t, mat.EqualApprox(a, &back, 1e-10))

	// A⁺ = A / 25 for this matrix
	want := mat.NewDense(2, 2, []float64{1.0 / 25, 2.0 / 25, 2.0 / 25, 4.0 / 25})
	assert.True(t, mat.EqualApprox(want, pinv, 1e-12))
}

func TestPseudoInverseZero(t *testing.T) {
	pinv := PseudoInverse(mat.NewDense(2, 3, nil))
	r, c := pinv.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.True(t, IsZero(pinv, 0))
}

func TestRank(t *testing.T) {
	a := mat.NewDense(3, 3, []float64{
		1, 0, 1,
		0, 1, 1,
		1, 1, 2,
	})
	assert.Equal(t, 2, Rank(a, 1e-10))
	assert.Equal(t, 0, Rank(mat.NewDense(2, 2, nil), 1e-10))
}

func TestIndependentRowIndices(t *testing.T) {
	m := mat.NewDense(5, 3, []float64{
		0, 0, 0,
		1, 0, 1,
		2, 0, 2,
		0, 1, 0,
		1, 1, 1,
	})
	assert.Equal(t, []int{1, 3}, IndependentRowIndices(m, 1e-12, 1e-9))

	noise := mat.NewDense(1, 2, []float64{1e-15, -1e-15})
	assert.Empty(t, IndependentRowIndices(noise, 1e-12, 1e-9))
}

func TestSelectRowsAndBlock(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.Nil(t, SelectRows(m, nil))

	sel := SelectRows(m, []int{2, 0})
	assert.Equal(t, []float64{7, 8, 9}, mat.Row(nil, 0, sel))

	blk := Block(m, []int{0, 2}, Span(1, 3))
	assert.Equal(t, []float64{2, 3, 8, 9}, blk.RawMatrix().Data)
	assert.Nil(t, Span(3, 3))
}

func TestQuadratic(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	x := mat.NewVecDense(2, []float64{1, 2})
	assert.InDelta(t, 2+2+2+12, Quadratic(x, a), 1e-12)
}
