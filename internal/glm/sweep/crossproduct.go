package sweep

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"glmengine/domain/core"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
)

// CrossProduct forms the (p+1)×(p+1) augmented matrix
//
//	[ X'WX  X'Wy ]
//	[ y'WX  y'Wy ]
//
// with W = diag(w), or the identity when the design is unweighted.
func CrossProduct(info *glm.DesignMatrixInfo) (*mat.Dense, error) {
	if info == nil || info.P == 0 {
		return nil, errors.InvalidInput(core.ErrEmptyModel, "cross-product matrix needs at least one parameter")
	}
	n, p := info.N, info.P

	// Z = √W [X | y]
	z := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(info.Weight(i))
		for j := 0; j < p; j++ {
			z.Set(i, j, sw*info.X.At(i, j))
		}
		z.Set(i, p, sw*info.Y.AtVec(i))
	}

	m := mat.NewDense(p+1, p+1, nil)
	m.Mul(z.T(), z)
	symmetrize(m)
	return m, nil
}

// symmetrize copies the upper triangle onto the lower one so rounding
// differences between Mul's two halves never leak into the sweep
func symmetrize(m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			m.Set(j, i, m.At(i, j))
		}
	}
}
