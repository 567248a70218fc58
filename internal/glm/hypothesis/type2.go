package hypothesis

import (
	"gonum.org/v1/gonum/mat"

	"glmengine/domain/glm"
	"glmengine/internal/glm/linalg"
)

// TypeII builds the marginality-respecting hypothesis of term. Columns are
// split into X1 (terms that do not contain term), X2 (term itself) and
// X3 (terms containing it). With M1 the W-weighted projector onto the
// orthogonal complement of X1,
//
//	C⁻¹  = X2'W M1 W X2
//	L_X2 = C·C⁻¹,  L_X3 = C·X2'W M1 W X3,  zero on X1
//
// where C is the Moore–Penrose inverse of C⁻¹. Both products are formed
// from blocks of X'WX, e.g. X2'W M1 W X2 = A22 − A21 A11⁺ A12.
func TypeII(fit *glm.Fit, term string) (*mat.Dense, error) {
	t, _, err := lookup(fit, term)
	if err != nil {
		return nil, err
	}
	info := fit.Design
	x2 := termColumns(info, func(s glm.Term) bool { return s.Name == t.Name })
	if len(x2) == 0 {
		return nil, nil
	}
	x3 := termColumns(info, func(s glm.Term) bool { return s.Contains(t) })
	x1 := termColumns(info, func(s glm.Term) bool { return s.Name != t.Name && !s.Contains(t) })

	a := fit.XtWX
	cinv := linalg.Block(a, x2, x2)
	var b23 *mat.Dense
	if len(x3) > 0 {
		b23 = linalg.Block(a, x2, x3)
	}
	if len(x1) > 0 {
		a11pinv := linalg.PseudoInverse(linalg.Block(a, x1, x1))
		a21 := linalg.Block(a, x2, x1)
		var left mat.Dense
		left.Mul(a21, a11pinv)

		var adj mat.Dense
		adj.Mul(&left, linalg.Block(a, x1, x2))
		cinv.Sub(cinv, &adj)

		if b23 != nil {
			var adj3 mat.Dense
			adj3.Mul(&left, linalg.Block(a, x1, x3))
			b23.Sub(b23, &adj3)
		}
	}

	if linalg.Rank(cinv, linalg.DefaultPinvTolerance) == 0 {
		return nil, nil
	}
	c := linalg.PseudoInverse(cinv)

	p := info.P
	l := mat.NewDense(len(x2), p, nil)
	var proj mat.Dense
	proj.Mul(c, cinv)
	for a2 := range x2 {
		for b, j := range x2 {
			l.Set(a2, j, proj.At(a2, b))
		}
	}
	if b23 != nil {
		var l3 mat.Dense
		l3.Mul(c, b23)
		for a2 := range x2 {
			for b, j := range x3 {
				l.Set(a2, j, l3.At(a2, b))
			}
		}
	}

	keep := linalg.IndependentRowIndices(l, zeroFrac*maxRowNorm(l), relTol)
	return linalg.SelectRows(l, keep), nil
}
