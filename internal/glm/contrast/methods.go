// Package contrast builds and tests contrast factors: sets of linear
// combinations of a factor's marginal means such as simple, deviation or
// polynomial contrasts.
package contrast

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"glmengine/domain/core"
	"glmengine/internal/errors"
)

// Method names a contrast family
type Method string

const (
	Deviation  Method = "deviation"
	Simple     Method = "simple"
	Difference Method = "difference"
	Helmert    Method = "helmert"
	Repeated   Method = "repeated"
	Polynomial Method = "polynomial"
)

// Reference selects the reference level of deviation and simple contrasts
type Reference string

const (
	First Reference = "first"
	Last  Reference = "last"
)

// Spec is a parsed contrast specification such as "simple(first)"
type Spec struct {
	Method    Method
	Reference Reference
}

// String renders the specification in its canonical form
func (s Spec) String() string {
	if s.Method == Deviation || s.Method == Simple {
		return fmt.Sprintf("%s(%s)", s.Method, s.Reference)
	}
	return string(s.Method)
}

// ParseSpec parses "method" or "method(first|last)". The reference
// defaults to the last level.
func ParseSpec(s string) (Spec, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	name, ref := raw, ""
	if open := strings.IndexByte(raw, '('); open >= 0 {
		if !strings.HasSuffix(raw, ")") {
			return Spec{}, unknown(s)
		}
		name = strings.TrimSpace(raw[:open])
		ref = strings.TrimSpace(raw[open+1 : len(raw)-1])
	}

	spec := Spec{Method: Method(name), Reference: Last}
	switch spec.Method {
	case Deviation, Simple:
		switch Reference(ref) {
		case "", Last:
		case First:
			spec.Reference = First
		default:
			return Spec{}, unknown(s)
		}
	case Difference, Helmert, Repeated, Polynomial:
		if ref != "" {
			return Spec{}, unknown(s)
		}
	default:
		return Spec{}, unknown(s)
	}
	return spec, nil
}

func unknown(s string) error {
	return errors.InvalidInput(fmt.Errorf("%w: %q", core.ErrUnknownContrast, s), "contrast")
}

// Row is one contrast: coefficients over the factor's levels and a label
type Row struct {
	Label        string
	Coefficients []float64
}

// Matrix returns the k−1 contrast rows for a factor with the given levels
func (s Spec) Matrix(levels []string) []Row {
	k := len(levels)
	if k < 2 {
		return nil
	}
	ref := k - 1
	if s.Reference == First {
		ref = 0
	}
	name := func(i int) string { return "Level " + levels[i] }

	var rows []Row
	switch s.Method {
	case Deviation:
		for i := 0; i < k; i++ {
			if i == ref {
				continue
			}
			c := make([]float64, k)
			for j := range c {
				c[j] = -1 / float64(k)
			}
			c[i] += 1
			rows = append(rows, Row{Label: name(i) + " vs. Mean", Coefficients: c})
		}
	case Simple:
		for i := 0; i < k; i++ {
			if i == ref {
				continue
			}
			c := make([]float64, k)
			c[i], c[ref] = 1, -1
			rows = append(rows, Row{Label: name(i) + " vs. " + name(ref), Coefficients: c})
		}
	case Difference:
		for i := 1; i < k; i++ {
			c := make([]float64, k)
			for j := 0; j < i; j++ {
				c[j] = -1 / float64(i)
			}
			c[i] = 1
			rows = append(rows, Row{Label: name(i) + " vs. Previous", Coefficients: c})
		}
	case Helmert:
		for i := 0; i < k-1; i++ {
			c := make([]float64, k)
			c[i] = 1
			for j := i + 1; j < k; j++ {
				c[j] = -1 / float64(k-1-i)
			}
			rows = append(rows, Row{Label: name(i) + " vs. Later", Coefficients: c})
		}
	case Repeated:
		for i := 0; i < k-1; i++ {
			c := make([]float64, k)
			c[i], c[i+1] = 1, -1
			rows = append(rows, Row{Label: name(i) + " vs. " + name(i+1), Coefficients: c})
		}
	case Polynomial:
		for d, c := range orthogonalPolynomials(k) {
			rows = append(rows, Row{Label: degreeName(d + 1), Coefficients: c})
		}
	}
	return rows
}

// orthogonalPolynomials returns the orthonormal polynomial contrasts of
// degree 1..k−1 over equally spaced scores 1..k. Scores are centred
// before raising to powers.
func orthogonalPolynomials(k int) [][]float64 {
	basis := [][]float64{}
	constant := make([]float64, k)
	for i := range constant {
		constant[i] = 1 / math.Sqrt(float64(k))
	}
	basis = append(basis, constant)

	centre := float64(k+1) / 2
	out := make([][]float64, 0, k-1)
	for d := 1; d < k; d++ {
		v := make([]float64, k)
		for i := range v {
			v[i] = math.Pow(float64(i+1)-centre, float64(d))
		}
		for pass := 0; pass < 2; pass++ {
			for _, q := range basis {
				floats.AddScaled(v, -floats.Dot(v, q), q)
			}
		}
		floats.Scale(1/floats.Norm(v, 2), v)
		basis = append(basis, v)
		out = append(out, v)
	}
	return out
}

func degreeName(d int) string {
	switch d {
	case 1:
		return "Linear"
	case 2:
		return "Quadratic"
	case 3:
		return "Cubic"
	}
	return fmt.Sprintf("Order %d", d)
}
