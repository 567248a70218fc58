// Package distributions implements the p-value, critical-value and power
// lookups used by the GLM engine on top of gonum's distuv.
package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to the F and t
// distributions. The zero value is ready to use.
type StatisticalDistributions struct{}

// New creates a new distributions utility
func New() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// FSignificance computes P(F > f) for F(df1, df2)
func (sd *StatisticalDistributions) FSignificance(df1, df2, f float64) float64 {
	if math.IsNaN(f) || df1 <= 0 || df2 <= 0 {
		return math.NaN()
	}
	if math.IsInf(f, 1) {
		return 0
	}
	if f <= 0 {
		return 1
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return clamp01(fDist.Survival(f))
}

// TSignificance computes the two-sided p-value of |t| on df
func (sd *StatisticalDistributions) TSignificance(absT, df float64) float64 {
	if math.IsNaN(absT) || df <= 0 {
		return math.NaN()
	}
	absT = math.Abs(absT)
	if math.IsInf(absT, 1) {
		return 0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clamp01(2 * tDist.Survival(absT))
}

// TCritical computes the two-sided critical value t(1-alpha/2, df)
func (sd *StatisticalDistributions) TCritical(alpha, df float64) float64 {
	if df <= 0 || alpha <= 0 || alpha >= 1 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return tDist.Quantile(1 - alpha/2)
}

// FCritical computes the upper alpha quantile of F(df1, df2)
func (sd *StatisticalDistributions) FCritical(alpha, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || alpha <= 0 || alpha >= 1 {
		return math.NaN()
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return fDist.Quantile(1 - alpha)
}

// ObservedPowerF approximates 1 - noncentral F CDF at the critical value
// with Patnaik's central F: df1' = (df1+λ)²/(df1+2λ), statistic scaled by
// df1/(df1+λ).
func (sd *StatisticalDistributions) ObservedPowerF(df1, df2, lambda, alpha float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(lambda) || lambda < 0 {
		return math.NaN()
	}
	if math.IsInf(lambda, 1) {
		return 1
	}
	fCrit := sd.FCritical(alpha, df1, df2)
	if math.IsNaN(fCrit) {
		return math.NaN()
	}
	if lambda == 0 {
		return alpha
	}
	adjDF1 := (df1 + lambda) * (df1 + lambda) / (df1 + 2*lambda)
	scaled := fCrit * df1 / (df1 + lambda)
	fDist := distuv.F{D1: adjDF1, D2: df2}
	return clamp01(fDist.Survival(scaled))
}

func clamp01(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
