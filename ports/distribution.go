package ports

// Distributions is the black-box lookup the GLM engine consumes for
// p-values, critical values and power
type Distributions interface {
	// FSignificance returns P(F(df1,df2) > f)
	FSignificance(df1, df2, f float64) float64
	// TSignificance returns the two-sided p-value of |t| on df
	TSignificance(absT, df float64) float64
	// TCritical returns the two-sided critical value for alpha on df
	TCritical(alpha, df float64) float64
	// FCritical returns the upper alpha quantile of F(df1,df2)
	FCritical(alpha, df1, df2 float64) float64
	// ObservedPowerF returns the power of an F test with noncentrality lambda
	ObservedPowerF(df1, df2, lambda, alpha float64) float64
}

// CriticalValueProvider adjusts significance and interval widths for a
// family of m simultaneous comparisons
type CriticalValueProvider interface {
	Name() string
	// AdjustSignificance maps a raw two-sided p-value onto the family scale
	AdjustSignificance(p float64, m int) float64
	// CriticalValue returns the t multiplier for family-wise level alpha
	CriticalValue(alpha, df float64, m int) float64
}
