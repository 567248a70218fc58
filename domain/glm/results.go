package glm

import "glmengine/domain/core"

// HypothesisTestResult is one row of a sums-of-squares table.
// NaN fields mark a hypothesis that was computed but is not estimable.
type HypothesisTestResult struct {
	Source            string  `json:"source"`
	SSType            SSType  `json:"ss_type"`
	SumOfSquares      float64 `json:"sum_of_squares"`
	DF                int     `json:"df"`
	ErrorDF           int     `json:"error_df"`
	MeanSquare        float64 `json:"mean_square"`
	F                 float64 `json:"f"`
	Significance      float64 `json:"significance"`
	PartialEtaSquared float64 `json:"partial_eta_squared"`
	Noncentrality     float64 `json:"noncentrality"`
	ObservedPower     float64 `json:"observed_power"`
}

// Testable reports whether the hypothesis has at least one degree of freedom
func (r HypothesisTestResult) Testable() bool {
	return r.DF > 0
}

// ContrastEstimate is a single-row linear combination with its t test
type ContrastEstimate struct {
	Estimate     float64 `json:"estimate"`
	StdError     float64 `json:"std_error"`
	T            float64 `json:"t"`
	DF           int     `json:"df"`
	Significance float64 `json:"significance"`
	LowerBound   float64 `json:"lower_bound"`
	UpperBound   float64 `json:"upper_bound"`
}

// ParameterEstimate is one row of the parameter estimates table
type ParameterEstimate struct {
	Parameter string `json:"parameter"`
	Term      string `json:"term"`
	ContrastEstimate
	PartialEtaSquared float64 `json:"partial_eta_squared"`
	Noncentrality     float64 `json:"noncentrality"`
	ObservedPower     float64 `json:"observed_power"`
	Redundant         bool    `json:"redundant,omitempty"`
}

// ModelSummary reports overall fit
type ModelSummary struct {
	N                int     `json:"n"`
	Rank             int     `json:"rank"`
	RSquared         float64 `json:"r_squared"`
	AdjustedRSquared float64 `json:"adjusted_r_squared"`
	MSE              float64 `json:"mse"`
	DFError          int     `json:"df_error"`
}

// ContrastResult is one row of a contrast factor (e.g. "Level 1 vs. Level 3")
type ContrastResult struct {
	Label             string    `json:"label"`
	Coefficients      []float64 `json:"coefficients"`
	HypothesizedValue float64   `json:"hypothesized_value"`
	ContrastEstimate
}

// ContrastTestResult is the omnibus test of all rows of a contrast factor
type ContrastTestResult struct {
	Contrast HypothesisTestResult `json:"contrast"`
	Error    ErrorTerm            `json:"error"`
}

// ErrorTerm is the residual row reported under a test
type ErrorTerm struct {
	SumOfSquares float64 `json:"sum_of_squares"`
	DF           int     `json:"df"`
	MeanSquare   float64 `json:"mean_square"`
}

// ContrastReport groups the results of one contrast specification
type ContrastReport struct {
	Spec    string             `json:"spec"`
	Factor  string             `json:"factor"`
	Method  string             `json:"method"`
	Results []ContrastResult   `json:"results"`
	Test    ContrastTestResult `json:"test"`
}

// EMMeansEstimate is the estimated marginal mean of one level combination
type EMMeansEstimate struct {
	Levels     map[string]string `json:"levels"`
	Mean       float64           `json:"mean"`
	StdError   float64           `json:"std_error"`
	LowerBound float64           `json:"lower_bound"`
	UpperBound float64           `json:"upper_bound"`
	Estimable  bool              `json:"estimable"`
}

// AdjustMethod selects a multiple-comparison correction
type AdjustMethod string

const (
	AdjustLSD        AdjustMethod = "lsd"
	AdjustBonferroni AdjustMethod = "bonferroni"
	AdjustSidak      AdjustMethod = "sidak"
)

// ParseAdjustMethod accepts lsd/none, bonferroni and sidak
func ParseAdjustMethod(s string) (AdjustMethod, error) {
	switch s {
	case "", "lsd", "LSD", "none", "NONE":
		return AdjustLSD, nil
	case "bonferroni", "BONFERRONI", "Bonferroni":
		return AdjustBonferroni, nil
	case "sidak", "SIDAK", "Sidak", "šidák", "Šidák":
		return AdjustSidak, nil
	}
	return "", core.ErrUnknownAdjust
}

// PairwiseComparison compares two EMMs of the compared factor
type PairwiseComparison struct {
	Factor     string            `json:"factor"`
	LevelI     string            `json:"level_i"`
	LevelJ     string            `json:"level_j"`
	Given      map[string]string `json:"given,omitempty"`
	Difference float64           `json:"difference"`
	StdError   float64           `json:"std_error"`
	// Significance is adjusted by Adjustment; RawSignificance is not
	Significance    float64      `json:"significance"`
	RawSignificance float64      `json:"raw_significance"`
	LowerBound      float64      `json:"lower_bound"`
	UpperBound      float64      `json:"upper_bound"`
	Adjustment      AdjustMethod `json:"adjustment"`
	Comparisons     int          `json:"comparisons"`
}

// EMMeansReport groups the EMM output of one requested effect
type EMMeansReport struct {
	Effect          string                 `json:"effect"`
	Estimates       []EMMeansEstimate      `json:"estimates"`
	Pairwise        []PairwiseComparison   `json:"pairwise,omitempty"`
	UnivariateTests []HypothesisTestResult `json:"univariate_tests,omitempty"`
}

// LeveneResult is Levene's test of equality of error variances
type LeveneResult struct {
	Dependent    string  `json:"dependent"`
	Center       string  `json:"center"`
	F            float64 `json:"f"`
	DF1          int     `json:"df1"`
	DF2          int     `json:"df2"`
	Significance float64 `json:"significance"`
}

// CellDescriptive summarises the dependent variable within one cell
type CellDescriptive struct {
	Levels map[string]string `json:"levels"`
	N      int               `json:"n"`
	Mean   float64           `json:"mean"`
	StdDev float64           `json:"std_dev"`
	Min    float64           `json:"min"`
	Max    float64           `json:"max"`
}

// UnivariateReport is the complete result of one analysis request
type UnivariateReport struct {
	AnalysisID     core.AnalysisID        `json:"analysis_id"`
	Dependent      string                 `json:"dependent"`
	SSType         SSType                 `json:"ss_type"`
	Summary        ModelSummary           `json:"summary"`
	Tests          []HypothesisTestResult `json:"tests"`
	Error          ErrorTerm              `json:"error"`
	Total          ErrorTerm              `json:"total"`
	CorrectedTotal ErrorTerm              `json:"corrected_total"`
	Parameters     []ParameterEstimate    `json:"parameters,omitempty"`
	Contrasts      []ContrastReport       `json:"contrasts,omitempty"`
	EMMeans        []EMMeansReport        `json:"emmeans,omitempty"`
	Levene         *LeveneResult          `json:"levene,omitempty"`
	Descriptives   []CellDescriptive      `json:"descriptives,omitempty"`
	Aliased        []string               `json:"aliased,omitempty"`
}
