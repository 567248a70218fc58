package emmeans

import (
	"math"

	"glmengine/domain/core"
	"glmengine/domain/glm"
	"glmengine/internal/errors"
	"glmengine/ports"
)

// NewProvider returns the critical-value provider for method
func NewProvider(method glm.AdjustMethod, dist ports.Distributions) (ports.CriticalValueProvider, error) {
	switch method {
	case glm.AdjustLSD, "":
		return lsd{dist: dist}, nil
	case glm.AdjustBonferroni:
		return bonferroni{dist: dist}, nil
	case glm.AdjustSidak:
		return sidak{dist: dist}, nil
	}
	return nil, errors.InvalidInput(core.ErrUnknownAdjust, string(method))
}

// lsd applies no correction
type lsd struct{ dist ports.Distributions }

func (lsd) Name() string                               { return string(glm.AdjustLSD) }
func (lsd) AdjustSignificance(p float64, _ int) float64 { return p }
func (a lsd) CriticalValue(alpha, df float64, _ int) float64 {
	return a.dist.TCritical(alpha, df)
}

type bonferroni struct{ dist ports.Distributions }

func (bonferroni) Name() string { return string(glm.AdjustBonferroni) }

func (bonferroni) AdjustSignificance(p float64, m int) float64 {
	if math.IsNaN(p) {
		return p
	}
	return math.Min(1, p*float64(m))
}

func (a bonferroni) CriticalValue(alpha, df float64, m int) float64 {
	return a.dist.TCritical(alpha/float64(max(m, 1)), df)
}

type sidak struct{ dist ports.Distributions }

func (sidak) Name() string { return string(glm.AdjustSidak) }

// AdjustSignificance returns 1 − (1 − p)^m
func (sidak) AdjustSignificance(p float64, m int) float64 {
	if math.IsNaN(p) {
		return p
	}
	if p >= 1 {
		return 1
	}
	return math.Min(1, -math.Expm1(float64(m)*math.Log1p(-p)))
}

// CriticalValue uses the per-comparison level 1 − (1 − alpha)^(1/m)
func (a sidak) CriticalValue(alpha, df float64, m int) float64 {
	perTest := -math.Expm1(math.Log1p(-alpha) / float64(max(m, 1)))
	return a.dist.TCritical(perTest, df)
}
