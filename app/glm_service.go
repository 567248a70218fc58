package app

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"glmengine/domain/core"
	"glmengine/domain/dataset"
	"glmengine/domain/glm"
	"glmengine/internal"
	"glmengine/internal/config"
	"glmengine/internal/errors"
	"glmengine/internal/glm/contrast"
	"glmengine/internal/glm/describe"
	"glmengine/internal/glm/design"
	"glmengine/internal/glm/emmeans"
	"glmengine/internal/glm/hypothesis"
	"glmengine/internal/glm/levene"
	"glmengine/internal/glm/lineartest"
	"glmengine/internal/glm/sweep"
	"glmengine/ports"
)

// AnalysisRequest describes one univariate GLM analysis
type AnalysisRequest struct {
	ID     core.AnalysisID `json:"id,omitempty"` // generated when empty
	Model  glm.ModelConfig `json:"model"`
	SSType glm.SSType      `json:"ss_type,omitempty"` // zero selects the configured default

	Contrasts []contrast.Request `json:"contrasts,omitempty"`
	EMMeans   []emmeans.Request  `json:"emmeans,omitempty"`

	ParameterEstimates bool          `json:"parameter_estimates,omitempty"`
	Descriptives       bool          `json:"descriptives,omitempty"`
	Levene             bool          `json:"levene,omitempty"`
	LeveneCenter       levene.Center `json:"levene_center,omitempty"`
}

// GLMService runs analyses: one design and one fit per dependent
// variable, then every hypothesis evaluated concurrently against the
// shared read-only fit
type GLMService struct {
	cfg     config.GLMConfig
	dist    ports.Distributions
	logger  *internal.Logger
	builder *design.Builder
	// bounds concurrent evaluations across all analyses of the service
	sem *semaphore.Weighted
}

// NewGLMService creates the service; a nil logger silences it
func NewGLMService(cfg config.GLMConfig, dist ports.Distributions, logger *internal.Logger) *GLMService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	logger = logger.With("glm")
	return &GLMService{
		cfg:     cfg,
		dist:    dist,
		logger:  logger,
		builder: design.NewBuilder(logger),
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Analyze fits the model of req to ds and evaluates everything requested
func (s *GLMService) Analyze(ctx context.Context, ds *dataset.Dataset, req AnalysisRequest) (*glm.UnivariateReport, error) {
	start := time.Now()
	id := req.ID
	if id.IsEmpty() {
		id = core.NewAnalysisID()
	}
	ssType := req.SSType
	if ssType == 0 {
		ssType = glm.SSType(s.cfg.DefaultSSType)
	}
	if !ssType.Valid() {
		return nil, errors.InvalidInput(core.ErrUnknownSSType, ssType.String())
	}
	center, err := levene.ParseCenter(string(req.LeveneCenter))
	if err != nil {
		return nil, err
	}

	s.logger.Info("analysis %s: dependent %s, %s sums of squares", id, req.Model.Dependent, ssType)

	info, err := s.builder.Build(ds, req.Model)
	if err != nil {
		return nil, errors.Wrapf(err, "analysis %s", id)
	}
	fit, err := sweep.Fit(info, s.cfg.SweepTolerance)
	if err != nil {
		return nil, errors.Wrapf(err, "analysis %s", id)
	}
	ev := lineartest.NewEvaluator(fit, s.dist, s.cfg.Alpha, s.cfg.PowerAlpha)

	report := &glm.UnivariateReport{
		AnalysisID: id,
		Dependent:  req.Model.Dependent,
		SSType:     ssType,
		Summary:    summary(fit),
		Error:      ev.ErrorTerm(),
		Total: glm.ErrorTerm{
			SumOfSquares: fit.TotalSS,
			DF:           info.PositiveWeightCount(),
		},
		CorrectedTotal: glm.ErrorTerm{
			SumOfSquares: fit.CorrectedTotalSS,
			DF:           info.PositiveWeightCount() - 1,
		},
	}
	for k, aliased := range fit.Swept.Aliased {
		if aliased {
			report.Aliased = append(report.Aliased, info.Columns[k].Label())
		}
	}
	if len(report.Aliased) > 0 {
		s.logger.Warn("analysis %s: %d redundant parameters %v", id, len(report.Aliased), report.Aliased)
	}

	terms := make([]glm.HypothesisTestResult, len(info.TermOrder))
	report.Contrasts = make([]glm.ContrastReport, len(req.Contrasts))
	report.EMMeans = make([]glm.EMMeansReport, len(req.EMMeans))

	g, gctx := errgroup.WithContext(ctx)
	for i, term := range info.TermOrder {
		i, term := i, term
		s.submit(gctx, g, func() error {
			l, err := hypothesis.Build(ssType, fit, term)
			if err != nil {
				return err
			}
			terms[i] = ev.Test(term, ssType, l)
			if !terms[i].Testable() {
				s.logger.Debug("analysis %s: term %s has no testable hypothesis", id, term)
			}
			return nil
		})
	}
	tester := contrast.NewTester(ev)
	for i, creq := range req.Contrasts {
		i, creq := i, creq
		s.submit(gctx, g, func() error {
			r, err := tester.Evaluate(creq)
			if err != nil {
				return errors.Wrapf(err, "contrast %s", creq.Key())
			}
			report.Contrasts[i] = r
			return nil
		})
	}
	calc := emmeans.NewCalculator(ev)
	for i, ereq := range req.EMMeans {
		i, ereq := i, ereq
		s.submit(gctx, g, func() error {
			r, err := calc.Compute(ereq)
			if err != nil {
				return errors.Wrapf(err, "emmeans %s", ereq.Effect)
			}
			report.EMMeans[i] = r
			return nil
		})
	}
	factors := presentFactors(info)
	if req.Levene {
		s.submit(gctx, g, func() error {
			r, err := levene.Test(info, factors, center, s.dist, s.cfg.SweepTolerance)
			if err != nil {
				return errors.Wrap(err, "levene test")
			}
			report.Levene = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "analysis %s", id)
	}

	report.Tests = append([]glm.HypothesisTestResult{modelRow(ev, ssType)}, terms...)
	if req.ParameterEstimates {
		report.Parameters = parameterEstimates(ev)
	}
	if req.Descriptives {
		report.Descriptives = describe.Cells(info, factors)
	}
	if len(report.Contrasts) == 0 {
		report.Contrasts = nil
	}
	if len(report.EMMeans) == 0 {
		report.EMMeans = nil
	}

	s.logger.Info("analysis %s: n=%d p=%d rank=%d df_error=%d in %s",
		id, info.N, info.P, fit.Swept.Rank, fit.DFError, time.Since(start))
	return report, nil
}

// AnalyzeMany runs req once per dependent variable in parallel. Reports
// are returned in the order of dependents.
func (s *GLMService) AnalyzeMany(ctx context.Context, ds *dataset.Dataset, req AnalysisRequest, dependents []string) ([]*glm.UnivariateReport, error) {
	reports := make([]*glm.UnivariateReport, len(dependents))
	g, gctx := errgroup.WithContext(ctx)
	for i, dep := range dependents {
		i := i
		r := req
		r.ID = ""
		r.Model.Dependent = dep
		g.Go(func() error {
			rep, err := s.Analyze(gctx, ds, r)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// submit runs job on g once a worker slot is free
func (s *GLMService) submit(ctx context.Context, g *errgroup.Group, job func() error) {
	g.Go(func() error {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer s.sem.Release(1)
		return job()
	})
}

// modelRow is the "Corrected Model" row, or "Model" without an intercept
func modelRow(ev *lineartest.Evaluator, ssType glm.SSType) glm.HypothesisTestResult {
	fit := ev.Fit()
	if fit.Design.InterceptColumn >= 0 {
		return ev.TestSS("Corrected Model", ssType, fit.CorrectedTotalSS-fit.Swept.SSE, fit.Swept.Rank-1)
	}
	return ev.TestSS("Model", ssType, fit.TotalSS-fit.Swept.SSE, fit.Swept.Rank)
}

func summary(fit *glm.Fit) glm.ModelSummary {
	n := fit.Design.PositiveWeightCount()
	s := glm.ModelSummary{
		N:       n,
		Rank:    fit.Swept.Rank,
		MSE:     fit.MSE,
		DFError: fit.DFError,
	}
	total, dfTotal := fit.CorrectedTotalSS, float64(n-1)
	if fit.Design.InterceptColumn < 0 {
		total, dfTotal = fit.TotalSS, float64(n)
	}
	if total > 0 {
		s.RSquared = 1 - fit.Swept.SSE/total
	} else {
		s.RSquared = math.NaN()
	}
	if fit.DFError > 0 {
		s.AdjustedRSquared = 1 - (1-s.RSquared)*dfTotal/float64(fit.DFError)
	} else {
		s.AdjustedRSquared = math.NaN()
	}
	return s
}

// parameterEstimates reports the solution the SWEEP produced. Redundant
// parameters are fixed at zero and carry no test.
func parameterEstimates(ev *lineartest.Evaluator) []glm.ParameterEstimate {
	fit := ev.Fit()
	dist := ev.Distributions()
	df := float64(fit.DFError)
	crit := dist.TCritical(ev.Alpha(), df)

	out := make([]glm.ParameterEstimate, fit.P())
	for k, col := range fit.Design.Columns {
		pe := glm.ParameterEstimate{Parameter: col.Label(), Term: col.Term}
		pe.DF = fit.DFError
		if fit.Swept.Aliased[k] {
			nan := math.NaN()
			pe.Redundant = true
			pe.StdError, pe.T, pe.Significance = nan, nan, nan
			pe.LowerBound, pe.UpperBound = nan, nan
			pe.PartialEtaSquared, pe.Noncentrality, pe.ObservedPower = nan, nan, nan
			out[k] = pe
			continue
		}
		b := fit.Swept.Beta.AtVec(k)
		se := math.Sqrt(math.Max(0, fit.Swept.G.At(k, k)*fit.MSE))
		t := b / se
		pe.Estimate = b
		pe.StdError = se
		pe.T = t
		pe.Significance = dist.TSignificance(math.Abs(t), df)
		pe.LowerBound = b - crit*se
		pe.UpperBound = b + crit*se
		pe.PartialEtaSquared = t * t / (t*t + df)
		pe.Noncentrality = math.Abs(t)
		pe.ObservedPower = dist.ObservedPowerF(1, df, t*t, ev.PowerAlpha())
		out[k] = pe
	}
	return out
}

// presentFactors lists the model's factors that survived into the design
func presentFactors(info *glm.DesignMatrixInfo) []string {
	var out []string
	for _, f := range info.Config.AllFactors() {
		if _, ok := info.FactorLevels[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
