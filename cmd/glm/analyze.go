package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"glmengine/adapters/excel"
	"glmengine/app"
	"glmengine/domain/glm"
	"glmengine/internal"
	"glmengine/internal/config"
	"glmengine/internal/distributions"
	"glmengine/internal/glm/levene"
	"glmengine/internal/report"
	"glmengine/ports"
)

type analyzeOptions struct {
	data       string
	sheet      string
	envFile    string
	dependents []string

	factors     []string
	random      []string
	covariates  []string
	terms       []string
	maxOrder    int
	weight      string
	noIntercept bool
	ssType      string

	contrasts    []string
	emmeans      []string
	adjust       string
	params       bool
	descriptives bool
	levene       bool
	leveneCenter string

	format string
	output string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze --data FILE --dep Y [flags]",
		Short: "Fit a univariate GLM and test its effects",
		Long: `Fit a univariate general linear model to a CSV or XLSX file and print
tests of between-subjects effects, with optional parameter estimates,
contrasts, estimated marginal means, Levene's test and descriptives.

Settings are read from the environment (GLM_SWEEP_TOLERANCE, GLM_ALPHA,
GLM_POWER_ALPHA, GLM_WORKERS, GLM_DEFAULT_SS_TYPE, LOG_LEVEL), optionally
loaded from --env.

Example: glm analyze --data plants.csv --dep yield --factors soil,variety \
  --emmeans soil:soil --adjust bonferroni --contrast variety=simple(first) --levene`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.data, "data", "", "CSV or XLSX data file")
	f.StringVar(&opts.sheet, "sheet", "", "worksheet to read from XLSX files (default first)")
	f.StringVar(&opts.envFile, "env", "", "dotenv file with engine settings")
	f.StringSliceVar(&opts.dependents, "dep", nil, "dependent variable; repeat to analyse several in parallel")
	f.StringSliceVar(&opts.factors, "factors", nil, "fixed factors")
	f.StringSliceVar(&opts.random, "random", nil, "random factors (treated as fixed)")
	f.StringSliceVar(&opts.covariates, "covariates", nil, "covariates")
	f.StringSliceVar(&opts.terms, "terms", nil, "model terms such as A,B,A*B (default full factorial)")
	f.IntVar(&opts.maxOrder, "max-order", 0, "highest generated interaction order (0 = all)")
	f.StringVar(&opts.weight, "weight", "", "WLS weight variable")
	f.BoolVar(&opts.noIntercept, "no-intercept", false, "exclude the intercept")
	f.StringVar(&opts.ssType, "ss", "", "sum of squares type 1-4 (default from GLM_DEFAULT_SS_TYPE)")
	f.StringArrayVar(&opts.contrasts, "contrast", nil, "contrast FACTOR=METHOD[(first|last)]; repeatable")
	f.StringArrayVar(&opts.emmeans, "emmeans", nil, "marginal means EFFECT[:COMPARE]; repeatable")
	f.StringVar(&opts.adjust, "adjust", "lsd", "pairwise adjustment: lsd, bonferroni or sidak")
	f.BoolVar(&opts.params, "params", false, "print parameter estimates")
	f.BoolVar(&opts.descriptives, "descriptives", false, "print cell descriptives")
	f.BoolVar(&opts.levene, "levene", false, "run Levene's test of equal error variances")
	f.StringVar(&opts.leveneCenter, "levene-center", "mean", "Levene centre: mean or median")
	f.StringVar(&opts.format, "format", "table", "output format: table, markdown, html or json")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")

	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("dep")
	return cmd
}

func runAnalyze(ctx context.Context, stdout io.Writer, opts analyzeOptions) error {
	cfg, err := config.LoadFile(opts.envFile)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg.Logging.Level)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	readerCfg := excel.DefaultReaderConfig()
	readerCfg.Sheet = opts.sheet
	var reader ports.DatasetReader = excel.NewDataReader(opts.data, readerCfg, logger)
	ds, err := reader.ReadData()
	if err != nil {
		return err
	}

	svc := app.NewGLMService(cfg.GLM, distributions.New(), logger)
	reports, err := svc.AnalyzeMany(ctx, ds, req, opts.dependents)
	if err != nil {
		return err
	}

	w := stdout
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer file.Close()
		w = file
	}
	return report.NewRenderer(format).Render(w, reports)
}

// buildRequest turns flag values into an analysis request
func buildRequest(opts analyzeOptions) (app.AnalysisRequest, error) {
	req := app.AnalysisRequest{
		Model: glm.ModelConfig{
			Factors:             opts.factors,
			RandomFactors:       opts.random,
			Covariates:          opts.covariates,
			Terms:               opts.terms,
			MaxInteractionOrder: opts.maxOrder,
			Weight:              opts.weight,
			ExcludeIntercept:    opts.noIntercept,
		},
		ParameterEstimates: opts.params,
		Descriptives:       opts.descriptives,
		Levene:             opts.levene,
	}
	center, err := levene.ParseCenter(opts.leveneCenter)
	if err != nil {
		return req, err
	}
	req.LeveneCenter = center
	if opts.ssType != "" {
		ss, err := glm.ParseSSType(opts.ssType)
		if err != nil {
			return req, err
		}
		req.SSType = ss
	}

	contrasts, err := parseContrasts(opts.contrasts)
	if err != nil {
		return req, err
	}
	req.Contrasts = contrasts

	adjust, err := glm.ParseAdjustMethod(opts.adjust)
	if err != nil {
		return req, fmt.Errorf("--adjust %q: %w", opts.adjust, err)
	}
	emms, err := parseEMMeans(opts.emmeans, adjust)
	if err != nil {
		return req, err
	}
	req.EMMeans = emms
	return req, nil
}
