package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"glmengine/domain/glm"
)

// section is one titled table of a report
type section struct {
	title string
	tbl   table.Writer
	notes []string
}

func newTable(header ...any) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.AppendHeader(table.Row(header))
	return tbl
}

// sections lays out every part of report that carries data
func sections(r *glm.UnivariateReport) []section {
	var out []section
	out = append(out, betweenSubjects(r))
	out = append(out, summarySection(r))
	if len(r.Descriptives) > 0 {
		out = append(out, descriptives(r))
	}
	if r.Levene != nil {
		out = append(out, leveneSection(r))
	}
	if len(r.Parameters) > 0 {
		out = append(out, parameters(r))
	}
	for _, c := range r.Contrasts {
		out = append(out, contrastSections(c)...)
	}
	for _, e := range r.EMMeans {
		out = append(out, emmeansSections(e)...)
	}
	return out
}

func betweenSubjects(r *glm.UnivariateReport) section {
	tbl := newTable("Source", r.SSType.String()+" Sum of Squares", "df", "Mean Square", "F", "Sig.",
		"Partial Eta Squared", "Noncent. Parameter", "Observed Power")
	for _, t := range r.Tests {
		tbl.AppendRow(table.Row{
			t.Source, num(t.SumOfSquares, 3), t.DF, num(t.MeanSquare, 3), num(t.F, 3), sig(t.Significance),
			num(t.PartialEtaSquared, 3), num(t.Noncentrality, 3), num(t.ObservedPower, 3),
		})
	}
	tbl.AppendRow(table.Row{"Error", num(r.Error.SumOfSquares, 3), r.Error.DF, num(r.Error.MeanSquare, 3)})
	tbl.AppendRow(table.Row{"Total", num(r.Total.SumOfSquares, 3), r.Total.DF})
	tbl.AppendRow(table.Row{"Corrected Total", num(r.CorrectedTotal.SumOfSquares, 3), r.CorrectedTotal.DF})

	s := section{title: "Tests of Between-Subjects Effects (Dependent Variable: " + r.Dependent + ")", tbl: tbl}
	if len(r.Aliased) > 0 {
		s.notes = append(s.notes, "Redundant parameters: "+strings.Join(r.Aliased, ", "))
	}
	return s
}

func summarySection(r *glm.UnivariateReport) section {
	tbl := newTable("N", "Rank", "R Squared", "Adjusted R Squared", "MSE", "df Error")
	s := r.Summary
	tbl.AppendRow(table.Row{s.N, s.Rank, num(s.RSquared, 3), num(s.AdjustedRSquared, 3), num(s.MSE, 3), s.DFError})
	return section{title: "Model Summary", tbl: tbl}
}

func descriptives(r *glm.UnivariateReport) section {
	factors := levelKeys(r.Descriptives[0].Levels)
	header := make([]any, 0, len(factors)+5)
	for _, f := range factors {
		header = append(header, f)
	}
	header = append(header, "N", "Mean", "Std. Deviation", "Minimum", "Maximum")
	tbl := newTable(header...)
	for _, d := range r.Descriptives {
		row := make(table.Row, 0, len(header))
		for _, f := range factors {
			lvl, ok := d.Levels[f]
			if !ok {
				lvl = "Total"
			}
			row = append(row, lvl)
		}
		row = append(row, d.N, num(d.Mean, 3), num(d.StdDev, 3), num(d.Min, 3), num(d.Max, 3))
		tbl.AppendRow(row)
	}
	return section{title: "Descriptive Statistics", tbl: tbl}
}

func leveneSection(r *glm.UnivariateReport) section {
	tbl := newTable("Based on", "F", "df1", "df2", "Sig.")
	l := r.Levene
	tbl.AppendRow(table.Row{l.Center, num(l.F, 3), l.DF1, l.DF2, sig(l.Significance)})
	return section{title: "Levene's Test of Equality of Error Variances", tbl: tbl}
}

func parameters(r *glm.UnivariateReport) section {
	tbl := newTable("Parameter", "B", "Std. Error", "t", "Sig.", "Lower Bound", "Upper Bound",
		"Partial Eta Squared", "Noncent. Parameter", "Observed Power")
	var notes []string
	for _, p := range r.Parameters {
		name := p.Parameter
		if p.Redundant {
			name += " (redundant)"
		}
		tbl.AppendRow(table.Row{
			name, num(p.Estimate, 3), num(p.StdError, 3), num(p.T, 3), sig(p.Significance),
			num(p.LowerBound, 3), num(p.UpperBound, 3), num(p.PartialEtaSquared, 3),
			num(p.Noncentrality, 3), num(p.ObservedPower, 3),
		})
	}
	if len(r.Aliased) > 0 {
		notes = append(notes, "Redundant parameters are set to zero.")
	}
	return section{title: "Parameter Estimates", tbl: tbl, notes: notes}
}

func contrastSections(c glm.ContrastReport) []section {
	res := newTable("Contrast", "Estimate", "Std. Error", "Sig.", "Lower Bound", "Upper Bound")
	for _, row := range c.Results {
		res.AppendRow(table.Row{
			row.Label, num(row.Estimate, 3), num(row.StdError, 3), sig(row.Significance),
			num(row.LowerBound, 3), num(row.UpperBound, 3),
		})
	}
	test := newTable("Source", "Sum of Squares", "df", "Mean Square", "F", "Sig.")
	ct := c.Test.Contrast
	test.AppendRow(table.Row{"Contrast", num(ct.SumOfSquares, 3), ct.DF, num(ct.MeanSquare, 3), num(ct.F, 3), sig(ct.Significance)})
	e := c.Test.Error
	test.AppendRow(table.Row{"Error", num(e.SumOfSquares, 3), e.DF, num(e.MeanSquare, 3)})
	return []section{
		{title: fmt.Sprintf("Contrast Results (%s, %s)", c.Factor, c.Method), tbl: res},
		{title: fmt.Sprintf("Test Results (%s, %s)", c.Factor, c.Method), tbl: test},
	}
}

func emmeansSections(e glm.EMMeansReport) []section {
	var factors []string
	if len(e.Estimates) > 0 && len(e.Estimates[0].Levels) > 0 {
		factors = strings.Split(e.Effect, "*")
	}
	header := make([]any, 0, len(factors)+4)
	for _, f := range factors {
		header = append(header, f)
	}
	header = append(header, "Mean", "Std. Error", "Lower Bound", "Upper Bound")
	est := newTable(header...)
	var notes []string
	for _, m := range e.Estimates {
		row := make(table.Row, 0, len(header))
		for _, f := range factors {
			row = append(row, m.Levels[f])
		}
		row = append(row, num(m.Mean, 3), num(m.StdError, 3), num(m.LowerBound, 3), num(m.UpperBound, 3))
		est.AppendRow(row)
		if !m.Estimable && len(notes) == 0 {
			notes = append(notes, "Some marginal means are not estimable.")
		}
	}
	out := []section{{title: "Estimated Marginal Means: " + e.Effect, tbl: est, notes: notes}}

	if len(e.Pairwise) > 0 {
		pw := newTable("Given", "(I)", "(J)", "Mean Difference (I-J)", "Std. Error", "Sig.", "Lower Bound", "Upper Bound")
		for _, p := range e.Pairwise {
			pw.AppendRow(table.Row{
				givenLabel(p.Given), p.LevelI, p.LevelJ, num(p.Difference, 3), num(p.StdError, 3),
				sig(p.Significance), num(p.LowerBound, 3), num(p.UpperBound, 3),
			})
		}
		adj := e.Pairwise[0].Adjustment
		out = append(out, section{
			title: "Pairwise Comparisons: " + e.Pairwise[0].Factor,
			tbl:   pw,
			notes: []string{"Adjustment for multiple comparisons: " + string(adj)},
		})
	}
	if len(e.UnivariateTests) > 0 {
		ut := newTable("Source", "Sum of Squares", "df", "Mean Square", "F", "Sig.")
		for _, t := range e.UnivariateTests {
			ut.AppendRow(table.Row{t.Source, num(t.SumOfSquares, 3), t.DF, num(t.MeanSquare, 3), num(t.F, 3), sig(t.Significance)})
		}
		out = append(out, section{title: "Univariate Tests: " + e.Effect, tbl: ut})
	}
	return out
}

func levelKeys(levels map[string]string) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func givenLabel(given map[string]string) string {
	if len(given) == 0 {
		return ""
	}
	parts := make([]string, 0, len(given))
	for _, k := range levelKeys(given) {
		parts = append(parts, k+"="+given[k])
	}
	return strings.Join(parts, ", ")
}
