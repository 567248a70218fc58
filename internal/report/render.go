package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"glmengine/domain/glm"
	"glmengine/internal/errors"
)

// Renderer writes reports in one format
type Renderer struct {
	format Format
}

// NewRenderer creates a renderer for format
func NewRenderer(format Format) *Renderer {
	return &Renderer{format: format}
}

// Render writes every report to w
func (r *Renderer) Render(w io.Writer, reports []*glm.UnivariateReport) error {
	var out string
	switch r.format {
	case FormatJSON:
		data, err := json.MarshalIndent(jsonValue(reports), "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode report")
		}
		out = string(data) + "\n"
	case FormatMarkdown:
		out = Markdown(reports)
	case FormatHTML:
		out = string(HTML(reports))
	default:
		out = Text(reports)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return errors.IOError("write report", err)
	}
	return nil
}

// Text renders box-drawn tables for a terminal
func Text(reports []*glm.UnivariateReport) string {
	var b strings.Builder
	for _, rep := range reports {
		for _, s := range sections(rep) {
			b.WriteString(s.title + "\n")
			b.WriteString(s.tbl.Render() + "\n")
			for _, n := range s.notes {
				b.WriteString("  " + n + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders one heading and one pipe table per section
func Markdown(reports []*glm.UnivariateReport) string {
	var b strings.Builder
	for _, rep := range reports {
		fmt.Fprintf(&b, "# Univariate analysis of %s\n\nAnalysis %s\n\n", rep.Dependent, rep.AnalysisID)
		for _, s := range sections(rep) {
			b.WriteString("## " + s.title + "\n\n")
			b.WriteString(s.tbl.RenderMarkdown() + "\n\n")
			for _, n := range s.notes {
				b.WriteString("_" + n + "_\n\n")
			}
		}
	}
	return b.String()
}

// HTML converts the markdown rendering into a standalone page
func HTML(reports []*glm.UnivariateReport) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "GLM report",
	})
	return markdown.ToHTML([]byte(Markdown(reports)), p, renderer)
}
