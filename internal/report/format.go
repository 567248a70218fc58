// Package report renders analysis reports as terminal tables, markdown,
// HTML or JSON.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"glmengine/domain/core"
	"glmengine/internal/errors"
)

// Format selects the output representation
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat accepts table, markdown (md), html and json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.InvalidInput(core.ErrInvalidModel, fmt.Sprintf("unknown output format %q", s))
}

// missing is printed for undefined statistics
const missing = "."

func num(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return missing
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

func sig(p float64) string {
	if !math.IsNaN(p) && p < 0.0005 {
		return "<.001"
	}
	return num(p, 3)
}
