package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one case of the analysis data, keyed by variable name.
// Values may be float64, int, string, bool or nil (missing).
type Record map[string]any

// Dataset is an ordered collection of records
type Dataset struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasColumn reports whether name is a known variable of the dataset
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	// Datasets built in code may leave Columns empty
	if len(d.Columns) == 0 {
		for _, r := range d.Records {
			if _, ok := r[name]; ok {
				return true
			}
		}
	}
	return false
}

// FactorLevels returns the sorted unique levels of a factor over all records
func (d *Dataset) FactorLevels(name string) ([]string, error) {
	if !d.HasColumn(name) {
		return nil, fmt.Errorf("variable %q not present in dataset", name)
	}
	return Levels(d.Records, name), nil
}

// NumericValue extracts a finite numeric value for name from r
func NumericValue(r Record, name string) (float64, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LevelValue extracts the factor level label for name from r
func LevelValue(r Record, name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case float32:
		return LevelValue(Record{name: float64(x)}, name)
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// Levels returns the sorted unique levels of name among records.
// Levels that all parse as numbers are ordered numerically.
func Levels(records []Record, name string) []string {
	seen := make(map[string]struct{})
	var levels []string
	for _, r := range records {
		lv, ok := LevelValue(r, name)
		if !ok {
			continue
		}
		if _, dup := seen[lv]; dup {
			continue
		}
		seen[lv] = struct{}{}
		levels = append(levels, lv)
	}
	SortLevels(levels)
	return levels
}

// SortLevels orders levels numerically when possible, lexically otherwise
func SortLevels(levels []string) {
	numeric := true
	values := make(map[string]float64, len(levels))
	for _, lv := range levels {
		f, err := strconv.ParseFloat(lv, 64)
		if err != nil {
			numeric = false
			break
		}
		values[lv] = f
	}
	if numeric {
		sort.SliceStable(levels, func(i, j int) bool { return values[levels[i]] < values[levels[j]] })
		return
	}
	sort.Strings(levels)
}
