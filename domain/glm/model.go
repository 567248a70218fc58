package glm

import (
	"fmt"
	"strings"

	"glmengine/domain/core"
)

// InterceptTerm is the reserved name of the constant term
const InterceptTerm = "Intercept"

// SSType selects a sum-of-squares convention
type SSType int

const (
	SSTypeI SSType = iota + 1
	SSTypeII
	SSTypeIII
	SSTypeIV
)

func (t SSType) String() string {
	switch t {
	case SSTypeI:
		return "Type I"
	case SSTypeII:
		return "Type II"
	case SSTypeIII:
		return "Type III"
	case SSTypeIV:
		return "Type IV"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseSSType accepts 1-4 or roman numerals with an optional "type" prefix
func ParseSSType(s string) (SSType, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimPrefix(v, "TYPE"))
	switch v {
	case "1", "I":
		return SSTypeI, nil
	case "2", "II":
		return SSTypeII, nil
	case "3", "III":
		return SSTypeIII, nil
	case "4", "IV":
		return SSTypeIV, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnknownSSType, s)
}

// Valid reports whether t is one of the four conventions
func (t SSType) Valid() bool {
	return t >= SSTypeI && t <= SSTypeIV
}

// ModelConfig describes a univariate general linear model
type ModelConfig struct {
	Dependent     string   `json:"dependent"`
	Factors       []string `json:"factors,omitempty"`
	RandomFactors []string `json:"random_factors,omitempty"`
	Covariates    []string `json:"covariates,omitempty"`
	// Terms lists the model terms in declaration order, excluding the
	// intercept. Empty means "build all up to MaxInteractionOrder".
	Terms []string `json:"terms,omitempty"`
	// MaxInteractionOrder bounds generated factor interactions; 0 is full factorial.
	MaxInteractionOrder int    `json:"max_interaction_order,omitempty"`
	Weight              string `json:"weight,omitempty"`
	ExcludeIntercept    bool   `json:"exclude_intercept,omitempty"`
}

// AllFactors returns fixed then random factors
func (c ModelConfig) AllFactors() []string {
	out := make([]string, 0, len(c.Factors)+len(c.RandomFactors))
	out = append(out, c.Factors...)
	return append(out, c.RandomFactors...)
}

// IsFactor reports whether name is a fixed or random factor
func (c ModelConfig) IsFactor(name string) bool {
	for _, f := range c.AllFactors() {
		if f == name {
			return true
		}
	}
	return false
}

// IsCovariate reports whether name is a covariate
func (c ModelConfig) IsCovariate(name string) bool {
	for _, v := range c.Covariates {
		if v == name {
			return true
		}
	}
	return false
}

// Term is a model effect: the intercept, a main effect or an interaction
type Term struct {
	Name       string   `json:"name"`
	Factors    []string `json:"factors,omitempty"`
	Covariates []string `json:"covariates,omitempty"`
}

// IsIntercept reports whether t is the constant term
func (t Term) IsIntercept() bool {
	return t.Name == InterceptTerm
}

// Components returns factors followed by covariates
func (t Term) Components() []string {
	out := make([]string, 0, len(t.Factors)+len(t.Covariates))
	out = append(out, t.Factors...)
	return append(out, t.Covariates...)
}

// HasFactor reports whether f is one of the term's factors
func (t Term) HasFactor(f string) bool {
	return containsString(t.Factors, f)
}

// HasCovariates reports whether any covariate enters the term
func (t Term) HasCovariates() bool {
	return len(t.Covariates) > 0
}

// Contains reports whether t is a higher-order relative of o: t differs
// from o and its components are a superset of o's.
func (t Term) Contains(o Term) bool {
	if t.Name == o.Name || t.IsIntercept() {
		return false
	}
	for _, c := range o.Components() {
		if !containsString(t.Components(), c) {
			return false
		}
	}
	return len(t.Components()) > len(o.Components())
}

// ParseTerm splits a term name on '*' and resolves each part against cfg
func ParseTerm(name string, cfg ModelConfig) (Term, error) {
	name = strings.TrimSpace(name)
	if name == InterceptTerm {
		return Term{Name: InterceptTerm}, nil
	}
	if name == "" {
		return Term{}, fmt.Errorf("%w: empty term", core.ErrInvalidModel)
	}
	t := Term{}
	seen := make(map[string]bool)
	var parts []string
	for _, raw := range strings.Split(name, "*") {
		p := strings.TrimSpace(raw)
		if p == "" {
			return Term{}, fmt.Errorf("%w: malformed term %q", core.ErrInvalidModel, name)
		}
		if seen[p] {
			return Term{}, fmt.Errorf("%w: term %q repeats %q", core.ErrInvalidModel, name, p)
		}
		seen[p] = true
		parts = append(parts, p)
		switch {
		case cfg.IsFactor(p):
			t.Factors = append(t.Factors, p)
		case cfg.IsCovariate(p):
			t.Covariates = append(t.Covariates, p)
		default:
			return Term{}, core.NewUnknownVariableError(p)
		}
	}
	t.Name = strings.Join(parts, "*")
	return t, nil
}

// TermSet keeps model terms in declaration order with a name index
type TermSet struct {
	terms []Term
	index map[string]int
}

// NewTermSet creates an empty ordered term container
func NewTermSet() *TermSet {
	return &TermSet{index: make(map[string]int)}
}

// Add appends t; duplicate names are rejected
func (s *TermSet) Add(t Term) error {
	if _, dup := s.index[t.Name]; dup {
		return fmt.Errorf("%w: duplicate term %q", core.ErrInvalidModel, t.Name)
	}
	s.index[t.Name] = len(s.terms)
	s.terms = append(s.terms, t)
	return nil
}

// Get returns the term called name
func (s *TermSet) Get(name string) (Term, error) {
	i, ok := s.index[name]
	if !ok {
		return Term{}, core.NewUnknownTermError(name)
	}
	return s.terms[i], nil
}

// Index returns the declaration position of name, or -1
func (s *TermSet) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Terms returns the terms in declaration order
func (s *TermSet) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Names returns the term names in declaration order
func (s *TermSet) Names() []string {
	out := make([]string, len(s.terms))
	for i, t := range s.terms {
		out[i] = t.Name
	}
	return out
}

// Len returns the number of terms
func (s *TermSet) Len() int {
	return len(s.terms)
}

// BuildTermSet resolves the model's term list. The intercept comes first
// unless excluded. Without explicit terms, covariates come first, then
// factor main effects, then factor interactions in increasing order.
func BuildTermSet(cfg ModelConfig) (*TermSet, error) {
	set := NewTermSet()
	if !cfg.ExcludeIntercept {
		if err := set.Add(Term{Name: InterceptTerm}); err != nil {
			return nil, err
		}
	}
	names := cfg.Terms
	if len(names) == 0 {
		names = GenerateTerms(cfg)
	}
	for _, n := range names {
		t, err := ParseTerm(n, cfg)
		if err != nil {
			return nil, err
		}
		if t.IsIntercept() {
			continue
		}
		if err := set.Add(t); err != nil {
			return nil, err
		}
	}
	if set.Len() == 0 {
		return nil, core.ErrEmptyModel
	}
	return set, nil
}

// GenerateTerms builds covariates, main effects and factor interactions
// up to cfg.MaxInteractionOrder (0 meaning all factors).
func GenerateTerms(cfg ModelConfig) []string {
	factors := cfg.AllFactors()
	var out []string
	out = append(out, cfg.Covariates...)
	maxOrder := cfg.MaxInteractionOrder
	if maxOrder <= 0 || maxOrder > len(factors) {
		maxOrder = len(factors)
	}
	for order := 1; order <= maxOrder; order++ {
		for _, combo := range combinations(len(factors), order) {
			parts := make([]string, len(combo))
			for i, idx := range combo {
				parts[i] = factors[idx]
			}
			out = append(out, strings.Join(parts, "*"))
		}
	}
	return out
}

// combinations returns the k-subsets of 0..n-1 in lexicographic order
func combinations(n, k int) [][]int {
	var out [][]int
	combo := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			c := make([]int, k)
			copy(c, combo)
			out = append(out, c)
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			combo[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
