package main

import (
	"fmt"
	"strings"

	"glmengine/domain/glm"
	"glmengine/internal/glm/contrast"
	"glmengine/internal/glm/emmeans"
)

// parseContrasts reads FACTOR=SPEC values
func parseContrasts(values []string) ([]contrast.Request, error) {
	out := make([]contrast.Request, 0, len(values))
	for _, v := range values {
		factor, spec, ok := strings.Cut(v, "=")
		factor, spec = strings.TrimSpace(factor), strings.TrimSpace(spec)
		if !ok || factor == "" || spec == "" {
			return nil, fmt.Errorf("--contrast %q: want FACTOR=METHOD", v)
		}
		if _, err := contrast.ParseSpec(spec); err != nil {
			return nil, err
		}
		out = append(out, contrast.Request{Factor: factor, Spec: spec})
	}
	return out, nil
}

// parseEMMeans reads EFFECT[:COMPARE] values
func parseEMMeans(values []string, adjust glm.AdjustMethod) ([]emmeans.Request, error) {
	out := make([]emmeans.Request, 0, len(values))
	for _, v := range values {
		effect, compare, _ := strings.Cut(v, ":")
		effect = strings.TrimSpace(effect)
		if effect == "" {
			return nil, fmt.Errorf("--emmeans %q: missing effect", v)
		}
		out = append(out, emmeans.Request{
			Effect:  effect,
			Compare: strings.TrimSpace(compare),
			Adjust:  adjust,
		})
	}
	return out, nil
}
