package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glmengine/domain/glm"
	"glmengine/internal/glm/contrast"
)

func TestParseContrasts(t *testing.T) {
	got, err := parseContrasts([]string{"dose=polynomial", " soil = simple(first) "})
	require.NoError(t, err)
	assert.Equal(t, []contrast.Request{
		{Factor: "dose", Spec: "polynomial"},
		{Factor: "soil", Spec: "simple(first)"},
	}, got)

	_, err = parseContrasts([]string{"dose"})
	assert.Error(t, err)
	_, err = parseContrasts([]string{"dose=tukey"})
	assert.Error(t, err)
}

func TestParseEMMeans(t *testing.T) {
	got, err := parseEMMeans([]string{"A*B:A", "B"}, glm.AdjustSidak)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A*B", got[0].Effect)
	assert.Equal(t, "A", got[0].Compare)
	assert.Equal(t, glm.AdjustSidak, got[0].Adjust)
	assert.Empty(t, got[1].Compare)

	_, err = parseEMMeans([]string{":A"}, glm.AdjustLSD)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(analyzeOptions{
		factors: []string{"A"},
		ssType:  "II",
		adjust:  "bonferroni",
		emmeans: []string{"A:A"},
	})
	require.NoError(t, err)
	assert.Equal(t, glm.SSTypeII, req.SSType)
	assert.Equal(t, glm.AdjustBonferroni, req.EMMeans[0].Adjust)

	_, err = buildRequest(analyzeOptions{adjust: "tukey"})
	assert.Error(t, err)
	_, err = buildRequest(analyzeOptions{ssType: "V"})
	assert.Error(t, err)
}

func TestRunAnalyzeJSON(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "two.csv")
	require.NoError(t, os.WriteFile(data, []byte("y,group\n10,A\n12,A\n14,A\n20,B\n22,B\n24,B\n"), 0o644))

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, analyzeOptions{
		data:         data,
		dependents:   []string{"y"},
		factors:      []string{"group"},
		adjust:       "lsd",
		leveneCenter: "mean",
		format:       "json",
	})
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 1)
	tests := reports[0]["tests"].([]any)
	group := tests[2].(map[string]any)
	assert.Equal(t, "group", group["source"])
	assert.InDelta(t, 37.5, group["f"].(float64), 1e-8)
}
