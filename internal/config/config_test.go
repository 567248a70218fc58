package config

import (
	"os"
	"path/filepath"
	"testing"

	"glmengine/internal"
	"glmengine/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.GLM.Alpha)
	assert.Equal(t, 3, cfg.GLM.DefaultSSType)
	assert.GreaterOrEqual(t, cfg.GLM.Workers, 1)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GLM_ALPHA", "0.01")
	t.Setenv("GLM_WORKERS", "2")
	t.Setenv("GLM_DEFAULT_SS_TYPE", "1")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.GLM.Alpha)
	assert.Equal(t, 2, cfg.GLM.Workers)
	assert.Equal(t, 1, cfg.GLM.DefaultSSType)
	assert.Equal(t, internal.LogLevelDebug, cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("GLM_DEFAULT_SS_TYPE", "5")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glm.env")
	require.NoError(t, os.WriteFile(path, []byte("GLM_SWEEP_TOLERANCE=1e-8\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GLM_SWEEP_TOLERANCE") })

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1e-8, cfg.GLM.SweepTolerance)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
}
