package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"glmengine/internal"
	"glmengine/internal/errors"
)

// Config represents the complete engine configuration
type Config struct {
	GLM     GLMConfig
	Logging LoggingConfig
}

// GLMConfig holds the numerical settings shared by every analysis
type GLMConfig struct {
	SweepTolerance float64 // relative pivot threshold for the SWEEP operator
	Alpha          float64 // significance level for intervals and comparisons
	PowerAlpha     float64 // significance level used for observed power
	Workers        int     // concurrent hypothesis evaluations per analysis
	DefaultSSType  int     // 1..4
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level internal.LogLevel
}

// Default returns the settings used when no environment is present
func Default() *Config {
	return &Config{
		GLM: GLMConfig{
			SweepTolerance: 1e-10,
			Alpha:          0.05,
			PowerAlpha:     0.05,
			Workers:        runtime.NumCPU(),
			DefaultSSType:  3,
		},
		Logging: LoggingConfig{Level: internal.LogLevelInfo},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := Default()
	config.GLM = loadGLMConfig(config.GLM)
	config.Logging.Level = internal.ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadFile loads a dotenv file into the process environment, then calls Load
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, errors.IOError(fmt.Sprintf("failed to load env file %s", path), err)
		}
	}
	return Load()
}

func loadGLMConfig(defaults GLMConfig) GLMConfig {
	return GLMConfig{
		SweepTolerance: getEnvFloatOrDefault("GLM_SWEEP_TOLERANCE", defaults.SweepTolerance),
		Alpha:          getEnvFloatOrDefault("GLM_ALPHA", defaults.Alpha),
		PowerAlpha:     getEnvFloatOrDefault("GLM_POWER_ALPHA", defaults.PowerAlpha),
		Workers:        getEnvIntOrDefault("GLM_WORKERS", defaults.Workers),
		DefaultSSType:  getEnvIntOrDefault("GLM_DEFAULT_SS_TYPE", defaults.DefaultSSType),
	}
}

func validateConfig(config *Config) error {
	g := config.GLM
	if g.SweepTolerance <= 0 || g.SweepTolerance >= 1 {
		return errors.ConfigInvalid("GLM_SWEEP_TOLERANCE must be in (0,1)")
	}
	if g.Alpha <= 0 || g.Alpha >= 1 {
		return errors.ConfigInvalid("GLM_ALPHA must be in (0,1)")
	}
	if g.PowerAlpha <= 0 || g.PowerAlpha >= 1 {
		return errors.ConfigInvalid("GLM_POWER_ALPHA must be in (0,1)")
	}
	if g.Workers < 1 {
		return errors.ConfigInvalid("GLM_WORKERS must be at least 1")
	}
	if g.DefaultSSType < 1 || g.DefaultSSType > 4 {
		return errors.ConfigInvalid("GLM_DEFAULT_SS_TYPE must be between 1 and 4")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
