// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator.
//  5. Cross-validate the threshold tables (band ordering) so a misconfigured
//     alert table can never reach the evaluator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"cropsense/internal/types"
)

// LoadConfig loads and validates the cropsense configuration. Any failure is
// a ConfigurationError: fatal at startup, never recoverable per-call.
func LoadConfig() (*Config, error) {
	// Enforce UTC so the dedup day boundary and season months never drift
	// with host timezone.
	time.Local = time.UTC

	// Load .env if present. It does NOT override existing env vars.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigMissingValue,
			"failed to process environment configuration", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalidThreshold,
			"configuration validation failed", err)
	}

	if err := cfg.Alerts.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Prediction.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the semantic ordering of the alert threshold bands.
// Struct-tag validation cannot express cross-field constraints, so band
// ordering lives here.
func (t AlertThresholds) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{t.HeatWarning > t.HeatAdvisory, "heat warning threshold must exceed heat advisory"},
		{t.FrostWarning < t.ColdAdvisory, "frost warning threshold must be below cold advisory"},
		{t.HumidityHigh > t.HumidityLow, "high humidity threshold must exceed low humidity threshold"},
		{t.RainWarning > t.RainAdvisory, "rain warning threshold must exceed rain advisory"},
		{t.WindWarning > t.WindAdvisory, "wind warning threshold must exceed wind advisory"},
		{t.UVWarning > t.UVAdvisory, "UV warning threshold must exceed UV advisory"},
		{len(t.DrySeasonMonths) > 0, "dry season months must not be empty"},
	}
	for _, c := range checks {
		if !c.ok {
			return types.NewAppError(types.ErrCodeConfigInvalidThreshold, c.msg, nil)
		}
	}
	for _, m := range t.DrySeasonMonths {
		if m < 1 || m > 12 {
			return types.NewAppError(types.ErrCodeConfigInvalidThreshold,
				fmt.Sprintf("dry season month out of range: %d", m), nil)
		}
	}
	return nil
}

// Validate checks the semantic ordering of the prediction bands.
func (p PredictionConfig) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{p.PestTempMax > p.PestTempMin, "pest temperature band must have max > min"},
		{p.SoilMoistureMax > p.SoilMoistureMin, "soil moisture band must have max > min"},
		{p.CropTempMax > p.CropTempMin, "crop temperature band must have max > min"},
	}
	for _, c := range checks {
		if !c.ok {
			return types.NewAppError(types.ErrCodeConfigInvalidThreshold, c.msg, nil)
		}
	}
	return nil
}
