// Package config defines the global configuration for the cropsense service.
// Configuration is loaded once at process initialization and is immutable
// thereafter. It follows 12-Factor principles by strictly separating code
// from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// All inference thresholds (alert bands, pest-risk bands, evapotranspiration
// constants, season months) live here rather than at call sites. Any missing
// required value or semantically invalid threshold table fails startup
// immediately (fail fast); threshold configuration is never recoverable
// per-call.
package config

import (
	"time"
)

// Config is the top-level configuration struct for the cropsense service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"cropsense"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server     ServerConfig
	Database   DatabaseConfig
	AWS        AWSConfig
	Weather    WeatherConfig
	Analysis   AnalysisConfig
	Prediction PredictionConfig
	Alerts     AlertThresholds
	Scheduler  SchedulerConfig
}

// ServerConfig holds HTTP server configuration for the read API.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"omitempty,url"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration for
// alert dispatch (SQS) and cycle metrics (CloudWatch).
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	AlertQueueUrgent   string `envconfig:"SQS_ALERTS_URGENT" validate:"omitempty,url"`
	AlertQueueStandard string `envconfig:"SQS_ALERTS_STANDARD" validate:"omitempty,url"`
	MetricNamespace    string `envconfig:"METRIC_NAMESPACE" default:"CropSense"`

	// LocalStack support (empty in prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// WeatherConfig holds the upstream weather data source endpoints and the
// fallback cache settings. The primary source is preferred; the secondary is
// tried on primary failure, and the local snapshot cache is the last resort.
type WeatherConfig struct {
	PrimaryBaseURL   string        `envconfig:"WEATHER_PRIMARY_URL" default:"https://api.open-meteo.com/v1"`
	SecondaryBaseURL string        `envconfig:"WEATHER_SECONDARY_URL"`
	FetchTimeout     time.Duration `envconfig:"WEATHER_FETCH_TIMEOUT" default:"10s"`
	UserAgent        string        `envconfig:"WEATHER_USER_AGENT" default:"CropSense/1.0"`

	CacheDir string        `envconfig:"WEATHER_CACHE_DIR" default:"/var/cache/cropsense"`
	CacheTTL time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"24h"`
}

// AnalysisConfig holds the pattern-analysis tunables.
type AnalysisConfig struct {
	// TrendDeadBand is the symmetric fractional dead-band around 1.0 within
	// which a half-to-half mean change is classified as stable. 0.05 means
	// second-half mean must exceed first-half mean by more than 5% to count
	// as increasing.
	TrendDeadBand float64 `envconfig:"ANALYSIS_TREND_DEADBAND" default:"0.05" validate:"gt=0,lt=1"`

	// AnomalyStdDevs is the number of standard deviations beyond the window
	// mean at which an observation is flagged anomalous.
	AnomalyStdDevs float64 `envconfig:"ANALYSIS_ANOMALY_STDDEVS" default:"2.0" validate:"gt=0"`

	// AnomalyAbsFallback is the absolute deviation used when window
	// statistics are degenerate (near-zero standard deviation).
	AnomalyAbsFallback float64 `envconfig:"ANALYSIS_ANOMALY_ABS_FALLBACK" default:"5.0" validate:"gt=0"`

	// Season labelling months, location-agnostic Southern-Hemisphere
	// convention by default.
	WetSeasonMonths []int `envconfig:"ANALYSIS_WET_MONTHS" default:"11,12,1,2,3"`

	// Severity weighting: severity = AnomalyWeight*anomalies +
	// TrendWeight*|change ratio - 1|*10, clamped to [0,10].
	SeverityAnomalyWeight float64 `envconfig:"ANALYSIS_SEVERITY_ANOMALY_WEIGHT" default:"1.5" validate:"gte=0"`
	SeverityTrendWeight   float64 `envconfig:"ANALYSIS_SEVERITY_TREND_WEIGHT" default:"4.0" validate:"gte=0"`
}

// PredictionConfig holds the agro-climatic derivation tunables. The exact
// legacy constants are not authoritative; these defaults follow a simplified
// reference-crop evapotranspiration estimate and generic maize-belt bounds,
// all overridable per deployment.
type PredictionConfig struct {
	// Evapotranspiration: ET0 = ETBase * (T + 17.8) * (1 + ETWindFactor*W) * (1 - RH/100)
	// The default base yields roughly 4-6 mm/day for a warm, breezy,
	// half-saturated day.
	ETBaseCoefficient float64 `envconfig:"PREDICT_ET_BASE" default:"0.08" validate:"gt=0"`
	ETWindFactor      float64 `envconfig:"PREDICT_ET_WIND_FACTOR" default:"0.536" validate:"gte=0"`

	// Soil-moisture bookkeeping (percentage points per mm).
	InitialSoilMoisture float64 `envconfig:"PREDICT_SOIL_INITIAL" default:"50" validate:"gte=0,lte=100"`
	PrecipGainPerMM     float64 `envconfig:"PREDICT_SOIL_PRECIP_GAIN" default:"2.0" validate:"gt=0"`
	ETLossPerMM         float64 `envconfig:"PREDICT_SOIL_ET_LOSS" default:"3.0" validate:"gt=0"`

	// Pest/disease risk bands.
	HighHumidityThreshold float64 `envconfig:"PREDICT_HIGH_HUMIDITY" default:"80" validate:"gt=0,lte=100"`
	PestTempMin           float64 `envconfig:"PREDICT_PEST_TEMP_MIN" default:"20"`
	PestTempMax           float64 `envconfig:"PREDICT_PEST_TEMP_MAX" default:"32"`

	// Yield degradation bounds.
	YieldBaseline    float64 `envconfig:"PREDICT_YIELD_BASELINE" default:"85" validate:"gt=0,lte=100"`
	SoilMoistureMin  float64 `envconfig:"PREDICT_SOIL_MIN" default:"30"`
	SoilMoistureMax  float64 `envconfig:"PREDICT_SOIL_MAX" default:"80"`
	CropTempMin      float64 `envconfig:"PREDICT_CROP_TEMP_MIN" default:"10"`
	CropTempMax      float64 `envconfig:"PREDICT_CROP_TEMP_MAX" default:"33"`
	YieldPenaltyStep float64 `envconfig:"PREDICT_YIELD_PENALTY" default:"15" validate:"gt=0"`

	// Growing degree day base temperature.
	GDDBaseTemp float64 `envconfig:"PREDICT_GDD_BASE" default:"10"`
}

// AlertThresholds is the threshold table applied by the alert evaluator.
// Comparisons at exact threshold values route to the lower-severity branch.
// Temperatures are degrees C, humidity percent, wind m/s, precipitation mm.
type AlertThresholds struct {
	HeatWarning  float64 `envconfig:"ALERT_HEAT_WARNING" default:"35"`
	HeatAdvisory float64 `envconfig:"ALERT_HEAT_ADVISORY" default:"30"`

	FrostWarning float64 `envconfig:"ALERT_FROST_WARNING" default:"5"`
	ColdAdvisory float64 `envconfig:"ALERT_COLD_ADVISORY" default:"10"`

	HumidityHigh float64 `envconfig:"ALERT_HUMIDITY_HIGH" default:"85"`
	HumidityLow  float64 `envconfig:"ALERT_HUMIDITY_LOW" default:"30"`

	RainWarning  float64 `envconfig:"ALERT_RAIN_WARNING" default:"20"`
	RainAdvisory float64 `envconfig:"ALERT_RAIN_ADVISORY" default:"10"`

	WindWarning  float64 `envconfig:"ALERT_WIND_WARNING" default:"25"`
	WindAdvisory float64 `envconfig:"ALERT_WIND_ADVISORY" default:"15"`

	UVWarning  float64 `envconfig:"ALERT_UV_WARNING" default:"8"`
	UVAdvisory float64 `envconfig:"ALERT_UV_ADVISORY" default:"6"`

	// Months in which a zero-precipitation observation triggers the
	// irrigation reminder. Defaults to the dry season (Apr-Oct).
	DrySeasonMonths []int `envconfig:"ALERT_DRY_MONTHS" default:"4,5,6,7,8,9,10"`
}

// SchedulerConfig holds evaluation-cycle scheduling parameters.
type SchedulerConfig struct {
	Locations    []string      `envconfig:"CYCLE_LOCATIONS" default:"Harare"`
	Interval     time.Duration `envconfig:"CYCLE_INTERVAL" default:"30m" validate:"gt=0"`
	PatternDays  int           `envconfig:"CYCLE_PATTERN_DAYS" default:"14" validate:"gte=2"`
	ForecastDays int           `envconfig:"CYCLE_FORECAST_DAYS" default:"7" validate:"gte=1"`
	FetchTimeout time.Duration `envconfig:"CYCLE_FETCH_TIMEOUT" default:"15s" validate:"gt=0"`
}
