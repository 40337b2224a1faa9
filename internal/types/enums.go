package types

// PatternType classifies a WeatherPattern finding.
type PatternType string

const (
	PatternTemperatureTrend     PatternType = "temperature_trend"
	PatternPrecipitationPattern PatternType = "precipitation_pattern"
	PatternHumidityPattern      PatternType = "humidity_pattern"
	PatternAnomaly              PatternType = "anomaly"
)

// TrendDirection classifies the movement of a metric across a window.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Season is the agro-climatic season label for a window. The default
// convention is Southern-Hemisphere: Nov-Mar wet, Apr-Oct dry.
type Season string

const (
	SeasonWet   Season = "wet"
	SeasonDry   Season = "dry"
	SeasonMixed Season = "mixed"
)

// RiskLevel grades pest and disease pressure.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Priority orders recommendations for the consumer.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// RecommendationCategory groups recommendations by the farm activity they
// concern.
type RecommendationCategory string

const (
	CategoryPlanting              RecommendationCategory = "planting"
	CategoryIrrigation            RecommendationCategory = "irrigation"
	CategoryPestControl           RecommendationCategory = "pest_control"
	CategoryTemperatureManagement RecommendationCategory = "temperature_management"
	CategoryHumidityControl       RecommendationCategory = "humidity_control"
	CategoryGeneral               RecommendationCategory = "general"
)

// AlertCategory identifies the metric band an alert came from. Bands are
// evaluated independently per metric, so one observation can emit alerts in
// several categories at once.
type AlertCategory string

const (
	AlertHeat       AlertCategory = "heat"
	AlertCold       AlertCategory = "cold"
	AlertFungalRisk AlertCategory = "fungal_risk"
	AlertDryness    AlertCategory = "dryness"
	AlertRainfall   AlertCategory = "rainfall"
	AlertIrrigation AlertCategory = "irrigation"
	AlertWind       AlertCategory = "wind"
	AlertUV         AlertCategory = "uv"
)

// AlertSeverity buckets an alert for deduplication and channel routing.
// Warning-level events carry the escalate flag; advisories never do.
type AlertSeverity string

const (
	SeverityAdvisory AlertSeverity = "advisory"
	SeverityWarning  AlertSeverity = "warning"
)
