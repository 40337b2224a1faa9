package types

import (
	"fmt"
	"time"
)

// WeatherObservation is a single time-stamped weather reading for a named
// location. Observations are immutable once recorded; the core consumes them
// read-only. Optional instrument fields are pointers so an absent reading is
// distinguishable from zero.
type WeatherObservation struct {
	Location        string    `json:"location" db:"location"`
	Timestamp       time.Time `json:"timestamp" db:"observed_at"`
	TemperatureC    float64   `json:"temperature_c" db:"temperature_c"`
	Humidity        float64   `json:"humidity_percent" db:"humidity_percent"`
	PrecipitationMM float64   `json:"precipitation_mm" db:"precipitation_mm"`

	// WindSpeedMS and the instrument fields below are pointers: stations do
	// not always report them, and derived indicators that need them are
	// left unset rather than fabricated when they are absent.
	WindSpeedMS  *float64 `json:"wind_speed_ms,omitempty" db:"wind_speed_ms"`
	UVIndex      *float64 `json:"uv_index,omitempty" db:"uv_index"`
	PressureHPa  *float64 `json:"pressure_hpa,omitempty" db:"pressure_hpa"`
	VisibilityKM *float64 `json:"visibility_km,omitempty" db:"visibility_km"`
}

// PatternStatistics holds the numeric statistics computed for a pattern
// window. Named fields replace the legacy free-form statistics map so
// consumers never do stringly-typed key access.
type PatternStatistics struct {
	FirstHalfMean  float64 `json:"first_half_mean"`
	SecondHalfMean float64 `json:"second_half_mean"`
	ChangeRatio    float64 `json:"change_ratio"`
	WindowMean     float64 `json:"window_mean"`
	StdDev         float64 `json:"std_dev"`
	Variance       float64 `json:"variance"`
	AnomalyCount   int     `json:"anomaly_count"`
	SampleCount    int     `json:"sample_count"`
}

// WeatherPattern is a classified finding over a historical observation
// window. Patterns are immutable; a later analysis run over the same window
// supersedes (never mutates) earlier records, which is why the ID is derived
// deterministically from (location, window, type).
type WeatherPattern struct {
	ID          string            `json:"id" db:"id"`
	Location    string            `json:"location" db:"location"`
	WindowStart time.Time         `json:"window_start" db:"window_start"`
	WindowEnd   time.Time         `json:"window_end" db:"window_end"`
	Type        PatternType       `json:"pattern_type" db:"pattern_type"`
	Description string            `json:"description" db:"description"`
	Severity    float64           `json:"severity" db:"severity"` // 0..10
	Trend       TrendDirection    `json:"trend" db:"trend"`
	Season      Season            `json:"season" db:"season"`
	Indicators  []string          `json:"indicators" db:"indicators"`
	Statistics  PatternStatistics `json:"statistics" db:"statistics"`
	Impacts     []string          `json:"impacts" db:"impacts"`
	Suggestions []string          `json:"suggestions" db:"suggestions"`
}

// HistoricalWeatherPattern is the simplified per-metric summary produced for
// longer retrospective windows. It carries only trend and magnitude, no
// anomaly detail.
type HistoricalWeatherPattern struct {
	Location    string         `json:"location"`
	Metric      string         `json:"metric"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	Trend       TrendDirection `json:"trend"`
	WindowMean  float64        `json:"window_mean"`
	ChangePct   float64        `json:"change_pct"`
	Season      Season         `json:"season"`
}

// SoilConditions is the typed soil snapshot attached to a prediction.
type SoilConditions struct {
	MoistureIndex     float64  `json:"moisture_index"` // 0..100
	WaterBalanceMM    float64  `json:"water_balance_mm"`
	EvaporativeDemand *float64 `json:"evaporative_demand,omitempty"`
	MoistureDeficit   bool     `json:"moisture_deficit"`
	WaterloggingRisk  bool     `json:"waterlogging_risk"`
}

// ClimateIndicators is the typed climate snapshot attached to a prediction.
type ClimateIndicators struct {
	HeatStress        bool    `json:"heat_stress"`
	ColdStress        bool    `json:"cold_stress"`
	GrowingDegreeDays float64 `json:"growing_degree_days"`
	HumidityBand      string  `json:"humidity_band"` // "dry", "moderate", "humid"
}

// AgroClimaticPrediction is the derived per-day agro-climatic product for a
// (location, date) pair. One record per pair within a run; immutable. A later
// run produces a new record that logically supersedes the prior one.
//
// Evapotranspiration is a pointer: when an input required to compute it is
// missing (e.g. wind), the field is left nil rather than fabricated, and the
// rest of the day's prediction still stands.
type AgroClimaticPrediction struct {
	ID              string    `json:"id" db:"id"`
	Location        string    `json:"location" db:"location"`
	Date            time.Time `json:"date" db:"date"`
	TemperatureC    float64   `json:"temperature_c" db:"temperature_c"`
	Humidity        float64   `json:"humidity_percent" db:"humidity_percent"`
	PrecipitationMM float64   `json:"precipitation_mm" db:"precipitation_mm"`

	Evapotranspiration *float64 `json:"evapotranspiration_mm,omitempty" db:"evapotranspiration_mm"`
	SoilMoisture       float64  `json:"soil_moisture" db:"soil_moisture"` // 0..100

	CropRecommendation string    `json:"crop_recommendation" db:"crop_recommendation"`
	IrrigationAdvice   string    `json:"irrigation_advice" db:"irrigation_advice"`
	PestRisk           RiskLevel `json:"pest_risk" db:"pest_risk"`
	DiseaseRisk        RiskLevel `json:"disease_risk" db:"disease_risk"`
	YieldScore         float64   `json:"yield_score" db:"yield_score"` // 0..100
	PlantingAdvice     string    `json:"planting_advice" db:"planting_advice"`
	HarvestingAdvice   string    `json:"harvesting_advice" db:"harvesting_advice"`

	AlertRefs []string          `json:"alert_refs,omitempty" db:"alert_refs"`
	Soil      SoilConditions    `json:"soil_conditions" db:"soil_conditions"`
	Climate   ClimateIndicators `json:"climate_indicators" db:"climate_indicators"`
}

// ConditionSnapshot captures the weather and derived values that justified a
// recommendation, with named optional fields instead of a dynamic map.
type ConditionSnapshot struct {
	TemperatureC    *float64       `json:"temperature_c,omitempty"`
	Humidity        *float64       `json:"humidity_percent,omitempty"`
	PrecipitationMM *float64       `json:"precipitation_mm,omitempty"`
	SoilMoisture    *float64       `json:"soil_moisture,omitempty"`
	PestRisk        RiskLevel      `json:"pest_risk,omitempty"`
	DiseaseRisk     RiskLevel      `json:"disease_risk,omitempty"`
	Severity        *float64       `json:"severity,omitempty"`
	Trend           TrendDirection `json:"trend,omitempty"`
}

// Recommendation is a prioritized, human-readable action item produced from
// patterns, predictions, or alert evaluation. IsRead is the only field
// mutated after creation, and it is owned by the consumer (UI/notification
// layer), never by the core.
type Recommendation struct {
	ID          string                 `json:"id" db:"id"`
	Title       string                 `json:"title" db:"title"`
	Description string                 `json:"description" db:"description"`
	Category    RecommendationCategory `json:"category" db:"category"`
	Priority    Priority               `json:"priority" db:"priority"`
	TargetDate  time.Time              `json:"target_date" db:"target_date"`
	Location    string                 `json:"location" db:"location"`
	CropType    string                 `json:"crop_type,omitempty" db:"crop_type"`
	Actions     []string               `json:"actions" db:"actions"`
	Conditions  ConditionSnapshot      `json:"conditions" db:"conditions"`
	IsRead      bool                   `json:"is_read" db:"is_read"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}

// DedupKey is the identity under which an alert is deduplicated: at most one
// AlertEvent per key per day.
type DedupKey struct {
	Location string        `json:"location"`
	Category AlertCategory `json:"category"`
	Severity AlertSeverity `json:"severity"`
	Day      string        `json:"day"` // YYYY-MM-DD, UTC day of the evaluation clock
}

// String renders the key in its canonical storage form.
func (k DedupKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Location, k.Category, k.Severity, k.Day)
}

// AlertEvent is a threshold-triggered event emitted by the alert evaluator.
// Escalate instructs the external dispatcher to additionally use the urgent
// channel; the core never performs delivery itself.
type AlertEvent struct {
	ID         string        `json:"id"`
	Key        DedupKey      `json:"dedup_key"`
	Location   string        `json:"location"`
	Category   AlertCategory `json:"category"`
	Severity   AlertSeverity `json:"severity"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Escalate   bool          `json:"escalate"`
	ObservedAt time.Time     `json:"observed_at"`
	EmittedAt  time.Time     `json:"emitted_at"`
}

// NotificationPayload is the contract handed to the external multi-channel
// dispatcher. The core does not address, format, or rate-limit delivery
// channels beyond the escalate flag.
type NotificationPayload struct {
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	Location  string        `json:"location"`
	Escalate  bool          `json:"escalate"`
	EmittedAt time.Time     `json:"emitted_at"`
}
