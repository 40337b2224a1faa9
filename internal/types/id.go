package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// idNamespace is the fixed UUIDv5 namespace for all derived-product IDs.
// Using name-based UUIDs makes every record ID a pure function of its
// identity tuple, so repeated runs over identical input produce
// byte-identical records.
var idNamespace = uuid.MustParse("7b8a1f5e-2c4d-4e6f-8a90-1b2c3d4e5f60")

const dayFormat = "2006-01-02"

// PatternID derives the deterministic ID for a WeatherPattern from its
// (location, window, pattern type) identity.
func PatternID(location string, windowStart, windowEnd time.Time, pt PatternType) string {
	name := fmt.Sprintf("pattern|%s|%s|%s|%s",
		location,
		windowStart.UTC().Format(dayFormat),
		windowEnd.UTC().Format(dayFormat),
		pt,
	)
	return "pat_" + uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// PredictionID derives the deterministic ID for an AgroClimaticPrediction
// from its (location, date) identity.
func PredictionID(location string, date time.Time) string {
	name := fmt.Sprintf("prediction|%s|%s", location, date.UTC().Format(dayFormat))
	return "pred_" + uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// RecommendationID derives the deterministic ID for a Recommendation from
// its source record and category.
func RecommendationID(sourceID string, category RecommendationCategory) string {
	name := fmt.Sprintf("recommendation|%s|%s", sourceID, category)
	return "rec_" + uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// AlertID derives the deterministic ID for an AlertEvent from its dedup key,
// so re-emitting the same key on a later day yields a distinct ID while
// within-day duplicates collapse to one.
func AlertID(key DedupKey) string {
	return "alrt_" + uuid.NewSHA1(idNamespace, []byte("alert|"+key.String())).String()
}
