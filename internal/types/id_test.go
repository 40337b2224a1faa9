package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDs_DeterministicAndPrefixed(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	pat := PatternID("Harare", start, end, PatternTemperatureTrend)
	assert.True(t, strings.HasPrefix(pat, "pat_"))
	assert.Equal(t, pat, PatternID("Harare", start, end, PatternTemperatureTrend))

	pred := PredictionID("Harare", start)
	assert.True(t, strings.HasPrefix(pred, "pred_"))
	assert.Equal(t, pred, PredictionID("Harare", start))

	rec := RecommendationID(pat, CategoryTemperatureManagement)
	assert.True(t, strings.HasPrefix(rec, "rec_"))
	assert.Equal(t, rec, RecommendationID(pat, CategoryTemperatureManagement))
}

func TestIDs_DistinctIdentitiesDiffer(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	assert.NotEqual(t,
		PatternID("Harare", start, end, PatternTemperatureTrend),
		PatternID("Harare", start, end, PatternHumidityPattern))
	assert.NotEqual(t,
		PatternID("Harare", start, end, PatternTemperatureTrend),
		PatternID("Bulawayo", start, end, PatternTemperatureTrend))
	assert.NotEqual(t,
		PredictionID("Harare", start),
		PredictionID("Harare", start.AddDate(0, 0, 1)))
}

func TestAlertID_FollowsDedupKey(t *testing.T) {
	key := DedupKey{Location: "Harare", Category: AlertHeat, Severity: SeverityWarning, Day: "2026-06-15"}

	assert.Equal(t, AlertID(key), AlertID(key))
	assert.True(t, strings.HasPrefix(AlertID(key), "alrt_"))

	nextDay := key
	nextDay.Day = "2026-06-16"
	assert.NotEqual(t, AlertID(key), AlertID(nextDay))
}

func TestDedupKey_String(t *testing.T) {
	key := DedupKey{Location: "Harare", Category: AlertHeat, Severity: SeverityWarning, Day: "2026-06-15"}
	assert.Equal(t, "Harare|heat|warning|2026-06-15", key.String())
}
