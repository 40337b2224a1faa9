package external

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

// stubSource is a canned ObservationSource for fallback tests.
type stubSource struct {
	current      *types.WeatherObservation
	observations []types.WeatherObservation
	err          error
	calls        int
}

func (s *stubSource) Current(context.Context, string) (*types.WeatherObservation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.current, nil
}

func (s *stubSource) Daily(_ context.Context, _ string, date time.Time) (*types.WeatherObservation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.observations {
		if s.observations[i].Timestamp.UTC().Format("2006-01-02") == date.UTC().Format("2006-01-02") {
			return &s.observations[i], nil
		}
	}
	return nil, types.NewAppError(types.ErrCodeDataUnavailable, "no data", nil)
}

func (s *stubSource) ObservationsRange(context.Context, string, time.Time, time.Time) ([]types.WeatherObservation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.observations, nil
}

func testObservation(ts time.Time) types.WeatherObservation {
	return types.WeatherObservation{
		Location:        "Harare",
		Timestamp:       ts,
		TemperatureC:    25,
		Humidity:        60,
		PrecipitationMM: 2,
	}
}

func newTestCache(t *testing.T, clock clockwork.Clock) *SnapshotCache {
	t.Helper()
	cache, err := NewSnapshotCache(t.TempDir(), 24*time.Hour, clock)
	require.NoError(t, err)
	return cache
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackSource_PrimaryServes(t *testing.T) {
	ts := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	obs := testObservation(ts)
	primary := &stubSource{current: &obs}
	secondary := &stubSource{current: &obs}

	f := NewFallbackSource(primary, secondary, nil, time.Second, discardLogger())
	got, err := f.Current(context.Background(), "Harare")
	require.NoError(t, err)
	assert.Equal(t, &obs, got)
	assert.Zero(t, secondary.calls, "secondary must not be consulted when primary succeeds")
}

func TestFallbackSource_SecondaryTakesOverOnFailure(t *testing.T) {
	ts := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	obs := testObservation(ts)
	primary := &stubSource{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)}
	secondary := &stubSource{current: &obs}

	f := NewFallbackSource(primary, secondary, nil, time.Second, discardLogger())
	got, err := f.Current(context.Background(), "Harare")
	require.NoError(t, err)
	assert.Equal(t, &obs, got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackSource_DataUnavailableDoesNotFallBack(t *testing.T) {
	primary := &stubSource{err: types.NewAppError(types.ErrCodeDataUnavailable, "no reading", nil)}
	secondary := &stubSource{}

	f := NewFallbackSource(primary, secondary, nil, time.Second, discardLogger())
	_, err := f.Current(context.Background(), "Harare")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDataUnavailable, appErr.Code)
	assert.Zero(t, secondary.calls, "a definitive no-data answer is final")
}

func TestFallbackSource_CacheServesWhenAllProvidersFail(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	cache := newTestCache(t, clock)
	ts := clock.Now()
	obs := testObservation(ts)

	// First a healthy fetch writes through to the cache.
	healthy := &stubSource{observations: []types.WeatherObservation{obs}}
	f := NewFallbackSource(healthy, nil, cache, time.Second, discardLogger())
	_, err := f.ObservationsRange(context.Background(), "Harare", ts.AddDate(0, 0, -7), ts)
	require.NoError(t, err)

	// Then a full outage degrades to the cached snapshot.
	down := &stubSource{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)}
	f = NewFallbackSource(down, nil, cache, time.Second, discardLogger())
	got, err := f.ObservationsRange(context.Background(), "Harare", ts.AddDate(0, 0, -7), ts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obs.TemperatureC, got[0].TemperatureC)
}

func TestFallbackSource_CurrentWriteThroughKeepsCachedRange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	cache := newTestCache(t, clock)
	ts := clock.Now()
	obs := testObservation(ts)

	// A healthy cycle caches a range and then a current reading.
	healthy := &stubSource{current: &obs, observations: []types.WeatherObservation{obs}}
	f := NewFallbackSource(healthy, nil, cache, time.Second, discardLogger())
	_, err := f.ObservationsRange(context.Background(), "Harare", ts.AddDate(0, 0, -14), ts)
	require.NoError(t, err)
	_, err = f.Current(context.Background(), "Harare")
	require.NoError(t, err)

	// A full outage must still serve the range cached before the current
	// reading was written.
	down := &stubSource{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)}
	f = NewFallbackSource(down, nil, cache, time.Second, discardLogger())
	got, err := f.ObservationsRange(context.Background(), "Harare", ts.AddDate(0, 0, -14), ts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obs.TemperatureC, got[0].TemperatureC)

	current, err := f.Current(context.Background(), "Harare")
	require.NoError(t, err)
	assert.Equal(t, obs.TemperatureC, current.TemperatureC)
}

func TestFallbackSource_AllTiersFailing(t *testing.T) {
	down := &stubSource{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)}

	f := NewFallbackSource(down, nil, nil, time.Second, discardLogger())
	_, err := f.ObservationsRange(context.Background(), "Harare",
		time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamSourceFailure, appErr.Code)
}

func TestFallbackSource_DailyFromCachedRange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	cache := newTestCache(t, clock)
	ts := clock.Now()
	obs := testObservation(ts)

	healthy := &stubSource{observations: []types.WeatherObservation{obs}}
	f := NewFallbackSource(healthy, nil, cache, time.Second, discardLogger())
	_, err := f.ObservationsRange(context.Background(), "Harare", ts.AddDate(0, 0, -7), ts)
	require.NoError(t, err)

	down := &stubSource{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)}
	f = NewFallbackSource(down, nil, cache, time.Second, discardLogger())
	got, err := f.Daily(context.Background(), "Harare", ts)
	require.NoError(t, err)
	assert.Equal(t, obs.TemperatureC, got.TemperatureC)
}
