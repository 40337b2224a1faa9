package external

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cropsense/internal/types"
)

// FallbackSource chains a primary provider, an optional secondary provider,
// and the on-disk snapshot cache. A provider failure falls through to the
// next tier; a definitive "no data for that slot" answer does not, since
// the next tier cannot know better. Only when every tier fails does the
// caller see an upstream source failure.
type FallbackSource struct {
	primary   ObservationSource
	secondary ObservationSource // may be nil
	cache     *SnapshotCache    // may be nil
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFallbackSource wires the tiers together. secondary and cache may be
// nil when not configured.
func NewFallbackSource(primary, secondary ObservationSource, cache *SnapshotCache, timeout time.Duration, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{
		primary:   primary,
		secondary: secondary,
		cache:     cache,
		timeout:   timeout,
		logger:    logger,
	}
}

// Current returns the latest reading, falling back through the tiers.
func (f *FallbackSource) Current(ctx context.Context, location string) (*types.WeatherObservation, error) {
	obs, err := f.fromProviders(ctx, location, func(ctx context.Context, src ObservationSource) (*types.WeatherObservation, error) {
		return src.Current(ctx, location)
	})
	if err == nil {
		if f.cache != nil {
			if storeErr := f.cache.Store(location, obs, nil); storeErr != nil {
				f.logger.WarnContext(ctx, "failed to write observation cache",
					"location", location, "error", storeErr)
			}
		}
		return obs, nil
	}
	if isDataUnavailable(err) {
		return nil, err
	}

	if f.cache != nil {
		if snap, ok := f.cache.Load(location); ok && snap.Current != nil {
			f.logger.WarnContext(ctx, "serving current observation from cache",
				"location", location, "fetched_at", snap.FetchedAt)
			return snap.Current, nil
		}
	}
	return nil, types.NewAppError(types.ErrCodeUpstreamSourceFailure,
		"all weather sources failed for current observation", err)
}

// Daily returns the aggregated reading for one day from the first tier
// that answers. The cache holds range snapshots, so a matching day from a
// cached range is accepted.
func (f *FallbackSource) Daily(ctx context.Context, location string, date time.Time) (*types.WeatherObservation, error) {
	obs, err := f.fromProviders(ctx, location, func(ctx context.Context, src ObservationSource) (*types.WeatherObservation, error) {
		return src.Daily(ctx, location, date)
	})
	if err == nil {
		return obs, nil
	}
	if isDataUnavailable(err) {
		return nil, err
	}

	if f.cache != nil {
		if snap, ok := f.cache.Load(location); ok {
			day := date.UTC().Format("2006-01-02")
			for i := range snap.Observations {
				if snap.Observations[i].Timestamp.UTC().Format("2006-01-02") == day {
					f.logger.WarnContext(ctx, "serving daily observation from cache",
						"location", location, "date", day)
					return &snap.Observations[i], nil
				}
			}
		}
	}
	return nil, types.NewAppError(types.ErrCodeUpstreamSourceFailure,
		"all weather sources failed for daily observation", err)
}

// ObservationsRange returns the readings for [start, end], writing through
// to the cache on success.
func (f *FallbackSource) ObservationsRange(ctx context.Context, location string, start, end time.Time) ([]types.WeatherObservation, error) {
	var lastErr error
	for _, src := range f.tiers() {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		obs, err := src.ObservationsRange(fetchCtx, location, start, end)
		cancel()
		if err == nil {
			if f.cache != nil {
				if storeErr := f.cache.Store(location, nil, obs); storeErr != nil {
					f.logger.WarnContext(ctx, "failed to write observation cache",
						"location", location, "error", storeErr)
				}
			}
			return obs, nil
		}
		if isDataUnavailable(err) {
			return nil, err
		}
		lastErr = err
		f.logger.WarnContext(ctx, "weather source failed, trying next tier",
			"location", location, "error", err)
	}

	if f.cache != nil {
		if snap, ok := f.cache.Load(location); ok && len(snap.Observations) > 0 {
			f.logger.WarnContext(ctx, "serving observation range from cache",
				"location", location, "fetched_at", snap.FetchedAt)
			return snap.Observations, nil
		}
	}
	return nil, types.NewAppError(types.ErrCodeUpstreamSourceFailure,
		"all weather sources failed for observation range", lastErr)
}

func (f *FallbackSource) fromProviders(ctx context.Context, location string, fetch func(context.Context, ObservationSource) (*types.WeatherObservation, error)) (*types.WeatherObservation, error) {
	var lastErr error
	for _, src := range f.tiers() {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		obs, err := fetch(fetchCtx, src)
		cancel()
		if err == nil {
			return obs, nil
		}
		if isDataUnavailable(err) {
			return nil, err
		}
		lastErr = err
		f.logger.WarnContext(ctx, "weather source failed, trying next tier",
			"location", location, "error", err)
	}
	return nil, lastErr
}

func (f *FallbackSource) tiers() []ObservationSource {
	tiers := []ObservationSource{f.primary}
	if f.secondary != nil {
		tiers = append(tiers, f.secondary)
	}
	return tiers
}

func isDataUnavailable(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == types.ErrCodeDataUnavailable
}
