// Package scheduler runs the periodic inference cycle: for each configured
// location it fetches readings, analyzes patterns, produces the forecast,
// generates recommendations, evaluates alert thresholds, and persists and
// dispatches the results.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"cropsense/internal/alerts"
	"cropsense/internal/analysis"
	"cropsense/internal/config"
	"cropsense/internal/external"
	"cropsense/internal/observability"
	"cropsense/internal/prediction"
	"cropsense/internal/recommend"
	"cropsense/internal/types"
)

// maxConcurrentLocations caps how many locations run in parallel per cycle.
const maxConcurrentLocations = 4

// PatternStore persists analysis output.
type PatternStore interface {
	UpsertBatch(ctx context.Context, patterns []types.WeatherPattern) error
}

// PredictionStore persists forecast output.
type PredictionStore interface {
	UpsertBatch(ctx context.Context, predictions []types.AgroClimaticPrediction) error
}

// RecommendationStore persists generated recommendations.
type RecommendationStore interface {
	UpsertBatch(ctx context.Context, recs []types.Recommendation) error
}

// AlertSink receives emitted alerts for downstream delivery.
type AlertSink interface {
	DispatchAll(ctx context.Context, events []types.AlertEvent) error
}

// Stores groups the optional persistence targets. Nil members are skipped,
// which keeps the evaluator runnable without a database in local setups.
type Stores struct {
	Patterns        PatternStore
	Predictions     PredictionStore
	Recommendations RecommendationStore
}

// Runner drives the inference cycle on a fixed interval.
type Runner struct {
	cfg       config.SchedulerConfig
	source    external.ObservationSource
	analyzer  *analysis.Analyzer
	engine    *prediction.Engine
	generator *recommend.Generator
	evaluator *alerts.Evaluator
	sink      AlertSink
	stores    Stores
	metrics   *observability.MetricsPublisher
	clock     clockwork.Clock
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRunner wires the cycle components together. sink and metrics may be
// nil when dispatch or metrics are not configured.
func NewRunner(
	cfg config.SchedulerConfig,
	source external.ObservationSource,
	analyzer *analysis.Analyzer,
	engine *prediction.Engine,
	generator *recommend.Generator,
	evaluator *alerts.Evaluator,
	sink AlertSink,
	stores Stores,
	metrics *observability.MetricsPublisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		source:    source,
		analyzer:  analyzer,
		engine:    engine,
		generator: generator,
		evaluator: evaluator,
		sink:      sink,
		stores:    stores,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Run executes one cycle immediately and then on every interval tick until
// the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.RunCycle(ctx)

	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			r.RunCycle(ctx)
		}
	}
}

// RunCycle processes every configured location, fanning out with a bounded
// worker group. A failing location never blocks the others.
func (r *Runner) RunCycle(ctx context.Context) {
	if pruned, err := r.evaluator.Prune(ctx); err != nil {
		r.logger.WarnContext(ctx, "dedup prune failed", "error", err)
	} else if pruned > 0 {
		r.logger.InfoContext(ctx, "pruned stale dedup keys", "count", pruned)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLocations)
	for _, location := range r.cfg.Locations {
		location := location
		g.Go(func() error {
			r.runLocation(gctx, location)
			return nil
		})
	}
	g.Wait()
}

// runLocation executes the full pipeline for one location. A per-location
// mutex serializes overlapping cycles (a slow cycle outlasting the
// interval) so soil moisture carry-over and dedup checks stay ordered.
func (r *Runner) runLocation(ctx context.Context, location string) {
	lock := r.locationLock(location)
	lock.Lock()
	defer lock.Unlock()

	start := r.clock.Now()
	m := observability.CycleMetrics{Location: location}

	now := r.clock.Now().UTC()
	windowStart := now.AddDate(0, 0, -r.cfg.PatternDays)

	var patterns []types.WeatherPattern
	var forecast *prediction.RangeResult

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		observations, err := r.source.ObservationsRange(gctx, location, windowStart, now)
		if err != nil {
			return err
		}
		patterns, err = r.analyzer.Analyze(location, windowStart, now, observations)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = r.engine.PredictRange(gctx, location, now, r.cfg.ForecastDays)
		return err
	})
	if err := g.Wait(); err != nil {
		m.Failed = true
		r.logger.ErrorContext(ctx, "inference cycle failed",
			"location", location, "error", err)
		r.finishCycle(ctx, start, m)
		return
	}

	recs := r.generator.FromPatterns(patterns)
	recs = append(recs, r.generator.FromPredictions(forecast.Predictions)...)

	m.PatternsFound = len(patterns)
	m.PredictionDays = len(forecast.Predictions)
	m.SkippedDays = len(forecast.SkippedDates)
	m.Recommendations = len(recs)

	if forecast.PartialErrors != nil {
		r.logger.WarnContext(ctx, "forecast completed with partial failures",
			"location", location,
			"skipped_days", len(forecast.SkippedDates),
			"errors", forecast.PartialErrors)
	}

	events := r.evaluateAlerts(ctx, location, &m)
	r.persist(ctx, location, patterns, forecast.Predictions, recs)

	r.logger.InfoContext(ctx, "inference cycle complete",
		"location", location,
		"patterns", len(patterns),
		"prediction_days", len(forecast.Predictions),
		"recommendations", len(recs),
		"alerts", len(events),
		"duration", r.clock.Since(start))
	r.finishCycle(ctx, start, m)
}

// evaluateAlerts fetches the latest reading, runs the threshold evaluator,
// and hands emitted events to the sink. A fetch failure downgrades to a
// warning since pattern and forecast output is still useful.
func (r *Runner) evaluateAlerts(ctx context.Context, location string, m *observability.CycleMetrics) []types.AlertEvent {
	current, err := r.source.Current(ctx, location)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping alert evaluation, no current observation",
			"location", location, "error", err)
		return nil
	}

	events, err := r.evaluator.Evaluate(ctx, *current)
	if err != nil {
		r.logger.ErrorContext(ctx, "alert evaluation failed",
			"location", location, "error", err)
	}
	m.AlertsEmitted = len(events)

	if len(events) > 0 && r.sink != nil {
		if err := r.sink.DispatchAll(ctx, events); err != nil {
			r.logger.ErrorContext(ctx, "alert dispatch failed",
				"location", location, "error", err)
		}
	}
	return events
}

func (r *Runner) persist(ctx context.Context, location string, patterns []types.WeatherPattern, predictions []types.AgroClimaticPrediction, recs []types.Recommendation) {
	if r.stores.Patterns != nil && len(patterns) > 0 {
		if err := r.stores.Patterns.UpsertBatch(ctx, patterns); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist patterns",
				"location", location, "error", err)
		}
	}
	if r.stores.Predictions != nil && len(predictions) > 0 {
		if err := r.stores.Predictions.UpsertBatch(ctx, predictions); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist predictions",
				"location", location, "error", err)
		}
	}
	if r.stores.Recommendations != nil && len(recs) > 0 {
		if err := r.stores.Recommendations.UpsertBatch(ctx, recs); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist recommendations",
				"location", location, "error", err)
		}
	}
}

func (r *Runner) finishCycle(ctx context.Context, start time.Time, m observability.CycleMetrics) {
	m.Duration = r.clock.Since(start)
	if r.metrics != nil {
		r.metrics.PublishCycle(ctx, m)
	}
}

func (r *Runner) locationLock(location string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[location]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[location] = lock
	}
	return lock
}
