// Package alerts implements threshold-triggered alert evaluation with
// idempotent notification semantics. The evaluator applies a configured
// threshold table to a single current observation, classifies severity per
// metric band, and deduplicates against previously emitted keys so a user
// is notified once per distinct event per day.
//
// State machine per dedup key: absent -> active (alert emitted) ->
// suppressed for the rest of the day. The day is part of the key, so the
// rollover to a new day returns every key to absent without explicit
// transitions; expired keys are pruned as garbage.
package alerts

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

const dayFormat = "2006-01-02"

// Evaluator applies the alert threshold table with per-key deduplication.
// The clock is injected so day-rollover behavior is testable; the dedup
// store is injected so single-node and Postgres-backed deployments share
// the same evaluator.
type Evaluator struct {
	thresholds config.AlertThresholds
	store      DedupStore
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(thresholds config.AlertThresholds, store DedupStore, clock clockwork.Clock, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		thresholds: thresholds,
		store:      store,
		clock:      clock,
		logger:     logger,
	}
}

// Evaluate applies every threshold band to the observation and returns the
// alerts that are new for their dedup key today. Bands are independent per
// metric: a single observation may legitimately emit alerts on several
// metrics at once, but never more than one alert per metric band per key
// per day.
//
// The evaluator only decides emission; delivery belongs to the dispatcher.
func (e *Evaluator) Evaluate(ctx context.Context, obs types.WeatherObservation) ([]types.AlertEvent, error) {
	now := e.clock.Now().UTC()
	day := now.Format(dayFormat)

	candidates := evaluateThresholds(e.thresholds, obs)
	if len(candidates) == 0 {
		return nil, nil
	}

	var emitted []types.AlertEvent
	for _, c := range candidates {
		key := types.DedupKey{
			Location: obs.Location,
			Category: c.category,
			Severity: c.severity,
			Day:      day,
		}

		seen, err := e.store.Seen(ctx, key)
		if err != nil {
			return emitted, types.NewAppError(types.ErrCodeInternalDB,
				"failed to read dedup state", err)
		}
		if seen {
			continue
		}

		if err := e.store.MarkEmitted(ctx, key); err != nil {
			return emitted, types.NewAppError(types.ErrCodeInternalDB,
				"failed to record dedup key", err)
		}

		event := types.AlertEvent{
			ID:         types.AlertID(key),
			Key:        key,
			Location:   obs.Location,
			Category:   c.category,
			Severity:   c.severity,
			Title:      c.title,
			Message:    c.message,
			Escalate:   c.escalate,
			ObservedAt: obs.Timestamp,
			EmittedAt:  now,
		}
		emitted = append(emitted, event)

		e.logger.InfoContext(ctx, "alert emitted",
			"location", obs.Location,
			"category", string(c.category),
			"severity", string(c.severity),
			"escalate", c.escalate,
			"day", day,
		)
	}

	return emitted, nil
}

// Prune discards dedup keys older than today, keeping the store bounded.
// Intended to be called once per cycle.
func (e *Evaluator) Prune(ctx context.Context) (int, error) {
	day := e.clock.Now().UTC().Format(dayFormat)
	return e.store.PruneBefore(ctx, day)
}
