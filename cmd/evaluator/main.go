// Package main is the entrypoint for the cropsense evaluator: the
// long-lived worker that runs the periodic inference cycle (pattern
// analysis, forecasting, recommendations, alert evaluation and dispatch)
// for every configured location.
//
// This file handles dependency wiring only; all business logic lives in
// the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jonboulle/clockwork"

	"cropsense/internal/alerts"
	"cropsense/internal/analysis"
	"cropsense/internal/config"
	"cropsense/internal/db"
	"cropsense/internal/external"
	"cropsense/internal/observability"
	"cropsense/internal/prediction"
	"cropsense/internal/queue"
	"cropsense/internal/recommend"
	"cropsense/internal/scheduler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("evaluator starting",
		"environment", cfg.Environment,
		"locations", cfg.Scheduler.Locations,
		"interval", cfg.Scheduler.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// Weather source chain: primary, optional secondary, gzip snapshot cache.
	httpClient := &http.Client{Timeout: cfg.Weather.FetchTimeout}
	primary := external.NewWeatherClient(
		external.NewBaseClient(httpClient, "weather-primary", external.DefaultRetryPolicy(), cfg.Weather.UserAgent),
		cfg.Weather.PrimaryBaseURL,
	)
	var secondary external.ObservationSource
	if cfg.Weather.SecondaryBaseURL != "" {
		secondary = external.NewWeatherClient(
			external.NewBaseClient(httpClient, "weather-secondary", external.DefaultRetryPolicy(), cfg.Weather.UserAgent),
			cfg.Weather.SecondaryBaseURL,
		)
	}
	cache, err := external.NewSnapshotCache(cfg.Weather.CacheDir, cfg.Weather.CacheTTL, clock)
	if err != nil {
		logger.Warn("observation cache disabled", "error", err)
		cache = nil
	}
	source := external.NewFallbackSource(primary, secondary, cache, cfg.Weather.FetchTimeout, logger)

	// Persistence is optional in local setups: without DATABASE_URL the
	// evaluator runs with in-memory dedup state and no stores.
	var stores scheduler.Stores
	var dedup alerts.DedupStore = alerts.NewMemoryDedupStore()
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		stores = scheduler.Stores{
			Patterns:        db.NewPatternRepository(pool),
			Predictions:     db.NewPredictionRepository(pool),
			Recommendations: db.NewRecommendationRepository(pool),
		}
		dedup = db.NewDedupRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set; running with in-memory dedup state and no persistence")
	}

	// Alert dispatch and cycle metrics via AWS. Both are optional.
	var sink scheduler.AlertSink
	var metrics *observability.MetricsPublisher
	if cfg.AWS.AlertQueueStandard != "" || cfg.AWS.MetricNamespace != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			logger.Error("failed to load AWS SDK config", "error", err)
			os.Exit(1)
		}
		if cfg.AWS.AlertQueueStandard != "" {
			sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			sink = queue.NewAlertDispatcher(sqsClient, cfg.AWS, logger)
		}
		if cfg.AWS.MetricNamespace != "" {
			cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			metrics = observability.NewMetricsPublisher(cwClient, cfg.AWS.MetricNamespace, logger)
		}
	}

	analyzer := analysis.NewAnalyzer(cfg.Analysis)
	engine := prediction.NewEngine(cfg.Prediction, cfg.Analysis, source, source, logger)
	generator := recommend.NewGenerator(clock)
	evaluator := alerts.NewEvaluator(cfg.Alerts, dedup, clock, logger)

	runner := scheduler.NewRunner(
		cfg.Scheduler, source, analyzer, engine, generator, evaluator,
		sink, stores, metrics, clock, logger,
	)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("evaluator stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("evaluator stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
