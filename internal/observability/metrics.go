// Package observability publishes inference cycle metrics to CloudWatch.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI abstracts the PutMetricData operation for testability.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CycleMetrics summarizes one inference cycle for a location.
type CycleMetrics struct {
	Location        string
	Duration        time.Duration
	PatternsFound   int
	PredictionDays  int
	SkippedDays     int
	AlertsEmitted   int
	Recommendations int
	Failed          bool
}

// MetricsPublisher emits CycleMetrics as CloudWatch custom metrics under a
// configured namespace. Publishing is best effort: failures are logged and
// never fail the cycle.
type MetricsPublisher struct {
	client    CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// NewMetricsPublisher creates a MetricsPublisher for the namespace.
func NewMetricsPublisher(client CloudWatchAPI, namespace string, logger *slog.Logger) *MetricsPublisher {
	return &MetricsPublisher{client: client, namespace: namespace, logger: logger}
}

// PublishCycle sends one location's cycle metrics.
func (p *MetricsPublisher) PublishCycle(ctx context.Context, m CycleMetrics) {
	now := time.Now().UTC()
	dims := []cwTypes.Dimension{
		{Name: aws.String("Location"), Value: aws.String(m.Location)},
	}

	datum := func(name string, value float64, unit cwTypes.StandardUnit) cwTypes.MetricDatum {
		return cwTypes.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(now),
			Dimensions: dims,
		}
	}

	failed := 0.0
	if m.Failed {
		failed = 1.0
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwTypes.MetricDatum{
			datum("CycleDuration", m.Duration.Seconds(), cwTypes.StandardUnitSeconds),
			datum("PatternsFound", float64(m.PatternsFound), cwTypes.StandardUnitCount),
			datum("PredictionDays", float64(m.PredictionDays), cwTypes.StandardUnitCount),
			datum("SkippedDays", float64(m.SkippedDays), cwTypes.StandardUnitCount),
			datum("AlertsEmitted", float64(m.AlertsEmitted), cwTypes.StandardUnitCount),
			datum("RecommendationsGenerated", float64(m.Recommendations), cwTypes.StandardUnitCount),
			datum("CycleFailed", failed, cwTypes.StandardUnitCount),
		},
	}

	if _, err := p.client.PutMetricData(ctx, input); err != nil {
		p.logger.WarnContext(ctx, "failed to publish cycle metrics",
			"location", m.Location, "error", err)
	}
}
