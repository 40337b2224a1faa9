// Package queue provides the SQS-based producer that hands emitted alerts
// to the downstream multi-channel notification dispatcher. Addressing,
// templating, and rate limiting of deliveries belong to that dispatcher,
// not to this producer.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertDispatcher serializes NotificationPayloads and routes them to the
// urgent or standard queue.
//
// Queue routing:
//   - Escalate == true (warnings)  -> Urgent queue
//   - Escalate == false (advisories) -> Standard queue
type AlertDispatcher struct {
	client           SQSSender
	urgentQueueURL   string
	standardQueueURL string
	logger           *slog.Logger
}

// NewAlertDispatcher creates an AlertDispatcher reading queue URLs from the
// AWS configuration.
func NewAlertDispatcher(client SQSSender, awsCfg config.AWSConfig, logger *slog.Logger) *AlertDispatcher {
	return &AlertDispatcher{
		client:           client,
		urgentQueueURL:   awsCfg.AlertQueueUrgent,
		standardQueueURL: awsCfg.AlertQueueStandard,
		logger:           logger,
	}
}

// Dispatch sends one emitted alert downstream. The payload carries exactly
// what the notification dispatcher needs; alert identity stays inside the
// evaluator.
func (d *AlertDispatcher) Dispatch(ctx context.Context, event types.AlertEvent) error {
	payload := types.NotificationPayload{
		Title:     event.Title,
		Message:   event.Message,
		Severity:  event.Severity,
		Location:  event.Location,
		Escalate:  event.Escalate,
		EmittedAt: event.EmittedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal notification payload: %w", err)
	}

	queueURL := d.standardQueueURL
	if event.Escalate {
		queueURL = d.urgentQueueURL
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"category": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Category)),
			},
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Severity)),
			},
		},
	}

	if _, err := d.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send alert to %s: %w", queueURL, err)
	}

	d.logger.InfoContext(ctx, "alert dispatched",
		"queue_url", queueURL,
		"alert_id", event.ID,
		"location", event.Location,
		"category", string(event.Category),
		"severity", string(event.Severity),
		"escalate", event.Escalate,
	)
	return nil
}

// DispatchAll sends a batch of alerts, returning the first error after
// attempting every event.
func (d *AlertDispatcher) DispatchAll(ctx context.Context, events []types.AlertEvent) error {
	var firstErr error
	for _, ev := range events {
		if err := d.Dispatch(ctx, ev); err != nil {
			d.logger.ErrorContext(ctx, "alert dispatch failed",
				"alert_id", ev.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
