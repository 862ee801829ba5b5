package metrics

import (
	"context"
	"sync"

	"github.com/evreg/lottery-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Waiting list counters
	WaitlistJoins  *telemetry.Counter
	WaitlistLeaves *telemetry.Counter
	Transitions    *telemetry.Counter

	// Lottery counters
	DrawsRun      *telemetry.Counter
	DrawsRejected *telemetry.Counter

	// Notification counters
	NotificationsSent   *telemetry.Counter
	NotificationsFailed *telemetry.Counter
	AuditWrites         *telemetry.Counter
	AuditWriteFailures  *telemetry.Counter

	// Histograms
	FanOutDuration *telemetry.Histogram
	FanOutSize     *telemetry.Histogram

	// Gauges
	ActiveFanOuts *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all service metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	WaitlistJoins, err = telemetry.NewCounter(
		"waitlist_joins_total", "Total number of waiting list joins")
	if err != nil {
		return err
	}

	WaitlistLeaves, err = telemetry.NewCounter(
		"waitlist_leaves_total", "Total number of waiting list leaves")
	if err != nil {
		return err
	}

	Transitions, err = telemetry.NewCounter(
		"waitlist_transitions_total", "Total number of entrant state transitions")
	if err != nil {
		return err
	}

	DrawsRun, err = telemetry.NewCounter(
		"lottery_draws_total", "Total number of lottery draws executed")
	if err != nil {
		return err
	}

	DrawsRejected, err = telemetry.NewCounter(
		"lottery_draws_rejected_total", "Total number of draws rejected by the per-event lock")
	if err != nil {
		return err
	}

	NotificationsSent, err = telemetry.NewCounter(
		"notifications_sent_total", "Total number of notification writes confirmed")
	if err != nil {
		return err
	}

	NotificationsFailed, err = telemetry.NewCounter(
		"notifications_failed_total", "Total number of notification writes failed")
	if err != nil {
		return err
	}

	AuditWrites, err = telemetry.NewCounter(
		"audit_writes_total", "Total number of audit log rows recorded")
	if err != nil {
		return err
	}

	AuditWriteFailures, err = telemetry.NewCounter(
		"audit_write_failures_total", "Total number of failed audit log writes")
	if err != nil {
		return err
	}

	FanOutDuration, err = telemetry.NewHistogram(
		"notification_fanout_duration_seconds", "Wall time of one fan-out call", "s")
	if err != nil {
		return err
	}

	FanOutSize, err = telemetry.NewHistogram(
		"notification_fanout_size", "Recipients per fan-out call", "1")
	if err != nil {
		return err
	}

	ActiveFanOuts, err = telemetry.NewUpDownCounter(
		"notification_fanouts_active", "Fan-out calls currently in flight")
	if err != nil {
		return err
	}

	return nil
}

// RecordTransition records one entrant state transition
func RecordTransition(ctx context.Context, eventID string, from, to string) {
	if Transitions != nil {
		Transitions.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("from", from),
			attribute.String("to", to),
		)
	}
}

// RecordDraw records one completed lottery draw
func RecordDraw(ctx context.Context, eventID string, selected int) {
	if DrawsRun != nil {
		DrawsRun.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.Int("selected", selected),
		)
	}
}

// RecordFanOut records the outcome of one fan-out call
func RecordFanOut(ctx context.Context, category string, delivered, failed int, seconds float64) {
	if NotificationsSent != nil && delivered > 0 {
		NotificationsSent.Add(ctx, int64(delivered), attribute.String("category", category))
	}
	if NotificationsFailed != nil && failed > 0 {
		NotificationsFailed.Add(ctx, int64(failed), attribute.String("category", category))
	}
	if FanOutDuration != nil {
		FanOutDuration.Record(ctx, seconds, attribute.String("category", category))
	}
	if FanOutSize != nil {
		FanOutSize.Record(ctx, float64(delivered+failed), attribute.String("category", category))
	}
}
