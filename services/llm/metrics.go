package llm

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("pulse.llm")

var (
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	tokensTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments on first use. The meter resolves
// through the global provider, so instruments created before
// otel.SetMeterProvider still report once it is installed.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestDuration, err = meter.Float64Histogram(
			"llm_request_duration_seconds",
			metric.WithDescription("Duration of chat completion calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		requestsTotal, err = meter.Int64Counter(
			"llm_requests_total",
			metric.WithDescription("Chat completion calls by model and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		tokensTotal, err = meter.Int64Counter(
			"llm_tokens_total",
			metric.WithDescription("Tokens reported by the provider, by direction"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCall records one chat completion. outcome is "success" or an
// ErrorKind.
func recordCall(ctx context.Context, model, outcome string, d time.Duration, promptTokens, completionTokens int) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	requestDuration.Record(ctx, d.Seconds(), attrs)
	requestsTotal.Add(ctx, 1, attrs)

	if promptTokens > 0 {
		tokensTotal.Add(ctx, int64(promptTokens), metric.WithAttributes(
			attribute.String("model", model), attribute.String("direction", "input")))
	}
	if completionTokens > 0 {
		tokensTotal.Add(ctx, int64(completionTokens), metric.WithAttributes(
			attribute.String("model", model), attribute.String("direction", "output")))
	}
}
