// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability exposes pipeline metrics through the
// OpenTelemetry metric API with a Prometheus exporter. A zero-value
// Metrics is a safe no-op.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records pipeline and dispatcher activity. All methods are
// safe on a nil or uninitialised receiver.
type Metrics struct {
	stageDuration  metric.Float64Histogram
	stageSuccesses metric.Int64Counter
	stageRetries   metric.Int64Counter
	stageFailures  metric.Int64Counter
	casesStarted   metric.Int64Counter
}

// InitMetrics wires the Prometheus exporter and creates the pipeline
// instruments. When disabled, it returns a no-op Metrics.
func InitMetrics(enabled bool) (*Metrics, error) {
	if !enabled {
		return &Metrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)
	meter := meterProvider.Meter("brandforge")

	m := &Metrics{}

	m.stageDuration, err = meter.Float64Histogram(
		"brandforge_stage_duration_seconds",
		metric.WithDescription("Stage agent execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	m.stageSuccesses, err = meter.Int64Counter(
		"brandforge_stage_successes_total",
		metric.WithDescription("Total successful stage completions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage successes counter: %w", err)
	}

	m.stageRetries, err = meter.Int64Counter(
		"brandforge_stage_retries_total",
		metric.WithDescription("Total stage retries by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage retries counter: %w", err)
	}

	m.stageFailures, err = meter.Int64Counter(
		"brandforge_stage_failures_total",
		metric.WithDescription("Total fatal stage failures by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage failures counter: %w", err)
	}

	m.casesStarted, err = meter.Int64Counter(
		"brandforge_cases_started_total",
		metric.WithDescription("Total cases started"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cases counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) StageDuration(stage string, elapsed time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}
	m.stageDuration.Record(context.Background(), elapsed.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) StageSucceeded(stage string) {
	if m == nil || m.stageSuccesses == nil {
		return
	}
	m.stageSuccesses.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) StageRetried(stage, kind string) {
	if m == nil || m.stageRetries == nil {
		return
	}
	m.stageRetries.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", kind)))
}

func (m *Metrics) StageFailed(stage, kind string) {
	if m == nil || m.stageFailures == nil {
		return
	}
	m.stageFailures.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", kind)))
}

func (m *Metrics) CaseStarted() {
	if m == nil || m.casesStarted == nil {
		return
	}
	m.casesStarted.Add(context.Background(), 1)
}
