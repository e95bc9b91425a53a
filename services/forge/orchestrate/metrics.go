// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrate

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce sync.Once

	attemptCounter     metric.Int64Counter
	outcomeCounter     metric.Int64Counter
	violationCounter   metric.Int64Counter
	testFailureCounter metric.Int64Counter
	repairCounter      metric.Int64Counter
	attemptLatency     metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("codesmith/forge/orchestrate")

		attemptCounter, _ = meter.Int64Counter("codesmith.attempts",
			metric.WithDescription("Generation attempts started"))
		outcomeCounter, _ = meter.Int64Counter("codesmith.outcomes",
			metric.WithDescription("Pipeline outcomes by status"))
		violationCounter, _ = meter.Int64Counter("codesmith.constraint_violations",
			metric.WithDescription("Constraint violations by constraint type"))
		testFailureCounter, _ = meter.Int64Counter("codesmith.test_failures",
			metric.WithDescription("Test case failures by category"))
		repairCounter, _ = meter.Int64Counter("codesmith.repairs",
			metric.WithDescription("Repair passes that changed a candidate"))
		attemptLatency, _ = meter.Float64Histogram("codesmith.attempt_duration_seconds",
			metric.WithDescription("Wall time per generation attempt"))
	})
}

func recordAttempt(ctx context.Context, stage string, elapsed time.Duration) {
	if attemptCounter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	attemptCounter.Add(ctx, 1, attrs)
	attemptLatency.Record(ctx, elapsed.Seconds(), attrs)
}

func recordOutcome(ctx context.Context, status string) {
	if outcomeCounter == nil {
		return
	}
	outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func recordViolations(ctx context.Context, violations int, constraintType string) {
	if violationCounter == nil || violations == 0 {
		return
	}
	violationCounter.Add(ctx, int64(violations),
		metric.WithAttributes(attribute.String("constraint", constraintType)))
}

func recordTestFailures(ctx context.Context, count int, category string) {
	if testFailureCounter == nil || count == 0 {
		return
	}
	testFailureCounter.Add(ctx, int64(count),
		metric.WithAttributes(attribute.String("category", category)))
}

func recordRepairs(ctx context.Context, passes []string) {
	if repairCounter == nil {
		return
	}
	for _, pass := range passes {
		repairCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("pass", pass)))
	}
}
