/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package assetdb

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName           = "nodeidentifier.assetdb"
	metricMappingWrites = "assetdb_mapping_writes_total"
	metricLookupLatency = "assetdb_lookup_latency_seconds"
)

var (
	// instrumentation handles are cached globally to avoid re-registering OTEL instruments on every call.
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	writeCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	lookupHistogram metric.Float64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(
		metricMappingWrites,
		metric.WithDescription("Total asset id mapping writes"),
	)
	if err != nil {
		otel.Handle(err)
	}
	writeCounter = counter

	hist, err := meter.Float64Histogram(
		metricLookupLatency,
		metric.WithDescription("Latency for asset id resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}
	lookupHistogram = hist
}

// RecordMappingWrite counts one mapping write with its outcome.
func RecordMappingWrite(ctx context.Context, outcome string) {
	meterOnce.Do(initMeter)
	if writeCounter == nil {
		return
	}

	writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordLookupLatency captures the duration of a resolution and which query answered it.
func RecordLookupLatency(ctx context.Context, duration time.Duration, resolvedVia string, found bool) {
	meterOnce.Do(initMeter)
	if lookupHistogram == nil {
		return
	}

	lookupHistogram.Record(
		ctx,
		duration.Seconds(),
		metric.WithAttributes(
			attribute.String("resolved_via", resolvedVia),
			attribute.Bool("found", found),
		),
	)
}
