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

package topology

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/outpost/pkg/models"
)

type topologyMetricsState struct {
	once      sync.Once
	events    metric.Int64Counter
	lockWait  metric.Float64Histogram
	lockFails metric.Int64Counter
	polls     metric.Int64Counter
}

var topologyMetrics topologyMetricsState

func (m *topologyMetricsState) init() {
	m.once.Do(func() {
		meter := otel.Meter("outpost.topology")

		var err error

		m.events, err = meter.Int64Counter(
			"outpost_topology_events_total",
			metric.WithDescription("Topology events routed, by event and outcome"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.lockWait, err = meter.Float64Histogram(
			"outpost_topology_node_lock_wait_ms",
			metric.WithDescription("Time spent waiting for a node lock"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.lockFails, err = meter.Int64Counter(
			"outpost_topology_node_lock_timeouts_total",
			metric.WithDescription("Node lock acquisitions that gave up"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.polls, err = meter.Int64Counter(
			"outpost_topology_polls_total",
			metric.WithDescription("Server-side service polls, by verdict"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordEvent(ctx context.Context, uei, outcome string) {
	topologyMetrics.init()

	if topologyMetrics.events != nil {
		topologyMetrics.events.Add(ctx, 1, metric.WithAttributes(
			attribute.String("uei", uei),
			attribute.String("outcome", outcome),
		))
	}
}

func recordLockWait(ctx context.Context, waited time.Duration, acquired bool) {
	topologyMetrics.init()

	if topologyMetrics.lockWait != nil {
		topologyMetrics.lockWait.Record(ctx, float64(waited.Microseconds())/1000)
	}

	if !acquired && topologyMetrics.lockFails != nil {
		topologyMetrics.lockFails.Add(ctx, 1)
	}
}

func recordServicePoll(ctx context.Context, status models.ServiceStatus) {
	topologyMetrics.init()

	if topologyMetrics.polls != nil {
		topologyMetrics.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	}
}
