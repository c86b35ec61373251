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

package poller

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/outpost/pkg/models"
)

type pollerMetricsState struct {
	once        sync.Once
	polls       metric.Int64Counter
	checkIns    metric.Int64Counter
	transitions metric.Int64Counter
	responseMs  metric.Float64Histogram
}

var pollerMetrics pollerMetricsState

func (m *pollerMetricsState) init() {
	m.once.Do(func() {
		meter := otel.Meter("outpost.poller")

		var err error

		m.polls, err = meter.Int64Counter(
			"outpost_poller_polls_total",
			metric.WithDescription("Probes executed by the poller, by verdict"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.checkIns, err = meter.Int64Counter(
			"outpost_poller_checkins_total",
			metric.WithDescription("Check-ins with the backend, by directive"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.transitions, err = meter.Int64Counter(
			"outpost_poller_state_transitions_total",
			metric.WithDescription("Lifecycle state transitions"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.responseMs, err = meter.Float64Histogram(
			"outpost_poller_response_time_ms",
			metric.WithDescription("Response time of available services"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordPoll(ctx context.Context, result models.PollStatus) {
	pollerMetrics.init()

	if pollerMetrics.polls != nil {
		pollerMetrics.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(result.Status))))
	}

	if result.IsAvailable() && pollerMetrics.responseMs != nil {
		pollerMetrics.responseMs.Record(ctx, float64(result.ResponseTime.Microseconds())/1000)
	}
}

func recordCheckIn(ctx context.Context, directive string) {
	pollerMetrics.init()

	if pollerMetrics.checkIns != nil {
		pollerMetrics.checkIns.Add(ctx, 1, metric.WithAttributes(attribute.String("directive", directive)))
	}
}

func recordTransition(ctx context.Context, from, to State) {
	pollerMetrics.init()

	if pollerMetrics.transitions != nil {
		pollerMetrics.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from.String()),
			attribute.String("to", to.String()),
		))
	}
}
