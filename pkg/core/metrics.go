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

package core

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/outpost/pkg/models"
)

type coreMetricsState struct {
	once          sync.Once
	checkIns      metric.Int64Counter
	statuses      metric.Int64Counter
	results       metric.Int64Counter
	configChanges metric.Int64Counter
	configSize    metric.Int64Gauge
}

var coreMetrics coreMetricsState

func (m *coreMetricsState) init() {
	m.once.Do(func() {
		meter := otel.Meter("outpost.core")

		var err error

		m.checkIns, err = meter.Int64Counter(
			"outpost_core_checkins_total",
			metric.WithDescription("Poller check-ins, by returned directive"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.statuses, err = meter.Int64Counter(
			"outpost_core_monitor_status_changes_total",
			metric.WithDescription("Location monitor status changes, by new status"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.results, err = meter.Int64Counter(
			"outpost_core_results_total",
			metric.WithDescription("Poll results reported by remote pollers"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.configChanges, err = meter.Int64Counter(
			"outpost_core_configuration_changes_total",
			metric.WithDescription("Location configuration revisions"),
		)
		if err != nil {
			otel.Handle(err)
		}

		m.configSize, err = meter.Int64Gauge(
			"outpost_core_configuration_services",
			metric.WithDescription("Services in the current location configuration"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordCheckIn(ctx context.Context, directive models.MonitorStatus) {
	coreMetrics.init()

	if coreMetrics.checkIns != nil {
		coreMetrics.checkIns.Add(ctx, 1, metric.WithAttributes(attribute.String("directive", string(directive))))
	}
}

func recordMonitorStatus(ctx context.Context, status models.MonitorStatus) {
	coreMetrics.init()

	if coreMetrics.statuses != nil {
		coreMetrics.statuses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	}
}

func recordResult(ctx context.Context, location string, status models.ServiceStatus) {
	coreMetrics.init()

	if coreMetrics.results != nil {
		coreMetrics.results.Add(ctx, 1, metric.WithAttributes(
			attribute.String("location", location),
			attribute.String("status", string(status)),
		))
	}
}

func recordConfigurationChange(location string, services int) {
	coreMetrics.init()

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("location", location))

	if coreMetrics.configChanges != nil {
		coreMetrics.configChanges.Add(ctx, 1, attrs)
	}

	if coreMetrics.configSize != nil {
		coreMetrics.configSize.Record(ctx, int64(services), attrs)
	}
}
