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

package monitors

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const tracerName = "github.com/carverauto/outpost/pkg/monitors"

// PollService resolves a polled service to its monitor through the
// service monitor locators handed out by the backend, and runs the probe.
// When no locator names a service, the lower-cased service name is tried
// as a monitor kind.
type PollService struct {
	registry *Registry
	logger   logger.Logger
	tracer   trace.Tracer

	mu       sync.RWMutex
	locators map[string]string
}

func NewPollService(registry *Registry, log logger.Logger) *PollService {
	return &PollService{
		registry: registry,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		locators: make(map[string]string),
	}
}

// SetServiceMonitorLocators replaces the whole locator table.
func (p *PollService) SetServiceMonitorLocators(locators []models.ServiceMonitorLocator) {
	table := make(map[string]string, len(locators))
	for _, l := range locators {
		table[l.ServiceName] = l.Monitor
	}

	p.mu.Lock()
	p.locators = table
	p.mu.Unlock()

	p.logger.Debug().Int("count", len(table)).Msg("Service monitor locators replaced")
}

// Initialize checks that the service can be resolved to a monitor.
func (p *PollService) Initialize(svc models.PolledService) error {
	_, err := p.resolve(svc.ServiceName)

	return err
}

// Poll runs the probe for svc. Probe failures are part of the returned
// status; the error is reserved for a service with no monitor.
func (p *PollService) Poll(ctx context.Context, svc models.PolledService) (models.PollStatus, error) {
	m, err := p.resolve(svc.ServiceName)
	if err != nil {
		return models.PollStatus{}, err
	}

	ctx, span := p.tracer.Start(ctx, "monitors.Poll", trace.WithAttributes(
		attribute.Int("service.id", svc.ID),
		attribute.Int64("node.id", svc.NodeID),
		attribute.String("service.name", svc.ServiceName),
		attribute.String("net.peer.ip", svc.IPAddr),
	))
	defer span.End()

	status := m.Poll(ctx, Target{Address: svc.IPAddr, Parameters: svc.Parameters})
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	span.SetAttributes(attribute.String("poll.status", string(status.Status)))

	if status.IsDown() {
		span.SetStatus(codes.Error, status.Reason)
	}

	return status, nil
}

func (p *PollService) resolve(serviceName string) (Monitor, error) {
	p.mu.RLock()
	kind, ok := p.locators[serviceName]
	p.mu.RUnlock()

	if !ok {
		kind = strings.ToLower(serviceName)
	}

	m, err := p.registry.Get(kind)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}

	return m, nil
}
