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
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/outpost/pkg/backend"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/poller"
	"github.com/carverauto/outpost/pkg/topology"
)

var errMonitorDeleted = errors.New("location monitor was deleted")

// MonitorInfo is a point-in-time view of one registered location monitor.
type MonitorInfo struct {
	ID          int
	Location    string
	Status      models.MonitorStatus
	Details     map[string]string
	LastCheckIn time.Time
}

type locationMonitor struct {
	id          int
	location    string
	status      models.MonitorStatus
	details     map[string]string
	lastCheckIn time.Time
	results     map[int]models.PollStatus
}

// LocationMonitorService is the backend remote pollers talk to. It keeps the
// monitor registry, hands out per-location configurations and decides the
// directive returned on each check-in.
type LocationMonitorService struct {
	mu              sync.Mutex
	locations       map[string]models.MonitoringLocation
	locators        []models.ServiceMonitorLocator
	monitors        map[int]*locationMonitor
	nextMonitorID   int
	configs         *configurations
	disconnectAfter time.Duration
	now             func() time.Time
	logger          logger.Logger
}

// ServiceOption customizes a LocationMonitorService.
type ServiceOption func(*LocationMonitorService)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *LocationMonitorService) {
		s.now = now
	}
}

func NewLocationMonitorService(
	locations []models.MonitoringLocation,
	locators []models.ServiceMonitorLocator,
	packages *topology.Packages,
	inventory Inventory,
	disconnectAfter time.Duration,
	log logger.Logger,
	opts ...ServiceOption,
) *LocationMonitorService {
	s := &LocationMonitorService{
		locations:       make(map[string]models.MonitoringLocation, len(locations)),
		locators:        append([]models.ServiceMonitorLocator(nil), locators...),
		monitors:        make(map[int]*locationMonitor),
		disconnectAfter: disconnectAfter,
		now:             time.Now,
		logger:          log,
	}

	for _, loc := range locations {
		s.locations[loc.Name] = loc
	}

	for _, opt := range opts {
		opt(s)
	}

	s.configs = newConfigurations(packages, inventory, s.now, log)

	return s
}

var _ poller.Backend = (*LocationMonitorService)(nil)

// RegisterLocationMonitor creates a monitor for a known location.
func (s *LocationMonitorService) RegisterLocationMonitor(ctx context.Context, location string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[location]; !ok {
		return 0, fmt.Errorf("%w: %s", backend.ErrUnknownLocation, location)
	}

	s.nextMonitorID++

	m := &locationMonitor{
		id:       s.nextMonitorID,
		location: location,
		status:   models.MonitorRegistered,
		results:  make(map[int]models.PollStatus),
	}
	s.monitors[m.id] = m

	recordMonitorStatus(ctx, m.status)

	s.logger.Info().Int("monitor_id", m.id).Str("location", location).Msg("Location monitor registered")

	return m.id, nil
}

// PollerStarting marks the monitor started. An unknown or deleted monitor
// yields false so the poller forgets its id.
func (s *LocationMonitorService) PollerStarting(ctx context.Context, monitorID int, details map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.monitors[monitorID]
	if !ok || m.status == models.MonitorDeleted {
		s.logger.Warn().Int("monitor_id", monitorID).Msg("Starting poller has no live monitor")

		return false, nil
	}

	m.details = maps.Clone(details)
	m.lastCheckIn = s.now()
	s.setStatus(ctx, m, models.MonitorStarted)

	s.logger.Info().Int("monitor_id", monitorID).Str("location", m.location).Msg("Poller starting")

	return true, nil
}

// PollerStopping marks the monitor disconnected until it starts again.
func (s *LocationMonitorService) PollerStopping(ctx context.Context, monitorID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return err
	}

	if m.status != models.MonitorDeleted {
		s.setStatus(ctx, m, models.MonitorDisconnected)
	}

	s.logger.Info().Int("monitor_id", monitorID).Msg("Poller stopping")

	return nil
}

// PollerCheckingIn records the check-in and returns the directive for the
// poller. A disconnected monitor that checks in is started again.
func (s *LocationMonitorService) PollerCheckingIn(
	ctx context.Context, monitorID int, configTimestamp *time.Time,
) (models.MonitorStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return models.MonitorUnknown, err
	}

	m.lastCheckIn = s.now()

	var directive models.MonitorStatus

	switch m.status {
	case models.MonitorDeleted:
		directive = models.MonitorDeleted
	case models.MonitorPaused:
		directive = models.MonitorPaused
	case models.MonitorDisconnected:
		s.setStatus(ctx, m, models.MonitorStarted)

		s.logger.Info().Int("monitor_id", monitorID).Msg("Disconnected poller reconnected")

		directive = models.MonitorStarted
	default:
		if m.status == models.MonitorRegistered {
			s.setStatus(ctx, m, models.MonitorStarted)
		}

		directive = s.configDirective(ctx, m, configTimestamp)
	}

	recordCheckIn(ctx, directive)

	return directive, nil
}

func (s *LocationMonitorService) configDirective(
	ctx context.Context, m *locationMonitor, pollerTimestamp *time.Time,
) models.MonitorStatus {
	current, err := s.configs.timestamp(ctx, s.locations[m.location])
	if err != nil {
		s.logger.Warn().Err(err).Int("monitor_id", m.id).Msg("No configuration for checking-in poller")

		return models.MonitorStarted
	}

	if pollerTimestamp == nil || pollerTimestamp.Before(current) {
		return models.MonitorConfigChanged
	}

	return models.MonitorStarted
}

// GetPollerConfiguration returns the current configuration of the monitor's
// location.
func (s *LocationMonitorService) GetPollerConfiguration(ctx context.Context, monitorID int) (*models.PollerConfiguration, error) {
	s.mu.Lock()
	m, err := s.monitor(monitorID)

	var loc models.MonitoringLocation
	if err == nil {
		loc = s.locations[m.location]
		if m.status == models.MonitorDeleted {
			err = fmt.Errorf("%w: %d", errMonitorDeleted, monitorID)
		}
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return s.configs.get(ctx, loc)
}

// GetServiceMonitorLocators returns the configured service to monitor
// bindings. The scope is accepted for the contract; every context sees the
// same table.
func (s *LocationMonitorService) GetServiceMonitorLocators(
	_ context.Context, _ models.DistributionContext,
) ([]models.ServiceMonitorLocator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.ServiceMonitorLocator(nil), s.locators...), nil
}

// ReportResult stores the latest poll result of a service.
func (s *LocationMonitorService) ReportResult(ctx context.Context, monitorID, serviceID int, result models.PollStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return err
	}

	if m.status == models.MonitorDeleted {
		return fmt.Errorf("%w: %d", errMonitorDeleted, monitorID)
	}

	m.results[serviceID] = result

	recordResult(ctx, m.location, result.Status)

	s.logger.Debug().
		Int("monitor_id", monitorID).
		Int("service_id", serviceID).
		Str("status", string(result.Status)).
		Msg("Poll result reported")

	return nil
}

// GetMonitoringLocations lists the known locations by name.
func (s *LocationMonitorService) GetMonitoringLocations(_ context.Context) ([]models.MonitoringLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MonitoringLocation, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// GetMonitorName returns the name of the monitor's location.
func (s *LocationMonitorService) GetMonitorName(_ context.Context, monitorID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return "", err
	}

	return m.location, nil
}

// Pause tells the monitor's poller to stop polling on its next check-in.
func (s *LocationMonitorService) Pause(ctx context.Context, monitorID int) error {
	return s.administer(ctx, monitorID, models.MonitorPaused)
}

// Resume restarts a paused monitor.
func (s *LocationMonitorService) Resume(ctx context.Context, monitorID int) error {
	return s.administer(ctx, monitorID, models.MonitorStarted)
}

// Delete retires the monitor. Its poller is told on its next check-in and
// the id is never handed out again.
func (s *LocationMonitorService) Delete(ctx context.Context, monitorID int) error {
	return s.administer(ctx, monitorID, models.MonitorDeleted)
}

func (s *LocationMonitorService) administer(ctx context.Context, monitorID int, status models.MonitorStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return err
	}

	if m.status == models.MonitorDeleted {
		return fmt.Errorf("%w: %d", errMonitorDeleted, monitorID)
	}

	s.setStatus(ctx, m, status)

	s.logger.Info().Int("monitor_id", monitorID).Str("status", string(status)).Msg("Location monitor updated")

	return nil
}

// Monitors lists every monitor ordered by id.
func (s *LocationMonitorService) Monitors() []MonitorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MonitorInfo, 0, len(s.monitors))
	for _, m := range s.monitors {
		out = append(out, MonitorInfo{
			ID:          m.id,
			Location:    m.location,
			Status:      m.status,
			Details:     maps.Clone(m.details),
			LastCheckIn: m.lastCheckIn,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// LastResults returns the latest reported result per service id.
func (s *LocationMonitorService) LastResults(monitorID int) (map[int]models.PollStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.monitor(monitorID)
	if err != nil {
		return nil, err
	}

	return maps.Clone(m.results), nil
}

// Sweep disconnects started monitors that have not checked in within the
// disconnect threshold. It returns the ids it disconnected.
func (s *LocationMonitorService) Sweep(ctx context.Context) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := s.now().Add(-s.disconnectAfter)

	var stale []int

	for _, m := range s.monitors {
		if m.status != models.MonitorStarted && m.status != models.MonitorRegistered {
			continue
		}

		if m.lastCheckIn.IsZero() || !m.lastCheckIn.Before(threshold) {
			continue
		}

		s.setStatus(ctx, m, models.MonitorDisconnected)
		stale = append(stale, m.id)

		s.logger.Warn().
			Int("monitor_id", m.id).
			Str("location", m.location).
			Time("last_checkin", m.lastCheckIn).
			Msg("Location monitor disconnected")
	}

	sort.Ints(stale)

	return stale
}

// RefreshConfigurations rebuilds every location's configuration from the
// inventory. Locations whose service list changed get a new timestamp.
func (s *LocationMonitorService) RefreshConfigurations(ctx context.Context) error {
	s.mu.Lock()
	locations := make([]models.MonitoringLocation, 0, len(s.locations))
	for _, loc := range s.locations {
		locations = append(locations, loc)
	}
	s.mu.Unlock()

	return s.configs.refresh(ctx, locations)
}

func (s *LocationMonitorService) monitor(id int) (*locationMonitor, error) {
	m, ok := s.monitors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrUnknownMonitor, id)
	}

	return m, nil
}

func (*LocationMonitorService) setStatus(ctx context.Context, m *locationMonitor, status models.MonitorStatus) {
	if m.status == status {
		return
	}

	m.status = status

	recordMonitorStatus(ctx, status)
}
