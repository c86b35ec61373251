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

// Package poller implements the remote poller: a lifecycle state machine that
// registers with the backend, follows its check-in directives and runs the
// probes it is assigned.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/notify"
	"github.com/carverauto/outpost/pkg/pollstate"
)

// PropertyRegistered is fired with (false, true) once registration completes.
const PropertyRegistered = "registered"

// FrontEnd is the poller's lifecycle state machine. Lifecycle operations are
// serialized; probes run outside the lock. Listeners are invoked after the
// lock is released, so they may call back into the FrontEnd. Hooks are
// invoked with the lock held and must not.
type FrontEnd struct {
	backend     Backend
	settings    Settings
	pollService PollService
	hooks       Hooks
	store       *pollstate.Store
	listeners   notify.Hub
	clock       Clock
	details     func(ctx context.Context) map[string]string
	logger      logger.Logger

	mu        sync.Mutex
	state     State
	monitorID int
	config    *models.PollerConfiguration
	pending   []func()
}

// Option customizes a FrontEnd.
type Option func(*FrontEnd)

func WithClock(clock Clock) Option {
	return func(f *FrontEnd) { f.clock = clock }
}

// WithDetails replaces the host details sent with PollerStarting.
func WithDetails(fn func(ctx context.Context) map[string]string) Option {
	return func(f *FrontEnd) { f.details = fn }
}

func NewFrontEnd(backend Backend, settings Settings, pollService PollService, hooks Hooks, log logger.Logger, opts ...Option) (*FrontEnd, error) {
	switch {
	case backend == nil:
		return nil, errBackendRequired
	case settings == nil:
		return nil, errSettingsRequired
	case pollService == nil:
		return nil, errPollServiceRequired
	case hooks == nil:
		return nil, errHooksRequired
	}

	f := &FrontEnd{
		backend:     backend,
		settings:    settings,
		pollService: pollService,
		hooks:       hooks,
		store:       pollstate.NewStore(),
		clock:       realClock{},
		details:     HostDetails,
		logger:      log,
		state:       StateInitial,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Initialize looks up the persisted identity. Without one the poller waits
// for Register; with one it announces itself and loads its configuration.
func (f *FrontEnd) Initialize(ctx context.Context) error {
	return f.locked(OpInitialize, func() error {
		id, ok, err := f.settings.MonitorID(ctx)
		if err != nil {
			return fmt.Errorf("failed to read monitor id: %w", err)
		}

		if !ok {
			f.setState(StateRegistering)

			return nil
		}

		started, err := f.startSequence(ctx, id)
		if err != nil {
			return err
		}

		if !started {
			f.logger.Warn().Int("monitor_id", id).Msg("Monitor was deleted on the server, purging identity")

			return f.purge(ctx)
		}

		f.setState(StateStarted)

		return nil
	})
}

// Register obtains a new identity for location and starts the poller.
func (f *FrontEnd) Register(ctx context.Context, location string) error {
	return f.locked(OpRegister, func() error {
		id, err := f.backend.RegisterLocationMonitor(ctx, location)
		if err != nil {
			return fmt.Errorf("failed to register at location %q: %w", location, err)
		}

		if err := f.settings.SetMonitorID(ctx, id); err != nil {
			return fmt.Errorf("failed to persist monitor id: %w", err)
		}

		f.logger.Info().Int("monitor_id", id).Str("location", location).Msg("Registered location monitor")

		started, err := f.startSequence(ctx, id)
		if err != nil {
			return err
		}

		if !started {
			f.logger.Warn().Int("monitor_id", id).Msg("Backend refused a freshly registered monitor")

			if err := f.purge(ctx); err != nil {
				return err
			}

			f.setState(StateInitial)

			return nil
		}

		f.setState(StateStarted)
		f.queue(func() { f.listeners.FirePropertyChange(PropertyRegistered, false, true) })

		return nil
	})
}

// CheckIn asks the backend for its directive and applies it. Outside a
// running state it does nothing.
func (f *FrontEnd) CheckIn(ctx context.Context) error {
	return f.locked(OpCheckIn, func() error {
		directive, err := f.backend.PollerCheckingIn(ctx, f.monitorID, f.configTimestamp())
		if err != nil {
			recordCheckIn(ctx, "error")

			return fmt.Errorf("check-in failed: %w", err)
		}

		recordCheckIn(ctx, string(directive))

		r, ok := directives[f.state][directive]
		if !ok {
			f.logger.Debug().
				Str("state", f.state.String()).
				Str("directive", string(directive)).
				Msg("Directive ignored")

			return nil
		}

		if r.reload {
			if err := f.loadConfig(ctx, f.monitorID); err != nil {
				return err
			}
		}

		switch r.hook {
		case hookPause:
			f.hooks.Pause()
		case hookDisconnect:
			f.hooks.Disconnect()
		case hookNone:
		}

		if r.purge {
			if err := f.purge(ctx); err != nil {
				return err
			}
		}

		f.setState(r.next)

		return nil
	})
}

// PollService probes one service, records the result and reports it. An id
// that is no longer configured is ignored.
func (f *FrontEnd) PollService(ctx context.Context, serviceID int) error {
	f.mu.Lock()
	run, err := f.allowed(OpPollService)
	monitorID := f.monitorID
	f.mu.Unlock()

	if !run {
		return err
	}

	current, ok := f.store.Get(serviceID)
	if !ok {
		return nil
	}

	result, err := f.pollService.Poll(ctx, current.Service)
	if err != nil {
		return err
	}

	updated, ok := f.store.RecordResult(serviceID, result, f.clock.Now())
	if !ok {
		return nil
	}

	recordPoll(ctx, result)
	f.listeners.FirePollStateChanged(updated)

	if err := f.backend.ReportResult(ctx, monitorID, serviceID, result); err != nil {
		return fmt.Errorf("failed to report result for service %d: %w", serviceID, err)
	}

	return nil
}

// Stop ends the session. A disconnected poller skips the backend call.
func (f *FrontEnd) Stop(ctx context.Context) error {
	return f.locked(OpStop, func() error {
		if stopNotifiesBackend[f.state] {
			if err := f.backend.PollerStopping(ctx, f.monitorID); err != nil {
				return fmt.Errorf("failed to report stop: %w", err)
			}
		}

		f.setState(StateInitial)

		return nil
	})
}

func (f *FrontEnd) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *FrontEnd) IsRegistered() bool {
	return f.State().IsRegistered()
}

func (f *FrontEnd) IsStarted() bool {
	return f.State().IsRunning()
}

// MonitorID returns the identity in use; ok is false before registration.
func (f *FrontEnd) MonitorID() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.monitorID, f.state.IsRegistered()
}

// MonitorName returns the backend's name for this poller, or "" when the
// poller is not registered.
func (f *FrontEnd) MonitorName(ctx context.Context) (string, error) {
	id, ok := f.MonitorID()
	if !ok {
		return "", nil
	}

	return f.backend.GetMonitorName(ctx, id)
}

func (f *FrontEnd) MonitoringLocations(ctx context.Context) ([]models.MonitoringLocation, error) {
	return f.backend.GetMonitoringLocations(ctx)
}

// ConfigurationTimestamp returns the timestamp of the loaded configuration,
// nil when none is loaded.
func (f *FrontEnd) ConfigurationTimestamp() *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.configTimestamp()
}

// PolledServices returns the configured services in index order.
func (f *FrontEnd) PolledServices() []models.PolledService {
	states := f.store.Snapshot()

	out := make([]models.PolledService, len(states))
	for i := range states {
		out[i] = states[i].Service
	}

	return out
}

func (f *FrontEnd) PollState() []pollstate.ServicePollState {
	return f.store.Snapshot()
}

func (f *FrontEnd) ServicePollState(serviceID int) (pollstate.ServicePollState, bool) {
	return f.store.Get(serviceID)
}

// SetInitialPollTime records when a service will first be polled and
// notifies poll-state listeners.
func (f *FrontEnd) SetInitialPollTime(serviceID int, at time.Time) bool {
	if !f.store.SetInitialPollTime(serviceID, at) {
		return false
	}

	if state, ok := f.store.Get(serviceID); ok {
		f.listeners.FirePollStateChanged(state)
	}

	return true
}

func (f *FrontEnd) AddConfigurationChangedListener(fn notify.ConfigurationChangedFunc) notify.Subscription {
	return f.listeners.Configuration.Add(fn)
}

func (f *FrontEnd) RemoveConfigurationChangedListener(sub notify.Subscription) bool {
	return f.listeners.Configuration.Remove(sub)
}

func (f *FrontEnd) AddPollStateChangedListener(fn notify.PollStateChangedFunc) notify.Subscription {
	return f.listeners.PollState.Add(fn)
}

func (f *FrontEnd) RemovePollStateChangedListener(sub notify.Subscription) bool {
	return f.listeners.PollState.Remove(sub)
}

func (f *FrontEnd) AddPropertyChangeListener(fn notify.PropertyChangeFunc) notify.Subscription {
	return f.listeners.Property.Add(fn)
}

func (f *FrontEnd) RemovePropertyChangeListener(sub notify.Subscription) bool {
	return f.listeners.Property.Remove(sub)
}

// locked runs fn under the lifecycle lock when op is allowed in the current
// state, then delivers queued notifications.
func (f *FrontEnd) locked(op Op, fn func() error) error {
	f.mu.Lock()

	run, err := f.allowed(op)
	if run {
		err = fn()
	}

	events := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, fire := range events {
		fire()
	}

	return err
}

func (f *FrontEnd) allowed(op Op) (bool, error) {
	switch opRules[f.state][op] {
	case ruleRun:
		return true, nil
	case ruleNoop:
		return false, nil
	case ruleIllegal:
	}

	return false, &IllegalStateError{Op: op, State: f.state}
}

func (f *FrontEnd) queue(fire func()) {
	f.pending = append(f.pending, fire)
}

func (f *FrontEnd) setState(next State) {
	if next == f.state {
		return
	}

	f.logger.Info().
		Str("from", f.state.String()).
		Str("to", next.String()).
		Int("monitor_id", f.monitorID).
		Msg("Poller state changed")

	recordTransition(context.Background(), f.state, next)

	f.state = next
}

// startSequence announces the poller and loads its configuration. It
// returns false when the backend no longer knows the monitor.
func (f *FrontEnd) startSequence(ctx context.Context, id int) (bool, error) {
	ok, err := f.backend.PollerStarting(ctx, id, f.details(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to announce poller start: %w", err)
	}

	if !ok {
		return false, nil
	}

	if err := f.loadConfig(ctx, id); err != nil {
		return false, err
	}

	f.monitorID = id

	return true, nil
}

func (f *FrontEnd) purge(ctx context.Context) error {
	if err := f.settings.ClearMonitorID(ctx); err != nil {
		return fmt.Errorf("failed to purge monitor id: %w", err)
	}

	f.monitorID = 0

	return nil
}

// loadConfig replaces the locators and the poll set with a fresh copy from
// the backend. Indices restart at 0.
func (f *FrontEnd) loadConfig(ctx context.Context, id int) error {
	previous := f.configTimestamp()

	locators, err := f.backend.GetServiceMonitorLocators(ctx, models.ContextRemoteMonitor)
	if err != nil {
		return fmt.Errorf("failed to fetch service monitor locators: %w", err)
	}

	cfg, err := f.backend.GetPollerConfiguration(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch poller configuration: %w", err)
	}

	if cfg == nil {
		cfg = &models.PollerConfiguration{}
	}

	f.pollService.SetServiceMonitorLocators(locators)

	for _, svc := range cfg.Services {
		if err := f.pollService.Initialize(svc); err != nil {
			f.logger.Warn().Err(err).Int("service_id", svc.ID).Msg("Service cannot be probed")
		}
	}

	f.store.Replace(cfg.Services)
	f.config = cfg

	current := f.configTimestamp()

	f.logger.Info().
		Int("services", len(cfg.Services)).
		Time("configuration_timestamp", cfg.ConfigurationTimestamp).
		Msg("Poller configuration loaded")

	f.queue(func() { f.listeners.FireConfigurationChanged(previous, current) })

	return nil
}

func (f *FrontEnd) configTimestamp() *time.Time {
	if f.config == nil || f.config.ConfigurationTimestamp.IsZero() {
		return nil
	}

	ts := f.config.ConfigurationTimestamp

	return &ts
}
