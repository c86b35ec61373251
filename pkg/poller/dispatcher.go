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
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/scheduler"
)

const defaultServiceInterval = 5 * time.Minute

// pollTarget is the part of the FrontEnd the dispatcher drives.
type pollTarget interface {
	PollService(ctx context.Context, serviceID int) error
	PolledServices() []models.PolledService
	SetInitialPollTime(serviceID int, at time.Time) bool
}

// Dispatcher schedules a periodic PollService call per configured service.
// Every rebuild starts a new generation and tasks from older generations
// retire on their next run. Pause and disconnect retire the current
// generation without starting a new one. A rate limiter smooths the load
// when many services fall due together.
type Dispatcher struct {
	target    pollTarget
	scheduler scheduler.Scheduler
	limiter   *rate.Limiter
	clock     Clock
	logger    logger.Logger

	mu         sync.Mutex
	generation uint64
	active     bool
}

// NewDispatcher creates a dispatcher. A zero limit disables rate limiting.
func NewDispatcher(target pollTarget, sched scheduler.Scheduler, limit rate.Limit, burst int, clock Clock, log logger.Logger) *Dispatcher {
	if limit <= 0 {
		limit = rate.Inf
	}

	if burst <= 0 {
		burst = 1
	}

	if clock == nil {
		clock = realClock{}
	}

	return &Dispatcher{
		target:    target,
		scheduler: sched,
		limiter:   rate.NewLimiter(limit, burst),
		clock:     clock,
		logger:    log,
	}
}

// OnConfigurationChanged matches notify.ConfigurationChangedFunc. A reload
// that keeps the timestamp leaves an active schedule alone; otherwise every
// steady-state check-in would restart the poll cycle.
func (d *Dispatcher) OnConfigurationChanged(previous, current *time.Time) {
	if d.Active() && sameTimestamp(previous, current) {
		return
	}

	d.Rebuild()
}

func sameTimestamp(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}

// Rebuild schedules every configured service. First polls are spread over
// the service's interval so a reload does not probe everything at once.
func (d *Dispatcher) Rebuild() {
	services := d.target.PolledServices()

	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.active = true
	d.mu.Unlock()

	now := d.clock.Now()

	for i, svc := range services {
		interval := serviceInterval(svc)
		delay := time.Duration(0)

		if n := len(services); n > 1 {
			delay = interval * time.Duration(i) / time.Duration(n)
		}

		d.target.SetInitialPollTime(svc.ID, now.Add(delay))
		d.scheduler.Schedule(d.task(gen, svc.ID, interval), delay)
	}

	d.logger.Info().Int("services", len(services)).Uint64("generation", gen).Msg("Poll schedule rebuilt")
}

// Pause implements Hooks.
func (d *Dispatcher) Pause() {
	d.retire("paused")
}

// Disconnect implements Hooks.
func (d *Dispatcher) Disconnect() {
	d.retire("disconnected")
}

// Halt retires all scheduled polls.
func (d *Dispatcher) Halt() {
	d.retire("halted")
}

// Active reports whether polls are currently being dispatched.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.active
}

func (d *Dispatcher) retire(reason string) {
	d.mu.Lock()
	d.generation++
	d.active = false
	d.mu.Unlock()

	d.logger.Info().Str("reason", reason).Msg("Poll dispatch suspended")
}

func (d *Dispatcher) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.active && d.generation == gen
}

func (d *Dispatcher) task(gen uint64, serviceID int, interval time.Duration) scheduler.Task {
	var self scheduler.TaskFunc

	self = func(ctx context.Context) {
		if !d.current(gen) {
			return
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return
		}

		err := d.target.PollService(ctx, serviceID)

		switch {
		case errors.Is(err, ErrIllegalState):
			d.logger.Debug().Int("service_id", serviceID).Err(err).Msg("Poll skipped, poller not running")

			return
		case err != nil:
			d.logger.Warn().Int("service_id", serviceID).Err(err).Msg("Poll failed")
		}

		if d.current(gen) {
			d.scheduler.Schedule(self, interval)
		}
	}

	return self
}

func serviceInterval(svc models.PolledService) time.Duration {
	if iv := svc.Interval.Std(); iv > 0 {
		return iv
	}

	return defaultServiceInterval
}
