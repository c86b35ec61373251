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

	"github.com/cenkalti/backoff/v5"

	"github.com/carverauto/outpost/pkg/logger"
)

var errNotStarted = errors.New("poller has not started yet")

type stopper interface {
	Stop(ctx context.Context) error
}

// Runner drives a FrontEnd: it brings the poller up with exponential
// backoff, registering at the configured location when it has no identity,
// then checks in on every tick. Retry policy lives here; the FrontEnd never
// retries.
type Runner struct {
	config     *Config
	frontEnd   *FrontEnd
	dispatcher *Dispatcher
	scheduler  stopper
	clock      Clock
	logger     logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner wires the dispatcher to configuration changes of the FrontEnd.
func NewRunner(cfg *Config, fe *FrontEnd, dispatcher *Dispatcher, sched stopper, clock Clock, log logger.Logger) *Runner {
	if clock == nil {
		clock = realClock{}
	}

	fe.AddConfigurationChangedListener(dispatcher.OnConfigurationChanged)

	return &Runner{
		config:     cfg,
		frontEnd:   fe,
		dispatcher: dispatcher,
		scheduler:  sched,
		clock:      clock,
		logger:     log,
		done:       make(chan struct{}),
	}
}

// Start implements the lifecycle.Service interface. It returns immediately;
// the start sequence and the check-in loop run in the background.
func (r *Runner) Start(ctx context.Context) error {
	r.wg.Add(1)

	go r.run(ctx)

	return nil
}

// Stop implements the lifecycle.Service interface.
func (r *Runner) Stop(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.done)
	})

	waited := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.dispatcher.Halt()

	var errs []error

	if r.scheduler != nil {
		if err := r.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.frontEnd.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := r.bootstrap(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Poller did not start, will keep trying on check-in")
	}

	interval := r.config.CheckInInterval.Std()
	ticker := r.clock.Ticker(interval)

	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("Check-in loop started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := r.step(ctx); err != nil {
				r.logger.Warn().Err(err).Str("state", r.frontEnd.State().String()).Msg("Check-in failed")
			}
		}
	}
}

func (r *Runner) bootstrap(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()

	operation := func() (struct{}, error) {
		if err := r.step(ctx); err != nil {
			if errors.Is(err, errNoLocation) || errors.Is(err, ErrIllegalState) {
				return struct{}{}, backoff.Permanent(err)
			}

			return struct{}{}, err
		}

		if !r.frontEnd.IsStarted() {
			return struct{}{}, errNotStarted
		}

		return struct{}{}, nil
	}

	notify := func(err error, next time.Duration) {
		r.logger.Warn().Err(err).Dur("retry_in", next).Msg("Poller start failed")
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(r.config.StartMaxElapsed.Std()),
		backoff.WithNotify(notify),
	)

	return err
}

// step advances the poller by one backend interaction appropriate to its
// current state.
func (r *Runner) step(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.RPCTimeout.Std())
	defer cancel()

	switch r.frontEnd.State() {
	case StateInitial:
		if err := r.frontEnd.Initialize(ctx); err != nil {
			return err
		}

		if r.frontEnd.State() != StateRegistering {
			return nil
		}

		fallthrough
	case StateRegistering:
		if r.config.Location == "" {
			return errNoLocation
		}

		return r.frontEnd.Register(ctx, r.config.Location)
	default:
		return r.frontEnd.CheckIn(ctx)
	}
}
