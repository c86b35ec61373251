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

// Package scheduler runs delayed tasks on a bounded set of goroutines.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/carverauto/outpost/pkg/logger"
)

//go:generate mockgen -destination=mock_scheduler.go -package=scheduler github.com/carverauto/outpost/pkg/scheduler Scheduler,Task

// Task is a unit of scheduled work. Periodic tasks reschedule themselves.
type Task interface {
	Run(ctx context.Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context)

func (f TaskFunc) Run(ctx context.Context) { f(ctx) }

// Scheduler runs a task once after interval has elapsed.
type Scheduler interface {
	Schedule(task Task, interval time.Duration)
}

const defaultMaxConcurrent = 32

// TimerScheduler is a Scheduler backed by runtime timers. At most
// maxConcurrent tasks run at the same time; due tasks wait for a slot.
type TimerScheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	logger  logger.Logger
	wg      sync.WaitGroup
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*time.Timer
	stopped bool
}

// NewTimerScheduler creates a scheduler. maxConcurrent <= 0 uses a default.
func NewTimerScheduler(maxConcurrent int, log logger.Logger) *TimerScheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TimerScheduler{
		ctx:     ctx,
		cancel:  cancel,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  log,
		pending: make(map[uint64]*time.Timer),
	}
}

// Schedule arranges for task to run after interval. It is a no-op once the
// scheduler is stopped.
func (s *TimerScheduler) Schedule(task Task, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.nextID++
	id := s.nextID

	s.wg.Add(1)
	s.pending[id] = time.AfterFunc(interval, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		s.run(task)
	})
}

func (s *TimerScheduler) run(task Task) {
	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Scheduled task panicked")
		}
	}()

	task.Run(s.ctx)
}

// Pending returns the number of tasks waiting for their timer.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// Stop cancels pending timers, signals running tasks through their context
// and waits for them to return or for ctx to expire.
func (s *TimerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true

	for id, t := range s.pending {
		if t.Stop() {
			s.wg.Done()
		}

		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
