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

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/outpost/pkg/logger"
)

func TestTimerSchedulerRunsTaskAfterInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewTimerScheduler(2, logger.NewTestLogger())
	defer func() { _ = s.Stop(context.Background()) }()

	ran := make(chan struct{})
	task := NewMockTask(ctrl)
	task.EXPECT().Run(gomock.Any()).Do(func(context.Context) { close(ran) }).Times(1)

	start := time.Now()
	s.Schedule(task, 20*time.Millisecond)

	select {
	case <-ran:
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestTimerSchedulerStopCancelsPendingTasks(t *testing.T) {
	s := NewTimerScheduler(0, logger.NewTestLogger())

	var runs atomic.Int32

	s.Schedule(TaskFunc(func(context.Context) { runs.Add(1) }), time.Hour)
	s.Schedule(TaskFunc(func(context.Context) { runs.Add(1) }), time.Hour)
	assert.Equal(t, 2, s.Pending())

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 0, s.Pending())

	s.Schedule(TaskFunc(func(context.Context) { runs.Add(1) }), time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), runs.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestTimerSchedulerRecoversPanics(t *testing.T) {
	s := NewTimerScheduler(1, logger.NewTestLogger())
	defer func() { _ = s.Stop(context.Background()) }()

	done := make(chan struct{})

	s.Schedule(TaskFunc(func(context.Context) { panic("boom") }), 0)
	s.Schedule(TaskFunc(func(context.Context) { close(done) }), 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped running tasks after a panic")
	}
}

func TestTimerSchedulerBoundsConcurrency(t *testing.T) {
	s := NewTimerScheduler(2, logger.NewTestLogger())
	defer func() { _ = s.Stop(context.Background()) }()

	var (
		running atomic.Int32
		peak    atomic.Int32
		done    = make(chan struct{}, 6)
	)

	for i := 0; i < 6; i++ {
		s.Schedule(TaskFunc(func(context.Context) {
			n := running.Add(1)

			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			done <- struct{}{}
		}), 0)
	}

	for i := 0; i < 6; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not complete")
		}
	}

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTimerSchedulerPeriodicTaskReschedules(t *testing.T) {
	s := NewTimerScheduler(1, logger.NewTestLogger())

	var runs atomic.Int32

	var periodic Task

	periodic = TaskFunc(func(ctx context.Context) {
		if runs.Add(1) < 3 && ctx.Err() == nil {
			s.Schedule(periodic, 5*time.Millisecond)
		}
	})

	s.Schedule(periodic, 0)

	require.Eventually(t, func() bool { return runs.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}
