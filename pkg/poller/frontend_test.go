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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/pollstate"
)

var errBackendDown = errors.New("backend down")

type frontEndMocks struct {
	backend     *MockBackend
	settings    *MockSettings
	pollService *MockPollService
	hooks       *MockHooks
}

func newTestFrontEnd(t *testing.T) (*FrontEnd, *frontEndMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &frontEndMocks{
		backend:     NewMockBackend(ctrl),
		settings:    NewMockSettings(ctrl),
		pollService: NewMockPollService(ctrl),
		hooks:       NewMockHooks(ctrl),
	}

	fe, err := NewFrontEnd(m.backend, m.settings, m.pollService, m.hooks, logger.NewTestLogger(),
		WithDetails(func(context.Context) map[string]string { return map[string]string{"os.name": "test"} }))
	require.NoError(t, err)

	return fe, m
}

func testConfiguration(ts time.Time, ids ...int) *models.PollerConfiguration {
	cfg := &models.PollerConfiguration{ConfigurationTimestamp: ts}

	for _, id := range ids {
		cfg.Services = append(cfg.Services, models.PolledService{
			ID:          id,
			NodeID:      int64(id * 10),
			IPAddr:      "10.0.0.1",
			ServiceName: "HTTP",
			Interval:    models.Duration(time.Minute),
		})
	}

	return cfg
}

// expectLoad expects one configuration reload returning cfg.
func (m *frontEndMocks) expectLoad(id int, cfg *models.PollerConfiguration) {
	locators := []models.ServiceMonitorLocator{{ServiceName: "HTTP", Monitor: "http"}}

	m.backend.EXPECT().GetServiceMonitorLocators(gomock.Any(), models.ContextRemoteMonitor).Return(locators, nil)
	m.backend.EXPECT().GetPollerConfiguration(gomock.Any(), id).Return(cfg, nil)
	m.pollService.EXPECT().SetServiceMonitorLocators(locators)
	m.pollService.EXPECT().Initialize(gomock.Any()).Return(nil).Times(len(cfg.Services))
}

func TestNewFrontEndRequiresCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewFrontEnd(nil, NewMockSettings(ctrl), NewMockPollService(ctrl), NewMockHooks(ctrl), logger.NewTestLogger())
	require.ErrorIs(t, err, errBackendRequired)

	_, err = NewFrontEnd(NewMockBackend(ctrl), NewMockSettings(ctrl), NewMockPollService(ctrl), nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errHooksRequired)
}

func TestIllegalOperationsFailInEveryState(t *testing.T) {
	ctx := context.Background()

	ops := map[Op]func(*FrontEnd) error{
		OpInitialize:  func(f *FrontEnd) error { return f.Initialize(ctx) },
		OpCheckIn:     func(f *FrontEnd) error { return f.CheckIn(ctx) },
		OpPollService: func(f *FrontEnd) error { return f.PollService(ctx, 1) },
		OpStop:        func(f *FrontEnd) error { return f.Stop(ctx) },
		OpRegister:    func(f *FrontEnd) error { return f.Register(ctx, "branch-1") },
	}

	for state := StateInitial; state < numStates; state++ {
		for op := OpInitialize; op < numOps; op++ {
			if opRules[state][op] != ruleIllegal {
				continue
			}

			t.Run(state.String()+"/"+op.String(), func(t *testing.T) {
				fe, _ := newTestFrontEnd(t)
				fe.state = state

				err := ops[op](fe)
				require.ErrorIs(t, err, ErrIllegalState)

				var illegal *IllegalStateError
				require.ErrorAs(t, err, &illegal)
				assert.Equal(t, op, illegal.Op)
				assert.Equal(t, state, illegal.State)
				assert.Equal(t, state, fe.State())
			})
		}
	}
}

func TestNoOpOperationsMakeNoBackendCalls(t *testing.T) {
	ctx := context.Background()

	for _, state := range []State{StateInitial, StateRegistering} {
		fe, _ := newTestFrontEnd(t)
		fe.state = state

		require.NoError(t, fe.CheckIn(ctx))
		require.NoError(t, fe.Stop(ctx))
		assert.Equal(t, state, fe.State())
	}

	fe, _ := newTestFrontEnd(t)
	fe.state = StatePaused
	require.NoError(t, fe.PollService(ctx, 1))
}

func TestInitializeWithoutIdentityWaitsForRegistration(t *testing.T) {
	fe, m := newTestFrontEnd(t)

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(0, false, nil)

	require.NoError(t, fe.Initialize(context.Background()))
	assert.Equal(t, StateRegistering, fe.State())
	assert.False(t, fe.IsRegistered())
}

func TestInitializeWithIdentityStarts(t *testing.T) {
	fe, m := newTestFrontEnd(t)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var gotOld, gotNew *time.Time

	fe.AddConfigurationChangedListener(func(oldTS, newTS *time.Time) {
		gotOld, gotNew = oldTS, newTS
	})

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(7, true, nil)
	m.backend.EXPECT().PollerStarting(gomock.Any(), 7, map[string]string{"os.name": "test"}).Return(true, nil)
	m.expectLoad(7, testConfiguration(ts, 11, 12))

	require.NoError(t, fe.Initialize(context.Background()))

	assert.Equal(t, StateStarted, fe.State())
	assert.True(t, fe.IsStarted())

	id, ok := fe.MonitorID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	assert.Nil(t, gotOld)
	require.NotNil(t, gotNew)
	assert.True(t, ts.Equal(*gotNew))
	assert.Len(t, fe.PolledServices(), 2)
}

func TestInitializeDeletedOnServerPurgesIdentity(t *testing.T) {
	fe, m := newTestFrontEnd(t)

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(7, true, nil)
	m.backend.EXPECT().PollerStarting(gomock.Any(), 7, gomock.Any()).Return(false, nil)
	m.settings.EXPECT().ClearMonitorID(gomock.Any()).Return(nil)

	require.NoError(t, fe.Initialize(context.Background()))
	assert.Equal(t, StateInitial, fe.State())
}

func TestFailedCallLeavesStateUnchanged(t *testing.T) {
	fe, m := newTestFrontEnd(t)

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(7, true, nil)
	m.backend.EXPECT().PollerStarting(gomock.Any(), 7, gomock.Any()).Return(false, errBackendDown)

	err := fe.Initialize(context.Background())
	require.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, StateInitial, fe.State())

	fe.state = StateStarted
	fe.monitorID = 7

	m.backend.EXPECT().PollerCheckingIn(gomock.Any(), 7, gomock.Any()).Return(models.MonitorStatus(""), errBackendDown)

	require.ErrorIs(t, fe.CheckIn(context.Background()), errBackendDown)
	assert.Equal(t, StateStarted, fe.State())
}

func TestRegisterDisconnectResumeScenario(t *testing.T) {
	fe, m := newTestFrontEnd(t)
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var registered []interface{}

	fe.AddPropertyChangeListener(func(name string, oldValue, newValue interface{}) {
		registered = append(registered, name, oldValue, newValue)
	})

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(0, false, nil)
	require.NoError(t, fe.Initialize(ctx))

	gomock.InOrder(
		m.backend.EXPECT().RegisterLocationMonitor(gomock.Any(), "branch-1").Return(7, nil),
		m.settings.EXPECT().SetMonitorID(gomock.Any(), 7).Return(nil),
		m.backend.EXPECT().PollerStarting(gomock.Any(), 7, gomock.Any()).Return(true, nil),
	)
	m.expectLoad(7, testConfiguration(ts, 1))

	require.NoError(t, fe.Register(ctx, "branch-1"))
	assert.Equal(t, StateStarted, fe.State())
	assert.Equal(t, []interface{}{PropertyRegistered, false, true}, registered)

	m.backend.EXPECT().PollerCheckingIn(gomock.Any(), 7, &ts).Return(models.MonitorDisconnected, nil)
	m.hooks.EXPECT().Disconnect()

	require.NoError(t, fe.CheckIn(ctx))
	assert.Equal(t, StateDisconnected, fe.State())

	next := ts.Add(time.Hour)

	m.backend.EXPECT().PollerCheckingIn(gomock.Any(), 7, &ts).Return(models.MonitorStarted, nil)
	m.expectLoad(7, testConfiguration(next, 1, 2))

	require.NoError(t, fe.CheckIn(ctx))
	assert.Equal(t, StateStarted, fe.State())
	assert.True(t, next.Equal(*fe.ConfigurationTimestamp()))
}

func TestStartedDirectiveReloadsWithFreshIndices(t *testing.T) {
	fe, m := newTestFrontEnd(t)
	ctx := context.Background()

	fe.state = StateStarted
	fe.monitorID = 3
	fe.store.Replace(testConfiguration(time.Time{}, 100, 101, 102, 103).Services)

	m.backend.EXPECT().PollerCheckingIn(gomock.Any(), 3, gomock.Any()).Return(models.MonitorStarted, nil)
	m.expectLoad(3, testConfiguration(time.Now(), 102, 7, 55))

	require.NoError(t, fe.CheckIn(ctx))
	assert.Equal(t, StateStarted, fe.State())

	states := fe.PollState()
	require.Len(t, states, 3)

	for i, st := range states {
		assert.Equal(t, i, st.Index)
	}

	assert.Equal(t, []int{102, 7, 55}, []int{states[0].Service.ID, states[1].Service.ID, states[2].Service.ID})

	_, ok := fe.ServicePollState(100)
	assert.False(t, ok)
}

func TestCheckInDirectives(t *testing.T) {
	tests := []struct {
		name      string
		from      State
		directive models.MonitorStatus
		expect    func(m *frontEndMocks)
		want      State
	}{
		{
			name: "started pauses", from: StateStarted, directive: models.MonitorPaused,
			expect: func(m *frontEndMocks) { m.hooks.EXPECT().Pause() },
			want:   StatePaused,
		},
		{
			name: "started is deleted", from: StateStarted, directive: models.MonitorDeleted,
			expect: func(m *frontEndMocks) { m.settings.EXPECT().ClearMonitorID(gomock.Any()).Return(nil) },
			want:   StateInitial,
		},
		{
			name: "paused disconnects", from: StatePaused, directive: models.MonitorDisconnected,
			expect: func(m *frontEndMocks) { m.hooks.EXPECT().Disconnect() },
			want:   StateDisconnected,
		},
		{
			name: "paused ignores config change", from: StatePaused, directive: models.MonitorConfigChanged,
			want: StatePaused,
		},
		{
			name: "paused ignores pause", from: StatePaused, directive: models.MonitorPaused,
			want: StatePaused,
		},
		{
			name: "disconnected pauses", from: StateDisconnected, directive: models.MonitorPaused,
			expect: func(m *frontEndMocks) { m.hooks.EXPECT().Pause() },
			want:   StatePaused,
		},
		{
			name: "disconnected ignores delete", from: StateDisconnected, directive: models.MonitorDeleted,
			want: StateDisconnected,
		},
		{
			name: "paused resumes", from: StatePaused, directive: models.MonitorStarted,
			expect: func(m *frontEndMocks) { m.expectLoad(5, testConfiguration(time.Now(), 1)) },
			want:   StateStarted,
		},
		{
			name: "started reloads on config change", from: StateStarted, directive: models.MonitorConfigChanged,
			expect: func(m *frontEndMocks) { m.expectLoad(5, testConfiguration(time.Now(), 1, 2)) },
			want:   StateStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe, m := newTestFrontEnd(t)
			fe.state = tt.from
			fe.monitorID = 5

			m.backend.EXPECT().PollerCheckingIn(gomock.Any(), 5, gomock.Any()).Return(tt.directive, nil)

			if tt.expect != nil {
				tt.expect(m)
			}

			require.NoError(t, fe.CheckIn(context.Background()))
			assert.Equal(t, tt.want, fe.State())
		})
	}
}

func TestPollServiceRecordsAndReports(t *testing.T) {
	fe, m := newTestFrontEnd(t)
	ctx := context.Background()

	fe.state = StateStarted
	fe.monitorID = 9
	fe.store.Replace(testConfiguration(time.Time{}, 4).Services)

	var notified []pollstate.ServicePollState

	fe.AddPollStateChangedListener(func(st pollstate.ServicePollState) {
		notified = append(notified, st)
	})

	result := models.Available(15 * time.Millisecond)

	m.pollService.EXPECT().Poll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, svc models.PolledService) (models.PollStatus, error) {
			assert.Equal(t, 4, svc.ID)

			return result, nil
		})
	m.backend.EXPECT().ReportResult(gomock.Any(), 9, 4, result).Return(nil)

	require.NoError(t, fe.PollService(ctx, 4))

	st, ok := fe.ServicePollState(4)
	require.True(t, ok)
	require.NotNil(t, st.LastPoll)
	assert.Equal(t, models.StatusAvailable, st.LastPoll.Status)
	assert.NotNil(t, st.LastPollTime)

	require.Len(t, notified, 1)
	assert.Equal(t, 0, notified[0].Index)

	// Unknown ids are ignored without probing.
	require.NoError(t, fe.PollService(ctx, 99))
}

func TestPollServicePropagatesProbeErrors(t *testing.T) {
	fe, m := newTestFrontEnd(t)

	fe.state = StateStarted
	fe.store.Replace(testConfiguration(time.Time{}, 1).Services)

	probeErr := errors.New("no monitor")
	m.pollService.EXPECT().Poll(gomock.Any(), gomock.Any()).Return(models.PollStatus{}, probeErr)

	require.ErrorIs(t, fe.PollService(context.Background(), 1), probeErr)
}

func TestStop(t *testing.T) {
	t.Run("started reports stop", func(t *testing.T) {
		fe, m := newTestFrontEnd(t)
		fe.state = StateStarted
		fe.monitorID = 2

		m.backend.EXPECT().PollerStopping(gomock.Any(), 2).Return(nil)

		require.NoError(t, fe.Stop(context.Background()))
		assert.Equal(t, StateInitial, fe.State())
	})

	t.Run("disconnected skips the backend", func(t *testing.T) {
		fe, _ := newTestFrontEnd(t)
		fe.state = StateDisconnected

		require.NoError(t, fe.Stop(context.Background()))
		assert.Equal(t, StateInitial, fe.State())
	})
}

func TestListenersRunMostRecentFirstAndMayReenter(t *testing.T) {
	fe, m := newTestFrontEnd(t)

	var order []string

	fe.AddConfigurationChangedListener(func(_, _ *time.Time) { order = append(order, "first") })
	sub := fe.AddConfigurationChangedListener(func(_, _ *time.Time) { order = append(order, "removed") })
	fe.AddConfigurationChangedListener(func(_, _ *time.Time) {
		order = append(order, "third:"+fe.State().String())
	})
	require.True(t, fe.RemoveConfigurationChangedListener(sub))

	m.settings.EXPECT().MonitorID(gomock.Any()).Return(1, true, nil)
	m.backend.EXPECT().PollerStarting(gomock.Any(), 1, gomock.Any()).Return(true, nil)
	m.expectLoad(1, testConfiguration(time.Now()))

	require.NoError(t, fe.Initialize(context.Background()))
	assert.Equal(t, []string{"third:Started", "first"}, order)
}

func TestMonitorNameAndLocations(t *testing.T) {
	fe, m := newTestFrontEnd(t)
	ctx := context.Background()

	name, err := fe.MonitorName(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)

	fe.state = StateStarted
	fe.monitorID = 4

	m.backend.EXPECT().GetMonitorName(gomock.Any(), 4).Return("branch-1-4", nil)
	m.backend.EXPECT().GetMonitoringLocations(gomock.Any()).Return([]models.MonitoringLocation{{Name: "branch-1"}}, nil)

	name, err = fe.MonitorName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "branch-1-4", name)

	locs, err := fe.MonitoringLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locs, 1)
}

func TestSetInitialPollTimeNotifies(t *testing.T) {
	fe, _ := newTestFrontEnd(t)
	fe.store.Replace(testConfiguration(time.Time{}, 1).Services)

	calls := 0
	fe.AddPollStateChangedListener(func(pollstate.ServicePollState) { calls++ })

	at := time.Now().Add(time.Minute)
	assert.True(t, fe.SetInitialPollTime(1, at))
	assert.False(t, fe.SetInitialPollTime(2, at))
	assert.Equal(t, 1, calls)

	st, _ := fe.ServicePollState(1)
	require.NotNil(t, st.InitialPollTime)
	assert.True(t, at.Equal(*st.InitialPollTime))
}
