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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/outpost/pkg/backend"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/topology"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeInventory struct {
	mu    sync.Mutex
	nodes []models.Node
	err   error
}

func (f *fakeInventory) Nodes(_ context.Context) ([]models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]models.Node(nil), f.nodes...), f.err
}

func (f *fakeInventory) set(nodes []models.Node) {
	f.mu.Lock()
	f.nodes = nodes
	f.mu.Unlock()
}

func remotePackage() models.Package {
	return models.Package{
		Name:   "remote-branch",
		Remote: true,
		Filter: models.PackageFilter{
			IncludeRanges: []models.IPRange{{Begin: "10.0.0.0", End: "10.0.0.255"}},
		},
		Services: []models.PackageService{
			{Name: "ICMP", Enabled: true, Interval: models.Duration(time.Minute)},
			{Name: "HTTP", Enabled: true, Parameters: map[string]string{"port": "8080"}},
			{Name: "SMTP", Enabled: false},
		},
	}
}

func testNodes() []models.Node {
	return []models.Node{
		{
			ID:    1,
			Label: "router",
			Interfaces: []models.NodeInterfaceRef{
				{IPAddr: "10.0.0.1", Services: []string{"ICMP", "HTTP", "SMTP"}},
				{IPAddr: "192.168.1.1", Services: []string{"ICMP"}},
			},
		},
		{
			ID:         2,
			Label:      "switch",
			Interfaces: []models.NodeInterfaceRef{{IPAddr: "10.0.0.2", Services: []string{"ICMP"}}},
		},
	}
}

func newTestService(t *testing.T) (*LocationMonitorService, *testClock, *fakeInventory) {
	t.Helper()

	packages, err := topology.NewPackages([]models.Package{remotePackage()})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	inv := &fakeInventory{nodes: testNodes()}

	svc := NewLocationMonitorService(
		[]models.MonitoringLocation{
			{Name: "raleigh", PollingPackage: "remote-branch"},
			{Name: "austin", Area: "tx", PollingPackage: "remote-branch"},
			{Name: "orphan", PollingPackage: "missing"},
		},
		[]models.ServiceMonitorLocator{{ServiceName: "HTTP", Monitor: "http"}},
		packages,
		inv,
		5*time.Minute,
		logger.NewTestLogger(),
		WithClock(clock.Now),
	)

	return svc, clock, inv
}

func TestRegisterLocationMonitor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	second, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	_, err = svc.RegisterLocationMonitor(ctx, "nowhere")
	require.ErrorIs(t, err, backend.ErrUnknownLocation)

	name, err := svc.GetMonitorName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "raleigh", name)

	_, err = svc.GetMonitorName(ctx, 99)
	require.ErrorIs(t, err, backend.ErrUnknownMonitor)

	monitors := svc.Monitors()
	require.Len(t, monitors, 2)
	assert.Equal(t, models.MonitorRegistered, monitors[0].Status)
}

func TestPollerStarting(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	ok, err := svc.PollerStarting(ctx, id, map[string]string{"os": "linux"})
	require.NoError(t, err)
	assert.True(t, ok)

	info := svc.Monitors()[0]
	assert.Equal(t, models.MonitorStarted, info.Status)
	assert.Equal(t, "linux", info.Details["os"])
	assert.Equal(t, clock.Now(), info.LastCheckIn)

	ok, err = svc.PollerStarting(ctx, 42, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Delete(ctx, id))

	ok, err = svc.PollerStarting(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckInDirectives(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T, svc *LocationMonitorService, id int)
		stamp func(current time.Time) *time.Time
		want  models.MonitorStatus
	}{
		{
			name:  "no configuration yet",
			stamp: func(time.Time) *time.Time { return nil },
			want:  models.MonitorConfigChanged,
		},
		{
			name: "older configuration",
			stamp: func(current time.Time) *time.Time {
				older := current.Add(-time.Second)

				return &older
			},
			want: models.MonitorConfigChanged,
		},
		{
			name:  "current configuration",
			stamp: func(current time.Time) *time.Time { return &current },
			want:  models.MonitorStarted,
		},
		{
			name: "paused",
			setup: func(t *testing.T, svc *LocationMonitorService, id int) {
				require.NoError(t, svc.Pause(ctx, id))
			},
			stamp: func(current time.Time) *time.Time { return &current },
			want:  models.MonitorPaused,
		},
		{
			name: "deleted",
			setup: func(t *testing.T, svc *LocationMonitorService, id int) {
				require.NoError(t, svc.Delete(ctx, id))
			},
			stamp: func(current time.Time) *time.Time { return &current },
			want:  models.MonitorDeleted,
		},
		{
			name: "disconnected reconnects",
			setup: func(t *testing.T, svc *LocationMonitorService, id int) {
				require.NoError(t, svc.PollerStopping(ctx, id))
			},
			stamp: func(time.Time) *time.Time { return nil },
			want:  models.MonitorStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)

			id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
			require.NoError(t, err)

			_, err = svc.PollerStarting(ctx, id, nil)
			require.NoError(t, err)

			cfg, err := svc.GetPollerConfiguration(ctx, id)
			require.NoError(t, err)

			if tt.setup != nil {
				tt.setup(t, svc, id)
			}

			got, err := svc.PollerCheckingIn(ctx, id, tt.stamp(cfg.ConfigurationTimestamp))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckInUnknownMonitor(t *testing.T) {
	svc, _, _ := newTestService(t)

	status, err := svc.PollerCheckingIn(context.Background(), 7, nil)
	require.ErrorIs(t, err, backend.ErrUnknownMonitor)
	assert.Equal(t, models.MonitorUnknown, status)
}

func TestRegisterDisconnectReconnect(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	ok, err := svc.PollerStarting(ctx, id, nil)
	require.NoError(t, err)
	require.True(t, ok)

	cfg, err := svc.GetPollerConfiguration(ctx, id)
	require.NoError(t, err)

	stamp := cfg.ConfigurationTimestamp

	clock.Advance(2 * time.Minute)
	assert.Empty(t, svc.Sweep(ctx))

	clock.Advance(4 * time.Minute)
	assert.Equal(t, []int{id}, svc.Sweep(ctx))
	assert.Equal(t, models.MonitorDisconnected, svc.Monitors()[0].Status)

	// A second sweep leaves a disconnected monitor alone.
	assert.Empty(t, svc.Sweep(ctx))

	directive, err := svc.PollerCheckingIn(ctx, id, &stamp)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorStarted, directive)
	assert.Equal(t, models.MonitorStarted, svc.Monitors()[0].Status)

	directive, err = svc.PollerCheckingIn(ctx, id, &stamp)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorStarted, directive)
}

func TestPauseResumeDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "austin")
	require.NoError(t, err)

	require.NoError(t, svc.Pause(ctx, id))
	assert.Equal(t, models.MonitorPaused, svc.Monitors()[0].Status)

	require.NoError(t, svc.Resume(ctx, id))
	assert.Equal(t, models.MonitorStarted, svc.Monitors()[0].Status)

	require.NoError(t, svc.Delete(ctx, id))
	require.ErrorIs(t, svc.Resume(ctx, id), errMonitorDeleted)

	_, err = svc.GetPollerConfiguration(ctx, id)
	require.ErrorIs(t, err, errMonitorDeleted)

	require.ErrorIs(t, svc.Pause(ctx, 55), backend.ErrUnknownMonitor)
}

func TestPollerConfigurationContents(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	cfg, err := svc.GetPollerConfiguration(ctx, id)
	require.NoError(t, err)

	type entry struct {
		node     int64
		addr     string
		service  string
		interval time.Duration
	}

	got := make([]entry, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		got = append(got, entry{node: s.NodeID, addr: s.IPAddr, service: s.ServiceName, interval: s.Interval.Std()})
	}

	assert.Equal(t, []entry{
		{node: 1, addr: "10.0.0.1", service: "ICMP", interval: time.Minute},
		{node: 1, addr: "10.0.0.1", service: "HTTP", interval: topology.DefaultInterval},
		{node: 2, addr: "10.0.0.2", service: "ICMP", interval: time.Minute},
	}, got)

	assert.Equal(t, "8080", cfg.Services[1].Parameters["port"])
	assert.Equal(t, "router", cfg.Services[0].NodeLabel)

	orphan, err := svc.RegisterLocationMonitor(ctx, "orphan")
	require.NoError(t, err)

	_, err = svc.GetPollerConfiguration(ctx, orphan)
	require.ErrorIs(t, err, backend.ErrNoConfiguration)
}

func TestRefreshBumpsTimestampOnlyOnChange(t *testing.T) {
	svc, clock, inv := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	first, err := svc.GetPollerConfiguration(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.ErrorIs(t, svc.RefreshConfigurations(ctx), backend.ErrNoConfiguration)

	same, err := svc.GetPollerConfiguration(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ConfigurationTimestamp, same.ConfigurationTimestamp)

	nodes := testNodes()
	nodes = append(nodes, models.Node{
		ID:         3,
		Interfaces: []models.NodeInterfaceRef{{IPAddr: "10.0.0.3", Services: []string{"ICMP"}}},
	})
	inv.set(nodes)

	clock.Advance(time.Minute)
	require.ErrorIs(t, svc.RefreshConfigurations(ctx), backend.ErrNoConfiguration)

	changed, err := svc.GetPollerConfiguration(ctx, id)
	require.NoError(t, err)
	assert.True(t, changed.ConfigurationTimestamp.After(first.ConfigurationTimestamp))
	assert.Len(t, changed.Services, 4)

	// Ids of existing services survive the rebuild.
	assert.Equal(t, first.Services[0].ID, changed.Services[0].ID)

	directive, err := svc.PollerCheckingIn(ctx, id, &first.ConfigurationTimestamp)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorConfigChanged, directive)
}

func TestInventoryFailure(t *testing.T) {
	svc, _, inv := newTestService(t)
	ctx := context.Background()

	inv.err = errors.New("db down")

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	_, err = svc.GetPollerConfiguration(ctx, id)
	require.Error(t, err)

	directive, err := svc.PollerCheckingIn(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorStarted, directive)
}

func TestReportResult(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.RegisterLocationMonitor(ctx, "raleigh")
	require.NoError(t, err)

	require.NoError(t, svc.ReportResult(ctx, id, 3, models.Available(12*time.Millisecond)))
	require.NoError(t, svc.ReportResult(ctx, id, 3, models.Unavailable("refused")))

	results, err := svc.LastResults(id)
	require.NoError(t, err)
	require.Contains(t, results, 3)
	assert.Equal(t, models.StatusUnavailable, results[3].Status)

	require.ErrorIs(t, svc.ReportResult(ctx, 9, 3, models.Available(0)), backend.ErrUnknownMonitor)

	require.NoError(t, svc.Delete(ctx, id))
	require.ErrorIs(t, svc.ReportResult(ctx, id, 3, models.Available(0)), errMonitorDeleted)
}

func TestLocationsAndLocators(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	locations, err := svc.GetMonitoringLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 3)
	assert.Equal(t, "austin", locations[0].Name)
	assert.Equal(t, "tx", locations[0].Area)

	locators, err := svc.GetServiceMonitorLocators(ctx, models.ContextRemoteMonitor)
	require.NoError(t, err)
	assert.Equal(t, []models.ServiceMonitorLocator{{ServiceName: "HTTP", Monitor: "http"}}, locators)
}
