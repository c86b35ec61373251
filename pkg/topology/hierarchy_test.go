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

package topology

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/scheduler"
)

var errProbeSetup = errors.New("probe setup failed")

type hierarchyMocks struct {
	activity  *MockActivityChecker
	prober    *MockProber
	scheduler *scheduler.MockScheduler
}

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
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestHierarchy(t *testing.T, cfg Config) (*Hierarchy, *hierarchyMocks, *testClock) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &hierarchyMocks{
		activity:  NewMockActivityChecker(ctrl),
		prober:    NewMockProber(ctrl),
		scheduler: scheduler.NewMockScheduler(ctrl),
	}

	pkgs, err := NewPackages([]models.Package{testPackage()})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	h := NewHierarchy(pkgs, m.activity, m.prober, m.scheduler, cfg, logger.NewTestLogger(), WithNow(clock.Now))

	return h, m, clock
}

// expectGain expects one successful service-gained event and captures the
// task it schedules.
func (m *hierarchyMocks) expectGain(nodeID int64, addr, service string, interval time.Duration) *scheduler.Task {
	var task scheduler.Task

	m.activity.EXPECT().IsActive(gomock.Any(), nodeID, addr, service).Return(true, nil)
	m.prober.EXPECT().Initialize(gomock.Any()).Return(nil)
	m.scheduler.EXPECT().Schedule(gomock.Any(), interval).Do(func(t scheduler.Task, _ time.Duration) { task = t })

	return &task
}

func TestServiceGainedBuildsHierarchy(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)

	var changes []models.ServiceStatus

	h.AddStatusChangedListener(func(nodeID int64, _, current models.ServiceStatus) {
		assert.Equal(t, int64(1), nodeID)
		changes = append(changes, current)
	})

	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	assert.Equal(t, []int64{1}, h.NodeIDs())
	assert.Equal(t, []models.ServiceStatus{models.StatusAvailable}, changes)

	snap, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, snap.Status)
	require.Len(t, snap.Interfaces, 1)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), snap.Interfaces[0].Addr)
	assert.Equal(t, []ServiceSnapshot{{Name: "ICMP", Package: "branch", Status: models.StatusAvailable}}, snap.Interfaces[0].Services)

	refs := h.PollableServices()
	require.Len(t, refs, 1)
	assert.Equal(t, ServiceRef{NodeID: 1, Addr: netip.MustParseAddr("10.0.0.1"), Service: "ICMP", Package: "branch"}, refs[0])

	svc, ok := (*task).(*Service)
	require.True(t, ok)
	assert.Equal(t, "ICMP", svc.Name())
	assert.Equal(t, int64(1), svc.Node().ID())
}

func TestServiceGainedIgnoresInactiveService(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "ICMP").Return(false, nil)

	require.NoError(t, h.ServiceGained(context.Background(), 1, "10.0.0.1", "ICMP"))

	assert.Empty(t, h.NodeIDs())
	assert.Empty(t, h.PollableServices())
}

func TestServiceGainedTreatsActivityErrorAsActive(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "ICMP").Return(false, errors.New("db down"))
	m.prober.EXPECT().Initialize(gomock.Any()).Return(nil)
	m.scheduler.EXPECT().Schedule(gomock.Any(), time.Minute)

	require.NoError(t, h.ServiceGained(context.Background(), 1, "10.0.0.1", "ICMP"))
	assert.Equal(t, []int64{1}, h.NodeIDs())
}

func TestServiceGainedWithoutMatchingPackage(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.250", "ICMP").Return(true, nil)
	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "SMTP").Return(true, nil)

	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.250", "ICMP"))
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "SMTP"))

	assert.Empty(t, h.NodeIDs())
}

func TestServiceGainedRejectsBadAddress(t *testing.T) {
	h, _, _ := newTestHierarchy(t, Config{})

	err := h.ServiceGained(context.Background(), 1, "10.0.0", "ICMP")
	require.ErrorIs(t, err, ErrInvalidAddress)
	assert.True(t, IsPermanent(err))
}

func TestServiceGainedInitializeFailureLeavesNoNode(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "ICMP").Return(true, nil)
	m.prober.EXPECT().Initialize(gomock.Any()).Return(errProbeSetup)

	err := h.ServiceGained(context.Background(), 1, "10.0.0.1", "ICMP")
	require.ErrorIs(t, err, errProbeSetup)

	assert.Empty(t, h.NodeIDs())
	assert.Empty(t, h.PollableServices())
}

func TestServiceGainedTwiceReplacesInterfaceEntry(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	first := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	second := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	assert.NotSame(t, *first, *second)

	snap, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snap.Interfaces, 1)
	assert.Len(t, snap.Interfaces[0].Services, 1)
	assert.Len(t, h.PollableServices(), 2)
}

func TestInterfaceReparented(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	m.expectGain(1, "10.0.0.2", "HTTP", 2*time.Minute)
	m.expectGain(2, "10.0.0.3", "ICMP", time.Minute)

	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.2", "HTTP"))
	require.NoError(t, h.ServiceGained(ctx, 2, "10.0.0.3", "ICMP"))

	require.NoError(t, h.InterfaceReparented(ctx, "10.0.0.1", 1, 2))

	from, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Len(t, from.Interfaces, 1)
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), from.Interfaces[0].Addr)

	to, err := h.Snapshot(ctx, 2)
	require.NoError(t, err)
	require.Len(t, to.Interfaces, 2)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), to.Interfaces[0].Addr)

	for _, ref := range h.PollableServices() {
		if ref.Addr == netip.MustParseAddr("10.0.0.1") {
			assert.Equal(t, int64(2), ref.NodeID)
		}
	}
}

func TestInterfaceReparentedRequiresKnownNodes(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	err := h.InterfaceReparented(ctx, "10.0.0.1", 1, 99)
	require.ErrorIs(t, err, ErrUnknownNode)

	snap, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap.Interfaces, 1)
}

func TestNodeDeleted(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	m.expectGain(1, "10.0.0.2", "HTTP", 2*time.Minute)
	m.expectGain(2, "10.0.0.3", "ICMP", time.Minute)

	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.2", "HTTP"))
	require.NoError(t, h.ServiceGained(ctx, 2, "10.0.0.3", "ICMP"))

	node := (*task).(*Service).Node()

	require.NoError(t, h.NodeDeleted(ctx, 1))

	assert.True(t, node.Deleted())
	assert.True(t, (*task).(*Service).Deleted())
	assert.Equal(t, []int64{2}, h.NodeIDs())

	refs := h.PollableServices()
	require.Len(t, refs, 1)
	assert.Equal(t, int64(2), refs[0].NodeID)

	require.ErrorIs(t, h.NodeDeleted(ctx, 1), ErrUnknownNode)
}

func TestInterfaceDeleted(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	m.expectGain(1, "10.0.0.2", "HTTP", 2*time.Minute)

	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.2", "HTTP"))

	require.NoError(t, h.InterfaceDeleted(ctx, 1, "10.0.0.9"))
	require.NoError(t, h.InterfaceDeleted(ctx, 1, "10.0.0.1"))

	snap, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snap.Interfaces, 1)
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), snap.Interfaces[0].Addr)
	assert.Len(t, h.PollableServices(), 1)

	require.ErrorIs(t, h.InterfaceDeleted(ctx, 7, "10.0.0.1"), ErrUnknownNode)
}

func TestLockTimeoutAbortsHandler(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{LockWait: models.Duration(20 * time.Millisecond), LockRetries: 1})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	node := (*task).(*Service).Node()
	require.True(t, node.lock.TryLock())

	err := h.NodeDeleted(ctx, 1)
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, IsPermanent(err))
	assert.False(t, node.Deleted())

	node.lock.Unlock()

	require.NoError(t, h.NodeDeleted(ctx, 1))
}

func TestLockWaitHonorsContext(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{LockWait: -1})

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(context.Background(), 1, "10.0.0.1", "ICMP"))

	node := (*task).(*Service).Node()
	require.True(t, node.lock.TryLock())

	defer node.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, h.InterfaceDeleted(ctx, 1, "10.0.0.1"), context.DeadlineExceeded)
}

func TestServiceGainedRecreatesNodeDeletedWhileWaiting(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	old := (*task).(*Service).Node()
	require.True(t, old.lock.TryLock())

	m.expectGain(1, "10.0.0.2", "HTTP", 2*time.Minute)

	done := make(chan error, 1)

	go func() { done <- h.ServiceGained(ctx, 1, "10.0.0.2", "HTTP") }()

	// Delete the node the way NodeDeleted does while the gained handler waits.
	h.registry.Remove(old)
	old.deleted.Store(true)
	old.lock.Unlock()

	require.NoError(t, <-done)

	current, ok := h.registry.Get(1)
	require.True(t, ok)
	assert.NotSame(t, old, current)

	snap, err := h.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snap.Interfaces, 1)
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), snap.Interfaces[0].Addr)
}

func TestServicePollUpdatesStatusAndReschedules(t *testing.T) {
	h, m, clock := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	svc := (*task).(*Service)

	var changes [][2]models.ServiceStatus

	h.AddStatusChangedListener(func(_ int64, previous, current models.ServiceStatus) {
		changes = append(changes, [2]models.ServiceStatus{previous, current})
	})

	m.prober.EXPECT().Poll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, target models.PolledService) (models.PollStatus, error) {
			assert.Equal(t, "10.0.0.1", target.IPAddr)
			assert.Equal(t, int64(1), target.NodeID)

			return models.Unavailable("refused"), nil
		})
	m.scheduler.EXPECT().Schedule(svc, 30*time.Second)

	svc.Run(ctx)

	assert.Equal(t, models.StatusUnavailable, svc.Status())
	assert.Equal(t, models.StatusUnavailable, svc.Node().Status())
	assert.Equal(t, [][2]models.ServiceStatus{{models.StatusAvailable, models.StatusUnavailable}}, changes)

	clock.Advance(6 * time.Minute)

	m.prober.EXPECT().Poll(gomock.Any(), gomock.Any()).Return(models.Unavailable("refused"), nil)
	m.scheduler.EXPECT().Schedule(svc, 10*time.Minute)

	svc.Run(ctx)

	assert.Len(t, changes, 1)
}

func TestDeletedServiceStopsPolling(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	svc := (*task).(*Service)

	require.NoError(t, h.NodeDeleted(ctx, 1))

	// No Poll or Schedule expectation: the mocks fail on any call.
	svc.Run(ctx)
}

func TestServiceDeletedDuringPollIsNotRescheduled(t *testing.T) {
	h, m, _ := newTestHierarchy(t, Config{})
	ctx := context.Background()

	task := m.expectGain(1, "10.0.0.1", "ICMP", time.Minute)
	require.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))

	svc := (*task).(*Service)

	m.prober.EXPECT().Poll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, models.PolledService) (models.PollStatus, error) {
			require.NoError(t, h.InterfaceDeleted(ctx, 1, "10.0.0.1"))

			return models.Available(time.Millisecond), nil
		})

	svc.Run(ctx)

	assert.True(t, svc.Deleted())
}

func twoPackageHierarchy(t *testing.T) (*Hierarchy, *hierarchyMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &hierarchyMocks{
		activity:  NewMockActivityChecker(ctrl),
		prober:    NewMockProber(ctrl),
		scheduler: scheduler.NewMockScheduler(ctrl),
	}

	defs := make([]models.Package, 0, 2)

	for _, name := range []string{"a", "b"} {
		defs = append(defs, models.Package{
			Name:   name,
			Filter: models.PackageFilter{IncludeRanges: []models.IPRange{{Begin: "10.0.0.0", End: "10.0.0.255"}}},
			Services: []models.PackageService{{
				Name: "HTTP", Enabled: true, Interval: models.Duration(time.Minute),
				Parameters: map[string]string{"package": name},
			}},
		})
	}

	pkgs, err := NewPackages(defs)
	require.NoError(t, err)

	return NewHierarchy(pkgs, m.activity, m.prober, m.scheduler, Config{}, logger.NewTestLogger()), m
}

func TestServiceGainedPackageFailureDoesNotStopOthers(t *testing.T) {
	h, m := twoPackageHierarchy(t)

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "HTTP").Return(true, nil)
	m.prober.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(svc models.PolledService) error {
		if svc.Parameters["package"] == "b" {
			return errProbeSetup
		}

		return nil
	}).Times(2)
	m.scheduler.EXPECT().Schedule(gomock.Any(), time.Minute).Times(1)

	// Applied by one package, so the event is done and must not come back.
	require.NoError(t, h.ServiceGained(context.Background(), 1, "10.0.0.1", "HTTP"))

	refs := h.PollableServices()
	require.Len(t, refs, 1)
	assert.Equal(t, "a", refs[0].Package)
	assert.False(t, refs[0].Deleted)
}

func TestServiceGainedFailsWhenNoPackageApplies(t *testing.T) {
	h, m := twoPackageHierarchy(t)

	m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "HTTP").Return(true, nil)
	m.prober.EXPECT().Initialize(gomock.Any()).Return(errProbeSetup).Times(2)

	err := h.ServiceGained(context.Background(), 1, "10.0.0.1", "HTTP")
	require.ErrorIs(t, err, errProbeSetup)

	assert.Empty(t, h.NodeIDs())
	assert.Empty(t, h.PollableServices())
}

func TestNodeDeletedRacingServiceGainedLeavesNoPartialState(t *testing.T) {
	for i := 0; i < 200; i++ {
		h, m, _ := newTestHierarchy(t, Config{})
		ctx := context.Background()

		m.activity.EXPECT().IsActive(gomock.Any(), int64(1), "10.0.0.1", "ICMP").Return(true, nil).AnyTimes()
		m.prober.EXPECT().Initialize(gomock.Any()).Return(nil).AnyTimes()
		m.scheduler.EXPECT().Schedule(gomock.Any(), gomock.Any()).AnyTimes()

		var wg sync.WaitGroup

		wg.Add(2)

		go func() {
			defer wg.Done()

			assert.NoError(t, h.ServiceGained(ctx, 1, "10.0.0.1", "ICMP"))
		}()

		go func() {
			defer wg.Done()

			if err := h.NodeDeleted(ctx, 1); err != nil {
				assert.ErrorIs(t, err, ErrUnknownNode)
			}
		}()

		wg.Wait()

		refs := h.PollableServices()

		if _, present := h.registry.Get(1); present {
			require.Len(t, refs, 1, "iteration %d", i)
			assert.False(t, refs[0].Deleted, "iteration %d", i)

			snap, err := h.Snapshot(ctx, 1)
			require.NoError(t, err)
			require.Len(t, snap.Interfaces, 1)
			assert.Len(t, snap.Interfaces[0].Services, 1)
		} else {
			assert.Empty(t, refs, "iteration %d", i)
		}
	}
}
