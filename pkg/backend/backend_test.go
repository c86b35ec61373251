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

package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	ograpc "github.com/carverauto/outpost/pkg/grpc"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/poller"
)

func newTestClient(t *testing.T) (*Client, *poller.MockBackend) {
	t.Helper()

	ctrl := gomock.NewController(t)
	backend := poller.NewMockBackend(ctrl)

	srv := ograpc.NewServer("bufnet", logger.NewTestLogger(), ograpc.WithTelemetryDisabled())
	srv.RegisterService(&ServiceDesc, NewServer(backend))

	lis := bufconn.Listen(1 << 20)

	go func() { _ = srv.Serve(lis) }()

	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn), backend
}

func TestClientRoundTrips(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("register and name", func(t *testing.T) {
		backend.EXPECT().RegisterLocationMonitor(gomock.Any(), "branch-1").Return(7, nil)
		backend.EXPECT().GetMonitorName(gomock.Any(), 7).Return("branch-1-7", nil)

		id, err := client.RegisterLocationMonitor(ctx, "branch-1")
		require.NoError(t, err)
		assert.Equal(t, 7, id)

		name, err := client.GetMonitorName(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "branch-1-7", name)
	})

	t.Run("locations and locators", func(t *testing.T) {
		locations := []models.MonitoringLocation{{Name: "branch-1", Area: "east", PollingPackage: "branch"}}
		locators := []models.ServiceMonitorLocator{{ServiceName: "HTTP", Monitor: "http"}}

		backend.EXPECT().GetMonitoringLocations(gomock.Any()).Return(locations, nil)
		backend.EXPECT().GetServiceMonitorLocators(gomock.Any(), models.ContextRemoteMonitor).Return(locators, nil)

		gotLocations, err := client.GetMonitoringLocations(ctx)
		require.NoError(t, err)
		assert.Equal(t, locations, gotLocations)

		gotLocators, err := client.GetServiceMonitorLocators(ctx, models.ContextRemoteMonitor)
		require.NoError(t, err)
		assert.Equal(t, locators, gotLocators)
	})

	t.Run("configuration", func(t *testing.T) {
		cfg := &models.PollerConfiguration{
			ConfigurationTimestamp: ts,
			Services: []models.PolledService{{
				ID: 1, NodeID: 10, IPAddr: "10.0.0.1", ServiceName: "HTTP",
				Parameters: map[string]string{"port": "8080"}, Interval: models.Duration(time.Minute),
			}},
		}

		backend.EXPECT().GetPollerConfiguration(gomock.Any(), 7).Return(cfg, nil)

		got, err := client.GetPollerConfiguration(ctx, 7)
		require.NoError(t, err)
		assert.True(t, got.ConfigurationTimestamp.Equal(ts))
		assert.Equal(t, cfg.Services, got.Services)
	})

	t.Run("check in with and without timestamp", func(t *testing.T) {
		backend.EXPECT().PollerCheckingIn(gomock.Any(), 7, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ int, got *time.Time) (models.MonitorStatus, error) {
				require.NotNil(t, got)
				assert.True(t, got.Equal(ts))

				return models.MonitorConfigChanged, nil
			})
		backend.EXPECT().PollerCheckingIn(gomock.Any(), 7, gomock.Nil()).Return(models.MonitorStarted, nil)

		st, err := client.PollerCheckingIn(ctx, 7, &ts)
		require.NoError(t, err)
		assert.Equal(t, models.MonitorConfigChanged, st)

		st, err = client.PollerCheckingIn(ctx, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, models.MonitorStarted, st)
	})

	t.Run("start stop and report", func(t *testing.T) {
		details := map[string]string{"os.name": "linux"}
		result := models.PollStatus{Status: models.StatusAvailable, ResponseTime: 12 * time.Millisecond, Timestamp: ts}

		backend.EXPECT().PollerStarting(gomock.Any(), 7, details).Return(true, nil)
		backend.EXPECT().ReportResult(gomock.Any(), 7, 1, gomock.Any()).DoAndReturn(
			func(_ context.Context, _, _ int, got models.PollStatus) error {
				assert.Equal(t, result.Status, got.Status)
				assert.Equal(t, result.ResponseTime, got.ResponseTime)

				return nil
			})
		backend.EXPECT().PollerStopping(gomock.Any(), 7).Return(nil)

		started, err := client.PollerStarting(ctx, 7, details)
		require.NoError(t, err)
		assert.True(t, started)

		require.NoError(t, client.ReportResult(ctx, 7, 1, result))
		require.NoError(t, client.PollerStopping(ctx, 7))
	})
}

func TestClientRestoresNotFoundErrors(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	backend.EXPECT().GetMonitorName(gomock.Any(), 99).Return("", fmt.Errorf("monitor 99: %w", ErrUnknownMonitor))
	backend.EXPECT().RegisterLocationMonitor(gomock.Any(), "nowhere").Return(0, fmt.Errorf("%w: nowhere", ErrUnknownLocation))

	_, err := client.GetMonitorName(ctx, 99)
	require.ErrorIs(t, err, ErrUnknownMonitor)

	_, err = client.RegisterLocationMonitor(ctx, "nowhere")
	require.ErrorIs(t, err, ErrUnknownLocation)
}

func TestClientReportsInternalErrors(t *testing.T) {
	client, backend := newTestClient(t)

	backend.EXPECT().PollerStopping(gomock.Any(), 1).Return(errors.New("disk full"))

	err := client.PollerStopping(context.Background(), 1)
	require.Error(t, err)

	st, ok := status.FromError(errors.Unwrap(err))
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Contains(t, st.Message(), "disk full")
}

func TestToStatusKeepsStatusErrors(t *testing.T) {
	in := status.Error(codes.PermissionDenied, "nope")
	assert.Equal(t, in, toStatus(in))
	assert.NoError(t, toStatus(nil))
}
