package poller

//go:generate mockgen -destination=mock_poller.go -package=poller github.com/carverauto/outpost/pkg/poller Backend,Settings,PollService,Hooks,Clock,Ticker

import (
	"context"
	"time"

	"github.com/carverauto/outpost/pkg/models"
)

// Backend is the central service as seen from a remote poller.
type Backend interface {
	RegisterLocationMonitor(ctx context.Context, location string) (int, error)
	// PollerStarting returns false when the monitor was deleted on the server.
	PollerStarting(ctx context.Context, monitorID int, details map[string]string) (bool, error)
	PollerStopping(ctx context.Context, monitorID int) error
	PollerCheckingIn(ctx context.Context, monitorID int, configTimestamp *time.Time) (models.MonitorStatus, error)
	GetPollerConfiguration(ctx context.Context, monitorID int) (*models.PollerConfiguration, error)
	GetServiceMonitorLocators(ctx context.Context, scope models.DistributionContext) ([]models.ServiceMonitorLocator, error)
	ReportResult(ctx context.Context, monitorID, serviceID int, result models.PollStatus) error
	GetMonitoringLocations(ctx context.Context) ([]models.MonitoringLocation, error)
	GetMonitorName(ctx context.Context, monitorID int) (string, error)
}

// Settings persists the poller's monitor id between runs.
type Settings interface {
	MonitorID(ctx context.Context) (id int, ok bool, err error)
	SetMonitorID(ctx context.Context, id int) error
	ClearMonitorID(ctx context.Context) error
}

// PollService runs probes for polled services.
type PollService interface {
	SetServiceMonitorLocators(locators []models.ServiceMonitorLocator)
	Initialize(svc models.PolledService) error
	Poll(ctx context.Context, svc models.PolledService) (models.PollStatus, error)
}

// Hooks receives the pause and disconnect directives.
type Hooks interface {
	Pause()
	Disconnect()
}

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}
