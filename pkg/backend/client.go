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
	"time"

	"google.golang.org/grpc"

	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/poller"
)

// Client calls a remote PollerBackEnd. It implements poller.Backend.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

var _ poller.Backend = (*Client)(nil)

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if err := c.cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return fromStatus(method, err)
	}

	return nil
}

func (c *Client) GetMonitorName(ctx context.Context, monitorID int) (string, error) {
	var out MonitorNameResponse
	if err := c.invoke(ctx, methodGetMonitorName, &MonitorRequest{MonitorID: monitorID}, &out); err != nil {
		return "", err
	}

	return out.Name, nil
}

func (c *Client) GetMonitoringLocations(ctx context.Context) ([]models.MonitoringLocation, error) {
	var out MonitoringLocationsResponse
	if err := c.invoke(ctx, methodGetMonitoringLocations, &Empty{}, &out); err != nil {
		return nil, err
	}

	return out.Locations, nil
}

func (c *Client) GetPollerConfiguration(ctx context.Context, monitorID int) (*models.PollerConfiguration, error) {
	var out PollerConfigurationResponse
	if err := c.invoke(ctx, methodGetPollerConfiguration, &MonitorRequest{MonitorID: monitorID}, &out); err != nil {
		return nil, err
	}

	return out.Configuration, nil
}

func (c *Client) GetServiceMonitorLocators(
	ctx context.Context, scope models.DistributionContext,
) ([]models.ServiceMonitorLocator, error) {
	var out ServiceMonitorLocatorsResponse
	if err := c.invoke(ctx, methodGetServiceMonitorLocators, &ServiceMonitorLocatorsRequest{Scope: scope}, &out); err != nil {
		return nil, err
	}

	return out.Locators, nil
}

func (c *Client) PollerCheckingIn(ctx context.Context, monitorID int, configTimestamp *time.Time) (models.MonitorStatus, error) {
	var out CheckInResponse

	in := &CheckInRequest{MonitorID: monitorID, ConfigurationTimestamp: configTimestamp}
	if err := c.invoke(ctx, methodPollerCheckingIn, in, &out); err != nil {
		return "", err
	}

	return out.Status, nil
}

func (c *Client) PollerStarting(ctx context.Context, monitorID int, details map[string]string) (bool, error) {
	var out StartingResponse
	if err := c.invoke(ctx, methodPollerStarting, &StartingRequest{MonitorID: monitorID, Details: details}, &out); err != nil {
		return false, err
	}

	return out.Started, nil
}

func (c *Client) PollerStopping(ctx context.Context, monitorID int) error {
	return c.invoke(ctx, methodPollerStopping, &MonitorRequest{MonitorID: monitorID}, &Empty{})
}

func (c *Client) RegisterLocationMonitor(ctx context.Context, location string) (int, error) {
	var out RegisterResponse
	if err := c.invoke(ctx, methodRegisterLocationMonitor, &RegisterRequest{Location: location}, &out); err != nil {
		return 0, err
	}

	return out.MonitorID, nil
}

func (c *Client) ReportResult(ctx context.Context, monitorID, serviceID int, result models.PollStatus) error {
	in := &ReportResultRequest{MonitorID: monitorID, ServiceID: serviceID, Result: result}

	return c.invoke(ctx, methodReportResult, in, &Empty{})
}
