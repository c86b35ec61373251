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
	"time"

	"github.com/carverauto/outpost/pkg/models"
)

type MonitorRequest struct {
	MonitorID int `json:"monitor_id"`
}

type MonitorNameResponse struct {
	Name string `json:"name"`
}

type Empty struct{}

type MonitoringLocationsResponse struct {
	Locations []models.MonitoringLocation `json:"locations"`
}

type PollerConfigurationResponse struct {
	Configuration *models.PollerConfiguration `json:"configuration,omitempty"`
}

type ServiceMonitorLocatorsRequest struct {
	Scope models.DistributionContext `json:"scope"`
}

type ServiceMonitorLocatorsResponse struct {
	Locators []models.ServiceMonitorLocator `json:"locators"`
}

type CheckInRequest struct {
	MonitorID              int        `json:"monitor_id"`
	ConfigurationTimestamp *time.Time `json:"configuration_timestamp,omitempty"`
}

type CheckInResponse struct {
	Status models.MonitorStatus `json:"status"`
}

type StartingRequest struct {
	MonitorID int               `json:"monitor_id"`
	Details   map[string]string `json:"details,omitempty"`
}

type StartingResponse struct {
	Started bool `json:"started"`
}

type RegisterRequest struct {
	Location string `json:"location"`
}

type RegisterResponse struct {
	MonitorID int `json:"monitor_id"`
}

type ReportResultRequest struct {
	MonitorID int               `json:"monitor_id"`
	ServiceID int               `json:"service_id"`
	Result    models.PollStatus `json:"result"`
}

// GetMonitorID lets request logging tag calls with the calling monitor.
func (r *MonitorRequest) GetMonitorID() int {
	if r == nil {
		return 0
	}

	return r.MonitorID
}

func (r *CheckInRequest) GetMonitorID() int {
	if r == nil {
		return 0
	}

	return r.MonitorID
}

func (r *StartingRequest) GetMonitorID() int {
	if r == nil {
		return 0
	}

	return r.MonitorID
}

func (r *ReportResultRequest) GetMonitorID() int {
	if r == nil {
		return 0
	}

	return r.MonitorID
}
