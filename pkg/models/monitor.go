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

package models

import "time"

// MonitorStatus is the directive a backend hands a remote poller on check-in.
type MonitorStatus string

const (
	MonitorConfigChanged MonitorStatus = "CONFIG_CHANGED"
	MonitorDeleted       MonitorStatus = "DELETED"
	MonitorDisconnected  MonitorStatus = "DISCONNECTED"
	MonitorPaused        MonitorStatus = "PAUSED"
	MonitorStarted       MonitorStatus = "STARTED"

	// MonitorRegistered and MonitorUnknown are backend bookkeeping values and
	// are never returned from a check-in.
	MonitorRegistered MonitorStatus = "REGISTERED"
	MonitorUnknown    MonitorStatus = "UNKNOWN"
)

// DistributionContext scopes which service monitors a caller is allowed to run.
type DistributionContext string

const (
	ContextRemoteMonitor DistributionContext = "REMOTE_MONITOR"
	ContextDaemon        DistributionContext = "DAEMON"
)

// ServiceMonitorLocator binds a service name to the monitor kind that probes it.
type ServiceMonitorLocator struct {
	ServiceName string `json:"service_name" yaml:"service_name"`
	Monitor     string `json:"monitor" yaml:"monitor"`
}

// MonitoringLocation is a named site that remote pollers register against.
type MonitoringLocation struct {
	Name           string `json:"name" yaml:"name"`
	Area           string `json:"area,omitempty" yaml:"area,omitempty"`
	PollingPackage string `json:"polling_package" yaml:"polling_package"`
}

// PolledService is one unit of work assigned to a remote poller.
type PolledService struct {
	ID          int               `json:"id"`
	NodeID      int64             `json:"node_id"`
	NodeLabel   string            `json:"node_label,omitempty"`
	IPAddr      string            `json:"ip_addr"`
	ServiceName string            `json:"service_name"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Interval    Duration          `json:"interval"`
}

// PollerConfiguration is the service list handed to a remote poller together
// with the timestamp identifying that revision.
type PollerConfiguration struct {
	ConfigurationTimestamp time.Time       `json:"configuration_timestamp"`
	Services               []PolledService `json:"services"`
}
