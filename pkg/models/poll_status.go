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

// ServiceStatus is the availability verdict of a single probe.
type ServiceStatus string

const (
	StatusAvailable    ServiceStatus = "available"
	StatusUnavailable  ServiceStatus = "unavailable"
	StatusUnresponsive ServiceStatus = "unresponsive"
	StatusUnknown      ServiceStatus = "unknown"
)

// PollStatus is the outcome of one probe execution.
type PollStatus struct {
	Status       ServiceStatus     `json:"status"`
	Reason       string            `json:"reason,omitempty"`
	ResponseTime time.Duration     `json:"response_time"`
	Timestamp    time.Time         `json:"timestamp"`
	Properties   map[string]string `json:"properties,omitempty"`
}

func Available(responseTime time.Duration) PollStatus {
	return PollStatus{
		Status:       StatusAvailable,
		ResponseTime: responseTime,
		Timestamp:    time.Now(),
	}
}

func Unavailable(reason string) PollStatus {
	return PollStatus{
		Status:    StatusUnavailable,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func Unresponsive(reason string) PollStatus {
	return PollStatus{
		Status:    StatusUnresponsive,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (p PollStatus) IsAvailable() bool {
	return p.Status == StatusAvailable
}

func (p PollStatus) IsDown() bool {
	return p.Status == StatusUnavailable || p.Status == StatusUnresponsive
}
