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

import (
	"errors"
	"time"
)

var errNATSURLRequired = errors.New("nats url is required")

// Topology event identifiers.
const (
	UEINodeGainedService    = "uei.outpost/nodes/nodeGainedService"
	UEIInterfaceReparented  = "uei.outpost/nodes/interfaceReparented"
	UEINodeDeleted          = "uei.outpost/nodes/nodeDeleted"
	UEIDuplicateNodeDeleted = "uei.outpost/nodes/duplicateNodeDeleted"
	UEIInterfaceDeleted     = "uei.outpost/nodes/interfaceDeleted"
	ParmOldNodeID           = "oldNodeID"
	ParmNewNodeID           = "newNodeID"
	TopologyEventType       = "com.carverauto.outpost.topology"
	TopologyEventSource     = "outpost/core"
	DefaultTopologyStream   = "topology"
	DefaultTopologySubject  = "topology.events"
	DefaultTopologyConsumer = "topology-router"
)

// Parm is a named event parameter. Order is preserved on the wire.
type Parm struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TopologyEvent is an inbound topology-change notification.
type TopologyEvent struct {
	UEI       string `json:"uei"`
	NodeID    *int64 `json:"node_id,omitempty"`
	Interface string `json:"interface,omitempty"`
	Service   string `json:"service,omitempty"`
	Parms     []Parm `json:"parms,omitempty"`
}

// Parm returns the value of the first parameter with the given name.
func (e *TopologyEvent) Parm(name string) (string, bool) {
	for _, p := range e.Parms {
		if p.Name == name {
			return p.Value, true
		}
	}

	return "", false
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// NATSConfig configures NATS connectivity
type NATSConfig struct {
	URL      string          `json:"url" yaml:"url"`
	Domain   string          `json:"domain,omitempty" yaml:"domain,omitempty"`
	Stream   string          `json:"stream,omitempty" yaml:"stream,omitempty"`
	Subject  string          `json:"subject,omitempty" yaml:"subject,omitempty"`
	Consumer string          `json:"consumer,omitempty" yaml:"consumer,omitempty"`
	Security *SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
}

// Validate ensures the NATS configuration is valid and fills in defaults.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return errNATSURLRequired
	}

	if c.Stream == "" {
		c.Stream = DefaultTopologyStream
	}

	if c.Subject == "" {
		c.Subject = DefaultTopologySubject
	}

	if c.Consumer == "" {
		c.Consumer = DefaultTopologyConsumer
	}

	return nil
}

// StreamSubjects lists the subjects captured by the topology stream.
func (c *NATSConfig) StreamSubjects() []string {
	return []string{c.Subject}
}
