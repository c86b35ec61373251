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

// Package core implements the central side of outpost: the backend that
// remote pollers register and check in with, and the server-side topology
// hierarchy fed from NATS.
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/outpost/pkg/db"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/topology"
)

const (
	defaultServiceName         = "outpost-core"
	defaultListenAddr          = ":50062"
	defaultDisconnectAfter     = 5 * time.Minute
	defaultSweepInterval       = 30 * time.Second
	defaultMaxConcurrentPolls  = 64
	defaultMaxConcurrentEvents = 8
)

var (
	errNoLocations       = errors.New("at least one monitoring location is required")
	errDuplicateLocation = errors.New("duplicate monitoring location")
	errLocationPackage   = errors.New("monitoring location names an unknown polling package")
	errNATSURLRequired   = errors.New("nats url is required")
)

// Config represents the core service configuration.
type Config struct {
	ServiceName         string                         `json:"service_name" yaml:"service_name"`
	ListenAddr          string                         `json:"listen_addr" yaml:"listen_addr"`
	Security            *models.SecurityConfig         `json:"security,omitempty" yaml:"security,omitempty"`
	Locations           []models.MonitoringLocation    `json:"locations" yaml:"locations"`
	Packages            []models.Package               `json:"packages" yaml:"packages"`
	Locators            []models.ServiceMonitorLocator `json:"locators,omitempty" yaml:"locators,omitempty"`
	Nodes               []models.Node                  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Database            *db.Config                     `json:"database,omitempty" yaml:"database,omitempty"`
	NATS                *models.NATSConfig             `json:"nats,omitempty" yaml:"nats,omitempty"`
	Topology            topology.Config                `json:"topology" yaml:"topology"`
	DisconnectAfter     models.Duration                `json:"disconnect_after" yaml:"disconnect_after"`
	SweepInterval       models.Duration                `json:"sweep_interval" yaml:"sweep_interval"`
	MaxConcurrentPolls  int                            `json:"max_concurrent_polls" yaml:"max_concurrent_polls"`
	MaxConcurrentEvents int                            `json:"max_concurrent_events" yaml:"max_concurrent_events"`
	Logging             *logger.Config                 `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if len(c.Locations) == 0 {
		return errNoLocations
	}

	packages := make(map[string]struct{}, len(c.Packages))
	for _, p := range c.Packages {
		packages[p.Name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(c.Locations))

	for _, loc := range c.Locations {
		if _, dup := seen[loc.Name]; dup {
			return fmt.Errorf("%w: %s", errDuplicateLocation, loc.Name)
		}

		seen[loc.Name] = struct{}{}

		if _, ok := packages[loc.PollingPackage]; !ok {
			return fmt.Errorf("%w: %s -> %s", errLocationPackage, loc.Name, loc.PollingPackage)
		}
	}

	if c.NATS != nil && c.NATS.URL == "" {
		return errNATSURLRequired
	}

	if _, err := topology.NewPackages(c.Packages); err != nil {
		return err
	}

	c.applyDefaults()

	return nil
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.DisconnectAfter.Std() <= 0 {
		c.DisconnectAfter = models.Duration(defaultDisconnectAfter)
	}

	if c.SweepInterval.Std() <= 0 {
		c.SweepInterval = models.Duration(defaultSweepInterval)
	}

	if c.MaxConcurrentPolls <= 0 {
		c.MaxConcurrentPolls = defaultMaxConcurrentPolls
	}

	if c.MaxConcurrentEvents <= 0 {
		c.MaxConcurrentEvents = defaultMaxConcurrentEvents
	}

	if c.NATS != nil {
		if c.NATS.Stream == "" {
			c.NATS.Stream = models.DefaultTopologyStream
		}

		if c.NATS.Subject == "" {
			c.NATS.Subject = models.DefaultTopologySubject
		}

		if c.NATS.Consumer == "" {
			c.NATS.Consumer = models.DefaultTopologyConsumer
		}
	}
}
