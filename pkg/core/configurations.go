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
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/outpost/pkg/backend"
	"github.com/carverauto/outpost/pkg/hashutil"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/topology"
)

type serviceKey struct {
	nodeID  int64
	addr    netip.Addr
	service string
}

type locationConfig struct {
	digest hashutil.Digest
	config models.PollerConfiguration
}

// configurations builds and caches the service list of every location.
// Service ids are stable for the life of the process.
type configurations struct {
	packages  *topology.Packages
	inventory Inventory
	now       func() time.Time
	logger    logger.Logger

	mu            sync.Mutex
	byLocation    map[string]*locationConfig
	serviceIDs    map[serviceKey]int
	nextServiceID int
}

func newConfigurations(packages *topology.Packages, inventory Inventory, now func() time.Time, log logger.Logger) *configurations {
	return &configurations{
		packages:   packages,
		inventory:  inventory,
		now:        now,
		logger:     log,
		byLocation: make(map[string]*locationConfig),
		serviceIDs: make(map[serviceKey]int),
	}
}

func (c *configurations) get(ctx context.Context, loc models.MonitoringLocation) (*models.PollerConfiguration, error) {
	lc, err := c.load(ctx, loc)
	if err != nil {
		return nil, err
	}

	cfg := lc.config
	cfg.Services = append([]models.PolledService(nil), lc.config.Services...)

	return &cfg, nil
}

func (c *configurations) timestamp(ctx context.Context, loc models.MonitoringLocation) (time.Time, error) {
	lc, err := c.load(ctx, loc)
	if err != nil {
		return time.Time{}, err
	}

	return lc.config.ConfigurationTimestamp, nil
}

func (c *configurations) load(ctx context.Context, loc models.MonitoringLocation) (*locationConfig, error) {
	c.mu.Lock()
	lc, ok := c.byLocation[loc.Name]
	c.mu.Unlock()

	if ok {
		return lc, nil
	}

	nodes, err := c.inventory.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	return c.update(loc, nodes)
}

func (c *configurations) refresh(ctx context.Context, locations []models.MonitoringLocation) error {
	nodes, err := c.inventory.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	var errs []error

	for _, loc := range locations {
		if _, err := c.update(loc, nodes); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// update rebuilds one location. The timestamp only moves when the digest of
// the service list changes.
func (c *configurations) update(loc models.MonitoringLocation, nodes []models.Node) (*locationConfig, error) {
	pkg, ok := c.packages.Get(loc.PollingPackage)
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrNoConfiguration, loc.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	services := c.build(pkg, nodes)

	digest, err := hashutil.JSON(services)
	if err != nil {
		return nil, err
	}

	prev, ok := c.byLocation[loc.Name]
	if ok && prev.digest == digest {
		return prev, nil
	}

	ts := c.now().UTC()
	if ok && !ts.After(prev.config.ConfigurationTimestamp) {
		ts = prev.config.ConfigurationTimestamp.Add(time.Millisecond)
	}

	lc := &locationConfig{
		digest: digest,
		config: models.PollerConfiguration{
			ConfigurationTimestamp: ts,
			Services:               services,
		},
	}
	c.byLocation[loc.Name] = lc

	recordConfigurationChange(loc.Name, len(services))

	c.logger.Info().
		Str("location", loc.Name).
		Str("package", pkg.Name).
		Int("services", len(services)).
		Str("digest", digest.String()).
		Msg("Location configuration updated")

	return lc, nil
}

func (c *configurations) build(pkg *topology.Package, nodes []models.Node) []models.PolledService {
	services := make([]models.PolledService, 0)

	for _, n := range nodes {
		for _, iface := range n.Interfaces {
			addr, err := netip.ParseAddr(iface.IPAddr)
			if err != nil {
				c.logger.Debug().Int64("node_id", n.ID).Str("ip_addr", iface.IPAddr).Msg("Skipping unparsable interface")

				continue
			}

			addr = addr.Unmap()
			if !pkg.Includes(addr) {
				continue
			}

			for _, name := range iface.Services {
				def, ok := pkg.Service(name)
				if !ok {
					continue
				}

				interval := def.Interval
				if interval.Std() <= 0 {
					interval = models.Duration(topology.DefaultInterval)
				}

				services = append(services, models.PolledService{
					ID:          c.serviceID(serviceKey{nodeID: n.ID, addr: addr, service: name}),
					NodeID:      n.ID,
					NodeLabel:   n.Label,
					IPAddr:      addr.String(),
					ServiceName: name,
					Parameters:  def.Parameters,
					Interval:    interval,
				})
			}
		}
	}

	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })

	return services
}

func (c *configurations) serviceID(key serviceKey) int {
	if id, ok := c.serviceIDs[key]; ok {
		return id
	}

	c.nextServiceID++
	c.serviceIDs[key] = c.nextServiceID

	return c.nextServiceID
}
