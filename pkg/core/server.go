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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/outpost/pkg/backend"
	"github.com/carverauto/outpost/pkg/db"
	"github.com/carverauto/outpost/pkg/grpc"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/monitors"
	"github.com/carverauto/outpost/pkg/natsutil"
	"github.com/carverauto/outpost/pkg/scheduler"
	"github.com/carverauto/outpost/pkg/topology"
)

const dbPingTimeout = 5 * time.Second

// Server wires the location monitor backend, the topology hierarchy and the
// event subscriber into one lifecycle.Service.
type Server struct {
	config     *Config
	logger     logger.Logger
	monitors   *LocationMonitorService
	hierarchy  *topology.Hierarchy
	router     *topology.Router
	scheduler  *scheduler.TimerScheduler
	inventory  Inventory
	sweeper    *MonitorSweeper
	pool       *pgxpool.Pool
	nc         *nats.Conn
	subscriber *natsutil.TopologySubscriber

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewServer builds the core from a validated configuration. With a database
// configured, the inventory and activity checks go to PostgreSQL; otherwise
// the static node list from the configuration is used.
func NewServer(ctx context.Context, cfg *Config, log logger.Logger) (*Server, error) {
	packages, err := topology.NewPackages(cfg.Packages)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		logger: log,
	}

	var activity topology.ActivityChecker

	if cfg.Database != nil {
		pool, err := db.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx, pool, dbPingTimeout); err != nil {
			pool.Close()

			return nil, err
		}

		s.pool = pool
		s.inventory = db.NewInventory(pool)
		activity = db.NewActivityChecker(pool, log)
	} else {
		static := NewStaticInventory(cfg.Nodes)
		s.inventory = static
		activity = static
	}

	probes := monitors.NewPollService(monitors.NewDefaultRegistry(log), log)
	probes.SetServiceMonitorLocators(cfg.Locators)

	s.scheduler = scheduler.NewTimerScheduler(cfg.MaxConcurrentPolls, log)
	s.hierarchy = topology.NewHierarchy(packages, activity, probes, s.scheduler, cfg.Topology, log)
	s.router = topology.NewRouter(s.hierarchy, log)
	s.monitors = NewLocationMonitorService(cfg.Locations, cfg.Locators, packages, s.inventory, cfg.DisconnectAfter.Std(), log)
	s.sweeper = NewMonitorSweeper(s.monitors, log, cfg.SweepInterval.Std())

	if cfg.NATS != nil {
		nc, js, err := natsutil.Connect(ctx, cfg.NATS.URL, cfg.ServiceName, cfg.NATS.Domain, cfg.NATS.Security, log)
		if err != nil {
			s.closeStores()

			return nil, err
		}

		s.nc = nc
		s.subscriber = natsutil.NewTopologySubscriber(js, natsutil.SubscriberConfig{
			Stream:   cfg.NATS.Stream,
			Subject:  cfg.NATS.Subject,
			Consumer: cfg.NATS.Consumer,
			Workers:  cfg.MaxConcurrentEvents,
		}, s.router, log)
	}

	s.hierarchy.AddStatusChangedListener(func(nodeID int64, previous, current models.ServiceStatus) {
		log.Info().
			Int64("node_id", nodeID).
			Str("previous", string(previous)).
			Str("current", string(current)).
			Msg("Node status changed")
	})

	return s, nil
}

// Start loads the inventory into the hierarchy and launches the background
// loops. It does not block.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.monitors.RefreshConfigurations(runCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Initial configuration build incomplete")
	}

	if err := s.seed(runCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Initial topology load incomplete")
	}

	s.group, runCtx = errgroup.WithContext(runCtx)

	s.group.Go(func() error {
		s.sweeper.Start(runCtx)

		return nil
	})

	if s.subscriber != nil {
		s.group.Go(func() error {
			if err := s.subscriber.Run(runCtx); err != nil {
				s.logger.Error().Err(err).Msg("Topology subscriber failed")

				return err
			}

			return nil
		})
	}

	s.logger.Info().
		Int("locations", len(s.config.Locations)).
		Int("nodes", len(s.hierarchy.NodeIDs())).
		Msg("Core started")

	return nil
}

// seed reports every inventoried service to the hierarchy as gained.
func (s *Server) seed(ctx context.Context) error {
	nodes, err := s.inventory.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	var errs []error

	for _, n := range nodes {
		for _, iface := range n.Interfaces {
			for _, svc := range iface.Services {
				if err := s.hierarchy.ServiceGained(ctx, n.ID, iface.IPAddr, svc); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}

	return errors.Join(errs...)
}

// Stop cancels the background loops, then the scheduled polls, and closes
// the stores.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	var errs []error

	if s.group != nil {
		done := make(chan error, 1)

		go func() { done <- s.group.Wait() }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	if err := s.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	s.closeStores()

	s.logger.Info().Msg("Core stopped")

	return errors.Join(errs...)
}

func (s *Server) closeStores() {
	if s.nc != nil {
		s.nc.Close()
	}

	if s.pool != nil {
		s.pool.Close()
	}
}

// RegisterServices installs the poller backend on a gRPC server.
func (s *Server) RegisterServices(srv *grpc.Server) error {
	srv.RegisterService(&backend.ServiceDesc, backend.NewServer(s.monitors))

	return nil
}

func (s *Server) Monitors() *LocationMonitorService {
	return s.monitors
}

func (s *Server) Hierarchy() *topology.Hierarchy {
	return s.hierarchy
}

func (s *Server) Router() *topology.Router {
	return s.router
}
