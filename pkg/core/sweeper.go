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
	"time"

	"github.com/carverauto/outpost/pkg/logger"
)

// MonitorSweeper periodically disconnects silent location monitors and
// rebuilds location configurations from the inventory.
type MonitorSweeper struct {
	service  *LocationMonitorService
	logger   logger.Logger
	interval time.Duration
}

func NewMonitorSweeper(service *LocationMonitorService, log logger.Logger, interval time.Duration) *MonitorSweeper {
	return &MonitorSweeper{
		service:  service,
		logger:   log,
		interval: interval,
	}
}

// Start runs until ctx is done.
func (s *MonitorSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Str("interval", s.interval.String()).
		Str("disconnect_after", s.service.disconnectAfter.String()).
		Msg("Starting location monitor sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Location monitor sweeper stopping")

			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *MonitorSweeper) sweep(ctx context.Context) {
	if stale := s.service.Sweep(ctx); len(stale) > 0 {
		s.logger.Info().Ints("monitor_ids", stale).Msg("Disconnected silent location monitors")
	}

	if err := s.service.RefreshConfigurations(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh location configurations")
	}
}
