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

package topology

//go:generate mockgen -destination=mock_topology.go -package=topology github.com/carverauto/outpost/pkg/topology ActivityChecker,Prober,EventHandler

import (
	"context"

	"github.com/carverauto/outpost/pkg/models"
)

// ActivityChecker answers whether a service on an interface is currently
// marked active in the inventory.
type ActivityChecker interface {
	IsActive(ctx context.Context, nodeID int64, addr, service string) (bool, error)
}

// Prober runs a probe for a pollable service.
type Prober interface {
	Initialize(svc models.PolledService) error
	Poll(ctx context.Context, svc models.PolledService) (models.PollStatus, error)
}

// EventHandler receives routed topology events.
type EventHandler interface {
	ServiceGained(ctx context.Context, nodeID int64, iface, service string) error
	InterfaceReparented(ctx context.Context, iface string, oldNodeID, newNodeID int64) error
	NodeDeleted(ctx context.Context, nodeID int64) error
	InterfaceDeleted(ctx context.Context, nodeID int64, iface string) error
}
