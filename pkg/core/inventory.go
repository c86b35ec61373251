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
	"net/netip"
	"sort"

	"github.com/carverauto/outpost/pkg/models"
)

// Inventory lists the managed nodes with their active services.
type Inventory interface {
	Nodes(ctx context.Context) ([]models.Node, error)
}

// StaticInventory serves the node list from configuration. It doubles as the
// activity checker when no database is configured.
type StaticInventory struct {
	nodes  []models.Node
	active map[activeKey]struct{}
}

type activeKey struct {
	nodeID  int64
	addr    netip.Addr
	service string
}

func NewStaticInventory(nodes []models.Node) *StaticInventory {
	inv := &StaticInventory{
		nodes:  append([]models.Node(nil), nodes...),
		active: make(map[activeKey]struct{}),
	}

	sort.Slice(inv.nodes, func(i, j int) bool { return inv.nodes[i].ID < inv.nodes[j].ID })

	for _, n := range inv.nodes {
		for _, iface := range n.Interfaces {
			addr, err := netip.ParseAddr(iface.IPAddr)
			if err != nil {
				continue
			}

			for _, svc := range iface.Services {
				inv.active[activeKey{nodeID: n.ID, addr: addr.Unmap(), service: svc}] = struct{}{}
			}
		}
	}

	return inv
}

func (s *StaticInventory) Nodes(_ context.Context) ([]models.Node, error) {
	return append([]models.Node(nil), s.nodes...), nil
}

// IsActive reports whether the service is listed on the node's interface.
func (s *StaticInventory) IsActive(_ context.Context, nodeID int64, addr, service string) (bool, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false, nil
	}

	_, ok := s.active[activeKey{nodeID: nodeID, addr: ip.Unmap(), service: service}]

	return ok, nil
}
