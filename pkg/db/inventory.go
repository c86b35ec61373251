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

package db

import (
	"context"
	"fmt"

	"github.com/carverauto/outpost/pkg/models"
)

const activeServicesSQL = `
SELECT node.nodeid, node.nodelabel, ifservices.ipaddr, service.servicename
  FROM node
  JOIN ifservices ON ifservices.nodeid = node.nodeid
  JOIN service ON service.serviceid = ifservices.serviceid
 WHERE ifservices.status = 'A'
   AND node.nodetype <> 'D'
 ORDER BY node.nodeid, ifservices.ipaddr, service.servicename`

// Inventory lists managed nodes and their active services.
type Inventory struct {
	db Querier
}

func NewInventory(db Querier) *Inventory {
	return &Inventory{db: db}
}

// Nodes returns every node with at least one active service, ordered by id.
func (i *Inventory) Nodes(ctx context.Context) ([]models.Node, error) {
	rows, err := i.db.Query(ctx, activeServicesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: active services: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var nodes []models.Node

	for rows.Next() {
		var (
			nodeID  int64
			label   string
			ipAddr  string
			service string
		)

		if err := rows.Scan(&nodeID, &label, &ipAddr, &service); err != nil {
			return nil, fmt.Errorf("%w: active services: %w", ErrFailedToScan, err)
		}

		nodes = appendService(nodes, nodeID, label, ipAddr, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: active services: %w", ErrFailedToQuery, err)
	}

	return nodes, nil
}

// appendService folds one ordered row into the node list.
func appendService(nodes []models.Node, nodeID int64, label, ipAddr, service string) []models.Node {
	if len(nodes) == 0 || nodes[len(nodes)-1].ID != nodeID {
		nodes = append(nodes, models.Node{ID: nodeID, Label: label})
	}

	node := &nodes[len(nodes)-1]

	if n := len(node.Interfaces); n == 0 || node.Interfaces[n-1].IPAddr != ipAddr {
		node.Interfaces = append(node.Interfaces, models.NodeInterfaceRef{IPAddr: ipAddr})
	}

	iface := &node.Interfaces[len(node.Interfaces)-1]
	iface.Services = append(iface.Services, service)

	return nodes
}
