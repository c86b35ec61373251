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

	"github.com/carverauto/outpost/pkg/logger"
)

const countActiveServiceSQL = `
SELECT count(*)
  FROM ifservices
  JOIN service ON ifservices.serviceid = service.serviceid
 WHERE ifservices.nodeid = $1
   AND ifservices.ipaddr = $2
   AND ifservices.status = 'A'
   AND service.servicename = $3`

// ActivityChecker answers whether a service on an interface is marked
// active in the inventory.
type ActivityChecker struct {
	db     Querier
	logger logger.Logger
}

func NewActivityChecker(db Querier, log logger.Logger) *ActivityChecker {
	return &ActivityChecker{db: db, logger: log}
}

func (a *ActivityChecker) IsActive(ctx context.Context, nodeID int64, addr, service string) (bool, error) {
	var count int64

	if err := a.db.QueryRow(ctx, countActiveServiceSQL, nodeID, addr, service).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: service status for %d/%s/%s: %w", ErrFailedToQuery, nodeID, addr, service, err)
	}

	a.logger.Debug().
		Int64("node_id", nodeID).
		Str("interface", addr).
		Str("service", service).
		Int64("count", count).
		Msg("Checked service activity")

	return count > 0, nil
}
