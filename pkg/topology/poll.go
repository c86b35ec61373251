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

import (
	"context"

	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/scheduler"
)

var _ scheduler.Task = (*Service)(nil)

// Run probes the service, records the verdict under its node's lock and
// schedules the next poll. A deleted service stops rescheduling.
func (s *Service) Run(ctx context.Context) {
	h := s.hierarchy

	if s.Deleted() {
		return
	}

	target := s.polledService()

	result, err := h.prober.Poll(ctx, target)
	if err != nil {
		h.logger.Warn().Err(err).
			Int64("node_id", target.NodeID).
			Str("interface", target.IPAddr).
			Str("service", s.name).
			Msg("Service poll failed")
	} else {
		recordServicePoll(ctx, result.Status)

		change, alive := h.applyResult(ctx, s, result)
		if !alive {
			return
		}

		h.fire(change)
	}

	if ctx.Err() != nil || s.Deleted() {
		return
	}

	h.scheduler.Schedule(s, h.interval(s))
}

// applyResult stores result on svc and recomputes the node status. alive is
// false once the service or its node has been deleted.
func (h *Hierarchy) applyResult(ctx context.Context, svc *Service, result models.PollStatus) (change statusChange, alive bool) {
	for {
		node := svc.Node()

		if err := h.lockNode(ctx, node); err != nil {
			h.logger.Warn().Err(err).
				Int64("node_id", node.id).
				Str("service", svc.name).
				Msg("Dropping poll result")

			return statusChange{}, !svc.Deleted()
		}

		// The interface may have moved while the lock was awaited.
		if svc.Node() != node {
			node.lock.Unlock()

			continue
		}

		change, alive = h.storeResult(node, svc, result)
		node.lock.Unlock()

		return change, alive
	}
}

func (h *Hierarchy) storeResult(node *Node, svc *Service, result models.PollStatus) (statusChange, bool) {
	if svc.Deleted() || node.Deleted() {
		return statusChange{}, false
	}

	if !svc.setStatus(result, h.now()) {
		return statusChange{}, true
	}

	h.logger.Info().
		Int64("node_id", node.id).
		Str("interface", svc.Interface().addr.String()).
		Str("service", svc.name).
		Str("status", string(result.Status)).
		Str("reason", result.Reason).
		Msg("Service status changed")

	previous, current := node.recalculate()

	return statusChange{nodeID: node.id, previous: previous, current: current}, true
}
