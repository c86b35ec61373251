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
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const tracerName = "github.com/carverauto/outpost/pkg/topology"

// Router validates topology events and dispatches them to an EventHandler.
// Malformed events are logged and returned as permanent errors.
type Router struct {
	handler EventHandler
	logger  logger.Logger
	tracer  trace.Tracer
}

func NewRouter(handler EventHandler, log logger.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// OnEvent routes one event. Unknown event identifiers are ignored.
func (r *Router) OnEvent(ctx context.Context, ev models.TopologyEvent) error {
	if !routed(ev.UEI) {
		r.logger.Debug().Str("uei", ev.UEI).Msg("Ignoring unhandled topology event")

		return nil
	}

	ctx, span := r.tracer.Start(ctx, "topology.OnEvent", trace.WithAttributes(
		attribute.String("event.uei", ev.UEI),
		attribute.String("net.peer.ip", ev.Interface),
		attribute.String("service.name", ev.Service),
	))
	defer span.End()

	err := r.dispatch(ctx, ev)

	outcome := "ok"

	switch {
	case err == nil:
	case IsPermanent(err):
		outcome = "dropped"

		r.logger.Warn().Err(err).
			Str("uei", ev.UEI).
			Str("interface", ev.Interface).
			Str("service", ev.Service).
			Msg("Dropping topology event")
	default:
		outcome = "failed"

		r.logger.Error().Err(err).
			Str("uei", ev.UEI).
			Str("interface", ev.Interface).
			Msg("Topology event failed")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	recordEvent(ctx, ev.UEI, outcome)

	return err
}

func routed(uei string) bool {
	switch uei {
	case models.UEINodeGainedService, models.UEIInterfaceReparented,
		models.UEINodeDeleted, models.UEIDuplicateNodeDeleted, models.UEIInterfaceDeleted:
		return true
	default:
		return false
	}
}

func (r *Router) dispatch(ctx context.Context, ev models.TopologyEvent) error {
	if ev.NodeID == nil {
		return ErrMissingNodeID
	}

	nodeID := *ev.NodeID

	switch ev.UEI {
	case models.UEINodeGainedService:
		if ev.Interface == "" {
			return ErrMissingInterface
		}

		if ev.Service == "" {
			return ErrMissingService
		}

		return r.handler.ServiceGained(ctx, nodeID, ev.Interface, ev.Service)

	case models.UEIInterfaceReparented:
		if ev.Interface == "" {
			return ErrMissingInterface
		}

		oldNodeID, err := nodeParm(ev, models.ParmOldNodeID)
		if err != nil {
			return err
		}

		newNodeID, err := nodeParm(ev, models.ParmNewNodeID)
		if err != nil {
			return err
		}

		return r.handler.InterfaceReparented(ctx, ev.Interface, oldNodeID, newNodeID)

	case models.UEINodeDeleted, models.UEIDuplicateNodeDeleted:
		return r.handler.NodeDeleted(ctx, nodeID)

	case models.UEIInterfaceDeleted:
		if ev.Interface == "" {
			return ErrMissingInterface
		}

		return r.handler.InterfaceDeleted(ctx, nodeID, ev.Interface)
	}

	return nil
}

func nodeParm(ev models.TopologyEvent, name string) (int64, error) {
	raw, ok := ev.Parm(name)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParm, name)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParm, name, raw)
	}

	return id, nil
}
