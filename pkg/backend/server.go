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

package backend

import (
	"context"

	"github.com/carverauto/outpost/pkg/grpc"
	"github.com/carverauto/outpost/pkg/poller"
)

// Server exposes a poller.Backend implementation as a PollerBackEndServer.
type Server struct {
	backend poller.Backend
}

func NewServer(backend poller.Backend) *Server {
	return &Server{backend: backend}
}

var _ PollerBackEndServer = (*Server)(nil)

// fail logs a backend error on the request logger and converts it to a status.
func fail(ctx context.Context, err error) error {
	grpc.FromContext(ctx).Debug().Err(err).Msg("Backend call failed")

	return toStatus(err)
}

func (s *Server) GetMonitorName(ctx context.Context, req *MonitorRequest) (*MonitorNameResponse, error) {
	name, err := s.backend.GetMonitorName(ctx, req.MonitorID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &MonitorNameResponse{Name: name}, nil
}

func (s *Server) GetMonitoringLocations(ctx context.Context, _ *Empty) (*MonitoringLocationsResponse, error) {
	locations, err := s.backend.GetMonitoringLocations(ctx)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &MonitoringLocationsResponse{Locations: locations}, nil
}

func (s *Server) GetPollerConfiguration(ctx context.Context, req *MonitorRequest) (*PollerConfigurationResponse, error) {
	cfg, err := s.backend.GetPollerConfiguration(ctx, req.MonitorID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &PollerConfigurationResponse{Configuration: cfg}, nil
}

func (s *Server) GetServiceMonitorLocators(
	ctx context.Context, req *ServiceMonitorLocatorsRequest,
) (*ServiceMonitorLocatorsResponse, error) {
	locators, err := s.backend.GetServiceMonitorLocators(ctx, req.Scope)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &ServiceMonitorLocatorsResponse{Locators: locators}, nil
}

func (s *Server) PollerCheckingIn(ctx context.Context, req *CheckInRequest) (*CheckInResponse, error) {
	st, err := s.backend.PollerCheckingIn(ctx, req.MonitorID, req.ConfigurationTimestamp)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &CheckInResponse{Status: st}, nil
}

func (s *Server) PollerStarting(ctx context.Context, req *StartingRequest) (*StartingResponse, error) {
	started, err := s.backend.PollerStarting(ctx, req.MonitorID, req.Details)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &StartingResponse{Started: started}, nil
}

func (s *Server) PollerStopping(ctx context.Context, req *MonitorRequest) (*Empty, error) {
	if err := s.backend.PollerStopping(ctx, req.MonitorID); err != nil {
		return nil, fail(ctx, err)
	}

	return &Empty{}, nil
}

func (s *Server) RegisterLocationMonitor(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	id, err := s.backend.RegisterLocationMonitor(ctx, req.Location)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return &RegisterResponse{MonitorID: id}, nil
}

func (s *Server) ReportResult(ctx context.Context, req *ReportResultRequest) (*Empty, error) {
	if err := s.backend.ReportResult(ctx, req.MonitorID, req.ServiceID, req.Result); err != nil {
		return nil, fail(ctx, err)
	}

	return &Empty{}, nil
}
