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

	"google.golang.org/grpc"
)

const serviceName = "outpost.PollerBackEnd"

const (
	methodGetMonitorName            = "/" + serviceName + "/GetMonitorName"
	methodGetMonitoringLocations    = "/" + serviceName + "/GetMonitoringLocations"
	methodGetPollerConfiguration    = "/" + serviceName + "/GetPollerConfiguration"
	methodGetServiceMonitorLocators = "/" + serviceName + "/GetServiceMonitorLocators"
	methodPollerCheckingIn          = "/" + serviceName + "/PollerCheckingIn"
	methodPollerStarting            = "/" + serviceName + "/PollerStarting"
	methodPollerStopping            = "/" + serviceName + "/PollerStopping"
	methodRegisterLocationMonitor   = "/" + serviceName + "/RegisterLocationMonitor"
	methodReportResult              = "/" + serviceName + "/ReportResult"
)

// PollerBackEndServer is the server side of the PollerBackEnd service.
type PollerBackEndServer interface {
	GetMonitorName(context.Context, *MonitorRequest) (*MonitorNameResponse, error)
	GetMonitoringLocations(context.Context, *Empty) (*MonitoringLocationsResponse, error)
	GetPollerConfiguration(context.Context, *MonitorRequest) (*PollerConfigurationResponse, error)
	GetServiceMonitorLocators(context.Context, *ServiceMonitorLocatorsRequest) (*ServiceMonitorLocatorsResponse, error)
	PollerCheckingIn(context.Context, *CheckInRequest) (*CheckInResponse, error)
	PollerStarting(context.Context, *StartingRequest) (*StartingResponse, error)
	PollerStopping(context.Context, *MonitorRequest) (*Empty, error)
	RegisterLocationMonitor(context.Context, *RegisterRequest) (*RegisterResponse, error)
	ReportResult(context.Context, *ReportResultRequest) (*Empty, error)
}

// unary builds a method handler that decodes Req and dispatches to call.
func unary[Req, Resp any](
	fullMethod string, call func(PollerBackEndServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(PollerBackEndServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PollerBackEndServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the PollerBackEnd service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PollerBackEndServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMonitorName", Handler: unary(methodGetMonitorName, PollerBackEndServer.GetMonitorName)},
		{MethodName: "GetMonitoringLocations", Handler: unary(methodGetMonitoringLocations, PollerBackEndServer.GetMonitoringLocations)},
		{MethodName: "GetPollerConfiguration", Handler: unary(methodGetPollerConfiguration, PollerBackEndServer.GetPollerConfiguration)},
		{MethodName: "GetServiceMonitorLocators", Handler: unary(methodGetServiceMonitorLocators, PollerBackEndServer.GetServiceMonitorLocators)},
		{MethodName: "PollerCheckingIn", Handler: unary(methodPollerCheckingIn, PollerBackEndServer.PollerCheckingIn)},
		{MethodName: "PollerStarting", Handler: unary(methodPollerStarting, PollerBackEndServer.PollerStarting)},
		{MethodName: "PollerStopping", Handler: unary(methodPollerStopping, PollerBackEndServer.PollerStopping)},
		{MethodName: "RegisterLocationMonitor", Handler: unary(methodRegisterLocationMonitor, PollerBackEndServer.RegisterLocationMonitor)},
		{MethodName: "ReportResult", Handler: unary(methodReportResult, PollerBackEndServer.ReportResult)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "outpost/backend",
}
