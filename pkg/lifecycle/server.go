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

// Package lifecycle runs long-lived services until they are signalled to stop.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/outpost/pkg/grpc"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const defaultShutdownTimeout = 10 * time.Second

var errServiceRequired = errors.New("service is required")

// Service is anything with a start/stop lifecycle.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// GRPCServiceRegistrar registers service implementations on a gRPC server.
type GRPCServiceRegistrar func(*grpc.Server) error

// ServerOptions configures RunServer.
type ServerOptions struct {
	ListenAddr           string
	ServiceName          string
	Service              Service
	RegisterGRPCServices []GRPCServiceRegistrar
	Security             *models.SecurityConfig
	ShutdownTimeout      time.Duration
	Logger               logger.Logger
}

// RunServer starts the service and, when ListenAddr is set, a gRPC server in
// front of it. It blocks until ctx is done, SIGINT/SIGTERM arrives or the
// gRPC server fails, then stops everything within ShutdownTimeout.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts == nil || opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		srv     *grpc.Server
		srvErrs = make(chan error, 1)
	)

	if opts.ListenAddr != "" {
		var err error

		srv, err = newGRPCServer(ctx, opts, log)
		if err != nil {
			return err
		}

		go func() {
			srvErrs <- srv.Start()
		}()
	}

	if err := opts.Service.Start(ctx); err != nil {
		if srv != nil {
			srv.Stop(context.Background())
		}

		return fmt.Errorf("failed to start %s: %w", opts.ServiceName, err)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown requested")
	case runErr = <-srvErrs:
		if runErr != nil {
			log.Error().Err(runErr).Msg("gRPC server failed")
		}
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if srv != nil {
		srv.Stop(shutdownCtx)
	}

	if err := opts.Service.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to stop %s: %w", opts.ServiceName, err))
	}

	return runErr
}

func newGRPCServer(ctx context.Context, opts *ServerOptions, log logger.Logger) (*grpc.Server, error) {
	provider, err := grpc.NewSecurityProvider(ctx, opts.Security, log)
	if err != nil {
		return nil, err
	}

	creds, err := provider.GetServerCredentials(ctx)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(opts.ListenAddr, log, grpc.WithServerOptions(creds))

	for _, register := range opts.RegisterGRPCServices {
		if err := register(srv); err != nil {
			return nil, fmt.Errorf("failed to register gRPC services: %w", err)
		}
	}

	return srv, nil
}
