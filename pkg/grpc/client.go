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

package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

// ClientConfig describes an outbound connection.
type ClientConfig struct {
	Address     string
	Security    *models.SecurityConfig
	DialOptions []grpc.DialOption
	Logger      logger.Logger
}

// Client owns a connection and the security provider that secured it.
type Client struct {
	conn     *grpc.ClientConn
	provider SecurityProvider
}

// NewClient creates a lazily-connecting client for cfg.Address.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	provider, err := NewSecurityProvider(ctx, cfg.Security, log)
	if err != nil {
		return nil, err
	}

	creds, err := provider.GetClientCredentials(ctx)
	if err != nil {
		_ = provider.Close()

		return nil, err
	}

	opts := append([]grpc.DialOption{
		creds,
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                120 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		_ = provider.Close()

		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", cfg.Address, err)
	}

	log.Debug().Str("address", cfg.Address).Msg("Created gRPC client")

	return &Client{conn: conn, provider: provider}, nil
}

// GetConnection returns the underlying client connection.
func (c *Client) GetConnection() *grpc.ClientConn {
	return c.conn
}

// Close closes the connection and the security provider.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return err
	}

	return c.provider.Close()
}
