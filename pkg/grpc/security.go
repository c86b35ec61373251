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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

var (
	errSecurityConfigRequired = errors.New("security config required")
	errUnknownSecurityMode    = errors.New("unknown security mode")
	errFailedToAppendCACert   = errors.New("failed to append CA certificate")
)

// SecurityProvider supplies transport credentials for clients and servers.
type SecurityProvider interface {
	GetClientCredentials(ctx context.Context) (grpc.DialOption, error)
	GetServerCredentials(ctx context.Context) (grpc.ServerOption, error)
	Close() error
}

// NoSecurityProvider implements SecurityProvider with no security (development only).
type NoSecurityProvider struct{}

func (*NoSecurityProvider) GetClientCredentials(context.Context) (grpc.DialOption, error) {
	return grpc.WithTransportCredentials(insecure.NewCredentials()), nil
}

func (*NoSecurityProvider) GetServerCredentials(context.Context) (grpc.ServerOption, error) {
	return grpc.Creds(insecure.NewCredentials()), nil
}

func (*NoSecurityProvider) Close() error {
	return nil
}

// MTLSProvider implements SecurityProvider with mutual TLS. Paths are expected
// to be normalized against CertDir by the config loader.
type MTLSProvider struct {
	clientCreds credentials.TransportCredentials
	serverCreds credentials.TransportCredentials
}

// NewMTLSProvider loads the key pair and CA pool named by config.
func NewMTLSProvider(config *models.SecurityConfig, log logger.Logger) (*MTLSProvider, error) {
	if config == nil {
		return nil, errSecurityConfigRequired
	}

	if config.TLS.CertFile == "" || config.TLS.KeyFile == "" || config.TLS.CAFile == "" {
		return nil, fmt.Errorf("%w: mtls requires tls.cert_file, tls.key_file and tls.ca_file", errSecurityConfigRequired)
	}

	cert, err := tls.LoadX509KeyPair(config.TLS.CertFile, config.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	caPool, err := loadCertPool(config.TLS.CAFile)
	if err != nil {
		return nil, err
	}

	clientCAFile := config.TLS.ClientCAFile
	if clientCAFile == "" {
		clientCAFile = config.TLS.CAFile
	}

	clientCAPool, err := loadCertPool(clientCAFile)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("role", string(config.Role)).
		Str("cert_file", config.TLS.CertFile).
		Msg("Initialized mTLS provider")

	return &MTLSProvider{
		clientCreds: credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      caPool,
			ServerName:   config.ServerName,
			MinVersion:   tls.VersionTLS13,
		}),
		serverCreds: credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientCAs:    clientCAPool,
			ClientAuth:   tls.RequireAndVerifyClientCert,
			MinVersion:   tls.VersionTLS13,
		}),
	}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: %s", errFailedToAppendCACert, path)
	}

	return pool, nil
}

func (p *MTLSProvider) GetClientCredentials(context.Context) (grpc.DialOption, error) {
	return grpc.WithTransportCredentials(p.clientCreds), nil
}

func (p *MTLSProvider) GetServerCredentials(context.Context) (grpc.ServerOption, error) {
	return grpc.Creds(p.serverCreds), nil
}

func (*MTLSProvider) Close() error {
	return nil
}

// NewSecurityProvider creates the appropriate security provider based on mode.
func NewSecurityProvider(_ context.Context, config *models.SecurityConfig, log logger.Logger) (SecurityProvider, error) {
	if config == nil || config.Mode == "" {
		log.Warn().Msg("SECURITY WARNING: No security mode configured, using no security")

		return &NoSecurityProvider{}, nil
	}

	switch models.SecurityMode(strings.ToLower(string(config.Mode))) {
	case models.SecurityModeNone:
		return &NoSecurityProvider{}, nil
	case models.SecurityModeMTLS:
		return NewMTLSProvider(config, log)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownSecurityMode, config.Mode)
	}
}
