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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/carverauto/outpost/pkg/logger"
)

// CreateLogger creates a new logger instance with the provided configuration.
// This returns a logger that can be injected into services.
func CreateLogger(config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	zl, err := newZerolog(config, config.Writer())
	if err != nil {
		return nil, err
	}

	return logger.New(zl), nil
}

func newZerolog(config *logger.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := config.ParsedLevel()
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// CreateComponentLogger creates a logger for a specific component and starts
// the OTel pipelines the configuration asks for. With OTel enabled, log
// lines are also exported over OTLP.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	base, err := CreateLogger(config)
	if err != nil {
		return nil, err
	}

	log := logger.New(base.WithComponent(component))

	if config == nil || !config.OTel.Enabled {
		return log, nil
	}

	serviceName := config.OTel.ServiceName
	if serviceName == "" {
		serviceName = component
	}

	otelWriter, err := logger.NewOTelWriter(ctx, &config.OTel, serviceName)

	switch {
	case errors.Is(err, logger.ErrOTelLoggingDisabled):
	case err != nil:
		return nil, err
	default:
		zl, err := newZerolog(config, io.MultiWriter(config.Writer(), otelWriter))
		if err != nil {
			return nil, err
		}

		log = logger.New(zl.With().Str("component", component).Logger())
	}

	if _, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName: serviceName,
		Logger:      log,
		OTel:        &config.OTel,
	}); err != nil {
		return nil, err
	}

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: serviceName,
		OTel:        &config.OTel,
	}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return nil, err
	}

	return log, nil
}

// ShutdownLogger flushes any pending telemetry.
func ShutdownLogger(ctx context.Context) error {
	return logger.Shutdown(ctx)
}
