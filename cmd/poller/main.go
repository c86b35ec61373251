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

// Command poller runs an outpost remote poller. It registers with the core
// at its configured location, checks in periodically and runs the polls the
// core assigns to it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carverauto/outpost/pkg/backend"
	"github.com/carverauto/outpost/pkg/config"
	"github.com/carverauto/outpost/pkg/grpc"
	"github.com/carverauto/outpost/pkg/lifecycle"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/monitors"
	"github.com/carverauto/outpost/pkg/poller"
	"github.com/carverauto/outpost/pkg/version"
)

const defaultConfigPath = "/etc/outpost/poller.json"

var errFailedToLoadConfig = errors.New("failed to load config")

var rootCmd = &cobra.Command{
	Use:   "outpost-poller",
	Short: "Run an outpost remote poller",
	Long: `Run an outpost remote poller.

The poller registers with the core at its configured location, announces
itself, loads the service list for that location and polls each service at
its interval. Check-ins tell it when to reload, pause, disconnect or stop.

Set CONFIG_SOURCE=env to read the configuration from OUTPOST_* variables.`,
	SilenceUsage: true,
	RunE:         runPoller,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the poller configuration and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd.Context(), configPath(cmd), nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config is valid: core %s, location %q\n", cfg.CoreAddress, cfg.Location)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "outpost-poller %s\n", version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "path to poller config file")
	rootCmd.AddCommand(validateCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")

	return path
}

func loadConfig(ctx context.Context, path string, log logger.Logger) (*poller.Config, error) {
	var cfg poller.Config

	if err := config.NewConfig(log).LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	return &cfg, nil
}

func runPoller(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx, configPath(cmd), nil)
	if err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "poller", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() { _ = lifecycle.ShutdownLogger(context.Background()) }()

	client, err := grpc.NewClient(ctx, grpc.ClientConfig{
		Address:  cfg.CoreAddress,
		Security: cfg.Security,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to core: %w", err)
	}

	defer func() { _ = client.Close() }()

	settings, closeSettings, err := poller.OpenSettings(ctx, cfg, log)
	if err != nil {
		return err
	}

	defer closeSettings()

	probes := monitors.NewPollService(monitors.NewDefaultRegistry(log), log)

	runner, err := poller.New(cfg, backend.NewClient(client.GetConnection()), settings, probes, log)
	if err != nil {
		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		ServiceName: cfg.ServiceName,
		Service:     runner,
		Security:    cfg.Security,
		Logger:      log,
	})
}
