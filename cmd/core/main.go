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

// Command core runs the outpost core: the backend remote pollers talk to
// and the server-side topology hierarchy fed from NATS.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carverauto/outpost/pkg/config"
	"github.com/carverauto/outpost/pkg/core"
	"github.com/carverauto/outpost/pkg/lifecycle"
	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/version"
)

const defaultConfigPath = "/etc/outpost/core.json"

var errFailedToLoadConfig = errors.New("failed to load config")

var rootCmd = &cobra.Command{
	Use:   "outpost-core",
	Short: "Run the outpost core",
	Long: `Run the outpost core.

The core serves the poller backend over gRPC, keeps the registry of
location monitors and their configurations, and maintains the node,
interface and service hierarchy from topology events on NATS.

Set CONFIG_SOURCE=env to read the configuration from OUTPOST_* variables.`,
	SilenceUsage: true,
	RunE:         runCore,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the core configuration and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd.Context(), configPath(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config is valid!\n")
		fmt.Fprintf(out, "  Listen:    %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "  Locations: %d\n", len(cfg.Locations))
		fmt.Fprintf(out, "  Packages:  %d\n", len(cfg.Packages))

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "outpost-core %s\n", version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "path to core config file")
	rootCmd.AddCommand(validateCmd, versionCmd, publishCmd)
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

func loadConfig(ctx context.Context, path string) (*core.Config, error) {
	var cfg core.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	return &cfg, nil
}

func runCore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx, configPath(cmd))
	if err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "core", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() { _ = lifecycle.ShutdownLogger(context.Background()) }()

	server, err := core.NewServer(ctx, cfg, log)
	if err != nil {
		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:           cfg.ListenAddr,
		ServiceName:          cfg.ServiceName,
		Service:              server,
		RegisterGRPCServices: []lifecycle.GRPCServiceRegistrar{server.RegisterServices},
		Security:             cfg.Security,
		Logger:               log,
	})
}
