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

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/carverauto/outpost/pkg/lifecycle"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/natsutil"
)

const publishTimeout = 10 * time.Second

var (
	errNATSNotConfigured = errors.New("core config has no nats section")
	errBadParm           = errors.New("parameters must look like name=value")
)

var publishCmd = &cobra.Command{
	Use:   "publish-event",
	Short: "Publish a topology event to the core's NATS stream",
	Long: `Publish a topology event to the core's NATS stream.

Useful for replaying inventory changes by hand, for example:

  outpost-core publish-event -c core.json \
    --uei uei.outpost/nodes/nodeGainedService \
    --node-id 12 --interface 10.0.0.5 --service HTTP

  outpost-core publish-event -c core.json \
    --uei uei.outpost/nodes/interfaceReparented \
    --node-id 14 --interface 10.0.0.5 \
    --parm oldNodeID=12 --parm newNodeID=14`,
	RunE: runPublish,
}

func init() {
	addEventFlags(publishCmd.Flags())

	_ = publishCmd.MarkFlagRequired("uei")
}

func addEventFlags(f *pflag.FlagSet) {
	f.String("uei", "", "event identifier (required)")
	f.Int64("node-id", 0, "node id; omitted when zero")
	f.String("interface", "", "interface address")
	f.String("service", "", "service name")
	f.StringArray("parm", nil, "event parameter as name=value, repeatable")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Context(), configPath(cmd))
	if err != nil {
		return err
	}

	if cfg.NATS == nil {
		return errNATSNotConfigured
	}

	ev, err := eventFromFlags(cmd)
	if err != nil {
		return err
	}

	log, err := lifecycle.CreateLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
	defer cancel()

	nc, js, err := natsutil.Connect(ctx, cfg.NATS.URL, cfg.ServiceName+"-publish", cfg.NATS.Domain, cfg.NATS.Security, log)
	if err != nil {
		return err
	}

	defer nc.Close()

	if _, err := natsutil.EnsureStream(ctx, js, cfg.NATS.Stream, cfg.NATS.Subject); err != nil {
		return err
	}

	seq, err := natsutil.NewTopologyPublisher(js, cfg.NATS.Subject).Publish(ctx, ev)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published %s (seq %d)\n", ev.UEI, seq)

	return nil
}

func eventFromFlags(cmd *cobra.Command) (models.TopologyEvent, error) {
	f := cmd.Flags()

	uei, _ := f.GetString("uei")
	nodeID, _ := f.GetInt64("node-id")
	iface, _ := f.GetString("interface")
	service, _ := f.GetString("service")
	raw, _ := f.GetStringArray("parm")

	ev := models.TopologyEvent{UEI: uei, Interface: iface, Service: service}

	if nodeID != 0 {
		ev.NodeID = &nodeID
	}

	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return models.TopologyEvent{}, fmt.Errorf("%w: %q", errBadParm, p)
		}

		ev.Parms = append(ev.Parms, models.Parm{Name: name, Value: value})
	}

	return ev, nil
}
