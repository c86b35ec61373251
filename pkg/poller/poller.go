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

package poller

import (
	"context"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/natsutil"
	"github.com/carverauto/outpost/pkg/scheduler"
)

// hookRelay hands pause and disconnect directives to the dispatcher, which
// only exists after the FrontEnd it drives.
type hookRelay struct {
	dispatcher *Dispatcher
}

func (h *hookRelay) Pause() {
	if h.dispatcher != nil {
		h.dispatcher.Pause()
	}
}

func (h *hookRelay) Disconnect() {
	if h.dispatcher != nil {
		h.dispatcher.Disconnect()
	}
}

// New assembles a runnable poller: FrontEnd, Dispatcher on a timer
// scheduler, and the Runner driving both.
func New(cfg *Config, backend Backend, settings Settings, pollService PollService, log logger.Logger, opts ...Option) (*Runner, error) {
	relay := &hookRelay{}

	fe, err := NewFrontEnd(backend, settings, pollService, relay, log, opts...)
	if err != nil {
		return nil, err
	}

	sched := scheduler.NewTimerScheduler(cfg.MaxConcurrentPolls, log)
	dispatcher := NewDispatcher(fe, sched, rate.Limit(cfg.PollRate), cfg.PollBurst, nil, log)
	relay.dispatcher = dispatcher

	return NewRunner(cfg, fe, dispatcher, sched, nil, log), nil
}

// OpenSettings returns the configured identity store. The close function
// releases the NATS connection behind KV settings and is never nil.
func OpenSettings(ctx context.Context, cfg *Config, log logger.Logger) (Settings, func(), error) {
	if cfg.KV == nil {
		return NewFileSettings(cfg.SettingsFile), func() {}, nil
	}

	nc, js, err := natsutil.Connect(ctx, cfg.KV.URL, cfg.ServiceName, cfg.KV.Domain, cfg.KV.Security, log)
	if err != nil {
		return nil, nil, err
	}

	kv, err := natsutil.KeyValue(ctx, js, cfg.KV.Bucket)
	if err != nil {
		nc.Close()

		return nil, nil, err
	}

	return NewKVSettings(kv, cfg.KV.Key), closeConn(nc), nil
}

func closeConn(nc *nats.Conn) func() {
	return func() { nc.Close() }
}
