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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/topology"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize  = 64
	defaultFetchWait  = 2 * time.Second
	defaultWorkers    = 8
	defaultNakDelay   = 5 * time.Second
	defaultAckWait    = 30 * time.Second
	defaultMaxDeliver = 10

	unkeyedGroup = "none"
)

var errEmptyEvent = errors.New("topology event has no data")

// EventSink consumes decoded topology events.
type EventSink interface {
	OnEvent(ctx context.Context, ev models.TopologyEvent) error
}

// SubscriberConfig controls the durable topology consumer.
type SubscriberConfig struct {
	Stream     string
	Subject    string
	Consumer   string
	BatchSize  int
	FetchWait  time.Duration
	Workers    int
	NakDelay   time.Duration
	AckWait    time.Duration
	MaxDeliver int
}

func (c SubscriberConfig) withDefaults() SubscriberConfig {
	if c.Stream == "" {
		c.Stream = models.DefaultTopologyStream
	}

	if c.Subject == "" {
		c.Subject = models.DefaultTopologySubject
	}

	if c.Consumer == "" {
		c.Consumer = models.DefaultTopologyConsumer
	}

	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}

	if c.FetchWait <= 0 {
		c.FetchWait = defaultFetchWait
	}

	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}

	if c.NakDelay <= 0 {
		c.NakDelay = defaultNakDelay
	}

	if c.AckWait <= 0 {
		c.AckWait = defaultAckWait
	}

	if c.MaxDeliver == 0 {
		c.MaxDeliver = defaultMaxDeliver
	}

	return c
}

// TopologySubscriber pulls topology events from a durable consumer. Events of
// one node are handled in stream order; different nodes proceed in parallel.
type TopologySubscriber struct {
	js     jetstream.JetStream
	sink   EventSink
	config SubscriberConfig
	logger logger.Logger
}

func NewTopologySubscriber(js jetstream.JetStream, cfg SubscriberConfig, sink EventSink, log logger.Logger) *TopologySubscriber {
	return &TopologySubscriber{
		js:     js,
		sink:   sink,
		config: cfg.withDefaults(),
		logger: log,
	}
}

// Run consumes until ctx is done.
func (s *TopologySubscriber) Run(ctx context.Context) error {
	if _, err := EnsureStream(ctx, s.js, s.config.Stream, s.config.Subject); err != nil {
		return err
	}

	cons, err := s.js.CreateOrUpdateConsumer(ctx, s.config.Stream, jetstream.ConsumerConfig{
		Durable:       s.config.Consumer,
		FilterSubject: s.config.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       s.config.AckWait,
		MaxDeliver:    s.config.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", s.config.Consumer, err)
	}

	s.logger.Info().
		Str("stream", s.config.Stream).
		Str("consumer", s.config.Consumer).
		Msg("Topology subscriber started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		batch, err := cons.Fetch(s.config.BatchSize, jetstream.FetchMaxWait(s.config.FetchWait))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			s.logger.Warn().Err(err).Msg("Topology fetch failed")

			if !sleepCtx(ctx, s.config.FetchWait) {
				return nil
			}

			continue
		}

		msgs := make([]jetstream.Msg, 0, s.config.BatchSize)
		for msg := range batch.Messages() {
			msgs = append(msgs, msg)
		}

		if err := batch.Error(); err != nil && !isFetchTimeout(err) {
			s.logger.Warn().Err(err).Msg("Topology batch ended with error")
		}

		s.process(ctx, msgs)
	}
}

// process handles one fetched batch. Each node's messages run sequentially
// in their own worker.
func (s *TopologySubscriber) process(ctx context.Context, msgs []jetstream.Msg) {
	if len(msgs) == 0 {
		return
	}

	var (
		order  []string
		groups = make(map[string][]pending)
	)

	for _, msg := range msgs {
		ev, err := decodeEvent(msg.Data())
		if err != nil {
			s.logger.Warn().Err(err).Str("subject", msg.Subject()).Msg("Discarding undecodable topology event")

			if termErr := msg.Term(); termErr != nil {
				s.logger.Debug().Err(termErr).Msg("Failed to terminate message")
			}

			continue
		}

		key := groupKey(ev)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}

		groups[key] = append(groups[key], pending{msg: msg, event: ev})
	}

	g := new(errgroup.Group)
	g.SetLimit(s.config.Workers)

	for _, key := range order {
		group := groups[key]

		g.Go(func() error {
			for _, p := range group {
				s.handle(ctx, p)
			}

			return nil
		})
	}

	_ = g.Wait()
}

type pending struct {
	msg   jetstream.Msg
	event models.TopologyEvent
}

func (s *TopologySubscriber) handle(ctx context.Context, p pending) {
	err := s.sink.OnEvent(ctx, p.event)

	switch {
	case err == nil, topology.IsPermanent(err):
		err = p.msg.Ack()
	default:
		err = p.msg.NakWithDelay(s.config.NakDelay)
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("uei", p.event.UEI).Msg("Failed to settle topology message")
	}
}

func decodeEvent(data []byte) (models.TopologyEvent, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.TopologyEvent{}, fmt.Errorf("invalid cloud event: %w", err)
	}

	if len(envelope.Data) == 0 {
		return models.TopologyEvent{}, errEmptyEvent
	}

	var ev models.TopologyEvent
	if err := json.Unmarshal(envelope.Data, &ev); err != nil {
		return models.TopologyEvent{}, fmt.Errorf("invalid topology event: %w", err)
	}

	return ev, nil
}

func groupKey(ev models.TopologyEvent) string {
	if ev.NodeID == nil {
		return unkeyedGroup
	}

	return strconv.FormatInt(*ev.NodeID, 10)
}

func isFetchTimeout(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
