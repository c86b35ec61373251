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

// Package natsutil connects outpost services to NATS JetStream and moves
// topology events over it.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	reconnectWait = 2 * time.Second
)

var errEmptyURL = errors.New("nats url is required")

// Connect dials NATS with the given security block and returns the connection
// together with a JetStream handle scoped to domain. An empty domain uses the
// account default.
func Connect(
	ctx context.Context, url, name, domain string, sec *models.SecurityConfig, log logger.Logger, extra ...nats.Option,
) (*nats.Conn, jetstream.JetStream, error) {
	if url == "" {
		return nil, nil, errEmptyURL
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Debug().Msg("NATS connection closed")
		}),
	}

	if sec != nil && sec.Mode == models.SecurityModeMTLS {
		tlsConf, err := TLSConfig(sec)
		if err != nil {
			return nil, nil, err
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts, extra...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := newJetStream(nc, domain)
	if err != nil {
		nc.Close()

		return nil, nil, err
	}

	if ctx.Err() != nil {
		nc.Close()

		return nil, nil, ctx.Err()
	}

	log.Info().Str("url", url).Str("domain", domain).Msg("Connected to NATS")

	return nc, js, nil
}

func newJetStream(nc *nats.Conn, domain string) (jetstream.JetStream, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return js, nil
}

// EnsureStream returns the named stream, creating or widening it so that it
// captures subjects.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name string, subjects ...string) (jetstream.Stream, error) {
	stream, err := js.Stream(ctx, name)
	if err == nil && coversSubjects(stream.CachedInfo().Config.Subjects, subjects) {
		return stream, nil
	}

	if err != nil && !errors.Is(err, jetstream.ErrStreamNotFound) {
		return nil, fmt.Errorf("failed to look up stream %s: %w", name, err)
	}

	cfg := jetstream.StreamConfig{
		Name:     name,
		Subjects: subjects,
		Storage:  jetstream.FileStorage,
	}

	if stream != nil {
		cfg = stream.CachedInfo().Config
		cfg.Subjects = mergeSubjects(cfg.Subjects, subjects)
	}

	stream, err = js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", name, err)
	}

	return stream, nil
}

// KeyValue returns the named bucket, creating it on first use.
func KeyValue(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	return kv, nil
}

func coversSubjects(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}

	for _, s := range want {
		if _, ok := set[s]; !ok {
			return false
		}
	}

	return true
}

func mergeSubjects(have, want []string) []string {
	out := append([]string(nil), have...)

	for _, s := range want {
		if !coversSubjects(out, []string{s}) {
			out = append(out, s)
		}
	}

	return out
}
