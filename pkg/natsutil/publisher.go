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
	"fmt"
	"time"

	"github.com/carverauto/outpost/pkg/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// TopologyPublisher wraps topology events in CloudEvents and publishes them
// to a JetStream subject.
type TopologyPublisher struct {
	js      jetstream.JetStream
	subject string
	now     func() time.Time
}

func NewTopologyPublisher(js jetstream.JetStream, subject string) *TopologyPublisher {
	if subject == "" {
		subject = models.DefaultTopologySubject
	}

	return &TopologyPublisher{js: js, subject: subject, now: time.Now}
}

// Publish sends one event and returns its stream sequence. The CloudEvent id
// doubles as the JetStream message id so retried publishes are deduplicated.
func (p *TopologyPublisher) Publish(ctx context.Context, ev models.TopologyEvent) (uint64, error) {
	ts := p.now()

	ce := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          models.TopologyEventSource,
		Type:            models.TopologyEventType,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &ts,
		Data:            ev,
	}

	payload, err := json.Marshal(ce)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal topology event: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.subject, payload, jetstream.WithMsgID(ce.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish topology event %s: %w", ev.UEI, err)
	}

	return ack.Sequence, nil
}
