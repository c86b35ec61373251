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

package monitors

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const defaultSMTPPort = 25

// SMTPMonitor expects a 220 banner, a 250 reply to HELO and a 221 reply to
// QUIT. Multi-line replies ("250-...") are read through to their final line.
type SMTPMonitor struct {
	hostname string
	logger   logger.Logger
}

func NewSMTPMonitor(log logger.Logger) *SMTPMonitor {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}

	return &SMTPMonitor{hostname: hostname, logger: log}
}

func (m *SMTPMonitor) Poll(ctx context.Context, target Target) models.PollStatus {
	port := intParam(target.Parameters, ParamPort, defaultSMTPPort)
	retry := intParam(target.Parameters, ParamRetry, defaultRetry)
	timeout := timeoutParam(target.Parameters, defaultTimeout)
	addr := net.JoinHostPort(target.Address, strconv.Itoa(port))

	status := models.Unavailable("not polled")

	for attempt := 0; attempt <= retry; attempt++ {
		var stop bool

		status, stop = m.attempt(ctx, addr, timeout)
		if status.IsAvailable() || stop || ctx.Err() != nil {
			break
		}

		m.logger.Debug().
			Str("addr", addr).
			Int("attempt", attempt).
			Str("reason", status.Reason).
			Msg("SMTP poll failed")
	}

	return status
}

// attempt runs one SMTP conversation. stop is set when retrying is pointless.
func (m *SMTPMonitor) attempt(ctx context.Context, addr string, timeout time.Duration) (status models.PollStatus, stop bool) {
	start := time.Now()

	conn, err := dial(ctx, addr, timeout)
	if err != nil {
		return models.Unavailable(err.Error()), isUnreachable(err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	tp := textproto.NewConn(conn)

	if _, _, err := tp.ReadResponse(220); err != nil {
		return smtpFailure(err), false
	}

	if err := tp.PrintfLine("HELO %s", m.hostname); err != nil {
		return smtpFailure(err), false
	}

	if _, _, err := tp.ReadResponse(250); err != nil {
		return smtpFailure(err), false
	}

	if err := tp.PrintfLine("QUIT"); err != nil {
		return smtpFailure(err), false
	}

	if _, _, err := tp.ReadResponse(221); err != nil {
		return smtpFailure(err), false
	}

	return models.Available(time.Since(start)), false
}

// smtpFailure maps a conversation error: a peer that stops talking is
// unresponsive, a wrong reply code means the service is unavailable.
func smtpFailure(err error) models.PollStatus {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return models.Unavailable(protoErr.Error())
	}

	if isTimeout(err) {
		return models.Unresponsive(err.Error())
	}

	return models.Unavailable(err.Error())
}
