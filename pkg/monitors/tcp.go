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
	"net"
	"strconv"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

// TCPMonitor reports a service available when a connection to its port succeeds.
type TCPMonitor struct {
	logger logger.Logger
}

func NewTCPMonitor(log logger.Logger) *TCPMonitor {
	return &TCPMonitor{logger: log}
}

func (m *TCPMonitor) Poll(ctx context.Context, target Target) models.PollStatus {
	port := intParam(target.Parameters, ParamPort, -1)
	if port <= 0 {
		return models.Unavailable("no port parameter configured")
	}

	retry := intParam(target.Parameters, ParamRetry, defaultRetry)
	timeout := timeoutParam(target.Parameters, defaultTimeout)
	addr := net.JoinHostPort(target.Address, strconv.Itoa(port))

	var lastErr error

	for attempt := 0; attempt <= retry; attempt++ {
		start := time.Now()

		conn, err := dial(ctx, addr, timeout)
		if err == nil {
			_ = conn.Close()

			return models.Available(time.Since(start))
		}

		lastErr = err

		m.logger.Debug().
			Str("addr", addr).
			Int("attempt", attempt).
			Err(err).
			Msg("TCP connect failed")

		if isUnreachable(err) || ctx.Err() != nil {
			break
		}
	}

	return models.Unavailable(lastErr.Error())
}

func dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer

	return d.DialContext(ctx, "tcp", addr)
}
