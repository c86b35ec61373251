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
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const (
	defaultHTTPPort  = 80
	defaultHTTPSPort = 443
	defaultURL       = "/"
	maxBodyScan      = 1 << 20
)

// HTTPMonitor issues a GET and validates the status code and, optionally,
// that the body contains a given text. Without an explicit "response"
// parameter any code in 100..499 counts as available. The https variant
// accepts any server certificate.
type HTTPMonitor struct {
	secure bool
	logger logger.Logger
}

func NewHTTPMonitor(secure bool, log logger.Logger) *HTTPMonitor {
	return &HTTPMonitor{secure: secure, logger: log}
}

func (m *HTTPMonitor) Poll(ctx context.Context, target Target) models.PollStatus {
	scheme, defPort := "http", defaultHTTPPort
	if m.secure {
		scheme, defPort = "https", defaultHTTPSPort
	}

	port := intParam(target.Parameters, ParamPort, defPort)
	retry := intParam(target.Parameters, ParamRetry, defaultRetry)
	timeout := timeoutParam(target.Parameters, defaultTimeout)

	path := target.Parameters[ParamURL]
	if path == "" {
		path = defaultURL
	}

	url := fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(target.Address, strconv.Itoa(port)), path)

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			//nolint:gosec // probes must work against self-signed devices
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	status := models.Unavailable("not polled")

	for attempt := 0; attempt <= retry; attempt++ {
		status = m.attempt(ctx, client, url, target.Parameters)
		if status.IsAvailable() || ctx.Err() != nil {
			break
		}

		m.logger.Debug().
			Str("url", url).
			Int("attempt", attempt).
			Str("reason", status.Reason).
			Msg("HTTP poll failed")
	}

	return status
}

func (*HTTPMonitor) attempt(ctx context.Context, client *http.Client, url string, params map[string]string) models.PollStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return models.Unavailable(err.Error())
	}

	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return models.Unresponsive(err.Error())
		}

		return models.Unavailable(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)

	if !validResponseCode(resp.StatusCode, params) {
		return models.Unavailable(fmt.Sprintf("unexpected response code %d", resp.StatusCode))
	}

	text := params[ParamResponseText]
	if text == "" {
		return models.Available(elapsed)
	}

	if bodyContains(resp, text) {
		return models.Available(elapsed)
	}

	return models.Unavailable(fmt.Sprintf("response did not contain %q", text))
}

func validResponseCode(code int, params map[string]string) bool {
	want := intParam(params, ParamResponse, -1)
	if want > 99 && want < 600 {
		return code == want
	}

	return code > 99 && code < 500
}

func bodyContains(resp *http.Response, text string) bool {
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxBodyScan))
	scanner.Buffer(make([]byte, 0, 64*1024), maxBodyScan)

	for scanner.Scan() {
		if strings.Contains(scanner.Text(), text) {
			return true
		}
	}

	return false
}
