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

// Package monitors contains the protocol probes used by pollers and by the
// backend's own polling, and the registry that resolves a service to its probe.
package monitors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

var (
	errNoMonitor = errors.New("no monitor registered")
)

const (
	ParamPort         = "port"
	ParamRetry        = "retry"
	ParamTimeout      = "timeout"
	ParamURL          = "url"
	ParamResponse     = "response"
	ParamResponseText = "response text"

	defaultRetry   = 0
	defaultTimeout = 3 * time.Second
)

// Target is the interface address and parameters a probe runs against.
type Target struct {
	Address    string
	Parameters map[string]string
}

// Monitor executes one availability check. Network failures are reported in
// the returned status, never as a panic or error.
type Monitor interface {
	Poll(ctx context.Context, target Target) models.PollStatus
}

// Registry maps monitor kinds ("tcp", "http", ...) to implementations.
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]Monitor
}

func NewRegistry() *Registry {
	return &Registry{monitors: make(map[string]Monitor)}
}

// NewDefaultRegistry returns a registry with every built-in monitor.
func NewDefaultRegistry(log logger.Logger) *Registry {
	r := NewRegistry()
	r.Register("tcp", NewTCPMonitor(log))
	r.Register("http", NewHTTPMonitor(false, log))
	r.Register("https", NewHTTPMonitor(true, log))
	r.Register("smtp", NewSMTPMonitor(log))

	return r
}

func (r *Registry) Register(kind string, m Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.monitors[kind] = m
}

func (r *Registry) Get(kind string) (Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoMonitor, kind)
	}

	return m, nil
}

func intParam(params map[string]string, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// timeoutParam reads a timeout in milliseconds, or a Go duration string.
func timeoutParam(params map[string]string, def time.Duration) time.Duration {
	v, ok := params[ParamTimeout]
	if !ok {
		return def
	}

	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}

	return def
}

func isTimeout(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// isUnreachable reports errors after which retrying the same address is pointless.
func isUnreachable(err error) bool {
	return errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH)
}
