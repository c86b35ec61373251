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
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

const (
	defaultCheckInInterval    = 30 * time.Second
	defaultRPCTimeout         = 10 * time.Second
	defaultStartMaxElapsed    = 5 * time.Minute
	defaultMaxConcurrentPolls = 32
	defaultServiceName        = "outpost-poller"
)

// KVConfig selects JetStream KV storage for the monitor id.
type KVConfig struct {
	URL      string                 `json:"url" yaml:"url"`
	Domain   string                 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Bucket   string                 `json:"bucket" yaml:"bucket"`
	Key      string                 `json:"key,omitempty" yaml:"key,omitempty"`
	Security *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
}

// Config represents poller configuration.
type Config struct {
	ServiceName        string                 `json:"service_name" yaml:"service_name"`
	ListenAddr         string                 `json:"listen_addr" yaml:"listen_addr"`
	CoreAddress        string                 `json:"core_address" yaml:"core_address"`
	Location           string                 `json:"location" yaml:"location"`
	SettingsFile       string                 `json:"settings_file,omitempty" yaml:"settings_file,omitempty"`
	KV                 *KVConfig              `json:"kv,omitempty" yaml:"kv,omitempty"`
	CheckInInterval    models.Duration        `json:"checkin_interval" yaml:"checkin_interval"`
	RPCTimeout         models.Duration        `json:"rpc_timeout" yaml:"rpc_timeout"`
	StartMaxElapsed    models.Duration        `json:"start_max_elapsed" yaml:"start_max_elapsed"`
	MaxConcurrentPolls int                    `json:"max_concurrent_polls" yaml:"max_concurrent_polls"`
	PollRate           float64                `json:"poll_rate,omitempty" yaml:"poll_rate,omitempty"`
	PollBurst          int                    `json:"poll_burst,omitempty" yaml:"poll_burst,omitempty"`
	Security           *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
	Logging            *logger.Config         `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if c.CoreAddress == "" {
		return errCoreAddressRequired
	}

	if c.SettingsFile == "" && (c.KV == nil || c.KV.URL == "" || c.KV.Bucket == "") {
		return errSettingsRequiredCfg
	}

	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}

	if c.CheckInInterval.Std() <= 0 {
		c.CheckInInterval = models.Duration(defaultCheckInInterval)
	}

	if c.RPCTimeout.Std() <= 0 {
		c.RPCTimeout = models.Duration(defaultRPCTimeout)
	}

	if c.StartMaxElapsed.Std() <= 0 {
		c.StartMaxElapsed = models.Duration(defaultStartMaxElapsed)
	}

	if c.MaxConcurrentPolls <= 0 {
		c.MaxConcurrentPolls = defaultMaxConcurrentPolls
	}

	if c.KV != nil && c.KV.Key == "" {
		c.KV.Key = DefaultSettingsKey
	}

	return nil
}
