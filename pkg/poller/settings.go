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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	settingsFileMode = 0o600
	settingsDirMode  = 0o755

	// DefaultSettingsKey is the KV key holding the monitor id.
	DefaultSettingsKey = "monitor_id"
)

type settingsFile struct {
	MonitorID *int `json:"monitor_id,omitempty"`
}

// FileSettings keeps the monitor id in a small JSON file. Writes go through
// a temporary file and a rename.
type FileSettings struct {
	path string
	mu   sync.Mutex
}

func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: path}
}

func (s *FileSettings) MonitorID(_ context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}

	if f.MonitorID == nil {
		return 0, false, nil
	}

	return *f.MonitorID, true, nil
}

func (s *FileSettings) SetMonitorID(_ context.Context, id int) error {
	return s.write(settingsFile{MonitorID: &id})
}

func (s *FileSettings) ClearMonitorID(_ context.Context) error {
	return s.write(settingsFile{})
}

func (s *FileSettings) write(f settingsFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), settingsDirMode); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, settingsFileMode); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	return nil
}

// KVSettings keeps the monitor id in a JetStream key-value bucket.
type KVSettings struct {
	kv  jetstream.KeyValue
	key string
}

func NewKVSettings(kv jetstream.KeyValue, key string) *KVSettings {
	if key == "" {
		key = DefaultSettingsKey
	}

	return &KVSettings{kv: kv, key: key}
}

func (s *KVSettings) MonitorID(ctx context.Context) (int, bool, error) {
	entry, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("failed to get key %s: %w", s.key, err)
	}

	id, err := strconv.Atoi(string(entry.Value()))
	if err != nil {
		return 0, false, fmt.Errorf("invalid monitor id in key %s: %w", s.key, err)
	}

	return id, true, nil
}

func (s *KVSettings) SetMonitorID(ctx context.Context, id int) error {
	if _, err := s.kv.Put(ctx, s.key, []byte(strconv.Itoa(id))); err != nil {
		return fmt.Errorf("failed to put key %s: %w", s.key, err)
	}

	return nil
}

func (s *KVSettings) ClearMonitorID(ctx context.Context) error {
	err := s.kv.Delete(ctx, s.key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", s.key, err)
	}

	return nil
}
