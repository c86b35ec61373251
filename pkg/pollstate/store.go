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

// Package pollstate keeps the per-service poll records of a poller.
package pollstate

import (
	"sync"
	"time"

	"github.com/carverauto/outpost/pkg/models"
)

// ServicePollState is the poll record of one monitored service.
type ServicePollState struct {
	Service         models.PolledService `json:"service"`
	Index           int                  `json:"index"`
	InitialPollTime *time.Time           `json:"initial_poll_time,omitempty"`
	LastPoll        *models.PollStatus   `json:"last_poll,omitempty"`
	LastPollTime    *time.Time           `json:"last_poll_time,omitempty"`
}

// Store maps service ids to poll records. Records are copied in and out so
// callers never share memory with the store.
type Store struct {
	mu      sync.RWMutex
	byID    map[int]*ServicePollState
	ordered []*ServicePollState
}

func NewStore() *Store {
	return &Store{byID: make(map[int]*ServicePollState)}
}

// Replace discards every record and creates one per service with indices
// 0..n-1 in the given order. A repeated service id keeps its first entry.
func (s *Store) Replace(services []models.PolledService) []ServicePollState {
	byID := make(map[int]*ServicePollState, len(services))
	ordered := make([]*ServicePollState, 0, len(services))

	for _, svc := range services {
		if _, dup := byID[svc.ID]; dup {
			continue
		}

		state := &ServicePollState{Service: svc, Index: len(ordered)}
		byID[svc.ID] = state
		ordered = append(ordered, state)
	}

	s.mu.Lock()
	s.byID = byID
	s.ordered = ordered
	s.mu.Unlock()

	return s.Snapshot()
}

// Get returns a copy of the record for id.
func (s *Store) Get(id int) (ServicePollState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.byID[id]
	if !ok {
		return ServicePollState{}, false
	}

	return state.clone(), true
}

// RecordResult stores the latest result for id and returns the updated record.
func (s *Store) RecordResult(id int, result models.PollStatus, at time.Time) (ServicePollState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byID[id]
	if !ok {
		return ServicePollState{}, false
	}

	r := result
	ts := at
	state.LastPoll = &r
	state.LastPollTime = &ts

	return state.clone(), true
}

// SetInitialPollTime records when the first poll of id is due.
func (s *Store) SetInitialPollTime(id int, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byID[id]
	if !ok {
		return false
	}

	ts := at
	state.InitialPollTime = &ts

	return true
}

// Snapshot returns copies of all records ordered by index.
func (s *Store) Snapshot() []ServicePollState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ServicePollState, len(s.ordered))
	for i, state := range s.ordered {
		out[i] = state.clone()
	}

	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ordered)
}

func (st *ServicePollState) clone() ServicePollState {
	out := *st

	if st.InitialPollTime != nil {
		t := *st.InitialPollTime
		out.InitialPollTime = &t
	}

	if st.LastPoll != nil {
		p := *st.LastPoll
		out.LastPoll = &p
	}

	if st.LastPollTime != nil {
		t := *st.LastPollTime
		out.LastPollTime = &t
	}

	return out
}
