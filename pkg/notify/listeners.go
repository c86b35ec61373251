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

// Package notify holds ordered listener collections. The most recently added
// listener is invoked first and removal never reorders the others.
package notify

import (
	"sync"
	"time"

	"github.com/carverauto/outpost/pkg/pollstate"
)

// Subscription identifies a registered listener.
type Subscription uint64

type entry[T any] struct {
	id Subscription
	fn T
}

// List is an ordered, concurrency-safe collection of listeners.
type List[T any] struct {
	mu      sync.RWMutex
	next    Subscription
	entries []entry[T]
}

// Add registers fn ahead of every existing listener.
func (l *List[T]) Add(fn T) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	l.entries = append([]entry[T]{{id: l.next, fn: fn}}, l.entries...)

	return l.next
}

// Remove unregisters a listener. It reports whether the listener was present.
func (l *List[T]) Remove(sub Subscription) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == sub {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)

			return true
		}
	}

	return false
}

// Each calls visit for every listener in invocation order. Listeners added or
// removed during the walk do not affect it.
func (l *List[T]) Each(visit func(T)) {
	l.mu.RLock()
	snapshot := make([]entry[T], len(l.entries))
	copy(snapshot, l.entries)
	l.mu.RUnlock()

	for _, e := range snapshot {
		visit(e.fn)
	}
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// ConfigurationChangedFunc receives the previous and new configuration
// timestamps; nil means no configuration.
type ConfigurationChangedFunc func(oldTimestamp, newTimestamp *time.Time)

// PollStateChangedFunc receives the record of a service after a poll.
type PollStateChangedFunc func(state pollstate.ServicePollState)

// PropertyChangeFunc receives generic property change notifications.
type PropertyChangeFunc func(name string, oldValue, newValue interface{})

// Hub groups the three listener collections a poller exposes.
type Hub struct {
	Configuration List[ConfigurationChangedFunc]
	PollState     List[PollStateChangedFunc]
	Property      List[PropertyChangeFunc]
}

func (h *Hub) FireConfigurationChanged(oldTimestamp, newTimestamp *time.Time) {
	h.Configuration.Each(func(fn ConfigurationChangedFunc) { fn(oldTimestamp, newTimestamp) })
}

func (h *Hub) FirePollStateChanged(state pollstate.ServicePollState) {
	h.PollState.Each(func(fn PollStateChangedFunc) { fn(state) })
}

func (h *Hub) FirePropertyChange(name string, oldValue, newValue interface{}) {
	h.Property.Each(func(fn PropertyChangeFunc) { fn(name, oldValue, newValue) })
}
