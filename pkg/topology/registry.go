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

package topology

import (
	"net/netip"
	"sort"
	"sync"
)

// Registry maps node ids to live nodes. Its lock is independent of node
// locks and is only held for the map operation itself.
type Registry struct {
	mu    sync.RWMutex
	nodes map[int64]*Node
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[int64]*Node)}
}

func (r *Registry) Get(id int64) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]

	return n, ok
}

// AddIfAbsent publishes n unless a node with the same id is already
// registered, in which case the registered node is returned.
func (r *Registry) AddIfAbsent(n *Node) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nodes[n.id]; ok {
		return existing, false
	}

	r.nodes[n.id] = n

	return n, true
}

// Remove unregisters n. A different node registered under the same id is
// left in place.
func (r *Registry) Remove(n *Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nodes[n.id] != n {
		return false
	}

	delete(r.nodes, n.id)

	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.nodes)
}

// IDs returns the registered node ids in ascending order.
func (r *Registry) IDs() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.nodes))

	for id := range r.nodes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Clear drops every node. Used on shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.nodes)
}

// ServiceList is the ordered list of every pollable service. It may hold
// services that were replaced in their interface's map until they are
// removed explicitly.
type ServiceList struct {
	mu       sync.Mutex
	services []*Service
}

func (l *ServiceList) Append(svc *Service) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.services = append(l.services, svc)
}

// RemoveWhere drops every service matching fn, keeping the order of the rest,
// and returns the removed services.
func (l *ServiceList) RemoveWhere(fn func(*Service) bool) []*Service {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed []*Service

	kept := l.services[:0]

	for _, svc := range l.services {
		if fn(svc) {
			removed = append(removed, svc)

			continue
		}

		kept = append(kept, svc)
	}

	clear(l.services[len(kept):])
	l.services = kept

	return removed
}

func (l *ServiceList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.services)
}

// ServiceRef identifies an entry of the pollable service list.
type ServiceRef struct {
	NodeID  int64
	Addr    netip.Addr
	Service string
	Package string
	Deleted bool
}

func (l *ServiceList) Snapshot() []ServiceRef {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ServiceRef, 0, len(l.services))

	for _, svc := range l.services {
		iface := svc.Interface()
		out = append(out, ServiceRef{
			NodeID:  iface.node.Load().id,
			Addr:    iface.addr,
			Service: svc.name,
			Package: svc.pkg.Name,
			Deleted: svc.Deleted(),
		})
	}

	return out
}
