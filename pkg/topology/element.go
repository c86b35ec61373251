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
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/outpost/pkg/models"
)

// Node is a monitored host. Its interface map and everything below it may
// only be changed by the holder of lock.
type Node struct {
	id         int64
	lock       *NodeLock
	interfaces map[netip.Addr]*Interface
	status     statusCell
	deleted    atomic.Bool
}

func newNode(id int64) *Node {
	n := &Node{
		id:         id,
		lock:       NewNodeLock(),
		interfaces: make(map[netip.Addr]*Interface),
	}
	n.status.Store(models.StatusUnknown)

	return n
}

func (n *Node) ID() int64 { return n.id }

func (n *Node) Status() models.ServiceStatus { return n.status.Load() }

func (n *Node) Deleted() bool { return n.deleted.Load() }

// recalculate derives the node status from its live interfaces and returns
// the previous value.
func (n *Node) recalculate() (previous, current models.ServiceStatus) {
	statuses := make([]models.ServiceStatus, 0, len(n.interfaces))
	for _, iface := range n.interfaces {
		statuses = append(statuses, iface.status())
	}

	current = aggregate(statuses)
	previous = n.status.Load()
	n.status.Store(current)

	return previous, current
}

// attach adds iface to n, merging services into an interface already
// present under the same address.
func (n *Node) attach(iface *Interface) {
	existing, ok := n.interfaces[iface.addr]
	if !ok {
		iface.node.Store(n)
		n.interfaces[iface.addr] = iface

		return
	}

	for name, svc := range iface.services {
		svc.iface.Store(existing)
		existing.services[name] = svc
	}

	clear(iface.services)
}

// Interface is one address of a node.
type Interface struct {
	addr     netip.Addr
	node     atomic.Pointer[Node]
	services map[string]*Service
}

func newInterface(node *Node, addr netip.Addr) *Interface {
	iface := &Interface{
		addr:     addr,
		services: make(map[string]*Service),
	}
	iface.node.Store(node)

	return iface
}

func (i *Interface) Addr() netip.Addr { return i.addr }

func (i *Interface) status() models.ServiceStatus {
	statuses := make([]models.ServiceStatus, 0, len(i.services))
	for _, svc := range i.services {
		if !svc.Deleted() {
			statuses = append(statuses, svc.Status())
		}
	}

	return aggregate(statuses)
}

// Service is one service of an interface as configured by one package.
type Service struct {
	name       string
	pkg        *Package
	parameters map[string]string
	hierarchy  *Hierarchy
	iface      atomic.Pointer[Interface]
	deleted    atomic.Bool

	mu        sync.RWMutex
	status    models.ServiceStatus
	changedAt time.Time
	lastPoll  *models.PollStatus
}

func newService(h *Hierarchy, iface *Interface, name string, pkg *Package, now time.Time) *Service {
	svc := &Service{
		name:      name,
		pkg:       pkg,
		hierarchy: h,
		status:    models.StatusAvailable,
		changedAt: now,
	}

	if cfg, ok := pkg.Service(name); ok {
		svc.parameters = cfg.Parameters
	}

	svc.iface.Store(iface)

	return svc
}

func (s *Service) Name() string { return s.name }

func (s *Service) Package() string { return s.pkg.Name }

func (s *Service) Deleted() bool { return s.deleted.Load() }

func (s *Service) Status() models.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Interface returns the interface the service currently belongs to.
func (s *Service) Interface() *Interface { return s.iface.Load() }

// Node returns the node the service currently belongs to.
func (s *Service) Node() *Node { return s.iface.Load().node.Load() }

// setStatus records a poll verdict and reports whether the status changed.
func (s *Service) setStatus(result models.PollStatus, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPoll = &result

	if s.status == result.Status {
		return false
	}

	s.status = result.Status
	s.changedAt = at

	return true
}

// downFor returns how long the service has been down, or -1 when it is up.
func (s *Service) downFor(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status == models.StatusAvailable || s.status == models.StatusUnknown {
		return -1
	}

	return now.Sub(s.changedAt)
}

func (s *Service) markDeleted() {
	s.deleted.Store(true)
}

// polledService describes the service to a Prober.
func (s *Service) polledService() models.PolledService {
	iface := s.iface.Load()

	return models.PolledService{
		NodeID:      iface.node.Load().id,
		IPAddr:      iface.addr.String(),
		ServiceName: s.name,
		Parameters:  s.parameters,
	}
}

// aggregate folds child statuses: any available child makes the parent
// available; otherwise unresponsive wins over unavailable. Unknown children
// are ignored and a parent with no known child is unknown.
func aggregate(statuses []models.ServiceStatus) models.ServiceStatus {
	result := models.StatusUnknown

	for _, st := range statuses {
		switch st {
		case models.StatusAvailable:
			return models.StatusAvailable
		case models.StatusUnresponsive:
			result = models.StatusUnresponsive
		case models.StatusUnavailable:
			if result == models.StatusUnknown {
				result = models.StatusUnavailable
			}
		case models.StatusUnknown:
		}
	}

	return result
}

type statusCell struct {
	v atomic.Value
}

func (c *statusCell) Load() models.ServiceStatus {
	st, _ := c.v.Load().(models.ServiceStatus)

	return st
}

func (c *statusCell) Store(st models.ServiceStatus) {
	c.v.Store(st)
}
