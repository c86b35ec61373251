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

// Package topology keeps the node, interface and service tree that the
// backend polls, and applies topology-change events to it. Each node has its
// own lock; handlers never hold two node locks at once.
package topology

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
	"github.com/carverauto/outpost/pkg/notify"
	"github.com/carverauto/outpost/pkg/scheduler"
)

const (
	defaultLockWait    = 30 * time.Second
	defaultLockRetries = 3
)

// Config bounds node lock acquisition. Each attempt waits at most LockWait
// and LockRetries further attempts are made before giving up. A negative
// LockWait waits without bound; a negative LockRetries makes one attempt.
type Config struct {
	LockWait    models.Duration `json:"lock_wait" yaml:"lock_wait"`
	LockRetries int             `json:"lock_retries" yaml:"lock_retries"`
}

func (c Config) withDefaults() Config {
	if c.LockWait == 0 {
		c.LockWait = models.Duration(defaultLockWait)
	}

	if c.LockRetries < 0 {
		c.LockRetries = 0
	} else if c.LockRetries == 0 {
		c.LockRetries = defaultLockRetries
	}

	return c
}

// StatusChangedFunc receives node status changes. It is called without any
// node lock held.
type StatusChangedFunc func(nodeID int64, previous, current models.ServiceStatus)

type statusChange struct {
	nodeID            int64
	previous, current models.ServiceStatus
}

// Hierarchy is the backend's view of monitored nodes.
type Hierarchy struct {
	registry  *Registry
	services  ServiceList
	packages  *Packages
	activity  ActivityChecker
	prober    Prober
	scheduler scheduler.Scheduler
	config    Config
	now       func() time.Time
	logger    logger.Logger
	listeners notify.List[StatusChangedFunc]
}

// Option customizes a Hierarchy.
type Option func(*Hierarchy)

// WithNow replaces the clock used for status change times.
func WithNow(now func() time.Time) Option {
	return func(h *Hierarchy) { h.now = now }
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy(
	packages *Packages,
	activity ActivityChecker,
	prober Prober,
	sched scheduler.Scheduler,
	cfg Config,
	log logger.Logger,
	opts ...Option,
) *Hierarchy {
	h := &Hierarchy{
		registry:  NewRegistry(),
		packages:  packages,
		activity:  activity,
		prober:    prober,
		scheduler: sched,
		config:    cfg.withDefaults(),
		now:       time.Now,
		logger:    log,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

var _ EventHandler = (*Hierarchy)(nil)

func (h *Hierarchy) AddStatusChangedListener(fn StatusChangedFunc) notify.Subscription {
	return h.listeners.Add(fn)
}

func (h *Hierarchy) RemoveStatusChangedListener(sub notify.Subscription) bool {
	return h.listeners.Remove(sub)
}

func (h *Hierarchy) fire(changes ...statusChange) {
	for _, c := range changes {
		if c.previous == c.current {
			continue
		}

		h.listeners.Each(func(fn StatusChangedFunc) { fn(c.nodeID, c.previous, c.current) })
	}
}

// lockNode acquires n's lock within the configured bounds.
func (h *Hierarchy) lockNode(ctx context.Context, n *Node) error {
	start := time.Now()
	wait := h.config.LockWait.Std()

	for attempt := 0; attempt <= h.config.LockRetries; attempt++ {
		ok, err := n.lock.LockWithin(ctx, wait)
		if err != nil {
			return fmt.Errorf("waiting for lock on node %d: %w", n.id, err)
		}

		if ok {
			recordLockWait(ctx, time.Since(start), true)

			return nil
		}

		h.logger.Warn().
			Int64("node_id", n.id).
			Int("attempt", attempt+1).
			Dur("waited", time.Since(start)).
			Msg("Still waiting for node lock")
	}

	recordLockWait(ctx, time.Since(start), false)

	return fmt.Errorf("node %d: %w", n.id, ErrLockTimeout)
}

// ServiceGained adds service on iface of node for every package that
// enables it and includes the address, and schedules each new service.
func (h *Hierarchy) ServiceGained(ctx context.Context, nodeID int64, iface, service string) error {
	addr, err := netip.ParseAddr(iface)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, iface)
	}

	addr = addr.Unmap()

	active, err := h.activity.IsActive(ctx, nodeID, addr.String(), service)
	if err != nil {
		h.logger.Warn().Err(err).
			Int64("node_id", nodeID).
			Str("interface", iface).
			Str("service", service).
			Msg("Activity check failed, treating service as active")
	} else if !active {
		h.logger.Debug().
			Int64("node_id", nodeID).
			Str("interface", iface).
			Str("service", service).
			Msg("Service is not active, ignoring")

		return nil
	}

	pkgs := h.packages.Matching(addr, service)
	if len(pkgs) == 0 {
		h.logger.Debug().
			Int64("node_id", nodeID).
			Str("interface", iface).
			Str("service", service).
			Msg("No package polls service")

		return nil
	}

	var (
		errs    []error
		applied int
	)

	for _, pkg := range pkgs {
		if err := h.gain(ctx, nodeID, addr, service, pkg); err != nil {
			h.logger.Error().Err(err).
				Int64("node_id", nodeID).
				Str("interface", iface).
				Str("service", service).
				Str("package", pkg.Name).
				Msg("Failed to add service")

			errs = append(errs, fmt.Errorf("package %s: %w", pkg.Name, err))

			continue
		}

		applied++
	}

	// Once any package took the service the event has been applied; handing
	// back an error would get it redelivered and added twice.
	if applied > 0 {
		return nil
	}

	return errors.Join(errs...)
}

func (h *Hierarchy) gain(ctx context.Context, nodeID int64, addr netip.Addr, name string, pkg *Package) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		svc, change, retry, err := h.tryGain(ctx, nodeID, addr, name, pkg)
		if err != nil {
			return err
		}

		if retry {
			continue
		}

		h.fire(change)
		h.scheduler.Schedule(svc, h.interval(svc))

		return nil
	}
}

// tryGain makes one attempt at adding a service. retry is set when the
// node it found was deleted, or when another handler published the same new
// node first.
func (h *Hierarchy) tryGain(
	ctx context.Context, nodeID int64, addr netip.Addr, name string, pkg *Package,
) (svc *Service, change statusChange, retry bool, err error) {
	node, existed := h.registry.Get(nodeID)
	if existed {
		if err := h.lockNode(ctx, node); err != nil {
			return nil, statusChange{}, false, err
		}
		defer node.lock.Unlock()

		if node.Deleted() {
			return nil, statusChange{}, true, nil
		}
	} else {
		// The node is not published yet so its lock is free. Holding it
		// until the service is listed keeps a concurrent delete from
		// running in between.
		node = newNode(nodeID)
		node.lock.TryLock()
		defer node.lock.Unlock()
	}

	iface, ok := node.interfaces[addr]
	if !ok {
		iface = newInterface(node, addr)
	}

	svc = newService(h, iface, name, pkg, h.now())

	if err := h.prober.Initialize(svc.polledService()); err != nil {
		return nil, statusChange{}, false, fmt.Errorf("initializing %s: %w", name, err)
	}

	if !ok {
		node.interfaces[addr] = iface
	}

	iface.services[name] = svc

	previous, current := node.recalculate()

	if !existed {
		if _, added := h.registry.AddIfAbsent(node); !added {
			return nil, statusChange{}, true, nil
		}
	}

	h.services.Append(svc)

	h.logger.Info().
		Int64("node_id", nodeID).
		Str("interface", addr.String()).
		Str("service", name).
		Str("package", pkg.Name).
		Msg("Service added")

	return svc, statusChange{nodeID: nodeID, previous: previous, current: current}, false, nil
}

// InterfaceReparented moves iface from oldNodeID to newNodeID.
func (h *Hierarchy) InterfaceReparented(ctx context.Context, iface string, oldNodeID, newNodeID int64) error {
	addr, err := netip.ParseAddr(iface)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, iface)
	}

	addr = addr.Unmap()

	source, ok := h.registry.Get(oldNodeID)
	if !ok {
		return fmt.Errorf("old node %d: %w", oldNodeID, ErrUnknownNode)
	}

	target, ok := h.registry.Get(newNodeID)
	if !ok {
		return fmt.Errorf("new node %d: %w", newNodeID, ErrUnknownNode)
	}

	moved, change, err := h.detach(ctx, source, addr)
	if err != nil {
		return err
	}

	h.fire(change)

	if moved == nil {
		h.logger.Debug().
			Int64("node_id", oldNodeID).
			Str("interface", iface).
			Msg("Reparented interface not present on old node")

		return nil
	}

	change, err = h.reattach(ctx, target, moved)
	if err != nil {
		return err
	}

	h.fire(change)

	h.logger.Info().
		Str("interface", iface).
		Int64("old_node_id", oldNodeID).
		Int64("new_node_id", newNodeID).
		Msg("Interface reparented")

	return nil
}

func (h *Hierarchy) detach(ctx context.Context, node *Node, addr netip.Addr) (*Interface, statusChange, error) {
	if err := h.lockNode(ctx, node); err != nil {
		return nil, statusChange{}, err
	}
	defer node.lock.Unlock()

	iface, ok := node.interfaces[addr]
	if !ok || node.Deleted() {
		return nil, statusChange{}, nil
	}

	delete(node.interfaces, addr)

	previous, current := node.recalculate()

	return iface, statusChange{nodeID: node.id, previous: previous, current: current}, nil
}

// reattach adds a detached interface to node. If node was deleted in the
// meantime the interface's services are retired with it.
func (h *Hierarchy) reattach(ctx context.Context, node *Node, iface *Interface) (statusChange, error) {
	if err := h.lockNode(ctx, node); err != nil {
		h.retire(iface)

		return statusChange{}, err
	}
	defer node.lock.Unlock()

	if node.Deleted() {
		h.retire(iface)

		return statusChange{}, fmt.Errorf("node %d: %w", node.id, ErrNodeDeleted)
	}

	node.attach(iface)

	previous, current := node.recalculate()

	return statusChange{nodeID: node.id, previous: previous, current: current}, nil
}

// retire marks every service of iface deleted and drops them from the
// pollable list.
func (h *Hierarchy) retire(iface *Interface) {
	for _, svc := range iface.services {
		svc.markDeleted()
	}

	removed := h.services.RemoveWhere(func(s *Service) bool { return s.Interface() == iface })
	for _, svc := range removed {
		svc.markDeleted()
	}

	clear(iface.services)
}

// NodeDeleted removes a node and everything below it.
func (h *Hierarchy) NodeDeleted(ctx context.Context, nodeID int64) error {
	node, ok := h.registry.Get(nodeID)
	if !ok {
		return fmt.Errorf("node %d: %w", nodeID, ErrUnknownNode)
	}

	if err := h.lockNode(ctx, node); err != nil {
		return err
	}
	defer node.lock.Unlock()

	if node.Deleted() {
		return nil
	}

	h.registry.Remove(node)

	owned := make(map[*Interface]struct{}, len(node.interfaces))

	for _, iface := range node.interfaces {
		owned[iface] = struct{}{}

		for _, svc := range iface.services {
			svc.markDeleted()
		}

		clear(iface.services)
	}

	removed := h.services.RemoveWhere(func(s *Service) bool {
		_, ok := owned[s.Interface()]

		return ok
	})
	for _, svc := range removed {
		svc.markDeleted()
	}

	clear(node.interfaces)
	node.deleted.Store(true)

	h.logger.Info().
		Int64("node_id", nodeID).
		Int("services", len(removed)).
		Msg("Node deleted")

	return nil
}

// InterfaceDeleted removes one interface of a node and its services.
func (h *Hierarchy) InterfaceDeleted(ctx context.Context, nodeID int64, iface string) error {
	addr, err := netip.ParseAddr(iface)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, iface)
	}

	addr = addr.Unmap()

	node, ok := h.registry.Get(nodeID)
	if !ok {
		return fmt.Errorf("node %d: %w", nodeID, ErrUnknownNode)
	}

	change, err := h.deleteInterface(ctx, node, addr)
	if err != nil {
		return err
	}

	h.fire(change)

	return nil
}

func (h *Hierarchy) deleteInterface(ctx context.Context, node *Node, addr netip.Addr) (statusChange, error) {
	if err := h.lockNode(ctx, node); err != nil {
		return statusChange{}, err
	}
	defer node.lock.Unlock()

	iface, ok := node.interfaces[addr]
	if !ok || node.Deleted() {
		return statusChange{}, nil
	}

	h.retire(iface)
	delete(node.interfaces, addr)

	previous, current := node.recalculate()

	h.logger.Info().
		Int64("node_id", node.id).
		Str("interface", addr.String()).
		Msg("Interface deleted")

	return statusChange{nodeID: node.id, previous: previous, current: current}, nil
}

func (h *Hierarchy) interval(svc *Service) time.Duration {
	return svc.pkg.RecalculateInterval(svc.name, svc.downFor(h.now()))
}

// NodeSnapshot is a consistent copy of one node taken under its lock.
type NodeSnapshot struct {
	ID         int64
	Status     models.ServiceStatus
	Interfaces []InterfaceSnapshot
}

type InterfaceSnapshot struct {
	Addr     netip.Addr
	Status   models.ServiceStatus
	Services []ServiceSnapshot
}

type ServiceSnapshot struct {
	Name    string
	Package string
	Status  models.ServiceStatus
}

// Snapshot copies a node under its lock.
func (h *Hierarchy) Snapshot(ctx context.Context, nodeID int64) (NodeSnapshot, error) {
	node, ok := h.registry.Get(nodeID)
	if !ok {
		return NodeSnapshot{}, fmt.Errorf("node %d: %w", nodeID, ErrUnknownNode)
	}

	if err := h.lockNode(ctx, node); err != nil {
		return NodeSnapshot{}, err
	}
	defer node.lock.Unlock()

	snap := NodeSnapshot{ID: node.id, Status: node.Status()}

	for _, iface := range node.interfaces {
		is := InterfaceSnapshot{Addr: iface.addr, Status: iface.status()}

		for _, svc := range iface.services {
			is.Services = append(is.Services, ServiceSnapshot{
				Name:    svc.name,
				Package: svc.pkg.Name,
				Status:  svc.Status(),
			})
		}

		sortServices(is.Services)
		snap.Interfaces = append(snap.Interfaces, is)
	}

	sortInterfaces(snap.Interfaces)

	return snap, nil
}

// NodeIDs lists the registered nodes.
func (h *Hierarchy) NodeIDs() []int64 {
	return h.registry.IDs()
}

// PollableServices lists every service currently scheduled for polling.
func (h *Hierarchy) PollableServices() []ServiceRef {
	return h.services.Snapshot()
}

func sortServices(services []ServiceSnapshot) {
	sort.Slice(services, func(i, j int) bool {
		if services[i].Name != services[j].Name {
			return services[i].Name < services[j].Name
		}

		return services[i].Package < services[j].Package
	})
}

func sortInterfaces(ifaces []InterfaceSnapshot) {
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Addr.Less(ifaces[j].Addr) })
}
