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
	"fmt"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/carverauto/outpost/pkg/models"
)

// DefaultInterval is used for a package service without an interval.
const DefaultInterval = 5 * time.Minute

type addrRange struct {
	begin netip.Addr
	end   netip.Addr
}

func (r addrRange) contains(addr netip.Addr) bool {
	return r.begin.Compare(addr) <= 0 && addr.Compare(r.end) <= 0
}

func parseRange(r models.IPRange) (addrRange, error) {
	begin, err := netip.ParseAddr(r.Begin)
	if err != nil {
		return addrRange{}, fmt.Errorf("%w: %w", errInvalidRange, err)
	}

	end, err := netip.ParseAddr(r.End)
	if err != nil {
		return addrRange{}, fmt.Errorf("%w: %w", errInvalidRange, err)
	}

	if begin.BitLen() != end.BitLen() || end.Less(begin) {
		return addrRange{}, fmt.Errorf("%w: %s-%s", errInvalidRange, r.Begin, r.End)
	}

	return addrRange{begin: begin.Unmap(), end: end.Unmap()}, nil
}

// Package is a polling package compiled for address matching.
type Package struct {
	Name   string
	Remote bool

	include   []addrRange
	specifics map[netip.Addr]struct{}
	exclude   []addrRange
	services  map[string]models.PackageService
	downtime  []models.Downtime
}

// NewPackage compiles a package definition.
func NewPackage(def models.Package) (*Package, error) {
	p := &Package{
		Name:      def.Name,
		Remote:    def.Remote,
		specifics: make(map[netip.Addr]struct{}, len(def.Filter.Specifics)),
		services:  make(map[string]models.PackageService, len(def.Services)),
		downtime:  def.Downtime,
	}

	for _, r := range def.Filter.IncludeRanges {
		ar, err := parseRange(r)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", def.Name, err)
		}

		p.include = append(p.include, ar)
	}

	for _, r := range def.Filter.ExcludeRanges {
		ar, err := parseRange(r)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", def.Name, err)
		}

		p.exclude = append(p.exclude, ar)
	}

	for _, s := range def.Filter.Specifics {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w: %q", def.Name, ErrInvalidAddress, s)
		}

		p.specifics[addr.Unmap()] = struct{}{}
	}

	for _, s := range def.Services {
		p.services[s.Name] = s
	}

	return p, nil
}

// Includes reports whether the package applies to addr. A specific address
// always matches; otherwise addr must be in an include range and outside
// every exclude range.
func (p *Package) Includes(addr netip.Addr) bool {
	addr = addr.Unmap()

	if _, ok := p.specifics[addr]; ok {
		return true
	}

	included := false

	for _, r := range p.include {
		if r.contains(addr) {
			included = true

			break
		}
	}

	if !included {
		return false
	}

	for _, r := range p.exclude {
		if r.contains(addr) {
			return false
		}
	}

	return true
}

// Service returns the configuration of an enabled service.
func (p *Package) Service(name string) (models.PackageService, bool) {
	s, ok := p.services[name]
	if !ok || !s.Enabled {
		return models.PackageService{}, false
	}

	return s, true
}

// Enables reports whether the package polls the named service.
func (p *Package) Enables(name string) bool {
	_, ok := p.Service(name)

	return ok
}

// RecalculateInterval returns the polling interval of a service that has
// been down for downFor; a negative downFor means the service is up. The
// first downtime window containing downFor wins. A service that is up, or
// down outside every window, uses its own interval.
func (p *Package) RecalculateInterval(name string, downFor time.Duration) time.Duration {
	if downFor >= 0 {
		for _, d := range p.downtime {
			begin, end := d.Begin.Std(), d.End.Std()
			if downFor < begin || (end > 0 && downFor >= end) {
				continue
			}

			if iv := d.Interval.Std(); iv > 0 {
				return iv
			}
		}
	}

	if s, ok := p.services[name]; ok && s.Interval.Std() > 0 {
		return s.Interval.Std()
	}

	return DefaultInterval
}

// Packages is the replaceable set of compiled packages the hierarchy
// consults on every service-gained event.
type Packages struct {
	current atomic.Pointer[[]*Package]
}

// NewPackages compiles defs. An invalid definition fails the whole set.
func NewPackages(defs []models.Package) (*Packages, error) {
	p := &Packages{}

	if err := p.Replace(defs); err != nil {
		return nil, err
	}

	return p, nil
}

// Replace swaps in a new package set.
func (p *Packages) Replace(defs []models.Package) error {
	compiled := make([]*Package, 0, len(defs))

	for _, def := range defs {
		pkg, err := NewPackage(def)
		if err != nil {
			return err
		}

		compiled = append(compiled, pkg)
	}

	p.current.Store(&compiled)

	return nil
}

// All returns the current packages in definition order.
func (p *Packages) All() []*Package {
	ptr := p.current.Load()
	if ptr == nil {
		return nil
	}

	return *ptr
}

// Get returns the named package.
func (p *Packages) Get(name string) (*Package, bool) {
	for _, pkg := range p.All() {
		if pkg.Name == name {
			return pkg, true
		}
	}

	return nil, false
}

// Matching returns the locally polled packages that enable service and
// include addr. Remote packages are served to remote pollers only.
func (p *Packages) Matching(addr netip.Addr, service string) []*Package {
	var out []*Package

	for _, pkg := range p.All() {
		if !pkg.Remote && pkg.Enables(service) && pkg.Includes(addr) {
			out = append(out, pkg)
		}
	}

	return out
}
