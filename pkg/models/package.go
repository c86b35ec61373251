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

package models

// IPRange is an inclusive address range. Begin and End are textual addresses.
type IPRange struct {
	Begin string `json:"begin" yaml:"begin"`
	End   string `json:"end" yaml:"end"`
}

// PackageFilter selects the interfaces a polling package applies to.
type PackageFilter struct {
	IncludeRanges []IPRange `json:"include_ranges,omitempty" yaml:"include_ranges,omitempty"`
	Specifics     []string  `json:"specifics,omitempty" yaml:"specifics,omitempty"`
	ExcludeRanges []IPRange `json:"exclude_ranges,omitempty" yaml:"exclude_ranges,omitempty"`
}

// PackageService enables one service inside a polling package.
type PackageService struct {
	Name       string            `json:"name" yaml:"name"`
	Enabled    bool              `json:"enabled" yaml:"enabled"`
	Interval   Duration          `json:"interval" yaml:"interval"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Downtime changes the polling interval once a service has been down for
// at least Begin. A zero End means the window never closes.
type Downtime struct {
	Begin    Duration `json:"begin" yaml:"begin"`
	End      Duration `json:"end,omitempty" yaml:"end,omitempty"`
	Interval Duration `json:"interval" yaml:"interval"`
}

// Package is a named polling package.
type Package struct {
	Name     string           `json:"name" yaml:"name"`
	Remote   bool             `json:"remote,omitempty" yaml:"remote,omitempty"`
	Filter   PackageFilter    `json:"filter" yaml:"filter"`
	Services []PackageService `json:"services" yaml:"services"`
	Downtime []Downtime       `json:"downtime,omitempty" yaml:"downtime,omitempty"`
}

// Service returns the named package service, if the package declares it.
func (p *Package) Service(name string) (*PackageService, bool) {
	for i := range p.Services {
		if p.Services[i].Name == name {
			return &p.Services[i], true
		}
	}

	return nil, false
}

// Node is a managed host known to the backend inventory, used to build
// remote poller configurations.
type Node struct {
	ID         int64              `json:"id" yaml:"id"`
	Label      string             `json:"label" yaml:"label"`
	Interfaces []NodeInterfaceRef `json:"interfaces" yaml:"interfaces"`
}

// NodeInterfaceRef is one address of a node and the services it exposes.
type NodeInterfaceRef struct {
	IPAddr   string   `json:"ip_addr" yaml:"ip_addr"`
	Services []string `json:"services" yaml:"services"`
}
