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

import "github.com/carverauto/outpost/pkg/models"

// State is the lifecycle state of a remote poller.
type State int

const (
	StateInitial State = iota
	StateRegistering
	StateStarted
	StatePaused
	StateDisconnected

	numStates
)

var stateNames = [numStates]string{
	StateInitial:      "Initial",
	StateRegistering:  "Registering",
	StateStarted:      "Started",
	StatePaused:       "Paused",
	StateDisconnected: "Disconnected",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return "Unknown"
	}

	return stateNames[s]
}

// Op is a lifecycle operation.
type Op int

const (
	OpInitialize Op = iota
	OpCheckIn
	OpPollService
	OpStop
	OpRegister

	numOps
)

var opNames = [numOps]string{
	OpInitialize:  "Initialize",
	OpCheckIn:     "CheckIn",
	OpPollService: "PollService",
	OpStop:        "Stop",
	OpRegister:    "Register",
}

func (o Op) String() string {
	if o < 0 || o >= numOps {
		return "Unknown"
	}

	return opNames[o]
}

type rule int

const (
	ruleIllegal rule = iota
	ruleNoop
	ruleRun
)

// opRules says, per state, whether an operation fails, does nothing or runs.
var opRules = [numStates][numOps]rule{
	StateInitial: {
		OpInitialize: ruleRun, OpCheckIn: ruleNoop, OpPollService: ruleIllegal, OpStop: ruleNoop, OpRegister: ruleIllegal,
	},
	StateRegistering: {
		OpInitialize: ruleIllegal, OpCheckIn: ruleNoop, OpPollService: ruleIllegal, OpStop: ruleNoop, OpRegister: ruleRun,
	},
	StateStarted: {
		OpInitialize: ruleIllegal, OpCheckIn: ruleRun, OpPollService: ruleRun, OpStop: ruleRun, OpRegister: ruleIllegal,
	},
	StatePaused: {
		OpInitialize: ruleIllegal, OpCheckIn: ruleRun, OpPollService: ruleNoop, OpStop: ruleRun, OpRegister: ruleIllegal,
	},
	StateDisconnected: {
		OpInitialize: ruleIllegal, OpCheckIn: ruleRun, OpPollService: ruleIllegal, OpStop: ruleRun, OpRegister: ruleIllegal,
	},
}

// stopNotifiesBackend is false where the session is already gone.
var stopNotifiesBackend = [numStates]bool{
	StateStarted: true,
	StatePaused:  true,
}

type hook int

const (
	hookNone hook = iota
	hookPause
	hookDisconnect
)

// reaction is what a check-in directive does in a given state.
type reaction struct {
	reload bool
	hook   hook
	purge  bool
	next   State
}

// directives lists the check-in reactions per state. Directives missing from
// a state's row leave the poller untouched.
var directives = [numStates]map[models.MonitorStatus]reaction{
	StateStarted: {
		models.MonitorStarted:       {reload: true, next: StateStarted},
		models.MonitorConfigChanged: {reload: true, next: StateStarted},
		models.MonitorPaused:        {hook: hookPause, next: StatePaused},
		models.MonitorDisconnected:  {hook: hookDisconnect, next: StateDisconnected},
		models.MonitorDeleted:       {purge: true, next: StateInitial},
	},
	StatePaused: {
		models.MonitorDisconnected: {hook: hookDisconnect, next: StateDisconnected},
		models.MonitorStarted:      {reload: true, next: StateStarted},
	},
	StateDisconnected: {
		models.MonitorPaused:  {hook: hookPause, next: StatePaused},
		models.MonitorStarted: {reload: true, next: StateStarted},
	},
}

// IsRegistered reports whether the poller holds a monitor id in this state.
func (s State) IsRegistered() bool {
	return s != StateInitial && s != StateRegistering
}

// IsRunning reports whether the poller has an active session with the backend.
func (s State) IsRunning() bool {
	return s == StateStarted || s == StatePaused || s == StateDisconnected
}
