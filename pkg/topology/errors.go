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

import "errors"

var (
	ErrUnknownNode      = errors.New("unknown node")
	ErrMissingNodeID    = errors.New("event has no node id")
	ErrMissingInterface = errors.New("event has no interface")
	ErrMissingService   = errors.New("event has no service")
	ErrMissingParm      = errors.New("required event parameter missing")
	ErrInvalidParm      = errors.New("invalid event parameter")
	ErrInvalidAddress   = errors.New("invalid interface address")
	ErrLockTimeout      = errors.New("timed out waiting for node lock")
	ErrNodeDeleted      = errors.New("node was deleted")
	errInvalidRange     = errors.New("invalid address range")
)

// IsPermanent reports whether err describes an event that can never be
// applied, as opposed to one that may succeed when redelivered.
func IsPermanent(err error) bool {
	for _, target := range []error{
		ErrUnknownNode, ErrMissingNodeID, ErrMissingInterface, ErrMissingService,
		ErrMissingParm, ErrInvalidParm, ErrInvalidAddress, ErrNodeDeleted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
