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
	"context"
	"time"
)

// NodeLock is an exclusive lock whose acquisition can give up. It is a
// one-slot semaphore so that a waiter can select on a timer and a context.
type NodeLock struct {
	slot chan struct{}
}

func NewNodeLock() *NodeLock {
	return &NodeLock{slot: make(chan struct{}, 1)}
}

// TryLock acquires the lock if it is free.
func (l *NodeLock) TryLock() bool {
	select {
	case l.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// LockWithin waits up to wait for the lock. A wait <= 0 waits until the lock
// is free or ctx is done. It returns false when the wait elapsed.
func (l *NodeLock) LockWithin(ctx context.Context, wait time.Duration) (bool, error) {
	if wait <= 0 {
		select {
		case l.slot <- struct{}{}:
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.slot <- struct{}{}:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return false, nil
	}
}

// Unlock releases the lock. Unlocking a free lock panics, as with sync.Mutex.
func (l *NodeLock) Unlock() {
	select {
	case <-l.slot:
	default:
		panic("topology: unlock of unlocked NodeLock")
	}
}
