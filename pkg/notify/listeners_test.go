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

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/outpost/pkg/pollstate"
)

func TestListInvokesMostRecentFirst(t *testing.T) {
	var l List[func() string]

	l.Add(func() string { return "a" })
	sub := l.Add(func() string { return "b" })
	l.Add(func() string { return "c" })

	var order []string

	l.Each(func(fn func() string) { order = append(order, fn()) })
	assert.Equal(t, []string{"c", "b", "a"}, order)

	assert.True(t, l.Remove(sub))
	assert.False(t, l.Remove(sub))

	order = nil

	l.Each(func(fn func() string) { order = append(order, fn()) })
	assert.Equal(t, []string{"c", "a"}, order)
	assert.Equal(t, 2, l.Len())
}

func TestListEachUsesSnapshot(t *testing.T) {
	var l List[func()]

	calls := 0

	l.Add(func() {
		calls++

		l.Add(func() { calls += 100 })
	})

	l.Each(func(fn func()) { fn() })
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, l.Len())
}

func TestHubFires(t *testing.T) {
	var h Hub

	var (
		gotOld, gotNew *time.Time
		gotIndex       = -1
		gotName        string
	)

	h.Configuration.Add(func(o, n *time.Time) { gotOld, gotNew = o, n })
	h.PollState.Add(func(st pollstate.ServicePollState) { gotIndex = st.Index })
	h.Property.Add(func(name string, _, _ interface{}) { gotName = name })

	now := time.Now()

	h.FireConfigurationChanged(nil, &now)
	h.FirePollStateChanged(pollstate.ServicePollState{Index: 3})
	h.FirePropertyChange("registered", false, true)

	assert.Nil(t, gotOld)
	assert.Equal(t, &now, gotNew)
	assert.Equal(t, 3, gotIndex)
	assert.Equal(t, "registered", gotName)
}
