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

package pollstate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/outpost/pkg/models"
)

func services(ids ...int) []models.PolledService {
	out := make([]models.PolledService, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.PolledService{ID: id, ServiceName: "HTTP", IPAddr: "10.0.0.5"})
	}

	return out
}

func TestReplaceAssignsContiguousIndices(t *testing.T) {
	s := NewStore()

	states := s.Replace(services(40, 7, 12))
	require.Len(t, states, 3)

	for i, st := range states {
		assert.Equal(t, i, st.Index)
	}

	assert.Equal(t, 40, states[0].Service.ID)

	states = s.Replace(services(12, 99))
	require.Len(t, states, 2)
	assert.Equal(t, 0, states[0].Index)
	assert.Equal(t, 1, states[1].Index)

	_, ok := s.Get(40)
	assert.False(t, ok)
}

func TestReplaceSkipsDuplicateIDs(t *testing.T) {
	s := NewStore()

	states := s.Replace(services(1, 2, 1, 3))
	require.Len(t, states, 3)
	assert.Equal(t, 3, states[2].Service.ID)
	assert.Equal(t, 2, states[2].Index)
}

func TestRecordResultAndCopies(t *testing.T) {
	s := NewStore()
	s.Replace(services(5))

	now := time.Now()

	updated, ok := s.RecordResult(5, models.Available(10*time.Millisecond), now)
	require.True(t, ok)
	require.NotNil(t, updated.LastPoll)
	assert.True(t, updated.LastPoll.IsAvailable())
	assert.Equal(t, now, *updated.LastPollTime)

	updated.LastPoll.Status = models.StatusUnavailable

	got, ok := s.Get(5)
	require.True(t, ok)
	assert.True(t, got.LastPoll.IsAvailable())

	_, ok = s.RecordResult(6, models.Available(0), now)
	assert.False(t, ok)
}

func TestSetInitialPollTime(t *testing.T) {
	s := NewStore()
	s.Replace(services(5))

	at := time.Now().Add(time.Minute)
	require.True(t, s.SetInitialPollTime(5, at))
	assert.False(t, s.SetInitialPollTime(99, at))

	got, _ := s.Get(5)
	require.NotNil(t, got.InitialPollTime)
	assert.Equal(t, at, *got.InitialPollTime)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	s.Replace(services(1, 2, 3))

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func(id int) {
			defer wg.Done()

			s.RecordResult(id%3+1, models.Unavailable("refused"), time.Now())
		}(i)

		go func() {
			defer wg.Done()

			assert.Len(t, s.Snapshot(), 3)
		}()
	}

	wg.Wait()
	assert.Equal(t, 3, s.Len())
}
