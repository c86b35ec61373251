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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/outpost/pkg/logger"
	"github.com/carverauto/outpost/pkg/models"
)

func nodeID(id int64) *int64 { return &id }

func TestRouterDispatchesEvents(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		event  models.TopologyEvent
		expect func(h *MockEventHandlerMockRecorder)
	}{
		{
			name:  "service gained",
			event: models.TopologyEvent{UEI: models.UEINodeGainedService, NodeID: nodeID(1), Interface: "10.0.0.1", Service: "ICMP"},
			expect: func(h *MockEventHandlerMockRecorder) {
				h.ServiceGained(gomock.Any(), int64(1), "10.0.0.1", "ICMP").Return(nil)
			},
		},
		{
			name: "interface reparented",
			event: models.TopologyEvent{
				UEI: models.UEIInterfaceReparented, NodeID: nodeID(2), Interface: "10.0.0.1",
				Parms: []models.Parm{{Name: models.ParmOldNodeID, Value: "1"}, {Name: models.ParmNewNodeID, Value: "2"}},
			},
			expect: func(h *MockEventHandlerMockRecorder) {
				h.InterfaceReparented(gomock.Any(), "10.0.0.1", int64(1), int64(2)).Return(nil)
			},
		},
		{
			name:  "node deleted",
			event: models.TopologyEvent{UEI: models.UEINodeDeleted, NodeID: nodeID(3)},
			expect: func(h *MockEventHandlerMockRecorder) {
				h.NodeDeleted(gomock.Any(), int64(3)).Return(nil)
			},
		},
		{
			name:  "duplicate node deleted",
			event: models.TopologyEvent{UEI: models.UEIDuplicateNodeDeleted, NodeID: nodeID(4)},
			expect: func(h *MockEventHandlerMockRecorder) {
				h.NodeDeleted(gomock.Any(), int64(4)).Return(nil)
			},
		},
		{
			name:  "interface deleted",
			event: models.TopologyEvent{UEI: models.UEIInterfaceDeleted, NodeID: nodeID(5), Interface: "10.0.0.5"},
			expect: func(h *MockEventHandlerMockRecorder) {
				h.InterfaceDeleted(gomock.Any(), int64(5), "10.0.0.5").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := NewMockEventHandler(ctrl)
			tt.expect(handler.EXPECT())

			r := NewRouter(handler, logger.NewTestLogger())
			require.NoError(t, r.OnEvent(ctx, tt.event))
		})
	}
}

func TestRouterDropsMalformedEvents(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		event models.TopologyEvent
		want  error
	}{
		{
			name:  "missing node id",
			event: models.TopologyEvent{UEI: models.UEINodeDeleted},
			want:  ErrMissingNodeID,
		},
		{
			name:  "gained without interface",
			event: models.TopologyEvent{UEI: models.UEINodeGainedService, NodeID: nodeID(1), Service: "ICMP"},
			want:  ErrMissingInterface,
		},
		{
			name:  "gained without service",
			event: models.TopologyEvent{UEI: models.UEINodeGainedService, NodeID: nodeID(1), Interface: "10.0.0.1"},
			want:  ErrMissingService,
		},
		{
			name:  "interface deleted without interface",
			event: models.TopologyEvent{UEI: models.UEIInterfaceDeleted, NodeID: nodeID(1)},
			want:  ErrMissingInterface,
		},
		{
			name: "reparent without old node",
			event: models.TopologyEvent{
				UEI: models.UEIInterfaceReparented, NodeID: nodeID(2), Interface: "10.0.0.1",
				Parms: []models.Parm{{Name: models.ParmNewNodeID, Value: "2"}},
			},
			want: ErrMissingParm,
		},
		{
			name: "reparent with non-numeric node",
			event: models.TopologyEvent{
				UEI: models.UEIInterfaceReparented, NodeID: nodeID(2), Interface: "10.0.0.1",
				Parms: []models.Parm{{Name: models.ParmOldNodeID, Value: "one"}, {Name: models.ParmNewNodeID, Value: "2"}},
			},
			want: ErrInvalidParm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			r := NewRouter(NewMockEventHandler(ctrl), logger.NewTestLogger())

			err := r.OnEvent(ctx, tt.event)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsPermanent(err))
		})
	}
}

func TestRouterIgnoresUnknownEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := NewRouter(NewMockEventHandler(ctrl), logger.NewTestLogger())

	require.NoError(t, r.OnEvent(context.Background(), models.TopologyEvent{UEI: "uei.outpost/nodes/nodeUp"}))
}

func TestRouterPropagatesHandlerErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := NewMockEventHandler(ctrl)
	handler.EXPECT().NodeDeleted(gomock.Any(), int64(1)).Return(ErrLockTimeout)

	r := NewRouter(handler, logger.NewTestLogger())

	err := r.OnEvent(context.Background(), models.TopologyEvent{UEI: models.UEINodeDeleted, NodeID: nodeID(1)})
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, IsPermanent(err))
}
