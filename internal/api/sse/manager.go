package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"bankroom/internal/api/response"
	"bankroom/internal/model"
	"bankroom/internal/services/watch"
)

// SSE event names pushed to room streams
const (
	EventRoomUpdate = "room-update"
	EventRoomClosed = "room-closed"
)

// HubManager manages hubs for all rooms. Each hub is fed by one watch
// subscription, so a room's clients share a single change feed no
// matter how many are connected.
type HubManager struct {
	watcher *watch.Service
	hubs    map[model.RoomCode]*Hub
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(watcher *watch.Service, logger *slog.Logger) *HubManager {
	return &HubManager{
		watcher: watcher,
		hubs:    make(map[model.RoomCode]*Hub),
		logger:  logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a room, creating it and its watch
// subscription if needed. The subscription runs on a background context
// since the hub outlives the request that created it.
func (m *HubManager) GetOrCreateHub(roomCode model.RoomCode) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomCode]; ok {
		return hub, nil
	}

	hub := NewHub(roomCode, m.logger)
	cancel, err := m.watcher.Subscribe(context.Background(), roomCode, func(snapshot *model.RoomSnapshot) {
		if snapshot == nil {
			hub.BroadcastEvent(EventRoomClosed, `{"closed":true}`)
			return
		}
		data, err := json.Marshal(response.SnapshotFromModel(snapshot))
		if err != nil {
			m.logger.Error("failed to encode room snapshot", "room", roomCode, "error", err)
			return
		}
		hub.BroadcastEvent(EventRoomUpdate, string(data))
	})
	if err != nil {
		return nil, err
	}
	hub.cancel = cancel

	m.hubs[roomCode] = hub
	go hub.Run()
	return hub, nil
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(roomCode model.RoomCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[roomCode]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(roomCode model.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomCode]; ok {
		hub.Close()
		delete(m.hubs, roomCode)
		m.logger.Info("sse hub removed", slog.String("room", string(roomCode)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
}
