package notify

import (
	"context"
	"sync"
)

// Memory records notifications for inspection in tests.
type Memory struct {
	mu    sync.RWMutex
	items []Notification
}

// NewMemory returns an empty recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Notify records the notification.
func (m *Memory) Notify(_ context.Context, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
}

// All returns a copy of the recorded notifications.
func (m *Memory) All() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Notification, len(m.items))
	copy(out, m.items)
	return out
}

// ByLevel filters recorded notifications by level.
func (m *Memory) ByLevel(level Level) []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Notification
	for _, n := range m.items {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}
