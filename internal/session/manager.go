package session

import (
	"sync"
	"time"
)

// Manager runs command handlers for the same WhatsApp user one at a time.
// Handlers for different users are not serialized against each other.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*userLock
	now   func() time.Time
}

type userLock struct {
	mu       sync.Mutex
	lastUsed time.Time
	holders  int
}

func NewManager() *Manager {
	return &Manager{
		locks: make(map[string]*userLock),
		now:   time.Now,
	}
}

// WithLock executes fn while holding the lock of userID.
func (m *Manager) WithLock(userID string, fn func() error) error {
	m.mu.Lock()
	ul, ok := m.locks[userID]
	if !ok {
		ul = &userLock{}
		m.locks[userID] = ul
	}
	ul.holders++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		ul.holders--
		ul.lastUsed = m.now()
		m.mu.Unlock()
	}()

	ul.mu.Lock()
	defer ul.mu.Unlock()
	return fn()
}

// Cleanup drops locks idle for longer than maxAge. Locks with waiting or
// running handlers are kept.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, ul := range m.locks {
		if ul.holders == 0 && now.Sub(ul.lastUsed) > maxAge {
			delete(m.locks, id)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked users.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
