package models

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage keeps users and events in process memory.
type MemStorage struct {
	mu             sync.RWMutex
	users          map[int64]User
	events         map[int64]Event
	currentUserID  int64
	currentEventID int64
	now            func() time.Time
}

func NewMemStorage() *MemStorage {
	return NewMemStorageWithClock(time.Now)
}

// NewMemStorageWithClock 讓測試可以固定 createdAt
func NewMemStorageWithClock(now func() time.Time) *MemStorage {
	return &MemStorage{
		users:          make(map[int64]User),
		events:         make(map[int64]Event),
		currentUserID:  1,
		currentEventID: 1,
		now:            now,
	}
}

var _ Storage = (*MemStorage)(nil)

func (m *MemStorage) GetUser(_ context.Context, id int64) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemStorage) GetUserByUsername(_ context.Context, username string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// map 無序 → 以 id 最小者為「第一個」
	var (
		found User
		ok    bool
	)
	for _, u := range m.users {
		if u.Username == username && (!ok || u.ID < found.ID) {
			found, ok = u, true
		}
	}
	return found, ok, nil
}

func (m *MemStorage) CreateUser(_ context.Context, in InsertUser) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.currentUserID
	m.currentUserID++
	u := User{ID: id, Username: in.Username, Password: in.Password}
	m.users[id] = u
	return u, nil
}

func (m *MemStorage) GetAllEvents(_ context.Context) ([]Event, error) {
	m.mu.RLock()
	out := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	m.mu.RUnlock()

	SortEvents(out)
	return out, nil
}

func (m *MemStorage) CreateEvent(_ context.Context, in InsertEvent) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.currentEventID
	m.currentEventID++
	e := toEvent(id, in, m.now())
	m.events[id] = e
	return e, nil
}

func (m *MemStorage) GetEvent(_ context.Context, id int64) (Event, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	return e, ok, nil
}

// SortEvents orders events by date, then time, then id.
// Date and time are fixed-width (YYYY-MM-DD, HH:MM) so string order is
// chronological order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return EventLess(events[i], events[j])
	})
}

func EventLess(a, b Event) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}
