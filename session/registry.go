// Package session tracks which users hold a live connection on this process.
// It is process-local; presence across instances goes through the presence mirror.
package session

import (
	"sort"
	"sync"
	"time"

	"real-time-messenger/dto"
	"real-time-messenger/dto/res"
)

type Entry struct {
	UserID       string
	ConnectionID string
	Profile      res.UserProfile
	ConnectedAt  time.Time
}

// Registry keeps at most one connection per user; a newer connection replaces the entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry

	locksMu sync.Mutex
	locks   map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		locks:   make(map[string]*userLock),
	}
}

// LockUser serialises presence transitions of one user. The returned func
// releases the lock; locks of other users are independent.
func (r *Registry) LockUser(userID string) (unlock func()) {
	r.locksMu.Lock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &userLock{}
		r.locks[userID] = lock
	}
	lock.refs++
	r.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		r.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, userID)
		}
		r.locksMu.Unlock()
	}
}

// Register binds userID to connectionID and returns the connection it replaced, if any.
func (r *Registry) Register(userID, connectionID string, profile res.UserProfile) (replaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.entries[userID]; ok {
		replaced = previous.ConnectionID
	}
	r.entries[userID] = Entry{
		UserID:       userID,
		ConnectionID: connectionID,
		Profile:      profile,
		ConnectedAt:  time.Now(),
	}
	return replaced
}

// Unregister removes the entry only while it still belongs to connectionID, so a
// replaced connection closing late does not take the newer one offline.
func (r *Registry) Unregister(userID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok || entry.ConnectionID != connectionID {
		return false
	}
	delete(r.entries, userID)
	return true
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[userID]
	return ok
}

func (r *Registry) Lookup(userID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[userID]
	return entry, ok
}

// ListOnline returns the online users ordered by connection time.
func (r *Registry) ListOnline() []dto.ActiveUser {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConnectedAt.Equal(entries[j].ConnectedAt) {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].ConnectedAt.Before(entries[j].ConnectedAt)
	})

	online := make([]dto.ActiveUser, 0, len(entries))
	for _, entry := range entries {
		profile := entry.Profile
		profile.IsOnline = true
		online = append(online, dto.ActiveUser{UserID: entry.UserID, UserInfo: profile})
	}
	return online
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
