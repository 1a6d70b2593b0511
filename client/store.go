package client

import (
	"sync"
	"time"

	"notihub/pkg/models"
)

// Snapshot is an immutable copy of the store handed to views and change
// listeners. Mutating it never affects the store.
type Snapshot struct {
	Notifications []models.Notification
	UnreadCount   int
}

// Store is the in-memory source of truth for the notification list and
// unread counter within a session. It is mutated by push events from the
// channel and by confirmed responses from the facade, never by views.
// The list is kept newest first; a pushed notification is prepended.
type Store struct {
	mu       sync.Mutex
	items    []models.Notification
	unread   int
	onChange func(Snapshot)
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers a listener invoked after every mutation with a fresh
// snapshot. Intended for UI bindings; only one listener is kept.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]models.Notification, len(s.items))
	copy(items, s.items)
	return Snapshot{Notifications: items, UnreadCount: s.unread}
}

func (s *Store) notify(snap Snapshot, fn func(Snapshot)) {
	if fn != nil {
		fn(snap)
	}
}

// ReplaceAll swaps the list wholesale with a fetched page. No merging.
func (s *Store) ReplaceAll(items []models.Notification) {
	s.mu.Lock()
	s.items = make([]models.Notification, len(items))
	copy(s.items, items)
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// ApplyNew prepends a pushed notification. The counter is not touched;
// the authoritative count arrives as its own push or fetch.
func (s *Store) ApplyNew(n models.Notification) {
	s.mu.Lock()
	s.items = append([]models.Notification{n}, s.items...)
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// SetUnreadCount replaces the counter verbatim with the server's value.
func (s *Store) SetUnreadCount(count int) {
	s.mu.Lock()
	s.unread = count
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// ApplyRead marks the listed ids read. Already-read records keep their
// original read timestamp.
func (s *Store) ApplyRead(ids []string, at time.Time) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	s.mu.Lock()
	for i := range s.items {
		n := &s.items[i]
		if wanted[n.ID] && n.Status == models.StatusUnread {
			n.Status = models.StatusRead
			at := at
			n.ReadAt = &at
		}
	}
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// ApplyAllRead marks every held record read and zeroes the counter.
func (s *Store) ApplyAllRead(at time.Time) {
	s.mu.Lock()
	for i := range s.items {
		n := &s.items[i]
		if n.Status == models.StatusUnread {
			n.Status = models.StatusRead
			at := at
			n.ReadAt = &at
		}
	}
	s.unread = 0
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// ApplyDelete removes a record by id. Unknown ids are a no-op.
func (s *Store) ApplyDelete(id string) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}

// ApplyStatusPatch patches the status field of the matching record only.
func (s *Store) ApplyStatusPatch(id string, status models.NotificationStatus) {
	s.mu.Lock()
	for i := range s.items {
		n := &s.items[i]
		if n.ID == id {
			n.Status = status
			if status != models.StatusUnread && n.ReadAt == nil {
				now := time.Now().UTC()
				n.ReadAt = &now
			}
			break
		}
	}
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()
	s.notify(snap, fn)
}
