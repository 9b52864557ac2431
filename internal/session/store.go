// Package session provides the in-memory session registry and room
// presence views for the broadcast hub.
package session

import (
	"sync"
)

// Session binds a live connection to a display name and a room.
// A connection with no Session in the Store is unjoined and never
// receives or triggers room-scoped broadcasts.
type Session struct {
	// ID is the opaque per-connection identifier, never reused.
	ID string
	// DisplayName is the name shown to other room members. Not validated;
	// empty and duplicate names are distinct valid values.
	DisplayName string
	// Room is the room the session currently belongs to.
	Room string
	// Outbox carries serialized events to the connection's transport writer.
	Outbox *Outbox
}

// Store is the authoritative mapping from connection id to session.
// Rooms are derived: a room exists exactly as long as at least one
// session references it. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session // id → session
	order    map[string][]string // room → ids in insertion order
}

// NewStore creates an empty session Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		order:    make(map[string][]string),
	}
}

// Register inserts or overwrites the session record for id.
//
// Precondition: out must be non-nil.
// Postcondition: id maps to exactly one room. If a prior record existed,
// its room membership is replaced and the session re-enters insertion
// order at the end of the new room.
func (s *Store) Register(id, displayName, room string, out *Outbox) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[id]; ok {
		s.dropFromOrder(prev.Room, id)
	}

	sess := &Session{
		ID:          id,
		DisplayName: displayName,
		Room:        room,
		Outbox:      out,
	}
	s.sessions[id] = sess
	s.order[room] = append(s.order[room], id)
	return sess
}

// Lookup returns the current session record for id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove deletes and returns the prior record for id. Removing an id with
// no record is a safe no-op, so repeated disconnects are idempotent.
//
// Postcondition: Returns (session, true) if a record was removed, or
// (nil, false) if none existed.
func (s *Store) Remove(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	s.dropFromOrder(sess.Room, id)
	delete(s.sessions, id)
	return sess, true
}

// MembersOf returns the display names of every session in the room, in
// session insertion order. Display names are not membership keys, so no
// deduplication occurs.
//
// Postcondition: Returns a slice of display names (may be empty).
func (s *Store) MembersOf(room string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.order[room]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			names = append(names, sess.DisplayName)
		}
	}
	return names
}

// SessionsInRoom returns every session in the room in insertion order.
// The returned slice is a snapshot; the sessions it points to are live.
//
// Postcondition: Returns a slice of sessions (may be empty).
func (s *Store) SessionsInRoom(room string) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.order[room]
	if !ok {
		return nil
	}

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, sess)
		}
	}
	return out
}

// Count returns the total number of registered sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// dropFromOrder removes id from the room's insertion-order slice and
// deletes the room entry when it empties. Caller must hold s.mu.
func (s *Store) dropFromOrder(room, id string) {
	ids := s.order[room]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.order, room)
		return
	}
	s.order[room] = ids
}
