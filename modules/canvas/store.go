package canvas

import (
	"sort"
	"sync"

	domain "github.com/example/collaborative-canvas/domain/canvas"
)

// DefaultMaxSteps is the per-room stroke cap used when none is configured.
const DefaultMaxSteps = 12000

// RoomStore is a thread-safe registry of rooms. The store lock only guards
// the map; each room serializes its own mutations.
type RoomStore struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	maxSteps int
}

// NewRoomStore creates a new room store.
func NewRoomStore(maxSteps int) *RoomStore {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &RoomStore{
		rooms:    make(map[string]*Room),
		maxSteps: maxSteps,
	}
}

// GetOrCreate returns the room with the given id, creating it on first use.
func (s *RoomStore) GetOrCreate(id string) *Room {
	s.mu.RLock()
	room, ok := s.rooms[id]
	s.mu.RUnlock()
	if ok {
		return room
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok {
		return room
	}
	room = newRoom(id, s.maxSteps)
	s.rooms[id] = room
	return room
}

// Get returns an existing room without creating it.
func (s *RoomStore) Get(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// List returns a summary of every room, sorted by id.
func (s *RoomStore) List() []domain.RoomSummary {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	result := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.Do(func(st *RoomState) {
			result = append(result, st.Summary())
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len returns the number of rooms.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// MaxSteps returns the per-room stroke cap.
func (s *RoomStore) MaxSteps() int {
	return s.maxSteps
}
