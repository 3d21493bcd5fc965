package canvas

import (
	"sync"

	domain "github.com/example/collaborative-canvas/domain/canvas"
)

// Room holds the mutable state of one drawing room. All access goes
// through the room mutex; callers that need several operations to appear
// atomic use Do.
type Room struct {
	ID string

	mu       sync.Mutex
	maxSteps int
	lastSeq  uint64
	strokes  []*domain.Stroke
	byID     map[string]*domain.Stroke
	redo     []*domain.Stroke
	members  map[string]domain.Presence // connection id -> presence
	joined   []string                   // connection ids in join order
}

func newRoom(id string, maxSteps int) *Room {
	return &Room{
		ID:       id,
		maxSteps: maxSteps,
		byID:     make(map[string]*domain.Stroke),
		members:  make(map[string]domain.Presence),
	}
}

// Do runs fn with the room locked.
func (r *Room) Do(fn func(st *RoomState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&RoomState{room: r})
}

// RoomState exposes the stroke lifecycle of a locked room. It must not be
// retained after the Do callback returns.
type RoomState struct {
	room *Room
}

// Begin creates an active stroke. A duplicate id is a no-op. Creating a
// stroke discards the redo history and may evict the oldest inactive
// stroke when the room is over capacity.
func (s *RoomState) Begin(strokeID string, meta domain.StrokeMeta) bool {
	r := s.room
	if strokeID == "" {
		return false
	}
	if _, exists := r.byID[strokeID]; exists {
		return false
	}

	st := &domain.Stroke{
		ID:       strokeID,
		Meta:     meta,
		Segments: make([]domain.Segment, 0),
		Active:   true,
	}
	r.strokes = append(r.strokes, st)
	r.byID[strokeID] = st
	r.redo = nil

	if len(r.strokes) > r.maxSteps {
		r.evictInactive()
	}
	return true
}

// evictInactive drops the oldest inactive stroke, if any. The redo stack
// is always empty here, so no reference to the evicted stroke survives.
func (r *Room) evictInactive() {
	for i, st := range r.strokes {
		if st.Active {
			continue
		}
		r.strokes = append(r.strokes[:i], r.strokes[i+1:]...)
		delete(r.byID, st.ID)
		return
	}
}

// Draw appends seg to its stroke and assigns the next seq. Segments for
// unknown or inactive strokes are dropped.
func (s *RoomState) Draw(seg domain.Segment) (domain.Segment, bool) {
	r := s.room
	st, ok := r.byID[seg.StrokeID]
	if !ok || !st.Active {
		return domain.Segment{}, false
	}

	r.lastSeq++
	seg.Seq = r.lastSeq
	st.Segments = append(st.Segments, seg)
	return seg, true
}

// Undo deactivates the most recent active stroke that has segments.
func (s *RoomState) Undo() bool {
	r := s.room
	for i := len(r.strokes) - 1; i >= 0; i-- {
		st := r.strokes[i]
		if !st.Active || len(st.Segments) == 0 {
			continue
		}
		st.Active = false
		r.redo = append(r.redo, st)
		return true
	}
	return false
}

// Redo reactivates the most recently undone stroke.
func (s *RoomState) Redo() bool {
	r := s.room
	if len(r.redo) == 0 {
		return false
	}
	st := r.redo[len(r.redo)-1]
	r.redo = r.redo[:len(r.redo)-1]
	st.Active = true
	return true
}

// Clear wipes strokes and redo history and restarts the seq counter.
func (s *RoomState) Clear() {
	r := s.room
	r.strokes = nil
	r.byID = make(map[string]*domain.Stroke)
	r.redo = nil
	r.lastSeq = 0
}

// Snapshot deep-copies the active strokes in creation order.
func (s *RoomState) Snapshot() domain.Snapshot {
	r := s.room
	strokes := make([]domain.Stroke, 0, len(r.strokes))
	for _, st := range r.strokes {
		if !st.Active {
			continue
		}
		cp := *st
		cp.Segments = make([]domain.Segment, len(st.Segments))
		copy(cp.Segments, st.Segments)
		strokes = append(strokes, cp)
	}
	return domain.Snapshot{Strokes: strokes, Seq: r.lastSeq}
}

// SetPresence records the presence of a connection and reports whether
// this is the first presence seen from it.
func (s *RoomState) SetPresence(connID string, p domain.Presence) bool {
	r := s.room
	_, known := r.members[connID]
	r.members[connID] = p
	if !known {
		r.joined = append(r.joined, connID)
	}
	return !known
}

// RemovePresence forgets a connection.
func (s *RoomState) RemovePresence(connID string) bool {
	r := s.room
	if _, ok := r.members[connID]; !ok {
		return false
	}
	delete(r.members, connID)
	for i, id := range r.joined {
		if id == connID {
			r.joined = append(r.joined[:i], r.joined[i+1:]...)
			break
		}
	}
	return true
}

// Users returns the roster in join order.
func (s *RoomState) Users() []domain.Presence {
	r := s.room
	users := make([]domain.Presence, 0, len(r.joined))
	for _, id := range r.joined {
		users = append(users, r.members[id])
	}
	return users
}

// Summary returns counters describing the room.
func (s *RoomState) Summary() domain.RoomSummary {
	r := s.room
	active := 0
	for _, st := range r.strokes {
		if st.Active {
			active++
		}
	}
	return domain.RoomSummary{
		ID:            r.ID,
		Users:         len(r.members),
		Strokes:       len(r.strokes),
		ActiveStrokes: active,
		RedoDepth:     len(r.redo),
		LastSeq:       r.lastSeq,
	}
}

// LastSeq returns the last assigned seq.
func (s *RoomState) LastSeq() uint64 {
	return s.room.lastSeq
}
