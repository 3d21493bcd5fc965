package canvas

import (
	"context"

	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/example/collaborative-canvas/domain/canvas"
)

// Service sequences canvas operations per room and hands the resulting
// broadcasts to its Publisher.
type Service struct {
	store     *RoomStore
	publisher Publisher
	logger    types.Logger
}

// NewService creates a new canvas service.
func NewService(store *RoomStore, publisher Publisher, logger types.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Presence records the presence of a connection. The first presence from a
// connection returns the init payload for that connection; every presence
// republishes the roster.
func (s *Service) Presence(_ context.Context, roomID, connID string, p domain.Presence) *domain.InitPayload {
	var payload *domain.InitPayload
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		first := st.SetPresence(connID, p)
		users := st.Users()
		if first {
			snap := st.Snapshot()
			payload = &domain.InitPayload{
				Strokes: snap.Strokes,
				Users:   users,
				Seq:     snap.Seq,
			}
			s.logger.Info("Connection joined room", "roomID", roomID, "connID", connID, "userID", p.ID)
		}
		if err := s.publisher.PresenceChanged(roomID, users); err != nil {
			s.logger.Warn("Failed to publish PresenceChanged event", "roomID", roomID, "error", err)
		}
	})
	return payload
}

// Leave removes the presence of a disconnected connection.
func (s *Service) Leave(_ context.Context, roomID, connID string) bool {
	room, ok := s.store.Get(roomID)
	if !ok {
		return false
	}

	var removed bool
	room.Do(func(st *RoomState) {
		removed = st.RemovePresence(connID)
		if !removed {
			return
		}
		if err := s.publisher.PresenceChanged(roomID, st.Users()); err != nil {
			s.logger.Warn("Failed to publish PresenceChanged event", "roomID", roomID, "error", err)
		}
	})
	if removed {
		s.logger.Info("Connection left room", "roomID", roomID, "connID", connID)
	}
	return removed
}

// BeginStroke opens a stroke. Duplicate or id-less requests are ignored.
func (s *Service) BeginStroke(_ context.Context, roomID string, req domain.BeginStrokeRequest) bool {
	if !domain.ValidBegin(req) {
		s.logger.Debug("Dropped invalid beginStroke", "roomID", roomID)
		return false
	}

	var created bool
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		created = st.Begin(req.StrokeID, req.Meta())
	})
	return created
}

// Draw validates and sequences a segment, then publishes it. The returned
// flag is false when the segment was dropped.
func (s *Service) Draw(_ context.Context, roomID string, req domain.DrawRequest) (domain.Segment, bool) {
	if !domain.ValidDraw(req) {
		s.logger.Debug("Dropped malformed draw", "roomID", roomID, "strokeID", req.StrokeID)
		return domain.Segment{}, false
	}

	var (
		seg domain.Segment
		ok  bool
	)
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		seg, ok = st.Draw(req.Segment())
		if !ok {
			return
		}
		if err := s.publisher.SegmentDrawn(roomID, seg); err != nil {
			s.logger.Warn("Failed to publish SegmentDrawn event", "roomID", roomID, "seq", seg.Seq, "error", err)
		}
	})
	if !ok {
		s.logger.Debug("Dropped draw for unknown or inactive stroke", "roomID", roomID, "strokeID", req.StrokeID)
	}
	return seg, ok
}

// EndStroke accepts the end of a gesture. It has no effect on room state.
func (s *Service) EndStroke(_ context.Context, roomID string, req domain.EndStrokeRequest) {
	s.logger.Debug("Stroke ended", "roomID", roomID, "strokeID", req.StrokeID)
}

// Undo deactivates the most recent undoable stroke and publishes a snapshot.
func (s *Service) Undo(_ context.Context, roomID string) bool {
	return s.applyAndSnapshot(roomID, (*RoomState).Undo)
}

// Redo reactivates the most recently undone stroke and publishes a snapshot.
func (s *Service) Redo(_ context.Context, roomID string) bool {
	return s.applyAndSnapshot(roomID, (*RoomState).Redo)
}

func (s *Service) applyAndSnapshot(roomID string, op func(*RoomState) bool) bool {
	var changed bool
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		changed = op(st)
		if !changed {
			return
		}
		if err := s.publisher.StateChanged(roomID, st.Snapshot()); err != nil {
			s.logger.Warn("Failed to publish CanvasState event", "roomID", roomID, "error", err)
		}
	})
	return changed
}

// Clear wipes the room and publishes the clear signal.
func (s *Service) Clear(_ context.Context, roomID string) {
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		st.Clear()
		if err := s.publisher.Cleared(roomID); err != nil {
			s.logger.Warn("Failed to publish CanvasCleared event", "roomID", roomID, "error", err)
		}
	})
	s.logger.Info("Room cleared", "roomID", roomID)
}

// Snapshot returns the active strokes of a room.
func (s *Service) Snapshot(_ context.Context, roomID string) domain.Snapshot {
	var snap domain.Snapshot
	s.store.GetOrCreate(roomID).Do(func(st *RoomState) {
		snap = st.Snapshot()
	})
	return snap
}

// ListRooms returns a summary of every known room.
func (s *Service) ListRooms(_ context.Context) []domain.RoomSummary {
	return s.store.List()
}

// GetRoom returns the summary of an existing room.
func (s *Service) GetRoom(_ context.Context, roomID string) (domain.RoomSummary, bool) {
	room, ok := s.store.Get(roomID)
	if !ok {
		return domain.RoomSummary{}, false
	}
	var summary domain.RoomSummary
	room.Do(func(st *RoomState) {
		summary = st.Summary()
	})
	return summary, true
}
