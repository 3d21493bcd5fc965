package canvas

import domain "github.com/example/collaborative-canvas/domain/canvas"

// Service names registered in the canvas service container.
const (
	ServicePresence    = "presence"
	ServiceLeave       = "leave"
	ServiceBeginStroke = "begin-stroke"
	ServiceDraw        = "draw"
	ServiceEndStroke   = "end-stroke"
	ServiceUndo        = "undo"
	ServiceRedo        = "redo"
	ServiceClear       = "clear"
	ServiceSnapshot    = "snapshot"
	ServiceListRooms   = "list-rooms"
	ServiceGetRoom     = "get-room"
)

// RoomRequest addresses a room-wide operation.
type RoomRequest struct {
	RoomID string `json:"room_id"`
}

// PresenceRequest is the request for recording a connection's presence.
type PresenceRequest struct {
	RoomID   string          `json:"room_id"`
	ConnID   string          `json:"conn_id"`
	Presence domain.Presence `json:"presence"`
}

// PresenceResponse carries the init payload on first presence only.
type PresenceResponse struct {
	Init *domain.InitPayload `json:"init,omitempty"`
}

// LeaveRequest is the request for removing a connection from a room.
type LeaveRequest struct {
	RoomID string `json:"room_id"`
	ConnID string `json:"conn_id"`
}

// BeginStrokeRequest opens a stroke in a room.
type BeginStrokeRequest struct {
	RoomID string                    `json:"room_id"`
	Stroke domain.BeginStrokeRequest `json:"stroke"`
}

// DrawRequest proposes a segment for a room.
type DrawRequest struct {
	RoomID string             `json:"room_id"`
	Draw   domain.DrawRequest `json:"draw"`
}

// DrawResponse reports whether the segment was sequenced.
type DrawResponse struct {
	Accepted bool           `json:"accepted"`
	Segment  domain.Segment `json:"segment"`
}

// EndStrokeRequest marks the end of a gesture in a room.
type EndStrokeRequest struct {
	RoomID string                  `json:"room_id"`
	Stroke domain.EndStrokeRequest `json:"stroke"`
}

// ChangeResponse reports whether an operation changed room state.
type ChangeResponse struct {
	Changed bool `json:"changed"`
}

// SnapshotResponse carries the active strokes of a room.
type SnapshotResponse struct {
	Snapshot domain.Snapshot `json:"snapshot"`
}

// ListRoomsResponse lists every known room.
type ListRoomsResponse struct {
	Rooms []domain.RoomSummary `json:"rooms"`
}

// GetRoomResponse carries one room summary.
type GetRoomResponse struct {
	Found bool               `json:"found"`
	Room  domain.RoomSummary `json:"room"`
}
