package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// SegmentDrawnEvent is emitted after a segment has been sequenced.
type SegmentDrawnEvent struct {
	RoomID  string         `json:"room_id"`
	Segment canvas.Segment `json:"segment"`
}

// CanvasStateEvent carries a full snapshot after undo or redo.
type CanvasStateEvent struct {
	RoomID   string          `json:"room_id"`
	Snapshot canvas.Snapshot `json:"snapshot"`
}

// CanvasClearedEvent is emitted when a room is wiped.
type CanvasClearedEvent struct {
	RoomID string `json:"room_id"`
}

// PresenceChangedEvent carries the current roster of a room.
type PresenceChangedEvent struct {
	RoomID string            `json:"room_id"`
	Users  []canvas.Presence `json:"users"`
}

// Event definitions for the canvas domain.
var (
	SegmentDrawnV1 = helper.EventDefinition[SegmentDrawnEvent](
		"canvas",
		"SegmentDrawn",
		"v1",
	)

	CanvasStateV1 = helper.EventDefinition[CanvasStateEvent](
		"canvas",
		"CanvasState",
		"v1",
	)

	CanvasClearedV1 = helper.EventDefinition[CanvasClearedEvent](
		"canvas",
		"CanvasCleared",
		"v1",
	)

	PresenceChangedV1 = helper.EventDefinition[PresenceChangedEvent](
		"canvas",
		"PresenceChanged",
		"v1",
	)
)
