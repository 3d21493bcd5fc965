package api

import "github.com/example/collaborative-canvas/domain/canvas"

// RoomResponse is the API response for a room.
type RoomResponse struct {
	canvas.RoomSummary
	Connections int `json:"connections"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// StateResponse is the API response for a room snapshot.
type StateResponse struct {
	RoomID  string          `json:"room_id"`
	Strokes []canvas.Stroke `json:"strokes"`
	Seq     uint64          `json:"seq"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
