package canvas

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/collaborative-canvas/domain/canvas"
)

// CanvasPort defines the canvas operations available to other modules.
type CanvasPort interface {
	Presence(ctx context.Context, roomID, connID string, p domain.Presence) (*domain.InitPayload, error)
	Leave(ctx context.Context, roomID, connID string) error
	BeginStroke(ctx context.Context, roomID string, req domain.BeginStrokeRequest) error
	Draw(ctx context.Context, roomID string, req domain.DrawRequest) (domain.Segment, bool, error)
	EndStroke(ctx context.Context, roomID string, req domain.EndStrokeRequest) error
	Undo(ctx context.Context, roomID string) error
	Redo(ctx context.Context, roomID string) error
	Clear(ctx context.Context, roomID string) error
	Snapshot(ctx context.Context, roomID string) (domain.Snapshot, error)
	ListRooms(ctx context.Context) ([]domain.RoomSummary, error)
	GetRoom(ctx context.Context, roomID string) (domain.RoomSummary, bool, error)
}

// CanvasAdapter implements CanvasPort using the service container.
type CanvasAdapter struct {
	container mono.ServiceContainer
}

// NewCanvasAdapter creates a new CanvasAdapter.
func NewCanvasAdapter(container mono.ServiceContainer) CanvasPort {
	if container == nil {
		panic("canvas: ServiceContainer is nil")
	}
	return &CanvasAdapter{container: container}
}

// Presence records a connection's presence and returns the init payload
// on its first presence.
func (a *CanvasAdapter) Presence(ctx context.Context, roomID, connID string, p domain.Presence) (*domain.InitPayload, error) {
	req := PresenceRequest{RoomID: roomID, ConnID: connID, Presence: p}
	var resp PresenceResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServicePresence,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to record presence: %w", err)
	}
	return resp.Init, nil
}

// Leave removes a connection from a room.
func (a *CanvasAdapter) Leave(ctx context.Context, roomID, connID string) error {
	req := LeaveRequest{RoomID: roomID, ConnID: connID}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLeave,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

// BeginStroke opens a stroke.
func (a *CanvasAdapter) BeginStroke(ctx context.Context, roomID string, stroke domain.BeginStrokeRequest) error {
	req := BeginStrokeRequest{RoomID: roomID, Stroke: stroke}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceBeginStroke,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to begin stroke: %w", err)
	}
	return nil
}

// Draw proposes a segment and returns it with its assigned seq.
func (a *CanvasAdapter) Draw(ctx context.Context, roomID string, draw domain.DrawRequest) (domain.Segment, bool, error) {
	req := DrawRequest{RoomID: roomID, Draw: draw}
	var resp DrawResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceDraw,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Segment{}, false, fmt.Errorf("failed to draw: %w", err)
	}
	return resp.Segment, resp.Accepted, nil
}

// EndStroke marks the end of a gesture.
func (a *CanvasAdapter) EndStroke(ctx context.Context, roomID string, stroke domain.EndStrokeRequest) error {
	req := EndStrokeRequest{RoomID: roomID, Stroke: stroke}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceEndStroke,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to end stroke: %w", err)
	}
	return nil
}

// Undo undoes the most recent stroke in a room.
func (a *CanvasAdapter) Undo(ctx context.Context, roomID string) error {
	req := RoomRequest{RoomID: roomID}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceUndo,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to undo: %w", err)
	}
	return nil
}

// Redo redoes the most recently undone stroke in a room.
func (a *CanvasAdapter) Redo(ctx context.Context, roomID string) error {
	req := RoomRequest{RoomID: roomID}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRedo,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to redo: %w", err)
	}
	return nil
}

// Clear wipes a room.
func (a *CanvasAdapter) Clear(ctx context.Context, roomID string) error {
	req := RoomRequest{RoomID: roomID}
	var resp ChangeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceClear,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to clear room: %w", err)
	}
	return nil
}

// Snapshot returns the active strokes of a room.
func (a *CanvasAdapter) Snapshot(ctx context.Context, roomID string) (domain.Snapshot, error) {
	req := RoomRequest{RoomID: roomID}
	var resp SnapshotResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSnapshot,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return resp.Snapshot, nil
}

// ListRooms returns every known room.
func (a *CanvasAdapter) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	req := RoomRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetRoom returns one room summary.
func (a *CanvasAdapter) GetRoom(ctx context.Context, roomID string) (domain.RoomSummary, bool, error) {
	req := RoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.RoomSummary{}, false, fmt.Errorf("failed to get room: %w", err)
	}
	return resp.Room, resp.Found, nil
}
