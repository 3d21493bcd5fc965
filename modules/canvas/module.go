package canvas

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/collaborative-canvas/events"
)

// Module owns every room and is the single writer of canvas state.
type Module struct {
	store    *RoomStore
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new canvas module holding at most maxSteps strokes
// per room.
func NewModule(maxSteps int, logger types.Logger) *Module {
	return &Module{
		store:  NewRoomStore(maxSteps),
		logger: logger.WithModule("canvas"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "canvas"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.SegmentDrawnV1.ToBase(),
		events.CanvasStateV1.ToBase(),
		events.CanvasClearedV1.ToBase(),
		events.PresenceChangedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServicePresence, json.Unmarshal, json.Marshal, m.handlePresence,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServicePresence, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLeave, json.Unmarshal, json.Marshal, m.handleLeave,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLeave, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceBeginStroke, json.Unmarshal, json.Marshal, m.handleBeginStroke,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceBeginStroke, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDraw, json.Unmarshal, json.Marshal, m.handleDraw,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDraw, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceEndStroke, json.Unmarshal, json.Marshal, m.handleEndStroke,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceEndStroke, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUndo, json.Unmarshal, json.Marshal, m.handleUndo,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUndo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRedo, json.Unmarshal, json.Marshal, m.handleRedo,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRedo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceClear, json.Unmarshal, json.Marshal, m.handleClear,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceClear, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSnapshot, json.Unmarshal, json.Marshal, m.handleSnapshot,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSnapshot, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}

	m.logger.Info("Registered canvas services")
	return nil
}

func (m *Module) handlePresence(ctx context.Context, req PresenceRequest, _ *mono.Msg) (PresenceResponse, error) {
	return PresenceResponse{Init: m.service.Presence(ctx, req.RoomID, req.ConnID, req.Presence)}, nil
}

func (m *Module) handleLeave(ctx context.Context, req LeaveRequest, _ *mono.Msg) (ChangeResponse, error) {
	return ChangeResponse{Changed: m.service.Leave(ctx, req.RoomID, req.ConnID)}, nil
}

func (m *Module) handleBeginStroke(ctx context.Context, req BeginStrokeRequest, _ *mono.Msg) (ChangeResponse, error) {
	return ChangeResponse{Changed: m.service.BeginStroke(ctx, req.RoomID, req.Stroke)}, nil
}

func (m *Module) handleDraw(ctx context.Context, req DrawRequest, _ *mono.Msg) (DrawResponse, error) {
	seg, ok := m.service.Draw(ctx, req.RoomID, req.Draw)
	return DrawResponse{Accepted: ok, Segment: seg}, nil
}

func (m *Module) handleEndStroke(ctx context.Context, req EndStrokeRequest, _ *mono.Msg) (ChangeResponse, error) {
	m.service.EndStroke(ctx, req.RoomID, req.Stroke)
	return ChangeResponse{}, nil
}

func (m *Module) handleUndo(ctx context.Context, req RoomRequest, _ *mono.Msg) (ChangeResponse, error) {
	return ChangeResponse{Changed: m.service.Undo(ctx, req.RoomID)}, nil
}

func (m *Module) handleRedo(ctx context.Context, req RoomRequest, _ *mono.Msg) (ChangeResponse, error) {
	return ChangeResponse{Changed: m.service.Redo(ctx, req.RoomID)}, nil
}

func (m *Module) handleClear(ctx context.Context, req RoomRequest, _ *mono.Msg) (ChangeResponse, error) {
	m.service.Clear(ctx, req.RoomID)
	return ChangeResponse{Changed: true}, nil
}

func (m *Module) handleSnapshot(ctx context.Context, req RoomRequest, _ *mono.Msg) (SnapshotResponse, error) {
	return SnapshotResponse{Snapshot: m.service.Snapshot(ctx, req.RoomID)}, nil
}

func (m *Module) handleListRooms(ctx context.Context, _ RoomRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.service.ListRooms(ctx)}, nil
}

func (m *Module) handleGetRoom(ctx context.Context, req RoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, ok := m.service.GetRoom(ctx, req.RoomID)
	return GetRoomResponse{Found: ok, Room: room}, nil
}

// Start wires the service to the EventBus.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		return fmt.Errorf("canvas: event bus not set")
	}
	m.service = NewService(m.store, NewEventBusPublisher(m.eventBus), m.logger)
	m.logger.Info("Canvas module started", "maxSteps", m.store.MaxSteps())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Canvas module stopped", "rooms", m.store.Len())
	return nil
}

// Health reports the number of rooms held in memory.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":     m.store.Len(),
			"max_steps": m.store.MaxSteps(),
		},
	}
}

// Service returns the canvas service. It is nil until Start.
func (m *Module) Service() *Service {
	return m.service
}
