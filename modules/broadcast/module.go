package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/collaborative-canvas/domain/canvas"
	"github.com/example/collaborative-canvas/events"
)

// BroadcastModule is an EventConsumerModule that fans canvas events out to
// WebSocket clients.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.SegmentDrawnV1, m.handleSegmentDrawn, m,
	); err != nil {
		return fmt.Errorf("failed to register SegmentDrawn consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.CanvasStateV1, m.handleCanvasState, m,
	); err != nil {
		return fmt.Errorf("failed to register CanvasState consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.CanvasClearedV1, m.handleCanvasCleared, m,
	); err != nil {
		return fmt.Errorf("failed to register CanvasCleared consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PresenceChangedV1, m.handlePresenceChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register PresenceChanged consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: SegmentDrawn, CanvasState, CanvasCleared, PresenceChanged")
	return nil
}

// Event handlers

func (m *BroadcastModule) handleSegmentDrawn(_ context.Context, event events.SegmentDrawnEvent, _ *mono.Msg) error {
	return m.broadcast(event.RoomID, canvas.TypeDraw, event.Segment)
}

func (m *BroadcastModule) handleCanvasState(_ context.Context, event events.CanvasStateEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting state of room %s (%d strokes)", event.RoomID, len(event.Snapshot.Strokes))
	return m.broadcast(event.RoomID, canvas.TypeState, event.Snapshot)
}

func (m *BroadcastModule) handleCanvasCleared(_ context.Context, event events.CanvasClearedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting clear of room %s", event.RoomID)
	return m.broadcast(event.RoomID, canvas.TypeClear, nil)
}

func (m *BroadcastModule) handlePresenceChanged(_ context.Context, event events.PresenceChangedEvent, _ *mono.Msg) error {
	return m.broadcast(event.RoomID, canvas.TypeUsers, event.Users)
}

func (m *BroadcastModule) broadcast(roomID, msgType string, payload any) error {
	frame, err := canvas.Encode(msgType, payload)
	if err != nil {
		log.Printf("[broadcast] Failed to encode %s frame: %v", msgType, err)
		return nil // Don't retry on encode errors
	}
	m.hub.Broadcast(roomID, frame, "")
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
