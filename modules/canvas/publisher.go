package canvas

import (
	"github.com/go-monolith/mono"

	domain "github.com/example/collaborative-canvas/domain/canvas"
	"github.com/example/collaborative-canvas/events"
)

// Publisher delivers room-wide broadcasts. Implementations are called
// with the room lock held, so calls for one room arrive in seq order.
type Publisher interface {
	SegmentDrawn(roomID string, seg domain.Segment) error
	StateChanged(roomID string, snap domain.Snapshot) error
	Cleared(roomID string) error
	PresenceChanged(roomID string, users []domain.Presence) error
}

// EventBusPublisher publishes canvas events on the mono EventBus.
type EventBusPublisher struct {
	bus mono.EventBus
}

var _ Publisher = (*EventBusPublisher)(nil)

// NewEventBusPublisher creates a publisher backed by bus.
func NewEventBusPublisher(bus mono.EventBus) *EventBusPublisher {
	return &EventBusPublisher{bus: bus}
}

// SegmentDrawn publishes a sequenced segment.
func (p *EventBusPublisher) SegmentDrawn(roomID string, seg domain.Segment) error {
	return events.SegmentDrawnV1.Publish(p.bus, events.SegmentDrawnEvent{
		RoomID:  roomID,
		Segment: seg,
	}, nil)
}

// StateChanged publishes a full snapshot.
func (p *EventBusPublisher) StateChanged(roomID string, snap domain.Snapshot) error {
	return events.CanvasStateV1.Publish(p.bus, events.CanvasStateEvent{
		RoomID:   roomID,
		Snapshot: snap,
	}, nil)
}

// Cleared publishes a room wipe.
func (p *EventBusPublisher) Cleared(roomID string) error {
	return events.CanvasClearedV1.Publish(p.bus, events.CanvasClearedEvent{
		RoomID: roomID,
	}, nil)
}

// PresenceChanged publishes the current roster.
func (p *EventBusPublisher) PresenceChanged(roomID string, users []domain.Presence) error {
	return events.PresenceChangedV1.Publish(p.bus, events.PresenceChangedEvent{
		RoomID: roomID,
		Users:  users,
	}, nil)
}
