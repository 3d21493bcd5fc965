package api

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/example/collaborative-canvas/domain/canvas"
	"github.com/example/collaborative-canvas/modules/broadcast"
)

const (
	defaultRoomID  = "default"
	requestTimeout = 5 * time.Second
)

// session is the server side of one websocket connection.
type session struct {
	client  *broadcast.Client
	limiter *rate.Limiter
}

// handleWebSocket handles WebSocket connections at /ws?room=<id>.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	roomID := c.Query("room", defaultRoomID)
	if roomID == "" {
		roomID = defaultRoomID
	}

	sess := &session{
		client:  broadcast.NewClient(uuid.New().String(), roomID, c),
		limiter: m.newCursorLimiter(),
	}

	// Register before any presence so no room broadcast is missed.
	m.hub.Register(sess.client)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.canvasAdapter.Leave(ctx, roomID, sess.client.ID); err != nil {
			log.Printf("[api] Failed to remove presence of %s: %v", sess.client.ID, err)
		}
		m.hub.Unregister(sess.client)
		log.Printf("[api] WebSocket client disconnected: %s (room %s)", sess.client.ID, roomID)
	}()

	log.Printf("[api] WebSocket client connected: %s (room %s)", sess.client.ID, roomID)

	// Message loop. Requests from one connection are handled one at a time,
	// so a beginStroke is always applied before the draws that follow it.
	for {
		_, frame, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", sess.client.ID)
			} else {
				log.Printf("[api] Read error from %s: %v", sess.client.ID, err)
			}
			return
		}
		m.dispatch(sess, frame)
	}
}

// dispatch decodes one frame and routes it. Malformed frames are dropped.
func (m *APIModule) dispatch(sess *session, frame []byte) {
	msg, err := canvas.DecodeInbound(frame)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	roomID := sess.client.RoomID
	switch v := msg.(type) {
	case canvas.PresenceMessage:
		payload, err := m.canvasAdapter.Presence(ctx, roomID, sess.client.ID, v.Presence)
		if err != nil {
			m.logRequestError(sess, msg, err)
			return
		}
		if payload != nil {
			m.unicast(sess, canvas.TypeInit, payload)
		}
	case canvas.BeginStrokeRequest:
		err = m.canvasAdapter.BeginStroke(ctx, roomID, v)
	case canvas.DrawRequest:
		// The sequenced segment reaches the sender through the room broadcast.
		_, _, err = m.canvasAdapter.Draw(ctx, roomID, v)
	case canvas.EndStrokeRequest:
		err = m.canvasAdapter.EndStroke(ctx, roomID, v)
	case canvas.UndoRequest:
		err = m.canvasAdapter.Undo(ctx, roomID)
	case canvas.RedoRequest:
		err = m.canvasAdapter.Redo(ctx, roomID)
	case canvas.ClearRequest:
		err = m.canvasAdapter.Clear(ctx, roomID)
	case canvas.ResyncRequest:
		snap, err := m.canvasAdapter.Snapshot(ctx, roomID)
		if err != nil {
			m.logRequestError(sess, msg, err)
			return
		}
		m.unicast(sess, canvas.TypeState, snap)
	case canvas.CursorMessage:
		if !sess.limiter.Allow() {
			return
		}
		out, encErr := canvas.Encode(canvas.TypeCursor, v.Raw)
		if encErr != nil {
			return
		}
		m.hub.Broadcast(roomID, out, sess.client.ID)
	}

	if err != nil {
		m.logRequestError(sess, msg, err)
	}
}

func (m *APIModule) unicast(sess *session, msgType string, payload any) {
	out, err := canvas.Encode(msgType, payload)
	if err != nil {
		log.Printf("[api] Failed to encode %s for %s: %v", msgType, sess.client.ID, err)
		return
	}
	if err := sess.client.Send(out); err != nil {
		log.Printf("[api] Failed to send %s to %s: %v", msgType, sess.client.ID, err)
	}
}

func (m *APIModule) logRequestError(sess *session, msg canvas.Inbound, err error) {
	log.Printf("[api] %s from %s failed: %v", msg.Kind(), sess.client.ID, err)
}
