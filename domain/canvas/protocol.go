package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message types exchanged over the websocket.
//
// Outbound payloads: users is a bare array of Presence; draw is a Segment
// with its seq; init is an InitPayload; state is a Snapshot object
// {"strokes": [...], "seq": n} rather than a bare stroke array, so that
// clients learn the room's sequence watermark; clear has no data.
const (
	TypePresence    = "presence"
	TypeBeginStroke = "beginStroke"
	TypeDraw        = "draw"
	TypeEndStroke   = "endStroke"
	TypeClear       = "clear"
	TypeUndo        = "undo"
	TypeRedo        = "redo"
	TypeCursor      = "cursor"
	TypeResync      = "resync"
	TypeUsers       = "users"
	TypeInit        = "init"
	TypeState       = "state"
)

// Decoding errors. Callers treat both as "message does not exist".
var (
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("malformed message payload")
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound is a decoded client-to-server message.
type Inbound interface {
	Kind() string
}

// PresenceMessage registers or updates the sender's roster entry.
type PresenceMessage struct {
	Presence
}

// BeginStrokeRequest opens a stroke with its immutable metadata.
type BeginStrokeRequest struct {
	StrokeID string  `json:"strokeId" validate:"required"`
	UserID   string  `json:"userId"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Brush    string  `json:"brush"`
	Erase    bool    `json:"erase"`
}

// Meta returns the stroke metadata carried by the request.
func (r BeginStrokeRequest) Meta() StrokeMeta {
	return StrokeMeta{
		UserID: r.UserID,
		Color:  r.Color,
		Width:  r.Width,
		Brush:  r.Brush,
		Erase:  r.Erase,
	}
}

// DrawRequest is a proposed segment. Fields are pointers so that a
// missing field can be told apart from a zero value.
type DrawRequest struct {
	StrokeID string   `json:"strokeId" validate:"required"`
	X0       *float64 `json:"x0" validate:"required,finite"`
	Y0       *float64 `json:"y0" validate:"required,finite"`
	X1       *float64 `json:"x1" validate:"required,finite"`
	Y1       *float64 `json:"y1" validate:"required,finite"`
	Width    *float64 `json:"width" validate:"required,finite,gt=0,lte=200"`
	Color    *string  `json:"color" validate:"required,max=32"`
	Brush    *string  `json:"brush" validate:"required,max=32"`
	Erase    *bool    `json:"erase" validate:"required"`
}

// Segment converts a validated request into an unsequenced segment.
// It must only be called after ValidDraw returned true.
func (r DrawRequest) Segment() Segment {
	return Segment{
		StrokeID: r.StrokeID,
		X0:       *r.X0,
		Y0:       *r.Y0,
		X1:       *r.X1,
		Y1:       *r.Y1,
		Width:    *r.Width,
		Color:    *r.Color,
		Brush:    *r.Brush,
		Erase:    *r.Erase,
	}
}

// NewDrawRequest builds a request from a segment, ignoring its seq.
func NewDrawRequest(seg Segment) DrawRequest {
	return DrawRequest{
		StrokeID: seg.StrokeID,
		X0:       &seg.X0,
		Y0:       &seg.Y0,
		X1:       &seg.X1,
		Y1:       &seg.Y1,
		Width:    &seg.Width,
		Color:    &seg.Color,
		Brush:    &seg.Brush,
		Erase:    &seg.Erase,
	}
}

// EndStrokeRequest marks the end of a gesture.
type EndStrokeRequest struct {
	StrokeID string `json:"strokeId"`
}

// ClearRequest wipes the room.
type ClearRequest struct{}

// UndoRequest deactivates the most recent undoable stroke.
type UndoRequest struct{}

// RedoRequest reactivates the most recently undone stroke.
type RedoRequest struct{}

// ResyncRequest asks for a fresh snapshot for the sender only.
type ResyncRequest struct{}

// CursorMessage is relayed verbatim to the other members of the room.
type CursorMessage struct {
	Raw json.RawMessage
}

func (PresenceMessage) Kind() string    { return TypePresence }
func (BeginStrokeRequest) Kind() string { return TypeBeginStroke }
func (DrawRequest) Kind() string        { return TypeDraw }
func (EndStrokeRequest) Kind() string   { return TypeEndStroke }
func (ClearRequest) Kind() string       { return TypeClear }
func (UndoRequest) Kind() string        { return TypeUndo }
func (RedoRequest) Kind() string        { return TypeRedo }
func (ResyncRequest) Kind() string      { return TypeResync }
func (CursorMessage) Kind() string      { return TypeCursor }

// InitPayload is sent once to a newly joined connection.
type InitPayload struct {
	Strokes []Stroke   `json:"strokes"`
	Users   []Presence `json:"users"`
	Seq     uint64     `json:"seq"`
}

// Snapshot returns the drawing part of the payload.
func (p InitPayload) Snapshot() Snapshot {
	return Snapshot{Strokes: p.Strokes, Seq: p.Seq}
}

// DecodeInbound parses one client frame into its typed variant.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	switch env.Type {
	case TypePresence:
		var msg PresenceMessage
		return decodeInto(env.Data, &msg)
	case TypeBeginStroke:
		var msg BeginStrokeRequest
		return decodeInto(env.Data, &msg)
	case TypeDraw:
		var msg DrawRequest
		return decodeInto(env.Data, &msg)
	case TypeEndStroke:
		var msg EndStrokeRequest
		return decodeInto(env.Data, &msg)
	case TypeClear:
		return ClearRequest{}, nil
	case TypeUndo:
		return UndoRequest{}, nil
	case TypeRedo:
		return RedoRequest{}, nil
	case TypeResync:
		return ResyncRequest{}, nil
	case TypeCursor:
		if len(env.Data) == 0 {
			return nil, ErrBadPayload
		}
		return CursorMessage{Raw: env.Data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeInto[T Inbound](data json.RawMessage, msg *T) (Inbound, error) {
	if len(data) == 0 {
		return nil, ErrBadPayload
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return *msg, nil
}

// Encode wraps a payload into an envelope frame. A nil payload produces
// a frame with no data field.
func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		switch p := payload.(type) {
		case json.RawMessage:
			env.Data = p
		default:
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
			}
			env.Data = data
		}
	}
	return json.Marshal(env)
}
