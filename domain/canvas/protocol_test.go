package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		kind  string
	}{
		{name: "presence", frame: `{"type":"presence","data":{"id":"u1","name":"Ada","color":"#000"}}`, kind: TypePresence},
		{name: "begin", frame: `{"type":"beginStroke","data":{"strokeId":"s1","userId":"u1","width":3}}`, kind: TypeBeginStroke},
		{name: "draw", frame: `{"type":"draw","data":{"strokeId":"s1","x0":0,"y0":0,"x1":1,"y1":1,"width":2,"color":"#111","brush":"basic","erase":false}}`, kind: TypeDraw},
		{name: "end", frame: `{"type":"endStroke","data":{"strokeId":"s1"}}`, kind: TypeEndStroke},
		{name: "clear without data", frame: `{"type":"clear"}`, kind: TypeClear},
		{name: "undo", frame: `{"type":"undo","data":{}}`, kind: TypeUndo},
		{name: "redo", frame: `{"type":"redo"}`, kind: TypeRedo},
		{name: "resync", frame: `{"type":"resync"}`, kind: TypeResync},
		{name: "cursor", frame: `{"type":"cursor","data":{"id":"u1","x":5,"y":6}}`, kind: TypeCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeInbound([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, msg.Kind())
		})
	}
}

func TestDecodeInbound_Draw(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"type":"draw","data":{"strokeId":"s1","x0":1,"y0":2,"x1":3,"y1":4,"width":5,"color":"#ff0000","brush":"basic","erase":true}}`))
	require.NoError(t, err)

	req, ok := msg.(DrawRequest)
	require.True(t, ok)
	require.True(t, ValidDraw(req))

	seg := req.Segment()
	assert.Equal(t, "s1", seg.StrokeID)
	assert.Equal(t, 5.0, seg.Width)
	assert.True(t, seg.Erase)
	assert.Zero(t, seg.Seq)
}

func TestDecodeInbound_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		err   error
	}{
		{name: "not json", frame: `nope`, err: ErrBadPayload},
		{name: "unknown type", frame: `{"type":"teleport"}`, err: ErrUnknownType},
		{name: "draw without data", frame: `{"type":"draw"}`, err: ErrBadPayload},
		{name: "color is not a string", frame: `{"type":"draw","data":{"strokeId":"s1","color":7}}`, err: ErrBadPayload},
		{name: "erase is not a bool", frame: `{"type":"draw","data":{"strokeId":"s1","erase":"yes"}}`, err: ErrBadPayload},
		{name: "cursor without data", frame: `{"type":"cursor"}`, err: ErrBadPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.frame))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncode(t *testing.T) {
	frame, err := Encode(TypeDraw, Segment{StrokeID: "s1", Width: 1, Seq: 9})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, TypeDraw, env.Type)
	assert.Contains(t, string(env.Data), `"seq":9`)

	frame, err = Encode(TypeClear, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"clear"}`, string(frame))

	raw := json.RawMessage(`{"id":"u1","x":1}`)
	frame, err = Encode(TypeCursor, raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"cursor","data":{"id":"u1","x":1}}`, string(frame))
}

func TestSnapshotMaxSeq(t *testing.T) {
	snap := Snapshot{
		Strokes: []Stroke{
			{ID: "a", Segments: []Segment{{Seq: 1}, {Seq: 4}}},
			{ID: "b", Segments: []Segment{{Seq: 2}}},
		},
		Seq: 3,
	}
	assert.Equal(t, uint64(4), snap.MaxSeq())

	snap.Seq = 9
	assert.Equal(t, uint64(9), snap.MaxSeq())
}
