package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/collaborative-canvas/domain/canvas"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{in: "#ff8000", r: 255, g: 128, b: 0},
		{in: "00ff00", r: 0, g: 255, b: 0},
		{in: "#0af", r: 0, g: 170, b: 255},
		{in: "red", r: 0, g: 0, b: 0},
		{in: "#zzzzzz", r: 0, g: 0, b: 0},
		{in: "", r: 0, g: 0, b: 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b := parseColor(tt.in)
			assert.Equal(t, []int{tt.r, tt.g, tt.b}, []int{r, g, b})
		})
	}
}

func TestOrderedSegments_GlobalSeqOrder(t *testing.T) {
	snap := canvas.Snapshot{Strokes: []canvas.Stroke{
		{ID: "a", Segments: []canvas.Segment{{Seq: 1}, {Seq: 3}}},
		{ID: "b", Segments: []canvas.Segment{{Seq: 2}, {Seq: 4}}},
	}}

	var seqs []uint64
	for _, s := range orderedSegments(snap) {
		seqs = append(seqs, s.Seq)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, seqs)
}

func TestRenderPDF(t *testing.T) {
	doc, err := RenderPDF("empty", canvas.Snapshot{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	doc, err = RenderPDF("room", canvas.Snapshot{Strokes: []canvas.Stroke{{
		ID: "s1",
		Segments: []canvas.Segment{
			{X0: 10, Y0: 10, X1: 400, Y1: 300, Width: 3, Color: "#123456", Seq: 1},
			{X0: 400, Y0: 300, X1: 5, Y1: 5, Width: 20, Erase: true, Seq: 2},
		},
	}}, Seq: 2})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestFitter_KeepsPointsOnPage(t *testing.T) {
	segs := []canvas.Segment{{X0: -500, Y0: -500, X1: 3000, Y1: 1000}}
	f := newFitter(segs)

	for _, pt := range [][2]float64{{-500, -500}, {3000, 1000}} {
		x, y := f.point(pt[0], pt[1])
		assert.GreaterOrEqual(t, x, pageMargin)
		assert.LessOrEqual(t, x, pageWidth-pageMargin+1e-9)
		assert.GreaterOrEqual(t, y, pageMargin)
		assert.LessOrEqual(t, y, pageHeight-pageMargin+1e-9)
	}
}
