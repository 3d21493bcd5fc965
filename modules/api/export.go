package api

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// Page geometry of the exported document, in millimetres.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	pageMargin = 10.0
	headerSize = 10.0
)

// RenderPDF draws every active segment of snap onto a single A4 page in
// seq order. Coordinates are scaled to fit the page.
func RenderPDF(roomID string, snap canvas.Snapshot) ([]byte, error) {
	segments := orderedSegments(snap)

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle("Canvas "+roomID, true)
	p.AddPage()
	p.SetFont("Helvetica", "", 9)
	p.Text(pageMargin, pageMargin, fmt.Sprintf("Room %s - %d segments - seq %d", roomID, len(segments), snap.Seq))
	p.SetLineCapStyle("round")

	fit := newFitter(segments)
	for _, seg := range segments {
		r, g, b := parseColor(seg.Color)
		if seg.Erase {
			r, g, b = 255, 255, 255
		}
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(seg.Width*fit.scale, 0.1))

		x0, y0 := fit.point(seg.X0, seg.Y0)
		x1, y1 := fit.point(seg.X1, seg.Y1)
		p.Line(x0, y0, x1, y1)
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// orderedSegments flattens the snapshot into global seq order.
func orderedSegments(snap canvas.Snapshot) []canvas.Segment {
	var segments []canvas.Segment
	for _, st := range snap.Strokes {
		segments = append(segments, st.Segments...)
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Seq < segments[j].Seq })
	return segments
}

// fitter maps canvas coordinates into the drawable page area.
type fitter struct {
	minX, minY float64
	scale      float64
}

func newFitter(segments []canvas.Segment) fitter {
	if len(segments) == 0 {
		return fitter{scale: 1}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segments {
		minX = math.Min(minX, math.Min(s.X0, s.X1))
		minY = math.Min(minY, math.Min(s.Y0, s.Y1))
		maxX = math.Max(maxX, math.Max(s.X0, s.X1))
		maxY = math.Max(maxY, math.Max(s.Y0, s.Y1))
	}

	availW := pageWidth - 2*pageMargin
	availH := pageHeight - 2*pageMargin - headerSize
	scale := 1.0
	if w, h := maxX-minX, maxY-minY; w > 0 || h > 0 {
		scale = math.Min(availW/math.Max(w, 1), availH/math.Max(h, 1))
	}
	return fitter{minX: minX, minY: minY, scale: scale}
}

func (f fitter) point(x, y float64) (float64, float64) {
	return pageMargin + (x-f.minX)*f.scale, pageMargin + headerSize + (y-f.minY)*f.scale
}

// parseColor reads #rgb or #rrggbb. Anything else renders black.
func parseColor(s string) (int, int, int) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
