// Package client implements a headless canvas client that reconstructs
// the room's global segment order from an unordered stream.
package client

import (
	"sort"
	"sync"
	"time"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// ReorderBuffer applies sequenced segments to a Renderer in strict seq
// order, holding back segments that arrive ahead of a gap.
type ReorderBuffer struct {
	mu       sync.Mutex
	renderer Renderer
	nextSeq  uint64
	pending  map[uint64]canvas.Segment
	// lastProgress is when a segment was last applied, or when a gap
	// opened after an idle period.
	lastProgress time.Time
	// unconfirmed is set while live segments may be missing from the
	// picture: something was applied or discarded since the last snapshot.
	unconfirmed bool
	snapshots   uint64
	now         func() time.Time
}

// NewReorderBuffer creates a buffer expecting seq 1 next.
func NewReorderBuffer(r Renderer) *ReorderBuffer {
	b := &ReorderBuffer{
		renderer: r,
		nextSeq:  1,
		pending:  make(map[uint64]canvas.Segment),
		now:      time.Now,
	}
	b.lastProgress = b.now()
	return b
}

// OnSegment accepts one live segment. Stale and duplicate segments are
// dropped. A segment without a seq is applied immediately.
func (b *ReorderBuffer) OnSegment(seg canvas.Segment) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if seg.Seq == 0 {
		b.renderer.Apply(seg)
		b.progressed()
		return
	}
	if seg.Seq < b.nextSeq {
		return
	}
	if _, dup := b.pending[seg.Seq]; dup {
		return
	}
	if len(b.pending) == 0 {
		b.lastProgress = b.now()
	}
	b.pending[seg.Seq] = seg
	b.drain()
}

// drain applies every pending segment that continues the sequence.
func (b *ReorderBuffer) drain() {
	for {
		seg, ok := b.pending[b.nextSeq]
		if !ok {
			return
		}
		delete(b.pending, b.nextSeq)
		b.renderer.Apply(seg)
		b.nextSeq++
		b.progressed()
	}
}

func (b *ReorderBuffer) progressed() {
	b.lastProgress = b.now()
	b.unconfirmed = true
}

// OnSnapshot replaces the local picture with snap. Its segments are
// replayed in global seq order and every pending segment is discarded.
// If a discarded segment lay beyond the snapshot, the picture stays
// unconfirmed so the next idle check asks for another snapshot.
func (b *ReorderBuffer) OnSnapshot(snap canvas.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var segments []canvas.Segment
	for _, st := range snap.Strokes {
		segments = append(segments, st.Segments...)
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Seq < segments[j].Seq })

	b.renderer.Reset()
	for _, seg := range segments {
		b.renderer.Apply(seg)
	}

	b.nextSeq = snap.MaxSeq() + 1
	discardedAhead := false
	for seq := range b.pending {
		if seq >= b.nextSeq {
			discardedAhead = true
		}
	}
	b.pending = make(map[uint64]canvas.Segment)
	b.snapshots++
	b.lastProgress = b.now()
	b.unconfirmed = discardedAhead
}

// OnClear discards the local picture and restarts the sequence.
func (b *ReorderBuffer) OnClear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.renderer.Reset()
	b.pending = make(map[uint64]canvas.Segment)
	b.nextSeq = 1
	b.lastProgress = b.now()
	b.unconfirmed = false
}

// NextSeq returns the seq the buffer is waiting for.
func (b *ReorderBuffer) NextSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextSeq
}

// Pending returns the number of segments held back.
func (b *ReorderBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Snapshots returns how many snapshots have been applied.
func (b *ReorderBuffer) Snapshots() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots
}

// Stalled reports whether the buffer holds more than threshold pending
// segments, or no segment has been applied for longer than timeout.
// A picture that has not changed since the last snapshot never goes
// stale, so an idle room is not polled.
func (b *ReorderBuffer) Stalled(now time.Time, threshold int, timeout time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) > threshold {
		return true
	}
	if len(b.pending) == 0 && !b.unconfirmed {
		return false
	}
	return now.Sub(b.lastProgress) > timeout
}
