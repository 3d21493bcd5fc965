package client

import (
	"sync"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// Renderer draws the local picture. Calls are made in seq order and never
// concurrently.
type Renderer interface {
	// Reset discards everything drawn so far.
	Reset()
	// Apply draws one segment.
	Apply(seg canvas.Segment)
}

// Replica is an in-memory Renderer that keeps the applied segments.
type Replica struct {
	mu       sync.Mutex
	segments []canvas.Segment
	resets   int
}

// NewReplica creates an empty replica.
func NewReplica() *Replica {
	return &Replica{}
}

// Reset implements Renderer.
func (r *Replica) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = nil
	r.resets++
}

// Apply implements Renderer.
func (r *Replica) Apply(seg canvas.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, seg)
}

// Segments returns a copy of the applied segments in application order.
func (r *Replica) Segments() []canvas.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]canvas.Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// Resets returns how many times the replica was reset.
func (r *Replica) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}
