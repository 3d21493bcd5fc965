package client

import (
	"context"
	"time"
)

// Watchdog periodically checks a ReorderBuffer and asks for a resync when
// it is stalled. After asking it stays quiet until a snapshot arrives or
// the stall timeout passes again.
type Watchdog struct {
	buf       *ReorderBuffer
	interval  time.Duration
	threshold int
	timeout   time.Duration
	resync    func() error

	awaiting    bool
	requestedAt time.Time
	seenSnaps   uint64
}

// NewWatchdog creates a watchdog calling resync when buf stalls.
func NewWatchdog(buf *ReorderBuffer, interval time.Duration, threshold int, timeout time.Duration, resync func() error) *Watchdog {
	return &Watchdog{
		buf:       buf,
		interval:  interval,
		threshold: threshold,
		timeout:   timeout,
		resync:    resync,
	}
}

// Check runs one watchdog pass and reports whether a resync was sent.
func (w *Watchdog) Check(now time.Time) (bool, error) {
	if w.awaiting {
		snaps := w.buf.Snapshots()
		if snaps == w.seenSnaps && now.Sub(w.requestedAt) <= w.timeout {
			return false, nil
		}
		w.awaiting = false
	}

	if !w.buf.Stalled(now, w.threshold, w.timeout) {
		return false, nil
	}

	w.awaiting = true
	w.requestedAt = now
	w.seenSnaps = w.buf.Snapshots()
	if err := w.resync(); err != nil {
		return false, err
	}
	return true, nil
}

// Run checks the buffer every interval until ctx is done or a resync
// request fails.
func (w *Watchdog) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			if _, err := w.Check(now); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
