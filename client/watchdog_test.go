package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// fillPending leaves n segments waiting behind a missing seq 1.
func fillPending(buf *ReorderBuffer, n int) {
	for i := 0; i < n; i++ {
		buf.OnSegment(sequenced("A", uint64(i+2)))
	}
}

func TestWatchdog_OverflowRequestsExactlyOneResync(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	fillPending(buf, 301)

	var requests atomic.Int32
	wd := NewWatchdog(buf, 20*time.Millisecond, 300, time.Second, func() error {
		requests.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- wd.Run(ctx) }()

	require.Eventually(t, func() bool { return requests.Load() == 1 }, 600*time.Millisecond, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), requests.Load())
}

func TestWatchdog_QuietWhenHealthy(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	fillPending(buf, 10)

	calls := 0
	wd := NewWatchdog(buf, time.Second, 300, time.Second, func() error {
		calls++
		return nil
	})

	sent, err := wd.Check(time.Now())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, calls)
}

func TestWatchdog_StaleBufferRequestsResync(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	buf.now = func() time.Time { return start }
	fillPending(buf, 1)

	calls := 0
	wd := NewWatchdog(buf, time.Second, 300, time.Second, func() error {
		calls++
		return nil
	})

	sent, _ := wd.Check(start.Add(900 * time.Millisecond))
	assert.False(t, sent)

	sent, _ = wd.Check(start.Add(1100 * time.Millisecond))
	assert.True(t, sent)

	// Waiting for the snapshot.
	sent, _ = wd.Check(start.Add(1700 * time.Millisecond))
	assert.False(t, sent)

	// No snapshot within the timeout: ask again.
	sent, _ = wd.Check(start.Add(2200 * time.Millisecond))
	assert.True(t, sent)
	assert.Equal(t, 2, calls)
}

func TestWatchdog_SnapshotEndsWait(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	now := start
	buf.now = func() time.Time { return now }
	fillPending(buf, 301)

	calls := 0
	wd := NewWatchdog(buf, time.Second, 300, time.Second, func() error {
		calls++
		return nil
	})

	sent, _ := wd.Check(start)
	require.True(t, sent)

	now = start.Add(100 * time.Millisecond)
	buf.OnSnapshot(canvas.Snapshot{Seq: 400})
	assert.Zero(t, buf.Pending())

	sent, _ = wd.Check(now.Add(100 * time.Millisecond))
	assert.False(t, sent, "healthy after snapshot")
	assert.Equal(t, 1, calls)
}

func TestWatchdog_LostTailInIdleRoom(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	now := start
	buf.now = func() time.Time { return now }

	buf.OnSegment(sequenced("A", 1))
	// seq 2 never arrives.

	calls := 0
	wd := NewWatchdog(buf, 600*time.Millisecond, 300, time.Second, func() error {
		calls++
		buf.OnSnapshot(canvas.Snapshot{
			Strokes: []canvas.Stroke{{ID: "A", Segments: []canvas.Segment{sequenced("A", 1), sequenced("A", 2)}}},
			Seq:     2,
		})
		return nil
	})

	for i := 1; i <= 20; i++ {
		now = start.Add(time.Duration(i) * 600 * time.Millisecond)
		_, err := wd.Check(now)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(3), buf.NextSeq())
}

func TestWatchdog_IdleAfterSnapshotStaysQuiet(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	buf.now = func() time.Time { return start }
	buf.OnSnapshot(canvas.Snapshot{Seq: 10})

	calls := 0
	wd := NewWatchdog(buf, 600*time.Millisecond, 300, time.Second, func() error {
		calls++
		return nil
	})
	for i := 1; i <= 20; i++ {
		_, err := wd.Check(start.Add(time.Duration(i) * 600 * time.Millisecond))
		require.NoError(t, err)
	}
	assert.Zero(t, calls)
}

func TestWatchdog_RunStopsOnResyncError(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	fillPending(buf, 301)
	boom := errors.New("write failed")

	wd := NewWatchdog(buf, 10*time.Millisecond, 300, time.Second, func() error { return boom })

	err := wd.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
