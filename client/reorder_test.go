package client

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/collaborative-canvas/domain/canvas"
)

func sequenced(strokeID string, seq uint64) canvas.Segment {
	return canvas.Segment{StrokeID: strokeID, X1: float64(seq), Width: 1, Seq: seq}
}

func seqsOf(segs []canvas.Segment) []uint64 {
	out := make([]uint64, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Seq)
	}
	return out
}

func TestReorderBuffer_OutOfOrderPair(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(sequenced("A", 2))
	assert.Empty(t, replica.Segments())
	assert.Equal(t, 1, buf.Pending())

	buf.OnSegment(sequenced("A", 1))

	assert.Equal(t, []uint64{1, 2}, seqsOf(replica.Segments()))
	assert.Zero(t, buf.Pending())
	assert.Equal(t, uint64(3), buf.NextSeq())
}

func TestReorderBuffer_DropsStaleAndDuplicate(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(sequenced("A", 1))
	buf.OnSegment(sequenced("A", 1))
	buf.OnSegment(sequenced("A", 3))
	buf.OnSegment(sequenced("A", 3))

	assert.Equal(t, []uint64{1}, seqsOf(replica.Segments()))
	assert.Equal(t, 1, buf.Pending())
}

func TestReorderBuffer_UnsequencedAppliedDirectly(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(canvas.Segment{StrokeID: "A"})

	require.Len(t, replica.Segments(), 1)
	assert.Equal(t, uint64(1), buf.NextSeq())
}

func TestReorderBuffer_PermutationsConverge(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewSource(42))

	want := make([]uint64, n)
	for i := range want {
		want[i] = uint64(i + 1)
	}

	for trial := 0; trial < 20; trial++ {
		replica := NewReplica()
		buf := NewReorderBuffer(replica)

		order := rng.Perm(n)
		for _, i := range order {
			buf.OnSegment(sequenced("A", uint64(i+1)))
			// Redeliver some segments to exercise duplicate handling.
			if i%7 == 0 {
				buf.OnSegment(sequenced("A", uint64(i+1)))
			}
		}

		assert.Equal(t, want, seqsOf(replica.Segments()), "trial %d", trial)
		assert.Zero(t, buf.Pending())
		assert.Equal(t, uint64(n+1), buf.NextSeq())
	}
}

func TestReorderBuffer_SnapshotReplaysInSeqOrder(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	// Strokes interleaved in real time.
	snap := canvas.Snapshot{
		Strokes: []canvas.Stroke{
			{ID: "A", Segments: []canvas.Segment{sequenced("A", 1), sequenced("A", 3)}},
			{ID: "B", Segments: []canvas.Segment{sequenced("B", 2), sequenced("B", 4)}},
		},
		Seq: 4,
	}
	buf.OnSnapshot(snap)

	assert.Equal(t, []uint64{1, 2, 3, 4}, seqsOf(replica.Segments()))
	assert.Equal(t, uint64(5), buf.NextSeq())
	assert.Equal(t, 1, replica.Resets())
}

func TestReorderBuffer_SnapshotClearsPending(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(sequenced("A", 3))
	buf.OnSegment(sequenced("A", 6))
	buf.OnSegment(sequenced("A", 7))
	require.Equal(t, 3, buf.Pending())

	buf.OnSnapshot(canvas.Snapshot{
		Strokes: []canvas.Stroke{{ID: "A", Segments: []canvas.Segment{
			sequenced("A", 1), sequenced("A", 2), sequenced("A", 3), sequenced("A", 4),
		}}},
		Seq: 5,
	})

	assert.Equal(t, []uint64{1, 2, 3, 4}, seqsOf(replica.Segments()))
	assert.Zero(t, buf.Pending())
	assert.Equal(t, uint64(6), buf.NextSeq())

	// Segments beyond the snapshot were discarded, so the picture is not
	// trusted until another snapshot confirms it.
	assert.True(t, buf.Stalled(time.Now().Add(2*time.Second), 300, time.Second))
}

func TestReorderBuffer_LateSegmentFromBeforeClear(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(sequenced("old", 1))
	buf.OnClear()
	// Delivered after the clear even though it was assigned before it.
	buf.OnSegment(sequenced("old", 3))
	buf.OnSnapshot(canvas.Snapshot{Seq: 0})
	require.Zero(t, buf.Pending())

	for seq := uint64(1); seq <= 3; seq++ {
		buf.OnSegment(sequenced("new", seq))
	}

	segs := replica.Segments()
	require.Len(t, segs, 3)
	for _, seg := range segs {
		assert.Equal(t, "new", seg.StrokeID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqsOf(segs))
}

func TestReorderBuffer_LostTailGoesStale(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	buf.now = func() time.Time { return start }

	buf.OnSegment(sequenced("A", 1))
	// seq 2 is lost and the room goes quiet.
	assert.Zero(t, buf.Pending())
	assert.False(t, buf.Stalled(start.Add(500*time.Millisecond), 300, time.Second))
	assert.True(t, buf.Stalled(start.Add(1500*time.Millisecond), 300, time.Second))

	buf.OnSnapshot(canvas.Snapshot{
		Strokes: []canvas.Stroke{{ID: "A", Segments: []canvas.Segment{sequenced("A", 1), sequenced("A", 2)}}},
		Seq:     2,
	})
	assert.False(t, buf.Stalled(start.Add(time.Hour), 300, time.Second), "confirmed picture stays quiet")
}

func TestReorderBuffer_SnapshotWatermarkAfterUndo(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	// The last strokes were undone, so the visible segments stop at 2
	// while the room already assigned up to 9.
	buf.OnSnapshot(canvas.Snapshot{
		Strokes: []canvas.Stroke{{ID: "A", Segments: []canvas.Segment{sequenced("A", 1), sequenced("A", 2)}}},
		Seq:     9,
	})
	buf.OnSegment(sequenced("B", 10))

	assert.Equal(t, []uint64{1, 2, 10}, seqsOf(replica.Segments()))
	assert.Zero(t, buf.Pending())
}

func TestReorderBuffer_ClearRestartsSequence(t *testing.T) {
	replica := NewReplica()
	buf := NewReorderBuffer(replica)

	buf.OnSegment(sequenced("A", 1))
	buf.OnSegment(sequenced("A", 2))
	buf.OnSegment(sequenced("A", 5))

	buf.OnClear()
	assert.Empty(t, replica.Segments())
	assert.Zero(t, buf.Pending())
	assert.Equal(t, uint64(1), buf.NextSeq())

	buf.OnSegment(sequenced("B", 1))
	assert.Equal(t, []uint64{1}, seqsOf(replica.Segments()))
}

func TestReorderBuffer_Stalled(t *testing.T) {
	buf := NewReorderBuffer(NewReplica())
	start := time.Unix(1000, 0)
	buf.now = func() time.Time { return start }

	assert.False(t, buf.Stalled(start.Add(time.Hour), 300, time.Second), "empty buffer never stalls")

	buf.OnSegment(sequenced("A", 5))
	assert.False(t, buf.Stalled(start.Add(500*time.Millisecond), 300, time.Second))
	assert.True(t, buf.Stalled(start.Add(1500*time.Millisecond), 300, time.Second))

	for seq := uint64(6); seq <= 306; seq++ {
		buf.OnSegment(sequenced("A", seq))
	}
	require.Equal(t, 302, buf.Pending())
	assert.True(t, buf.Stalled(start, 300, time.Second), "over threshold")
}
