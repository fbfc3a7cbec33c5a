package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turnRecorder struct {
	mu    sync.Mutex
	turns []Turn
}

func (r *turnRecorder) record(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, t)
}

func (r *turnRecorder) snapshot() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Turn, len(r.turns))
	copy(out, r.turns)
	return out
}

func TestBurstFlushesOnce(t *testing.T) {
	rec := &turnRecorder{}
	agg := New(Options{Debounce: 30 * time.Millisecond, OnFlush: rec.record})

	agg.Add(Item{ChatID: 7, UserID: 42, Text: "part one"})
	agg.Add(Item{ChatID: 7, UserID: 42, Text: "part two"})
	agg.Add(Item{ChatID: 7, UserID: 42, Text: "part three"})

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()[0]
	assert.Equal(t, int64(7), got.ChatID)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "part one\npart two\npart three", got.Text)

	// Quiet period: nothing else flushes.
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestUsersAreIndependent(t *testing.T) {
	rec := &turnRecorder{}
	agg := New(Options{Debounce: 30 * time.Millisecond, OnFlush: rec.record})

	agg.Add(Item{ChatID: 1, UserID: 10, Text: "from alice"})
	agg.Add(Item{ChatID: 1, UserID: 20, Text: "from bob"})

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	texts := map[int64]string{}
	for _, turn := range rec.snapshot() {
		texts[turn.UserID] = turn.Text
	}
	assert.Equal(t, "from alice", texts[10])
	assert.Equal(t, "from bob", texts[20])
}

func TestBlankFragmentsIgnored(t *testing.T) {
	rec := &turnRecorder{}
	agg := New(Options{Debounce: 20 * time.Millisecond, OnFlush: rec.record})

	agg.Add(Item{ChatID: 1, UserID: 1, Text: "   "})
	agg.Add(Item{ChatID: 1, UserID: 1, Text: ""})

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestNewBurstAfterFlush(t *testing.T) {
	rec := &turnRecorder{}
	agg := New(Options{Debounce: 20 * time.Millisecond, OnFlush: rec.record})

	agg.Add(Item{ChatID: 1, UserID: 1, Text: "first"})
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	agg.Add(Item{ChatID: 1, UserID: 1, Text: "second"})
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	turns := rec.snapshot()
	assert.Equal(t, "first", turns[0].Text)
	assert.Equal(t, "second", turns[1].Text)
}
