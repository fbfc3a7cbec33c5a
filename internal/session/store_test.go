package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branding-bible/internal/chat"
)

func countingFactory(created *int) Factory {
	return func() *chat.Controller {
		*created++
		return chat.New(chat.Options{Greeting: "hello"})
	}
}

func TestGetCreatesOncePerKey(t *testing.T) {
	var created int
	store := NewStore(Options{Factory: countingFactory(&created)})

	first := store.Get("web:abc")
	second := store.Get("web:abc")
	other := store.Get("tg:42")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, created)
}

func TestClearResetsConversation(t *testing.T) {
	var created int
	store := NewStore(Options{Factory: countingFactory(&created)})

	before := store.Get("web:abc")
	store.Clear("web:abc")
	after := store.Get("web:abc")

	assert.NotSame(t, before, after)
	assert.Equal(t, 2, created)
}

func TestIdleSessionsArePruned(t *testing.T) {
	var created int
	store := NewStore(Options{Factory: countingFactory(&created), MaxIdle: 20 * time.Millisecond})

	stale := store.Get("web:stale")
	time.Sleep(40 * time.Millisecond)

	// Any access prunes idle sessions before resolving the key.
	fresh := store.Get("web:stale")
	require.NotSame(t, stale, fresh)
	assert.Equal(t, 2, created)
}

func TestActiveSessionSurvivesPruning(t *testing.T) {
	var created int
	store := NewStore(Options{Factory: countingFactory(&created), MaxIdle: 50 * time.Millisecond})

	first := store.Get("web:busy")
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		assert.Same(t, first, store.Get("web:busy"))
	}
	assert.Equal(t, 1, created)
}
