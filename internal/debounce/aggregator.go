package debounce

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Item is one incoming chat message fragment.
type Item struct {
	ChatID int64
	UserID int64
	Text   string
}

// Turn is a burst of messages from one user collapsed into a single chat
// turn.
type Turn struct {
	ChatID int64
	UserID int64
	Text   string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Turn)
}

// Aggregator collapses rapid successive messages from the same user into
// one turn: each new fragment restarts the debounce timer, and the joined
// text flushes once the burst goes quiet.
type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Turn)
	pending  map[string]*pendingTurn
}

type pendingTurn struct {
	turn  Turn
	parts []string
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		pending:  make(map[string]*pendingTurn),
	}
}

func (a *Aggregator) Add(item Item) {
	if strings.TrimSpace(item.Text) == "" {
		return
	}

	key := makeKey(item.ChatID, item.UserID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pt, ok := a.pending[key]
	if !ok {
		pt = &pendingTurn{
			turn: Turn{ChatID: item.ChatID, UserID: item.UserID},
		}
		a.pending[key] = pt
	}
	pt.parts = append(pt.parts, item.Text)

	if pt.timer != nil {
		pt.timer.Stop()
	}
	pt.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pt, ok := a.pending[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	turn := pt.turn
	turn.Text = strings.Join(pt.parts, "\n")
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(turn)
	}
}

func makeKey(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}
