package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Apology replaces a turn that failed mid-stream. The conversation stays
// usable for the next turn.
const Apology = "Sorry, I encountered an error. Please try again."

var (
	ErrEmptyInput     = errors.New("chat: message is empty")
	ErrTurnInFlight   = errors.New("chat: a turn is already in flight")
	ErrNoConversation = errors.New("chat: no conversation open")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation streams one reply per submitted message. Implemented by
// *gemini.Chat.
type Conversation interface {
	Stream(ctx context.Context, message string) (<-chan string, <-chan error)
}

// Controller owns a single conversation and its transcript. The transcript
// is append-only except for the last entry, which grows while a reply
// streams in. Consumers read it through Snapshot.
type Controller struct {
	conv   Conversation
	logger *slog.Logger

	mu         sync.Mutex
	transcript []Message
	inFlight   bool
}

type Options struct {
	Conversation Conversation
	Logger       *slog.Logger

	// Greeting seeds the transcript with one synthetic model message. It
	// is never sent to the service.
	Greeting string
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		conv:   opts.Conversation,
		logger: logger,
	}
	if opts.Greeting != "" {
		c.transcript = []Message{{Role: RoleModel, Content: opts.Greeting}}
	}
	return c
}

// Snapshot returns a copy of the transcript.
func (c *Controller) Snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// SubmitTurn appends the user message, then streams the model reply into a
// placeholder entry chunk by chunk. It blocks until the turn settles. Only
// one turn may be in flight; a second submission is rejected without
// touching the transcript.
func (c *Controller) SubmitTurn(ctx context.Context, text string) error {
	return c.SubmitTurnObserved(ctx, text, nil)
}

// SubmitTurnObserved is SubmitTurn with a chunk observer, invoked after
// each chunk has landed in the transcript. The web handler uses it to
// relay SSE events.
func (c *Controller) SubmitTurnObserved(ctx context.Context, text string, onChunk func(chunk string)) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if c.conv == nil {
		return ErrNoConversation
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.inFlight = true
	c.transcript = append(c.transcript,
		Message{Role: RoleUser, Content: text},
		Message{Role: RoleModel, Content: ""},
	)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	chunks, errs := c.conv.Stream(ctx, text)
	for chunk := range chunks {
		c.growLast(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if err := <-errs; err != nil {
		c.logger.Error("chat turn failed", "err", err)
		c.replaceLast(Apology)
	}
	return nil
}

// growLast appends a chunk to the streaming placeholder, so observers see
// monotonically growing text on the last entry only.
func (c *Controller) growLast(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := len(c.transcript) - 1
	c.transcript[last].Content += chunk
}

func (c *Controller) replaceLast(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := len(c.transcript) - 1
	c.transcript[last].Content = content
}
