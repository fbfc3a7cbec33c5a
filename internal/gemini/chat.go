package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Chat is a conversation handle keeping a client-side history mirror.
// The generativelanguage API is stateless, so every turn replays the
// accumulated history.
type Chat struct {
	client *Client
	system string

	mu      sync.Mutex
	history []Message
}

func (c *Client) StartChat(systemInstruction string) *Chat {
	return &Chat{
		client: c,
		system: strings.TrimSpace(systemInstruction),
	}
}

func (ch *Chat) History() []Message {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]Message, len(ch.history))
	copy(out, ch.history)
	return out
}

// Send runs one turn and returns the full reply. The turn is recorded in
// the history only when the call succeeds.
func (ch *Chat) Send(ctx context.Context, message string) (string, error) {
	ch.mu.Lock()
	history := make([]Message, len(ch.history))
	copy(history, ch.history)
	ch.mu.Unlock()

	reply, err := ch.client.Converse(ctx, ch.system, history, message)
	if err != nil {
		return "", err
	}

	ch.record(message, reply)
	return reply, nil
}

// Stream runs one turn and delivers the reply as incremental text chunks.
// The chunk channel is closed when the stream ends; at most one error is
// sent on the error channel. A turn that errors mid-stream is not recorded
// in the history.
func (ch *Chat) Stream(ctx context.Context, message string) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	ch.mu.Lock()
	history := make([]Message, len(ch.history))
	copy(history, ch.history)
	ch.mu.Unlock()

	go func() {
		defer close(chunks)
		defer close(errs)

		reply, err := ch.client.streamGenerateContent(ctx, ch.system, history, message, chunks)
		if err != nil {
			errs <- err
			return
		}
		ch.record(message, reply)
	}()

	return chunks, errs
}

func (ch *Chat) record(message, reply string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.history = append(ch.history,
		Message{Role: "user", Text: message},
		Message{Role: "model", Text: reply},
	)
	if max := ch.client.maxHistory; max > 0 && len(ch.history) > max {
		ch.history = ch.history[len(ch.history)-max:]
	}
}

// streamGenerateContent POSTs to the SSE streaming endpoint and forwards
// each text delta to out. It returns the concatenated reply.
func (c *Client) streamGenerateContent(ctx context.Context, systemInstruction string, history []Message, message string, out chan<- string) (string, error) {
	if c.httpClient == nil {
		return "", fmt.Errorf("http client is nil")
	}

	payload := generateContentRequest{
		Contents:         buildContents(history, message),
		GenerationConfig: generationConfig{Temperature: 0.7},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &content{Role: "user", Parts: []part{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.apiVersion, c.chatModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		rawBody, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var reply strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk generateContentResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping unparsable stream chunk", "err", err)
			continue
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		for _, p := range chunk.Candidates[0].Content.Parts {
			if p.Text == "" {
				continue
			}
			reply.WriteString(p.Text)
			select {
			case out <- p.Text:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream: %w", err)
	}

	return reply.String(), nil
}
