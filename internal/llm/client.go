// Package llm provides the language-model API client.
package llm

import "context"

// Message represents a chat message for the model.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Client is the model API boundary the agent loop depends on. The loop
// never constructs HTTP requests itself — tests substitute a fake.
type Client interface {
	// Chat sends a completion request and returns the full reply text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream sends a streaming completion request. Each content
	// fragment is passed to onDelta as it arrives (when non-nil), and
	// the concatenated reply text is returned once the stream ends.
	ChatStream(ctx context.Context, messages []Message, onDelta func(string)) (string, error)
}
