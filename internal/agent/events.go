package agent

import "strings"

// Event types published while a run progresses. Delta events carry
// incremental answer text; transcript events carry Thought/Action and
// Observation lines for trace consumers.
const (
	EventDelta      = "delta"
	EventTranscript = "transcript"
)

// Transcript sources, as consumed by the chat backend.
const (
	SourceAssistant = "Assistant"
	SourceTool      = "Tool"
	SourceSystem    = "System"
)

// Event is one progress notification from a run.
type Event struct {
	Type    string `json:"type"`
	Delta   string `json:"delta,omitempty"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content,omitempty"`
}

// Emitter receives events synchronously, in order. A nil Emitter
// disables emission.
type Emitter func(Event)

func (e Emitter) transcript(source, content string) {
	if e == nil || strings.TrimSpace(content) == "" {
		return
	}
	e(Event{Type: EventTranscript, Source: source, Content: content})
}

// flushThreshold batches decoded answer characters into UI-sized
// chunks rather than emitting per rune.
const flushThreshold = 12

// deltaBatcher accumulates decoded answer text and emits it as delta
// events once a chunk is big enough or ends a line.
type deltaBatcher struct {
	emit     Emitter
	buf      strings.Builder
	streamed bool
}

func newDeltaBatcher(emit Emitter) *deltaBatcher {
	return &deltaBatcher{emit: emit}
}

// Write buffers fragment and flushes when the pending text reaches the
// threshold or the fragment ends a line.
func (b *deltaBatcher) Write(fragment string) {
	if fragment == "" {
		return
	}
	b.buf.WriteString(fragment)
	if b.buf.Len() >= flushThreshold || strings.HasSuffix(fragment, "\n") {
		b.Flush()
	}
}

// Flush emits any pending text.
func (b *deltaBatcher) Flush() {
	if b.buf.Len() == 0 {
		return
	}
	text := b.buf.String()
	b.buf.Reset()
	if b.emit != nil {
		b.streamed = true
		b.emit(Event{Type: EventDelta, Delta: text})
	}
}

// Streamed reports whether at least one delta was emitted.
func (b *deltaBatcher) Streamed() bool { return b.streamed }
