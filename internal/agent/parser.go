package agent

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Parse failures fall into two classes: a reply with no Action marker
// at all, and a reply whose action cannot be read as either a finish or
// a name(args) tool call. Both are fatal to the run.
var (
	// ErrNoAction means the model reply contains no "Action:" marker.
	ErrNoAction = errors.New("no Action marker in model output")

	// ErrMalformedFinish means a finish action without a readable
	// quoted answer payload.
	ErrMalformedFinish = errors.New("malformed finish action")

	// ErrMalformedToolCall means an action that is neither finish nor
	// a well-formed name(args) call.
	ErrMalformedToolCall = errors.New("malformed tool call")
)

// Action is the structured directive parsed from one model reply:
// either a finish with the decoded answer, or one tool call with its
// named string arguments. An Action is derived from exactly one reply
// and never modified afterwards — the loop copies Args before
// backfilling.
type Action struct {
	// Finish is true for finish(answer=...) actions; Answer then holds
	// the escape-decoded payload.
	Finish bool
	Answer string

	// Tool and Args are set for tool invocations.
	Tool string
	Args map[string]string

	// Raw is the action text as written by the model, for transcripts.
	Raw string
}

// TruncateThoughtAction keeps only the first Thought/Action pair of a
// model reply. Over-generating models sometimes emit several pairs or a
// fabricated Observation; everything from the next marker line onward
// is discarded. A reply without a recognizable pair is returned
// trimmed.
func TruncateThoughtAction(output string) string {
	ti := indexLineMarker(output, "Thought:")
	if ti < 0 {
		return strings.TrimSpace(output)
	}
	rest := output[ti+len("Thought:"):]
	ai := indexLineMarker(rest, "Action:")
	if ai < 0 {
		return strings.TrimSpace(output)
	}
	body := rest[ai+len("Action:"):]

	cut := len(body)
	for _, marker := range []string{"Thought:", "Action:", "Observation:"} {
		if idx := indexLineMarker(body, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(output[ti : ti+len("Thought:")+ai+len("Action:")+cut])
}

// indexLineMarker finds the first occurrence of marker that starts a
// line: only indentation separates it from the previous newline or the
// start of the string. Returns -1 when no such occurrence exists.
func indexLineMarker(s, marker string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], marker)
		if idx < 0 {
			return -1
		}
		idx += from
		if atLineStart(s, idx) {
			return idx
		}
		from = idx + len(marker)
	}
}

func atLineStart(s string, idx int) bool {
	for j := idx - 1; j >= 0; j-- {
		switch s[j] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// ParseAction extracts the Action from a (truncated) model reply.
// Line-anchored markers win; a reply with only an inline "Action:" is
// still read rather than rejected.
func ParseAction(output string) (*Action, error) {
	idx := indexLineMarker(output, "Action:")
	if idx < 0 {
		idx = strings.Index(output, "Action:")
	}
	if idx < 0 {
		return nil, ErrNoAction
	}
	raw := strings.TrimSpace(output[idx+len("Action:"):])

	if strings.HasPrefix(strings.ToLower(raw), "finish") {
		answer, ok := parseFinishAnswer(raw)
		if !ok {
			return nil, ErrMalformedFinish
		}
		return &Action{Finish: true, Answer: answer, Raw: raw}, nil
	}

	tool, args, ok := parseToolCall(raw)
	if !ok {
		return nil, ErrMalformedToolCall
	}
	return &Action{Tool: tool, Args: args, Raw: raw}, nil
}

// parseFinishAnswer decodes the quoted payload of a finish action using
// the same state machine as the streaming decoder, so batch and
// streamed turns agree on the answer boundary. Returns ok=false when
// the finish prefix or the closing quote is missing.
func parseFinishAnswer(raw string) (string, bool) {
	var b strings.Builder
	d := NewAnswerDecoder(func(s string) { b.WriteString(s) })
	d.Feed(raw)
	if !d.Done() {
		return "", false
	}
	return b.String(), true
}

// parseToolCall splits "name(key="value", ...)" into the tool name and
// its argument map. The name is the identifier run immediately before
// the first parenthesis; arguments are scanned explicitly rather than
// by regex so truncated or oddly spaced calls have well-defined
// handling. Returns ok=false when the shape is unusable (no
// parenthesis, no closing parenthesis, or an empty name).
func parseToolCall(raw string) (string, map[string]string, bool) {
	open := strings.IndexByte(raw, '(')
	if open <= 0 {
		return "", nil, false
	}
	close := strings.LastIndexByte(raw, ')')
	if close < open {
		return "", nil, false
	}

	name := identifierBefore(raw, open)
	if name == "" {
		return "", nil, false
	}

	return name, scanKwargs(raw[open+1 : close]), true
}

// identifierBefore returns the run of identifier characters ending just
// before position end.
func identifierBefore(s string, end int) string {
	start := end
	for start > 0 && isIdentChar(s[start-1]) {
		start--
	}
	return s[start:end]
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// scanKwargs reads key="value" pairs from an argument list. Values are
// double-quoted; a backslash escapes the next character using the
// shared escape table. Anything that doesn't fit the pair shape is
// skipped — tolerant parsing, since the text comes from a model.
func scanKwargs(s string) map[string]string {
	args := make(map[string]string)
	i := 0
	for i < len(s) {
		// Find the start of an identifier.
		for i < len(s) && !isIdentChar(s[i]) {
			i++
		}
		start := i
		for i < len(s) && isIdentChar(s[i]) {
			i++
		}
		if start == i {
			break
		}
		key := s[start:i]

		// Expect ="..." possibly with spaces around the equals.
		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) || s[j] != '=' {
			continue
		}
		j++
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) || s[j] != '"' {
			continue
		}
		j++

		var val strings.Builder
		closed := false
		for j < len(s) {
			ch, size := utf8.DecodeRuneInString(s[j:])
			j += size
			if ch == '\\' && j < len(s) {
				next, nsize := utf8.DecodeRuneInString(s[j:])
				j += nsize
				val.WriteRune(decodeEscape(next))
				continue
			}
			if ch == '"' {
				closed = true
				break
			}
			val.WriteRune(ch)
		}
		if closed {
			args[key] = val.String()
		}
		i = j
	}
	return args
}
