// Package agent implements the turn-based task-execution loop: model
// call, action parsing, dependency-checked skill dispatch, and
// streaming decode of the final answer.
package agent

// finishPrefix is the literal that opens the quoted answer payload in a
// finish action.
const finishPrefix = `finish(answer="`

// decodeEscape maps the character following a backslash inside a quoted
// answer to its decoded form. Unknown escapes decode to the literal
// character.
func decodeEscape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '"':
		return '"'
	case '\\':
		return '\\'
	default:
		return ch
	}
}

// AnswerDecoder recognizes the finish-answer payload inside a live
// model token stream and re-emits only the decoded answer content,
// fragment by fragment, without buffering the response.
//
// It is a character-level state machine: match the finishPrefix literal
// (with restart recovery on mismatch), then emit decoded characters
// until the closing unescaped quote. A decoder is single-session — once
// done it stays silent; each streamed turn uses a fresh instance.
type AnswerDecoder struct {
	emit      func(string)
	prefixIdx int
	inAnswer  bool
	escaped   bool
	done      bool
}

// NewAnswerDecoder creates a decoder that forwards decoded answer text
// to emit as soon as it is available.
func NewAnswerDecoder(emit func(string)) *AnswerDecoder {
	return &AnswerDecoder{emit: emit}
}

// Done reports whether the closing quote has been seen.
func (d *AnswerDecoder) Done() bool {
	return d.done
}

// Feed advances the state machine over one stream fragment. Fragment
// boundaries are arbitrary — the prefix and escape pairs may be split
// across calls.
func (d *AnswerDecoder) Feed(fragment string) {
	if d.done || fragment == "" {
		return
	}
	for _, ch := range fragment {
		if d.done {
			return
		}
		if !d.inAnswer {
			if ch == rune(finishPrefix[d.prefixIdx]) {
				d.prefixIdx++
				if d.prefixIdx == len(finishPrefix) {
					d.inAnswer = true
					d.prefixIdx = 0
				}
				continue
			}
			// Mismatch mid-prefix: the current character may itself
			// restart the match.
			if ch == rune(finishPrefix[0]) {
				d.prefixIdx = 1
			} else {
				d.prefixIdx = 0
			}
			continue
		}
		if d.escaped {
			d.escaped = false
			d.emit(string(decodeEscape(ch)))
			continue
		}
		if ch == '\\' {
			d.escaped = true
			continue
		}
		if ch == '"' {
			d.done = true
			d.inAnswer = false
			continue
		}
		d.emit(string(ch))
	}
}
