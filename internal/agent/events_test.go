package agent

import (
	"reflect"
	"testing"
)

func TestDeltaBatcher_ThresholdFlush(t *testing.T) {
	var got []string
	b := newDeltaBatcher(func(e Event) {
		if e.Type != EventDelta {
			t.Fatalf("unexpected event type %q", e.Type)
		}
		got = append(got, e.Delta)
	})

	b.Write("短")      // 3 bytes, buffered
	b.Write("答案")    // 9 bytes total, still buffered
	b.Write("继续累积") // crosses the threshold
	b.Flush()

	want := []string{"短答案继续累积"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("deltas = %v, want %v", got, want)
	}
	if !b.Streamed() {
		t.Error("Streamed() = false after flush")
	}
}

func TestDeltaBatcher_NewlineFlush(t *testing.T) {
	var got []string
	b := newDeltaBatcher(func(e Event) { got = append(got, e.Delta) })

	b.Write("天气:\n")
	b.Write("晴")
	b.Flush()

	want := []string{"天气:\n", "晴"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("deltas = %v, want %v", got, want)
	}
}

func TestDeltaBatcher_EmptyFlushNoop(t *testing.T) {
	calls := 0
	b := newDeltaBatcher(func(Event) { calls++ })
	b.Flush()
	b.Write("")
	b.Flush()
	if calls != 0 {
		t.Errorf("emitted %d events for empty input", calls)
	}
	if b.Streamed() {
		t.Error("Streamed() = true with no output")
	}
}

func TestEmitterTranscript(t *testing.T) {
	var got []Event
	e := Emitter(func(ev Event) { got = append(got, ev) })

	e.transcript(SourceAssistant, "Action: finish(answer=\"好\")")
	e.transcript(SourceTool, "   ") // blank content dropped
	e.transcript(SourceSystem, "")

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Source != SourceAssistant || got[0].Type != EventTranscript {
		t.Errorf("unexpected event %+v", got[0])
	}

	var nilEmitter Emitter
	nilEmitter.transcript(SourceSystem, "safe on nil") // must not panic
}
