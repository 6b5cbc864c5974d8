package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gaochao0609/GaoAgent/internal/agent"
	"github.com/gaochao0609/GaoAgent/internal/statestore"
)

// stdinPayload is the JSON document the orchestrating backend writes on
// stdin for the run subcommand.
type stdinPayload struct {
	Prompt      string          `json:"prompt"`
	State       json.RawMessage `json:"state"`
	UserInput   string          `json:"user_input"`
	Trace       *bool           `json:"trace"`
	StreamDelta *bool           `json:"stream_delta"`
	Stream      bool            `json:"stream"`
}

// finalEvent is the single terminal NDJSON line of a run.
type finalEvent struct {
	Type     string          `json:"type"`
	Status   string          `json:"status"`
	Answer   string          `json:"answer"`
	Streamed bool            `json:"streamed"`
	Trace    string          `json:"trace,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
}

// runStdio serves one agent run over the stdio contract: one JSON
// object in, NDJSON events out, a single final line last. Gracefully
// reported run errors still exit 0; only process-level failures return
// an error.
func runStdio(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts cliOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr.
	logger := newLogger(stderr, logLevel(cfg))

	var payload stdinPayload
	if err := json.NewDecoder(stdin).Decode(&payload); err != nil && err != io.EOF {
		logger.Warn("unreadable stdin payload", "error", err)
	}

	trace := opts.trace
	if payload.Trace != nil {
		trace = *payload.Trace
	}
	streamDeltas := opts.streamDelta
	if payload.StreamDelta != nil {
		streamDeltas = *payload.StreamDelta
	}

	var store *statestore.Store
	if opts.conversation != "" {
		store, err = statestore.NewStore(cfg.StatePath())
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer store.Close()
	}

	state, err := resolveState(payload.State, store, opts.conversation)
	if err != nil {
		return err
	}

	prompt := strings.TrimSpace(payload.Prompt)
	if state != nil && payload.UserInput != "" {
		prompt = payload.UserInput
	}
	if prompt == "" && state == nil {
		prompt = defaultPrompt
	}

	loop, _, err := buildLoop(cfg, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	var emitter agent.Emitter
	if payload.Stream {
		emitter = func(e agent.Event) {
			if err := enc.Encode(e); err != nil {
				logger.Error("emit event", "error", err)
			}
		}
	}

	result, err := loop.Run(ctx, agent.Request{
		Prompt:       prompt,
		MaxTurns:     cfg.Agent.MaxTurns,
		State:        state,
		Trace:        trace,
		StreamDeltas: streamDeltas,
		Emitter:      emitter,
	})
	if err != nil {
		return fmt.Errorf("agent run: %w", err)
	}

	final := finalEvent{
		Type:     "final",
		Status:   result.Status,
		Answer:   result.Answer,
		Streamed: result.Streamed,
		Trace:    result.Trace,
	}
	if result.Status == agent.StatusInputRequired && result.State != nil {
		encoded, err := json.Marshal(result.State)
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		final.State = encoded
	}

	if err := persistState(store, opts.conversation, final); err != nil {
		logger.Error("persist conversation state", "error", err)
	}

	return enc.Encode(final)
}

// resolveState picks the resume state: an inline stdin state wins, then
// the conversation store.
func resolveState(inline json.RawMessage, store *statestore.Store, conversation string) (*agent.RunState, error) {
	raw := inline
	if len(raw) == 0 && store != nil {
		stored, err := store.Load(conversation)
		if err != nil {
			return nil, err
		}
		raw = stored
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var state agent.RunState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode saved state: %w", err)
	}
	return &state, nil
}

// persistState saves the handoff state while the conversation is
// waiting on the user, and clears it once the run completes.
func persistState(store *statestore.Store, conversation string, final finalEvent) error {
	if store == nil {
		return nil
	}
	if final.Status == agent.StatusInputRequired {
		return store.Save(conversation, final.State)
	}
	return store.Clear(conversation)
}

// runAsk handles the "gaoagent ask <question>" subcommand: a one-shot
// run printing the plain answer, for smoke tests and debugging.
func runAsk(ctx context.Context, stdout, stderr io.Writer, opts cliOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, logLevel(cfg))

	loop, _, err := buildLoop(cfg, logger)
	if err != nil {
		return err
	}

	result, err := loop.Run(ctx, agent.Request{
		Prompt:   strings.Join(args, " "),
		MaxTurns: cfg.Agent.MaxTurns,
		Trace:    opts.trace,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, result.Answer)
	if opts.trace && result.Trace != "" {
		fmt.Fprintln(stderr, result.Trace)
	}
	return nil
}

// runSkills lists the discovered skill catalog.
func runSkills(stdout io.Writer, opts cliOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, logLevel(cfg))

	_, registry, err := buildLoop(cfg, logger)
	if err != nil {
		return err
	}

	if registry.Len() == 0 {
		fmt.Fprintf(stdout, "no skills found in %s\n", cfg.SkillsDir)
		return nil
	}
	for _, name := range registry.Names() {
		desc, _ := registry.Get(name)
		fmt.Fprintf(stdout, "%-20s %s\n", name, desc.Description)
	}
	return nil
}
