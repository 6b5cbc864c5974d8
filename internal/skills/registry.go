package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// DefaultTimeout is the hard wall-clock budget for one skill invocation.
const DefaultTimeout = 30 * time.Second

// maxOutputBytes caps captured skill output. Skills emit one small JSON
// object; anything larger is misbehaving.
const maxOutputBytes = 256 * 1024

// DispatchError reports a failed skill invocation. Dispatch failures
// are recoverable — the agent loop surfaces them as observations and
// continues — so they carry their own type rather than being folded
// into generic errors.
type DispatchError struct {
	Skill   string
	Message string
}

func (e *DispatchError) Error() string {
	if e.Skill == "" {
		return e.Message
	}
	return fmt.Sprintf("skill %s: %s", e.Skill, e.Message)
}

// Config configures a Registry.
type Config struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration
	// Logger receives dispatch diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Registry holds the discovered skill catalog and executes skills by
// name. The catalog is built once at startup and treated as read-only
// for the process lifetime; rebuilding requires a fresh Discover pass.
type Registry struct {
	skills  map[string]Descriptor
	names   []string // sorted iteration order
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry creates a registry over a discovered skill catalog.
func NewRegistry(catalog map[string]Descriptor, cfg Config) *Registry {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{
		skills:  catalog,
		names:   names,
		timeout: timeout,
		logger:  logger,
	}
}

// Names returns skill names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the descriptor for a name, if present.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.skills[name]
	return d, ok
}

// Len returns the number of discovered skills.
func (r *Registry) Len() int {
	return len(r.skills)
}

// invokeResult is the wire shape every skill must write to stdout:
// exactly one JSON object with an ok flag and either a result or an
// error field.
type invokeResult struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// Invoke executes the named skill: arguments are serialized as one JSON
// object on stdin, the process runs under the registry timeout, and one
// JSON object is expected on stdout. ok:false maps to a *DispatchError
// carrying the skill's error field; ok:true yields the result field's
// string value (or the whole payload when result is absent).
//
// Every failure mode — unknown name, missing script, timeout, non-zero
// exit, empty or non-JSON output — returns a *DispatchError. Invoke
// never fails the process.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]string) (string, error) {
	desc, ok := r.skills[name]
	if !ok {
		return "", &DispatchError{Skill: name, Message: "unknown skill"}
	}

	script := desc.ScriptPath()
	if _, err := os.Stat(script); err != nil {
		return "", &DispatchError{Skill: name, Message: "missing scripts/run"}
	}

	input, err := json.Marshal(args)
	if err != nil {
		return "", &DispatchError{Skill: name, Message: fmt.Sprintf("encode arguments: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script)
	cmd.Dir = desc.Dir
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	r.logger.Debug("skill invoked",
		"skill", name,
		"duration", time.Since(start),
		"error", runErr,
	)

	if ctx.Err() == context.DeadlineExceeded {
		return "", &DispatchError{Skill: name, Message: "timed out"}
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		return "", &DispatchError{Skill: name, Message: msg}
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", &DispatchError{Skill: name, Message: "no output"}
	}
	if len(output) > maxOutputBytes {
		return "", &DispatchError{Skill: name, Message: "output too large"}
	}

	var payload invokeResult
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return "", &DispatchError{Skill: name, Message: fmt.Sprintf("non-JSON output: %s", truncate(output, 200))}
	}
	if !payload.OK {
		msg := payload.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", &DispatchError{Skill: name, Message: msg}
	}
	if payload.Result == nil {
		// ok:true with no result field — return the whole payload.
		return output, nil
	}

	var s string
	if err := json.Unmarshal(payload.Result, &s); err == nil {
		return s, nil
	}
	// Non-string result: hand back its JSON form.
	return string(payload.Result), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
