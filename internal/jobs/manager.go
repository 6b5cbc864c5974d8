package jobs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaochao0609/GaoAgent/internal/httpkit"
)

// Terminal job statuses. Once a job reaches one it is never mutated
// again.
const (
	StatusSubmitted = "submitted"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// streamReadTimeout bounds the whole upstream streaming call. Media
// generation can run for minutes between progress lines.
const streamReadTimeout = 5 * time.Minute

// scanner buffer sizes for upstream NDJSON lines.
const (
	scanBufSize = 64 * 1024
	scanMaxLine = 1024 * 1024
)

// Manager supervises jobs of one kind: it creates records, runs each
// job as its own goroutine streaming upstream progress into the store,
// and finalizes jobs whose upstream never sent a terminal status.
type Manager struct {
	store  *Store
	client *http.Client
	logger *slog.Logger
	group  errgroup.Group
}

// NewManager builds a manager over a job store. A nil client gets the
// shared streaming-friendly default.
func NewManager(store *Store, client *http.Client, logger *slog.Logger) *Manager {
	if client == nil {
		client = httpkit.NewClient(httpkit.WithTimeout(streamReadTimeout))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, client: client, logger: logger}
}

// NewVideoManager opens the video job store at dbPath.
func NewVideoManager(dbPath string, logger *slog.Logger) (*Manager, error) {
	store, err := NewStore(dbPath, Video)
	if err != nil {
		return nil, err
	}
	return NewManager(store, nil, logger), nil
}

// NewImageManager opens the image job store at dbPath.
func NewImageManager(dbPath string, logger *slog.Logger) (*Manager, error) {
	store, err := NewStore(dbPath, Image)
	if err != nil {
		return nil, err
	}
	return NewManager(store, nil, logger), nil
}

// CreateJob inserts a new record in the submitted state with the
// caller's parameters.
func (m *Manager) CreateJob(id string, params map[string]any) error {
	fields := map[string]any{
		"request_id": id,
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"status":     StatusSubmitted,
		"progress":   0,
	}
	for k, v := range params {
		fields[k] = v
	}
	return m.store.Insert(fields)
}

// Fetch reads one job record. Pure read, no side effects.
func (m *Manager) Fetch(id string) (Record, error) {
	return m.store.Fetch(id)
}

// Wait blocks until all supervised jobs have finished persisting.
func (m *Manager) Wait() {
	_ = m.group.Wait()
}

// Close waits for running jobs to finish persisting, then closes the
// store.
func (m *Manager) Close() error {
	m.Wait()
	return m.store.Close()
}

// RunJob supervises one job asynchronously: fire and forget. The job
// goroutine lives until the upstream stream ends; only process
// shutdown (Close) waits on it.
func (m *Manager) RunJob(ctx context.Context, id string, payload map[string]any, headers map[string]string, upstreamURL string) {
	m.group.Go(func() error {
		m.runJob(ctx, id, payload, headers, upstreamURL)
		return nil
	})
}

func (m *Manager) runJob(ctx context.Context, id string, payload map[string]any, headers map[string]string, upstreamURL string) {
	m.update(id, map[string]any{"status": StatusRunning})

	body, err := json.Marshal(payload)
	if err != nil {
		m.fail(id, fmt.Sprintf("encode payload: %v", err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		m.fail(id, fmt.Sprintf("build request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.fail(id, err.Error())
		return
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode >= 400 {
		details := httpkit.ReadErrorBody(resp.Body, 64*1024)
		m.logger.Warn("upstream error", "job", id, "status", resp.StatusCode, "details", details)
		m.fail(id, details)
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, scanBufSize), scanMaxLine)
	for scanner.Scan() {
		line := sanitizeLine(scanner.Text())
		if line == "" {
			continue
		}
		payload := parsePayload(line)
		if payload == nil {
			continue
		}
		if updates := extractUpdates(payload, m.store.Kind().ResultColumns); len(updates) > 0 {
			m.update(id, updates)
		}
	}
	if err := scanner.Err(); err != nil {
		m.fail(id, err.Error())
		return
	}

	m.completeIfNeeded(id)
}

// completeIfNeeded marks a job succeeded when the stream ended with a
// result but no terminal status line. Some upstreams omit the final
// status; the presence of a result is the only success signal left.
func (m *Manager) completeIfNeeded(id string) {
	record, err := m.store.Fetch(id)
	if err != nil {
		m.logger.Error("fetch for finalization failed", "job", id, "error", err)
		return
	}
	if record == nil || record.String("result_url") == "" {
		return
	}
	switch record.Status() {
	case StatusSucceeded, StatusFailed:
		return
	}
	m.update(id, map[string]any{"status": StatusSucceeded})
}

func (m *Manager) fail(id, details string) {
	m.update(id, map[string]any{"status": StatusFailed, "error": details})
}

func (m *Manager) update(id string, fields map[string]any) {
	if err := m.store.Update(id, fields); err != nil {
		m.logger.Error("job update failed", "job", id, "error", err)
	}
}

// BuildHeaders returns the standard upstream auth headers.
func BuildHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
}
