package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/gaochao0609/GaoAgent/internal/jobs"
)

// runJobCommand handles "gaoagent job submit <video|image> <prompt...>"
// and "gaoagent job status <video|image> <id>". Submit blocks until the
// upstream stream ends so the final state is persisted before exit.
func runJobCommand(ctx context.Context, stdout, stderr io.Writer, opts cliOptions, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: gaoagent job <submit|status> <video|image> [args]")
	}
	sub, kindName := args[0], args[1]

	kind, err := jobKind(kindName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, logLevel(cfg))

	store, err := jobs.NewStore(cfg.Jobs.DBPath, kind)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	manager := jobs.NewManager(store, nil, logger)
	defer manager.Close()

	switch sub {
	case "submit":
		if len(args) < 3 {
			return fmt.Errorf("usage: gaoagent job submit <video|image> <prompt>")
		}
		prompt := strings.Join(args[2:], " ")
		return submitJob(ctx, stdout, manager, cfg.Jobs.UpstreamBaseURL, cfg.Jobs.APIKey, kind, prompt)
	case "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: gaoagent job status <video|image> <id>")
		}
		return printJobStatus(stdout, manager, args[2])
	default:
		return fmt.Errorf("unknown job subcommand: %s", sub)
	}
}

func jobKind(name string) (jobs.Kind, error) {
	switch name {
	case "video":
		return jobs.Video, nil
	case "image":
		return jobs.Image, nil
	}
	return jobs.Kind{}, fmt.Errorf("unknown job kind: %q (expected video or image)", name)
}

func submitJob(ctx context.Context, stdout io.Writer, manager *jobs.Manager, baseURL, apiKey string, kind jobs.Kind, prompt string) error {
	if baseURL == "" {
		return fmt.Errorf("no upstream configured (set jobs.upstream_base_url or MEDIA_BASE_URL)")
	}

	id := uuid.NewString()
	params, endpoint := jobDefaults(kind, prompt)
	if err := manager.CreateJob(id, params); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	fmt.Fprintf(stdout, "submitted %s job %s\n", kind.Table, id)

	payload := map[string]any{}
	for k, v := range params {
		payload[k] = v
	}
	manager.RunJob(ctx, id, payload, jobs.BuildHeaders(apiKey), strings.TrimRight(baseURL, "/")+endpoint)

	// Block until the upstream stream ends so the final state is
	// persisted, then report it.
	manager.Wait()
	return printJobStatus(stdout, manager, id)
}

// jobDefaults returns the creation parameters and upstream endpoint
// for a kind.
func jobDefaults(kind jobs.Kind, prompt string) (map[string]any, string) {
	if kind.Table == jobs.Video.Table {
		return map[string]any{
			"prompt":       prompt,
			"mode":         "text-to-video",
			"aspect_ratio": "16:9",
			"duration":     8,
			"size":         "1080p",
		}, "/videos"
	}
	return map[string]any{
		"prompt":       prompt,
		"model":        "image-1",
		"aspect_ratio": "1:1",
		"image_size":   "1024x1024",
		"image_count":  1,
	}, "/images"
}

func printJobStatus(stdout io.Writer, manager *jobs.Manager, id string) error {
	record, err := manager.Fetch(id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job %s not found", id)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
