// GaoAgent is a conversational travel-assistant agent.
//
// It runs a turn-based tool loop against an OpenAI-compatible model,
// executing skills discovered from a skills directory, and exposes a
// stdio JSON/NDJSON contract for orchestrating backends plus a few CLI
// conveniences. Configuration is loaded from a single YAML file
// discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	gaoagent init [dir]          Initialize a workspace with config and bundled skills
//	gaoagent run                 Serve one agent run over stdio (JSON in, NDJSON out)
//	gaoagent ask <question>      Ask a single question (for testing)
//	gaoagent skills              List discovered skills
//	gaoagent job <submit|status> Manage media-generation jobs
//	gaoagent version             Print version and build information
//	gaoagent -o json version     Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gaochao0609/GaoAgent/internal/agent"
	"github.com/gaochao0609/GaoAgent/internal/buildinfo"
	"github.com/gaochao0609/GaoAgent/internal/config"
	"github.com/gaochao0609/GaoAgent/internal/llm"
	"github.com/gaochao0609/GaoAgent/internal/skills"
)

// defaultPrompt keeps a bare `gaoagent run` with empty stdin useful for
// smoke tests.
const defaultPrompt = "你好，请帮我查询一下今天北京的天气，然后根据天气推荐一个合适的旅游景点。"

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdin, and os.Args out of the application logic so the
// whole command surface can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// cliOptions carries the flags shared across subcommands.
type cliOptions struct {
	configPath   string
	outputFmt    string
	skillsDir    string
	maxTurns     int
	conversation string
	trace        bool
	streamDelta  bool
}

// run is the real entry point for the gaoagent command. Arguments are
// parsed by hand: the flag package relies on package-level globals,
// which makes it impossible to call run() concurrently from tests, and
// the argument surface is small enough that manual parsing stays clear.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var opts cliOptions
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			opts.configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			opts.configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-skills-dir" && i+1 < len(args):
			opts.skillsDir = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-skills-dir="):
			opts.skillsDir = strings.TrimPrefix(args[i], "-skills-dir=")
		case args[i] == "-max-turns" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid -max-turns: %q", args[i+1])
			}
			opts.maxTurns = n
			i++
		case args[i] == "-conversation" && i+1 < len(args):
			opts.conversation = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-conversation="):
			opts.conversation = strings.TrimPrefix(args[i], "-conversation=")
		case args[i] == "-trace":
			opts.trace = true
		case args[i] == "-stream-delta":
			opts.streamDelta = true
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			opts.outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			opts.outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			opts.outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if opts.outputFmt == "" {
		opts.outputFmt = "text"
	}
	if opts.outputFmt != "text" && opts.outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", opts.outputFmt)
	}

	switch command {
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "run":
		return runStdio(ctx, stdin, stdout, stderr, opts)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: gaoagent ask <question>")
		}
		return runAsk(ctx, stdout, stderr, opts, cmdArgs)
	case "skills":
		return runSkills(stdout, opts)
	case "job":
		return runJobCommand(ctx, stdout, stderr, opts, cmdArgs)
	case "version":
		return runVersion(stdout, opts.outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "GaoAgent - Conversational Travel Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: gaoagent [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  init [dir]   Initialize a workspace with config and bundled skills")
	fmt.Fprintln(w, "  run          Serve one agent run over stdio (JSON in, NDJSON out)")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  skills       List discovered skills")
	fmt.Fprintln(w, "  job          Manage media-generation jobs (submit, status)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>       Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -skills-dir <path>   Override the skills directory")
	fmt.Fprintln(w, "  -max-turns <n>       Override the turn budget")
	fmt.Fprintln(w, "  -conversation <id>   Persist/resume conversation state by id")
	fmt.Fprintln(w, "  -trace               Include the step trace in results")
	fmt.Fprintln(w, "  -stream-delta        Stream answer deltas (run command)")
	fmt.Fprintln(w, "  -o, --output fmt     Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  "+strings.Join(config.DefaultSearchPaths(), ", "))
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig loads the YAML config (or defaults when none is found) and
// applies environment overrides.
func loadConfig(opts cliOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.skillsDir != "" {
		cfg.SkillsDir = opts.skillsDir
	}
	if opts.maxTurns > 0 {
		cfg.Agent.MaxTurns = opts.maxTurns
	}
	return cfg, nil
}

// buildLoop wires the agent loop from config: skill discovery, the
// registry, and the model client.
func buildLoop(cfg *config.Config, logger *slog.Logger) (*agent.Loop, *skills.Registry, error) {
	catalog, err := skills.Discover(cfg.SkillsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("discover skills: %w", err)
	}
	registry := skills.NewRegistry(catalog, skills.Config{
		Timeout: time.Duration(cfg.Agent.SkillTimeoutSec) * time.Second,
		Logger:  logger,
	})
	client := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, logger)
	return agent.NewLoop(client, registry, logger), registry, nil
}

func logLevel(cfg *config.Config) slog.Level {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
