package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaoagent.yaml")
	content := `
skills_dir: /opt/skills
llm:
  model: test-model
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SkillsDir != "/opt/skills" {
		t.Errorf("SkillsDir = %q, want /opt/skills", cfg.SkillsDir)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("LLM.Model = %q, want test-model", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLM.BaseURL = %q, want default", cfg.LLM.BaseURL)
	}
	if cfg.Agent.MaxTurns != 5 {
		t.Errorf("Agent.MaxTurns = %d, want 5", cfg.Agent.MaxTurns)
	}
	if cfg.Agent.SkillTimeoutSec != 30 {
		t.Errorf("Agent.SkillTimeoutSec = %d, want 30", cfg.Agent.SkillTimeoutSec)
	}
	if cfg.Jobs.DBPath != filepath.Join(".", "jobs.db") {
		t.Errorf("Jobs.DBPath = %q, want ./jobs.db", cfg.Jobs.DBPath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "key-from-env")
	t.Setenv("OPENAI_API_KEY", "shadowed")
	t.Setenv("LLM_BASE_URL", "http://localhost:8000/v1")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("OPENAI_MODEL", "fallback-model")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.LLM.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want key-from-env", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://localhost:8000/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "fallback-model" {
		t.Errorf("Model = %q, want fallback-model (OPENAI_MODEL fallback)", cfg.LLM.Model)
	}
}

func TestLoadOrDefault_NoFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Agent.MaxTurns != 5 {
		t.Errorf("MaxTurns = %d, want default 5", cfg.Agent.MaxTurns)
	}

	// An explicit but missing path is an error.
	if _, err := LoadOrDefault(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing path")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"TRACE", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"  Error  ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
