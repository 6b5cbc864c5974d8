package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

// clearUmask sets the process umask to 0 so file permission assertions
// are deterministic. It restores the original umask when the test
// completes.
func clearUmask(t *testing.T) {
	t.Helper()
	old := syscall.Umask(0)
	t.Cleanup(func() { syscall.Umask(old) })
}

func TestRunInit_FreshDirectory(t *testing.T) {
	clearUmask(t)
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	for _, sub := range []string{"skills", "data"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil {
			t.Errorf("expected directory %s: %v", sub, err)
		} else if !info.IsDir() {
			t.Errorf("%s is not a directory", sub)
		}
	}

	cfgInfo, err := os.Stat(filepath.Join(dir, "gaoagent.yaml"))
	if err != nil {
		t.Fatalf("gaoagent.yaml not created: %v", err)
	}
	if got := cfgInfo.Mode().Perm(); got != 0o600 {
		t.Errorf("gaoagent.yaml permissions = %o, want 0600", got)
	}

	for _, skill := range []string{"get-weather", "get-local-time", "get-attraction"} {
		manifest := filepath.Join(dir, "skills", skill, "SKILL.md")
		if _, err := os.Stat(manifest); err != nil {
			t.Errorf("skill %s: manifest not installed: %v", skill, err)
		}

		script := filepath.Join(dir, "skills", skill, "scripts", "run")
		info, err := os.Stat(script)
		if err != nil {
			t.Errorf("skill %s: script not installed: %v", skill, err)
			continue
		}
		if got := info.Mode().Perm(); got != 0o755 {
			t.Errorf("skill %s: script permissions = %o, want 0755", skill, got)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "✓") {
		t.Error("output missing ✓ marker for created files")
	}
	if !strings.Contains(out, "gaoagent.yaml") {
		t.Error("output missing gaoagent.yaml")
	}
}

func TestRunInit_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}

	sentinel := []byte("# keep me\n")
	if err := os.WriteFile(filepath.Join(dir, "gaoagent.yaml"), sentinel, 0o600); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	buf.Reset()
	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("second runInit failed: %v", err)
	}

	if !strings.Contains(buf.String(), "exists, skipping") {
		t.Error("output missing 'exists, skipping' for pre-existing files")
	}

	got, err := os.ReadFile(filepath.Join(dir, "gaoagent.yaml"))
	if err != nil {
		t.Fatalf("read gaoagent.yaml after second run: %v", err)
	}
	if !bytes.Equal(got, sentinel) {
		t.Errorf("gaoagent.yaml was overwritten: got %q", got)
	}
}

func TestWriteIfMissing(t *testing.T) {
	clearUmask(t)
	tests := []struct {
		name       string
		preExist   bool
		mode       os.FileMode
		wantMarker string
	}{
		{name: "creates with 0600", mode: 0o600, wantMarker: "✓"},
		{name: "creates with 0755", mode: 0o755, wantMarker: "✓"},
		{name: "skips existing", preExist: true, mode: 0o644, wantMarker: "exists, skipping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "testfile")
			data := []byte("hello")

			if tt.preExist {
				if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
					t.Fatalf("setup: %v", err)
				}
			}

			var buf bytes.Buffer
			if err := writeIfMissing(&buf, path, data, tt.mode); err != nil {
				t.Fatalf("writeIfMissing: %v", err)
			}
			if !strings.Contains(buf.String(), tt.wantMarker) {
				t.Errorf("output = %q, want marker %q", buf.String(), tt.wantMarker)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if tt.preExist {
				if string(got) != "original" {
					t.Errorf("pre-existing file was overwritten: got %q", got)
				}
				return
			}
			if !bytes.Equal(got, data) {
				t.Errorf("content = %q, want %q", got, data)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if perm := info.Mode().Perm(); perm != tt.mode {
				t.Errorf("permissions = %o, want %o", perm, tt.mode)
			}
		})
	}
}

func TestRunInit_InstalledSkillsAreDiscoverable(t *testing.T) {
	dir := t.TempDir()
	if err := runInit(io.Discard, dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	var buf bytes.Buffer
	opts := cliOptions{skillsDir: filepath.Join(dir, "skills")}
	if err := runSkills(&buf, opts); err != nil {
		t.Fatalf("runSkills failed: %v", err)
	}

	out := buf.String()
	for _, skill := range []string{"get-weather", "get-local-time", "get-attraction"} {
		if !strings.Contains(out, skill) {
			t.Errorf("skills listing missing %s:\n%s", skill, out)
		}
	}
}
