package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	bundledskills "github.com/gaochao0609/GaoAgent/skills"

	"github.com/gaochao0609/GaoAgent/internal/defaults"
)

// runInit initializes a GaoAgent working directory: the example config,
// the skills directory with the bundled skills installed, and the data
// directory for the SQLite databases. Existing files are never
// overwritten, so re-running init on a customized workspace is safe.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing GaoAgent workspace in %s\n", dir)

	for _, sub := range []string{"skills", "data"} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	}

	// 0600: the config may hold API keys.
	configPath := filepath.Join(dir, "gaoagent.yaml")
	if err := writeIfMissing(w, configPath, defaults.ConfigYAML, 0o600); err != nil {
		return err
	}

	if err := installBundledSkills(w, filepath.Join(dir, "skills")); err != nil {
		return fmt.Errorf("install skills: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit gaoagent.yaml and set your model API key (llm.api_key")
	fmt.Fprintln(w, "or the LLM_API_KEY environment variable), then try:")
	fmt.Fprintln(w, "  gaoagent ask \"北京今天适合去哪里玩？\"")
	return nil
}

// installBundledSkills copies the embedded skill directories into dest.
// embed.FS strips file modes, so scripts/run gets its executable bit
// restored explicitly.
func installBundledSkills(w io.Writer, dest string) error {
	return fs.WalkDir(bundledskills.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			return os.MkdirAll(filepath.Join(dest, filepath.FromSlash(path)), 0o755)
		}

		content, err := bundledskills.FS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", path, err)
		}

		mode := os.FileMode(0o644)
		if d.Name() == "run" {
			mode = 0o755
		}
		return writeIfMissing(w, filepath.Join(dest, filepath.FromSlash(path)), content, mode)
	})
}

// writeIfMissing writes content to path with the given mode, unless the
// file already exists. Init must never clobber user customizations.
func writeIfMissing(w io.Writer, path string, content []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			fmt.Fprintf(w, "  - %s exists, skipping\n", path)
			return nil
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "  ✓ %s\n", path)
	return nil
}
