// Package skills discovers and dispatches external capability providers.
//
// A skill is a directory containing a SKILL.md manifest and a
// scripts/run executable. The manifest carries simple key:value YAML
// frontmatter (name, description); the executable speaks JSON on stdin
// and stdout (see Registry.Invoke for the wire contract).
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestName is the per-skill manifest filename.
const ManifestName = "SKILL.md"

// runScript is the skill entry point, relative to the skill directory.
var runScript = filepath.Join("scripts", "run")

// Descriptor describes one discovered skill. Descriptors are immutable
// after discovery.
type Descriptor struct {
	// Name is the unique skill key, from the manifest's name field or
	// the directory name when absent.
	Name string
	// Description is the manifest's description field.
	Description string
	// Dir is the skill directory containing scripts/run.
	Dir string
}

// ScriptPath returns the path of the skill's run executable.
func (d Descriptor) ScriptPath() string {
	return filepath.Join(d.Dir, runScript)
}

// Discover scans root for skill subdirectories and returns descriptors
// keyed by name. Directories without a readable SKILL.md are skipped
// silently — a half-installed skill must not break discovery. A missing
// root yields an empty map, not an error.
func Discover(root string) (map[string]Descriptor, error) {
	found := make(map[string]Descriptor)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return found, nil
		}
		return nil, fmt.Errorf("read skills dir: %w", err)
	}

	// Sort for deterministic catalog ordering.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, entry := range names {
		dir := filepath.Join(root, entry)
		data, err := os.ReadFile(filepath.Join(dir, ManifestName))
		if err != nil {
			continue
		}

		meta := parseFrontmatter(string(data))
		name := meta["name"]
		if name == "" {
			name = entry
		}
		found[name] = Descriptor{
			Name:        name,
			Description: meta["description"],
			Dir:         dir,
		}
	}

	return found, nil
}

// parseFrontmatter extracts key:value pairs from a "---"-delimited
// frontmatter block at the start of content. Returns an empty map when
// no frontmatter is present. Blank lines and #-comments inside the
// block are ignored; values are stripped of surrounding quotes.
func parseFrontmatter(content string) map[string]string {
	lines := strings.Split(content, "\n")
	meta := make(map[string]string)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return meta
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, `'`)
		meta[strings.TrimSpace(key)] = value
	}
	return meta
}
