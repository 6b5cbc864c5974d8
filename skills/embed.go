// Package bundledskills provides embedded copies of the shipped skill
// directories for use by the init subcommand. This package exists solely
// to satisfy go:embed's requirement that embedded files reside in or
// below the embedding package directory.
//
// The runtime skill loader lives in internal/skills.
package bundledskills

import "embed"

// FS contains the shipped skills: one directory per skill holding a
// SKILL.md manifest and a scripts/run executable. embed.FS does not
// carry file modes, so installers must restore the executable bit on
// scripts/run themselves.
//
//go:embed */SKILL.md */scripts/run
var FS embed.FS
