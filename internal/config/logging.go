package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below [slog.LevelDebug] and carries raw model-API
// request and response payloads. At -8 it matches the spacing slog uses
// between its built-in levels. Trace output includes full prompts and
// completions, so leave it off outside of wire debugging.
const LevelTrace = slog.Level(-8)

// ParseLogLevel maps the config file's log_level string to an
// [slog.Level]. Matching is case-insensitive and ignores surrounding
// whitespace; the empty string means info. Valid values: trace, debug,
// info, warn (or warning), error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLogLevelNames is a [slog.HandlerOptions.ReplaceAttr] hook that
// labels [LevelTrace] records "TRACE". slog prints unknown levels
// relative to the nearest built-in one ("DEBUG-4"), which reads as a
// malformed debug line in grep output.
func ReplaceLogLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
