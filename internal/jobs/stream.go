package jobs

import (
	"encoding/json"
	"strings"
)

// sanitizeLine strips SSE framing some upstreams add to their NDJSON
// ("data: {...}") and returns the bare JSON text, or empty when the
// line carries nothing.
func sanitizeLine(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "data:") {
		line = strings.TrimSpace(line[len("data:"):])
	}
	return line
}

// parsePayload decodes one line as a JSON object. Anything else —
// invalid JSON, arrays, scalars — returns nil; malformed lines are
// skipped, never fatal.
func parsePayload(line string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return nil
	}
	return payload
}

// extractUpdates picks the known fields out of one upstream payload:
// status, progress, failure_reason, error, and the first result
// object's designated fields mapped through resultColumns. Only fields
// actually present come back; an empty map means nothing to persist.
func extractUpdates(payload map[string]any, resultColumns map[string]string) map[string]any {
	updates := make(map[string]any)

	if status, ok := payload["status"].(string); ok {
		updates["status"] = status
	}
	if progress, ok := payload["progress"].(float64); ok {
		updates["progress"] = int(progress)
	}
	if reason, ok := payload["failure_reason"].(string); ok && reason != "" {
		updates["failure_reason"] = reason
	}
	if detail, ok := payload["error"].(string); ok && detail != "" {
		updates["error"] = detail
	}

	results, ok := payload["results"].([]any)
	if !ok || len(results) == 0 || len(resultColumns) == 0 {
		return updates
	}
	first, ok := results[0].(map[string]any)
	if !ok {
		return updates
	}
	for key, column := range resultColumns {
		if value, ok := first[key].(string); ok && value != "" {
			updates[column] = value
		}
	}
	return updates
}
