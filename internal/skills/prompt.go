package skills

import "strings"

// PromptBlock renders the skill catalog as the XML-ish block embedded
// in the agent system prompt. Skills appear in sorted name order so the
// prompt is stable across runs.
func (r *Registry) PromptBlock() string {
	if len(r.names) == 0 {
		return "<available_skills />"
	}

	var b strings.Builder
	b.WriteString("<available_skills>")
	for _, name := range r.names {
		d := r.skills[name]
		b.WriteString("\n  <skill>")
		b.WriteString("\n    <name>" + escapeXML(d.Name) + "</name>")
		b.WriteString("\n    <description>" + escapeXML(d.Description) + "</description>")
		b.WriteString("\n  </skill>")
	}
	b.WriteString("\n</available_skills>")
	return b.String()
}

// escapeXML escapes the three characters that would break the catalog
// markup. Skill metadata is trusted local content; this is shape
// preservation, not sanitization.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
