package agent

import (
	"regexp"
	"strings"
)

var (
	reManyNewlines = regexp.MustCompile(`\n{3,}`)

	// Section labels the system prompt asks the model to emit. When the
	// model squeezes the whole answer onto one line, these get pulled
	// back onto their own lines for readability.
	reAdviceLabel      = regexp.MustCompile(`\s*出行建议[:：]\s*`)
	reNotesLabel       = regexp.MustCompile(`\s*注意事项[:：]\s*`)
	reAttractionsLabel = regexp.MustCompile(`\s*推荐景点[:：]\s*`)
	reFollowupLead     = regexp.MustCompile(`([。！？!?])\s*(如需|需要我)`)
	reEnumItem         = regexp.MustCompile(`(\d+[)\.、])\s*`)
)

// NormalizeAnswer cleans a decoded finish answer for display: runs of
// three or more newlines collapse to a blank line, single-line answers
// are re-broken at section labels and list items, and answers that read
// as code get fenced.
func NormalizeAnswer(text string) string {
	cleaned := reManyNewlines.ReplaceAllString(text, "\n\n")
	cleaned = formatAnswerForUI(cleaned)
	return wrapCodeBlockIfNeeded(cleaned)
}

// formatAnswerForUI only touches single-line answers; the model
// formatted anything that already has newlines.
func formatAnswerForUI(text string) string {
	if strings.Contains(text, "\n") {
		return strings.TrimSpace(text)
	}
	updated := text
	updated = reAdviceLabel.ReplaceAllString(updated, "\n\n出行建议：\n")
	updated = reNotesLabel.ReplaceAllString(updated, "\n\n注意事项：\n")
	updated = reAttractionsLabel.ReplaceAllString(updated, "\n\n推荐景点：\n")
	updated = reFollowupLead.ReplaceAllString(updated, "$1\n\n$2")
	updated = breakEnumItems(updated)
	updated = reManyNewlines.ReplaceAllString(updated, "\n\n")
	return strings.TrimSpace(updated)
}

// breakEnumItems puts "1." / "2)" / "3、" list markers on their own
// lines unless a newline already precedes them. RE2 has no lookbehind,
// so the preceding-byte check is done on the match indices.
func breakEnumItems(s string) string {
	matches := reEnumItem.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '\n' {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString("\n")
		b.WriteString(s[m[2]:m[3]])
		b.WriteString(" ")
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

var (
	reImportLine  = regexp.MustCompile(`^(import|from)\s+\w+`)
	reDefLine     = regexp.MustCompile(`^(def|class)\s+\w+`)
	reControlLine = regexp.MustCompile(`^(if|elif|else|for|while|try|except|with)\b`)
	reJSDeclLine  = regexp.MustCompile(`^(const|let|var|function|export|import)\b`)
	reAssignment  = regexp.MustCompile(`\b[A-Za-z_]\w*\s*=\s*[^=]`)

	rePyKeyword = regexp.MustCompile(`\b(import|from|def|class)\b`)
	reJSKeyword = regexp.MustCompile(`\b(const|let|var|function|export|import)\b`)
	reHTMLStart = regexp.MustCompile(`(?m)^\s*<`)
)

func isCodeLine(line string) bool {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return false
	}
	for _, p := range []string{"-", "*", "1.", "2.", "3."} {
		if strings.HasPrefix(stripped, p) {
			return false
		}
	}
	if reImportLine.MatchString(stripped) ||
		reDefLine.MatchString(stripped) ||
		reControlLine.MatchString(stripped) ||
		reJSDeclLine.MatchString(stripped) {
		return true
	}
	if strings.HasPrefix(stripped, "@") ||
		strings.HasPrefix(stripped, "#include") ||
		strings.HasPrefix(stripped, "<") {
		return true
	}
	if strings.HasSuffix(stripped, "{") ||
		strings.HasSuffix(stripped, "}") ||
		strings.HasSuffix(stripped, ";") {
		return true
	}
	return reAssignment.MatchString(stripped)
}

// looksLikeCode reports whether an answer is probably a code snippet:
// an existing fence, or enough of its lines parse as code.
func looksLikeCode(text string) bool {
	if text == "" {
		return false
	}
	if strings.Contains(text, "```") {
		return true
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return false
	}
	codeLines := 0
	for _, line := range lines {
		if isCodeLine(line) {
			codeLines++
		}
	}
	threshold := len(lines) * 4 / 10
	if threshold < 2 {
		threshold = 2
	}
	return codeLines >= threshold
}

func detectCodeLanguage(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case rePyKeyword.MatchString(lowered),
		strings.Contains(lowered, "streamlit"),
		strings.Contains(lowered, "st."):
		return "python"
	case reJSKeyword.MatchString(lowered), strings.Contains(lowered, "=>"):
		return "javascript"
	case reHTMLStart.MatchString(text):
		return "html"
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "json"
	}
	return ""
}

func wrapCodeBlockIfNeeded(text string) string {
	if !looksLikeCode(text) {
		return text
	}
	return wrapCodeBlock(text)
}

func wrapCodeBlock(text string) string {
	if text == "" || strings.Contains(text, "```") {
		return text
	}
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(detectCodeLanguage(text))
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString("\n```")
	return b.String()
}
