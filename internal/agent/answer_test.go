package agent

import (
	"strings"
	"testing"
)

func TestNormalizeAnswer_MultilineKept(t *testing.T) {
	in := "天气：晴\n\n出行建议：\n- 带伞\n\n推荐景点：\n1. 故宫"
	if got := NormalizeAnswer(in); got != in {
		t.Errorf("multiline answer changed:\n%q", got)
	}
}

func TestNormalizeAnswer_CollapsesNewlines(t *testing.T) {
	got := NormalizeAnswer("天气：晴\n\n\n\n出行建议：\n- 带伞")
	want := "天气：晴\n\n出行建议：\n- 带伞"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeAnswer_SingleLineSections(t *testing.T) {
	got := NormalizeAnswer("天气：晴,25度。 出行建议： 穿薄外套。 推荐景点： 1. 故宫 2. 颐和园")
	for _, want := range []string{
		"\n\n出行建议：\n",
		"\n\n推荐景点：\n",
		"\n1. 故宫",
		"\n2. 颐和园",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%q", want, got)
		}
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("triple newline survived:\n%q", got)
	}
}

func TestNormalizeAnswer_FollowupBreak(t *testing.T) {
	got := NormalizeAnswer("今天适合出行。如需更多信息请告诉我。")
	want := "今天适合出行。\n\n如需更多信息请告诉我。"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBreakEnumItems_SkipsAlreadyBroken(t *testing.T) {
	got := breakEnumItems("\n1. 故宫 2. 长城")
	want := "\n1. 故宫\n2. 长城"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLooksLikeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"prose", "今天天气晴朗。\n适合出行。", false},
		{"fenced", "看这个:\n```python\nprint(1)\n```", true},
		{"python body", "import os\ndef main():\n    pass", true},
		{"single line", "x = 1", false},
		{"bulleted list", "- x = 1\n- y = 2\n- z = 3", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeCode(tt.in); got != tt.want {
				t.Errorf("looksLikeCode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectCodeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"import os\ndef main():\n    pass", "python"},
		{"const f = () => 1;", "javascript"},
		{"<div>\n<p>hi</p>\n</div>", "html"},
		{"今天天气晴朗", ""},
	}
	for _, tt := range tests {
		if got := detectCodeLanguage(tt.in); got != tt.want {
			t.Errorf("detectCodeLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrapCodeBlock(t *testing.T) {
	got := wrapCodeBlock("import os\nprint(os.getcwd())")
	want := "```python\nimport os\nprint(os.getcwd())\n```"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if again := wrapCodeBlock(got); again != got {
		t.Errorf("already fenced text changed: %q", again)
	}
}
