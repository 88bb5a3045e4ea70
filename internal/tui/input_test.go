package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEditRuneAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "hel", "l", "hell"},
		{"append digit", "abc", "1", "abc1"},
		{"append space", "hello", " ", "hello "},
		{"append special", "abc", "@", "abc@"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, tc.key)
			if got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneBackspace(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"backspace on single char", "a", ""},
		{"backspace on longer string", "hello", "hell"},
		{"backspace on empty does nothing", "", ""},
		{"backspace removes whole rune", "hellé", "hell"},
		{"backspace removes emoji", "hello\U0001f600", "hello"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, "backspace")
			if got != tc.want {
				t.Errorf("editRune(%q, 'backspace') = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestEditRuneIgnoresNonPrintableKeys(t *testing.T) {
	nonPrintable := []string{"enter", "esc", "up", "down", "ctrl+c", "tab", "shift+tab", "f1"}

	original := "hello"
	for _, key := range nonPrintable {
		t.Run(key, func(t *testing.T) {
			got := editRune(original, key)
			if got != original {
				t.Errorf("editRune(%q, %q) = %q, want unchanged %q", original, key, got, original)
			}
		})
	}
}

func TestEditRuneMaxInputLen(t *testing.T) {
	atLimit := strings.Repeat("a", maxInputLen)
	got := editRune(atLimit, "b")
	if got != atLimit {
		t.Errorf("editRune at limit grew to %d runes", len([]rune(got)))
	}
	if got := editRune(atLimit[1:], "b"); len(got) != maxInputLen {
		t.Errorf("editRune below limit: len = %d, want %d", len(got), maxInputLen)
	}
}

func TestEditKeyPaste(t *testing.T) {
	tests := []struct {
		name  string
		start string
		msg   tea.KeyMsg
		want  string
	}{
		{"bracketed paste", "", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("https://vigil.club/verify/abc/"), Paste: true}, "https://vigil.club/verify/abc/"},
		{"multi-rune burst", "x", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yz")}, "xyz"},
		{"paste drops newlines", "", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab\ncd\r\n"), Paste: true}, "abcd"},
		{"space key", "a", tea.KeyMsg{Type: tea.KeySpace}, "a "},
		{"single rune", "a", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")}, "ab"},
		{"backspace", "ab", tea.KeyMsg{Type: tea.KeyBackspace}, "a"},
		{"paste clamped", strings.Repeat("a", maxInputLen-2), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bcd"), Paste: true}, strings.Repeat("a", maxInputLen-2) + "bc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editKey(tc.start, tc.msg)
			if got != tc.want {
				t.Errorf("editKey(%q) = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestTruncStr(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hell…"},
		{"empty string", "", 5, ""},
		{"CJK chars", "你好世界", 3, "你好…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncStr(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncStr(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateToHeightLimitsLines(t *testing.T) {
	input := "line1\nline2\nline3\nline4\nline5\n"
	result := truncateToHeight(input, 3)

	if lines := strings.Count(result, "\n"); lines > 3 {
		t.Errorf("truncateToHeight(5 lines, 3) produced %d newlines, want <= 3", lines)
	}
	if strings.Contains(result, "line4") {
		t.Errorf("truncateToHeight result should not contain line4: %q", result)
	}
}

func TestTruncateToHeightNonPositiveMaxReturnsAll(t *testing.T) {
	input := "line1\nline2\n"
	for _, n := range []int{0, -1} {
		if got := truncateToHeight(input, n); got != input {
			t.Errorf("truncateToHeight(_, %d) = %q, want input unchanged", n, got)
		}
	}
}
