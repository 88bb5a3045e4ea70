package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 512

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// appendPaste appends pasted text, clamped to maxInputLen runes.
func appendPaste(text, paste string) string {
	for _, r := range paste {
		if r == '\n' || r == '\r' {
			continue
		}
		if utf8.RuneCountInString(text) >= maxInputLen {
			break
		}
		text += string(r)
	}
	return text
}

// editKey applies a key message to text: bracketed pastes and multi-rune
// input are appended whole, everything else goes through editRune.
func editKey(text string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes && (msg.Paste || len(msg.Runes) > 1) {
		return appendPaste(text, string(msg.Runes))
	}
	if msg.Type == tea.KeySpace {
		return editRune(text, " ")
	}
	return editRune(text, msg.String())
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
