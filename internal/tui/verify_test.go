package tui

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

func TestVerifyEnterParsesTicketURL(t *testing.T) {
	m := newVerifyModel(nil)
	m, _ = m.Update(clipboardReadMsg{text: "  https://vigil.example/verify/abc123/ \n"})
	if m.input != "https://vigil.example/verify/abc123/" {
		t.Fatalf("input = %q", m.input)
	}
	m, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("expected verify command")
	}
	if !m.checking || m.input != "" {
		t.Errorf("after enter: checking=%v input=%q", m.checking, m.input)
	}
	// A second enter while checking does nothing.
	if _, again := m.Update(key("enter")); again != nil {
		t.Error("enter while checking should be ignored")
	}
}

func TestVerifyEmptyInput(t *testing.T) {
	m := newVerifyModel(nil)
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("empty input should not verify")
	}
	if m.statusMsg != "no ticket in input" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestVerifyClipboardError(t *testing.T) {
	m := newVerifyModel(nil)
	m, _ = m.Update(clipboardReadMsg{err: errors.New("no xclip")})
	if !strings.Contains(m.statusMsg, "paste failed") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestVerifyHistory(t *testing.T) {
	m := newVerifyModel(nil)
	m.checking = true
	m, _ = m.Update(verifyResultMsg{token: "t1", result: &domain.VerifyResult{
		Valid:        true,
		Registration: &domain.Registration{FullName: "Ada Lovelace", EventTitle: "Spring CTF"},
	}})
	if m.checking {
		t.Error("result should clear checking")
	}
	for i := 0; i < verifyHistory+2; i++ {
		m, _ = m.Update(verifyResultMsg{token: "t", err: &client.HTTPError{StatusCode: http.StatusNotFound, Message: "ticket not found"}})
	}
	if len(m.history) != verifyHistory {
		t.Errorf("history length = %d, want %d", len(m.history), verifyHistory)
	}
	if !strings.Contains(m.View(), "ticket not found") {
		t.Errorf("view should show the API message:\n%s", m.View())
	}
}

func TestRenderVerifyEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry verifyEntry
		want  string
	}{
		{"valid", verifyEntry{token: "a", result: &domain.VerifyResult{Valid: true, Registration: &domain.Registration{FullName: "Ada"}}}, "✓"},
		{"already checked in", verifyEntry{token: "a", result: &domain.VerifyResult{Valid: true, AlreadyCheckedIn: true}}, "already checked in"},
		{"invalid", verifyEntry{token: "a", result: &domain.VerifyResult{}}, "invalid ticket"},
		{"error", verifyEntry{token: "a", err: errors.New("dial tcp: refused")}, "dial tcp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderVerifyEntry(tc.entry); !strings.Contains(got, tc.want) {
				t.Errorf("renderVerifyEntry = %q, want it to contain %q", got, tc.want)
			}
		})
	}
}

func TestVerifyEscClears(t *testing.T) {
	m := newVerifyModel(nil)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	m, _ = m.Update(key("esc"))
	if m.input != "" {
		t.Errorf("input = %q after esc", m.input)
	}
}
