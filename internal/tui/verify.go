package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

const verifyHistory = 8

type verifyResultMsg struct {
	token  string
	result *domain.VerifyResult
	err    error
}

type clipboardReadMsg struct {
	text string
	err  error
}

type verifyEntry struct {
	token  string
	result *domain.VerifyResult
	err    error
	at     time.Time
}

// verifyModel is the staff check-in desk. Scanner output or a pasted
// ticket URL goes into a single input; enter verifies it.
type verifyModel struct {
	client    *client.Client
	input     string
	checking  bool
	history   []verifyEntry
	statusMsg string
	width     int
	height    int
}

func newVerifyModel(c *client.Client) verifyModel {
	return verifyModel{client: c}
}

func readClipboard() tea.Msg {
	text, err := clipboard.ReadAll()
	return clipboardReadMsg{text: text, err: err}
}

func (m verifyModel) verify(token string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		res, err := c.VerifyTicket(context.Background(), token)
		return verifyResultMsg{token: token, result: res, err: err}
	}
}

func (m verifyModel) Update(msg tea.Msg) (verifyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clipboardReadMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("paste failed: %v", msg.err)
			return m, nil
		}
		m.input = appendPaste(m.input, strings.TrimSpace(msg.text))
		return m, nil

	case verifyResultMsg:
		m.checking = false
		m.history = append([]verifyEntry{{token: msg.token, result: msg.result, err: msg.err, at: time.Now()}}, m.history...)
		if len(m.history) > verifyHistory {
			m.history = m.history[:verifyHistory]
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "ctrl+v":
			return m, readClipboard
		case "esc":
			m.input = ""
			return m, nil
		case "enter":
			if m.checking {
				return m, nil
			}
			token, err := domain.ParseTicketToken(m.input)
			if err != nil {
				m.statusMsg = "no ticket in input"
				return m, nil
			}
			m.input = ""
			m.checking = true
			return m, m.verify(token)
		default:
			m.input = editKey(m.input, msg)
		}
	}
	return m, nil
}

func (m verifyModel) helpKeys() string {
	return helpEntry("enter", "verify") + "  " + helpEntry("ctrl+v", "paste") + "  " + helpEntry("esc", "clear") + "  " + helpEntry("tab", "next tab")
}

func (m verifyModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("CHECK-IN") + "  " + dimStyle.Render("scan a ticket QR or paste its link") + "\n\n")

	b.WriteString(" " + inputPromptStyle.Render("> "))
	if m.input == "" {
		b.WriteString(inputPlaceholderStyle.Render("https://…/verify/<token>/") + accentStyle.Render("█"))
	} else {
		b.WriteString(normalStyle.Render(m.input) + accentStyle.Render("█"))
	}
	b.WriteString("\n")

	if m.checking {
		b.WriteString(" " + dimStyle.Render("checking...") + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(" " + warnStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n")

	for _, e := range m.history {
		b.WriteString(" " + renderVerifyEntry(e) + "\n")
	}
	return truncateToHeight(b.String(), m.height)
}

func renderVerifyEntry(e verifyEntry) string {
	stamp := metaStyle.Render(e.at.Format("15:04:05"))
	tok := dimStyle.Render(truncStr(e.token, 12))

	if e.err != nil {
		var herr *client.HTTPError
		msg := e.err.Error()
		if errors.As(e.err, &herr) {
			msg = herr.Message
		}
		return stamp + "  " + errStyle.Render("✗") + " " + tok + "  " + errStyle.Render(truncStr(msg, 60))
	}

	r := e.result
	who := ""
	if r.Registration != nil {
		who = r.Registration.FullName
		if r.Registration.EventTitle != "" {
			who += " · " + r.Registration.EventTitle
		}
	}
	switch {
	case r.Valid && r.AlreadyCheckedIn:
		return stamp + "  " + warnStyle.Render("!") + " " + tok + "  " + warnStyle.Render("already checked in") + "  " + normalStyle.Render(who)
	case r.Valid:
		return stamp + "  " + okStyle.Render("✓") + " " + tok + "  " + normalStyle.Render(who)
	}
	msg := r.Message
	if msg == "" {
		msg = "invalid ticket"
	}
	return stamp + "  " + errStyle.Render("✗") + " " + tok + "  " + errStyle.Render(msg)
}
