package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

type ticketsLoadedMsg struct {
	regs []domain.Registration
	err  error
}

type copyResultMsg struct{ err error }

// ticketsModel shows the signed-in member's registrations.
type ticketsModel struct {
	client    *client.Client
	baseURL   string
	regs      []domain.Registration
	cursor    int
	loading   bool
	err       error
	statusMsg string
	height    int
}

func newTicketsModel(c *client.Client, baseURL string) ticketsModel {
	return ticketsModel{client: c, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m ticketsModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		regs, err := c.MyRegistrations(context.Background())
		return ticketsLoadedMsg{regs: regs, err: err}
	}
}

// ticketURL is the link encoded in the ticket QR code.
func (m ticketsModel) ticketURL(r domain.Registration) string {
	return m.baseURL + "/verify/" + r.TicketToken + "/"
}

func (m ticketsModel) Update(msg tea.Msg) (ticketsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ticketsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.regs = msg.regs
		if m.cursor >= len(m.regs) {
			m.cursor = 0
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "ticket link copied"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.regs)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "y":
			if m.cursor < len(m.regs) && m.regs[m.cursor].TicketToken != "" {
				link := m.ticketURL(m.regs[m.cursor])
				return m, func() tea.Msg {
					return copyResultMsg{err: clipboard.WriteAll(link)}
				}
			}
		case "R":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m ticketsModel) helpKeys() string {
	return helpEntry("j/k", "nav") + "  " + helpEntry("y", "copy link") + "  " + helpEntry("R", "refresh")
}

func (m ticketsModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("YOUR TICKETS") + "\n\n")

	if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}
	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		return b.String()
	}
	if len(m.regs) == 0 {
		b.WriteString(" " + dimStyle.Render("no registrations yet, open an event and press r"))
		return b.String()
	}

	for i, r := range m.regs {
		cursor := "  "
		title := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			title = normalStyle.Bold(true)
		}
		state := metaStyle.Render("registered")
		if r.CheckedIn {
			state = okStyle.Render("checked in")
		}
		name := r.EventTitle
		if name == "" {
			name = r.EventID.String()
		}
		b.WriteString(cursor + title.Render(truncStr(name, 40)) + "  " + state + "\n")
		if i == m.cursor && r.TicketToken != "" {
			b.WriteString("    " + metaStyle.Render(m.ticketURL(r)) + "\n")
		}
	}
	return truncateToHeight(b.String(), m.height)
}
