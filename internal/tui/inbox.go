package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

type notificationsLoadedMsg struct {
	items []domain.Notification
	err   error
}

type markReadMsg struct {
	id  uuid.UUID
	err error
}

// inboxModel lists staff notifications.
type inboxModel struct {
	client  *client.Client
	items   []domain.Notification
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func newInboxModel(c *client.Client) inboxModel {
	return inboxModel{client: c}
}

func (m inboxModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		items, err := c.ListNotifications(context.Background())
		return notificationsLoadedMsg{items: items, err: err}
	}
}

func (m inboxModel) unread() int {
	return domain.UnreadCount(m.items)
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
		}
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case markReadMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		for i := range m.items {
			if m.items[i].ID == msg.id {
				m.items[i].Read = true
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.items) && !m.items[m.cursor].Read {
				id := m.items[m.cursor].ID
				c := m.client
				return m, func() tea.Msg {
					return markReadMsg{id: id, err: c.MarkNotificationRead(context.Background(), id)}
				}
			}
		case "R":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m inboxModel) helpKeys() string {
	return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "mark read") + "  " + helpEntry("R", "refresh")
}

func (m inboxModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("INBOX") + "  " + metaStyle.Render(fmt.Sprintf("%d unread", m.unread())) + "\n\n")

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		return b.String()
	}
	if len(m.items) == 0 {
		b.WriteString(" " + dimStyle.Render("nothing new"))
		return b.String()
	}

	for i, n := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
		}
		dot := metaStyle.Render("○")
		title := dimStyle.Render(n.Title)
		if !n.Read {
			dot = accentStyle.Render("●")
			title = normalStyle.Bold(true).Render(n.Title)
		}
		line := cursor + dot + " " + title + "  " + metaStyle.Render(formatTime(n.CreatedAt))
		if n.Body != "" && m.width > 60 {
			line += "  " + dimStyle.Render(truncStr(oneLine(n.Body), max(m.width-lipgloss.Width(line)-4, 10)))
		}
		b.WriteString(line + "\n")
	}
	return truncateToHeight(b.String(), m.height)
}
