package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vigilclub/vigil/internal/session"
	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

type eventsLoadedMsg struct {
	events []domain.Event
	err    error
}

type eventLoadedMsg struct {
	event *domain.Event
	err   error
}

type attendeesLoadedMsg struct {
	eventID   string
	attendees []domain.Registration
	err       error
}

// gateMsg reports what RequireLogin did with a gated action.
type gateMsg struct {
	action string
	result session.GateResult
	err    error
}

type eventsModel struct {
	client  *client.Client
	session *session.Manager
	now     func() time.Time

	all          []domain.Event
	shown        []domain.Event
	cursor       int
	query        string
	editing      bool // typing in the filter
	category     string
	upcomingOnly bool

	detail    bool
	attendees []domain.Registration
	showAtt   bool

	loading   bool
	err       error
	statusMsg string
	width     int
	height    int
}

func newEventsModel(c *client.Client, sm *session.Manager) eventsModel {
	return eventsModel{
		client:       c,
		session:      sm,
		now:          time.Now,
		loading:      true,
		upcomingOnly: true,
	}
}

func (m eventsModel) Init() tea.Cmd {
	return m.load()
}

func (m eventsModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		events, err := c.ListEvents(context.Background(), "")
		return eventsLoadedMsg{events: events, err: err}
	}
}

func (m eventsModel) reloadEvent(ev domain.Event) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		e, err := c.GetEvent(context.Background(), ev.ID)
		return eventLoadedMsg{event: e, err: err}
	}
}

// registerAction is the gated action behind the register key. It runs with
// whatever token is current when it finally fires.
func registerAction(c *client.Client, ev domain.Event) *session.DeferredAction {
	return session.Action("register for "+ev.Title, func(ctx context.Context, token string) error {
		if _, err := c.WithBearer(token).RegisterForEvent(ctx, ev.ID, domain.RegisterRequest{}); err != nil {
			return fmt.Errorf("register for %s: %w", ev.Title, err)
		}
		return nil
	})
}

func gateCmd(sm *session.Manager, action *session.DeferredAction) tea.Cmd {
	return func() tea.Msg {
		res, err := sm.RequireLogin(context.Background(), action)
		return gateMsg{action: action.Name, result: res, err: err}
	}
}

func (m *eventsModel) applyFilter() {
	m.shown = domain.FilterEvents(m.all, domain.EventFilter{
		Query:        m.query,
		Category:     m.category,
		UpcomingOnly: m.upcomingOnly,
		Now:          m.now(),
	})
	if m.cursor >= len(m.shown) {
		m.cursor = 0
	}
}

func (m eventsModel) selected() (domain.Event, bool) {
	if m.cursor < 0 || m.cursor >= len(m.shown) {
		return domain.Event{}, false
	}
	return m.shown[m.cursor], true
}

func (m eventsModel) Update(msg tea.Msg) (eventsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case eventsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.all = msg.events
		}
		m.applyFilter()
		return m, nil

	case eventLoadedMsg:
		if msg.err != nil || msg.event == nil {
			return m, nil
		}
		for i := range m.all {
			if m.all[i].ID == msg.event.ID {
				m.all[i] = *msg.event
			}
		}
		m.applyFilter()
		return m, nil

	case attendeesLoadedMsg:
		if ev, ok := m.selected(); !ok || ev.ID.String() != msg.eventID {
			return m, nil
		}
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("attendees: %v", msg.err)
			return m, nil
		}
		m.attendees = msg.attendees
		m.showAtt = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.editing {
			return m.updateFilter(msg)
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m eventsModel) updateFilter(msg tea.KeyMsg) (eventsModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
	case "esc":
		m.editing = false
		m.query = ""
	default:
		m.query = editKey(m.query, msg)
	}
	m.applyFilter()
	return m, nil
}

func (m eventsModel) updateList(msg tea.KeyMsg) (eventsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.shown)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.shown) > 0 {
			m.detail = true
			m.showAtt = false
			m.attendees = nil
		}
	case "/":
		m.editing = true
	case "c":
		m.category = nextCategory(m.category)
		m.cursor = 0
		m.applyFilter()
	case "u":
		m.upcomingOnly = !m.upcomingOnly
		m.cursor = 0
		m.applyFilter()
	case "R":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m eventsModel) updateDetail(msg tea.KeyMsg) (eventsModel, tea.Cmd) {
	ev, ok := m.selected()
	if !ok {
		m.detail = false
		return m, nil
	}
	switch msg.String() {
	case "esc", "backspace":
		m.detail = false
	case "r":
		if !ev.IsOpen(m.now()) {
			m.statusMsg = "registration is closed"
			return m, nil
		}
		return m, gateCmd(m.session, registerAction(m.client, ev))
	case "a":
		snap := m.session.Snapshot()
		if snap.User == nil || !snap.User.IsStaff {
			m.statusMsg = "attendee lists are staff only"
			return m, nil
		}
		if m.showAtt {
			m.showAtt = false
			return m, nil
		}
		c := m.client
		return m, func() tea.Msg {
			regs, err := c.ListRegistrations(context.Background(), ev.ID)
			return attendeesLoadedMsg{eventID: ev.ID.String(), attendees: regs, err: err}
		}
	}
	return m, nil
}

// nextCategory cycles "" → first category → ... → last → "".
func nextCategory(current string) string {
	if current == "" {
		return domain.EventCategories[0]
	}
	for i, c := range domain.EventCategories {
		if c == current {
			if i+1 < len(domain.EventCategories) {
				return domain.EventCategories[i+1]
			}
			return ""
		}
	}
	return ""
}

func (m eventsModel) helpKeys() string {
	if m.editing {
		return helpEntry("enter", "apply") + "  " + helpEntry("esc", "clear")
	}
	if m.detail {
		return helpEntry("r", "register") + "  " + helpEntry("a", "attendees") + "  " + helpEntry("esc", "back")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("/", "filter") + "  " + helpEntry("c", "category") +
		"  " + helpEntry("u", "upcoming") + "  " + helpEntry("enter", "open")
}

func (m eventsModel) View() string {
	if m.detail {
		if ev, ok := m.selected(); ok {
			return m.viewDetail(ev)
		}
	}

	var b strings.Builder

	switch {
	case m.editing:
		b.WriteString(" " + searchStyle.Render("/ "+m.query+"█"))
	case m.query != "":
		b.WriteString(" " + searchStyle.Render("/ "+m.query))
	default:
		b.WriteString(" " + dimStyle.Render("/ filter..."))
	}

	b.WriteString("   ")
	if m.category == "" {
		b.WriteString(searchStyle.Render("all"))
	} else {
		b.WriteString(dimStyle.Render("all"))
	}
	for _, c := range domain.EventCategories {
		b.WriteString("  ")
		if c == m.category {
			b.WriteString(CategoryStyle(c).Render(c))
		} else {
			b.WriteString(dimStyle.Render(c))
		}
	}
	if m.upcomingOnly {
		b.WriteString("   " + metaStyle.Render("upcoming"))
	}
	b.WriteString("\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		b.WriteString(" " + warnStyle.Render(m.statusMsg) + "\n")
	}
	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		return b.String()
	}
	if len(m.shown) == 0 {
		b.WriteString(" " + dimStyle.Render("no events found"))
		return b.String()
	}

	now := m.now()
	maxVisible := m.height - 4
	if maxVisible < 3 {
		maxVisible = 3
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	for i := start; i < len(m.shown) && i < start+maxVisible; i++ {
		ev := m.shown[i]

		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		when := metaStyle.Render(fmt.Sprintf("%-18s", formatWhen(ev.StartsAt, now)))
		seats := seatsLabel(ev, now)
		titleWidth := m.width - 2 - 19 - 12 - lipgloss.Width(seats)
		if titleWidth < 10 {
			titleWidth = 10
		}
		title := fmt.Sprintf("%-*s", titleWidth, truncStr(ev.Title, titleWidth))
		badge := CategoryBadge(ev.Category)
		badge += strings.Repeat(" ", max(11-lipgloss.Width(badge), 0))

		line := cursor + when + " " + badge + " " + titleStyle.Render(title) + seats
		if i == m.cursor {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	return truncateToHeight(b.String(), m.height)
}

func seatsLabel(ev domain.Event, now time.Time) string {
	if !ev.IsOpen(now) {
		return metaStyle.Render("closed")
	}
	left := ev.SeatsLeft()
	if left < 0 {
		return seatsStyle(left).Render("open")
	}
	return seatsStyle(left).Render(fmt.Sprintf("%d left", left))
}

func (m eventsModel) viewDetail(ev domain.Event) string {
	now := m.now()
	var b strings.Builder

	b.WriteString(" " + CategoryBadge(ev.Category) + "  " + selectedStyle.Render(ev.Title) + "\n\n")
	b.WriteString(" " + sectionHeaderStyle.Render("when   ") + normalStyle.Render(formatWhen(ev.StartsAt, now)))
	if !ev.EndsAt.IsZero() {
		b.WriteString(metaStyle.Render(" → " + ev.EndsAt.In(now.Location()).Format("15:04")))
	}
	b.WriteString("\n")
	if ev.Venue != "" {
		b.WriteString(" " + sectionHeaderStyle.Render("where  ") + normalStyle.Render(ev.Venue) + "\n")
	}
	b.WriteString(" " + sectionHeaderStyle.Render("seats  ") + seatsLabel(ev, now))
	if ev.Capacity > 0 {
		b.WriteString(metaStyle.Render(fmt.Sprintf("  (%d/%d)", ev.Registered, ev.Capacity)))
	}
	b.WriteString("\n\n")

	if ev.Description != "" {
		w := m.width - 4
		if w < 30 {
			w = 30
		}
		wrapped := lipgloss.NewStyle().Width(w).Render(ev.Description)
		for _, line := range strings.Split(wrapped, "\n") {
			b.WriteString(" " + normalStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString(" " + warnStyle.Render(m.statusMsg) + "\n")
	}

	if m.showAtt {
		b.WriteString(" " + sectionHeaderStyle.Render(fmt.Sprintf("attendees (%d)", len(m.attendees))) + "\n")
		for _, r := range m.attendees {
			mark := metaStyle.Render("·")
			if r.CheckedIn {
				mark = okStyle.Render("✓")
			}
			name := r.FullName
			if name == "" {
				name = r.UserEmail
			}
			b.WriteString("  " + mark + " " + normalStyle.Render(truncStr(name, 28)))
			if r.College != "" {
				b.WriteString("  " + metaStyle.Render(oneLine(r.College)))
			}
			b.WriteString("\n")
		}
	} else if ev.IsOpen(now) {
		b.WriteString(" " + accentStyle.Render("r") + dimStyle.Render(" to register") + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}
