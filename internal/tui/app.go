package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vigilclub/vigil/internal/session"
	"github.com/vigilclub/vigil/pkg/client"
)

type view int

const (
	viewEvents view = iota
	viewTickets
	viewVerify
	viewInbox
)

// sessionChangedMsg tells the App to re-read the session. The snapshot is
// not carried because listeners may deliver out of order.
type sessionChangedMsg struct{}

// App is the root Bubbletea model.
type App struct {
	client  *client.Client
	session *session.Manager

	view    view
	events  eventsModel
	tickets ticketsModel
	verify  verifyModel
	inbox   inboxModel

	snap    session.Snapshot
	login   form
	profile form

	helpOpen  bool
	status    string
	statusErr bool

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI. baseURL is the website root used for ticket links.
func NewApp(c *client.Client, sm *session.Manager, baseURL string) App {
	return App{
		client:  c,
		session: sm,
		events:  newEventsModel(c, sm),
		tickets: newTicketsModel(c, baseURL),
		verify:  newVerifyModel(c),
		inbox:   newInboxModel(c),
		snap:    sm.Snapshot(),
		login:   newLoginForm(),
	}
}

// Subscribe forwards session transitions to p, for changes that happen
// outside the Update loop (401 logout, expiry). Call the returned function
// before exiting.
func Subscribe(p *tea.Program, sm *session.Manager) func() {
	return sm.Subscribe(func(session.Snapshot) {
		// Never block: the listener may run on the Update goroutine.
		go p.Send(sessionChangedMsg{})
	})
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.events.Init(), shimmerTickCmd(), a.hydrate())
}

// hydrate pulls the profile fields the token does not carry.
func (a App) hydrate() tea.Cmd {
	if !a.snap.LoggedIn() {
		return nil
	}
	c, sm := a.client, a.session
	return func() tea.Msg {
		me, err := c.GetMe(context.Background())
		if err == nil && me != nil {
			sm.UpdateUser(me.ProfilePatch())
		}
		return sessionChangedMsg{}
	}
}

// syncSession re-reads the session and resets a modal form when its modal
// has just opened.
func (a *App) syncSession() tea.Cmd {
	prev := a.snap
	a.snap = a.session.Snapshot()

	if a.snap.LoginOpen && !prev.LoginOpen {
		a.login = newLoginForm()
	}
	if a.snap.ProfileOpen && !prev.ProfileOpen {
		a.profile = newProfileForm(a.snap.User, a.snap.Missing)
	}
	if prev.LoggedIn() && !a.snap.LoggedIn() {
		a.setStatus("signed out", false)
		a.tickets.regs = nil
		a.inbox.items = nil
	}
	if !prev.LoggedIn() && a.snap.LoggedIn() {
		return a.enterView(a.view)
	}
	return nil
}

func (a *App) setStatus(s string, isErr bool) {
	a.status = s
	a.statusErr = isErr
}

func (a App) isStaff() bool {
	return a.snap.User != nil && a.snap.User.IsStaff
}

// enterView switches to v and returns the loader for it, if any.
func (a *App) enterView(v view) tea.Cmd {
	a.view = v
	switch v {
	case viewTickets:
		if a.snap.LoggedIn() {
			a.tickets.loading = true
			return a.tickets.load()
		}
	case viewInbox:
		if a.isStaff() {
			a.inbox.loading = true
			return a.inbox.load()
		}
	}
	return nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewEvents:
		return a.events.editing
	case viewVerify:
		return a.isStaff()
	}
	return false
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + status(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.events, _ = a.events.Update(bodyMsg)
		a.tickets, _ = a.tickets.Update(bodyMsg)
		a.verify, _ = a.verify.Update(bodyMsg)
		a.inbox, _ = a.inbox.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionChangedMsg:
		next := a.syncSession()
		return a, next

	case gateMsg:
		cmd := a.syncSession()
		next := a.handleGate(msg)
		return a, tea.Batch(cmd, next)

	case loginDoneMsg:
		a.login.submitting = false
		if msg.err != nil {
			a.login.err = errorText(msg.err)
			return a, nil
		}
		cmd := a.syncSession()
		next := a.handleFlush(msg.flush)
		return a, tea.Batch(cmd, next)

	case profileDoneMsg:
		a.profile.submitting = false
		if msg.err != nil {
			a.profile.err = errorText(msg.err)
			next := a.syncSession()
			return a, next
		}
		cmd := a.syncSession()
		next := a.handleProfile(msg.result)
		return a, tea.Batch(cmd, next)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.helpOpen {
			switch msg.String() {
			case "h", "?", "esc", "q":
				a.helpOpen = false
			}
			return a, nil
		}
		// Modals capture all keys when open.
		if a.snap.ProfileOpen {
			return a.updateProfile(msg)
		}
		if a.snap.LoginOpen {
			return a.updateLogin(msg)
		}

		switch msg.String() {
		case "tab":
			next := a.enterView((a.view + 1) % 4)
			return a, next
		case "shift+tab":
			next := a.enterView((a.view + 3) % 4)
			return a, next
		}

		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "h", "?":
				a.helpOpen = true
				return a, nil
			case "1":
				next := a.enterView(viewEvents)
				return a, next
			case "2":
				next := a.enterView(viewTickets)
				return a, next
			case "3":
				next := a.enterView(viewVerify)
				return a, next
			case "4":
				next := a.enterView(viewInbox)
				return a, next
			case "l":
				if a.snap.LoggedIn() {
					a.session.Logout()
				} else {
					a.session.OpenLogin()
				}
				next := a.syncSession()
				return a, next
			case "p":
				a.session.OpenProfile()
				next := a.syncSession()
				return a, next
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewEvents:
		a.events, cmd = a.events.Update(msg)
	case viewTickets:
		a.tickets, cmd = a.tickets.Update(msg)
	case viewVerify:
		if _, isKey := msg.(tea.KeyMsg); !isKey || a.isStaff() {
			a.verify, cmd = a.verify.Update(msg)
		}
	case viewInbox:
		a.inbox, cmd = a.inbox.Update(msg)
	}
	// Results for views that are not active still need to land.
	switch msg.(type) {
	case eventsLoadedMsg, eventLoadedMsg:
		if a.view != viewEvents {
			a.events, _ = a.events.Update(msg)
		}
	}
	return a, cmd
}

func (a App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.login.submitting {
		return a, nil
	}
	if msg.String() == "esc" {
		had := a.snap.Pending
		a.session.DismissLogin()
		cmd := a.syncSession()
		if had != "" {
			a.setStatus("cancelled: "+had, false)
		}
		return a, cmd
	}
	a.login.err = ""
	if !a.login.update(msg) {
		return a, nil
	}
	email, password := a.login.value(0), a.login.fields[1].value
	if email == "" || password == "" {
		a.login.err = "email and password are required"
		return a, nil
	}
	a.login.submitting = true
	return a, loginCmd(a.client, a.session, email, password)
}

func (a App) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.profile.submitting {
		return a, nil
	}
	if msg.String() == "esc" {
		had := a.snap.Pending
		a.session.DismissProfile()
		cmd := a.syncSession()
		if had != "" {
			a.setStatus("cancelled: "+had, false)
		}
		return a, cmd
	}
	a.profile.err = ""
	if !a.profile.update(msg) {
		return a, nil
	}
	req := a.profile.profileRequest()
	if req.PhoneNumber == "" || req.College == "" {
		a.profile.err = "phone number and college are required"
		return a, nil
	}
	a.profile.submitting = true
	return a, profileCmd(a.client, a.session, req)
}

func (a *App) handleGate(msg gateMsg) tea.Cmd {
	switch msg.result {
	case session.GateLogin:
		a.setStatus("sign in to "+msg.action, false)
	case session.GateProfile:
		a.setStatus("complete your profile to "+msg.action, false)
	case session.GateRejected:
		a.setStatus("finish "+a.snap.Pending+" first", true)
	case session.GateRan:
		return a.actionDone(msg.action, msg.err)
	}
	return nil
}

func (a *App) handleFlush(f session.FlushResult) tea.Cmd {
	switch {
	case f.NeedsProfile:
		a.setStatus("complete your profile to "+f.Action, false)
	case f.Ran:
		return a.actionDone(f.Action, f.Err)
	default:
		if a.snap.User != nil {
			a.setStatus("signed in as "+a.snap.User.DisplayName(), false)
		}
	}
	return nil
}

func (a *App) handleProfile(r session.ProfileResult) tea.Cmd {
	if len(r.Missing) > 0 {
		a.profile.err = "still missing: " + strings.Join(r.Missing, ", ")
		return nil
	}
	if !r.Ran {
		a.setStatus("profile saved", false)
		return nil
	}
	cmd := a.actionDone(r.Action, r.ActionErr)
	a.status = "profile saved · " + a.status
	return cmd
}

// actionDone reports a gated action's outcome and refreshes what it touched.
func (a *App) actionDone(action string, err error) tea.Cmd {
	if err != nil {
		a.setStatus(errorText(err), true)
		return nil
	}
	a.setStatus("done: "+action, false)
	if ev, ok := a.events.selected(); ok {
		return a.events.reloadEvent(ev)
	}
	return nil
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo + "\n"

	who := dimStyle.Render("not signed in") + "  " + helpEntry("l", "sign in")
	if u := a.snap.User; u != nil {
		who = normalStyle.Render(u.DisplayName())
		if u.IsStaff {
			who += " " + accentStyle.Render("[staff]")
		}
		if len(a.snap.Missing) > 0 {
			who += " " + warnStyle.Render("profile incomplete")
		}
	}
	header += strings.Repeat(" ", max((a.width-lipgloss.Width(who))/2, 0)) + who

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Events", viewEvents},
		{"2", "Tickets", viewTickets},
		{"3", "Verify", viewVerify},
		{"4", "Inbox", viewInbox},
	}
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewInbox && a.inbox.unread() > 0 {
			label += " " + accentStyle.Render("●") + dimStyle.Render(fmt.Sprintf("%d", a.inbox.unread()))
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		tabBar.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}

	var body, help string
	switch a.view {
	case viewEvents:
		body = a.events.View()
		help = a.events.helpKeys()
	case viewTickets:
		if a.snap.LoggedIn() {
			body = a.tickets.View()
			help = a.tickets.helpKeys()
		} else {
			body = " " + dimStyle.Render("sign in to see your tickets") + "  " + helpEntry("l", "sign in")
		}
	case viewVerify:
		if a.isStaff() {
			body = a.verify.View()
			help = a.verify.helpKeys()
		} else {
			body = " " + dimStyle.Render("check-in is for staff accounts")
		}
	case viewInbox:
		if a.isStaff() {
			body = a.inbox.View()
			help = a.inbox.helpKeys()
		} else {
			body = " " + dimStyle.Render("the inbox is for staff accounts")
		}
	}
	if !a.isEditing() {
		if help != "" {
			help += "  "
		}
		help += helpEntry("1-4", "tabs") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}
	help = " " + help

	bodyHeight := a.height - 5
	switch {
	case a.helpOpen:
		body = helpView()
		help = " " + helpEntry("esc", "close")
	case a.snap.ProfileOpen:
		body = a.profile.View(a.width, bodyHeight)
		help = ""
	case a.snap.LoginOpen:
		body = a.login.View(a.width, bodyHeight)
		help = ""
	}

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = " " + errStyle.Render(a.status)
		} else {
			status = " " + okStyle.Render(a.status)
		}
	}

	body = strings.TrimRight(truncateToHeight(body, bodyHeight), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, status, help)
}
