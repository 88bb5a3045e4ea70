package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vigilclub/vigil/internal/session"
	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

// loginDoneMsg carries the outcome of the login modal's submit.
type loginDoneMsg struct {
	flush session.FlushResult
	err   error
}

// profileDoneMsg carries the outcome of the profile modal's submit. err is
// the profile save error; the pending action's outcome is in result.
type profileDoneMsg struct {
	result session.ProfileResult
	err    error
}

func loginCmd(c *client.Client, sm *session.Manager, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		resp, err := c.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		flush, err := sm.LoginWithServerResponse(ctx, *resp)
		return loginDoneMsg{flush: flush, err: err}
	}
}

func profileCmd(c *client.Client, sm *session.Manager, req domain.ProfileUpdateRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		saved, err := c.UpdateProfile(ctx, req)
		if err != nil {
			return profileDoneMsg{err: err}
		}
		patch := req.Patch()
		if saved != nil {
			patch = patch.Merge(saved.ProfilePatch())
		}
		res, err := sm.CompleteProfile(ctx, patch)
		return profileDoneMsg{result: res, err: err}
	}
}

// formField is one labelled input in a modal form.
type formField struct {
	label  string
	value  string
	secret bool
}

// form is the shared state of the login and profile modals.
type form struct {
	title      string
	fields     []formField
	focus      int
	submitting bool
	err        string
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.fields[i].value)
}

// update handles navigation and editing. It reports true when the user
// asked to submit.
func (f *form) update(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
	case "shift+tab", "up":
		f.focus = (f.focus + len(f.fields) - 1) % len(f.fields)
	case "enter":
		if f.focus < len(f.fields)-1 {
			f.focus++
			return false
		}
		return true
	case "ctrl+s":
		return true
	default:
		f.fields[f.focus].value = editKey(f.fields[f.focus].value, msg)
	}
	return false
}

func (f form) View(width, height int) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render(f.title) + "\n\n")
	for i, fld := range f.fields {
		label := dimStyle.Render(fld.label)
		val := fld.value
		if fld.secret {
			val = maskSecret(val)
		}
		if i == f.focus {
			label = accentStyle.Render(fld.label)
			val = normalStyle.Render(val) + accentStyle.Render("█")
		} else {
			val = normalStyle.Render(val)
		}
		b.WriteString(label + "\n" + inputPromptStyle.Render("> ") + val + "\n\n")
	}
	switch {
	case f.submitting:
		b.WriteString(dimStyle.Render("working..."))
	case f.err != "":
		b.WriteString(errStyle.Render(f.err))
	default:
		b.WriteString(helpEntry("enter", "next/submit") + "  " + helpEntry("esc", "cancel"))
	}
	box := modalStyle.Width(min(48, max(width-6, 20))).Render(b.String())
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func newLoginForm() form {
	return form{
		title: "Sign in to continue",
		fields: []formField{
			{label: "Email"},
			{label: "Password", secret: true},
		},
	}
}

const (
	profileFullName = iota
	profilePhone
	profileCollege
	profileUSN
)

func newProfileForm(u *domain.User, missing []string) form {
	usnLabel := "USN (optional)"
	for _, m := range missing {
		if m == "usn" {
			usnLabel = "USN"
		}
	}
	f := form{
		title: "Complete your profile",
		fields: []formField{
			{label: "Full name"},
			{label: "Phone number"},
			{label: "College"},
			{label: usnLabel},
		},
	}
	if u != nil {
		f.fields[profileFullName].value = u.FullName
		f.fields[profilePhone].value = u.PhoneNumber
		f.fields[profileCollege].value = u.College
		f.fields[profileUSN].value = u.USN
		// Start on the first empty field.
		for i := range f.fields {
			if f.fields[i].value == "" {
				f.focus = i
				break
			}
		}
	}
	return f
}

func (f form) profileRequest() domain.ProfileUpdateRequest {
	return domain.ProfileUpdateRequest{
		FullName:    f.value(profileFullName),
		PhoneNumber: f.value(profilePhone),
		College:     f.value(profileCollege),
		USN:         f.value(profileUSN),
	}
}

// errorText turns an API error into a one-line message for a modal.
func errorText(err error) string {
	var herr *client.HTTPError
	if errors.As(err, &herr) {
		if herr.Message != "" {
			return herr.Message
		}
		return herr.Error()
	}
	if errors.Is(err, session.ErrInvalidToken) {
		return "the server sent an unusable token"
	}
	return err.Error()
}
