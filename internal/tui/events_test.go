package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vigilclub/vigil/internal/session"
	"github.com/vigilclub/vigil/pkg/domain"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedEvents(t *testing.T) eventsModel {
	t.Helper()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	m := newEventsModel(nil, session.New(session.Config{}))
	m.now = func() time.Time { return now }
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(eventsLoadedMsg{events: []domain.Event{
		{ID: uuid.New(), Title: "Heap Exploitation 101", Category: "workshop", Status: "upcoming",
			StartsAt: now.Add(2 * time.Hour), RegistrationOpen: true, Capacity: 30, Registered: 29},
		{ID: uuid.New(), Title: "Spring CTF", Category: "ctf", Status: "upcoming",
			StartsAt: now.Add(72 * time.Hour), RegistrationOpen: true},
		{ID: uuid.New(), Title: "Old Meetup", Category: "meetup", Status: "completed",
			StartsAt: now.Add(-72 * time.Hour), EndsAt: now.Add(-70 * time.Hour)},
	}})
	return m
}

func TestEventsUpcomingOnlyByDefault(t *testing.T) {
	m := loadedEvents(t)
	if len(m.shown) != 2 {
		t.Fatalf("expected 2 upcoming events, got %d", len(m.shown))
	}
	m, _ = m.Update(key("u"))
	if len(m.shown) != 3 {
		t.Errorf("after 'u' expected all 3 events, got %d", len(m.shown))
	}
}

func TestEventsFilterTyping(t *testing.T) {
	m := loadedEvents(t)
	m, _ = m.Update(key("/"))
	if !m.editing {
		t.Fatal("'/' should start filter editing")
	}
	m, _ = m.Update(key("ctf"))
	if len(m.shown) != 1 || m.shown[0].Title != "Spring CTF" {
		t.Fatalf("filter 'ctf' matched %d events", len(m.shown))
	}
	m, _ = m.Update(key("esc"))
	if m.editing || m.query != "" || len(m.shown) != 2 {
		t.Errorf("esc should clear the filter: editing=%v query=%q shown=%d", m.editing, m.query, len(m.shown))
	}
}

func TestEventsCategoryCycle(t *testing.T) {
	m := loadedEvents(t)
	m, _ = m.Update(key("c"))
	if m.category != "workshop" {
		t.Fatalf("category = %q, want workshop", m.category)
	}
	if len(m.shown) != 1 || m.shown[0].Category != "workshop" {
		t.Errorf("category filter shows %d events", len(m.shown))
	}
}

func TestNextCategoryWraps(t *testing.T) {
	c := ""
	seen := 0
	for {
		c = nextCategory(c)
		if c == "" {
			break
		}
		seen++
		if seen > len(domain.EventCategories) {
			t.Fatal("nextCategory never returned to all")
		}
	}
	if seen != len(domain.EventCategories) {
		t.Errorf("cycled through %d categories, want %d", seen, len(domain.EventCategories))
	}
	if got := nextCategory("unknown"); got != "" {
		t.Errorf("nextCategory(unknown) = %q, want all", got)
	}
}

func TestEventsDetailRegisterGates(t *testing.T) {
	m := loadedEvents(t)
	m, _ = m.Update(key("enter"))
	if !m.detail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(m.View(), "Heap Exploitation 101") {
		t.Errorf("detail view missing title:\n%s", m.View())
	}

	m, cmd := m.Update(key("r"))
	if cmd == nil {
		t.Fatal("'r' on an open event should return a gate command")
	}
	msg, ok := cmd().(gateMsg)
	if !ok {
		t.Fatalf("expected gateMsg, got %T", cmd())
	}
	if msg.result != session.GateLogin {
		t.Errorf("gate result = %v, want login", msg.result)
	}
	if snap := m.session.Snapshot(); !snap.LoginOpen || snap.Pending != "register for Heap Exploitation 101" {
		t.Errorf("session after gate: %+v", snap)
	}
}

func TestEventsRegisterClosedEvent(t *testing.T) {
	m := loadedEvents(t)
	m, _ = m.Update(key("u"))
	for m.shown[m.cursor].Title != "Old Meetup" {
		m, _ = m.Update(key("j"))
	}
	m, _ = m.Update(key("enter"))
	m, cmd := m.Update(key("r"))
	if cmd != nil {
		t.Error("closed event should not produce a command")
	}
	if m.statusMsg != "registration is closed" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestEventsAttendeesStaffOnly(t *testing.T) {
	m := loadedEvents(t)
	m, _ = m.Update(key("enter"))
	m, cmd := m.Update(key("a"))
	if cmd != nil {
		t.Error("non-staff should not fetch attendees")
	}
	if m.statusMsg != "attendee lists are staff only" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestEventLoadedReplacesEvent(t *testing.T) {
	m := loadedEvents(t)
	ev := m.shown[0]
	ev.Registered = 30
	m, _ = m.Update(eventLoadedMsg{event: &ev})
	if m.shown[0].Registered != 30 {
		t.Errorf("Registered = %d, want 30", m.shown[0].Registered)
	}
}

func TestEventsViewLoadingAndEmpty(t *testing.T) {
	m := newEventsModel(nil, session.New(session.Config{}))
	if !strings.Contains(m.View(), "loading...") {
		t.Error("expected loading state before the first load")
	}
	m, _ = m.Update(eventsLoadedMsg{})
	if !strings.Contains(m.View(), "no events found") {
		t.Errorf("expected empty state:\n%s", m.View())
	}
}
