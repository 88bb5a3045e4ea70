package domain

import (
	"testing"
	"time"
)

func TestValidCategory(t *testing.T) {
	tests := []struct {
		category string
		valid    bool
	}{
		{"workshop", true},
		{"ctf", true},
		{"hackathon", true},
		{"", false},
		{"CTF", false},
		{"party", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := ValidCategory(tt.category); got != tt.valid {
				t.Errorf("ValidCategory(%q) = %v, want %v", tt.category, got, tt.valid)
			}
		})
	}
}

func TestEventIsOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"open unlimited", Event{RegistrationOpen: true}, true},
		{"closed flag", Event{RegistrationOpen: false}, false},
		{"full", Event{RegistrationOpen: true, Capacity: 10, Registered: 10}, false},
		{"seats left", Event{RegistrationOpen: true, Capacity: 10, Registered: 9}, true},
		{"cancelled", Event{RegistrationOpen: true, Status: "cancelled"}, false},
		{"ended", Event{RegistrationOpen: true, EndsAt: now.Add(-time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.IsOpen(now); got != tt.want {
				t.Errorf("IsOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Title: "Intro to Reversing", Category: "workshop", Venue: "Lab 2", StartsAt: now.Add(24 * time.Hour)},
		{Title: "Spring CTF", Category: "ctf", Venue: "Auditorium", StartsAt: now.Add(48 * time.Hour)},
		{Title: "Past Talk", Category: "talk", Description: "web exploitation", StartsAt: now.Add(-48 * time.Hour)},
	}

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"no filter", EventFilter{}, []string{"Intro to Reversing", "Spring CTF", "Past Talk"}},
		{"category", EventFilter{Category: "ctf"}, []string{"Spring CTF"}},
		{"query title", EventFilter{Query: "reversing"}, []string{"Intro to Reversing"}},
		{"query venue", EventFilter{Query: "AUDITORIUM"}, []string{"Spring CTF"}},
		{"query description", EventFilter{Query: "exploit"}, []string{"Past Talk"}},
		{"upcoming only", EventFilter{UpcomingOnly: true, Now: now}, []string{"Intro to Reversing", "Spring CTF"}},
		{"no match", EventFilter{Query: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEvents(events, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Title != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i].Title, tt.want[i])
				}
			}
		})
	}
}

func TestUnreadCount(t *testing.T) {
	ns := []Notification{{Read: true}, {}, {}}
	if got := UnreadCount(ns); got != 2 {
		t.Errorf("UnreadCount() = %d, want 2", got)
	}
}
