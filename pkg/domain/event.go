package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a club event (workshop, CTF, talk...).
type Event struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Venue            string    `json:"venue,omitempty"`
	Category         string    `json:"category"`
	Status           string    `json:"status"` // "upcoming", "ongoing", "completed", "cancelled"
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	Capacity         int       `json:"capacity"` // 0 = unlimited
	Registered       int       `json:"registered"`
	RegistrationOpen bool      `json:"registration_open"`
	PosterURL        string    `json:"poster_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Known event categories, in display order.
var EventCategories = []string{
	"workshop",
	"ctf",
	"talk",
	"meetup",
	"hackathon",
}

// ValidCategory returns true if the category is a known event category.
func ValidCategory(c string) bool {
	for _, known := range EventCategories {
		if known == c {
			return true
		}
	}
	return false
}

// SeatsLeft returns the remaining capacity, or -1 when unlimited.
func (e Event) SeatsLeft() int {
	if e.Capacity <= 0 {
		return -1
	}
	left := e.Capacity - e.Registered
	if left < 0 {
		return 0
	}
	return left
}

// IsOpen reports whether a registration can be submitted at now.
func (e Event) IsOpen(now time.Time) bool {
	if !e.RegistrationOpen || e.Status == "cancelled" || e.Status == "completed" {
		return false
	}
	if !e.EndsAt.IsZero() && now.After(e.EndsAt) {
		return false
	}
	return e.SeatsLeft() != 0
}

// EventFilter narrows an already-fetched event list.
type EventFilter struct {
	Query        string
	Category     string
	UpcomingOnly bool
	Now          time.Time
}

// FilterEvents returns the events matching f, preserving order.
// Query matches title, venue and description case-insensitively.
func FilterEvents(events []Event, f EventFilter) []Event {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.UpcomingOnly && !e.StartsAt.IsZero() && e.StartsAt.Before(f.Now) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.Venue), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}
