package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a staff console notification (new registration, check-in...).
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	EventID   *uuid.UUID `json:"event_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

// UnreadCount returns how many notifications have not been read.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
