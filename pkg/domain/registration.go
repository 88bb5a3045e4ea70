package domain

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a member's seat at an event.
type Registration struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	EventTitle  string     `json:"event_title,omitempty"`
	UserEmail   string     `json:"user_email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	College     string     `json:"college,omitempty"`
	USN         string     `json:"usn,omitempty"`
	TicketToken string     `json:"ticket_token,omitempty"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RegisterRequest is the optional body for an event registration.
type RegisterRequest struct {
	TeamName string `json:"team_name,omitempty"`
	Note     string `json:"note,omitempty"`
}

// VerifyResult is returned by the ticket verification endpoint.
type VerifyResult struct {
	Valid            bool          `json:"valid"`
	AlreadyCheckedIn bool          `json:"already_checked_in"`
	Message          string        `json:"message,omitempty"`
	Registration     *Registration `json:"registration,omitempty"`
}
