package session

import (
	"context"
	"errors"
	"strings"
)

// ErrActionPending is returned by RequireLogin under PendingReject when a
// gated action is already waiting for login or profile completion.
var ErrActionPending = errors.New("session: another action is pending")

// DeferredAction is a user intent captured while the session could not run
// it yet. Run receives the access token current at the time it fires.
type DeferredAction struct {
	Name string
	Run  func(ctx context.Context, token string) error
}

// Action is shorthand for building a DeferredAction.
func Action(name string, run func(ctx context.Context, token string) error) *DeferredAction {
	return &DeferredAction{Name: name, Run: run}
}

// PendingPolicy decides what happens when a gated action arrives while
// another one is already pending.
type PendingPolicy int

const (
	// PendingReplace keeps the newest action and drops the older one.
	PendingReplace PendingPolicy = iota
	// PendingReject refuses the newer action with ErrActionPending.
	PendingReject
)

func (p PendingPolicy) String() string {
	if p == PendingReject {
		return "reject"
	}
	return "replace"
}

// ParsePendingPolicy maps "reject" to PendingReject; anything else is
// PendingReplace.
func ParsePendingPolicy(s string) PendingPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "reject") {
		return PendingReject
	}
	return PendingReplace
}

// GateResult is what RequireLogin did with the action.
type GateResult int

const (
	// GateLogin means the action was stored and the login modal opened.
	GateLogin GateResult = iota
	// GateProfile means the action was stored and the profile modal opened.
	GateProfile
	// GateRan means the action ran immediately.
	GateRan
	// GateRejected means another action was pending and the policy refused this one.
	GateRejected
)

func (g GateResult) String() string {
	switch g {
	case GateLogin:
		return "login"
	case GateProfile:
		return "profile"
	case GateRan:
		return "ran"
	case GateRejected:
		return "rejected"
	}
	return "unknown"
}

// FlushResult reports what a completed login did with the pending action.
type FlushResult struct {
	// Action is the name of the pending action, empty if there was none.
	Action string
	// NeedsProfile is set when the action stays pending behind the profile modal.
	NeedsProfile bool
	Ran          bool
	Err          error
}

// ProfileResult keeps the profile outcome apart from the pending action
// outcome.
type ProfileResult struct {
	Saved bool
	// Missing lists profile fields still empty after the patch. The profile
	// modal stays open and nothing runs while it is non-empty.
	Missing []string

	Action    string
	Ran       bool
	ActionErr error
}
