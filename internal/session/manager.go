// Package session owns the signed-in state of the client: the token pair,
// the user derived from it, the login and profile modals, and the single
// gated action waiting on either of them.
//
// All state changes happen under one mutex and listeners are told about
// them afterwards. Gated actions always run outside the lock, on the
// goroutine that asked for them.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vigilclub/vigil/internal/log"
	"github.com/vigilclub/vigil/internal/tokenstore"
	"github.com/vigilclub/vigil/pkg/domain"
)

// ErrNotAuthenticated is reported when a profile is completed without a
// session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

const signOutTimeout = 10 * time.Second

// Config configures a Manager.
type Config struct {
	Store *tokenstore.Store

	// RequireUSN adds USN to the profile completeness rule.
	RequireUSN    bool
	PendingPolicy PendingPolicy

	// SignOut tells the backend the session is over. It runs in the
	// background after Logout; failures are only logged.
	SignOut func(ctx context.Context, tokens domain.Tokens) error

	Now    func() time.Time
	Logger *log.Logger
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	Token       string
	User        *domain.User
	LoginOpen   bool
	ProfileOpen bool
	// Pending is the name of the pending action, empty if none.
	Pending    string
	HasPending bool
	// Missing lists the profile fields still required, nil when logged out.
	Missing []string
}

// LoggedIn reports whether a user is present.
func (s Snapshot) LoggedIn() bool { return s.User != nil }

// Manager is the session state container. Construct it once and pass it to
// whatever needs the session.
type Manager struct {
	store      *tokenstore.Store
	requireUSN bool
	policy     PendingPolicy
	signOut    func(ctx context.Context, tokens domain.Tokens) error
	now        func() time.Time
	logger     *log.Logger

	mu          sync.Mutex
	tokens      domain.Tokens
	expiresAt   time.Time
	user        *domain.User
	loginOpen   bool
	profileOpen bool
	pending     *DeferredAction

	listeners map[int]func(Snapshot)
	nextID    int

	signOuts sync.WaitGroup
}

// New creates a logged-out Manager. Call Initialize to restore a stored
// session.
func New(cfg Config) *Manager {
	if cfg.Store == nil {
		cfg.Store = tokenstore.New(tokenstore.NewMemoryBackend(), cfg.Logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Manager{
		store:      cfg.Store,
		requireUSN: cfg.RequireUSN,
		policy:     cfg.PendingPolicy,
		signOut:    cfg.SignOut,
		now:        cfg.Now,
		logger:     cfg.Logger.With("component", "session"),
		listeners:  make(map[int]func(Snapshot)),
	}
}

// Initialize restores the stored session by decoding the token locally.
// An undecodable or expired token clears the store and leaves the manager
// logged out.
func (m *Manager) Initialize(ctx context.Context) {
	tokens := m.store.Load()
	if tokens.Empty() {
		return
	}

	claims, err := DecodeClaims(tokens.Access)
	if err != nil {
		m.logger.WithError(err).Info("discarding stored token")
		m.store.Clear()
		return
	}
	if claims.Expired(m.now()) {
		m.logger.Info("stored token expired", "email", claims.Email)
		m.store.Clear()
		return
	}

	u := claims.User()
	m.mu.Lock()
	m.tokens = tokens
	m.expiresAt = claims.ExpiresAt.Time
	m.user = &u
	m.mu.Unlock()

	m.logger.Debug("session restored", "email", u.Email)
	m.emit()
}

// Snapshot returns the current state. A token that expired since the last
// read is cleared first.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	expired := m.expireLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	if expired {
		m.emit()
	}
	return snap
}

// AccessToken returns the current bearer token, or "" when logged out.
func (m *Manager) AccessToken() string {
	return m.Snapshot().Token
}

// Subscribe registers fn to receive a snapshot after every transition.
// The returned function removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// RequireLogin runs action now if the user is signed in with a complete
// profile. Otherwise it parks the action and opens the login or profile
// modal. An error from the action is returned as is and leaves the session
// untouched.
func (m *Manager) RequireLogin(ctx context.Context, action *DeferredAction) (GateResult, error) {
	m.mu.Lock()
	expired := m.expireLocked()

	if m.user == nil || !m.user.ProfileComplete(m.requireUSN) {
		if !m.parkLocked(action) {
			m.mu.Unlock()
			if expired {
				m.emit()
			}
			return GateRejected, ErrActionPending
		}
		result := GateLogin
		if m.user == nil {
			m.loginOpen = true
		} else {
			m.profileOpen = true
			result = GateProfile
		}
		m.mu.Unlock()
		m.emit()
		return result, nil
	}

	token := m.tokens.Access
	m.mu.Unlock()
	if expired {
		m.emit()
	}
	return GateRan, action.Run(ctx, token)
}

// LoginWithServerResponse installs a fresh session. The token and user are
// fully in place before the pending action is looked at, so a flushed
// action always sees the new session. A token that does not decode fails
// the login and changes nothing.
func (m *Manager) LoginWithServerResponse(ctx context.Context, resp domain.LoginResponse) (FlushResult, error) {
	claims, err := DecodeClaims(resp.Access)
	if err != nil {
		return FlushResult{}, fmt.Errorf("session.LoginWithServerResponse: %w", err)
	}
	if claims.Expired(m.now()) {
		return FlushResult{}, fmt.Errorf("session.LoginWithServerResponse: %w: token already expired", ErrInvalidToken)
	}

	u := loginUser(claims, resp.User)

	// Store and memory change together under m.mu.
	m.mu.Lock()
	m.store.Save(resp.Tokens())
	m.tokens = resp.Tokens()
	m.expiresAt = claims.ExpiresAt.Time
	m.user = &u
	m.loginOpen = false

	var result FlushResult
	var run *DeferredAction
	if m.pending != nil {
		result.Action = m.pending.Name
		if u.ProfileComplete(m.requireUSN) {
			run = m.pending
			m.pending = nil
		} else {
			m.profileOpen = true
			result.NeedsProfile = true
		}
	}
	token := m.tokens.Access
	m.mu.Unlock()

	m.logger.Info("logged in", "email", u.Email, "staff", u.IsStaff)
	m.emit()

	if run != nil {
		result.Ran = true
		result.Err = run.Run(ctx, token)
		if result.Err != nil {
			m.logger.WithError(result.Err).Warn("pending action failed", "action", run.Name)
		}
	}
	return result, nil
}

// UpdateUser merges patch into the current user without decoding the token
// again. Name and FullName always end up equal. It does nothing when
// logged out.
func (m *Manager) UpdateUser(patch domain.UserPatch) {
	m.mu.Lock()
	expired := m.expireLocked()
	if m.user == nil {
		m.mu.Unlock()
		if expired {
			m.emit()
		}
		return
	}
	u := m.user.Apply(patch)
	m.user = &u
	m.mu.Unlock()
	m.emit()
}

// CompleteProfile is the profile modal's success handler. It merges patch,
// closes the modal and runs the pending action with the current token. The
// modal stays open and nothing runs if the profile is still incomplete.
// The only error is ErrNotAuthenticated; the action's own error is in the
// result.
func (m *Manager) CompleteProfile(ctx context.Context, patch domain.UserPatch) (ProfileResult, error) {
	m.mu.Lock()
	expired := m.expireLocked()
	if m.user == nil {
		m.mu.Unlock()
		if expired {
			m.emit()
		}
		return ProfileResult{}, ErrNotAuthenticated
	}

	u := m.user.Apply(patch)
	m.user = &u
	result := ProfileResult{Saved: true}
	if missing := u.MissingProfileFields(m.requireUSN); len(missing) > 0 {
		result.Missing = missing
		m.profileOpen = true
		m.mu.Unlock()
		m.emit()
		return result, nil
	}

	m.profileOpen = false
	run := m.pending
	m.pending = nil
	token := m.tokens.Access
	m.mu.Unlock()
	m.emit()

	if run != nil {
		result.Action = run.Name
		result.Ran = true
		result.ActionErr = run.Run(ctx, token)
		if result.ActionErr != nil {
			m.logger.WithError(result.ActionErr).Warn("pending action failed", "action", run.Name)
		}
	}
	return result, nil
}

// CancelPendingAction drops the pending action without running it.
func (m *Manager) CancelPendingAction() {
	m.dismiss(func() {})
}

// OpenLogin opens the login modal without a pending action.
func (m *Manager) OpenLogin() {
	m.mu.Lock()
	m.loginOpen = true
	m.mu.Unlock()
	m.emit()
}

// OpenProfile opens the profile modal for a signed-in user.
func (m *Manager) OpenProfile() {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return
	}
	m.profileOpen = true
	m.mu.Unlock()
	m.emit()
}

// DismissLogin closes the login modal and cancels the pending action.
func (m *Manager) DismissLogin() {
	m.dismiss(func() { m.loginOpen = false })
}

// DismissProfile closes the profile modal and cancels the pending action.
func (m *Manager) DismissProfile() {
	m.dismiss(func() { m.profileOpen = false })
}

// dismiss applies closeLocked and drops the pending action in one
// transition.
func (m *Manager) dismiss(closeLocked func()) {
	m.mu.Lock()
	closeLocked()
	dropped := m.pending
	m.pending = nil
	m.mu.Unlock()
	if dropped != nil {
		m.logger.Debug("pending action cancelled", "action", dropped.Name)
	}
	m.emit()
}

// Logout clears the session, the store, the modals and the pending action
// in one transition, then signs out on the backend in the background.
func (m *Manager) Logout() {
	m.mu.Lock()
	tokens := m.tokens
	m.clearLocked()
	m.store.Clear()
	m.mu.Unlock()

	m.emit()

	if tokens.Empty() || m.signOut == nil {
		return
	}
	m.signOuts.Add(1)
	go func() {
		defer m.signOuts.Done()
		ctx, cancel := context.WithTimeout(context.Background(), signOutTimeout)
		defer cancel()
		if err := m.signOut(ctx, tokens); err != nil {
			m.logger.WithError(err).Warn("backend sign-out failed")
		}
	}()
}

// Wait blocks until background sign-outs have finished.
func (m *Manager) Wait() {
	m.signOuts.Wait()
}

// Interceptor returns a response hook that logs out on authorization
// failure. The rule: a 401 logs out only when the failed request carried
// the current token. A 401 for an anonymous request, or for a token that
// has since been replaced by a new login, says nothing about the current
// session and is ignored. The response always reaches the caller unchanged.
func (m *Manager) Interceptor() func(*http.Response) {
	return func(resp *http.Response) {
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return
		}
		bearer := ""
		if resp.Request != nil {
			bearer = strings.TrimPrefix(resp.Request.Header.Get("Authorization"), "Bearer ")
		}

		m.mu.Lock()
		current := m.tokens.Access
		m.mu.Unlock()

		if bearer == "" || bearer != current {
			m.logger.Debug("ignoring 401 for a request without the current token")
			return
		}
		m.logger.Info("server rejected token, logging out")
		m.Logout()
	}
}

// parkLocked stores action as the pending one according to the policy.
// It reports false if the policy refused it.
func (m *Manager) parkLocked(action *DeferredAction) bool {
	if m.pending != nil && m.pending != action {
		if m.policy == PendingReject {
			m.logger.Info("gated action refused, another is pending",
				"pending", m.pending.Name, "refused", action.Name)
			return false
		}
		m.logger.Warn("pending action replaced", "dropped", m.pending.Name, "kept", action.Name)
	}
	m.pending = action
	return true
}

// expireLocked clears a session whose token has expired. It reports
// whether it did.
func (m *Manager) expireLocked() bool {
	if m.user == nil || m.now().Before(m.expiresAt) {
		return false
	}
	m.logger.Info("session expired", "email", m.user.Email)
	m.clearLocked()
	m.store.Clear()
	return true
}

func (m *Manager) clearLocked() {
	m.tokens = domain.Tokens{}
	m.expiresAt = time.Time{}
	m.user = nil
	m.loginOpen = false
	m.profileOpen = false
	m.pending = nil
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:       m.tokens.Access,
		LoginOpen:   m.loginOpen,
		ProfileOpen: m.profileOpen,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
		snap.Missing = u.MissingProfileFields(m.requireUSN)
	}
	if m.pending != nil {
		snap.Pending = m.pending.Name
		snap.HasPending = true
	}
	return snap
}

// emit sends the current state to every listener, outside the lock.
func (m *Manager) emit() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
