// Package session runs the portal's session bootstrap: it follows the auth
// backend's session, resolves the signed-in user's role and exposes the
// landing page for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type State string

const (
	StateUnresolved State = "unresolved"
	StateResolving  State = "resolving"
	StateResolved   State = "resolved"
	StateAbsent     State = "absent"
)

// Settled reports whether resolution has finished.
func (s State) Settled() bool {
	return s == StateResolved || s == StateAbsent
}

// Snapshot is a consistent copy of the manager state.
type Snapshot struct {
	State        State  `json:"state"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Loading      bool   `json:"loading"`
	RedirectPath string `json:"redirect_path"`
}

type SignInResult struct {
	UserID       string
	Role         string
	RedirectPath string
}

// ErrInvalidCredentials is the user-facing sign-in rejection.
var ErrInvalidCredentials = portal.ErrInvalidCredentials

type Manager struct {
	backend portal.AuthBackend
	roles   portal.RoleTable
	cache   *role.Cache
	logger  *slog.Logger

	mu          sync.Mutex
	snap        Snapshot
	generation  uint64
	resolvedFor string
	resolving   string
	changed     chan struct{}
	baseCtx     context.Context
	unsubscribe func()
	closeOnce   sync.Once
}

func NewManager(backend portal.AuthBackend, roles portal.RoleTable, cache *role.Cache, lg *slog.Logger) *Manager {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Manager{
		backend: backend,
		roles:   roles,
		cache:   cache,
		logger:  lg,
		snap:    Snapshot{State: StateUnresolved, RedirectPath: role.LoginPath},
		changed: make(chan struct{}),
		baseCtx: context.Background(),
	}
}

// Start shows the cached role optimistically, subscribes to auth changes and
// then handles the current session. Whichever of the two arrives first
// resolves the role; the other is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if optimistic := m.cache.Peek(); optimistic != "" {
		m.snap.Role = role.NormalizeRoleValue(optimistic)
	}
	m.snap.Loading = true
	m.baseCtx = context.WithoutCancel(ctx)
	m.mu.Unlock()

	unsubscribe := m.backend.OnAuthStateChange(func(e portal.AuthEvent) {
		m.mu.Lock()
		base := m.baseCtx
		m.mu.Unlock()
		m.handle(base, e)
	})
	m.mu.Lock()
	previous := m.unsubscribe
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	if previous != nil {
		previous()
	}

	session, err := m.backend.GetSession(ctx)
	if err != nil {
		m.logger.Error("failed to fetch current session", "error", err)
		m.handle(ctx, portal.AuthEvent{Type: portal.EventInitialSession})
		return fmt.Errorf("get session: %w", err)
	}

	m.handle(ctx, portal.AuthEvent{Type: portal.EventInitialSession, Session: session})
	return nil
}

func (m *Manager) handle(ctx context.Context, e portal.AuthEvent) {
	if e.Type == portal.EventSignedOut {
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear role cache", "error", err)
		}
	}
	if e.Type == portal.EventSignedOut || e.Session == nil {
		m.mu.Lock()
		m.generation++
		m.resolvedFor, m.resolving = "", ""
		m.setLocked(Snapshot{State: StateAbsent})
		m.mu.Unlock()
		return
	}

	u := e.Session.User
	m.mu.Lock()
	if u.ID == m.resolvedFor || u.ID == m.resolving {
		m.mu.Unlock()
		return
	}
	var optimistic string
	if m.snap.State == StateUnresolved {
		optimistic = m.snap.Role
	}
	m.generation++
	gen := m.generation
	m.resolving = u.ID
	m.resolvedFor = ""
	m.setLocked(Snapshot{
		State:   StateResolving,
		UserID:  u.ID,
		Email:   u.Email,
		Role:    optimistic,
		Loading: true,
	})
	m.mu.Unlock()

	m.logger.Debug("resolving role", "event", e.Type, "user_id", u.ID)
	r := m.resolve(ctx, u, "")
	m.finish(gen, u, r)
}

// resolve walks hint, token metadata, the owned cache entry and finally the
// role table. An empty result means no role could be found.
func (m *Manager) resolve(ctx context.Context, u portal.User, hint string) string {
	if hint != "" {
		return m.remember(role.NormalizeRoleValue(hint), u.ID)
	}
	if r, ok := role.ResolveUserRole(u.Identity(), m.cache); ok {
		return m.remember(r, u.ID)
	}
	if m.cache.TableMissing() {
		m.logger.Debug("role table known missing, skipping lookup", "user_id", u.ID)
		return ""
	}

	raw, err := m.roles.LookupRole(ctx, u.ID)
	switch {
	case err == nil:
		return m.remember(role.NormalizeRoleValue(raw), u.ID)
	case errors.Is(err, portal.ErrRoleTableMissing):
		m.logger.Warn("role table does not exist, disabling lookups")
		if err := m.cache.MarkTableMissing(); err != nil {
			m.logger.Warn("failed to record missing role table", "error", err)
		}
	case errors.Is(err, portal.ErrRoleNotFound):
		m.logger.Info("no role assigned", "user_id", u.ID)
	default:
		m.logger.Error("role lookup failed", "error", err, "user_id", u.ID)
	}
	return ""
}

func (m *Manager) remember(r, userID string) string {
	if r == "" {
		return ""
	}
	if err := m.cache.Set(r, userID); err != nil {
		m.logger.Warn("failed to cache role", "error", err)
	}
	return r
}

// finish publishes the result unless a newer event superseded it.
func (m *Manager) finish(gen uint64, u portal.User, r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	state := StateResolved
	if r == "" {
		state = StateAbsent
	}
	m.resolving = ""
	m.resolvedFor = u.ID
	m.setLocked(Snapshot{State: state, UserID: u.ID, Email: u.Email, Role: r})
}

func (m *Manager) setLocked(s Snapshot) {
	s.RedirectPath = role.RedirectPath(s.Role)
	m.snap = s
	close(m.changed)
	m.changed = make(chan struct{})
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snap
	s.RedirectPath = role.RedirectPath(s.Role)
	return s
}

// Wait blocks until the role is resolved or known to be absent.
func (m *Manager) Wait(ctx context.Context) (Snapshot, error) {
	for {
		m.mu.Lock()
		if m.snap.State.Settled() {
			s := m.snap
			m.mu.Unlock()
			return s, nil
		}
		ch := m.changed
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		}
	}
}

// SignIn authenticates, installs the returned session and resolves the role
// with the login payload's role taking precedence.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	payload, err := m.backend.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, portal.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.resolving = payload.User.ID
	m.resolvedFor = ""
	m.setLocked(Snapshot{State: StateResolving, UserID: payload.User.ID, Email: payload.User.Email, Loading: true})
	m.mu.Unlock()

	session, err := m.backend.SetSession(ctx, payload.AccessToken, payload.RefreshToken)
	if err != nil {
		m.mu.Lock()
		if gen == m.generation {
			m.resolving = ""
			m.setLocked(Snapshot{State: StateAbsent})
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("install session: %w", err)
	}

	u := session.User
	if u.ID == "" {
		u = payload.User
	}
	r := m.resolve(ctx, u, payload.Role)
	m.finish(gen, u, r)

	m.logger.Info("signed in", "user_id", u.ID, "role", r)
	return &SignInResult{UserID: u.ID, Role: r, RedirectPath: role.RedirectPath(r)}, nil
}

// SignOut ends the backend session and forgets the cached role.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.backend.SignOut(ctx)
	if cerr := m.cache.Clear(); cerr != nil {
		m.logger.Warn("failed to clear role cache", "error", cerr)
	}

	m.mu.Lock()
	m.generation++
	m.resolvedFor, m.resolving = "", ""
	m.setLocked(Snapshot{State: StateAbsent})
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Close stops following auth changes.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		unsubscribe := m.unsubscribe
		m.unsubscribe = nil
		m.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
}
