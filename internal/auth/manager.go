package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"codecollab/pkg/interfaces"
	"codecollab/pkg/types"
)

// Result is the uniform outcome of authentication operations. Remote errors
// are folded into Message; nothing is re-thrown to callers.
type Result struct {
	Success bool
	Message string
}

// Manager owns the authenticated user and the bearer credential. It is the
// only component that reads or writes the credential store, and it serves as
// the gateway's token source.
type Manager struct {
	gateway interfaces.AuthGateway
	store   interfaces.CredentialStore

	mu    sync.RWMutex
	token string
	user  *types.User

	// onLogout tears down dependent state (room membership, polling) when
	// the credential goes away.
	onLogout func()
}

// NewManager creates an auth manager. The manager serves as the gateway's
// token source while the gateway serves its network calls, so the gateway is
// bound after construction via SetGateway.
func NewManager(store interfaces.CredentialStore) *Manager {
	return &Manager{store: store}
}

// SetGateway binds the gateway once it has been constructed around this
// manager's Token method.
func (m *Manager) SetGateway(gateway interfaces.AuthGateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateway = gateway
}

// SetLogoutHook registers the teardown callback invoked on Logout and on
// credential invalidation during Bootstrap.
func (m *Manager) SetLogoutHook(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = hook
}

// Token implements the gateway token source.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the authenticated user, or nil.
func (m *Manager) User() *types.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Bootstrap restores a persisted credential and validates it against the
// server. An invalid or expired token is cleared rather than surfaced: the
// client simply starts signed out.
func (m *Manager) Bootstrap(ctx context.Context) {
	token, err := m.store.LoadToken(ctx)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNoCredential) {
			log.Printf("Failed to load stored credential: %v", err)
		}
		return
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	user, err := m.gateway.CurrentUser(ctx)
	if err != nil {
		log.Printf("Stored credential rejected, clearing: %v", err)
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
		if err := m.store.ClearToken(ctx); err != nil {
			log.Printf("Failed to clear credential: %v", err)
		}
		return
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	log.Printf("Restored session for %s", user.Username)
}

// Login authenticates and persists the returned token.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	if strings.TrimSpace(username) == "" {
		return Result{Success: false, Message: types.ErrEmptyUsername.Error()}
	}
	if password == "" {
		return Result{Success: false, Message: types.ErrEmptyPassword.Error()}
	}

	resp, err := m.gateway.Login(ctx, username, password)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	if resp.Token == "" {
		return Result{Success: false, Message: firstNonEmpty(resp.Message, "Login failed")}
	}

	m.adopt(ctx, resp)
	return Result{Success: true, Message: resp.Message}
}

// Register creates an account and signs in with the returned token.
func (m *Manager) Register(ctx context.Context, username, email, password string) Result {
	if strings.TrimSpace(username) == "" {
		return Result{Success: false, Message: types.ErrEmptyUsername.Error()}
	}
	if password == "" {
		return Result{Success: false, Message: types.ErrEmptyPassword.Error()}
	}

	resp, err := m.gateway.Register(ctx, username, email, password)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	if resp.Token == "" {
		return Result{Success: false, Message: firstNonEmpty(resp.Message, "Registration failed")}
	}

	m.adopt(ctx, resp)
	return Result{Success: true, Message: resp.Message}
}

// Logout clears the credential and the user, then runs the teardown hook.
// Safe to call while signed out.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	hook := m.onLogout
	m.mu.Unlock()

	if err := m.store.ClearToken(ctx); err != nil {
		log.Printf("Failed to clear credential: %v", err)
	}
	if hook != nil {
		hook()
	}
}

func (m *Manager) adopt(ctx context.Context, resp *types.AuthResponse) {
	m.mu.Lock()
	m.token = resp.Token
	m.user = resp.User
	m.mu.Unlock()

	if err := m.store.SaveToken(ctx, resp.Token); err != nil {
		// A failed save means the session will not survive a restart, but
		// the in-memory session is still valid.
		log.Printf("Failed to persist credential: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
