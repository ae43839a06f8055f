package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// AuthAPI is the slice of the backend the manager needs: obtaining a fresh
// access token and revoking the refresh credential.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (accessToken string, err error)
	Logout(ctx context.Context) error
}

// Manager owns the current session. All access goes through it; nothing
// else holds the raw token.
type Manager struct {
	mu      sync.RWMutex
	token   string
	current *Session

	api    AuthAPI
	logger *slog.Logger
}

// NewManager creates a session manager starting unauthenticated.
func NewManager(api AuthAPI, logger *slog.Logger) *Manager {
	return &Manager{api: api, logger: logger}
}

// Login exchanges credentials for an access token and installs the session
// it decodes to. The returned error is already classified; FailureMessage
// turns it into user-facing copy.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.WarnContext(ctx, "login failed",
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := m.SetAccessToken(token); err != nil {
		return apperrors.Unauthorized("received an unusable access token")
	}

	m.logger.InfoContext(ctx, "login succeeded",
		slog.Int("user_id", m.mustCurrent().UserID),
	)
	return nil
}

// Logout revokes the refresh credential best-effort and clears the local
// session regardless of the outcome.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.logger.WarnContext(ctx, "logout request failed",
			slog.String("error", err.Error()),
		)
	}
	m.Clear()
}

// SetAccessToken installs a new token, replacing the current session. An
// empty token clears the session; an undecodable or expired token clears it
// and reports the decode error.
func (m *Manager) SetAccessToken(token string) error {
	if token == "" {
		m.Clear()
		return nil
	}

	sess, err := Decode(token)
	if err != nil {
		m.Clear()
		return err
	}

	m.mu.Lock()
	m.token = token
	m.current = sess
	m.mu.Unlock()
	return nil
}

// Clear drops the session and token.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.token = ""
	m.current = nil
	m.mu.Unlock()
}

// Current returns the active session, or false when unauthenticated.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// AccessToken returns the raw token, empty when unauthenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether a session is installed.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

func (m *Manager) mustCurrent() Session {
	s, _ := m.Current()
	return s
}

// FailureMessage maps a login error to the message shown to the user:
// wrong credentials, backend outage, unreachable network, or a generic
// fallback.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, apperrors.ErrNetwork) {
		return "No response from server. Please check your internet connection."
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch {
		case appErr.Status == http.StatusUnauthorized:
			if appErr.Message != "" {
				return appErr.Message
			}
			return "Incorrect email or password"
		case appErr.Status >= http.StatusInternalServerError:
			return "Server error. Please try again later."
		}
	}

	return "Login failed. Please check your credentials."
}
