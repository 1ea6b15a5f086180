// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/edusphere/edusphere-tui/internal/credential"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotLoggedIn is returned when an operation needs a session.
	ErrNotLoggedIn = errors.New("not logged in: run 'edusphere login'")

	// ErrMissingCredentials is returned for an empty username or password.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrNoToken is returned when a login response carries no access token.
	ErrNoToken = errors.New("server returned no access token")
)

// MinPasswordLength mirrors the server's password rule.
const MinPasswordLength = 6

// =============================================================================
// TYPES
// =============================================================================

// User is the profile returned by the service.
type User struct {
	Username          string    `json:"username"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	PasswordChangedAt time.Time `json:"password_changed_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// DisplayName returns the full name, or the username when it is empty.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the fields the server requires.
func (r RegisterRequest) Validate() error {
	fields := []struct{ name, value string }{
		{"username", r.Username},
		{"full name", r.FullName},
		{"email", r.Email},
		{"password", r.Password},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email address %q", r.Email)
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Registration is the outcome of Register.
type Registration struct {
	User     *User
	LoggedIn bool // false when the server returned no token
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager runs the authentication flows.
type Manager struct {
	client *transport.Client
	creds  *credential.Store
	kv     storage.KV
}

// NewManager creates a manager using the client's credential store and kv
// for the saved profile.
func NewManager(client *transport.Client, kv storage.KV) *Manager {
	return &Manager{
		client: client,
		creds:  client.Credentials(),
		kv:     kv,
	}
}

// Login authenticates and stores the token and profile.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	// A stale token must not ride along on the login request.
	if err := m.creds.Clear(); err != nil {
		return nil, err
	}

	env, err := transport.JSON(http.MethodPost, "/users/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Send(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var out tokenResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, ErrNoToken
	}
	if out.User == nil {
		out.User = &User{Username: username}
	}
	if err := m.establish(out); err != nil {
		return nil, err
	}

	log.Printf("Logged in as %s", out.User.Username)
	return out.User, nil
}

// Register creates an account. When the response carries a token the user
// is logged in as well.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	env, err := transport.JSON(http.MethodPost, "/users", req)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Send(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	var out tokenResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&out); err != nil {
			return nil, err
		}
	}
	if out.User == nil {
		out.User = &User{Username: req.Username, FullName: req.FullName, Email: req.Email}
	}
	if out.AccessToken == "" {
		return &Registration{User: out.User}, nil
	}

	if err := m.establish(out); err != nil {
		return nil, err
	}
	return &Registration{User: out.User, LoggedIn: true}, nil
}

func (m *Manager) establish(out tokenResponse) error {
	if err := m.creds.Set(out.AccessToken); err != nil {
		return err
	}
	if err := storage.SetJSON(m.kv, storage.KeyUser, out.User); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Logout clears the token and the saved profile. It is idempotent.
func (m *Manager) Logout() error {
	if err := m.creds.Clear(); err != nil {
		return err
	}
	if err := m.kv.Delete(storage.KeyUser); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}

// Restore returns the saved profile when both it and a token are present.
func (m *Manager) Restore() (*User, bool, error) {
	if !m.creds.HasSession() {
		return nil, false, nil
	}
	var u User
	ok, err := storage.GetJSON(m.kv, storage.KeyUser, &u)
	if err != nil || !ok {
		return nil, false, err
	}
	return &u, true, nil
}

// CurrentUser is Restore without the error.
func (m *Manager) CurrentUser() (*User, bool) {
	u, ok, err := m.Restore()
	if err != nil {
		log.Printf("Auth: failed to restore profile: %v", err)
		return nil, false
	}
	return u, ok
}

// RequireSession returns ErrNotLoggedIn when no token is present.
func (m *Manager) RequireSession() error {
	if !m.creds.HasSession() {
		return ErrNotLoggedIn
	}
	return nil
}
