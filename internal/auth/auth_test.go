// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere-tui/internal/credential"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

func newTestManager(t *testing.T, handler http.HandlerFunc) (*Manager, *credential.Store, *storage.MemoryStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := credential.NewMemoryStore()
	client, err := transport.New(transport.Config{BaseURL: server.URL, Timeout: 5 * time.Second}, creds)
	require.NoError(t, err)
	kv := storage.NewMemoryStore()
	return NewManager(client, kv), creds, kv
}

func TestLogin(t *testing.T) {
	m, creds, kv := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "login must not send a stale token")

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "ana", body["username"])
		assert.Equal(t, "secret1", body["password"])

		w.Write([]byte(`{"access_token":"tok-1","user":{"username":"ana","full_name":"Ana Lima","email":"ana@uni.edu"}}`))
	})
	require.NoError(t, creds.Set("stale"))

	user, err := m.Login(context.Background(), " ana ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", user.DisplayName())

	tok, _ := creds.Get()
	assert.Equal(t, "tok-1", tok)

	raw, ok, _ := kv.Get(storage.KeyUser)
	require.True(t, ok)
	assert.Contains(t, raw, `"username":"ana"`)

	restored, ok, err := m.Restore()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ana@uni.edu", restored.Email)
}

func TestLogin_Rejected(t *testing.T) {
	m, creds, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid username or password"}`))
	})

	require.NoError(t, creds.Set("stale"))
	events := m.client.Subscribe()

	_, err := m.Login(context.Background(), "ana", "wrong-pw")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, transport.StatusCode(err))
	assert.False(t, transport.IsSessionInvalidated(err), "a rejected login is not an expired session")
	assert.Equal(t, "invalid username or password", transport.Notice(err))
	assert.False(t, creds.HasSession())

	select {
	case ev := <-events:
		t.Fatalf("unexpected session event %+v", ev)
	default:
	}
}

func TestLogin_MissingFields(t *testing.T) {
	m, _, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := m.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLogin_NoToken(t *testing.T) {
	m, _, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"username":"ana"}}`))
	})
	_, err := m.Login(context.Background(), "ana", "secret1")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRegister_WithoutToken(t *testing.T) {
	m, creds, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		var body RegisterRequest
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "Ana Lima", body.FullName)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"username":"ana","full_name":"Ana Lima","email":"ana@uni.edu"}`))
	})

	reg, err := m.Register(context.Background(), RegisterRequest{
		Username: "ana", FullName: "Ana Lima", Email: "ana@uni.edu", Password: "secret1",
	})
	require.NoError(t, err)
	assert.False(t, reg.LoggedIn)
	assert.Equal(t, "ana", reg.User.Username)
	assert.False(t, creds.HasSession())
}

func TestRegister_WithToken(t *testing.T) {
	m, creds, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok-new","user":{"username":"ana"}}`))
	})

	reg, err := m.Register(context.Background(), RegisterRequest{
		Username: "ana", FullName: "Ana Lima", Email: "ana@uni.edu", Password: "secret1",
	})
	require.NoError(t, err)
	assert.True(t, reg.LoggedIn)
	assert.True(t, creds.HasSession())
}

func TestRegisterRequest_Validate(t *testing.T) {
	valid := RegisterRequest{Username: "ana", FullName: "Ana", Email: "a@b.c", Password: "secret1"}
	assert.NoError(t, valid.Validate())

	missing := RegisterRequest{Username: "ana"}
	assert.EqualError(t, missing.Validate(), "missing required fields: full name, email, password")

	short := valid
	short.Password = "abc"
	assert.Error(t, short.Validate())

	badEmail := valid
	badEmail.Email = "nope"
	assert.Error(t, badEmail.Validate())
}

func TestLogout(t *testing.T) {
	m, creds, kv := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, creds.Set("tok"))
	require.NoError(t, kv.Set(storage.KeyUser, `{"username":"ana"}`))
	require.NoError(t, m.RequireSession())

	require.NoError(t, m.Logout())
	require.NoError(t, m.Logout())

	assert.ErrorIs(t, m.RequireSession(), ErrNotLoggedIn)
	_, ok := m.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, kv.Keys())
}

func TestRestore_NeedsTokenAndProfile(t *testing.T) {
	m, creds, kv := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, kv.Set(storage.KeyUser, `{"username":"ana"}`))

	_, ok, err := m.Restore()
	require.NoError(t, err)
	assert.False(t, ok, "profile without token is not a session")

	require.NoError(t, creds.Set("tok"))
	u, ok, err := m.Restore()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ana", u.Username)
}
