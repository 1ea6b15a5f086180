// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere-tui/internal/api"
	"github.com/edusphere/edusphere-tui/internal/auth"
	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakePrompter answers prompts from fixed values.
type fakePrompter struct {
	answers []string
	secrets []string
}

func (f *fakePrompter) Ask(prompt string) (string, error) {
	if len(f.answers) == 0 {
		return "", io.EOF
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

func (f *fakePrompter) Secret(prompt string) (string, error) {
	if len(f.secrets) == 0 {
		return "", io.EOF
	}
	s := f.secrets[0]
	f.secrets = f.secrets[1:]
	return s, nil
}

type testEnv struct {
	*Env
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = server.URL
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state.db")
	cfg.UI.Markdown = false

	var out, errOut bytes.Buffer
	env, err := OpenWith(cfg, &out, &errOut)
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	env.Prompt = &fakePrompter{}
	return &testEnv{Env: env, out: &out, errOut: &errOut}
}

// login stores a session without a network round trip.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.Creds.Set("tok"))
	require.NoError(t, storage.SetJSON(e.Store, storage.KeyUser, auth.User{Username: "ana", FullName: "Ana Lima"}))
}

func argsOf(raw ...string) Args {
	return Args{Raw: raw}
}

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		argv    []string
		wantCmd Command
		wantRaw []string
		check   func(*testing.T, Args)
	}{
		{argv: nil, wantCmd: CmdTUI},
		{argv: []string{"login", "ana"}, wantCmd: CmdLogin, wantRaw: []string{"ana"}},
		{argv: []string{"signup"}, wantCmd: CmdRegister},
		{argv: []string{"analyze", "t.pdf"}, wantCmd: CmdRecommend, wantRaw: []string{"t.pdf"}},
		{argv: []string{"summaries", "list"}, wantCmd: CmdSummary, wantRaw: []string{"list"}},
		{argv: []string{"diag"}, wantCmd: CmdDoctor},
		{argv: []string{"--version"}, wantCmd: CmdVersion},
		{
			argv:    []string{"-v", "--json", "courses", "show", "3"},
			wantCmd: CmdCourses,
			wantRaw: []string{"show", "3"},
			check: func(t *testing.T, a Args) {
				if !a.Verbose || !a.JSON {
					t.Errorf("global flags not parsed: %+v", a)
				}
			},
		},
		{argv: []string{"frobnicate"}, wantCmd: CmdHelp, wantRaw: []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, "_"), func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, cmd, tt.wantCmd)
			}
			if len(tt.wantRaw) > 0 {
				assert.Equal(t, tt.wantRaw, args.Raw)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := argsOf("save", "--reco", "12", "--scholarships", "--text=Great fit", "extra").Parser()

	if got := p.Subcommand(); got != "save" {
		t.Errorf("Subcommand() = %q, want %q", got, "save")
	}
	if got := p.Flag("reco", "recommendation"); got != "12" {
		t.Errorf("Flag(reco) = %q, want %q", got, "12")
	}
	if !p.BoolFlag("scholarships") {
		t.Error("BoolFlag(scholarships) should be true")
	}
	if got := p.Flag("text"); got != "Great fit" {
		t.Errorf("Flag(text) = %q, want %q", got, "Great fit")
	}
	// A known bool flag never swallows the next word.
	if got := p.Positional(1); got != "extra" {
		t.Errorf("Positional(1) = %q, want %q", got, "extra")
	}
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"--", "--not-a-flag", "x"})
	assert.Equal(t, []string{"--not-a-flag", "x"}, p.PositionalFrom(0))
	assert.False(t, p.BoolFlag("not-a-flag"))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42", "summary id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := ParseID(bad, "summary id")
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "ParseID(%q) should be a validation error", bad)
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "", "bad"), ExitUsageError},
		{"not logged in", auth.ErrNotLoggedIn, ExitAuthError},
		{"session expired", &transport.SessionInvalidatedError{Path: "/transcripts"}, ExitAuthError},
		{"timeout", &transport.TimeoutError{Op: "POST /chat/stream", After: time.Second}, ExitTimeoutError},
		{"network", &transport.NetworkError{Op: "GET /summaries", Err: errors.New("refused")}, ExitNetworkError},
		{"not found", &transport.HTTPError{Status: 404}, ExitNotFoundError},
		{"forbidden", &transport.HTTPError{Status: 403}, ExitAuthError},
		{"bad request", &transport.HTTPError{Status: 400}, ExitUsageError},
		{"server", &transport.HTTPError{Status: 500}, ExitGeneralError},
		{"interrupted", errInterrupted, ExitInterrupted},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	httpErr := &transport.HTTPError{Status: 400, Body: []byte(`{"error":"transcript not found"}`)}
	assert.Equal(t, "transcript not found", Describe(httpErr))

	timeout := &transport.TimeoutError{Op: "GET /x", After: time.Second}
	assert.Equal(t, transport.Notice(timeout), Describe(timeout))

	wrapped := errors.New("wrapped: " + auth.ErrNotLoggedIn.Error())
	assert.Equal(t, wrapped.Error(), Describe(wrapped))
	assert.Equal(t, auth.ErrNotLoggedIn.Error(), Describe(errors.Join(auth.ErrNotLoggedIn)))
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &transport.HTTPError{Status: 404, Body: []byte(`{"error":"missing"}`)}, true)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "missing", out["error"])
	assert.Equal(t, "not_found_error", out["error_type"])
	assert.EqualValues(t, 404, out["status"])
}

// =============================================================================
// AUTH COMMAND TESTS
// =============================================================================

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/login", r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "ana", body["username"])
		assert.Equal(t, "pw", body["password"])
		w.Write([]byte(`{"access_token":"jwt","user":{"username":"ana","full_name":"Ana Lima"}}`))
	}))
	env.Prompt = &fakePrompter{secrets: []string{"pw"}}

	require.NoError(t, HandleLogin(context.Background(), env.Env, argsOf("ana")))
	assert.Contains(t, env.out.String(), "Logged in as Ana Lima")

	tok, ok := env.Creds.Get()
	assert.True(t, ok)
	assert.Equal(t, "jwt", tok)
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"incorrect password"}`))
	}))
	env.Prompt = &fakePrompter{secrets: []string{"nope"}}
	events := env.Client.Subscribe()

	err := HandleLogin(context.Background(), env.Env, argsOf("ana"))
	require.Error(t, err)
	assert.Equal(t, "incorrect password", Describe(err))

	select {
	case ev := <-events:
		t.Fatalf("unexpected session event %+v", ev)
	default:
	}
}

func TestHandleRegister_PasswordMismatch(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	env.Prompt = &fakePrompter{secrets: []string{"one", "two"}}

	err := HandleRegister(context.Background(), env.Env,
		argsOf("--username", "ana", "--name", "Ana", "--email", "ana@example.edu"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Zero(t, calls.Load())
}

func TestHandleWhoami(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	assert.ErrorIs(t, HandleWhoami(env.Env), auth.ErrNotLoggedIn)

	env.login(t)
	require.NoError(t, HandleWhoami(env.Env))
	assert.Contains(t, env.out.String(), "ana")
	assert.Contains(t, env.out.String(), "Ana Lima")
}

// =============================================================================
// CHAT COMMAND TESTS
// =============================================================================

func TestHandleAsk(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte("data: Take\ndata: CS 101\ndata: [DONE]\n"))
	}))
	env.login(t)

	require.NoError(t, HandleAsk(context.Background(), env.Env, argsOf("What", "next?"), strings.NewReader("")))
	assert.Equal(t, "Take CS 101\n", env.out.String())
}

func TestHandleAsk_RequiresSession(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	err := HandleAsk(context.Background(), env.Env, argsOf("hello"), nil)
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestHandleAsk_ServerError(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model offline"}`))
	}))
	env.login(t)

	err := HandleAsk(context.Background(), env.Env, argsOf("hello"), nil)
	require.Error(t, err)
	assert.Equal(t, "model offline", Describe(err))
}

func TestStreamPrinter_PrintsSuffixes(t *testing.T) {
	var buf bytes.Buffer
	p := &streamPrinter{w: &buf}

	open := func(content string) []model.Message {
		return []model.Message{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: content, Open: true},
		}
	}
	p.OnUpdate(open("Hello"))
	p.OnUpdate(open("Hello there"))
	p.OnUpdate(open("Hello there"))
	p.OnUpdate([]model.Message{{Role: model.RoleAssistant, Content: "Hello there!"}})

	assert.Equal(t, "Hello there", buf.String())

	p.reset()
	p.OnUpdate(open("Next"))
	assert.Equal(t, "Hello thereNext", buf.String())
}

func TestHandleSlashCommand_Export(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: Take\ndata: CS 101\ndata: [DONE]\n"))
	}))
	env.login(t)

	s := env.NewSession()
	_, err := s.SendTurn(context.Background(), "What next?")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chat.md")
	assert.True(t, handleSlashCommand(env.Env, s, "/export "+path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "user: \"Ana Lima\"")
	assert.Contains(t, string(data), "What next?")
	assert.Contains(t, string(data), "Take CS 101")
	assert.Contains(t, env.out.String(), "Saved conversation to "+path)
}

func TestHandleSlashCommand_ExportEmpty(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	s := env.NewSession()

	path := filepath.Join(t.TempDir(), "chat.md")
	assert.True(t, handleSlashCommand(env.Env, s, "/export "+path))
	assert.Contains(t, env.errOut.String(), "no messages")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// =============================================================================
// ADVISING COMMAND TESTS
// =============================================================================

func TestHandleRecommend_NoNewCourses(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations", r.URL.Path)
		w.Write([]byte(`{"courses":[],"message":"No new courses available."}`))
	}))
	env.login(t)

	require.NoError(t, HandleRecommend(context.Background(), env.Env, argsOf("--transcript", "4")))
	assert.Contains(t, env.out.String(), "No new courses available.")

	_, ok, err := env.API.LastRecommendationID()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleRecommend_NeedsInput(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	env.login(t)
	err := HandleRecommend(context.Background(), env.Env, argsOf())
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleCourses_Remove(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/recommendations/12/courses/4", r.URL.Path)
		w.Write([]byte(`{"message":"removed","courses":[{"title":"Databases","code":"CS 340","match":0.8,"course_id":5}]}`))
	}))
	env.login(t)

	require.NoError(t, HandleCourses(context.Background(), env.Env, argsOf("remove", "12", "4")))
	out := env.out.String()
	assert.Contains(t, out, "Removed course 4")
	assert.Contains(t, out, "CS 340 Databases")
	assert.Contains(t, out, "80%")
}

func TestHandleCourses_ShowDefaultsToLast(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations/9", r.URL.Path)
		w.Write([]byte(`{"id":9,"payload":{"courses":[{"title":"Statistics","match":0.5}]}}`))
	}))
	env.login(t)

	err := HandleCourses(context.Background(), env.Env, argsOf("show"))
	assert.ErrorIs(t, err, api.ErrNoRecommendation)

	require.NoError(t, env.Store.Set(storage.KeyLastRecoID, "9"))
	require.NoError(t, HandleCourses(context.Background(), env.Env, argsOf("show")))
	assert.Contains(t, env.out.String(), "Statistics")
}

func TestHandleTranscripts_ShowDefaultsToLast(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcripts/4", r.URL.Path)
		w.Write([]byte(`{"id":4,"file_path":"uploads/fall.pdf","text_preview":"MATH 101 A"}`))
	}))
	env.login(t)

	err := HandleTranscripts(context.Background(), env.Env, argsOf("show"))
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "want validation error, got %v", err)

	require.NoError(t, env.Store.Set(storage.KeyLastTranscriptID, "4"))
	require.NoError(t, HandleTranscripts(context.Background(), env.Env, argsOf("show")))
	assert.Contains(t, env.out.String(), "fall.pdf")
	assert.Contains(t, env.out.String(), "MATH 101 A")
}

func TestHandleLogout_Forget(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())
	env.login(t)
	require.NoError(t, env.Store.Set(storage.KeyLastRecoID, "9"))

	require.NoError(t, HandleLogout(env.Env, argsOf()))
	_, ok, err := env.API.LastRecommendationID()
	require.NoError(t, err)
	assert.True(t, ok, "plain logout keeps the chat context")

	env.login(t)
	require.NoError(t, HandleLogout(env.Env, argsOf("--forget")))
	_, ok, err = env.API.LastRecommendationID()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, env.Creds.HasSession())
}

func TestHandleSummary_Download(t *testing.T) {
	pdf := []byte("%PDF-1.4 summary")
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summaries/3/download", r.URL.Path)
		w.Write(pdf)
	}))
	env.login(t)

	dest := filepath.Join(t.TempDir(), "mine.pdf")
	require.NoError(t, HandleSummary(context.Background(), env.Env, argsOf("download", "3", "--output", dest)))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, pdf, got)
}

func TestHandleSummary_DeleteNeedsConfirm(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	env.login(t)

	err := HandleSummary(context.Background(), env.Env, argsOf("delete", "3"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Zero(t, calls.Load())

	require.NoError(t, HandleSummary(context.Background(), env.Env, argsOf("delete", "3", "--confirm")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandleSummary_SaveGeneratesText(t *testing.T) {
	var saved api.SaveSummaryRequest
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/summaries/generate":
			w.Write([]byte(`{"user":"ana","summary_text":"Strong in math."}`))
		case "/summaries":
			json.NewDecoder(r.Body).Decode(&saved)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":7,"user":"ana","pdf_path":"/pdf/7.pdf"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	env.login(t)

	require.NoError(t, HandleSummary(context.Background(), env.Env, argsOf("save", "--reco", "12", "--scholarships")))
	assert.Equal(t, int64(12), saved.RecommendationID)
	assert.Equal(t, "Strong in math.", saved.SummaryText)
	assert.True(t, saved.IncludeScholarships)
	assert.Contains(t, env.out.String(), "Saved summary 7")
}

func TestHandleTranscripts_JSON(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"file_path":"uploads/a.pdf","text_extracted":{"String":"x","Valid":true}}]`))
	}))
	env.login(t)
	env.JSON = true

	require.NoError(t, HandleTranscripts(context.Background(), env.Env, argsOf("list")))
	var got []api.Transcript
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Text.String)
}

func TestHandleSearch(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stem grants", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"title":"STEM Grant","url":"https://example.org/g","snippet":"Apply now"}]`))
	}))
	env.login(t)

	require.NoError(t, HandleSearch(context.Background(), env.Env, argsOf("stem", "grants")))
	assert.Contains(t, env.out.String(), "1. STEM Grant")
	assert.Contains(t, env.out.String(), "Apply now")
}

// =============================================================================
// CONFIG COMMAND TESTS
// =============================================================================

func TestHandleConfig_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv(config.EnvConfig, path)
	t.Setenv(config.EnvBaseURL, "")

	var out bytes.Buffer
	require.NoError(t, HandleConfig(argsOf("set", "ui.word_wrap", "100"), &out))

	out.Reset()
	require.NoError(t, HandleConfig(argsOf("get", "ui.word_wrap"), &out))
	assert.Equal(t, "100\n", out.String())

	err := HandleConfig(argsOf("set", "ui.theme", "neon"), &out)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfig(argsOf("get", "ui"), &out)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// OUTPUT TESTS
// =============================================================================

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable(4, 8, 0)
	tbl.add("ID", "TITLE", "NOTE")
	tbl.add("1", "A very long course title", "multi\nline")
	tbl.write(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1     A ver...  multi line", lines[1])
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "85%", percent(0.85))
	assert.Equal(t, "85%", percent(85))
}

// =============================================================================
// DOCTOR TESTS
// =============================================================================

func TestHandleDoctor(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.toml"))
	t.Setenv(config.EnvBaseURL, server.URL)
	t.Setenv(config.EnvDatabase, filepath.Join(dir, "state.db"))

	var buf bytes.Buffer
	require.NoError(t, HandleDoctor(context.Background(), Args{JSON: true}, &buf))

	var checks []HealthCheck
	require.NoError(t, json.Unmarshal(buf.Bytes(), &checks))
	got := map[string]string{}
	for _, c := range checks {
		got[c.Name] = c.Result
	}
	assert.Equal(t, map[string]string{
		"Config":        "Pass",
		"Local Store":   "Pass",
		"Session":       "Warn",
		"Server":        "Pass",
		"Token Storage": "Warn",
	}, got)
}

func TestHandleDoctor_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.toml"))
	t.Setenv(config.EnvBaseURL, url)
	t.Setenv(config.EnvDatabase, filepath.Join(dir, "state.db"))

	var buf bytes.Buffer
	err := HandleDoctor(context.Background(), argsOf(), &buf)
	assert.ErrorIs(t, err, ErrChecksFailed)
	assert.Contains(t, buf.String(), "unreachable: "+url)
}
