// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Health checks for the local setup.
//
// Checks Performed:
//   1. Config Valid      - The config file loads and validates
//   2. Local Store       - The state database opens and accepts writes
//   3. Session           - A login is saved
//   4. Server Reachable  - The service answers at server.base_url
//   5. Token Storage     - Whether the saved token is encrypted
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/storage"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the styled symbol for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("✓")
	case CheckWarn:
		return WarningStyle.Render("!")
	default:
		return ErrorStyle.Render("✗")
	}
}

// HealthCheck is the result of one check.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	Result  string      `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// ErrChecksFailed is returned by doctor after the failures were printed.
var ErrChecksFailed = errors.New("one or more health checks failed")

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// HandleDoctor runs every check and prints the results.
func HandleDoctor(ctx context.Context, args Args, out io.Writer) error {
	checks := RunChecks(ctx)

	failed := 0
	for i := range checks {
		checks[i].Result = checks[i].Status.String()
		if checks[i].Status == CheckFail {
			failed++
		}
	}

	if args.JSON {
		if err := writeJSON(out, checks); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, TitleStyle.Render("edusphere doctor"))
		fmt.Fprintln(out)
		for _, c := range checks {
			fmt.Fprintf(out, "%s %s %s\n", c.Status.Symbol(), RenderLabel(c.Name), c.Message)
			if c.Fix != "" && c.Status != CheckPass {
				fmt.Fprintf(out, "    %s\n", DimStyle.Render(c.Fix))
			}
		}
		fmt.Fprintln(out)
		if failed == 0 {
			fmt.Fprintln(out, SuccessStyle.Render("All checks passed."))
		} else {
			fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("%d check(s) failed.", failed)))
		}
	}

	if failed > 0 {
		return ErrChecksFailed
	}
	return nil
}

// RunChecks runs the health checks in order. Later checks are skipped when
// the config cannot be loaded.
func RunChecks(ctx context.Context) []HealthCheck {
	cfg, err := config.Load()
	if err != nil {
		return []HealthCheck{{
			Name:    "Config",
			Status:  CheckFail,
			Message: err.Error(),
			Fix:     "Run 'edusphere config reset' or edit the file shown by 'edusphere config path'.",
		}}
	}

	checks := []HealthCheck{{Name: "Config", Status: CheckPass, Message: "valid"}}
	store, check := checkStore(cfg)
	checks = append(checks, check)
	if store != nil {
		defer store.Close()
		checks = append(checks, checkSession(store))
	}
	checks = append(checks, checkServer(ctx, cfg), checkTokenStorage(cfg))
	return checks
}

func checkStore(cfg *config.Config) (*storage.LocalStore, HealthCheck) {
	c := HealthCheck{Name: "Local Store"}
	path, err := cfg.StoragePath()
	if err != nil {
		c.Status, c.Message = CheckFail, err.Error()
		return nil, c
	}
	store, err := storage.Open(path)
	if err != nil {
		c.Status, c.Message = CheckFail, err.Error()
		c.Fix = "Check permissions on " + path
		return nil, c
	}
	const probe = "doctor_probe"
	if err := store.Set(probe, time.Now().Format(time.RFC3339)); err != nil {
		c.Status, c.Message = CheckFail, "not writable: "+err.Error()
		c.Fix = "Check permissions on " + path
		return store, c
	}
	_ = store.Delete(probe)
	c.Status, c.Message = CheckPass, path
	return store, c
}

func checkSession(kv storage.KV) HealthCheck {
	c := HealthCheck{Name: "Session"}
	_, ok, err := kv.Get(storage.KeyAccessToken)
	switch {
	case err != nil:
		c.Status, c.Message = CheckFail, err.Error()
	case !ok:
		c.Status, c.Message = CheckWarn, "not logged in"
		c.Fix = "Run 'edusphere login'."
	default:
		c.Status, c.Message = CheckPass, "token saved"
	}
	return c
}

// checkServer treats any HTTP response as reachable.
func checkServer(ctx context.Context, cfg *config.Config) HealthCheck {
	c := HealthCheck{Name: "Server"}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Server.BaseURL, nil)
	if err != nil {
		c.Status, c.Message = CheckFail, err.Error()
		return c
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.Status, c.Message = CheckFail, "unreachable: "+cfg.Server.BaseURL
		c.Fix = "Start the service or run 'edusphere config set server.base_url URL'."
		return c
	}
	resp.Body.Close()
	c.Status, c.Message = CheckPass, fmt.Sprintf("%s (HTTP %d)", cfg.Server.BaseURL, resp.StatusCode)
	return c
}

func checkTokenStorage(cfg *config.Config) HealthCheck {
	if cfg.Security.EncryptToken {
		return HealthCheck{Name: "Token Storage", Status: CheckPass, Message: "encrypted"}
	}
	return HealthCheck{
		Name:    "Token Storage",
		Status:  CheckWarn,
		Message: "stored in plain text",
		Fix:     "Set " + config.EnvTokenPassphrase + " and run 'edusphere config set security.encrypt_token true'.",
	}
}
