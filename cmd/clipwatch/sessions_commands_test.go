package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipwatch/internal/api"
	"clipwatch/internal/testsupport"
)

func TestSessionsListsCatalog(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewSession(t, env.store, "first", time.Date(2025, 3, 4, 20, 0, 0, 0, time.UTC))
	testsupport.NewSession(t, env.store, "second", time.Date(2025, 3, 5, 21, 30, 0, 0, time.UTC))

	out, _, err := runCLI(t, []string{"sessions"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "20250304_200000")
	requireContains(t, out, "20250305_213000")
	requireContains(t, out, "Recording")
	if strings.Contains(out, "daemon offline") {
		t.Fatalf("expected live listing, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"sessions", "--json", "--limit", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions --json: %v", err)
	}
	var resp api.SessionListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].ID != "second" {
		t.Fatalf("expected newest session only, got %+v", resp.Sessions)
	}
}

func TestSessionsRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"sessions", "--status", "bogus"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown session status") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSessionShowAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewSession(t, env.store, "abc", time.Date(2025, 3, 4, 20, 0, 0, 0, time.UTC))

	out, _, err := runCLI(t, []string{"sessions", "show", "abc"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions show: %v", err)
	}
	requireContains(t, out, "Session:")
	requireContains(t, out, "20250304_200000")
	requireContains(t, out, "/recordings/20250304_200000/recording.flv")

	if _, _, err := runCLI(t, []string{"sessions", "show", "missing"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for missing session")
	}

	out, _, err = runCLI(t, []string{"sessions", "rm", "abc", "missing"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions rm: %v", err)
	}
	requireContains(t, out, "Removed 1 session")

	out, _, err = runCLI(t, []string{"sessions"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No sessions found")
}

func TestSessionsFallsBackToCatalogWhenOffline(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	testsupport.NewSession(t, store, "offline", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	missingSocket := filepath.Join(t.TempDir(), "absent.sock")
	out, _, err := runCLI(t, []string{"sessions"}, missingSocket, configPath)
	if err != nil {
		t.Fatalf("sessions offline: %v", err)
	}
	requireContains(t, out, "20250601_090000")
	requireContains(t, out, "daemon offline")
}
