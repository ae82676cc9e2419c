package sessionaccess_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/ipc"
	"clipwatch/internal/sessionaccess"
	"clipwatch/internal/testsupport"
)

func TestOpenWithFallbackUsesStoreWhenDaemonOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	testsupport.NewSession(t, store, "one", time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC))
	testsupport.NewSession(t, store, "two", time.Date(2025, 1, 3, 15, 4, 5, 0, time.UTC))

	dialed := false
	handle, err := sessionaccess.OpenWithFallback(
		func() (*ipc.Client, error) {
			dialed = true
			return nil, errors.New("connection refused")
		},
		func() (*catalog.Store, error) { return catalog.Open(cfg) },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer handle.Close()
	if !dialed || handle.Live {
		t.Fatalf("expected offline fallback, dialed=%v live=%v", dialed, handle.Live)
	}

	ctx := context.Background()
	sessions, err := handle.Access.List(ctx, 0, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "two" {
		t.Fatalf("expected newest first, got %+v", sessions)
	}
	if _, err := handle.Access.List(ctx, 0, []string{"nope"}); err == nil {
		t.Fatal("expected unknown status error")
	}

	summary, err := handle.Access.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 2 || summary.Active != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	session, err := handle.Access.Describe(ctx, "one")
	if err != nil || session.Name != "20250102_150405" {
		t.Fatalf("Describe: %+v, %v", session, err)
	}
	if _, err := handle.Access.Describe(ctx, "missing"); err == nil {
		t.Fatal("expected missing session error")
	}

	removed, err := handle.Access.Remove(ctx, []string{"one", "missing"})
	if err != nil || removed != 1 {
		t.Fatalf("Remove: %d, %v", removed, err)
	}
}

func TestOpenWithFallbackRequiresStoreOpener(t *testing.T) {
	if _, err := sessionaccess.OpenWithFallback(nil, nil); err == nil {
		t.Fatal("expected error without store opener")
	}
}
