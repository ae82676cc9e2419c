package testsupport

import (
	"context"
	"testing"
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession inserts a recording session started at startedAt.
func NewSession(t testing.TB, store *catalog.Store, id string, startedAt time.Time) *catalog.Session {
	t.Helper()

	name := startedAt.Format("20060102_150405")
	session := &catalog.Session{
		ID:            id,
		Name:          name,
		Folder:        "/recordings/" + name,
		RecordingPath: "/recordings/" + name + "/recording.flv",
		StartedAt:     startedAt,
	}
	if err := store.Begin(context.Background(), session); err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return session
}
