package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(infoHandler, debugHandler))
	logger.Debug("frame scanned")

	if infoBuf.Len() != 0 {
		t.Fatal("info handler should not receive debug records")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler should receive debug records")
	}

	logger.Info("marker detected")
	if infoBuf.Len() == 0 {
		t.Fatal("info handler should receive info records")
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String(FieldSessionID, "20250102_150405")}).WithGroup("clip"))
	logger.Info("clip written", slog.Int("index", 2))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"session_id":"20250102_150405"`)) {
			t.Fatalf("handler %d missing session attr: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"clip":{"index":2}`)) {
			t.Fatalf("handler %d missing grouped attr: %s", i, buf.String())
		}
	}
}

type failingHandler struct{ NoopHandler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutHandlerContinuesAfterError(t *testing.T) {
	var buf bytes.Buffer
	h := TeeHandler(failingHandler{}, slog.NewJSONHandler(&buf, nil))

	err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelInfo, "hello", 0))
	if err == nil {
		t.Fatal("expected error from failing handler")
	}
	if buf.Len() == 0 {
		t.Fatal("expected later handler to still receive the record")
	}
}
