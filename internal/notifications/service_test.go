package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"clipwatch/internal/config"
	"clipwatch/internal/notifications"
)

type capturedRequest struct {
	title, tags, priority, body string
}

func newRecordingServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventHighlightsReady, notifications.Payload{"session": "x"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "highlights ready",
			event: notifications.EventHighlightsReady,
			payload: notifications.Payload{
				"session":  "20250102_150405",
				"clips":    3,
				"output":   "/videos/20250102_150405/merged_output.flv",
				"duration": 30.2,
			},
			expectTitle: "clipwatch - Highlights Ready",
			expectBody: []string{
				"3 highlight clip(s) merged for 20250102_150405 (30s)",
				"File: /videos/20250102_150405/merged_output.flv",
			},
			expectTags: "clipwatch,highlights,completed",
		},
		{
			name:           "no highlights",
			event:          notifications.EventNoHighlights,
			payload:        notifications.Payload{"session": "20250102_150405"},
			expectTitle:    "clipwatch - No Highlights",
			expectBody:     []string{"No markers detected in 20250102_150405"},
			expectTags:     "clipwatch,highlights,empty",
			expectPriority: "low",
		},
		{
			name:  "session failed",
			event: notifications.EventSessionFailed,
			payload: notifications.Payload{
				"session": "20250102_150405",
				"stage":   "merging",
				"error":   errors.New("exit status 1"),
			},
			expectTitle:    "clipwatch - Error",
			expectBody:     []string{"Session 20250102_150405 failed during merging: exit status 1"},
			expectTags:     "clipwatch,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "clipwatch - Test",
			expectBody:     []string{"Notification system test"},
			expectTags:     "clipwatch,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, requests := newRecordingServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			got := requests()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			req := got[0]
			if req.title != tc.expectTitle {
				t.Fatalf("unexpected title %q", req.title)
			}
			for _, want := range tc.expectBody {
				if !strings.Contains(req.body, want) {
					t.Fatalf("expected %q in body %q", want, req.body)
				}
			}
			if req.tags != tc.expectTags {
				t.Fatalf("unexpected tags %q", req.tags)
			}
			if req.priority != tc.expectPriority {
				t.Fatalf("unexpected priority %q", req.priority)
			}
		})
	}
}

func TestNtfyServiceRespectsToggles(t *testing.T) {
	srv, requests := newRecordingServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Highlights = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	_ = svc.Publish(ctx, notifications.EventHighlightsReady, notifications.Payload{"session": "a"})
	_ = svc.Publish(ctx, notifications.EventSessionFailed, notifications.Payload{"session": "a"})
	if n := len(requests()); n != 0 {
		t.Fatalf("expected toggled events to be suppressed, got %d requests", n)
	}
	if err := svc.Publish(ctx, notifications.EventTest, nil); err != nil {
		t.Fatalf("Publish test: %v", err)
	}
	if n := len(requests()); n != 1 {
		t.Fatalf("expected test event to be sent, got %d requests", n)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.Event("bogus"), nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
