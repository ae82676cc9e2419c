package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clipwatch/internal/config"
)

const userAgent = "clipwatch/0.1"

// Event names a notification the daemon can publish.
type Event string

const (
	// EventHighlightsReady fires when merged highlights were written.
	EventHighlightsReady Event = "highlights_ready"
	// EventNoHighlights fires when a session finished without any detections.
	EventNoHighlights Event = "no_highlights"
	// EventSessionFailed fires when recording or highlight processing failed.
	EventSessionFailed Event = "session_failed"
	// EventTest is sent by `clipwatch notify test`.
	EventTest Event = "test"
)

// Payload carries event-specific values. Keys are documented per event in format.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg.Notifications,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventHighlightsReady, EventNoHighlights:
		return n.cfg.Highlights
	case EventSessionFailed:
		return n.cfg.Errors
	default:
		return true
	}
}

// format renders event payloads:
//
//	highlights_ready: session, clips (int), output, duration (float64 seconds)
//	no_highlights:    session, recording
//	session_failed:   session, stage, error
func format(event Event, payload Payload) (message, bool) {
	session := payloadString(payload, "session")
	switch event {
	case EventHighlightsReady:
		body := fmt.Sprintf("🎬 %d highlight clip(s) merged for %s", payloadInt(payload, "clips"), session)
		if duration := payloadFloat(payload, "duration"); duration > 0 {
			body += fmt.Sprintf(" (%s)", (time.Duration(duration * float64(time.Second))).Round(time.Second))
		}
		if output := payloadString(payload, "output"); output != "" {
			body += "\nFile: " + output
		}
		return message{
			title: "clipwatch - Highlights Ready",
			body:  body,
			tags:  []string{"clipwatch", "highlights", "completed"},
		}, true
	case EventNoHighlights:
		body := fmt.Sprintf("No markers detected in %s", session)
		if recording := payloadString(payload, "recording"); recording != "" {
			body += "\nRecording: " + recording
		}
		return message{
			title:    "clipwatch - No Highlights",
			body:     body,
			tags:     []string{"clipwatch", "highlights", "empty"},
			priority: "low",
		}, true
	case EventSessionFailed:
		var builder strings.Builder
		builder.WriteString("❌ Session ")
		builder.WriteString(session)
		if stage := payloadString(payload, "stage"); stage != "" {
			builder.WriteString(" failed during ")
			builder.WriteString(stage)
		} else {
			builder.WriteString(" failed")
		}
		if errText := payloadString(payload, "error"); errText != "" {
			builder.WriteString(": ")
			builder.WriteString(errText)
		}
		return message{
			title:    "clipwatch - Error",
			body:     builder.String(),
			tags:     []string{"clipwatch", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "clipwatch - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clipwatch", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func payloadInt(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

func payloadFloat(payload Payload, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
