package status

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubFetchSinceAndLimit(t *testing.T) {
	hub := NewHub(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		hub.Publish(PhaseRecording, msg)
	}

	events, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 3 || events[0].Message != "b" || events[2].Message != "d" {
		t.Fatalf("expected ring to keep newest three, got %+v", events)
	}
	if next != 4 {
		t.Fatalf("expected next sequence 4, got %d", next)
	}

	events, _, _ = hub.Fetch(context.Background(), 3, 10, false)
	if len(events) != 1 || events[0].Message != "d" {
		t.Fatalf("expected only event after seq 3, got %+v", events)
	}

	events, cursor, _ := hub.Fetch(context.Background(), 1, 1, false)
	if len(events) != 1 || events[0].Sequence != 2 {
		t.Fatalf("expected limit to apply, got %+v", events)
	}
	if cursor != 2 {
		t.Fatalf("expected cursor at last returned event, got %d", cursor)
	}

	if events, _, _ := hub.Fetch(context.Background(), 4, 0, false); len(events) != 0 {
		t.Fatalf("expected no events past latest, got %+v", events)
	}
}

func TestHubFetchWaitsForPublish(t *testing.T) {
	hub := NewHub(8)
	result := make(chan []Event, 1)
	go func() {
		events, _, _ := hub.Fetch(context.Background(), 0, 0, true)
		result <- events
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(PhaseMerging, "Merging clips...")

	select {
	case events := <-result:
		if len(events) != 1 || events[0].Phase != PhaseMerging {
			t.Fatalf("unexpected events %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestHubFetchHonoursCancellation(t *testing.T) {
	hub := NewHub(8)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 0, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestHubSubscribeDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub(8)
	ch, cancel := hub.Subscribe(1)

	hub.Publish(PhaseStarting, "one")
	hub.Publish(PhaseRecording, "two")

	evt := <-ch
	if evt.Message != "one" {
		t.Fatalf("expected first event, got %+v", evt)
	}
	if hub.Dropped() != 1 {
		t.Fatalf("expected one dropped delivery, got %d", hub.Dropped())
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
	hub.Publish(PhaseIdle, "after cancel")

	latest, ok := hub.Latest()
	if !ok || latest.Message != "after cancel" {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestHubNoteInheritsPhaseAndSession(t *testing.T) {
	hub := NewHub(8)
	hub.Note("before anything")
	if latest, _ := hub.Latest(); latest.Phase != PhaseIdle {
		t.Fatalf("expected idle phase for first note, got %s", latest.Phase)
	}

	hub.PublishEvent(Event{Phase: PhaseStopping, Message: "Stopping recording", SessionID: "20250102_150405"})
	hub.Note("Sending stop signal to FFmpeg...")

	latest, ok := hub.Latest()
	if !ok || latest.Phase != PhaseStopping || latest.SessionID != "20250102_150405" {
		t.Fatalf("unexpected note event %+v", latest)
	}
	if latest.Message != "Sending stop signal to FFmpeg..." {
		t.Fatalf("unexpected message %q", latest.Message)
	}
}
