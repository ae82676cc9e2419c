package status

import (
	"context"
	"sync"
	"time"
)

// Phase names a step in the recording lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseStarting   Phase = "starting"
	PhaseRecording  Phase = "recording"
	PhaseStopping   Phase = "stopping"
	PhaseValidating Phase = "validating"
	PhaseExtracting Phase = "extracting"
	PhaseMerging    Phase = "merging"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
	PhaseDetection  Phase = "detection"
)

// Event is a single status message.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
}

const defaultCapacity = 256

// Hub stores recent events and wakes waiters when new events arrive.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	subs     map[int]chan Event
	nextSub  int
	dropped  uint64
}

// NewHub constructs a hub retaining at most capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	h := &Hub{capacity: capacity, subs: make(map[int]chan Event)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends a message for phase.
func (h *Hub) Publish(phase Phase, message string) {
	h.PublishEvent(Event{Phase: phase, Message: message})
}

// Note publishes a progress message under the phase and session of the most
// recent event. Collaborators that only know a message, not a phase, report
// through Note.
func (h *Hub) Note(message string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	var evt Event
	if n := len(h.buffer); n > 0 {
		evt.Phase = h.buffer[n-1].Phase
		evt.SessionID = h.buffer[n-1].SessionID
	}
	h.mu.Unlock()
	if evt.Phase == "" {
		evt.Phase = PhaseIdle
	}
	evt.Message = message
	h.PublishEvent(evt)
}

// PublishEvent appends evt, assigning its sequence number and timestamp.
func (h *Hub) PublishEvent(evt Event) Event {
	if h == nil {
		return evt
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)

	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped++
		}
	}
	h.cond.Broadcast()
	return evt
}

// Fetch returns up to limit events with sequence greater than since, plus the
// latest sequence number. When wait is true it blocks until at least one event
// is available or ctx ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	if wait {
		stop := context.AfterFunc(ctx, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		})
		defer stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
	}
}

// Latest returns the most recent event.
func (h *Hub) Latest() (Event, bool) {
	if h == nil {
		return Event{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return Event{}, false
	}
	return h.buffer[len(h.buffer)-1], true
}

// Subscribe returns a channel receiving every subsequent event and a cancel
// function that closes it. Events are dropped for a subscriber whose buffer is full.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Dropped reports how many subscriber deliveries were skipped.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	start := len(h.buffer)
	for i, evt := range h.buffer {
		if evt.Sequence > since {
			start = i
			break
		}
	}
	if start == len(h.buffer) {
		return nil, h.nextSeq
	}
	end := min(start+limit, len(h.buffer))
	out := make([]Event, end-start)
	copy(out, h.buffer[start:end])
	return out, out[len(out)-1].Sequence
}
