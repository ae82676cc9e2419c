package detection

import (
	"reflect"
	"testing"
	"time"
)

func TestBufferDebounce(t *testing.T) {
	tests := []struct {
		name   string
		offers []time.Duration
		want   []time.Duration
	}{
		{"first always accepted", []time.Duration{2 * time.Second}, []time.Duration{2 * time.Second}},
		{"inside gap rejected", []time.Duration{10 * time.Second, 20 * time.Second, 24 * time.Second}, []time.Duration{10 * time.Second}},
		{"exact gap accepted", []time.Duration{10 * time.Second, 25 * time.Second}, []time.Duration{10 * time.Second, 25 * time.Second}},
		{"marker burst then later marker", []time.Duration{5 * time.Second, 10 * time.Second, 12 * time.Second, 40 * time.Second}, []time.Duration{5 * time.Second, 40 * time.Second}},
		{"gap measured from last accepted", []time.Duration{0, 14 * time.Second, 16 * time.Second, 30 * time.Second, 31 * time.Second}, []time.Duration{0, 16 * time.Second, 31 * time.Second}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := NewBuffer(15 * time.Second)
			for _, ts := range tc.offers {
				buf.Offer(ts)
			}
			if got := buf.Snapshot(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestBufferSnapshotIsCopyAndClearIsIdempotent(t *testing.T) {
	buf := NewBuffer(time.Second)
	buf.Offer(time.Second)
	snap := buf.Snapshot()
	snap[0] = time.Hour
	if buf.Snapshot()[0] != time.Second {
		t.Fatal("snapshot must not alias buffer storage")
	}
	buf.Clear()
	buf.Clear()
	if buf.Len() != 0 || len(buf.Snapshot()) != 0 {
		t.Fatal("expected empty buffer after clear")
	}
	if !buf.Offer(0) {
		t.Fatal("expected first offer after clear to be accepted")
	}
}
