package encoder

import (
	"reflect"
	"testing"
)

func TestLineRingKeepsNewest(t *testing.T) {
	ring := newLineRing(3)
	if got := ring.snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
	ring.add("a")
	ring.add("b")
	if got := ring.snapshot(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected partial snapshot %v", got)
	}
	for _, line := range []string{"c", "d", "e"} {
		ring.add(line)
	}
	if got := ring.snapshot(); !reflect.DeepEqual(got, []string{"c", "d", "e"}) {
		t.Fatalf("unexpected wrapped snapshot %v", got)
	}
}
