package node

import (
	"testing"

	"dsnode/internal/proto"
)

func TestCounterSequence(t *testing.T) {
	c := NewCounter()
	if c.Begin() != 0 || c.Current() != 0 {
		t.Fatalf("counter must start at 0")
	}
	for want := uint64(0); want < 5; want++ {
		if got := c.Reserve(); got != want {
			t.Fatalf("reserve %d: got %d", want, got)
		}
	}
	if c.Current() != 5 {
		t.Fatalf("expected current 5, got %d", c.Current())
	}
	var zero Counter
	if zero.Reserve() != 0 || zero.Current() != 1 {
		t.Fatalf("zero counter must be usable")
	}
}

func TestBaseInitCopiesMembership(t *testing.T) {
	b := NewBase[uint64](NewCounter())
	if _, ok := b.InitState(); ok {
		t.Fatalf("fresh base must be uninitialized")
	}
	if b.NodeID() != "" {
		t.Fatalf("fresh base has node id %q", b.NodeID())
	}
	ids := []string{"n1", "n2"}
	b.Init(proto.Init{NodeID: "n1", NodeIDs: ids})
	ids[1] = "mutated"
	state, ok := b.InitState()
	if !ok || state.NodeID != "n1" || state.NodeIDs[1] != "n2" {
		t.Fatalf("unexpected init state %+v", state)
	}
	if b.NextID() != 0 || b.NextID() != 1 || b.CurrentID() != 2 {
		t.Fatalf("ids not drawn from the sequence")
	}
}
