package pool

import "testing"

func intEq(a, b int) bool { return a == b }

func TestAddReusesFreedSlot(t *testing.T) {
	p := New[int](0)
	h1 := p.Add(10)
	h2 := p.Add(20)
	if !p.Remove(h1, 10, intEq) {
		t.Fatalf("Remove(h1) should succeed")
	}
	if p.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", p.Size())
	}
	h3 := p.Add(30)
	if h3 != h1 {
		t.Fatalf("Add() after Remove should reuse freed handle %d, got %d", h1, h3)
	}
	if p.Get(h2) != 20 {
		t.Fatalf("Get(h2) = %d, want 20", p.Get(h2))
	}
}

func TestRemoveWitnessMismatchFails(t *testing.T) {
	p := New[int](0)
	h := p.Add(42)
	if p.Remove(h, 99, intEq) {
		t.Fatalf("Remove with wrong witness should fail")
	}
	if p.Get(h) != 42 {
		t.Fatalf("mismatched Remove must not mutate the slot")
	}
}

func TestRemovePtrIdentity(t *testing.T) {
	p := New[int](0)
	h := p.Add(7)
	other := 7
	if p.RemovePtr(h, &other) {
		t.Fatalf("RemovePtr with a foreign pointer should fail")
	}
	if !p.RemovePtr(h, p.Ptr(h)) {
		t.Fatalf("RemovePtr with the pool's own pointer should succeed")
	}
	if !p.IsInFree(h) {
		t.Fatalf("handle should be on the free list after RemovePtr")
	}
}

func TestMoveOutClearsPool(t *testing.T) {
	p := New[int](0)
	p.Add(1)
	p.Add(2)
	out := p.MoveOut()
	if len(out) != 2 {
		t.Fatalf("MoveOut() len = %d, want 2", len(out))
	}
	if p.Size() != 0 {
		t.Fatalf("pool should be empty after MoveOut")
	}
}

func TestGetOutOfRangeReturnsZero(t *testing.T) {
	p := New[int](0)
	if v := p.Get(5); v != 0 {
		t.Fatalf("Get() out of range = %d, want zero value", v)
	}
}
