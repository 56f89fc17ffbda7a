package kernel

import "testing"

func TestSeedStateDeterministic(t *testing.T) {
	a := NewSeedState(42)
	b := NewSeedState(42)
	for i := 0; i < 100; i++ {
		if sa, sb := a.Next(), b.Next(); sa != sb {
			t.Fatalf("draw %d: %d != %d", i, sa, sb)
		}
	}
}

func TestSeedStateCounterBased(t *testing.T) {
	// The i-th draw must not depend on how many draws happened in another
	// run: two fresh states agree draw-for-draw regardless of interleaving
	// elsewhere.
	long := NewSeedState(7)
	var fifth uint64
	for i := 0; i < 5; i++ {
		fifth = long.Next()
	}

	short := NewSeedState(7)
	for i := 0; i < 4; i++ {
		short.Next()
	}
	if got := short.Next(); got != fifth {
		t.Errorf("5th draw differs between runs: %d != %d", got, fifth)
	}
}

func TestSeedStateDistinctRoots(t *testing.T) {
	a := NewSeedState(1)
	b := NewSeedState(2)
	same := 0
	for i := 0; i < 64; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	if same != 0 {
		t.Errorf("%d collisions between distinct roots", same)
	}
}

func TestSeedStateSplit(t *testing.T) {
	root := NewSeedState(42)
	s1 := root.Split(1)
	s2 := root.Split(2)

	if s1.Next() == s2.Next() {
		t.Error("split streams with distinct keys should not collide on first draw")
	}

	// Splitting is stable: the same key yields the same stream.
	again := NewSeedState(42).Split(1)
	fresh := NewSeedState(42).Split(1)
	for i := 0; i < 10; i++ {
		if again.Next() != fresh.Next() {
			t.Fatalf("split stream not reproducible at draw %d", i)
		}
	}

	// Splitting does not advance the parent counter.
	if root.Counter() != 0 {
		t.Errorf("Split advanced parent counter to %d", root.Counter())
	}
}
