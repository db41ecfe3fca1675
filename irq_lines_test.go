package main

import "testing"

func TestLevelLatch_CountsRisingEdges(t *testing.T) {
	l := NewLevelLatch("core0.irq")
	l.SetLevel(true)
	l.SetLevel(true)
	l.SetLevel(false)
	l.SetLevel(true)

	if !l.Level() {
		t.Fatal("expected level high")
	}
	if l.Rises() != 2 {
		t.Fatalf("expected 2 rises, got %d", l.Rises())
	}
	if l.Drives() != 4 {
		t.Fatalf("expected 4 drives, got %d", l.Drives())
	}

	l.Reset()
	if l.Level() || l.Rises() != 0 || l.Drives() != 0 {
		t.Fatal("expected latch cleared by reset")
	}
}

func TestIRQLineFunc_NilIsHarmless(t *testing.T) {
	var f IRQLineFunc
	f.SetLevel(true)
	lineOrDetached(nil).SetLevel(true)
}
