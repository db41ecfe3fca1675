package main

import "testing"

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

func TestMachineBus_SealPanicsOnLateMapIO(t *testing.T) {
	bus := NewMachineBus("test", 0, 0x100, nil)
	bus.SealMappings()

	expectPanic(t, func() {
		bus.MapIO(0x1000, 0x10FF, nil, nil)
	})
}

func TestMachineBus_MapIOOverlapPanics(t *testing.T) {
	bus := NewMachineBus("test", 0, 0, nil)
	bus.MapIO(0x1000, 0x10FF, nil, nil)

	expectPanic(t, func() {
		bus.MapIO(0x1080, 0x117F, nil, nil)
	})
	expectPanic(t, func() {
		bus.MapIO(0x0F00, 0x1000, nil, nil)
	})
}

func TestMachineBus_MapIOInvertedPanics(t *testing.T) {
	bus := NewMachineBus("test", 0, 0, nil)
	expectPanic(t, func() {
		bus.MapIO(0x2000, 0x1000, nil, nil)
	})
}

func TestMachineBus_AdjacentRegionsAllowed(t *testing.T) {
	bus := NewMachineBus("test", 0, 0, nil)
	bus.MapIO(0x1000, 0x100F, nil, nil)
	bus.MapIO(0x1010, 0x101F, nil, nil)
}
