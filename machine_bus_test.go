package main

import "testing"

type regFile struct {
	regs   map[uint32]uint32
	reads  int
	writes int
}

func newRegFile() *regFile { return &regFile{regs: make(map[uint32]uint32)} }

func (r *regFile) HandleRead(offset uint32) uint32 {
	r.reads++
	return r.regs[offset]
}

func (r *regFile) HandleWrite(offset uint32, value uint32) {
	r.writes++
	r.regs[offset] = value
}

func TestMachineBus_RAMReadWrite(t *testing.T) {
	bus := NewMachineBus("ram", 0x100, 0x40, nil)
	bus.Write32(0x104, 0xDEADBEEF)
	if got := bus.Read32(0x104); got != 0xDEADBEEF {
		t.Fatalf("expected $DEADBEEF, got $%08X", got)
	}
	if got := bus.Read16(0x106); got != 0xDEAD {
		t.Fatalf("expected $DEAD, got $%04X", got)
	}
	if got := bus.Read8(0x104); got != 0xEF {
		t.Fatalf("expected $EF, got $%02X", got)
	}
	bus.Write8(0x105, 0x00)
	if got := bus.Read32(0x104); got != 0xDEAD00EF {
		t.Fatalf("expected $DEAD00EF, got $%08X", got)
	}
}

func TestMachineBus_DeviceSeesRelativeOffsets(t *testing.T) {
	bus := NewMachineBus("soc", 0, 0, nil)
	dev := newRegFile()
	bus.MapDevice(0x40000000, 0x100, dev)

	bus.Write32(0x40000050, 7)
	if dev.regs[0x50] != 7 {
		t.Fatalf("expected write at offset $50, got %v", dev.regs)
	}
	if got := bus.Read32(0x40000050); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestMachineBus_NarrowDeviceAccessIsGuestError(t *testing.T) {
	log := NewGuestLog(nil, 0)
	bus := NewMachineBus("soc", 0, 0, log)
	dev := newRegFile()
	dev.regs[0] = 0x12345678
	bus.MapDevice(0x1000, 0x100, dev)

	if got := bus.Read16(0x1000); got != 0 {
		t.Fatalf("expected 0 for 16-bit read, got $%04X", got)
	}
	if got := bus.Read8(0x1000); got != 0 {
		t.Fatalf("expected 0 for 8-bit read, got $%02X", got)
	}
	bus.Write16(0x1000, 1)
	bus.Write8(0x1000, 1)
	if got := bus.Read32(0x1002); got != 0 {
		t.Fatalf("expected 0 for unaligned read, got $%08X", got)
	}
	bus.Write32(0x1002, 1)

	if dev.reads != 0 || dev.writes != 0 {
		t.Fatalf("expected device untouched, got %d reads %d writes", dev.reads, dev.writes)
	}
	if got := log.Count(LogGuestError); got != 6 {
		t.Fatalf("expected 6 guest errors, got %d", got)
	}
}

func TestMachineBus_UnmappedAccessIsGuestError(t *testing.T) {
	log := NewGuestLog(nil, 0)
	bus := NewMachineBus("soc", 0, 0x10, log)

	if got := bus.Read32(0x10); got != 0 {
		t.Fatalf("expected 0, got $%08X", got)
	}
	bus.Write32(0x0E, 1) // straddles the end of RAM
	if got := log.Count(LogGuestError); got != 2 {
		t.Fatalf("expected 2 guest errors, got %d", got)
	}
}

func TestMachineBus_LoadMemoryRejectsWrongSize(t *testing.T) {
	bus := NewMachineBus("ram", 0, 16, nil)
	if err := bus.LoadMemory(make([]byte, 8)); err == nil {
		t.Fatal("expected error for short image")
	}
	img := make([]byte, 16)
	img[0] = 0xAA
	if err := bus.LoadMemory(img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.Read8(0) != 0xAA {
		t.Fatalf("expected $AA, got $%02X", bus.Read8(0))
	}
	bus.Reset()
	if bus.Read8(0) != 0 {
		t.Fatal("expected RAM cleared by reset")
	}
}
