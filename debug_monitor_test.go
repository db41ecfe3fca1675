package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newTestMonitor(t *testing.T) (*MachineMonitor, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	m := NewMachineMonitor(newTestBoard(t, nil), &out)
	t.Cleanup(m.Close)
	return m, &out
}

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("  RW 40  0x11 ")
	if cmd.Name != "rw" || len(cmd.Args) != 2 || cmd.Args[1] != "0x11" {
		t.Fatalf("unexpected parse %+v", cmd)
	}
	if ParseCommand("   ").Name != "" {
		t.Fatal("expected empty command")
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"$3F00B880", 0x3F00B880, true},
		{"0x40", 0x40, true},
		{"#64", 64, true},
		{"ff", 0xFF, true},
		{"zz", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAddress(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("%q: expected %X/%v, got %X/%v", tt.in, tt.want, tt.ok, got, ok)
		}
	}
	if _, ok := parseWord("$100000000"); ok {
		t.Fatal("expected 33-bit value rejected")
	}
}

func TestMonitor_RegisterCommands(t *testing.T) {
	m, out := newTestMonitor(t)
	ctx := context.Background()

	m.Execute(ctx, "rw 40 1")
	m.Execute(ctx, "irq 0 0 1")
	out.Reset()
	m.Execute(ctx, "rr 60")
	if !strings.Contains(out.String(), "+$60: $00000001") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	m.Execute(ctx, "m $40000040")
	if !strings.Contains(out.String(), "$40000040: $00000001") {
		t.Fatalf("unexpected output %q", out.String())
	}

	m.Execute(ctx, "mw 9c 1")
	m.Execute(ctx, "w $3F00B8A0 $00001008")
	out.Reset()
	m.Execute(ctx, "mr 80")
	if !strings.Contains(out.String(), "$00001008") {
		t.Fatalf("expected mailbox response, got %q", out.String())
	}

	m.Execute(ctx, "gpu fiq on")
	if !m.board.CoreFIQ[0].Level() {
		t.Fatal("expected GPU FIQ on core 0")
	}
}

func TestMonitor_BadInput(t *testing.T) {
	m, out := newTestMonitor(t)
	ctx := context.Background()
	for _, line := range []string{"bogus", "rr 100", "irq 4 0 1", "gpu nmi 1", "resp 2 5", "done 1", "m", "log loud"} {
		out.Reset()
		m.Execute(ctx, line)
		if out.Len() == 0 {
			t.Fatalf("%q: expected a diagnostic", line)
		}
	}
}

func TestMonitor_DumpShowsState(t *testing.T) {
	m, out := newTestMonitor(t)
	ctx := context.Background()
	m.Execute(ctx, "rw 40 1")
	m.Execute(ctx, "irq 0 0 1")
	out.Reset()
	m.Execute(ctx, "r")

	s := out.String()
	for _, want := range []string{"Interrupt router", "core0 IRQ ON", "irqsrc=$001", "Mailbox semaphore", "mbox0 status=$40000000 []", "property"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in dump:\n%s", want, s)
		}
	}
}

func TestMonitor_LuaAndPaste(t *testing.T) {
	m, out := newTestMonitor(t)
	ctx := context.Background()

	m.Execute(ctx, "lua print(irq_source(0))")
	if strings.TrimSpace(out.String()) != "0" {
		t.Fatalf("expected 0, got %q", out.String())
	}

	m.readClipboard = func() ([]byte, error) { return []byte(`local_irq(1, 0, true) print("pasted")`), nil }
	out.Reset()
	m.Execute(ctx, "paste")
	if !strings.Contains(out.String(), "pasted") || m.board.Router.LocalIRQs(1) != 1 {
		t.Fatalf("expected pasted chunk to run, got %q", out.String())
	}

	m.readClipboard = func() ([]byte, error) { return nil, errors.New("no display") }
	out.Reset()
	m.Execute(ctx, "paste")
	if !strings.Contains(out.String(), "no display") {
		t.Fatalf("expected clipboard error, got %q", out.String())
	}
}

func TestMonitor_SaveLoadReset(t *testing.T) {
	m, _ := newTestMonitor(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap.qa7")

	m.Execute(ctx, "rw c 3")
	m.Execute(ctx, "save "+path)
	m.Execute(ctx, "reset")
	if m.board.ReadRouter(ROUTER_GPU_ROUTE) != 0 {
		t.Fatal("expected reset to clear routing")
	}
	m.Execute(ctx, "load "+path)
	if got := m.board.ReadRouter(ROUTER_GPU_ROUTE); got != 3 {
		t.Fatalf("expected route 3 after load, got %d", got)
	}
}

func TestMonitor_QuitAndHistory(t *testing.T) {
	m, _ := newTestMonitor(t)
	ctx := context.Background()
	m.Activate()
	if m.Execute(ctx, "h") {
		t.Fatal("help should not quit")
	}
	m.Execute(ctx, "")
	if !m.Execute(ctx, "x") {
		t.Fatal("expected x to quit")
	}
	if m.IsActive() {
		t.Fatal("expected monitor inactive after quit")
	}
	if h := m.History(); len(h) != 2 || h[1] != "x" {
		t.Fatalf("expected [h x], got %v", h)
	}
}

func TestTerminalHost_RunLines(t *testing.T) {
	m, _ := newTestMonitor(t)
	host := NewTerminalHost(m)
	var out bytes.Buffer
	in := strings.NewReader("rw 40 1\nirq 0 0 1\nrr 60\nx\nrr 60\n")

	if err := host.RunLines(context.Background(), in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := strings.Count(out.String(), "+$60: $00000001"); c != 1 {
		t.Fatalf("expected one source read before exit, got %d in %q", c, out.String())
	}
	host.Stop()
}
