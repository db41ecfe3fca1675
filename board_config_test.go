package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultBoardConfig_Valid(t *testing.T) {
	cfg := DefaultBoardConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RouterBase != 0x40000000 || cfg.MailboxBase != 0x3F00B800 {
		t.Fatalf("expected Pi 2 bases, got $%08X/$%08X", cfg.RouterBase, cfg.MailboxBase)
	}
}

func TestParseBoardConfig_OverlaysDefaults(t *testing.T) {
	cfg, err := ParseBoardConfig([]byte(`
log: guest_errors,trace
channels: [1, 8]
manual_channels: [8]
routing:
  gpu_irq_core: 2
  timer_control: [0x01, 0x10]
  mailbox_irq_enable: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RouterBase != ROUTER_BASE {
		t.Fatalf("expected default router base, got $%08X", cfg.RouterBase)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[1] != 8 {
		t.Fatalf("expected channels [1 8], got %v", cfg.Channels)
	}
	if cfg.Routing.GPUIRQCore != 2 || len(cfg.Routing.TimerControl) != 2 || cfg.Routing.TimerControl[1] != 0x10 {
		t.Fatalf("unexpected routing %+v", cfg.Routing)
	}
	if !cfg.Routing.MailboxIRQEnable {
		t.Fatal("expected mailbox IRQ enable")
	}
}

func TestParseBoardConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unaligned", "router_base: 0x40000004", "page aligned"},
		{"overlap", "router_base: 0x3F00B800", "overlap"},
		{"bad log", "log: loud", "unknown log category"},
		{"channel range", "channels: [9]", "out of range"},
		{"duplicate", "channels: [1, 1]", "twice"},
		{"manual without actor", "channels: [1]\nmanual_channels: [3]", "no actor"},
		{"gpu core", "routing:\n  gpu_fiq_core: 4", "GPU routing"},
		{"too many cores", "routing:\n  mailbox_control: [1, 2, 3, 4, 5]", "more than"},
		{"syntax", "channels: [", "parsing"},
	}
	for _, tt := range tests {
		_, err := ParseBoardConfig([]byte(tt.yaml))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadBoardConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte("sentinel: 0x0E\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadBoardConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sentinel != 0x0E {
		t.Fatalf("expected sentinel $E, got $%X", cfg.Sentinel)
	}
	if _, err := LoadBoardConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
