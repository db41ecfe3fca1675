package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseLogMask(t *testing.T) {
	tests := []struct {
		in   string
		want LogMask
	}{
		{"", 0},
		{"none", 0},
		{"guest_errors", LogGuestError},
		{"guest_errors, trace", LogGuestError | LogTrace},
		{"UNIMP", LogUnimp},
		{"all", LogAll},
	}
	for _, tt := range tests {
		got, err := ParseLogMask(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected $%X, got $%X", tt.in, tt.want, got)
		}
	}
	if _, err := ParseLogMask("guest_errors,bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestGuestLog_MaskGatesOutputNotCounts(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	log := NewGuestLog(&buf, LogGuestError)

	log.GuestErrorf("bad offset $%X", 0x44)
	log.Tracef("pulled")

	if !strings.Contains(buf.String(), "Warning: bad offset $44") {
		t.Fatalf("expected guest error printed, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "pulled") {
		t.Fatalf("expected trace suppressed, got %q", buf.String())
	}
	if log.Count(LogGuestError) != 1 || log.Count(LogTrace) != 1 {
		t.Fatalf("expected 1/1 counts, got %d/%d", log.Count(LogGuestError), log.Count(LogTrace))
	}
	if log.Last() != "pulled" {
		t.Fatalf("expected last message %q, got %q", "pulled", log.Last())
	}
}

func TestGuestLog_NilIsDiscard(t *testing.T) {
	var log *GuestLog
	log.GuestErrorf("ignored")
	log.SetMask(LogAll)
	if log.Count(LogGuestError) != 0 || log.Mask() != 0 || log.Last() != "" {
		t.Fatal("expected nil logger to report nothing")
	}
}
