package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScripts_IsolatedBoards(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeScript(t, dir, "a.lua", `router_write(MAILBOX_SET, 1) print(router_read(MAILBOX_CLR))`),
		writeScript(t, dir, "b.lua", `print(router_read(MAILBOX_CLR))`),
		writeScript(t, dir, "c.lua", `expect(false, "boom")`),
	}

	results, err := RunScripts(context.Background(), DefaultBoardConfig(), paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || strings.TrimSpace(results[0].Output) != "1" {
		t.Fatalf("a.lua: expected output 1, got %q (%v)", results[0].Output, results[0].Err)
	}
	if results[1].Err != nil || strings.TrimSpace(results[1].Output) != "0" {
		t.Fatalf("b.lua: expected fresh board, got %q (%v)", results[1].Output, results[1].Err)
	}
	if results[2].Err == nil {
		t.Fatal("c.lua: expected failure")
	}

	var buf bytes.Buffer
	PrintScriptResults(&buf, results)
	if !strings.Contains(buf.String(), "a.lua: ok") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("unexpected report %q", buf.String())
	}
}

func TestRunScripts_InvalidConfig(t *testing.T) {
	cfg := DefaultBoardConfig()
	cfg.Log = "shouting"
	if _, err := RunScripts(context.Background(), cfg, []string{"x.lua"}); err == nil {
		t.Fatal("expected config error")
	}
}
