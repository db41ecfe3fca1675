package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const monitorPrompt = "qa7> "

// TerminalHost runs a monitor against the process terminal. On a tty it
// switches to raw mode and uses term.Terminal for line editing; otherwise
// it reads plain lines.
type TerminalHost struct {
	monitor      *MachineMonitor
	fd           int
	stopped      sync.Once
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter for the given monitor.
func NewTerminalHost(monitor *MachineMonitor) *TerminalHost {
	return &TerminalHost{monitor: monitor, fd: int(os.Stdin.Fd())}
}

// Run reads commands until exit, EOF or ctx cancellation.
func (h *TerminalHost) Run(ctx context.Context) error {
	h.monitor.Activate()
	defer h.monitor.Deactivate()

	if !term.IsTerminal(h.fd) {
		return h.RunLines(ctx, os.Stdin, os.Stdout)
	}
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		return h.RunLines(ctx, os.Stdin, os.Stdout)
	}
	h.oldTermState = oldState
	defer h.Stop()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, monitorPrompt)
	if w, hgt, err := term.GetSize(h.fd); err == nil {
		_ = t.SetSize(w, hgt)
	}
	h.monitor.SetOutput(t)
	defer h.monitor.SetOutput(os.Stdout)

	for ctx.Err() == nil {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if h.monitor.Execute(ctx, line) {
			return nil
		}
	}
	return ctx.Err()
}

// RunLines drives the monitor from a plain line stream.
func (h *TerminalHost) RunLines(ctx context.Context, r io.Reader, w io.Writer) error {
	h.monitor.SetOutput(w)
	sc := bufio.NewScanner(r)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(w, monitorPrompt)
		if !sc.Scan() {
			fmt.Fprintln(w)
			return sc.Err()
		}
		if h.monitor.Execute(ctx, sc.Text()) {
			return nil
		}
	}
}

// Stop restores the terminal state. Safe to call more than once.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		if h.oldTermState != nil {
			_ = term.Restore(h.fd, h.oldTermState)
			h.oldTermState = nil
		}
	})
}
