// debug_monitor.go - Board monitor core (command loop, output, history)

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MonitorState represents whether the monitor is active.
type MonitorState int

const (
	MonitorInactive MonitorState = iota
	MonitorActive
)

const monitorMaxHistory = 256

// MachineMonitor is the interactive front end over one board. Commands are
// parsed by ParseCommand and dispatched by ExecuteCommand.
type MachineMonitor struct {
	mu    sync.Mutex
	state MonitorState

	board  *Board
	script *ScriptHost
	out    io.Writer

	history []string

	// readClipboard is swapped in tests.
	readClipboard func() ([]byte, error)
}

// NewMachineMonitor creates a monitor writing to out.
func NewMachineMonitor(board *Board, out io.Writer) *MachineMonitor {
	if out == nil {
		out = io.Discard
	}
	return &MachineMonitor{
		state:         MonitorInactive,
		board:         board,
		script:        NewScriptHost(board, out),
		out:           out,
		readClipboard: readClipboardText,
	}
}

// SetOutput redirects monitor and script output.
func (m *MachineMonitor) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = w
	m.script.out = w
}

func (m *MachineMonitor) Activate() {
	m.mu.Lock()
	m.state = MonitorActive
	m.mu.Unlock()
}

func (m *MachineMonitor) Deactivate() {
	m.mu.Lock()
	m.state = MonitorInactive
	m.mu.Unlock()
}

func (m *MachineMonitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == MonitorActive
}

// History returns the executed command lines, oldest first.
func (m *MachineMonitor) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Close releases the Lua state.
func (m *MachineMonitor) Close() {
	m.script.Close()
}

func (m *MachineMonitor) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

// Execute runs one input line and reports whether the monitor should exit.
func (m *MachineMonitor) Execute(ctx context.Context, line string) bool {
	cmd := ParseCommand(line)
	if cmd.Name == "" {
		return false
	}
	m.mu.Lock()
	m.history = append(m.history, line)
	if len(m.history) > monitorMaxHistory {
		m.history = m.history[1:]
	}
	m.mu.Unlock()

	quit := m.ExecuteCommand(ctx, cmd)
	if quit {
		m.Deactivate()
	}
	return quit
}
