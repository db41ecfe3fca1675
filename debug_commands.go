// debug_commands.go - Command parser and handlers for the board monitor

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
	"strconv"
	"strings"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a monitor address in various formats:
// $hex, 0xhex, bare hex, #decimal
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// #decimal
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}

	// $hex
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}

	// 0x or 0X hex
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}

	// bare hex (try hex first)
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// parseWord is ParseAddress limited to 32 bits.
func parseWord(s string) (uint32, bool) {
	v, ok := ParseAddress(s)
	if !ok || v > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(v), true
}

func parseLevel(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "on", "high":
		return true, true
	case "0", "off", "low":
		return false, true
	}
	return false, false
}

const monitorHelp = `Commands:
  r                      dump router and mailbox state
  m <addr>               read word from peripheral bus
  w <addr> <value>       write word to peripheral bus
  rr <off>               read router register
  rw <off> <value>       write router register
  mr <off>               read mailbox register
  mw <off> <value>       write mailbox register
  irq <core> <src> <0|1> drive a per-core timer line
  gpu <irq|fiq> <0|1>    drive the GPU interrupt lines
  resp <chan> <value>    make a channel produce a response
  done <chan>            complete a held request on a manual channel
  log <mask>             set log mask (guest_errors,unimp,trace,all,none)
  reset                  reset the board
  save <file>            write snapshot
  load <file>            restore snapshot
  lua <code>             run a Lua chunk
  paste                  run clipboard text as Lua
  x                      exit
`

// ExecuteCommand runs a parsed command and reports whether the monitor
// should exit.
func (m *MachineMonitor) ExecuteCommand(ctx context.Context, cmd MonitorCommand) bool {
	switch cmd.Name {
	case "h", "help", "?":
		m.printf("%s", monitorHelp)
	case "r", "regs":
		DumpBoard(m.out, m.board)
	case "m":
		m.cmdReadBus(cmd)
	case "w":
		m.cmdWriteBus(cmd)
	case "rr", "mr":
		m.cmdReadBlock(cmd)
	case "rw", "mw":
		m.cmdWriteBlock(cmd)
	case "irq":
		m.cmdLocalIRQ(cmd)
	case "gpu":
		m.cmdGPU(cmd)
	case "resp":
		m.cmdRespond(cmd)
	case "done":
		m.cmdComplete(cmd)
	case "log":
		m.cmdLog(cmd)
	case "reset":
		m.board.Reset()
		m.printf("Board reset\n")
	case "save":
		m.cmdSave(cmd)
	case "load":
		m.cmdLoad(cmd)
	case "lua":
		m.runLua(ctx, strings.Join(cmd.Args, " "))
	case "paste":
		m.cmdPaste(ctx)
	case "x", "q", "quit", "exit":
		return true
	default:
		m.printf("Unknown command: %s (h for help)\n", cmd.Name)
	}
	return false
}

func (m *MachineMonitor) cmdReadBus(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Usage: m <addr>\n")
		return
	}
	addr, ok := parseWord(cmd.Args[0])
	if !ok {
		m.printf("Invalid address: %s\n", cmd.Args[0])
		return
	}
	m.printf("$%08X: $%08X\n", addr, m.board.Bus.Read32(addr))
}

func (m *MachineMonitor) cmdWriteBus(cmd MonitorCommand) {
	if len(cmd.Args) != 2 {
		m.printf("Usage: w <addr> <value>\n")
		return
	}
	addr, ok1 := parseWord(cmd.Args[0])
	val, ok2 := parseWord(cmd.Args[1])
	if !ok1 || !ok2 {
		m.printf("Invalid address or value\n")
		return
	}
	m.board.Bus.Write32(addr, val)
}

func (m *MachineMonitor) blockBase(name string) (uint32, uint32) {
	if name[0] == 'r' {
		return m.board.Config.RouterBase, ROUTER_REGION_SIZE
	}
	return m.board.Config.MailboxBase, MBOX_REGION_SIZE
}

func (m *MachineMonitor) cmdReadBlock(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Usage: %s <offset>\n", cmd.Name)
		return
	}
	base, size := m.blockBase(cmd.Name)
	off, ok := parseWord(cmd.Args[0])
	if !ok || off >= size {
		m.printf("Invalid offset: %s\n", cmd.Args[0])
		return
	}
	m.printf("+$%02X: $%08X\n", off, m.board.Bus.Read32(base+off))
}

func (m *MachineMonitor) cmdWriteBlock(cmd MonitorCommand) {
	if len(cmd.Args) != 2 {
		m.printf("Usage: %s <offset> <value>\n", cmd.Name)
		return
	}
	base, size := m.blockBase(cmd.Name)
	off, ok1 := parseWord(cmd.Args[0])
	val, ok2 := parseWord(cmd.Args[1])
	if !ok1 || !ok2 || off >= size {
		m.printf("Invalid offset or value\n")
		return
	}
	m.board.Bus.Write32(base+off, val)
}

func (m *MachineMonitor) cmdLocalIRQ(cmd MonitorCommand) {
	if len(cmd.Args) != 3 {
		m.printf("Usage: irq <core> <src> <0|1>\n")
		return
	}
	core, err1 := strconv.Atoi(cmd.Args[0])
	src, err2 := strconv.Atoi(cmd.Args[1])
	level, ok := parseLevel(cmd.Args[2])
	if err1 != nil || err2 != nil || !ok ||
		core < 0 || core >= ROUTER_CORES || src < 0 || src >= LOCAL_IRQ_COUNT {
		m.printf("Invalid core, source or level\n")
		return
	}
	m.board.Router.SetLocalIRQ(core, src, level)
}

func (m *MachineMonitor) cmdGPU(cmd MonitorCommand) {
	if len(cmd.Args) != 2 {
		m.printf("Usage: gpu <irq|fiq> <0|1>\n")
		return
	}
	level, ok := parseLevel(cmd.Args[1])
	if !ok {
		m.printf("Invalid level: %s\n", cmd.Args[1])
		return
	}
	switch strings.ToLower(cmd.Args[0]) {
	case "irq":
		m.board.Router.SetGPUIRQ(level)
	case "fiq":
		m.board.Router.SetGPUFIQ(level)
	default:
		m.printf("Invalid line: %s\n", cmd.Args[0])
	}
}

func (m *MachineMonitor) cmdRespond(cmd MonitorCommand) {
	if len(cmd.Args) != 2 {
		m.printf("Usage: resp <chan> <value>\n")
		return
	}
	ch, err := strconv.Atoi(cmd.Args[0])
	val, ok := parseWord(cmd.Args[1])
	if err != nil || !ok {
		m.printf("Invalid channel or value\n")
		return
	}
	if err := m.board.Respond(ch, val); err != nil {
		m.printf("Error: %v\n", err)
	}
}

func (m *MachineMonitor) cmdComplete(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Usage: done <chan>\n")
		return
	}
	ch, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		m.printf("Invalid channel: %s\n", cmd.Args[0])
		return
	}
	if err := m.board.Complete(ch); err != nil {
		m.printf("Error: %v\n", err)
	}
}

func (m *MachineMonitor) cmdLog(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Log mask: $%X\n", uint32(m.board.Log.Mask()))
		return
	}
	mask, err := ParseLogMask(cmd.Args[0])
	if err != nil {
		m.printf("Error: %v\n", err)
		return
	}
	m.board.Log.SetMask(mask)
}

func (m *MachineMonitor) cmdSave(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Usage: save <file>\n")
		return
	}
	if err := SaveSnapshotToFile(m.board.TakeSnapshot(), cmd.Args[0]); err != nil {
		m.printf("Error: %v\n", err)
		return
	}
	m.printf("Saved %s\n", cmd.Args[0])
}

func (m *MachineMonitor) cmdLoad(cmd MonitorCommand) {
	if len(cmd.Args) != 1 {
		m.printf("Usage: load <file>\n")
		return
	}
	snap, err := LoadSnapshotFromFile(cmd.Args[0])
	if err == nil {
		err = m.board.RestoreSnapshot(snap)
	}
	if err != nil {
		m.printf("Error: %v\n", err)
		return
	}
	m.printf("Loaded %s\n", cmd.Args[0])
}

func (m *MachineMonitor) cmdPaste(ctx context.Context) {
	text, err := m.readClipboard()
	if err != nil {
		m.printf("Clipboard: %v\n", err)
		return
	}
	if len(text) == 0 {
		m.printf("Clipboard empty\n")
		return
	}
	m.runLua(ctx, string(text))
}

func (m *MachineMonitor) runLua(ctx context.Context, src string) {
	if strings.TrimSpace(src) == "" {
		return
	}
	if err := m.script.RunString(ctx, src); err != nil {
		m.printf("%v\n", err)
	}
}

// String renders the board summary, used by the monitor prompt banner.
func (m *MachineMonitor) String() string {
	var sb strings.Builder
	irq := 0
	for i := 0; i < ROUTER_CORES; i++ {
		if m.board.CoreIRQ[i].Level() || m.board.CoreFIQ[i].Level() {
			irq++
		}
	}
	fmt.Fprintf(&sb, "qa7 router=$%08X mailbox=$%08X cores-interrupted=%d",
		m.board.Config.RouterBase, m.board.Config.MailboxBase, irq)
	return sb.String()
}
