// script_lua.go - Lua scenario scripting against a board

package main

import (
	"context"
	"fmt"
	"io"
	"math"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost runs Lua scenarios that poke registers and drive lines on one
// board. A host is not safe for concurrent use; run one host per board.
type ScriptHost struct {
	board *Board
	out   io.Writer
	L     *lua.LState
}

var scriptConstants = map[string]uint32{
	"GPU_ROUTE":     ROUTER_GPU_ROUTE,
	"TIMER_CTRL":    ROUTER_TIMER_CTRL,
	"MAILBOX_CTRL":  ROUTER_MAILBOX_CTRL,
	"IRQ_SOURCE":    ROUTER_IRQ_SOURCE,
	"FIQ_SOURCE":    ROUTER_FIQ_SOURCE,
	"MAILBOX_SET":   ROUTER_MAILBOX_SET,
	"MAILBOX_CLR":   ROUTER_MAILBOX_CLR,
	"MAIL0_READ":    MAIL0_READ0,
	"MAIL0_PEEK":    MAIL0_PEEK,
	"MAIL0_SENDER":  MAIL0_SENDER,
	"MAIL0_STATUS":  MAIL0_STATUS,
	"MAIL0_CONFIG":  MAIL0_CONFIG,
	"MAIL1_WRITE":   MAIL1_WRITE0,
	"MAIL1_STATUS":  MAIL1_STATUS,
	"MBOX_FULL":     ARM_MS_FULL,
	"MBOX_EMPTY":    ARM_MS_EMPTY,
	"MBOX_IRQ_EN":   ARM_MC_IHAVEDATAIRQEN,
	"CHAN_POWER":    MBOX_CHAN_POWER,
	"CHAN_FB":       MBOX_CHAN_FB,
	"CHAN_VCHIQ":    MBOX_CHAN_VCHIQ,
	"CHAN_PROPERTY": MBOX_CHAN_PROPERTY,
	"SRC_GPU":       IRQ_GPU,
	"SRC_MAILBOX0":  IRQ_MAILBOX0,
	"SRC_CNTPSIRQ":  IRQ_CNTPSIRQ,
	"SRC_CNTPNSIRQ": IRQ_CNTPNSIRQ,
	"SRC_CNTHPIRQ":  IRQ_CNTHPIRQ,
	"SRC_CNTVIRQ":   IRQ_CNTVIRQ,
	"INVALID_DATA":  MBOX_INVALID_DATA,
	"ROUTER_CORES":  ROUTER_CORES,
	"CHANNEL_COUNT": MBOX_CHAN_COUNT,
}

// NewScriptHost creates a Lua state bound to board. print() goes to out.
func NewScriptHost(board *Board, out io.Writer) *ScriptHost {
	if out == nil {
		out = io.Discard
	}
	h := &ScriptHost{
		board: board,
		out:   out,
		L:     lua.NewState(),
	}
	for name, v := range scriptConstants {
		h.L.SetGlobal(name, lua.LNumber(v))
	}
	for name, fn := range map[string]lua.LGFunction{
		"router_read":  h.luaRouterRead,
		"router_write": h.luaRouterWrite,
		"mbox_read":    h.luaMailboxRead,
		"mbox_write":   h.luaMailboxWrite,
		"peek":         h.luaPeek,
		"poke":         h.luaPoke,
		"local_irq":    h.luaLocalIRQ,
		"gpu_irq":      h.luaGPUIRQ,
		"gpu_fiq":      h.luaGPUFIQ,
		"channel":      h.luaChannel,
		"respond":      h.luaRespond,
		"complete":     h.luaComplete,
		"irq":          h.luaIRQ,
		"fiq":          h.luaFIQ,
		"irq_source":   h.luaIRQSource,
		"fiq_source":   h.luaFIQSource,
		"mbox_irq":     h.luaMailboxIRQ,
		"guest_errors": h.luaGuestErrors,
		"reset":        h.luaReset,
		"expect":       h.luaExpect,
		"print":        h.luaPrint,
	} {
		h.L.SetGlobal(name, h.L.NewFunction(fn))
	}
	return h
}

// Close releases the Lua state.
func (h *ScriptHost) Close() {
	h.L.Close()
}

// RunString executes a chunk. Cancelling ctx aborts the script.
func (h *ScriptHost) RunString(ctx context.Context, src string) error {
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	if err := h.L.DoString(src); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// RunFile executes a script file.
func (h *ScriptHost) RunFile(ctx context.Context, path string) error {
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

func checkWord(L *lua.LState, n int) uint32 {
	f := float64(L.CheckNumber(n))
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		L.ArgError(n, "expected a 32-bit word")
	}
	return uint32(f)
}

func checkRange(L *lua.LState, n int, limit int, what string) int {
	v := L.CheckInt(n)
	if v < 0 || v >= limit {
		L.ArgError(n, fmt.Sprintf("%s %d out of range", what, v))
	}
	return v
}

func (h *ScriptHost) luaRouterRead(L *lua.LState) int {
	L.Push(lua.LNumber(h.board.ReadRouter(checkWord(L, 1))))
	return 1
}

func (h *ScriptHost) luaRouterWrite(L *lua.LState) int {
	h.board.WriteRouter(checkWord(L, 1), checkWord(L, 2))
	return 0
}

func (h *ScriptHost) luaMailboxRead(L *lua.LState) int {
	L.Push(lua.LNumber(h.board.ReadMailbox(checkWord(L, 1))))
	return 1
}

func (h *ScriptHost) luaMailboxWrite(L *lua.LState) int {
	h.board.WriteMailbox(checkWord(L, 1), checkWord(L, 2))
	return 0
}

func (h *ScriptHost) luaPeek(L *lua.LState) int {
	L.Push(lua.LNumber(h.board.Bus.Read32(checkWord(L, 1))))
	return 1
}

func (h *ScriptHost) luaPoke(L *lua.LState) int {
	h.board.Bus.Write32(checkWord(L, 1), checkWord(L, 2))
	return 0
}

func (h *ScriptHost) luaLocalIRQ(L *lua.LState) int {
	core := checkRange(L, 1, ROUTER_CORES, "core")
	src := checkRange(L, 2, LOCAL_IRQ_COUNT, "local source")
	h.board.Router.SetLocalIRQ(core, src, L.CheckBool(3))
	return 0
}

func (h *ScriptHost) luaGPUIRQ(L *lua.LState) int {
	h.board.Router.SetGPUIRQ(L.CheckBool(1))
	return 0
}

func (h *ScriptHost) luaGPUFIQ(L *lua.LState) int {
	h.board.Router.SetGPUFIQ(L.CheckBool(1))
	return 0
}

func (h *ScriptHost) luaChannel(L *lua.LState) int {
	ch := checkRange(L, 1, MBOX_CHAN_COUNT, "channel")
	h.board.Mailbox.SetChannelAvailable(ch, L.CheckBool(2))
	return 0
}

func (h *ScriptHost) luaRespond(L *lua.LState) int {
	if err := h.board.Respond(L.CheckInt(1), checkWord(L, 2)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *ScriptHost) luaComplete(L *lua.LState) int {
	if err := h.board.Complete(L.CheckInt(1)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *ScriptHost) luaIRQ(L *lua.LState) int {
	core := checkRange(L, 1, ROUTER_CORES, "core")
	L.Push(lua.LBool(h.board.CoreIRQ[core].Level()))
	return 1
}

func (h *ScriptHost) luaFIQ(L *lua.LState) int {
	core := checkRange(L, 1, ROUTER_CORES, "core")
	L.Push(lua.LBool(h.board.CoreFIQ[core].Level()))
	return 1
}

func (h *ScriptHost) luaIRQSource(L *lua.LState) int {
	core := checkRange(L, 1, ROUTER_CORES, "core")
	L.Push(lua.LNumber(h.board.Router.IRQSource(core)))
	return 1
}

func (h *ScriptHost) luaFIQSource(L *lua.LState) int {
	core := checkRange(L, 1, ROUTER_CORES, "core")
	L.Push(lua.LNumber(h.board.Router.FIQSource(core)))
	return 1
}

func (h *ScriptHost) luaMailboxIRQ(L *lua.LState) int {
	L.Push(lua.LBool(h.board.Mailbox.IRQLevel()))
	return 1
}

func (h *ScriptHost) luaGuestErrors(L *lua.LState) int {
	L.Push(lua.LNumber(h.board.Log.Count(LogGuestError)))
	return 1
}

func (h *ScriptHost) luaReset(L *lua.LState) int {
	h.board.Reset()
	return 0
}

func (h *ScriptHost) luaExpect(L *lua.LState) int {
	if !lua.LVAsBool(L.Get(1)) {
		L.RaiseError("expectation failed: %s", L.OptString(2, "expect"))
	}
	return 0
}

func (h *ScriptHost) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	for i := 1; i <= top; i++ {
		if i > 1 {
			fmt.Fprint(h.out, "\t")
		}
		fmt.Fprint(h.out, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(h.out)
	return 0
}
