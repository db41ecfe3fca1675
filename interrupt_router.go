// interrupt_router.go - BCM2836 per-core IRQ/FIQ routing

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

/*
interrupt_router.go - BCM2836 ARM control block: interrupt routing and core mailboxes

The control block sits between the interrupt sources of a four-core cluster and
the IRQ/FIQ inputs of each core. Sources are:

    four local timer lines per core (CNTPS, CNTPNS, CNTHP, CNTV), bits 0-3
    four 32-bit mailboxes per core, non-zero means pending, bits 4-7
    the combined IRQ and FIQ outputs of the upstream GPU controller, bit 8

Each core has a timer and a mailbox control register. Bits 0-3 enable IRQ
delivery of the matching source and bits 4-7 enable FIQ delivery. A source with
both enabled is delivered as FIQ only. The GPU IRQ and FIQ are each steered to
one core by the GPU routing register.

The per-core irq/fiq source registers are recomputed from scratch after every
mutation, and each core's output line is the OR of its source register. There
is no state beyond the registers themselves.
*/

package main

import "fmt"

// InterruptRouter models the routing matrix of the BCM2836 control block.
type InterruptRouter struct {
	log *GuestLog

	// Input levels (not directly visible to software)
	gpuIRQ    bool
	gpuFIQ    bool
	localIRQs [ROUTER_CORES]uint32

	mailboxes [ROUTER_MAILBOX_COUNT]uint32

	// Routing and control registers
	routeGPUIRQ    uint8
	routeGPUFIQ    uint8
	timerControl   [ROUTER_CORES]uint32
	mailboxControl [ROUTER_CORES]uint32

	// Post-routing source registers (visible)
	irqSource [ROUTER_CORES]uint32
	fiqSource [ROUTER_CORES]uint32

	irq [ROUTER_CORES]IRQLine
	fiq [ROUTER_CORES]IRQLine
}

// NewInterruptRouter creates a router with every output detached. Outputs are
// wired with ConnectCore by the board.
func NewInterruptRouter(log *GuestLog) *InterruptRouter {
	r := &InterruptRouter{log: log}
	for i := 0; i < ROUTER_CORES; i++ {
		r.irq[i] = DetachedLine()
		r.fiq[i] = DetachedLine()
	}
	return r
}

// ConnectCore attaches the IRQ and FIQ inputs of a CPU core and drives them
// with the current routing result.
func (r *InterruptRouter) ConnectCore(core int, irq, fiq IRQLine) {
	checkCore(core)
	r.irq[core] = lineOrDetached(irq)
	r.fiq[core] = lineOrDetached(fiq)
	r.update()
}

func checkCore(core int) {
	if core < 0 || core >= ROUTER_CORES {
		panic(fmt.Sprintf("interrupt router: core %d out of range", core))
	}
}

// SetLocalIRQ drives local source (0-3) of a core.
func (r *InterruptRouter) SetLocalIRQ(core, source int, level bool) {
	checkCore(core)
	if source < 0 || source >= LOCAL_IRQ_COUNT {
		panic(fmt.Sprintf("interrupt router: local source %d out of range", source))
	}
	if level {
		r.localIRQs[core] |= 1 << source
	} else {
		r.localIRQs[core] &^= 1 << source
	}
	r.update()
}

// SetGPUIRQ drives the combined IRQ output of the upstream controller.
func (r *InterruptRouter) SetGPUIRQ(level bool) {
	r.gpuIRQ = level
	r.update()
}

// SetGPUFIQ drives the combined FIQ output of the upstream controller.
func (r *InterruptRouter) SetGPUFIQ(level bool) {
	r.gpuFIQ = level
	r.update()
}

// LocalIRQLine returns the inbound line for one timer source of one core.
func (r *InterruptRouter) LocalIRQLine(core, source int) IRQLine {
	checkCore(core)
	return IRQLineFunc(func(high bool) { r.SetLocalIRQ(core, source, high) })
}

// GPUIRQLine returns the inbound GPU IRQ line.
func (r *InterruptRouter) GPUIRQLine() IRQLine {
	return IRQLineFunc(r.SetGPUIRQ)
}

// GPUFIQLine returns the inbound GPU FIQ line.
func (r *InterruptRouter) GPUFIQLine() IRQLine {
	return IRQLineFunc(r.SetGPUFIQ)
}

// route returns the IRQ and FIQ contribution of the pending bits,
// enabled per bit by ctrl, shifted to the given source bit.
func route(pending uint32, ctrl uint32, shift uint) (irq, fiq uint32) {
	for j := uint(0); j < 4; j++ {
		if pending&(1<<j) == 0 {
			continue
		}
		switch {
		case ctrl&(1<<(j+4)) != 0:
			fiq |= 1 << (j + shift)
		case ctrl&(1<<j) != 0:
			irq |= 1 << (j + shift)
		}
	}
	return irq, fiq
}

func (r *InterruptRouter) update() {
	for i := 0; i < ROUTER_CORES; i++ {
		r.irqSource[i] = 0
		r.fiqSource[i] = 0
	}

	if r.gpuIRQ {
		if r.routeGPUIRQ >= ROUTER_CORES {
			panic(fmt.Sprintf("interrupt router: GPU IRQ routed to core %d", r.routeGPUIRQ))
		}
		r.irqSource[r.routeGPUIRQ] |= 1 << IRQ_GPU
	}
	if r.gpuFIQ {
		if r.routeGPUFIQ >= ROUTER_CORES {
			panic(fmt.Sprintf("interrupt router: GPU FIQ routed to core %d", r.routeGPUFIQ))
		}
		r.fiqSource[r.routeGPUFIQ] |= 1 << IRQ_GPU
	}

	for i := 0; i < ROUTER_CORES; i++ {
		if r.localIRQs[i] >= 1<<LOCAL_IRQ_COUNT {
			panic(fmt.Sprintf("interrupt router: core %d local state $%X", i, r.localIRQs[i]))
		}
		irq, fiq := route(r.localIRQs[i], r.timerControl[i], IRQ_CNTPSIRQ)
		r.irqSource[i] |= irq
		r.fiqSource[i] |= fiq

		irq, fiq = route(uint32(r.MailboxPending(i)), r.mailboxControl[i], IRQ_MAILBOX0)
		r.irqSource[i] |= irq
		r.fiqSource[i] |= fiq
	}

	for i := 0; i < ROUTER_CORES; i++ {
		r.irq[i].SetLevel(r.irqSource[i] != 0)
		r.fiq[i].SetLevel(r.fiqSource[i] != 0)
	}
}

// MailboxPending returns the 4-bit mask of non-zero mailboxes of a core.
func (r *InterruptRouter) MailboxPending(core int) uint8 {
	var bits uint8
	for j := 0; j < ROUTER_MB_PER_CORE; j++ {
		if r.mailboxes[core*ROUTER_MB_PER_CORE+j] != 0 {
			bits |= 1 << j
		}
	}
	return bits
}

// IRQSource returns the IRQ source register of a core.
func (r *InterruptRouter) IRQSource(core int) uint32 {
	checkCore(core)
	return r.irqSource[core]
}

// FIQSource returns the FIQ source register of a core.
func (r *InterruptRouter) FIQSource(core int) uint32 {
	checkCore(core)
	return r.fiqSource[core]
}

// LocalIRQs returns the raw local input levels of a core.
func (r *InterruptRouter) LocalIRQs(core int) uint8 {
	checkCore(core)
	return uint8(r.localIRQs[core])
}

// GPULevels returns the upstream IRQ and FIQ input levels.
func (r *InterruptRouter) GPULevels() (irq, fiq bool) {
	return r.gpuIRQ, r.gpuFIQ
}

func (r *InterruptRouter) HandleRead(offset uint32) uint32 {
	if offset&3 != 0 {
		r.log.GuestErrorf("interrupt router: unaligned read at offset $%X", offset)
		return 0
	}
	switch {
	case offset == ROUTER_GPU_ROUTE:
		if r.routeGPUIRQ >= ROUTER_CORES || r.routeGPUFIQ >= ROUTER_CORES {
			panic(fmt.Sprintf("interrupt router: GPU routing $%X/$%X out of range", r.routeGPUIRQ, r.routeGPUFIQ))
		}
		return uint32(r.routeGPUFIQ)<<2 | uint32(r.routeGPUIRQ)
	case offset >= ROUTER_TIMER_CTRL && offset < ROUTER_MAILBOX_CTRL:
		return r.timerControl[(offset-ROUTER_TIMER_CTRL)>>2]
	case offset >= ROUTER_MAILBOX_CTRL && offset < ROUTER_IRQ_SOURCE:
		return r.mailboxControl[(offset-ROUTER_MAILBOX_CTRL)>>2]
	case offset >= ROUTER_IRQ_SOURCE && offset < ROUTER_FIQ_SOURCE:
		return r.irqSource[(offset-ROUTER_IRQ_SOURCE)>>2]
	case offset >= ROUTER_FIQ_SOURCE && offset < ROUTER_MAILBOX_SET:
		return r.fiqSource[(offset-ROUTER_FIQ_SOURCE)>>2]
	case offset >= ROUTER_MAILBOX_CLR && offset < ROUTER_REGION_SIZE:
		return r.mailboxes[(offset-ROUTER_MAILBOX_CLR)>>2]
	default:
		r.log.GuestErrorf("interrupt router: bad read offset $%X", offset)
		return 0
	}
}

func (r *InterruptRouter) HandleWrite(offset uint32, value uint32) {
	if offset&3 != 0 {
		r.log.GuestErrorf("interrupt router: unaligned write at offset $%X", offset)
		return
	}
	switch {
	case offset == ROUTER_GPU_ROUTE:
		r.routeGPUIRQ = uint8(value & ROUTE_CORE_MASK)
		r.routeGPUFIQ = uint8((value >> 2) & ROUTE_CORE_MASK)
	case offset >= ROUTER_TIMER_CTRL && offset < ROUTER_MAILBOX_CTRL:
		r.timerControl[(offset-ROUTER_TIMER_CTRL)>>2] = value & ROUTE_CTRL_MASK
	case offset >= ROUTER_MAILBOX_CTRL && offset < ROUTER_IRQ_SOURCE:
		r.mailboxControl[(offset-ROUTER_MAILBOX_CTRL)>>2] = value & ROUTE_CTRL_MASK
	case offset >= ROUTER_MAILBOX_SET && offset < ROUTER_MAILBOX_CLR:
		r.mailboxes[(offset-ROUTER_MAILBOX_SET)>>2] |= value
	case offset >= ROUTER_MAILBOX_CLR && offset < ROUTER_REGION_SIZE:
		r.mailboxes[(offset-ROUTER_MAILBOX_CLR)>>2] &^= value
	default:
		r.log.GuestErrorf("interrupt router: bad write offset $%X", offset)
		return
	}
	r.update()
}
