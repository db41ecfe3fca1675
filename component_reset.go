// component_reset.go - Reset() methods for all devices (hard reset support)

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

// MachineBus.Reset clears RAM. Mappings survive.
func (bus *MachineBus) Reset() {
	for i := range bus.memory {
		bus.memory[i] = 0
	}
}

// InterruptRouter.Reset masks everything and forgets all input levels and
// mailbox contents, then drives every core output low.
func (r *InterruptRouter) Reset() {
	r.gpuIRQ = false
	r.gpuFIQ = false
	r.routeGPUIRQ = 0
	r.routeGPUFIQ = 0

	for i := 0; i < ROUTER_CORES; i++ {
		r.localIRQs[i] = 0
		r.timerControl[i] = 0
		r.mailboxControl[i] = 0
	}

	for i := 0; i < ROUTER_MAILBOX_COUNT; i++ {
		r.mailboxes[i] = 0
	}

	r.update()
}

// MailboxFIFO.Reset empties the queue and refills free slots with the sentinel.
func (f *MailboxFIFO) Reset() {
	f.count = 0
	f.status = 0
	for n := 0; n < MBOX_SIZE; n++ {
		f.reg[n] = f.sentinel
	}
	f.updateStatus()
}

// MailboxSemaphore.Reset empties both mailboxes, clears config and channel
// availability, and drops the interrupt.
func (m *MailboxSemaphore) Reset() {
	m.mbox[0].Reset()
	m.mbox[1].Reset()
	m.config = 0
	m.updateInProgress = false
	for n := 0; n < MBOX_CHAN_COUNT; n++ {
		m.available[n] = false
	}
	m.irqLevel = false
	m.irq.SetLevel(false)
}

// ChannelEndpoint.Reset returns the actor to idle without signalling.
func (e *ChannelEndpoint) Reset() {
	e.pending = false
	e.ready = false
	e.response = 0
	e.requests = 0
}

// Board.Reset is a hard reset of every block. The routing preset is not
// reapplied: after reset all interrupts are masked.
func (b *Board) Reset() {
	b.MailboxSpace.Reset()
	for _, ep := range b.Channels {
		if ep != nil {
			ep.Reset()
		}
	}
	b.seedChannelCells()
	b.Mailbox.Reset()
	b.Router.Reset()
}
