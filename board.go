// board.go - Composition of the interrupt core

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

import "fmt"

// Board wires the control block, the mailbox semaphore block, the channel
// actors and four stand-in CPU cores together. Every collaborator is passed in
// explicitly; nothing is looked up at run time.
type Board struct {
	Config BoardConfig
	Log    *GuestLog

	Bus          *MachineBus // peripheral window seen by the cores
	MailboxSpace *MachineBus // channel cells at channel<<4

	Router   *InterruptRouter
	Mailbox  *MailboxSemaphore
	Channels [MBOX_CHAN_COUNT]*ChannelEndpoint

	CoreIRQ [ROUTER_CORES]*LevelLatch
	CoreFIQ [ROUTER_CORES]*LevelLatch
}

// NewBoard builds and seals a board from cfg.
func NewBoard(cfg BoardConfig, log *GuestLog) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("board config: %w", err)
	}
	if log == nil {
		log = NewGuestLog(nil, 0)
	}
	mask, _ := ParseLogMask(cfg.Log)
	log.SetMask(mask)

	b := &Board{
		Config:       cfg,
		Log:          log,
		Bus:          NewMachineBus("soc", 0, 0, log),
		MailboxSpace: NewMachineBus("mbox-space", 0, MBOX_SPACE_SIZE, log),
	}

	b.Router = NewInterruptRouter(log)
	for i := 0; i < ROUTER_CORES; i++ {
		b.CoreIRQ[i] = NewLevelLatch(fmt.Sprintf("core%d.irq", i))
		b.CoreFIQ[i] = NewLevelLatch(fmt.Sprintf("core%d.fiq", i))
		b.Router.ConnectCore(i, b.CoreIRQ[i], b.CoreFIQ[i])
	}

	// The upstream controller is reduced to the ARM mailbox interrupt.
	b.Mailbox = NewMailboxSemaphore(b.MailboxSpace, cfg.Sentinel, log)
	b.Mailbox.ConnectIRQ(b.Router.GPUIRQLine())

	for _, ch := range cfg.Channels {
		ep := NewChannelEndpoint(ch, nil, log)
		ep.Connect(b.Mailbox.ChannelLine(ch))
		ep.SetSentinel(cfg.Sentinel)
		b.MailboxSpace.MapDevice(cellAddr(uint32(ch)), 1<<MBOX_CELL_SHIFT, ep)
		b.Channels[ch] = ep
	}
	for _, ch := range cfg.Manual {
		b.Channels[ch].SetManual(true)
	}
	b.seedChannelCells()

	b.Bus.MapDevice(cfg.RouterBase, ROUTER_REGION_SIZE, b.Router)
	b.Bus.MapDevice(cfg.MailboxBase, MBOX_REGION_SIZE, b.Mailbox)

	b.Bus.SealMappings()
	b.MailboxSpace.SealMappings()

	b.applyRouting(cfg.Routing)
	return b, nil
}

// seedChannelCells marks the data word of every channel without an actor as empty.
func (b *Board) seedChannelCells() {
	for ch := 0; ch < MBOX_CHAN_COUNT; ch++ {
		if b.Channels[ch] == nil {
			b.MailboxSpace.Write32(cellAddr(uint32(ch))+MBOX_CELL_DATA, b.Config.Sentinel)
		}
	}
}

// applyRouting programs the preset through the register interface.
func (b *Board) applyRouting(r RoutingPreset) {
	b.WriteRouter(ROUTER_GPU_ROUTE, uint32(r.GPUFIQCore)<<2|uint32(r.GPUIRQCore))
	for i, v := range r.TimerControl {
		b.WriteRouter(ROUTER_TIMER_CTRL+uint32(i)*4, v)
	}
	for i, v := range r.MailboxControl {
		b.WriteRouter(ROUTER_MAILBOX_CTRL+uint32(i)*4, v)
	}
	if r.MailboxIRQEnable {
		b.WriteMailbox(MAIL0_CONFIG, ARM_MC_IHAVEDATAIRQEN)
	}
}

func (b *Board) ReadRouter(offset uint32) uint32 {
	return b.Bus.Read32(b.Config.RouterBase + offset)
}

func (b *Board) WriteRouter(offset, value uint32) {
	b.Bus.Write32(b.Config.RouterBase+offset, value)
}

func (b *Board) ReadMailbox(offset uint32) uint32 {
	return b.Bus.Read32(b.Config.MailboxBase + offset)
}

func (b *Board) WriteMailbox(offset, value uint32) {
	b.Bus.Write32(b.Config.MailboxBase+offset, value)
}

// Respond makes channel ch produce a response as if the VideoCore had finished
// a request carrying value.
func (b *Board) Respond(ch int, value uint32) error {
	if ch < 0 || ch >= MBOX_CHAN_COUNT || b.Channels[ch] == nil {
		return fmt.Errorf("no actor on mailbox channel %d", ch)
	}
	b.MailboxSpace.Write32(cellAddr(uint32(ch))+MBOX_CELL_DATA, value)
	return nil
}

// Complete releases the held response of a manual channel actor.
func (b *Board) Complete(ch int) error {
	if ch < 0 || ch >= MBOX_CHAN_COUNT || b.Channels[ch] == nil {
		return fmt.Errorf("no actor on mailbox channel %d", ch)
	}
	if !b.Channels[ch].Complete() {
		return fmt.Errorf("mailbox channel %d has no request to complete", ch)
	}
	return nil
}
