// mailbox_semaphore.go - VideoCore mailbox semaphore block

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
mailbox_semaphore.go - ARM side of the VideoCore mailboxes

Two ordered queues connect the ARM to the channel actors (power, framebuffer,
VCHIQ, property):

    mailbox 0, VC to ARM: the host reads responses from it
    mailbox 1, ARM to VC: writes wait here while the target channel is busy

Every channel actor owns a 16-byte cell in the mailbox data space. The word at
channel<<4 carries the payload, the word at channel<<4+4 is non-zero while the
actor is still processing an earlier request. An actor raises its availability
line when it has a response.

After every register access and availability change the block drains ready
channels into mailbox 0. The scan always restarts at channel 0 after a
successful pull, so lower channels win under contention. Busy-deferred writes in
mailbox 1 are then handed to their channels, oldest first, once the channel is
idle. Draining reads actor cells, which may drop availability lines and call
back into SetChannelAvailable; those calls only latch the level while the
update is running and the loop picks the change up on its next pass.

The ARM interrupt is asserted while mailbox 0 holds data and the data IRQ is
enabled in the config register.
*/

package main

import "fmt"

// MailboxSemaphore models the BCM2835 ARM mailbox block.
type MailboxSemaphore struct {
	log   *GuestLog
	space Bus32

	sentinel uint32

	// mbox[0] is host-read (VC to ARM), mbox[1] is host-write (ARM to VC)
	mbox   [2]*MailboxFIFO
	config uint32

	available        [MBOX_CHAN_COUNT]bool
	updateInProgress bool

	irq      IRQLine
	irqLevel bool
}

// NewMailboxSemaphore creates the block on top of the mailbox data space.
func NewMailboxSemaphore(space Bus32, sentinel uint32, log *GuestLog) *MailboxSemaphore {
	if space == nil {
		panic("mailbox semaphore: mailbox data space is required")
	}
	return &MailboxSemaphore{
		log:      log,
		space:    space,
		sentinel: sentinel,
		mbox:     [2]*MailboxFIFO{NewMailboxFIFO(sentinel), NewMailboxFIFO(sentinel)},
		irq:      DetachedLine(),
	}
}

// ConnectIRQ attaches the ARM mailbox interrupt output.
func (m *MailboxSemaphore) ConnectIRQ(line IRQLine) {
	m.irq = lineOrDetached(line)
	m.irq.SetLevel(m.irqLevel)
}

func checkChannel(ch int) {
	if ch < 0 || ch >= MBOX_CHAN_COUNT {
		panic(fmt.Sprintf("mailbox semaphore: channel %d out of range", ch))
	}
}

func cellAddr(ch uint32) uint32 {
	return ch << MBOX_CELL_SHIFT
}

// SetChannelAvailable latches the availability line of a channel actor and,
// unless an update is already running, drains the channels.
func (m *MailboxSemaphore) SetChannelAvailable(ch int, available bool) {
	checkChannel(ch)
	m.available[ch] = available
	if !m.updateInProgress {
		m.update()
	}
}

// ChannelLine returns the inbound availability line of a channel.
func (m *MailboxSemaphore) ChannelLine(ch int) IRQLine {
	checkChannel(ch)
	return IRQLineFunc(func(high bool) { m.SetChannelAvailable(ch, high) })
}

// pullOne moves one word from the lowest ready channel into mailbox 0.
func (m *MailboxSemaphore) pullOne() bool {
	if m.mbox[0].Full() {
		return false
	}
	for n := uint32(0); n < MBOX_CHAN_COUNT; n++ {
		if !m.available[n] {
			continue
		}
		value := m.space.Read32(cellAddr(n) + MBOX_CELL_DATA)
		if value == m.sentinel {
			m.log.Tracef("mailbox semaphore: channel %d available without data", n)
			continue
		}
		m.mbox[0].Push(value)
		m.log.Tracef("mailbox semaphore: pulled $%08X from channel %d", value, n)
		return true
	}
	return false
}

func (m *MailboxSemaphore) channelBusy(ch uint32) bool {
	return m.space.Read32(cellAddr(ch)+MBOX_CELL_PENDING) != 0
}

// deliverOne hands the oldest deferred write of an idle channel to that channel.
// Only the first queued entry of each channel is a candidate.
func (m *MailboxSemaphore) deliverOne() bool {
	var seen uint32
	for i, n := 0, m.mbox[1].Len(); i < n; i++ {
		value := m.mbox[1].At(i)
		ch := value & MBOX_CHAN_MASK
		if seen&(1<<ch) != 0 {
			continue
		}
		seen |= 1 << ch
		if m.channelBusy(ch) {
			continue
		}
		m.mbox[1].Pull(i)
		m.space.Write32(cellAddr(ch)+MBOX_CELL_DATA, value)
		m.log.Tracef("mailbox semaphore: delivered deferred $%08X to channel %d", value, ch)
		return true
	}
	return false
}

// queuedFor reports whether mailbox 1 still holds a write for ch.
func (m *MailboxSemaphore) queuedFor(ch uint32) bool {
	for i, n := 0, m.mbox[1].Len(); i < n; i++ {
		if m.mbox[1].At(i)&MBOX_CHAN_MASK == ch {
			return true
		}
	}
	return false
}

func (m *MailboxSemaphore) update() {
	if m.updateInProgress {
		return
	}
	m.updateInProgress = true
	for m.pullOne() || m.deliverOne() {
	}
	m.updateInProgress = false
	m.refreshIRQ()
}

// refreshIRQ recomputes the data-pending flag and drives the ARM interrupt.
func (m *MailboxSemaphore) refreshIRQ() {
	set := false
	if m.mbox[0].Empty() {
		m.config &^= ARM_MC_IHAVEDATAIRQPEND
	} else {
		m.config |= ARM_MC_IHAVEDATAIRQPEND
		set = m.config&ARM_MC_IHAVEDATAIRQEN != 0
	}
	m.irqLevel = set
	m.irq.SetLevel(set)
}

func (m *MailboxSemaphore) HandleRead(offset uint32) uint32 {
	var res uint32

	offset &= MBOX_OFFSET_MASK

	switch offset {
	case MAIL0_READ0, MAIL0_READ1, MAIL0_READ2, MAIL0_READ3:
		if m.mbox[0].Empty() {
			res = m.sentinel
		} else {
			res = m.mbox[0].Pop()
		}
	case MAIL0_PEEK:
		res = m.mbox[0].Peek()
	case MAIL0_SENDER:
		m.log.Logf(LogUnimp, "mailbox semaphore: sender register not modelled")
	case MAIL0_STATUS:
		return m.mbox[0].Status()
	case MAIL0_CONFIG:
		res = m.config
	case MAIL1_STATUS:
		return m.mbox[1].Status()
	default:
		m.log.GuestErrorf("mailbox semaphore: bad read offset $%X", offset)
		return 0
	}

	m.update()
	return res
}

func (m *MailboxSemaphore) HandleWrite(offset uint32, value uint32) {
	offset &= MBOX_OFFSET_MASK

	switch offset {
	case MAIL0_SENDER:
	case MAIL0_CONFIG:
		m.config &^= ARM_MC_IHAVEDATAIRQEN
		m.config |= value & ARM_MC_IHAVEDATAIRQEN
	case MAIL1_WRITE0, MAIL1_WRITE1, MAIL1_WRITE2, MAIL1_WRITE3:
		m.push(value)
	default:
		m.log.GuestErrorf("mailbox semaphore: bad write offset $%X", offset)
		return
	}

	m.update()
}

// push sends a host write to its channel, or defers it while the channel is
// busy or older writes for it are still waiting.
func (m *MailboxSemaphore) push(value uint32) {
	if m.mbox[1].Full() {
		m.log.GuestErrorf("mailbox semaphore: write mailbox full, dropping $%08X", value)
		return
	}
	ch := value & MBOX_CHAN_MASK
	if ch >= MBOX_CHAN_COUNT {
		m.log.GuestErrorf("mailbox semaphore: write $%08X to invalid channel %d", value, ch)
		return
	}
	if m.channelBusy(ch) || m.queuedFor(ch) {
		m.mbox[1].Push(value)
		return
	}
	m.space.Write32(cellAddr(ch)+MBOX_CELL_DATA, value)
}

// ReadQueue returns mailbox 0 (VC to ARM).
func (m *MailboxSemaphore) ReadQueue() *MailboxFIFO { return m.mbox[0] }

// WriteQueue returns mailbox 1 (ARM to VC).
func (m *MailboxSemaphore) WriteQueue() *MailboxFIFO { return m.mbox[1] }

// Config returns the ARM-side configuration word.
func (m *MailboxSemaphore) Config() uint32 { return m.config }

// ChannelAvailable reports the latched availability of a channel actor.
func (m *MailboxSemaphore) ChannelAvailable(ch int) bool {
	checkChannel(ch)
	return m.available[ch]
}

// UpdateInProgress reports whether the drain loop is running.
func (m *MailboxSemaphore) UpdateInProgress() bool { return m.updateInProgress }

// IRQLevel reports the level last driven on the ARM mailbox interrupt.
func (m *MailboxSemaphore) IRQLevel() bool { return m.irqLevel }

// Sentinel returns the no-data marker for channel data words.
func (m *MailboxSemaphore) Sentinel() uint32 { return m.sentinel }
