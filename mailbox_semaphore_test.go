package main

import "testing"

type mboxRig struct {
	m     *MailboxSemaphore
	space *MachineBus
	log   *GuestLog
	irq   *LevelLatch
	eps   map[int]*ChannelEndpoint
}

// newMboxRig builds a semaphore block over a RAM data space with endpoints on
// the given channels. Channels without an endpoint start out holding the
// sentinel.
func newMboxRig(channels ...int) *mboxRig {
	rig := &mboxRig{
		log: NewGuestLog(nil, 0),
		irq: NewLevelLatch("mbox"),
		eps: make(map[int]*ChannelEndpoint),
	}
	rig.space = NewMachineBus("mbox-space", 0, MBOX_SPACE_SIZE, rig.log)
	rig.m = NewMailboxSemaphore(rig.space, MBOX_INVALID_DATA, rig.log)
	rig.m.ConnectIRQ(rig.irq)
	for _, ch := range channels {
		ep := NewChannelEndpoint(ch, nil, rig.log)
		ep.Connect(rig.m.ChannelLine(ch))
		rig.space.MapDevice(cellAddr(uint32(ch)), 1<<MBOX_CELL_SHIFT, ep)
		rig.eps[ch] = ep
	}
	for ch := 0; ch < MBOX_CHAN_COUNT; ch++ {
		if rig.eps[ch] == nil {
			rig.space.Write32(cellAddr(uint32(ch)), MBOX_INVALID_DATA)
		}
	}
	return rig
}

func TestMailboxSemaphore_SentinelChannelNotPulled(t *testing.T) {
	rig := newMboxRig()
	rig.m.SetChannelAvailable(MBOX_CHAN_FB, true)

	if !rig.m.ReadQueue().Empty() {
		t.Fatalf("expected empty read queue, got %v", rig.m.ReadQueue().Entries())
	}
	if got := rig.m.HandleRead(MAIL0_STATUS); got != ARM_MS_EMPTY {
		t.Fatalf("expected EMPTY status, got $%08X", got)
	}
	if rig.irq.Level() {
		t.Fatal("expected mailbox IRQ low")
	}
}

func TestMailboxSemaphore_RequestResponseRoundTrip(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_PROPERTY)
	rig.m.HandleWrite(MAIL0_CONFIG, ARM_MC_IHAVEDATAIRQEN)

	rig.m.HandleWrite(MAIL1_WRITE0, 0x00080000|MBOX_CHAN_PROPERTY)

	if got := rig.m.HandleRead(MAIL0_STATUS); got != 0 {
		t.Fatalf("expected data available, got status $%08X", got)
	}
	if !rig.irq.Level() {
		t.Fatal("expected mailbox IRQ asserted")
	}
	if got := rig.m.HandleRead(MAIL0_CONFIG); got != ARM_MC_IHAVEDATAIRQEN|ARM_MC_IHAVEDATAIRQPEND {
		t.Fatalf("expected enable and pending bits, got $%08X", got)
	}
	if got := rig.m.HandleRead(MAIL0_PEEK); got != 0x00080008 {
		t.Fatalf("expected peek $00080008, got $%08X", got)
	}
	if got := rig.m.HandleRead(MAIL0_READ0); got != 0x00080008 {
		t.Fatalf("expected response $00080008, got $%08X", got)
	}
	if rig.irq.Level() {
		t.Fatal("expected mailbox IRQ dropped once drained")
	}
	if rig.m.Config()&ARM_MC_IHAVEDATAIRQPEND != 0 {
		t.Fatal("expected pending flag cleared")
	}
	if got := rig.m.HandleRead(MAIL0_READ0); got != MBOX_INVALID_DATA {
		t.Fatalf("expected sentinel from empty queue, got $%08X", got)
	}
}

func TestMailboxSemaphore_IRQNeedsEnable(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_FB)
	rig.m.HandleWrite(MAIL1_WRITE0, 0x1001)

	if rig.irq.Level() {
		t.Fatal("expected IRQ low while disabled")
	}
	if rig.m.Config() != ARM_MC_IHAVEDATAIRQPEND {
		t.Fatalf("expected pending flag only, got $%08X", rig.m.Config())
	}

	// Only the enable bit is writable.
	rig.m.HandleWrite(MAIL0_CONFIG, 0xFFFFFFFF)
	if rig.m.Config() != ARM_MC_IHAVEDATAIRQEN|ARM_MC_IHAVEDATAIRQPEND {
		t.Fatalf("expected enable and pending, got $%08X", rig.m.Config())
	}
	if !rig.irq.Level() {
		t.Fatal("expected IRQ asserted after enable")
	}
}

func TestMailboxSemaphore_LowerChannelWins(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_POWER, MBOX_CHAN_VCHIQ)

	// Fill the read queue from a RAM cell so new availability only latches.
	rig.space.Write32(cellAddr(2), 0x2222)
	rig.m.SetChannelAvailable(2, true)
	rig.m.SetChannelAvailable(2, false)
	if !rig.m.ReadQueue().Full() {
		t.Fatalf("expected full read queue, got %d entries", rig.m.ReadQueue().Len())
	}

	// Channel 3 answers before channel 0.
	rig.space.Write32(cellAddr(MBOX_CHAN_VCHIQ), 0x3000)
	rig.space.Write32(cellAddr(MBOX_CHAN_POWER), 0x1000)
	if !rig.m.ChannelAvailable(MBOX_CHAN_VCHIQ) || !rig.m.ChannelAvailable(MBOX_CHAN_POWER) {
		t.Fatal("expected both channels latched available")
	}

	rig.m.HandleRead(MAIL0_READ0)
	q := rig.m.ReadQueue()
	if got := q.At(q.Len() - 1); got != 0x1000 {
		t.Fatalf("expected channel 0 pulled first, got $%08X", got)
	}
	rig.m.HandleRead(MAIL0_READ0)
	if got := q.At(q.Len() - 1); got != 0x3003 {
		t.Fatalf("expected channel 3 pulled second, got $%08X", got)
	}
}

func TestMailboxSemaphore_BusyChannelDefersWrites(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_FB)
	ep := rig.eps[MBOX_CHAN_FB]
	ep.SetManual(true)

	rig.m.HandleWrite(MAIL1_WRITE0, 0x1001)
	rig.m.HandleWrite(MAIL1_WRITE1, 0x2001)
	rig.m.HandleWrite(MAIL1_WRITE2, 0x3001)

	if ep.Requests() != 1 {
		t.Fatalf("expected 1 request delivered, got %d", ep.Requests())
	}
	if got := rig.m.WriteQueue().Entries(); len(got) != 2 || got[0] != 0x2001 || got[1] != 0x3001 {
		t.Fatalf("expected deferred [$2001 $3001], got %v", got)
	}
	if got := rig.m.HandleRead(MAIL1_STATUS); got != 0 {
		t.Fatalf("expected write queue status 0, got $%08X", got)
	}

	// Completing the first request frees the channel for the next one.
	ep.Complete()
	if got := rig.m.ReadQueue().Entries(); len(got) != 1 || got[0] != 0x1001 {
		t.Fatalf("expected response $1001, got %v", got)
	}
	if ep.Requests() != 2 || rig.m.WriteQueue().Len() != 1 {
		t.Fatalf("expected second request delivered, got %d requests, %d queued", ep.Requests(), rig.m.WriteQueue().Len())
	}

	ep.Complete()
	ep.Complete()
	want := []uint32{0x1001, 0x2001, 0x3001}
	got := rig.m.ReadQueue().Entries()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if !rig.m.WriteQueue().Empty() {
		t.Fatal("expected write queue drained")
	}
}

func TestMailboxSemaphore_DeferredWritesStayPerChannel(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_FB, MBOX_CHAN_PROPERTY)
	fb := rig.eps[MBOX_CHAN_FB]
	fb.SetManual(true)

	rig.m.HandleWrite(MAIL1_WRITE0, 0x1001)
	rig.m.HandleWrite(MAIL1_WRITE0, 0x2001)
	// Property channel is idle and goes straight through.
	rig.m.HandleWrite(MAIL1_WRITE0, 0x4008)

	if got := rig.m.ReadQueue().Entries(); len(got) != 1 || got[0] != 0x4008 {
		t.Fatalf("expected property response only, got %v", got)
	}
	if got := rig.m.WriteQueue().Entries(); len(got) != 1 || got[0] != 0x2001 {
		t.Fatalf("expected fb write deferred, got %v", got)
	}
}

func TestMailboxSemaphore_WriteQueueFullDrops(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_FB)
	rig.eps[MBOX_CHAN_FB].SetManual(true)

	rig.m.HandleWrite(MAIL1_WRITE0, 0x0001) // occupies the channel
	for i := 0; i < MBOX_SIZE; i++ {
		rig.m.HandleWrite(MAIL1_WRITE0, uint32(i+1)<<4|1)
	}
	if got := rig.m.HandleRead(MAIL1_STATUS); got != ARM_MS_FULL {
		t.Fatalf("expected FULL status, got $%08X", got)
	}
	errs := rig.log.Count(LogGuestError)
	rig.m.HandleWrite(MAIL1_WRITE0, 0xFFF1)
	if rig.log.Count(LogGuestError) != errs+1 {
		t.Fatal("expected guest error for full write queue")
	}
	if rig.m.WriteQueue().Len() != MBOX_SIZE || rig.m.WriteQueue().At(MBOX_SIZE-1) != uint32(MBOX_SIZE)<<4|1 {
		t.Fatal("expected write queue unchanged")
	}
}

func TestMailboxSemaphore_InvalidChannelDropped(t *testing.T) {
	rig := newMboxRig()
	rig.m.HandleWrite(MAIL1_WRITE0, 0x100C)
	if rig.log.Count(LogGuestError) != 1 {
		t.Fatalf("expected 1 guest error, got %d", rig.log.Count(LogGuestError))
	}
	if !rig.m.WriteQueue().Empty() {
		t.Fatal("expected nothing queued")
	}
}

func TestMailboxSemaphore_RAMChannelStopsAtFullQueue(t *testing.T) {
	rig := newMboxRig()
	rig.space.Write32(cellAddr(5), 0x5555)
	rig.m.SetChannelAvailable(5, true)

	if rig.m.ReadQueue().Len() != MBOX_SIZE {
		t.Fatalf("expected %d entries, got %d", MBOX_SIZE, rig.m.ReadQueue().Len())
	}
	if rig.m.UpdateInProgress() {
		t.Fatal("expected update finished")
	}
	if got := rig.m.HandleRead(MAIL0_STATUS); got != ARM_MS_FULL {
		t.Fatalf("expected FULL, got $%08X", got)
	}
	// Reading one refills it from the still-available channel.
	rig.m.HandleRead(MAIL0_READ0)
	if rig.m.ReadQueue().Len() != MBOX_SIZE {
		t.Fatalf("expected refill to %d, got %d", MBOX_SIZE, rig.m.ReadQueue().Len())
	}
}

func TestMailboxSemaphore_BadOffsets(t *testing.T) {
	rig := newMboxRig()
	if got := rig.m.HandleRead(0x00); got != 0 {
		t.Fatalf("expected 0, got $%08X", got)
	}
	rig.m.HandleWrite(MAIL0_STATUS, 1)
	if got := rig.m.HandleRead(MAIL0_SENDER); got != 0 {
		t.Fatalf("expected sender 0, got $%08X", got)
	}
	if rig.log.Count(LogGuestError) != 2 {
		t.Fatalf("expected 2 guest errors, got %d", rig.log.Count(LogGuestError))
	}
	if rig.log.Count(LogUnimp) != 1 {
		t.Fatalf("expected 1 unimplemented report, got %d", rig.log.Count(LogUnimp))
	}
}

func TestMailboxSemaphore_Reset(t *testing.T) {
	rig := newMboxRig(MBOX_CHAN_FB)
	rig.m.HandleWrite(MAIL0_CONFIG, ARM_MC_IHAVEDATAIRQEN)
	rig.m.HandleWrite(MAIL1_WRITE0, 0x1001)
	if !rig.irq.Level() {
		t.Fatal("expected IRQ before reset")
	}

	rig.m.Reset()

	if rig.irq.Level() || rig.m.Config() != 0 {
		t.Fatal("expected IRQ and config cleared")
	}
	if rig.m.HandleRead(MAIL0_STATUS) != ARM_MS_EMPTY || rig.m.HandleRead(MAIL1_STATUS) != ARM_MS_EMPTY {
		t.Fatal("expected both queues empty")
	}
	for ch := 0; ch < MBOX_CHAN_COUNT; ch++ {
		if rig.m.ChannelAvailable(ch) {
			t.Fatalf("expected channel %d unavailable", ch)
		}
	}
}

func TestMailboxSemaphore_InvalidChannelIndexPanics(t *testing.T) {
	rig := newMboxRig()
	expectPanic(t, func() { rig.m.SetChannelAvailable(MBOX_CHAN_COUNT, true) })
	expectPanic(t, func() { NewMailboxSemaphore(nil, MBOX_INVALID_DATA, nil) })
}
