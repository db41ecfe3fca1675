// mailbox_channel.go - Channel actor endpoint living in the mailbox data space

package main

// ChannelHandler turns a request payload (channel bits cleared) into a response
// payload. The low four bits of the response are replaced by the channel number.
type ChannelHandler func(request uint32) uint32

// EchoHandler answers every request with its own payload, which is what the
// power, framebuffer and property channels do with their buffer address.
func EchoHandler(request uint32) uint32 { return request }

// ChannelEndpoint is the VideoCore end of one mailbox channel. It owns the
// 16-byte cell at channel<<4:
//
//	+0 write  latch a request when idle and raise availability
//	+0 read   fetch channel|response, go idle and drop availability; an
//	          endpoint with no response ready returns the sentinel
//	+4 read   1 while a request is outstanding
//
// A manual endpoint holds each response until Complete is called, which is
// how a slow VideoCore service looks from the ARM side.
type ChannelEndpoint struct {
	channel  uint32
	handler  ChannelHandler
	log      *GuestLog
	line     IRQLine
	manual   bool
	pending  bool
	ready    bool
	response uint32
	requests int
	sentinel uint32
}

// NewChannelEndpoint creates an idle endpoint. A nil handler echoes.
func NewChannelEndpoint(ch int, handler ChannelHandler, log *GuestLog) *ChannelEndpoint {
	checkChannel(ch)
	if handler == nil {
		handler = EchoHandler
	}
	return &ChannelEndpoint{
		channel:  uint32(ch),
		handler:  handler,
		log:      log,
		line:     DetachedLine(),
		sentinel: MBOX_INVALID_DATA,
	}
}

// Connect attaches the availability line.
func (e *ChannelEndpoint) Connect(line IRQLine) {
	e.line = lineOrDetached(line)
}

// SetSentinel sets the word returned by a data read with no response ready.
func (e *ChannelEndpoint) SetSentinel(v uint32) { e.sentinel = v }

// SetManual selects whether responses wait for Complete.
func (e *ChannelEndpoint) SetManual(manual bool) { e.manual = manual }

// Complete publishes the held response of a manual endpoint. It reports false
// when there is nothing to complete.
func (e *ChannelEndpoint) Complete() bool {
	if !e.pending || e.ready {
		return false
	}
	e.ready = true
	e.line.SetLevel(true)
	return true
}

// Manual reports whether responses wait for Complete.
func (e *ChannelEndpoint) Manual() bool { return e.manual }

// Ready reports whether a response is waiting to be fetched.
func (e *ChannelEndpoint) Ready() bool { return e.ready }

// Channel returns the channel number this endpoint serves.
func (e *ChannelEndpoint) Channel() int { return int(e.channel) }

// Pending reports whether a request is outstanding.
func (e *ChannelEndpoint) Pending() bool { return e.pending }

// Requests counts accepted requests since the last reset.
func (e *ChannelEndpoint) Requests() int { return e.requests }

// Response returns the last computed response payload.
func (e *ChannelEndpoint) Response() uint32 { return e.response }

// Name returns the channel's short name.
func (e *ChannelEndpoint) Name() string { return mboxChannelNames[e.channel] }

func (e *ChannelEndpoint) HandleRead(offset uint32) uint32 {
	switch offset {
	case MBOX_CELL_DATA:
		// Every data read drops availability, even one raised from outside.
		if !e.ready {
			e.line.SetLevel(false)
			return e.sentinel
		}
		res := e.channel | e.response&^MBOX_CHAN_MASK
		e.pending = false
		e.ready = false
		e.line.SetLevel(false)
		return res
	case MBOX_CELL_PENDING:
		if e.pending {
			return 1
		}
		return 0
	default:
		e.log.GuestErrorf("mailbox channel %s: bad read offset $%X", e.Name(), offset)
		return 0
	}
}

func (e *ChannelEndpoint) HandleWrite(offset uint32, value uint32) {
	switch offset {
	case MBOX_CELL_DATA:
		if e.pending {
			e.log.Tracef("mailbox channel %s: request $%08X while busy, ignored", e.Name(), value)
			return
		}
		e.pending = true
		e.requests++
		e.response = e.handler(value &^ MBOX_CHAN_MASK)
		if !e.manual {
			e.ready = true
			e.line.SetLevel(true)
		}
	default:
		e.log.GuestErrorf("mailbox channel %s: bad write offset $%X", e.Name(), offset)
	}
}
