// debug_snapshot.go - Device state snapshot for save/restore

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
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	snapshotMagic   = "QA7S"
	snapshotVersion = 1
)

// RouterState is every register and input level of the control block. The
// source registers are stored too and checked against a recompute on restore.
type RouterState struct {
	GPUIRQ         bool
	GPUFIQ         bool
	RouteGPUIRQ    uint8
	RouteGPUFIQ    uint8
	LocalIRQs      [ROUTER_CORES]uint32
	Mailboxes      [ROUTER_MAILBOX_COUNT]uint32
	TimerControl   [ROUTER_CORES]uint32
	MailboxControl [ROUTER_CORES]uint32
	IRQSource      [ROUTER_CORES]uint32
	FIQSource      [ROUTER_CORES]uint32
}

// ChannelState is the live state of one channel actor.
type ChannelState struct {
	Present  bool
	Pending  bool
	Ready    bool
	Response uint32
	Requests uint32
}

// MailboxState holds both queues in order plus config and availability.
type MailboxState struct {
	Config    uint32
	Available [MBOX_CHAN_COUNT]bool
	Read      []uint32
	Write     []uint32
}

// BoardSnapshot captures everything needed to resume a board.
type BoardSnapshot struct {
	Router   RouterState
	Mailbox  MailboxState
	Channels [MBOX_CHAN_COUNT]ChannelState
	Space    []byte
}

func (r *InterruptRouter) saveState() RouterState {
	return RouterState{
		GPUIRQ:         r.gpuIRQ,
		GPUFIQ:         r.gpuFIQ,
		RouteGPUIRQ:    r.routeGPUIRQ,
		RouteGPUFIQ:    r.routeGPUFIQ,
		LocalIRQs:      r.localIRQs,
		Mailboxes:      r.mailboxes,
		TimerControl:   r.timerControl,
		MailboxControl: r.mailboxControl,
		IRQSource:      r.irqSource,
		FIQSource:      r.fiqSource,
	}
}

// checkState reports whether s is a consistent router state. The source
// registers are recomputed on a scratch router so r is left untouched.
func (r *InterruptRouter) checkState(s RouterState) error {
	if s.RouteGPUIRQ >= ROUTER_CORES || s.RouteGPUFIQ >= ROUTER_CORES {
		return fmt.Errorf("GPU routing %d/%d out of range", s.RouteGPUIRQ, s.RouteGPUFIQ)
	}
	for i := 0; i < ROUTER_CORES; i++ {
		if s.LocalIRQs[i] >= 1<<LOCAL_IRQ_COUNT {
			return fmt.Errorf("core %d local levels $%X out of range", i, s.LocalIRQs[i])
		}
		if s.TimerControl[i] > ROUTE_CTRL_MASK || s.MailboxControl[i] > ROUTE_CTRL_MASK {
			return fmt.Errorf("core %d control registers out of range", i)
		}
	}
	scratch := NewInterruptRouter(nil)
	scratch.loadState(s)
	if scratch.irqSource != s.IRQSource || scratch.fiqSource != s.FIQSource {
		return fmt.Errorf("source registers do not match the saved routing state")
	}
	return nil
}

// loadState applies a state already accepted by checkState.
func (r *InterruptRouter) loadState(s RouterState) {
	r.gpuIRQ = s.GPUIRQ
	r.gpuFIQ = s.GPUFIQ
	r.routeGPUIRQ = s.RouteGPUIRQ
	r.routeGPUFIQ = s.RouteGPUFIQ
	r.localIRQs = s.LocalIRQs
	r.mailboxes = s.Mailboxes
	r.timerControl = s.TimerControl
	r.mailboxControl = s.MailboxControl
	r.update()
}

func (m *MailboxSemaphore) saveState() MailboxState {
	return MailboxState{
		Config:    m.config,
		Available: m.available,
		Read:      m.mbox[0].Entries(),
		Write:     m.mbox[1].Entries(),
	}
}

func checkMailboxState(s MailboxState) error {
	if len(s.Read) > MBOX_SIZE || len(s.Write) > MBOX_SIZE {
		return fmt.Errorf("mailbox queue longer than %d entries", MBOX_SIZE)
	}
	return nil
}

// loadState applies a state already accepted by checkMailboxState.
func (m *MailboxSemaphore) loadState(s MailboxState) {
	m.mbox[0].Reset()
	m.mbox[1].Reset()
	for _, v := range s.Read {
		m.mbox[0].Push(v)
	}
	for _, v := range s.Write {
		m.mbox[1].Push(v)
	}
	m.config = s.Config & (ARM_MC_IHAVEDATAIRQEN | ARM_MC_IHAVEDATAIRQPEND)
	m.available = s.Available
	m.updateInProgress = false
	m.refreshIRQ()
}

// TakeSnapshot captures the current board state.
func (b *Board) TakeSnapshot() *BoardSnapshot {
	snap := &BoardSnapshot{
		Router:  b.Router.saveState(),
		Mailbox: b.Mailbox.saveState(),
		Space:   append([]byte(nil), b.MailboxSpace.GetMemory()...),
	}
	for ch, ep := range b.Channels {
		if ep == nil {
			continue
		}
		snap.Channels[ch] = ChannelState{
			Present:  true,
			Pending:  ep.pending,
			Ready:    ep.ready,
			Response: ep.response,
			Requests: uint32(ep.requests),
		}
	}
	return snap
}

// RestoreSnapshot loads a snapshot taken from a board with the same channel set.
// A rejected snapshot leaves the board unchanged.
func (b *Board) RestoreSnapshot(snap *BoardSnapshot) error {
	for ch, cs := range snap.Channels {
		if cs.Present != (b.Channels[ch] != nil) {
			return fmt.Errorf("snapshot channel %d presence does not match the board", ch)
		}
	}
	if want := len(b.MailboxSpace.GetMemory()); len(snap.Space) != want {
		return fmt.Errorf("mailbox space image is %d bytes, want %d", len(snap.Space), want)
	}
	if err := checkMailboxState(snap.Mailbox); err != nil {
		return fmt.Errorf("restoring mailbox: %w", err)
	}
	if err := b.Router.checkState(snap.Router); err != nil {
		return fmt.Errorf("restoring router: %w", err)
	}

	if err := b.MailboxSpace.LoadMemory(snap.Space); err != nil {
		return err
	}
	for ch, cs := range snap.Channels {
		if ep := b.Channels[ch]; ep != nil {
			ep.pending = cs.Pending
			ep.ready = cs.Ready && cs.Pending
			ep.response = cs.Response
			ep.requests = int(cs.Requests)
		}
	}
	b.Mailbox.loadState(snap.Mailbox)
	b.Router.loadState(snap.Router)
	return nil
}

func writeWords(w io.Writer, words []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(words))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, words)
}

func readWords(r io.Reader) ([]uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > MBOX_SIZE {
		return nil, fmt.Errorf("queue length %d exceeds %d", n, MBOX_SIZE)
	}
	words := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, words); err != nil {
		return nil, err
	}
	return words, nil
}

// WriteSnapshot encodes snap: magic, version, then a gzip body.
func WriteSnapshot(w io.Writer, snap *BoardSnapshot) error {
	var body bytes.Buffer

	if err := binary.Write(&body, binary.LittleEndian, snap.Router); err != nil {
		return fmt.Errorf("encoding router state: %w", err)
	}
	if err := binary.Write(&body, binary.LittleEndian, snap.Mailbox.Config); err != nil {
		return fmt.Errorf("encoding mailbox config: %w", err)
	}
	if err := binary.Write(&body, binary.LittleEndian, snap.Mailbox.Available); err != nil {
		return fmt.Errorf("encoding channel availability: %w", err)
	}
	if err := writeWords(&body, snap.Mailbox.Read); err != nil {
		return fmt.Errorf("encoding read mailbox: %w", err)
	}
	if err := writeWords(&body, snap.Mailbox.Write); err != nil {
		return fmt.Errorf("encoding write mailbox: %w", err)
	}
	if err := binary.Write(&body, binary.LittleEndian, snap.Channels); err != nil {
		return fmt.Errorf("encoding channel state: %w", err)
	}
	if err := binary.Write(&body, binary.LittleEndian, uint32(len(snap.Space))); err != nil {
		return fmt.Errorf("encoding mailbox space length: %w", err)
	}
	body.Write(snap.Space)

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion)); err != nil {
		return fmt.Errorf("encoding version: %w", err)
	}

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body.Bytes()); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*BoardSnapshot, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", version)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	snap := &BoardSnapshot{}
	if err := binary.Read(gz, binary.LittleEndian, &snap.Router); err != nil {
		return nil, fmt.Errorf("reading router state: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &snap.Mailbox.Config); err != nil {
		return nil, fmt.Errorf("reading mailbox config: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &snap.Mailbox.Available); err != nil {
		return nil, fmt.Errorf("reading channel availability: %w", err)
	}
	if snap.Mailbox.Read, err = readWords(gz); err != nil {
		return nil, fmt.Errorf("reading read mailbox: %w", err)
	}
	if snap.Mailbox.Write, err = readWords(gz); err != nil {
		return nil, fmt.Errorf("reading write mailbox: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &snap.Channels); err != nil {
		return nil, fmt.Errorf("reading channel state: %w", err)
	}

	var spaceLen uint32
	if err := binary.Read(gz, binary.LittleEndian, &spaceLen); err != nil {
		return nil, fmt.Errorf("reading mailbox space length: %w", err)
	}
	if spaceLen > MBOX_SPACE_SIZE {
		return nil, fmt.Errorf("mailbox space image of %d bytes is too large", spaceLen)
	}
	snap.Space = make([]byte, spaceLen)
	if _, err := io.ReadFull(gz, snap.Space); err != nil {
		return nil, fmt.Errorf("reading mailbox space: %w", err)
	}
	return snap, nil
}

// SaveSnapshotToFile writes a snapshot to disk.
func SaveSnapshotToFile(snap *BoardSnapshot, path string) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadSnapshotFromFile reads a snapshot from disk.
func LoadSnapshotFromFile(path string) (*BoardSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
