// machine_bus.go - Word-addressed MMIO bus shared by the peripheral window and the mailbox data space

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
machine_bus.go - Machine bus for the BCM2836 interrupt core

The bus maps device register blocks into a 32-bit address space and backs the
remaining addresses of its window with plain RAM. Two instances exist on a
board: the peripheral window the CPU side uses to reach the control block and
the mailbox semaphore block, and the mailbox data space in which each channel
actor owns a 16-byte cell at channel<<4.

Device registers are word sized. A narrow or misaligned access that lands on a
mapped region is a guest error: it is logged and reads as zero. RAM accepts any
width. Mappings are fixed once the bus is sealed.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

const (
	BUS_PAGE_SIZE = 0x100
	BUS_PAGE_MASK = 0xFFFFFF00
)

// Bus32 is the word access contract devices use to reach collaborators.
type Bus32 interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
}

// MMIODevice is a register block addressed by offset from its base.
type MMIODevice interface {
	HandleRead(offset uint32) uint32
	HandleWrite(offset uint32, value uint32)
}

type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

// MachineBus implements Bus32 over a RAM window plus page-indexed I/O regions.
type MachineBus struct {
	name    string
	base    uint32
	memory  []byte
	mapping map[uint32][]IORegion
	log     *GuestLog

	// Sealed state to prevent I/O mapping after the board is running
	sealed atomic.Bool
}

// NewMachineBus creates a bus whose RAM covers [base, base+size).
func NewMachineBus(name string, base uint32, size int, log *GuestLog) *MachineBus {
	return &MachineBus{
		name:    name,
		base:    base,
		memory:  make([]byte, size),
		mapping: make(map[uint32][]IORegion),
		log:     log,
	}
}

func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}

func (bus *MachineBus) SealMappings() {
	bus.sealed.Store(true)
}

func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("%s: MapIO called after seal (mapping range $%08X-$%08X)", bus.name, start, end))
	}
	if end < start {
		panic(fmt.Sprintf("%s: MapIO range $%08X-$%08X is inverted", bus.name, start, end))
	}
	for page := start & BUS_PAGE_MASK; ; page += BUS_PAGE_SIZE {
		for _, r := range bus.mapping[page] {
			if start <= r.end && r.start <= end {
				panic(fmt.Sprintf("%s: MapIO range $%08X-$%08X overlaps $%08X-$%08X", bus.name, start, end, r.start, r.end))
			}
		}
		if page >= end&BUS_PAGE_MASK {
			break
		}
	}
	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}
	for page := start & BUS_PAGE_MASK; ; page += BUS_PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		if page >= end&BUS_PAGE_MASK {
			break
		}
	}
}

// MapDevice maps an MMIODevice so that it sees offsets relative to start.
func (bus *MachineBus) MapDevice(start, size uint32, dev MMIODevice) {
	bus.MapIO(start, start+size-1,
		func(addr uint32) uint32 { return dev.HandleRead(addr - start) },
		func(addr uint32, value uint32) { dev.HandleWrite(addr-start, value) })
}

func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	regions, ok := bus.mapping[addr&BUS_PAGE_MASK]
	if !ok {
		return nil
	}
	for i := range regions {
		if addr >= regions[i].start && addr <= regions[i].end {
			return &regions[i]
		}
	}
	return nil
}

// ramIndex returns the RAM offset of an access, or false when it falls outside the window.
func (bus *MachineBus) ramIndex(addr uint32, width uint32) (uint32, bool) {
	if addr < bus.base {
		return 0, false
	}
	off := addr - bus.base
	if uint64(off)+uint64(width) > uint64(len(bus.memory)) {
		return 0, false
	}
	return off, true
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	if region := bus.findIORegion(addr); region != nil {
		if addr&3 != 0 {
			bus.log.GuestErrorf("%s: unaligned Read32 at $%08X", bus.name, addr)
			return 0
		}
		if region.onRead == nil {
			return 0
		}
		return region.onRead(addr)
	}
	off, ok := bus.ramIndex(addr, 4)
	if !ok {
		bus.log.GuestErrorf("%s: Read32 from unmapped address $%08X", bus.name, addr)
		return 0
	}
	return binary.LittleEndian.Uint32(bus.memory[off : off+4])
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	if region := bus.findIORegion(addr); region != nil {
		if addr&3 != 0 {
			bus.log.GuestErrorf("%s: unaligned Write32 at $%08X", bus.name, addr)
			return
		}
		if region.onWrite != nil {
			region.onWrite(addr, value)
		}
		return
	}
	off, ok := bus.ramIndex(addr, 4)
	if !ok {
		bus.log.GuestErrorf("%s: Write32 to unmapped address $%08X", bus.name, addr)
		return
	}
	binary.LittleEndian.PutUint32(bus.memory[off:off+4], value)
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	if bus.findIORegion(addr) != nil {
		bus.log.GuestErrorf("%s: invalid 16-bit read at $%08X", bus.name, addr)
		return 0
	}
	off, ok := bus.ramIndex(addr, 2)
	if !ok {
		bus.log.GuestErrorf("%s: Read16 from unmapped address $%08X", bus.name, addr)
		return 0
	}
	return binary.LittleEndian.Uint16(bus.memory[off : off+2])
}

func (bus *MachineBus) Write16(addr uint32, value uint16) {
	if bus.findIORegion(addr) != nil {
		bus.log.GuestErrorf("%s: invalid 16-bit write at $%08X", bus.name, addr)
		return
	}
	off, ok := bus.ramIndex(addr, 2)
	if !ok {
		bus.log.GuestErrorf("%s: Write16 to unmapped address $%08X", bus.name, addr)
		return
	}
	binary.LittleEndian.PutUint16(bus.memory[off:off+2], value)
}

func (bus *MachineBus) Read8(addr uint32) uint8 {
	if bus.findIORegion(addr) != nil {
		bus.log.GuestErrorf("%s: invalid 8-bit read at $%08X", bus.name, addr)
		return 0
	}
	off, ok := bus.ramIndex(addr, 1)
	if !ok {
		bus.log.GuestErrorf("%s: Read8 from unmapped address $%08X", bus.name, addr)
		return 0
	}
	return bus.memory[off]
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	if bus.findIORegion(addr) != nil {
		bus.log.GuestErrorf("%s: invalid 8-bit write at $%08X", bus.name, addr)
		return
	}
	off, ok := bus.ramIndex(addr, 1)
	if !ok {
		bus.log.GuestErrorf("%s: Write8 to unmapped address $%08X", bus.name, addr)
		return
	}
	bus.memory[off] = value
}

// LoadMemory replaces the RAM contents, as used by snapshot restore.
func (bus *MachineBus) LoadMemory(data []byte) error {
	if len(data) != len(bus.memory) {
		return fmt.Errorf("%s: memory image is %d bytes, want %d", bus.name, len(data), len(bus.memory))
	}
	copy(bus.memory, data)
	return nil
}
