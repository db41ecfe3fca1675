// mailbox_constants.go - VideoCore mailbox semaphore block constants

package main

// Mailbox channels shared with the VideoCore.
const (
	MBOX_CHAN_POWER    = 0
	MBOX_CHAN_FB       = 1
	MBOX_CHAN_VCHIQ    = 3
	MBOX_CHAN_PROPERTY = 8
	MBOX_CHAN_COUNT    = 9

	MBOX_SIZE         = 32
	MBOX_INVALID_DATA = 0x0F

	// Each channel owns a 16-byte cell in the mailbox data space:
	// +0 data word, +4 pending flag.
	MBOX_CELL_SHIFT   = 4
	MBOX_CELL_DATA    = 0x0
	MBOX_CELL_PENDING = 0x4
	MBOX_SPACE_SIZE   = MBOX_CHAN_COUNT << MBOX_CELL_SHIFT
	MBOX_CHAN_MASK    = 0xF
)

// Semaphore block placement (ARM_OFFSET + 0x800 in the peripheral window).
const (
	PERI_BASE         = 0x3F000000
	MBOX_BASE         = PERI_BASE + 0xB800
	MBOX_REGION_SIZE  = 0x400
	MBOX_OFFSET_MASK  = 0xFF
	MBOX_CHANNEL_BASE = MBOX_BASE + 0x400
)

// Register offsets, masked to the low 8 bits.
const (
	MAIL0_READ0  = 0x80
	MAIL0_READ1  = 0x84
	MAIL0_READ2  = 0x88
	MAIL0_READ3  = 0x8C
	MAIL0_PEEK   = 0x90
	MAIL0_SENDER = 0x94
	MAIL0_STATUS = 0x98
	MAIL0_CONFIG = 0x9C
	MAIL1_WRITE0 = 0xA0
	MAIL1_WRITE1 = 0xA4
	MAIL1_WRITE2 = 0xA8
	MAIL1_WRITE3 = 0xAC
	MAIL1_STATUS = 0xB8
)

// Status and config bits.
const (
	ARM_MS_FULL  = 0x80000000
	ARM_MS_EMPTY = 0x40000000

	ARM_MC_IHAVEDATAIRQEN   = 0x00000001
	ARM_MC_IHAVEDATAIRQPEND = 0x00000010
)

var mboxChannelNames = [MBOX_CHAN_COUNT]string{
	MBOX_CHAN_POWER:    "power",
	MBOX_CHAN_FB:       "fb",
	2:                  "chan2",
	MBOX_CHAN_VCHIQ:    "vchiq",
	4:                  "chan4",
	5:                  "chan5",
	6:                  "chan6",
	7:                  "chan7",
	MBOX_CHAN_PROPERTY: "property",
}
