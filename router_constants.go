// router_constants.go - BCM2836 ARM control block register map and source bits

package main

const (
	ROUTER_CORES         = 4
	ROUTER_MB_PER_CORE   = 4
	ROUTER_MAILBOX_COUNT = ROUTER_CORES * ROUTER_MB_PER_CORE
	ROUTER_REGION_SIZE   = 0x100

	// Peripheral window base of the control block on a Pi 2.
	ROUTER_BASE = 0x40000000
)

// Register offsets from the block base. All accesses are 32-bit and word aligned.
const (
	ROUTER_GPU_ROUTE = 0x0C // [1:0] IRQ core, [3:2] FIQ core

	ROUTER_TIMER_CTRL   = 0x40 // 0x40-0x4C, one per core
	ROUTER_MAILBOX_CTRL = 0x50 // 0x50-0x5C, one per core
	ROUTER_IRQ_SOURCE   = 0x60 // 0x60-0x6C, read-only
	ROUTER_FIQ_SOURCE   = 0x70 // 0x70-0x7C, read-only
	ROUTER_MAILBOX_SET  = 0x80 // 0x80-0xBC, write-only
	ROUTER_MAILBOX_CLR  = 0xC0 // 0xC0-0xFC, read value / write clear
)

// Bit numbers in the irq/fiq source registers.
const (
	IRQ_CNTPSIRQ  = 0
	IRQ_CNTPNSIRQ = 1
	IRQ_CNTHPIRQ  = 2
	IRQ_CNTVIRQ   = 3
	IRQ_MAILBOX0  = 4
	IRQ_MAILBOX1  = 5
	IRQ_MAILBOX2  = 6
	IRQ_MAILBOX3  = 7
	IRQ_GPU       = 8
	IRQ_PMU       = 9
	IRQ_AXI       = 10
	IRQ_TIMER     = 11
	IRQ_MAX       = IRQ_TIMER

	// Local timer sources occupy bits 0..3.
	LOCAL_IRQ_COUNT = IRQ_MAILBOX0

	ROUTE_CORE_MASK = 0x3
	ROUTE_CTRL_MASK = 0xFF
)

// localIRQNames are the per-core timer comparator lines in source-index order.
var localIRQNames = [LOCAL_IRQ_COUNT]string{"cntpsirq", "cntpnsirq", "cnthpirq", "cntvirq"}
