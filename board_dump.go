// board_dump.go - Human readable register dump

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	levelOn  = color.New(color.FgRed, color.Bold)
	levelOff = color.New(color.FgGreen)
	dumpHead = color.New(color.FgCyan)
)

func levelString(high bool) string {
	if high {
		return levelOn.Sprint("ON ")
	}
	return levelOff.Sprint("off")
}

// DumpBoard prints routing registers, source snapshots, output levels and
// mailbox queues.
func DumpBoard(w io.Writer, b *Board) {
	r := b.Router
	gpuIRQ, gpuFIQ := r.GPULevels()
	route := r.HandleRead(ROUTER_GPU_ROUTE)

	dumpHead.Fprintln(w, "Interrupt router")
	fmt.Fprintf(w, "  gpu irq=%s -> core%d  gpu fiq=%s -> core%d\n",
		levelString(gpuIRQ), route&ROUTE_CORE_MASK, levelString(gpuFIQ), (route>>2)&ROUTE_CORE_MASK)
	for i := 0; i < ROUTER_CORES; i++ {
		fmt.Fprintf(w, "  core%d IRQ %s FIQ %s  irqsrc=$%03X fiqsrc=$%03X  local=%04b mbox=%04b  timerctl=$%02X mboxctl=$%02X\n",
			i, levelString(b.CoreIRQ[i].Level()), levelString(b.CoreFIQ[i].Level()),
			r.IRQSource(i), r.FIQSource(i), r.LocalIRQs(i), r.MailboxPending(i),
			r.HandleRead(ROUTER_TIMER_CTRL+uint32(i)*4), r.HandleRead(ROUTER_MAILBOX_CTRL+uint32(i)*4))
	}

	m := b.Mailbox
	dumpHead.Fprintln(w, "Mailbox semaphore")
	fmt.Fprintf(w, "  irq %s  config=$%08X\n", levelString(m.IRQLevel()), m.Config())
	fmt.Fprintf(w, "  mbox0 status=$%08X %s\n", m.ReadQueue().Status(), formatQueue(m.ReadQueue()))
	fmt.Fprintf(w, "  mbox1 status=$%08X %s\n", m.WriteQueue().Status(), formatQueue(m.WriteQueue()))

	var avail []string
	for ch := 0; ch < MBOX_CHAN_COUNT; ch++ {
		if m.ChannelAvailable(ch) {
			avail = append(avail, mboxChannelNames[ch])
		}
	}
	if len(avail) == 0 {
		avail = append(avail, "none")
	}
	fmt.Fprintf(w, "  available: %s\n", strings.Join(avail, " "))

	for _, ep := range b.Channels {
		if ep == nil {
			continue
		}
		mode := "auto"
		if ep.Manual() {
			mode = "manual"
		}
		fmt.Fprintf(w, "  chan %d %-8s %-6s pending=%v ready=%v requests=%d\n",
			ep.Channel(), ep.Name(), mode, ep.Pending(), ep.Ready(), ep.Requests())
	}
}

func formatQueue(f *MailboxFIFO) string {
	if f.Empty() {
		return "[]"
	}
	parts := make([]string, f.Len())
	for i, v := range f.Entries() {
		parts[i] = fmt.Sprintf("$%08X", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
