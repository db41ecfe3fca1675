// mailbox_fifo.go - Fixed-size ordered mailbox queue

package main

// MailboxFIFO is one direction of the VideoCore mailbox: an ordered queue of up
// to MBOX_SIZE words. Free slots hold the sentinel. Pulling from the middle
// shifts the tail down so the remaining entries keep their order.
type MailboxFIFO struct {
	reg      [MBOX_SIZE]uint32
	count    int
	status   uint32
	sentinel uint32
}

// NewMailboxFIFO creates an empty queue using sentinel for free slots.
func NewMailboxFIFO(sentinel uint32) *MailboxFIFO {
	f := &MailboxFIFO{sentinel: sentinel}
	f.Reset()
	return f
}

func (f *MailboxFIFO) updateStatus() {
	if f.count == 0 {
		f.status |= ARM_MS_EMPTY
	} else {
		f.status &^= ARM_MS_EMPTY
	}
	if f.count == MBOX_SIZE {
		f.status |= ARM_MS_FULL
	} else {
		f.status &^= ARM_MS_FULL
	}
}

// Push appends value. It returns false, leaving the queue untouched, when full.
func (f *MailboxFIFO) Push(value uint32) bool {
	if f.count == MBOX_SIZE {
		return false
	}
	f.reg[f.count] = value
	f.count++
	f.updateStatus()
	return true
}

// Pull removes and returns the entry at index, or the sentinel when there is
// no such entry.
func (f *MailboxFIFO) Pull(index int) uint32 {
	if index < 0 || index >= f.count {
		return f.sentinel
	}
	val := f.reg[index]
	copy(f.reg[index:f.count-1], f.reg[index+1:f.count])
	f.count--
	f.reg[f.count] = f.sentinel
	f.updateStatus()
	return val
}

// Pop removes the head entry.
func (f *MailboxFIFO) Pop() uint32 {
	return f.Pull(0)
}

// Peek returns the head entry without removing it; the sentinel when empty.
func (f *MailboxFIFO) Peek() uint32 {
	return f.reg[0]
}

// At returns entry i without removing it.
func (f *MailboxFIFO) At(i int) uint32 {
	if i < 0 || i >= f.count {
		return f.sentinel
	}
	return f.reg[i]
}

// Len returns the number of queued words.
func (f *MailboxFIFO) Len() int { return f.count }

// Empty reports whether the FIFO holds no words.
func (f *MailboxFIFO) Empty() bool { return f.count == 0 }

// Full reports whether the FIFO holds MBOX_SIZE words.
func (f *MailboxFIFO) Full() bool { return f.count == MBOX_SIZE }

// Status returns the EMPTY/FULL status bits.
func (f *MailboxFIFO) Status() uint32 { return f.status }

// Entries returns a copy of the valid entries in queue order.
func (f *MailboxFIFO) Entries() []uint32 {
	out := make([]uint32, f.count)
	copy(out, f.reg[:f.count])
	return out
}
