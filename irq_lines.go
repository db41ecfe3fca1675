// irq_lines.go - Level-triggered signal lines between devices and CPU cores

package main

// IRQLine is a level-triggered output. Re-driving the current level is allowed
// and must be harmless.
type IRQLine interface {
	SetLevel(high bool)
}

// IRQLineFunc adapts a function to the IRQLine interface.
type IRQLineFunc func(high bool)

// SetLevel implements IRQLine.
func (f IRQLineFunc) SetLevel(high bool) {
	if f != nil {
		f(high)
	}
}

type detachedLine struct{}

func (detachedLine) SetLevel(bool) {}

// DetachedLine returns a line that drops every level change.
func DetachedLine() IRQLine {
	return detachedLine{}
}

// LevelLatch stands in for a CPU interrupt input. It keeps the last driven level
// and counts rising edges so callers can tell a new assertion from a re-drive.
type LevelLatch struct {
	Name   string
	level  bool
	rises  int
	drives int
}

// NewLevelLatch creates a deasserted latch.
func NewLevelLatch(name string) *LevelLatch {
	return &LevelLatch{Name: name}
}

// SetLevel implements IRQLine.
func (l *LevelLatch) SetLevel(high bool) {
	if high && !l.level {
		l.rises++
	}
	l.level = high
	l.drives++
}

// Level reports the current level.
func (l *LevelLatch) Level() bool { return l.level }

// Rises reports how many low-to-high transitions have been seen.
func (l *LevelLatch) Rises() int { return l.rises }

// Drives reports how many times the line has been driven, changed or not.
func (l *LevelLatch) Drives() int { return l.drives }

// Reset clears the level and counters.
func (l *LevelLatch) Reset() {
	l.level = false
	l.rises = 0
	l.drives = 0
}

// lineOrDetached substitutes a no-op line for nil.
func lineOrDetached(line IRQLine) IRQLine {
	if line == nil {
		return DetachedLine()
	}
	return line
}
