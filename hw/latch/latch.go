// Package latch buffers video register writes until the scanline boundary
// they take effect on.
package latch

import (
	"errors"
	"fmt"

	"vidcore/emu/log"
	"vidcore/hw/snapshot"
)

//go:generate go tool stringer -type=Kind

// Kind is a class of latched register.
type Kind int

const (
	ScrollX Kind = iota
	ScrollY
	PaletteBank
	GfxBank
	Mode
	IRQLine
	Extra
)

const (
	MaxLayers = 4 // scroll and mode registers
	MaxExtra  = 8
)

// Reg identifies a latched register. Index selects the layer of scroll and
// mode registers, and the slot of extra registers.
type Reg struct {
	Kind  Kind
	Index int
}

func (r Reg) String() string {
	switch r.Kind {
	case PaletteBank, GfxBank, IRQLine:
		return r.Kind.String()
	}
	return fmt.Sprintf("%v[%d]", r.Kind, r.Index)
}

func (r Reg) valid() bool {
	switch r.Kind {
	case ScrollX, ScrollY, Mode:
		return r.Index >= 0 && r.Index < MaxLayers
	case Extra:
		return r.Index >= 0 && r.Index < MaxExtra
	case PaletteBank, GfxBank, IRQLine:
		return true
	}
	return false
}

// ErrInvalidState is returned when restoring a latch state with values
// the hardware cannot hold.
var ErrInvalidState = errors.New("invalid latch state")

// NoIRQ is the IRQ line value of a disabled raster interrupt.
const NoIRQ = -1

// State is the register state in effect for a scanline. It only holds
// values, so a State is an independent copy of the latch.
type State struct {
	Line        int
	ScrollX     [MaxLayers]int
	ScrollY     [MaxLayers]int
	PaletteBank int
	GfxBank     int
	Mode        [MaxLayers]int
	Extra       [MaxExtra]int
	IRQLine     int

	// FireIRQ is set when the raster interrupt must be raised at Line.
	FireIRQ bool
}

func (s *State) set(r Reg, v int) {
	switch r.Kind {
	case ScrollX:
		s.ScrollX[r.Index] = v
	case ScrollY:
		s.ScrollY[r.Index] = v
	case PaletteBank:
		s.PaletteBank = v
	case GfxBank:
		s.GfxBank = v
	case Mode:
		s.Mode[r.Index] = v
	case Extra:
		s.Extra[r.Index] = v
	case IRQLine:
		s.IRQLine = v
	}
}

type write struct {
	reg   Reg
	value int
	line  int
}

// Latch holds the register writes of the current scanline interval. Writes
// are never visible before the next call to OnScanlineBoundary.
type Latch struct {
	active  State
	pending []write

	started bool
	last    int
	armed   bool
}

func New() *Latch {
	l := &Latch{}
	l.Reset()
	return l
}

func (l *Latch) Reset() {
	l.active = State{IRQLine: NoIRQ}
	l.pending = l.pending[:0]
	l.started = false
	l.last = 0
	l.armed = false
}

// Write records a register write happening during scanline line. A second
// write to the same register before the boundary replaces the first one.
func (l *Latch) Write(r Reg, value, line int) {
	if !r.valid() {
		log.ModLatch.DebugZ("invalid register").
			Int("kind", int(r.Kind)).
			Int("idx", r.Index).
			Int("line", line).
			End()
		return
	}
	for i := range l.pending {
		if l.pending[i].reg == r {
			l.pending[i].value = value
			l.pending[i].line = line
			return
		}
	}
	l.pending = append(l.pending, write{reg: r, value: value, line: line})
}

// OnScanlineBoundary applies the pending writes and returns the state in
// effect for scanline n. It must be called once per scanline in increasing
// order, wrapping to 0 at the start of a frame: any other call sequence
// panics.
func (l *Latch) OnScanlineBoundary(n int) State {
	if l.started && n <= l.last && !(n == 0 && l.last > 0) {
		panic(fmt.Sprintf("latch: scanline boundary %d after %d", n, l.last))
	}
	l.started = true
	l.last = n

	for _, w := range l.pending {
		l.active.set(w.reg, w.value)
		if w.reg.Kind == IRQLine {
			l.armed = w.value != NoIRQ
		}
		log.ModLatch.DebugZ("applied").
			Stringer("reg", w.reg).
			Int("val", w.value).
			Int("written", w.line).
			Int("line", n).
			End()
	}
	l.pending = l.pending[:0]

	l.active.Line = n
	l.active.FireIRQ = l.armed && l.active.IRQLine == n
	if l.active.FireIRQ {
		l.armed = false
	}
	return l.active
}

// Acknowledge re-arms the raster interrupt after it has been serviced.
func (l *Latch) Acknowledge() {
	l.armed = l.active.IRQLine != NoIRQ
}

// DisableIRQ disarms the raster interrupt immediately.
func (l *Latch) DisableIRQ() {
	l.active.IRQLine = NoIRQ
	l.active.FireIRQ = false
	l.armed = false
}

// Active returns the state applied at the last boundary.
func (l *Latch) Active() State { return l.active }

// Pending returns the number of buffered writes.
func (l *Latch) Pending() int { return len(l.pending) }

// Last returns the last scanline boundary, and false before the first one.
func (l *Latch) Last() (int, bool) { return l.last, l.started }

func (l *Latch) SaveState() *snapshot.Latch {
	s := &snapshot.Latch{
		Line:        l.active.Line,
		ScrollX:     append([]int(nil), l.active.ScrollX[:]...),
		ScrollY:     append([]int(nil), l.active.ScrollY[:]...),
		PaletteBank: l.active.PaletteBank,
		GfxBank:     l.active.GfxBank,
		Mode:        append([]int(nil), l.active.Mode[:]...),
		Extra:       append([]int(nil), l.active.Extra[:]...),
		IRQLine:     l.active.IRQLine,
		FireIRQ:     l.active.FireIRQ,
		Pending:     make([]snapshot.Write, len(l.pending)),
		Last:        l.last,
		IRQArmed:    l.armed,
	}
	if !l.started {
		s.Last = -1
	}
	for i, w := range l.pending {
		s.Pending[i] = snapshot.Write{Kind: int(w.reg.Kind), Index: w.reg.Index, Value: w.value}
	}
	return s
}

// SetState restores a state returned by SaveState. The latch is left
// unchanged when the state holds invalid values.
func (l *Latch) SetState(s *snapshot.Latch) error {
	switch {
	case s.PaletteBank < 0 || s.GfxBank < 0:
		return fmt.Errorf("%w: palette bank %d, gfx bank %d", ErrInvalidState, s.PaletteBank, s.GfxBank)
	case len(s.ScrollX) > MaxLayers || len(s.ScrollY) > MaxLayers || len(s.Mode) > MaxLayers || len(s.Extra) > MaxExtra:
		return fmt.Errorf("%w: too many registers", ErrInvalidState)
	}
	for _, w := range s.Pending {
		if r := (Reg{Kind: Kind(w.Kind), Index: w.Index}); !r.valid() {
			return fmt.Errorf("%w: pending write to %v", ErrInvalidState, r)
		}
		if (w.Kind == int(PaletteBank) || w.Kind == int(GfxBank)) && w.Value < 0 {
			return fmt.Errorf("%w: pending bank %d", ErrInvalidState, w.Value)
		}
	}

	l.active = State{
		Line:        s.Line,
		PaletteBank: s.PaletteBank,
		GfxBank:     s.GfxBank,
		IRQLine:     s.IRQLine,
		FireIRQ:     s.FireIRQ,
	}
	copy(l.active.ScrollX[:], s.ScrollX)
	copy(l.active.ScrollY[:], s.ScrollY)
	copy(l.active.Mode[:], s.Mode)
	copy(l.active.Extra[:], s.Extra)

	l.pending = l.pending[:0]
	for _, w := range s.Pending {
		l.Write(Reg{Kind: Kind(w.Kind), Index: w.Index}, w.Value, s.Last)
	}
	l.started = s.Last >= 0
	l.last = max(s.Last, 0)
	l.armed = s.IRQArmed
	return nil
}
