package machines

import (
	"bytes"
	"fmt"
	"image"

	"vidcore/emu/log"
	"vidcore/hw/compose"
	"vidcore/hw/gfx"
	"vidcore/hw/hwdefs"
	"vidcore/hw/hwio"
	"vidcore/hw/latch"
	"vidcore/hw/palette"
	"vidcore/hw/sched"
	"vidcore/hw/snapshot"
	"vidcore/hw/video"
)

// board is the part of a machine specific to its hardware.
type board interface {
	// applyLatch takes the register state in effect for a new scanline.
	applyLatch(line int, st *latch.State)
	draw(dst *gfx.Bitmap, clip image.Rectangle)
	vblank()
	// resize reallocates the raster sized buffers of the board.
	resize(t sched.Timing)

	// checkState rejects board registers out of range, before anything is
	// restored.
	checkState(v *snapshot.Video) error
	saveState(v *snapshot.Video)
	loadState(v *snapshot.Video)
}

// core holds what every machine has: a clock, the scanline scheduler, the
// register latch and the screen. It implements sched.Target for its board.
type core struct {
	name  string
	cfg   Config
	board board

	clock  *sched.Clock
	sched  *sched.Scheduler
	screen *video.Screen
	latch  *latch.Latch
	comp   *compose.Compositor

	mem *hwio.Table
	io  *hwio.Table

	// memories saved in the save state, by name
	mems map[string]*hwio.Mem

	state    latch.State
	inVBlank bool

	rasterVector uint8
}

func (c *core) init(name string, cfg Config, t sched.Timing, pal *palette.Palette, b board) error {
	c.name = name
	c.cfg = cfg
	c.board = b
	c.clock = sched.NewClock()
	c.latch = latch.New()
	c.state = c.latch.Active()
	c.screen = video.NewScreen(t, pal, b.draw)
	c.comp = compose.New(t.HTotal, t.VTotal)
	c.mem = hwio.NewTable(name + " mem")
	c.io = hwio.NewTable(name + " io")
	c.mems = make(map[string]*hwio.Mem)

	s, err := sched.New(t, c.clock, c)
	if err != nil {
		return err
	}
	c.sched = s
	return nil
}

// start starts the scanline ticks, once the board is ready.
func (c *core) start() {
	c.sched.Start()
}

func (c *core) addMem(name string, m *hwio.Mem) {
	c.mems[name] = m
}

// layer returns a bitmap covering the whole raster, for a compositor layer.
func (c *core) layer() *gfx.Bitmap {
	t := c.screen.Timing()
	return gfx.NewBitmap(t.HTotal, t.VTotal)
}

func (c *core) raise(irq hwdefs.IRQLine, vector uint8) {
	log.ModMachine.DebugZ("interrupt").
		String("machine", c.name).
		Stringer("irq", irq).
		Hex8("vector", vector).
		Int("line", c.sched.Line()).
		End()
	if c.cfg.Interrupt != nil {
		c.cfg.Interrupt(irq, vector)
	}
}

// sched.Target

func (c *core) Dirty() bool { return c.latch.Pending() > 0 }

func (c *core) Latch(line int) {
	st := c.latch.OnScanlineBoundary(line)
	c.inVBlank = line >= c.sched.Timing().VBlankStart
	c.board.applyLatch(line, &st)
	c.state = st
	if st.FireIRQ {
		// the lines above the split are drawn with the state before the
		// interrupt handler runs
		c.sched.Flush()
		c.raise(hwdefs.Raster, c.rasterVector)
	}
}

func (c *core) Update(first, last int) { c.screen.Update(first, last) }

func (c *core) VBlank(uint64) { c.board.vblank() }

func (c *core) FrameDone(uint64) { c.screen.FrameDone() }

// Machine

func (c *core) Name() string                       { return c.name }
func (c *core) FrameBuffer() *image.RGBA           { return c.screen.FrameBuffer() }
func (c *core) Screen() *video.Screen              { return c.screen }
func (c *core) Clock() *sched.Clock                { return c.clock }
func (c *core) Scheduler() *sched.Scheduler        { return c.sched }
func (c *core) WriteMemory(addr uint32, v uint8)   { c.mem.Write8(addr, v) }
func (c *core) WriteRegister(addr uint32, v uint8) { c.io.Write8(addr, v) }
func (c *core) ReadRegister(addr uint32) uint8     { return c.io.Read8(addr, false) }

func (c *core) RunFrame() {
	f := c.sched.Frame()
	for c.sched.Frame() == f && c.clock.Step() {
	}
}

// Reconfigure changes the raster timing of the machine. The lines drawn so
// far are flushed with the old timing; the screen, the layers and the
// compositor are then reallocated, so the frame buffer is blank until the
// first frame drawn with the new timing completes.
func (c *core) Reconfigure(t sched.Timing) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c.sched.Flush()
	if err := c.sched.Reconfigure(t); err != nil {
		return err
	}
	c.screen.SetTiming(t)
	c.comp = compose.New(t.HTotal, t.VTotal)
	c.board.resize(t)

	log.ModMachine.InfoZ("raster changed").
		String("machine", c.name).
		Int("htotal", t.HTotal).
		Int("vtotal", t.VTotal).
		Stringer("visible", t.Visible).
		End()
	return nil
}

func (c *core) Acknowledge(irq hwdefs.IRQLine) {
	if irq&hwdefs.Raster != 0 {
		c.latch.Acknowledge()
	}
}

// write buffers a latched register write of the CPU.
func (c *core) write(kind latch.Kind, idx, val int) {
	c.latch.Write(latch.Reg{Kind: kind, Index: idx}, val, c.sched.Line())
}

// checkRange returns an error when a saved register is not in [0,n).
func checkRange(name string, v, n int64) error {
	if v < 0 || v >= n {
		return fmt.Errorf("%s %d out of [0,%d)", name, v, n)
	}
	return nil
}

// AddLogContext adds the raster position to log entries.
func (c *core) AddLogContext(z *log.EntryZ) {
	z.String("machine", c.name).Stringer("pos", c.sched.Position())
}

func (c *core) State() *snapshot.Video {
	frame, line, next := c.sched.SaveState()
	v := &snapshot.Video{
		Version:  snapshot.Version,
		Machine:  c.name,
		Frame:    frame,
		Scanline: line,
		Clock:    c.clock.Now(),
		NextTick: next,
		Latch:    *c.latch.SaveState(),
		Memory:   make(map[string][]byte, len(c.mems)),
		Regs:     make(map[string]int64),
	}
	for name, m := range c.mems {
		v.Memory[name] = bytes.Clone(m.Data)
	}
	c.board.saveState(v)
	return v
}

// LoadState restores a state returned by State. Caches are not part of the
// state: every tilemap is redrawn and palettes are decoded again.
func (c *core) LoadState(v *snapshot.Video) error {
	if v.Version != snapshot.Version {
		return fmt.Errorf("%w: got version %d", snapshot.ErrVersion, v.Version)
	}
	if v.Machine != c.name {
		return fmt.Errorf("%w: state of %q, machine is %q", ErrStateMismatch, v.Machine, c.name)
	}
	if vt := c.sched.Timing().VTotal; v.Scanline < 0 || v.Scanline >= vt {
		return fmt.Errorf("%w: scanline %d out of [0,%d)", ErrStateMismatch, v.Scanline, vt)
	}
	for name, m := range c.mems {
		if len(v.Memory[name]) != len(m.Data) {
			return fmt.Errorf("%w: memory %q has %d bytes, want %d",
				ErrStateMismatch, name, len(v.Memory[name]), len(m.Data))
		}
	}

	if err := c.board.checkState(v); err != nil {
		return fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}
	if err := c.latch.SetState(&v.Latch); err != nil {
		return fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}

	for name, m := range c.mems {
		copy(m.Data, v.Memory[name])
	}
	c.state = c.latch.Active()
	c.inVBlank = c.state.Line >= c.sched.Timing().VBlankStart
	c.clock.Reset(v.Clock)
	c.sched.SetState(v.Frame, v.Scanline, v.NextTick)
	c.board.loadState(v)

	log.ModMachine.InfoZ("state loaded").
		String("machine", c.name).
		Uint64("frame", v.Frame).
		Int("line", v.Scanline).
		End()
	return nil
}
