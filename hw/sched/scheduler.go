// Package sched drives the video hardware of a machine, one scanline at a
// time, from a deterministic event clock.
package sched

import (
	"fmt"

	"vidcore/emu/log"
)

// Target is the video hardware driven by a Scheduler.
type Target interface {
	// Dirty reports whether register writes are waiting to be latched; the
	// lines drawn so far are then flushed before the next latch.
	Dirty() bool
	// Latch applies the register state of the given line.
	Latch(line int)
	// Update draws lines [first, last].
	Update(first, last int)
	VBlank(frame uint64)
	FrameDone(frame uint64)
}

// Scheduler ticks once per scanline. Lines are drawn lazily: a band of
// lines is drawn only when the register state is about to change, at the
// end of the visible area and at the end of the frame, so every line of a
// frame is drawn exactly once with the state that was in effect for it.
type Scheduler struct {
	timing Timing
	period int64
	target Target
	clock  *Clock

	line  int // next line to tick
	cur   int // line of the last tick
	first int // first line not drawn yet
	frame uint64

	event    *Event
	lastTick int64
}

func New(t Timing, clock *Clock, target Target) (*Scheduler, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		timing: t,
		period: t.LinePeriod(),
		target: target,
		clock:  clock,
	}, nil
}

func (s *Scheduler) Timing() Timing { return s.timing }

// Line returns the scanline the raster is on.
func (s *Scheduler) Line() int { return s.cur }

// HPos returns the horizontal position of the raster, in pixels.
func (s *Scheduler) HPos() int {
	if s.event == nil {
		return 0
	}
	return int((s.clock.Now() - s.lastTick) / s.timing.PixelPeriod())
}

// Frame returns the number of completed frames.
func (s *Scheduler) Frame() uint64 { return s.frame }

// Start schedules the scanline ticks on the clock, the first one being due
// immediately.
func (s *Scheduler) Start() {
	if s.event != nil {
		return
	}
	s.event = s.clock.Schedule(0, s.fire)
}

// Stop cancels the pending tick.
func (s *Scheduler) Stop() {
	if s.event != nil {
		s.event.Cancel()
		s.event = nil
	}
}

func (s *Scheduler) fire() {
	s.lastTick = s.event.When()
	s.event = s.clock.ScheduleAt(s.lastTick+s.period, s.fire)
	s.Tick()
}

// Tick processes the boundary of the next scanline.
func (s *Scheduler) Tick() {
	n := s.line
	s.cur = n
	if n > s.first && (n == s.timing.Visible.Max.Y || s.target.Dirty()) {
		s.update(n - 1)
	}
	s.target.Latch(n)
	if n == s.timing.VBlankStart {
		s.target.VBlank(s.frame)
	}

	s.line++
	if s.line >= s.timing.VTotal {
		s.endFrame()
	}
}

// Flush draws the lines not drawn yet, up to the current one included.
// Machines call it before changing state that is not latched.
func (s *Scheduler) Flush() {
	if s.line > s.first {
		s.update(s.line - 1)
	}
}

func (s *Scheduler) update(last int) {
	log.ModSched.DebugZ("update").
		Int("first", s.first).
		Int("last", last).
		Uint64("frame", s.frame).
		End()
	s.target.Update(s.first, last)
	s.first = last + 1
}

func (s *Scheduler) endFrame() {
	s.update(s.line - 1)
	s.target.FrameDone(s.frame)
	s.frame++
	s.line, s.first = 0, 0
}

// Reconfigure changes the raster timing without moving the raster: the
// next tick processes the next line, one new line period after the last
// tick. If the current frame is already longer than the new vertical total,
// it ends immediately.
func (s *Scheduler) Reconfigure(t Timing) error {
	if err := t.Validate(); err != nil {
		return err
	}
	log.ModSched.InfoZ("reconfigure").
		Int("htotal", t.HTotal).
		Int("vtotal", t.VTotal).
		Int64("pixclk", t.PixelClock).
		Int("line", s.line).
		End()

	s.timing = t
	s.period = t.LinePeriod()
	if s.line >= t.VTotal {
		s.endFrame()
	}
	if s.event != nil && s.event.Pending() {
		s.event.Cancel()
		s.event = s.clock.ScheduleAt(s.lastTick+s.period, s.fire)
	}
	return nil
}

// Position is a raster position, for logging.
type Position struct {
	Frame uint64
	Line  int
	HPos  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Frame, p.Line, p.HPos)
}

func (s *Scheduler) Position() Position {
	return Position{Frame: s.frame, Line: s.cur, HPos: s.HPos()}
}

// SaveState returns the raster counters and the master time of the next
// tick (-1 when stopped).
func (s *Scheduler) SaveState() (frame uint64, line int, next int64) {
	next = -1
	if s.event != nil && s.event.Pending() {
		next = s.event.When()
	}
	return s.frame, s.line, next
}

// SetState restores counters saved by SaveState. Lines drawn before the
// save are not drawn again: the frame resumes from the given line. The
// clock must already be set to the saved time.
func (s *Scheduler) SetState(frame uint64, line int, next int64) {
	s.Stop()
	s.frame = frame
	s.line, s.first = line, line
	s.cur = max(line-1, 0)
	if next >= 0 {
		s.lastTick = next - s.period
		s.event = s.clock.ScheduleAt(next, s.fire)
	}
}
