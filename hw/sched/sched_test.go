package sched

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClockOrder(t *testing.T) {
	c := NewClock()
	var got []string
	add := func(s string) func() { return func() { got = append(got, s) } }

	c.Schedule(30, add("c"))
	c.Schedule(10, add("a"))
	c.Schedule(20, add("b1"))
	c.Schedule(20, add("b2"))
	ev := c.Schedule(25, add("canceled"))
	c.Schedule(5, func() {
		got = append(got, "first")
		c.Schedule(0, add("nested"))
	})
	ev.Cancel()
	ev.Cancel()

	if n := c.RunUntil(30); n != 5 {
		t.Errorf("RunUntil(30) ran %d events, want 5", n)
	}
	want := []string{"first", "nested", "a", "b1", "b2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if c.Now() != 30 {
		t.Errorf("Now() = %d, want 30", c.Now())
	}
	if ev.Pending() {
		t.Errorf("canceled event still pending")
	}

	c.Advance(1)
	if diff := cmp.Diff(append(want, "c"), got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if _, ok := c.Next(); ok {
		t.Errorf("queue not empty")
	}
}

func TestClockPast(t *testing.T) {
	c := NewClock()
	c.Advance(100)
	ran := int64(-1)
	ev := c.ScheduleAt(50, func() { ran = c.Now() })
	if ev.When() != 100 {
		t.Errorf("When() = %d, want 100", ev.When())
	}
	c.Step()
	if ran != 100 {
		t.Errorf("ran at %d, want 100", ran)
	}
}

var testTiming = Timing{
	PixelClock:  6_144_000,
	HTotal:      384,
	VTotal:      264,
	Visible:     image.Rect(0, 16, 256, 240),
	VBlankStart: 240,
}

// recorder is a Target instrumenting the scheduler.
type recorder struct {
	t       *testing.T
	dirtyAt map[int]bool

	lines   []int // every line passed to Update
	drawn   map[int]int
	latched []int
	vblanks []int // line of each vblank
	frames  []uint64
	sched   *Scheduler
}

func newRecorder(t *testing.T) *recorder {
	return &recorder{t: t, dirtyAt: map[int]bool{}, drawn: map[int]int{}}
}

func (r *recorder) Dirty() bool        { return r.dirtyAt[r.sched.Line()] }
func (r *recorder) Latch(line int)     { r.latched = append(r.latched, line) }
func (r *recorder) VBlank(uint64)      { r.vblanks = append(r.vblanks, r.sched.Line()) }
func (r *recorder) FrameDone(f uint64) { r.frames = append(r.frames, f) }
func (r *recorder) Update(first, last int) {
	if first > last {
		r.t.Errorf("empty update [%d, %d]", first, last)
	}
	for l := first; l <= last; l++ {
		r.lines = append(r.lines, l)
		r.drawn[l]++
	}
}

// checkCoverage verifies that lines holds [0, vtotal) once per frame, in
// order.
func checkCoverage(t *testing.T, lines []int, vtotal, frames int) {
	t.Helper()
	if len(lines) != vtotal*frames {
		t.Fatalf("%d lines drawn, want %d", len(lines), vtotal*frames)
	}
	for i, l := range lines {
		if l != i%vtotal {
			t.Fatalf("update #%d drew line %d, want %d", i, l, i%vtotal)
		}
	}
}

func TestScanlineCoverage(t *testing.T) {
	tests := []struct {
		name  string
		dirty []int
	}{
		{name: "no raster effects"},
		{name: "splits", dirty: []int{1, 17, 18, 100, 239, 240, 263}},
		{name: "split at line 0", dirty: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := NewClock()
			rec := newRecorder(t)
			for _, l := range tt.dirty {
				rec.dirtyAt[l] = true
			}
			s, err := New(testTiming, clk, rec)
			if err != nil {
				t.Fatal(err)
			}
			rec.sched = s
			s.Start()

			const frames = 3
			clk.Advance(testTiming.FramePeriod() * frames)

			checkCoverage(t, rec.lines, testTiming.VTotal, frames)
			if diff := cmp.Diff([]uint64{0, 1, 2}, rec.frames); diff != "" {
				t.Errorf("frames (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]int{240, 240, 240}, rec.vblanks); diff != "" {
				t.Errorf("vblank lines (-want +got):\n%s", diff)
			}
			if len(rec.latched) != testTiming.VTotal*frames {
				t.Errorf("%d latches, want %d", len(rec.latched), testTiming.VTotal*frames)
			}
		})
	}
}

// Lines are flushed before a latch changes the state.
func TestFlushBeforeLatch(t *testing.T) {
	clk := NewClock()
	rec := newRecorder(t)
	rec.dirtyAt[100] = true
	s, err := New(testTiming, clk, rec)
	if err != nil {
		t.Fatal(err)
	}
	rec.sched = s
	for range 101 {
		s.Tick()
	}
	if diff := cmp.Diff(100, len(rec.lines)); diff != "" {
		t.Errorf("lines drawn at the split (-want +got):\n%s", diff)
	}

	s.Flush()
	s.Flush()
	if got := len(rec.lines); got != 101 {
		t.Errorf("after Flush: %d lines drawn, want 101", got)
	}
	for range testTiming.VTotal - 101 {
		s.Tick()
	}
	checkCoverage(t, rec.lines, testTiming.VTotal, 1)
}

func TestReconfigure(t *testing.T) {
	clk := NewClock()
	rec := newRecorder(t)
	s, err := New(testTiming, clk, rec)
	if err != nil {
		t.Fatal(err)
	}
	rec.sched = s
	s.Start()

	p0 := testTiming.LinePeriod()
	clk.RunUntil(p0*50 + 1) // ticks for lines 0..50
	if s.Line() != 50 {
		t.Fatalf("Line() = %d, want 50", s.Line())
	}

	faster := testTiming
	faster.PixelClock *= 2
	if err := s.Reconfigure(faster); err != nil {
		t.Fatal(err)
	}
	p1 := faster.LinePeriod()
	if p1 != p0/2 {
		t.Fatalf("LinePeriod() = %d, want %d", p1, p0/2)
	}

	next, ok := clk.Next()
	if !ok || next != p0*50+p1 {
		t.Errorf("next tick at %d, want %d", next, p0*50+p1)
	}
	clk.Step()
	if s.Line() != 51 {
		t.Errorf("Line() = %d after reconfigure, want 51", s.Line())
	}

	for s.Frame() == 0 {
		clk.Step()
	}
	checkCoverage(t, rec.lines, testTiming.VTotal, 1)

	bad := testTiming
	bad.VBlankStart = bad.VTotal
	if err := s.Reconfigure(bad); !errors.Is(err, ErrInvalidTiming) {
		t.Errorf("Reconfigure(bad) = %v, want ErrInvalidTiming", err)
	}
}

func TestReconfigureShorter(t *testing.T) {
	clk := NewClock()
	rec := newRecorder(t)
	s, err := New(testTiming, clk, rec)
	if err != nil {
		t.Fatal(err)
	}
	rec.sched = s
	for range 250 {
		s.Tick()
	}

	short := testTiming
	short.VTotal = 248
	if err := s.Reconfigure(short); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{0}, rec.frames); diff != "" {
		t.Errorf("frames (-want +got):\n%s", diff)
	}
	checkCoverage(t, rec.lines, 250, 1)

	rec.lines = nil
	for range short.VTotal {
		s.Tick()
	}
	checkCoverage(t, rec.lines, short.VTotal, 1)
}

func TestTimingValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Timing)
		ok   bool
	}{
		{name: "valid", mod: func(*Timing) {}, ok: true},
		{name: "no clock", mod: func(t *Timing) { t.PixelClock = 0 }},
		{name: "no lines", mod: func(t *Timing) { t.VTotal = 0 }},
		{name: "visible too wide", mod: func(t *Timing) { t.Visible.Max.X = 385 }},
		{name: "visible empty", mod: func(t *Timing) { t.Visible = image.Rectangle{} }},
		{name: "vblank", mod: func(t *Timing) { t.VBlankStart = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := testTiming
			tt.mod(&tm)
			if err := tm.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok %t", err, tt.ok)
			}
		})
	}

	if got := testTiming.LinePeriod(); got != 62_500_000 {
		t.Errorf("LinePeriod() = %d, want 62500000", got)
	}
}
