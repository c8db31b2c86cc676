package latch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vidcore/hw/snapshot"
)

func TestLastWriteWins(t *testing.T) {
	l := New()
	for n := range 50 {
		l.OnScanlineBoundary(n)
	}

	scroll := Reg{Kind: ScrollX}
	l.Write(scroll, 10, 50)
	l.Write(scroll, 20, 50)
	if got := l.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}

	st := l.OnScanlineBoundary(50)
	if st.ScrollX[0] != 20 {
		t.Errorf("ScrollX[0] = %d, want 20", st.ScrollX[0])
	}

	l.Write(scroll, 30, 51)
	if st.ScrollX[0] != 20 {
		t.Errorf("state of line 50 changed after write: ScrollX[0] = %d, want 20", st.ScrollX[0])
	}
	if got := l.Active().ScrollX[0]; got != 20 {
		t.Errorf("write applied before boundary: ScrollX[0] = %d, want 20", got)
	}
	if got := l.OnScanlineBoundary(51).ScrollX[0]; got != 30 {
		t.Errorf("line 51: ScrollX[0] = %d, want 30", got)
	}
}

func TestApplyAll(t *testing.T) {
	l := New()
	l.Write(Reg{Kind: ScrollX, Index: 2}, 0x123, 0)
	l.Write(Reg{Kind: ScrollY, Index: 1}, 7, 0)
	l.Write(Reg{Kind: PaletteBank}, 1, 0)
	l.Write(Reg{Kind: GfxBank}, 3, 0)
	l.Write(Reg{Kind: Mode, Index: 3}, 0x80, 0)
	l.Write(Reg{Kind: Extra, Index: 5}, 42, 0)
	l.Write(Reg{Kind: Extra, Index: MaxExtra}, 1, 0) // ignored

	want := State{
		Line:        0,
		ScrollX:     [MaxLayers]int{2: 0x123},
		ScrollY:     [MaxLayers]int{1: 7},
		PaletteBank: 1,
		GfxBank:     3,
		Mode:        [MaxLayers]int{3: 0x80},
		Extra:       [MaxExtra]int{5: 42},
		IRQLine:     NoIRQ,
	}
	if diff := cmp.Diff(want, l.OnScanlineBoundary(0)); diff != "" {
		t.Errorf("OnScanlineBoundary(0) mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundaryOrder(t *testing.T) {
	tests := []struct {
		name  string
		lines []int
		panic bool
	}{
		{name: "increasing", lines: []int{0, 1, 2, 3}},
		{name: "gaps", lines: []int{10, 20, 30}},
		{name: "new frame", lines: []int{261, 262, 263, 0, 1}},
		{name: "first call anywhere", lines: []int{100, 101}},
		{name: "twice", lines: []int{4, 5, 5}, panic: true},
		{name: "backwards", lines: []int{4, 5, 3}, panic: true},
		{name: "zero twice", lines: []int{0, 0}, panic: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); (r != nil) != tt.panic {
					t.Errorf("panic = %v, want panic %t", r, tt.panic)
				}
			}()
			l := New()
			for _, n := range tt.lines {
				l.OnScanlineBoundary(n)
			}
		})
	}
}

func TestRasterIRQ(t *testing.T) {
	l := New()
	l.Write(Reg{Kind: IRQLine}, 100, 0)

	frame := func() []int {
		var fired []int
		for n := range 264 {
			if l.OnScanlineBoundary(n).FireIRQ {
				fired = append(fired, n)
			}
		}
		return fired
	}

	if diff := cmp.Diff([]int{100}, frame()); diff != "" {
		t.Errorf("first frame (-want +got):\n%s", diff)
	}
	// Not acknowledged: one-shot.
	if got := frame(); len(got) != 0 {
		t.Errorf("unacknowledged IRQ fired again at %v", got)
	}

	l.Acknowledge()
	if diff := cmp.Diff([]int{100}, frame()); diff != "" {
		t.Errorf("after acknowledge (-want +got):\n%s", diff)
	}

	l.Acknowledge()
	l.DisableIRQ()
	if got := frame(); len(got) != 0 {
		t.Errorf("disabled IRQ fired at %v", got)
	}
}

func TestSaveState(t *testing.T) {
	l := New()
	l.Write(Reg{Kind: IRQLine}, 20, 0)
	l.Write(Reg{Kind: ScrollY, Index: 1}, 33, 0)
	for n := range 10 {
		l.OnScanlineBoundary(n)
	}
	l.Write(Reg{Kind: PaletteBank}, 1, 9)

	st := l.SaveState()
	l2 := New()
	if err := l2.SetState(st); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(st, l2.SaveState()); diff != "" {
		t.Errorf("state round trip (-want +got):\n%s", diff)
	}
	for n := 10; n < 30; n++ {
		want, got := l.OnScanlineBoundary(n), l2.OnScanlineBoundary(n)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("line %d (-want +got):\n%s", n, diff)
		}
	}
}

func TestSetStateInvalid(t *testing.T) {
	tests := []struct {
		name string
		edit func(*snapshot.Latch)
	}{
		{"negative palette bank", func(s *snapshot.Latch) { s.PaletteBank = -1 }},
		{"negative gfx bank", func(s *snapshot.Latch) { s.GfxBank = -2 }},
		{"extra scroll registers", func(s *snapshot.Latch) { s.ScrollX = make([]int, MaxLayers+1) }},
		{"pending write to unknown register", func(s *snapshot.Latch) {
			s.Pending = append(s.Pending, snapshot.Write{Kind: 12})
		}},
		{"pending negative bank", func(s *snapshot.Latch) {
			s.Pending = append(s.Pending, snapshot.Write{Kind: int(GfxBank), Value: -1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			l.Write(Reg{Kind: PaletteBank}, 1, 0)
			l.OnScanlineBoundary(0)
			want := l.SaveState()

			st := l.SaveState()
			tt.edit(st)
			if err := l.SetState(st); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("SetState() error = %v, want %v", err, ErrInvalidState)
			}
			if diff := cmp.Diff(want, l.SaveState()); diff != "" {
				t.Errorf("latch changed by a rejected state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := (Reg{Kind: ScrollX, Index: 2}).String(); got != "ScrollX[2]" {
		t.Errorf("got %q", got)
	}
	if got := (Reg{Kind: PaletteBank}).String(); got != "PaletteBank" {
		t.Errorf("got %q", got)
	}
	if got := Kind(12).String(); got != "Kind(12)" {
		t.Errorf("got %q", got)
	}
}
