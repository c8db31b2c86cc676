package video

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vidcore/hw/gfx"
	"vidcore/hw/palette"
	"vidcore/hw/sched"
)

var timing = sched.Timing{
	PixelClock:  1_000_000,
	HTotal:      12,
	VTotal:      10,
	Visible:     image.Rect(2, 1, 10, 8),
	VBlankStart: 8,
}

func TestScreenUpdate(t *testing.T) {
	pal := palette.New(2, 4)
	pal.Set(0, 1, palette.RGB{R: 10})
	pal.Set(1, 1, palette.RGB{G: 20})

	var clips []image.Rectangle
	scr := NewScreen(timing, pal, func(dst *gfx.Bitmap, clip image.Rectangle) {
		clips = append(clips, clip)
		dst.Fill(clip, 1)
	})

	scr.Update(0, 3)
	pal.SetDisplayBank(1)
	scr.Update(4, 9)
	scr.FrameDone()

	want := []image.Rectangle{
		image.Rect(2, 1, 10, 4),
		image.Rect(2, 4, 10, 8),
	}
	if diff := cmp.Diff(want, clips); diff != "" {
		t.Errorf("draw clips (-want +got):\n%s", diff)
	}

	fb := scr.FrameBuffer()
	if got := fb.Bounds(); got != image.Rect(0, 0, 8, 7) {
		t.Fatalf("frame buffer bounds = %v", got)
	}
	for y := range 7 {
		want := color.RGBA{R: 10, A: 0xff}
		if y >= 3 {
			want = color.RGBA{G: 20, A: 0xff}
		}
		for x := range 8 {
			if got := fb.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if scr.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", scr.Frames())
	}
	if scr.Previous().At(5, 5) != 1 {
		t.Errorf("previous frame pen = %d, want 1", scr.Previous().At(5, 5))
	}
}

func TestScreenOutsideVisible(t *testing.T) {
	called := false
	scr := NewScreen(timing, palette.New(1, 4), func(*gfx.Bitmap, image.Rectangle) { called = true })
	scr.Update(8, 9)
	scr.Update(0, 0)
	if called {
		t.Errorf("draw called outside of the visible area")
	}
}
