// Package video implements the screen of a machine: the pen bitmap drawn
// band by band during a frame, and the RGB frame buffer published at the end
// of each frame.
package video

import (
	"image"

	"vidcore/emu/log"
	"vidcore/hw/gfx"
	"vidcore/hw/palette"
	"vidcore/hw/sched"
)

// DrawFunc draws the clip rectangle of the screen bitmap.
type DrawFunc func(dst *gfx.Bitmap, clip image.Rectangle)

// Screen bitmaps cover the whole raster (HTotal x VTotal); only the visible
// area is drawn and output.
type Screen struct {
	timing sched.Timing
	pal    *palette.Palette
	draw   DrawFunc

	pens *gfx.Bitmap
	prev *gfx.Bitmap

	out  *image.RGBA // frame being drawn
	last *image.RGBA // last completed frame

	frames uint64
}

func NewScreen(t sched.Timing, pal *palette.Palette, draw DrawFunc) *Screen {
	s := &Screen{pal: pal, draw: draw}
	s.SetTiming(t)
	return s
}

// SetTiming resizes the screen for a new raster.
func (s *Screen) SetTiming(t sched.Timing) {
	s.timing = t
	if s.pens != nil && s.pens.Width == t.HTotal && s.pens.Height == t.VTotal &&
		s.out.Rect.Size() == t.Visible.Size() {
		return
	}
	s.pens = gfx.NewBitmap(t.HTotal, t.VTotal)
	s.prev = gfx.NewBitmap(t.HTotal, t.VTotal)
	vis := image.Rectangle{Max: t.Visible.Size()}
	s.out = image.NewRGBA(vis)
	s.last = image.NewRGBA(vis)
}

func (s *Screen) Timing() sched.Timing { return s.timing }

// Visible returns the visible area, in raster coordinates.
func (s *Screen) Visible() image.Rectangle { return s.timing.Visible }

// Update draws lines [first, last] of the visible area, and converts them to
// RGB with the palette in its current state.
func (s *Screen) Update(first, last int) {
	clip := image.Rect(s.timing.Visible.Min.X, first, s.timing.Visible.Max.X, last+1).Intersect(s.timing.Visible)
	if clip.Empty() {
		return
	}
	s.draw(s.pens, clip)

	vis := s.timing.Visible.Min
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		src := s.pens.Row(y)[clip.Min.X:clip.Max.X]
		off := s.out.PixOffset(clip.Min.X-vis.X, y-vis.Y)
		dst := s.out.Pix[off : off+4*len(src)]
		for i, pen := range src {
			c := s.pal.Lookup(pen)
			dst[4*i+0] = c.R
			dst[4*i+1] = c.G
			dst[4*i+2] = c.B
			dst[4*i+3] = 0xff
		}
	}
}

// FrameDone publishes the frame drawn so far.
func (s *Screen) FrameDone() {
	s.out, s.last = s.last, s.out
	s.pens, s.prev = s.prev, s.pens
	s.frames++
	log.ModVideo.DebugZ("frame done").Uint64("frames", s.frames).End()
}

// FrameBuffer returns the last completed frame. It is valid until the next
// call to FrameDone.
func (s *Screen) FrameBuffer() *image.RGBA { return s.last }

// Pens returns the pen bitmap of the frame being drawn.
func (s *Screen) Pens() *gfx.Bitmap { return s.pens }

// Previous returns the pen bitmap of the last completed frame.
func (s *Screen) Previous() *gfx.Bitmap { return s.prev }

// Frames returns the number of completed frames.
func (s *Screen) Frames() uint64 { return s.frames }
