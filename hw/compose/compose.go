// Package compose merges the layer bitmaps of a machine into its screen
// bitmap.
package compose

import (
	"image"

	"vidcore/hw/gfx"
)

// Layer is a bitmap taking part in the composition. Where a layer pixel is
// drawn, Priority is ORed into the priority buffer. A pixel is hidden when
// bit acc of its mask is set, acc being the value of the priority buffer
// accumulated by the layers drawn before.
type Layer struct {
	Name     string
	Pixels   *gfx.Bitmap
	Priority uint8
	Mask     uint32
	// Masks, when set, replaces Mask with a per-pixel mask indexed by the
	// attribute plane of Pixels (the priority class of sprite layers).
	Masks []uint32

	Disabled bool
}

func (l *Layer) mask(i int) uint32 {
	if l.Masks != nil && l.Pixels.Attr != nil {
		a := int(l.Pixels.Attr[i])
		if a < len(l.Masks) {
			return l.Masks[a]
		}
	}
	return l.Mask
}

// Compositor holds the priority buffer of a screen.
type Compositor struct {
	pri []uint8
}

func New(w, h int) *Compositor {
	return &Compositor{pri: make([]uint8, w*h)}
}

// Priority returns the priority buffer value at pixel i, as accumulated by
// the last Compose call.
func (c *Compositor) Priority(i int) uint8 { return c.pri[i] }

// Compose draws the layers, in order, on dst within clip. Pixels not covered
// by any layer get the background pen. All bitmaps must have the size of
// dst.
func (c *Compositor) Compose(dst *gfx.Bitmap, clip image.Rectangle, background uint16, layers ...Layer) {
	clip = clip.Intersect(dst.Bounds())
	if len(c.pri) < len(dst.Pix) {
		c.pri = make([]uint8, len(dst.Pix))
	}
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		lo, hi := y*dst.Width+clip.Min.X, y*dst.Width+clip.Max.X
		for i := lo; i < hi; i++ {
			dst.Pix[i] = background
		}
		clear(c.pri[lo:hi])
	}

	for li := range layers {
		l := &layers[li]
		if l.Disabled {
			continue
		}
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			lo, hi := y*dst.Width+clip.Min.X, y*dst.Width+clip.Max.X
			src := l.Pixels.Pix
			for i := lo; i < hi; i++ {
				pen := src[i]
				if pen == gfx.NoPen {
					continue
				}
				if (1<<(c.pri[i]&31))&l.mask(i) != 0 {
					continue
				}
				dst.Pix[i] = pen
				c.pri[i] |= l.Priority
			}
		}
	}
}

// Overlay is an effect drawn over the composed screen.
type Overlay interface {
	Draw(dst *gfx.Bitmap, clip image.Rectangle, frame uint64)
}
