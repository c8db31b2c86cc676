package sprite

import (
	"image"
	"sort"

	"vidcore/emu/log"
	"vidcore/hw/gfx"
)

// Compositor draws the sprites of a sprite RAM into a layer bitmap.
type Compositor struct {
	Layout   Layout
	Gfx      *gfx.Element
	TransPen int
	// MaskPen, when not -1, restores the pixel of Options.Restore.
	MaskPen int

	order []Record
}

type Options struct {
	Flip bool
	// ColorOffset is added to the color code of every sprite.
	ColorOffset int
	ColorBase   int
	// Count overrides the number of entries of the layout when not zero.
	Count int
	// Restore is the previous frame, for the mask pen.
	Restore *gfx.Bitmap
}

func NewCompositor(l Layout, e *gfx.Element) *Compositor {
	return &Compositor{Layout: l, Gfx: e, MaskPen: -1}
}

// Records decodes the enabled entries of ram in drawing order.
func (c *Compositor) Records(ram []byte, count int) []Record {
	l := &c.Layout
	if count == 0 || count > l.Count {
		count = l.Count
	}
	count = min(count, len(ram)/l.Stride)

	c.order = c.order[:0]
	for i := 0; i < count; {
		r, ok := l.Decode(ram, i)
		if ok {
			c.order = append(c.order, r)
		}
		if ok && l.ConsumeColumns {
			i += r.W
		} else {
			i++
		}
	}

	switch l.Order {
	case Reverse:
		for i, j := 0, len(c.order)-1; i < j; i, j = i+1, j-1 {
			c.order[i], c.order[j] = c.order[j], c.order[i]
		}
	case ByPriority:
		sort.SliceStable(c.order, func(i, j int) bool {
			return c.order[i].Priority < c.order[j].Priority
		})
	}
	return c.order
}

// Draw draws every enabled sprite of ram on dst, within clip. The attribute
// plane of dst, if any, receives the priority class of the sprite. It
// returns the number of sprites drawn.
func (c *Compositor) Draw(ram []byte, dst *gfx.Bitmap, clip image.Rectangle, opts Options) int {
	drawn := 0
	for _, r := range c.Records(ram, opts.Count) {
		if c.drawRecord(r, dst, clip, opts) {
			drawn++
		}
	}
	return drawn
}

func (c *Compositor) drawRecord(r Record, dst *gfx.Bitmap, clip image.Rectangle, opts Options) bool {
	l := &c.Layout
	e := c.Gfx

	last := r.Code + l.CodeStrideX*(r.W-1) + l.CodeStrideY*(r.H-1)
	if !e.Valid(r.Code) || !e.Valid(last) {
		log.ModSprite.DebugZ("sprite code out of range").
			Int("idx", r.Index).
			Int("code", r.Code).
			End()
		return false
	}

	dopts := gfx.DrawOpts{
		TransPen:  c.TransPen,
		ColorBase: opts.ColorBase,
		Attr:      uint8(r.Priority),
		MaskPen:   c.MaskPen,
		Restore:   opts.Restore,
	}
	color := r.Color + opts.ColorOffset

	top := r.Y
	if l.AnchorBottom {
		top = r.Y - e.Height*(r.H-1)
	}

	for cy := range r.H {
		for cx := range r.W {
			jx, iy := cx, cy
			if r.FlipX {
				jx = r.W - 1 - cx
			}
			if r.FlipY {
				iy = r.H - 1 - cy
			}
			code := r.Code + jx*l.CodeStrideX + iy*l.CodeStrideY

			x := r.X + cx*e.Width
			y := top + cy*e.Height
			fx, fy := r.FlipX, r.FlipY
			if opts.Flip {
				x = l.FlipOriginX - x
				y = l.FlipOriginY - y
				fx, fy = !fx, !fy
			}
			c.drawCell(dst, clip, code, color, fx, fy, x, y, dopts)
		}
	}
	return true
}

// drawCell draws one cell and its wraparound copies.
func (c *Compositor) drawCell(dst *gfx.Bitmap, clip image.Rectangle, code, color int, fx, fy bool, x, y int, opts gfx.DrawOpts) {
	l := &c.Layout
	xs := [3]int{x, x - l.WrapX, x + l.WrapX}
	ys := [3]int{y, y - l.WrapY, y + l.WrapY}
	nx, ny := 1, 1
	if l.WrapX != 0 {
		nx = 3
	}
	if l.WrapY != 0 {
		ny = 3
	}
	for _, sy := range ys[:ny] {
		for _, sx := range xs[:nx] {
			gfx.DrawGfx(dst, clip, c.Gfx, code, color, fx, fy, sx, sy, opts)
		}
	}
}
