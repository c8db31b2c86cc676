package gfx

import "image"

// DrawOpts controls how DrawGfx writes pixels.
type DrawOpts struct {
	// TransPen is the pen (before color offset) that is never drawn, or -1.
	TransPen int
	// ColorBase is added to every pen, after the color code offset.
	ColorBase int
	// Attr is stored in the attribute plane of dst for every drawn pixel.
	Attr uint8

	// MaskPen, when not -1, is a pen that restores the pixel of Restore
	// instead of being drawn.
	MaskPen int
	Restore *Bitmap
}

// DefaultOpts draws with pen 0 transparent.
var DefaultOpts = DrawOpts{TransPen: 0, MaskPen: -1}

// DrawGfx draws element code of e at (sx, sy) on dst, within clip. The
// output pen is ColorBase + color*Granularity + pen. It returns the number of
// pixels written.
func DrawGfx(dst *Bitmap, clip image.Rectangle, e *Element, code, color int, flipx, flipy bool, sx, sy int, opts DrawOpts) int {
	clip = clip.Intersect(dst.Bounds())
	r := image.Rect(sx, sy, sx+e.Width, sy+e.Height).Intersect(clip)
	if r.Empty() {
		return 0
	}
	if opts.TransPen >= 0 && e.Transparent(code, uint8(opts.TransPen)) {
		return 0
	}

	base := uint16(opts.ColorBase + color*e.Granularity)
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		ey := y - sy
		if flipy {
			ey = e.Height - 1 - ey
		}
		src := e.Row(code, ey)
		off := y * dst.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			ex := x - sx
			if flipx {
				ex = e.Width - 1 - ex
			}
			pen := int(src[ex])
			switch {
			case pen == opts.TransPen:
				continue
			case pen == opts.MaskPen && opts.Restore != nil:
				dst.Pix[off+x] = opts.Restore.Pix[y*opts.Restore.Width+x]
			default:
				dst.Pix[off+x] = base + uint16(pen)
			}
			if dst.Attr != nil {
				dst.Attr[off+x] = opts.Attr
			}
			n++
		}
	}
	return n
}
