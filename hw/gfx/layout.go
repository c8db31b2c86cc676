package gfx

import (
	"errors"
	"fmt"
	"slices"

	"vidcore/emu/log"
)

var (
	ErrMissingGraphicsRegion = errors.New("missing graphics region")
	ErrRegionTooSmall        = errors.New("graphics region too small")
)

// Layout describes how the pixels of a graphics element are packed in a ROM
// region. All offsets are expressed in bits; bit 0 is the MSB of the first
// byte of the region.
type Layout struct {
	Width, Height int
	// Total is the number of elements in the region. Zero means as many as
	// fit in the region.
	Total int

	PlaneOffsets []int // first plane is the most significant bit of the pen
	XOffsets     []int
	YOffsets     []int
	CharModulo   int // distance between two consecutive elements
}

// Frac returns the bit offset located at num/den of a region of the given
// length in bytes, for layouts whose planes are split across the region.
func Frac(regionLen, num, den int) int {
	return regionLen * 8 / den * num
}

func (l *Layout) maxOffset() int {
	max := 0
	for _, p := range l.PlaneOffsets {
		for _, y := range l.YOffsets[:l.Height] {
			for _, x := range l.XOffsets[:l.Width] {
				if o := p + y + x; o > max {
					max = o
				}
			}
		}
	}
	return max
}

func readbit(src []byte, bitnum int) bool {
	return src[bitnum/8]&(0x80>>(bitnum%8)) != 0
}

// Element is a set of decoded graphics elements (tiles or sprite cells),
// one byte per pixel.
type Element struct {
	Width, Height int
	Count         int

	// Granularity is the number of pens of a color code.
	Granularity int

	pix []uint8
	// pen of each element drawn with a single pen, -1 for the others
	solid []int16
}

// Decode unpacks all elements of region according to the layout.
func Decode(l Layout, region []byte) (*Element, error) {
	if len(region) == 0 {
		return nil, ErrMissingGraphicsRegion
	}
	if len(l.XOffsets) < l.Width || len(l.YOffsets) < l.Height || len(l.PlaneOffsets) == 0 {
		return nil, fmt.Errorf("invalid layout %dx%d: %d x offsets, %d y offsets, %d planes",
			l.Width, l.Height, len(l.XOffsets), len(l.YOffsets), len(l.PlaneOffsets))
	}

	total := l.Total
	maxoff := l.maxOffset()
	if total == 0 {
		if l.CharModulo == 0 {
			total = 1
		} else {
			total = (len(region)*8-maxoff-1)/l.CharModulo + 1
		}
	}
	if need := (total-1)*l.CharModulo + maxoff + 1; need > len(region)*8 {
		return nil, fmt.Errorf("%w: %d elements need %d bytes, have %d",
			ErrRegionTooSmall, total, (need+7)/8, len(region))
	}

	planes := len(l.PlaneOffsets)
	e := &Element{
		Width:       l.Width,
		Height:      l.Height,
		Count:       total,
		Granularity: 1 << planes,
		pix:         make([]uint8, total*l.Width*l.Height),
		solid:       make([]int16, total),
	}

	for c := range total {
		base := c * l.CharModulo
		dst := e.pix[c*l.Width*l.Height:]
		e.solid[c] = -1
		for y := range l.Height {
			for x := range l.Width {
				var pen uint8
				for p, poff := range l.PlaneOffsets {
					if readbit(region, base+poff+l.YOffsets[y]+l.XOffsets[x]) {
						pen |= 1 << (planes - 1 - p)
					}
				}
				dst[y*l.Width+x] = pen
			}
		}
		if px := dst[:l.Width*l.Height]; !slices.ContainsFunc(px, func(p uint8) bool { return p != px[0] }) {
			e.solid[c] = int16(px[0])
		}
	}

	log.ModVideo.DebugZ("decoded graphics").
		Int("count", total).
		Int("w", l.Width).
		Int("h", l.Height).
		Int("planes", planes).
		End()
	return e, nil
}

// Valid reports whether code addresses an existing element.
func (e *Element) Valid(code int) bool {
	return code >= 0 && code < e.Count
}

// Pixel returns the pen at (x, y) of the element.
func (e *Element) Pixel(code, x, y int) uint8 {
	return e.pix[(code*e.Height+y)*e.Width+x]
}

// Row returns the pens of line y of the element.
func (e *Element) Row(code, y int) []uint8 {
	off := (code*e.Height + y) * e.Width
	return e.pix[off : off+e.Width]
}

// Transparent reports whether every pixel of the element uses pen.
func (e *Element) Transparent(code int, pen uint8) bool {
	return e.solid[code] == int16(pen)
}
