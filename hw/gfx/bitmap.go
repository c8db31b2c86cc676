package gfx

import "image"

// NoPen marks a transparent pixel in layer bitmaps.
const NoPen = 0xFFFF

// Bitmap is a grid of palette pens. Attr optionally carries one attribute
// byte per pixel (a priority class for sprite layers).
type Bitmap struct {
	Width, Height int
	Pix           []uint16
	Attr          []uint8
}

func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{Width: w, Height: h, Pix: make([]uint16, w*h)}
}

// WithAttr allocates the attribute plane.
func (b *Bitmap) WithAttr() *Bitmap {
	b.Attr = make([]uint8, len(b.Pix))
	return b
}

func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

func (b *Bitmap) Row(y int) []uint16 {
	return b.Pix[y*b.Width : (y+1)*b.Width]
}

func (b *Bitmap) At(x, y int) uint16 {
	return b.Pix[y*b.Width+x]
}

func (b *Bitmap) Set(x, y int, pen uint16) {
	b.Pix[y*b.Width+x] = pen
}

// Fill sets every pixel of the clip rectangle to pen (and clears the
// attribute plane there).
func (b *Bitmap) Fill(clip image.Rectangle, pen uint16) {
	clip = clip.Intersect(b.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		row := b.Pix[y*b.Width+clip.Min.X : y*b.Width+clip.Max.X]
		for i := range row {
			row[i] = pen
		}
		if b.Attr != nil {
			clear(b.Attr[y*b.Width+clip.Min.X : y*b.Width+clip.Max.X])
		}
	}
}

// CopyRect copies the clip rectangle of src (same size) into b.
func (b *Bitmap) CopyRect(src *Bitmap, clip image.Rectangle) {
	clip = clip.Intersect(b.Bounds()).Intersect(src.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		copy(b.Pix[y*b.Width+clip.Min.X:y*b.Width+clip.Max.X], src.Pix[y*src.Width+clip.Min.X:])
	}
}
