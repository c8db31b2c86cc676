package emu

import (
	"crypto/sha1"
	"encoding/hex"
	"image"
)

// Digest is a chained hash of a sequence of frames: each frame is hashed
// along with the digest of the previous ones, so two runs have the same
// digest only if all their frames are identical, in the same order.
type Digest struct {
	sum    [sha1.Size]byte
	frames int
}

// Add adds the visible pixels of a frame to the digest.
func (d *Digest) Add(img *image.RGBA) {
	h := sha1.New()
	h.Write(d.sum[:])
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[off : off+4*b.Dx()])
	}
	h.Sum(d.sum[:0])
	d.frames++
}

func (d *Digest) Sum() [sha1.Size]byte { return d.sum }

// Frames returns the number of frames added to the digest.
func (d *Digest) Frames() int { return d.frames }

func (d *Digest) String() string { return hex.EncodeToString(d.sum[:]) }
