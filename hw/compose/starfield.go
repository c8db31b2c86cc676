package compose

import (
	"image"
	"math/rand/v2"

	"vidcore/hw/gfx"
)

// LineRand returns the random source of a scanline. The sequence only
// depends on the seed, frame and line, so the output doesn't change with
// the way a frame is split in partial updates.
func LineRand(seed, frame uint64, line int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, frame<<16^uint64(line)))
}

// Starfield scatters noise pixels ("stars") over the screen.
type Starfield struct {
	Seed uint64
	// Density is the average distance between two stars of a line.
	Density int
	// Pens are the star colors, picked at random.
	Pens []uint16
	// Eligible reports whether a star may replace the given pen. A nil
	// Eligible only draws over NoPen.
	Eligible func(pen uint16) bool
}

func (s *Starfield) eligible(pen uint16) bool {
	if s.Eligible == nil {
		return pen == gfx.NoPen
	}
	return s.Eligible(pen)
}

// Draw draws the stars of the clip rectangle. Random numbers are drawn for
// every pixel of a line, inside the clip rectangle or not.
func (s *Starfield) Draw(dst *gfx.Bitmap, clip image.Rectangle, frame uint64) {
	if s.Density <= 0 || len(s.Pens) == 0 {
		return
	}
	clip = clip.Intersect(dst.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		rng := LineRand(s.Seed, frame, y)
		row := dst.Row(y)
		for x := range dst.Width {
			if rng.IntN(s.Density) != 0 {
				continue
			}
			pen := s.Pens[rng.IntN(len(s.Pens))]
			if x >= clip.Min.X && x < clip.Max.X && s.eligible(row[x]) {
				row[x] = pen
			}
		}
	}
}
