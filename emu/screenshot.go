package emu

import (
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Scale returns a copy of img, upscaled by an integer factor with the
// nearest neighbour, so that pixels stay sharp.
func Scale(img *image.RGBA, factor int) *image.RGBA {
	factor = max(factor, 1)
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SaveAsPNG writes img in a png file.
func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
