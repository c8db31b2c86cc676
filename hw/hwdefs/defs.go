package hwdefs

import "strings"

// IRQLine identifies the video interrupt sources raised towards the CPU.
type IRQLine uint8

const (
	VBlank IRQLine = 1 << iota
	Raster
	Sprite
	Collision

	numLines = 4
)

var irqLineNames = [numLines]string{
	"vblank",
	"raster",
	"sprite",
	"collision",
}

func (irq IRQLine) String() string {
	var names []string
	for i := range numLines {
		if irq&(1<<i) != 0 {
			names = append(names, irqLineNames[i])
		}
	}
	return strings.Join(names, "|")
}

// InterruptFunc is the callback a machine invokes to signal an interrupt to
// the CPU, along with the vector placed on the bus (0 when the CPU does not
// use one).
type InterruptFunc func(line IRQLine, vector uint8)
