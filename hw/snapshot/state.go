package snapshot

// Version of the save state format.
const Version = 1

// Video is the save state of a machine video core. Only raw memory,
// registers and counters are kept: every cache (decoded palette, tilemap
// pixels) is rebuilt on load.
type Video struct {
	Version int
	Machine string

	Frame    uint64
	Scanline int
	Clock    int64
	// NextTick is the master clock time of the next scanline tick.
	NextTick int64

	Latch      Latch
	PaletteRAM []byte

	// Memory holds the machine memory regions, by name.
	Memory map[string][]byte
	// Regs holds the machine registers that are not latched, by name.
	Regs map[string]int64
}

type Latch struct {
	Line        int
	ScrollX     []int
	ScrollY     []int
	PaletteBank int
	GfxBank     int
	Mode        []int
	Extra       []int
	IRQLine     int
	FireIRQ     bool

	Pending  []Write
	Last     int
	IRQArmed bool
}

// Write is a register write waiting for the next scanline boundary.
type Write struct {
	Kind  int
	Index int
	Value int
}
