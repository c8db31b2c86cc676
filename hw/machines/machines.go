// Package machines contains the video hardware of the emulated boards, built
// from the generic components of the hw packages.
package machines

import (
	"errors"
	"fmt"
	"image"
	"maps"
	"math/rand/v2"
	"slices"

	"vidcore/emu/log"
	"vidcore/hw/gfx"
	"vidcore/hw/hwdefs"
	"vidcore/hw/sched"
	"vidcore/hw/snapshot"
	"vidcore/hw/video"
)

var (
	ErrUnknownMachine = errors.New("unknown machine")
	ErrStateMismatch  = errors.New("save state does not match machine")
)

// Regions holds the ROM regions of a machine, by name.
type Regions map[string][]byte

// Config holds the settings of a machine instance.
type Config struct {
	// Flip is the flip screen setting of the boards where it is wired to a
	// dip switch.
	Flip bool
	// Seed initializes the noise sources of the board.
	Seed uint64
	// Interrupt receives the interrupts raised by the video hardware.
	Interrupt hwdefs.InterruptFunc
}

// Machine is the video hardware of one board. A Machine is not safe for
// concurrent use; distinct machines share no state.
type Machine interface {
	Name() string

	// WriteMemory and WriteRegister are the CPU bus entry points, for the
	// memory and I/O address spaces.
	WriteMemory(addr uint32, val uint8)
	WriteRegister(addr uint32, val uint8)
	ReadRegister(addr uint32) uint8

	// FrameBuffer returns the last completed frame.
	FrameBuffer() *image.RGBA
	Screen() *video.Screen
	Clock() *sched.Clock
	Scheduler() *sched.Scheduler

	// RunFrame runs the clock until the current frame is complete.
	RunFrame()
	// Reconfigure changes the raster timing, from the next scanline on.
	Reconfigure(t sched.Timing) error

	// Acknowledge is called by the CPU side once an interrupt was taken.
	Acknowledge(irq hwdefs.IRQLine)
	// Attract plays the part of the game program in the interrupt handler:
	// it performs the bus writes of a scripted attract mode.
	Attract(irq hwdefs.IRQLine)

	State() *snapshot.Video
	LoadState(v *snapshot.Video) error

	// AddLogContext adds the machine name and raster position to log
	// entries, see log.AddContext.
	AddLogContext(z *log.EntryZ)
}

// Region describes a ROM region needed by a machine.
type Region struct {
	Name     string
	Size     int
	Optional bool
}

// Desc describes a machine of the registry.
type Desc struct {
	Name    string
	Regions []Region
	New     func(regions Regions, cfg Config) (Machine, error)
}

// Synthetic returns regions of the right sizes filled with noise, for
// running a machine without its ROMs.
func (d Desc) Synthetic(seed uint64) Regions {
	rng := rand.New(rand.NewPCG(seed, uint64(len(d.Name))))
	r := make(Regions, len(d.Regions))
	for _, reg := range d.Regions {
		b := make([]byte, reg.Size)
		for i := range b {
			b[i] = uint8(rng.Uint32())
		}
		r[reg.Name] = b
	}
	return r
}

// All is the registry of the supported machines.
var All = map[string]Desc{}

func register(d Desc) {
	if _, ok := All[d.Name]; ok {
		panic(fmt.Sprintf("machine %q registered twice", d.Name))
	}
	All[d.Name] = d
}

// Names returns the names of the registered machines, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(All))
}

// New creates an instance of the named machine.
func New(name string, regions Regions, cfg Config) (Machine, error) {
	d, ok := All[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMachine, name)
	}
	for _, r := range d.Regions {
		if r.Optional {
			continue
		}
		if len(regions[r.Name]) == 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, gfx.ErrMissingGraphicsRegion, r.Name)
		}
	}
	m, err := d.New(regions, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
