package hwio

import "vidcore/emu/log"

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear memory area that can be mapped into a Table. The buffer
// size must be a power of 2; when the virtual size is bigger, the buffer is
// mirrored over the whole virtual range.
type Mem struct {
	Name  string   // name of the memory area (for debugging)
	Data  []byte   // actual memory buffer
	VSize int      // virtual size of the memory (can be bigger than physical size)
	Flags MemFlags // flags determining how the memory can be accessed

	// WriteCb, when set, is called after a successful write with the offset
	// of the written byte within Data, its previous and its new value.
	WriteCb func(off uint32, old, val uint8)
}

func (m *Mem) mask() uint32 {
	if len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return uint32(len(m.Data) - 1)
}

type memIO struct {
	mem  *Mem
	base uint32
	mask uint32
}

func newMemIO(m *Mem, base uint32) *memIO {
	return &memIO{mem: m, base: base, mask: m.mask()}
}

func (m *memIO) Read8(addr uint32, _ bool) uint8 {
	return m.mem.Data[(addr-m.base)&m.mask]
}

func (m *memIO) Write8(addr uint32, val uint8) {
	switch {
	case m.mem.Flags&MemFlag8ReadOnly != 0:
		if m.mem.Flags&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("Write8 to readonly memory").
				String("name", m.mem.Name).
				Hex8("val", val).
				Hex32("addr", addr).
				End()
		}
		return
	}

	off := (addr - m.base) & m.mask
	old := m.mem.Data[off]
	m.mem.Data[off] = val
	if m.mem.WriteCb != nil {
		m.mem.WriteCb(off, old, val)
	}
}
