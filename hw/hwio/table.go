package hwio

import (
	"fmt"
	"sort"

	"vidcore/emu/log"
)

// log unmapped accesses (useful for debugging but verbose since many video
// chips leave holes in their register map)
const logUnmapped = false

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint32, peek bool) uint8
	Write8(addr uint32, val uint8)
}

func Write16(b BankIO8, addr uint32, val uint16) {
	lo := uint8(val & 0xff)
	hi := uint8(val >> 8)
	b.Write8(addr, lo)
	b.Write8(addr+1, hi)
}

func Read16(b BankIO8, addr uint32) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

// span is a mapped address range, end is inclusive.
type span struct {
	begin, end uint32
	io         BankIO8
}

// Table is an address decoder. Address ranges are kept sorted and never
// overlap: mapping over an existing range replaces the overlapped part.
type Table struct {
	Name string

	// Unmapped, if set, receives the accesses to unmapped addresses.
	Unmapped BankIO8

	spans []span
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.spans = t.spans[:0]
}

// Map a register bank (that is, a structure containing mulitple Reg8, Mem or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.VSize)-1)
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr, size uint32, io BankIO8) {
	if size == 0 {
		panic(fmt.Errorf("%s: mapping empty range at %08x", t.Name, addr))
	}
	end := addr + size - 1
	if end < addr {
		panic(fmt.Errorf("%s: range overflow at %08x (size %x)", t.Name, addr, size))
	}
	t.Unmap(addr, end)

	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].begin > end })
	t.spans = append(t.spans, span{})
	copy(t.spans[i+1:], t.spans[i:])
	t.spans[i] = span{begin: addr, end: end, io: io}
}

func (t *Table) MapReg8(addr uint32, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint32, dev *Device) {
	t.mapBus8(addr, uint32(dev.Size), deviceIO{dev: dev, base: addr})
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex32("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	if mem.VSize == 0 {
		mem.VSize = len(mem.Data)
	}
	t.mapBus8(addr, uint32(mem.VSize), newMemIO(mem, addr))
}

func (t *Table) MapMemorySlice(addr, end uint32, mem []uint8, readonly bool) {
	log.ModHwIo.DebugZ("mapping slice").
		Hex32("addr", addr).
		Hex32("end", end).
		String("bus", t.Name).
		Bool("ro", readonly).
		End()

	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  mem,
		Flags: flags,
		VSize: int(end - addr + 1),
	})
}

// Unmap removes the [begin, end] range, splitting partially covered ranges.
func (t *Table) Unmap(begin, end uint32) {
	out := t.spans[:0:0]
	for _, s := range t.spans {
		if s.end < begin || s.begin > end {
			out = append(out, s)
			continue
		}
		if s.begin < begin {
			out = append(out, span{begin: s.begin, end: begin - 1, io: s.io})
		}
		if s.end > end {
			out = append(out, span{begin: end + 1, end: s.end, io: s.io})
		}
	}
	t.spans = out
}

func (t *Table) search(addr uint32) BankIO8 {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].end >= addr })
	if i < len(t.spans) && t.spans[i].begin <= addr {
		return t.spans[i].io
	}
	return nil
}

// Read8 searches in the table for the device mapped at the given address and
// forward the read to it.
func (t *Table) Read8(addr uint32, peek bool) uint8 {
	io := t.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex32("addr", addr).
				End()
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint32) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint32, val uint8) {
	io := t.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
			return
		}
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}
