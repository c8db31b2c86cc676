package hwio_test

import (
	"bytes"
	"testing"

	"vidcore/hw/hwio"
)

type openbus struct{}

func (ob *openbus) Read8(addr uint32, peek bool) uint8 {
	if peek {
		return 0xD4
	}
	return 0xD3
}
func (ob *openbus) Write8(addr uint32, val uint8) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// mapped to $0000-$07FF, mirrored up to $1FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000,wcb"`

	// $2000
	Reg0 hwio.Reg8 `hwio:"bank=1,offset=0x0,reset=0x77"`
	// $2001
	Reg1 hwio.Reg8 `hwio:"bank=1,offset=0x1,romask=0xF0,rcb,reset=0x99"`
	// $2002
	Reg2 hwio.Reg8 `hwio:"bank=1,offset=0x2,romask=0xF0,readonly,pcb=PeekReg2"`

	// $4000-$40FF
	DefaultDev hwio.Device `hwio:"bank=2,offset=0x0,size=0x100"`
	// $4100-$41FF
	DEV hwio.Device `hwio:"bank=2,offset=0x100,size=0x100,rcb,wcb"`
	// $4200-$42FF
	RoDEV hwio.Device `hwio:"bank=2,offset=0x200,size=0x100,rcb,readonly"`
	// $4300-$43FF
	WoDEV hwio.Device `hwio:"bank=2,offset=0x300,size=0x100,wcb,writeonly"`

	devval  uint8
	ramOffs []uint32
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x0000, tbl, 0)
	tbl.Bus.MapBank(0x2000, tbl, 1)
	tbl.Bus.MapBank(0x4000, tbl, 2)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

func (tbl *testTable) WriteRAM(off uint32, old, val uint8) {
	tbl.ramOffs = append(tbl.ramOffs, off)
}

// $2001
func (tbl *testTable) ReadREG1(val uint8, peek bool) uint8 { return val + 1 }

// $2002
func (tbl *testTable) PeekReg2(val uint8) uint8 { return 0x12 }

// $4100-41FF
func (tbl *testTable) ReadDEV(off uint32, peek bool) uint8 {
	if peek {
		return 0
	}
	return 0xE1
}
func (tbl *testTable) WriteDEV(off uint32, val uint8) { tbl.devval = uint8(off) & val }

// $4200-42FF
func (tbl *testTable) ReadRODEV(off uint32, peek bool) uint8 {
	if peek {
		return 0xC8
	}
	return 0xC5
}

// $4300-43FF
func (tbl *testTable) WriteWODEV(off uint32, val uint8) { tbl.devval = uint8(off) & ^val }

func (tbl *testTable) wantRead8(addr uint32, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) Write8(addr uint32, val uint8) {
	tbl.Bus.Write8(addr, val)
}

func (tbl *testTable) wantPeek8(addr uint32, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantRead8(0x1800, 0x12)

	tbl.Write8(0x0805, 0x34)
	tbl.wantRead8(0x0005, 0x34)
	if len(tbl.ramOffs) != 2 || tbl.ramOffs[0] != 0 || tbl.ramOffs[1] != 5 {
		t.Errorf("write callback offsets = %v, want [0 5]", tbl.ramOffs)
	}
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x2000, 0x77)

	// Reg1
	tbl.wantRead8(0x2001, 0x9a)
	tbl.Write8(0x2001, 0xff)
	tbl.wantRead8(0x2001, 0xa0)
	tbl.Write8(0x2001, 0xF0)
	tbl.wantRead8(0x2001, 0x91)
	tbl.Write8(0x2001, 0x0F)
	tbl.wantRead8(0x2001, 0xa0)

	// Reg2
	tbl.wantRead8(0x2002, 0x00)
	tbl.wantPeek8(0x2002, 0x12)
	tbl.Write8(0x2002, 0x9b)
	tbl.wantRead8(0x2002, 0x00)
	tbl.wantPeek8(0x2002, 0x12)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)
	tbl.wantRead8(0x2020, 0xd3)
	tbl.wantPeek8(0x2020, 0xd4)

	tbl.Bus.Unmapped = nil
	tbl.wantRead8(0x2020, 0)
}

func TestTableMapMemorySlice(t *testing.T) {
	tbl := newTestTable(t)

	rom := bytes.Repeat([]byte("\x12\x34"), 0x100)
	tbl.Bus.MapMemorySlice(0x3000, 0x31FF, rom, true)

	tbl.wantRead8(0x3000, 0x12)
	tbl.wantRead8(0x3001, 0x34)
	tbl.wantRead8(0x31FF, 0x34)
	tbl.wantRead8(0x3200, 0xd3)

	tbl.Write8(0x3000, 0xff) // readonly
	tbl.wantRead8(0x3000, 0x12)
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x4000, 0xff)
	tbl.wantRead8(0x4000, 0x00)
	tbl.wantPeek8(0x4000, 0x00)

	tbl.wantRead8(0x4100, 0xe1)
	tbl.wantPeek8(0x4100, 0x00)
	tbl.Write8(0x4120, 0x27)
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4200, 0xc5)
	tbl.wantPeek8(0x4200, 0xc8)
	tbl.Write8(0x4200, 0xff) // readonly
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4300, 0x00) // writeonly
	tbl.wantPeek8(0x4300, 0x00)
	tbl.Write8(0x4355, 0x0f)
	if tbl.devval != 0x50 {
		t.Errorf("devval = %02X, want 0x50", tbl.devval)
	}
}

func TestUnmapBank(t *testing.T) {
	t.Run("hwio.Mem", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Write8(0x40, 0x12)
		tbl.Bus.UnmapBank(0x0000, tbl, 0)
		tbl.wantRead8(0x40, 0xd3)
		tbl.wantPeek8(0x40, 0xd4)
	})
	t.Run("hwio.Reg8", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead8(0x2001, 0x9a)
		tbl.Bus.UnmapBank(0x2000, tbl, 1)
		tbl.wantRead8(0x2001, 0xd3)
		tbl.wantPeek8(0x2001, 0xd4)
	})
	t.Run("hwio.Device", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead8(0x417F, 0xE1)
		tbl.Bus.UnmapBank(0x4000, tbl, 2)
		tbl.wantRead8(0x417F, 0xd3)
		tbl.wantPeek8(0x417F, 0xd4)
	})
}

func TestUnmap(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Write8(0x40, 0x12)
		tbl.wantRead8(0x40, 0x12)
		tbl.Bus.Unmap(0x0000, 0x003F)
		tbl.wantRead8(0x00, 0xd3)
		tbl.wantRead8(0x40, 0x12)
	})
	t.Run("full", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x0000, 0x1FFF)
		tbl.wantRead8(0x40, 0xd3)
		tbl.wantRead8(0x2000, 0x77)
	})
	t.Run("overshoot", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x0000, 0x2000)
		tbl.wantRead8(0x2000, 0xD3)
		tbl.wantPeek8(0x2001, 0x99)
	})
	t.Run("hole", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Write8(0x10, 0x55)
		tbl.Write8(0x30, 0x66)
		tbl.Bus.Unmap(0x0020, 0x002F)
		tbl.wantRead8(0x10, 0x55)
		tbl.wantRead8(0x20, 0xd3)
		tbl.wantRead8(0x30, 0x66)
	})
	t.Run("multiple", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x4001, 0x42FF)
		tbl.wantRead8(0x4002, 0xD3)
		tbl.wantRead8(0x4104, 0xD3)
		tbl.wantRead8(0x4206, 0xD3)
		tbl.wantPeek8(0x4300, 0x00)
	})
}

func TestRemap(t *testing.T) {
	tbl := newTestTable(t)

	// A register mapped over the middle of the RAM splits it.
	var r hwio.Reg8
	r.Value = 0xAB
	tbl.Write8(0x100, 0x11)
	tbl.Write8(0x102, 0x22)
	tbl.Bus.MapReg8(0x101, &r)
	tbl.wantRead8(0x100, 0x11)
	tbl.wantRead8(0x101, 0xAB)
	tbl.wantRead8(0x102, 0x22)
}

func TestReadWrite16(t *testing.T) {
	tbl := newTestTable(t)

	hwio.Write16(tbl.Bus, 0x10, 0xBEEF)
	tbl.wantRead8(0x10, 0xEF)
	tbl.wantRead8(0x11, 0xBE)
	if got := hwio.Read16(tbl.Bus, 0x10); got != 0xBEEF {
		t.Errorf("Read16 = %04X, want BEEF", got)
	}
}
