package machines

import (
	"vidcore/hw/hwdefs"
	"vidcore/hw/hwio"
)

// attractState is the progress of a scripted attract sequence. Every bus
// write of the script is derived from the frame counter, so a sequence
// resumes identically after a state load.
type attractState struct {
	frame int
}

func (a *attractState) save(regs map[string]int64) {
	regs["attract_frame"] = int64(a.frame)
}

func (a *attractState) load(regs map[string]int64) {
	a.frame = int(regs["attract_frame"])
}

// Attract writes a test pattern to the background, then at each vblank
// moves the sprites, rewrites a row of characters and cycles the palette
// and graphics banks. An irq of 0 starts the sequence.
func (d *dkong) Attract(irq hwdefs.IRQLine) {
	base := d.model.regBase
	switch {
	case irq == 0:
		d.attract = attractState{}
		for i := range 0x400 {
			d.WriteMemory(dkongVideoBase+uint32(i), uint8(i%32+i/32*3))
		}
		for i := range 16 {
			d.attractSprite(i)
		}
		flip := uint8(1)
		if d.cfg.Flip {
			flip = 0
		}
		d.WriteMemory(base+2, flip)
		d.WriteMemory(base+4, 1)
		if d.radar != nil {
			d.WriteMemory(base+1, 1)
			d.WriteMemory(0x7c80, 2)
		}

	case irq&hwdefs.VBlank != 0:
		d.attract.frame++
		f := d.attract.frame
		for i := range 16 {
			d.attractSprite(i)
		}
		row := uint32(f % 32)
		for col := range uint32(32) {
			d.WriteMemory(dkongVideoBase+row*32+col, uint8(int(col)+f))
		}
		d.WriteMemory(base+6, uint8(f>>6&1))
		d.WriteMemory(base+7, uint8(f>>7&1))
		if d.model.gfxBank {
			d.WriteMemory(base+1, uint8(f>>5&1))
		}
		if d.radar != nil {
			d.WriteMemory(base+1, uint8(f>>4&1))
			d.WriteMemory(base+3, uint8(f>>3&1))
			d.WriteMemory(0x7c80, uint8(f>>6))
		}
	}
}

// attractSprite writes sprite i, moving right one pixel per frame and
// wrapping around the line buffer.
func (d *dkong) attractSprite(i int) {
	f := d.attract.frame
	addr := dkongSpriteBase + 4*uint32(i)
	d.WriteMemory(addr+0, uint8(48+12*i))
	d.WriteMemory(addr+1, uint8(i*5&0x7f|(i&1)<<7))
	d.WriteMemory(addr+2, uint8(i&0x0f|(i&2)<<6|(i&4)<<4))
	d.WriteMemory(addr+3, uint8(16*i+f))
}

// M92 attract addresses.
const (
	m92VRAM       = 0xd0000
	m92SpriteRAM  = 0xf8000
	m92PaletteWin = 0xf8800
	m92SpriteCtrl = 0xf9000
	m92VideoCtrl  = 0xf9800

	m92PortPF1    = 0x80
	m92PortPF2    = 0x88
	m92PortPF3    = 0x90
	m92PortMaster = 0x98
)

const m92AttractSprites = 24

// Attract fills both palette halves and the three playfields, and programs
// a raster split. Each vblank scrolls pf1 and pf2, moves the sprites and
// starts a sprite buffer copy; the raster interrupt scrolls pf1 the other
// way below the split.
func (m *m92) Attract(irq hwdefs.IRQLine) {
	switch {
	case irq == 0:
		m.attract = attractState{}
		m.attractSetup()

	case irq&hwdefs.VBlank != 0:
		m.attract.frame++
		f := m.attract.frame
		hwio.Write16(m.io, m92PortPF1+4, uint16(f))
		hwio.Write16(m.io, m92PortPF2+0, uint16(f/2))
		hwio.Write16(m.io, m92PortPF3+0, uint16(-f/4))
		// pf2 blinks every 128 frames
		m.WriteRegister(m92PortMaster+2, uint8(0x01|(f>>7&1)<<4))
		for i := range m92AttractSprites {
			m.attractSprite(i)
		}
		m.WriteMemory(m92SpriteCtrl+8, 0)

	case irq&hwdefs.Raster != 0:
		hwio.Write16(m.io, m92PortPF1+4, uint16(-m.attract.frame))
	}
}

func (m *m92) attractSetup() {
	for bank := range 2 {
		m.WriteMemory(m92VideoCtrl, uint8(bank<<1))
		for i := range 0x400 {
			n := bank*0x400 + i
			r, g, b := n&31, n>>5&31, (n>>3^n)&31
			hwio.Write16(m.mem, m92PaletteWin+2*uint32(i), uint16(b<<10|g<<5|r))
		}
	}
	m.WriteMemory(m92VideoCtrl, 0)

	for cell := range 0x3d00 {
		off := uint32(4 * cell)
		code := cell & 0x1fff
		attr := cell>>4&1 | (cell>>7&3)<<1
		color := cell>>6&0x7f | (cell&8)<<4
		m.WriteMemory(m92VRAM+off+0, uint8(code))
		m.WriteMemory(m92VRAM+off+1, uint8(code>>8))
		m.WriteMemory(m92VRAM+off+2, uint8(color))
		m.WriteMemory(m92VRAM+off+3, uint8(attr))
	}
	// pf3 row scroll: a wave of 32 pixels
	for row := range 512 {
		v := row % 64
		if v >= 32 {
			v = 63 - v
		}
		hwio.Write16(m.mem, m92VRAM+0xfc00+2*uint32(row), uint16(v))
	}

	// pf1 at 0x0000, pf2 at 0x4000, pf3 wide at 0x8000 with row scroll
	m.WriteRegister(m92PortMaster+0, 0x00)
	m.WriteRegister(m92PortMaster+2, 0x01)
	m.WriteRegister(m92PortMaster+4, m92RowScroll|m92Wide|0x02)
	hwio.Write16(m.io, m92PortMaster+6, 256)

	for i := range m92AttractSprites {
		m.attractSprite(i)
	}
	m.WriteMemory(m92SpriteCtrl+0, uint8(0x100-m92AttractSprites))
	m.WriteMemory(m92SpriteCtrl+4, 8)
	m.WriteMemory(m92SpriteCtrl+8, 0)
}

// attractSprite writes entry i of the sprite RAM. Entries with two columns
// use the next entry as their second column.
func (m *m92) attractSprite(i int) {
	f := m.attract.frame
	addr := m92SpriteRAM + 8*uint32(i)
	y := 346 - 9*i
	cells := i & 1 << 9
	if i%4 == 0 {
		cells |= 1 << 11
	}
	x := (96 + 13*i + f) & 0x1ff
	hwio.Write16(m.mem, addr+0, uint16(y&0x1ff|cells))
	hwio.Write16(m.mem, addr+2, uint16(16*i))
	m.WriteMemory(addr+4, uint8(i*5&0x7f|(i&4)<<5))
	m.WriteMemory(addr+5, uint8(i>>3&3))
	hwio.Write16(m.mem, addr+6, uint16(x))
}
