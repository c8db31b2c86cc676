package machines

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strconv"

	"vidcore/emu/log"
	"vidcore/hw/compose"
	"vidcore/hw/gfx"
	"vidcore/hw/hwdefs"
	"vidcore/hw/hwio"
	"vidcore/hw/latch"
	"vidcore/hw/palette"
	"vidcore/hw/sched"
	"vidcore/hw/snapshot"
	"vidcore/hw/sprite"
	"vidcore/hw/tilemap"
)

// Irem M92 raster: 512x512 total, 320x240 visible. The raster interrupt
// register holds a line of this raster.
var m92Timing = sched.Timing{
	PixelClock:  15728640,
	HTotal:      512,
	VTotal:      512,
	Visible:     image.Rect(80, 136, 400, 376),
	VBlankStart: 376,
}

// Interrupt vectors placed on the bus by the interrupt controller.
const (
	m92VBlankVector = 0x20
	m92SpriteVector = 0x21
	m92RasterVector = 0x22
)

// The sprite buffer copies one word per 37ns pixel clock cycle.
const m92SpriteDMATime = 37 * 0x400 * sched.TicksPerSecond / 1_000_000_000

// Master control bits of a playfield.
const (
	m92Disable   = 0x10
	m92RowScroll = 0x40
	m92Wide      = 0x04
	m92VRAMPtr   = 0x03
)

func init() {
	register(Desc{
		Name: "m92",
		Regions: []Region{
			{Name: "tiles", Size: 0x40000},
			{Name: "sprites", Size: 0x80000},
		},
		New: func(regions Regions, cfg Config) (Machine, error) {
			m, err := newM92(regions, cfg)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	})
}

// 4bpp layouts, one bitplane per quarter of the region.
func m92TileGfx(size int) gfx.Layout {
	return gfx.Layout{
		Width:        8,
		Height:       8,
		Total:        size / 4 * 8 / 64,
		PlaneOffsets: []int{gfx.Frac(size, 3, 4), gfx.Frac(size, 2, 4), gfx.Frac(size, 1, 4), 0},
		XOffsets:     []int{0, 1, 2, 3, 4, 5, 6, 7},
		YOffsets:     []int{0 * 8, 1 * 8, 2 * 8, 3 * 8, 4 * 8, 5 * 8, 6 * 8, 7 * 8},
		CharModulo:   8 * 8,
	}
}

func m92SpriteGfx(size int) gfx.Layout {
	l := gfx.Layout{
		Width:        16,
		Height:       16,
		Total:        size / 4 * 8 / 256,
		PlaneOffsets: []int{gfx.Frac(size, 3, 4), gfx.Frac(size, 2, 4), gfx.Frac(size, 1, 4), 0},
		CharModulo:   32 * 8,
	}
	for x := range 8 {
		l.XOffsets = append(l.XOffsets, x)
	}
	for x := range 8 {
		l.XOffsets = append(l.XOffsets, 16*8+x)
	}
	for y := range 16 {
		l.YOffsets = append(l.YOffsets, y*8)
	}
	return l
}

// Sprite entries are 4 little-endian words: y and cell counts, code,
// color/priority and flips, x. Multi-cell sprites take one entry per
// column.
var m92Sprites = sprite.Layout{
	Stride:         8,
	Count:          0x800 / 8,
	Y:              sprite.Word(0, 0, 0x1ff),
	YCells:         sprite.Word(0, 9, 3),
	XCells:         sprite.Word(0, 11, 3),
	Code:           sprite.Word(2, 0, 0xffff),
	Color:          sprite.Byte(4, 0, 0x7f),
	Priority:       sprite.Byte(4, 7, 1),
	PriorityMap:    []int{1, 0},
	FlipX:          sprite.Byte(5, 0, 1),
	FlipY:          sprite.Byte(5, 1, 1),
	X:              sprite.Word(6, 0, 0x1ff),
	XOffset:        -16,
	YInvert:        496,
	CodeStrideX:    8,
	CodeStrideY:    1,
	AnchorBottom:   true,
	ConsumeColumns: true,
	FlipOriginX:    496,
	FlipOriginY:    496,
	Order:          sprite.Reverse,
}

// Priority class 1 sprites are hidden by the front half of the playfields.
var m92SpriteMasks = []uint32{0, 1 << 1}

// Transparency masks of the split types, for pf1/pf2 and for pf3.
var (
	m92Splits = []tilemap.Split{
		{Front: 0xffff, Back: 0x0001},
		{Front: 0x00ff, Back: 0xff01},
		{Front: 0x0001, Back: 0xffff},
	}
	m92Pf3Splits = []tilemap.Split{
		{Front: 0xffff, Back: 0x0000},
		{Front: 0x00ff, Back: 0xff00},
		{Front: 0x0001, Back: 0xfffe},
	}
)

// m92Playfield is one of the three playfields: a 64x64 map, and for pf1 and
// pf3 a 128x64 map used instead when the wide shape is selected.
type m92Playfield struct {
	idx    int
	normal *tilemap.Tilemap
	wide   *tilemap.Tilemap

	ctrl [8]uint8 // scroll control bytes, as written by the CPU

	// latched master control
	mode      int
	ptr       int
	enabled   bool
	rowScroll bool
	shape     bool

	// row scroll table in VRAM, and horizontal stagger
	rowBase   int
	stagger   int
	staggerFl int

	back, front *gfx.Bitmap
}

func (pf *m92Playfield) active() *tilemap.Tilemap {
	if pf.shape && pf.wide != nil {
		return pf.wide
	}
	return pf.normal
}

func (pf *m92Playfield) maps() []*tilemap.Tilemap {
	if pf.wide == nil {
		return []*tilemap.Tilemap{pf.normal}
	}
	return []*tilemap.Tilemap{pf.normal, pf.wide}
}

type m92 struct {
	core

	pal     *palette.Palette
	palRAM  *palette.RAM
	tileGfx *gfx.Element
	pf      [3]*m92Playfield
	sprites *sprite.Compositor
	spr     *gfx.Bitmap
	dma     *sched.Event

	spriteExtent uint8
	spriteList   int // bytes of the sprite buffer drawn
	paletteBank  int // upper palette half selected for CPU access

	// memory space
	VRAM      hwio.Mem    `hwio:"offset=0xd0000,size=0x10000,wcb"`
	Sprite    hwio.Mem    `hwio:"offset=0xf8000,size=0x800"`
	PalWin    hwio.Device `hwio:"offset=0xf8800,size=0x800,rcb,wcb"`
	SprCtrl   hwio.Device `hwio:"offset=0xf9000,size=0x10,wcb"`
	VidCtrl   hwio.Device `hwio:"offset=0xf9800,size=2,wcb"`
	SpriteBuf hwio.Mem    `hwio:"size=0x800"`

	// I/O space
	Busy   hwio.Reg8   `hwio:"bank=1,offset=0x02,readonly,reset=0x80"`
	PF1    hwio.Device `hwio:"bank=1,offset=0x80,size=8,wcb"`
	PF2    hwio.Device `hwio:"bank=1,offset=0x88,size=8,wcb"`
	PF3    hwio.Device `hwio:"bank=1,offset=0x90,size=8,wcb"`
	Master hwio.Device `hwio:"bank=1,offset=0x98,size=8,wcb"`

	master  [8]uint8
	attract attractState
}

func newM92(regions Regions, cfg Config) (*m92, error) {
	m := &m92{spriteList: 0x800}
	hwio.MustInitRegs(m)

	tiles, err := gfx.Decode(m92TileGfx(len(regions["tiles"])), regions["tiles"])
	if err != nil {
		return nil, err
	}
	sprites, err := gfx.Decode(m92SpriteGfx(len(regions["sprites"])), regions["sprites"])
	if err != nil {
		return nil, err
	}
	m.tileGfx = tiles

	m.pal = palette.New(1, 2048)
	m.palRAM = palette.NewRAM(m.pal, palette.XBGR555LE)

	if err := m.init("m92", cfg, m92Timing, m.pal, m); err != nil {
		return nil, err
	}
	m.rasterVector = m92RasterVector

	stagger := [3][2]int{{0, -25}, {2, -27}, {4, -29}}
	for i := range m.pf {
		pf := &m92Playfield{
			idx:       i,
			rowBase:   0xf400 + 0x400*i,
			stagger:   stagger[i][0],
			staggerFl: stagger[i][1],
			back:      m.layer(),
			front:     m.layer(),
		}
		splits := m92Splits
		if i == 2 {
			splits = m92Pf3Splits
		}
		pf.normal = m.newPlayfieldMap(pf, 64, splits)
		if i != 1 {
			pf.wide = m.newPlayfieldMap(pf, 128, splits)
		}
		m.pf[i] = pf
		m.setMode(pf, 0, true)
	}

	m.sprites = sprite.NewCompositor(m92Sprites, sprites)
	m.spr = m.layer().WithAttr()

	var flip tilemap.Flags
	if cfg.Flip {
		flip = tilemap.FlipX | tilemap.FlipY
	}
	for _, pf := range m.pf {
		for _, t := range pf.maps() {
			t.SetFlip(flip)
		}
	}

	m.mem.MapBank(0, m, 0)
	m.io.MapBank(0, m, 1)

	m.addMem("vram", &m.VRAM)
	m.addMem("sprite", &m.Sprite)
	m.addMem("sprite_buffer", &m.SpriteBuf)
	m.start()
	return m, nil
}

func (m *m92) newPlayfieldMap(pf *m92Playfield, cols int, splits []tilemap.Split) *tilemap.Tilemap {
	name := [3]string{"pf1", "pf2", "pf3"}[pf.idx]
	if cols > 64 {
		name += "_wide"
	}
	return tilemap.New(tilemap.Config{
		Name:         name,
		TileWidth:    8,
		TileHeight:   8,
		Cols:         cols,
		Rows:         64,
		Gfx:          m.tileGfx,
		Split:        splits,
		ScreenWidth:  m92Timing.HTotal,
		ScreenHeight: m92Timing.VTotal,
	}, tilemap.TileInfoFunc(func(i int) tilemap.TileInfo {
		return m.tileInfo(pf, i)
	}))
}

// tileInfo decodes the 4 bytes of a cell: code (16 bits, plus bit 7 of the
// last byte), color and split bit, flips and priority.
func (m *m92) tileInfo(pf *m92Playfield, i int) tilemap.TileInfo {
	off := (4*i + pf.ptr) & 0xffff
	b := m.VRAM.Data[off : off+4]
	ti := tilemap.TileInfo{
		Code:  int(b[0]) | int(b[1])<<8 | int(b[3]&0x80)<<9,
		Color: int(b[2] & 0x7f),
		Flags: tilemap.Flags(hwio.Bits(b[3], 1, 2)),
	}
	switch {
	case hwio.Bit(b[3], 0) && pf.idx != 2:
		ti.Split = 2
	case hwio.Bit(b[2], 7):
		ti.Split = 1
	}
	return ti
}

// WriteVRAM marks the cells of every playfield map located at off.
func (m *m92) WriteVRAM(off uint32, old, val uint8) {
	if old == val {
		return
	}
	for _, pf := range m.pf {
		rel := (int(off) - pf.ptr) & 0xffff
		if rel < 0x4000 {
			pf.normal.MarkDirty(rel / 4)
		}
		if pf.wide != nil && rel < 0x8000 {
			pf.wide.MarkDirty(rel / 4)
		}
	}
}

func (m *m92) ReadPALWIN(off uint32, _ bool) uint8 {
	return m.palRAM.Data[int(off)+0x800*m.paletteBank]
}

// WritePALWIN writes palette RAM. Palette entries are not latched: the
// lines before the raster are drawn first, with the old colors.
func (m *m92) WritePALWIN(off uint32, val uint8) {
	m.sched.Flush()
	e := m.palRAM.Write(int(off)+0x800*m.paletteBank, val)
	log.ModPalette.DebugZ("palette write").
		Hex16("off", uint16(off)).
		Int("bank", m.paletteBank).
		Int("pen", int(e.Index)).
		Stringer("rgb", e.RGB).
		End()
}

// WriteVIDCTRL selects the palette half accessed through the CPU window.
func (m *m92) WriteVIDCTRL(off uint32, val uint8) {
	if off == 0 {
		m.paletteBank = int(hwio.Bits(val, 1, 1))
	}
}

func (m *m92) WriteSPRCTRL(off uint32, val uint8) {
	switch off {
	case 0:
		m.spriteExtent = val
	case 4:
		if val == 8 {
			m.spriteList = int(uint8(0-m.spriteExtent)) * 8
		} else {
			m.spriteList = 0x800
		}
	case 8:
		// the written value is ignored
		copy(m.SpriteBuf.Data, m.Sprite.Data)
		m.Busy.Value = 0
		if m.dma != nil {
			m.dma.Cancel()
		}
		m.dma = m.clock.Schedule(m92SpriteDMATime, m.spriteDMADone)
	}
}

func (m *m92) spriteDMADone() {
	m.dma = nil
	m.Busy.Value = 0x80
	m.raise(hwdefs.Sprite, m92SpriteVector)
}

// writeCtrl stores a scroll control byte of a playfield and latches the
// resulting scroll value.
func (m *m92) writeCtrl(pf *m92Playfield, off uint32, val uint8) {
	pf.ctrl[off] = val
	switch off {
	case 0, 1:
		m.write(latch.ScrollY, pf.idx, int(pf.ctrl[1])<<8|int(pf.ctrl[0]))
	case 4, 5:
		m.write(latch.ScrollX, pf.idx, int(pf.ctrl[5])<<8|int(pf.ctrl[4]))
	}
}

func (m *m92) WritePF1(off uint32, val uint8) { m.writeCtrl(m.pf[0], off, val) }
func (m *m92) WritePF2(off uint32, val uint8) { m.writeCtrl(m.pf[1], off, val) }
func (m *m92) WritePF3(off uint32, val uint8) { m.writeCtrl(m.pf[2], off, val) }

func (m *m92) WriteMASTER(off uint32, val uint8) {
	m.master[off] = val
	switch off {
	case 0, 2, 4:
		m.write(latch.Mode, int(off/2), int(val))
	case 6, 7:
		m.write(latch.IRQLine, 0, int(m.master[7])<<8|int(m.master[6]))
	}
}

// setMode applies the master control byte of a playfield.
func (m *m92) setMode(pf *m92Playfield, mode int, force bool) {
	if mode == pf.mode && !force {
		return
	}
	pf.mode = mode
	pf.enabled = mode&m92Disable == 0
	pf.rowScroll = mode&m92RowScroll != 0
	pf.shape = mode&m92Wide != 0 && pf.wide != nil

	if ptr := (mode & m92VRAMPtr) * 0x4000; ptr != pf.ptr {
		pf.ptr = ptr
		for _, t := range pf.maps() {
			t.MarkAllDirty()
		}
	}
	pf.normal.SetEnable(pf.enabled && !pf.shape)
	if pf.wide != nil {
		pf.wide.SetEnable(pf.enabled && pf.shape)
	}
}

func (m *m92) applyLatch(_ int, st *latch.State) {
	for i, pf := range m.pf {
		m.setMode(pf, st.Mode[i], false)
	}
}

// updateScroll sets the scroll values of the playfields from the latched
// registers, or from the row scroll tables of VRAM.
func (m *m92) updateScroll() {
	for i, pf := range m.pf {
		off := pf.stagger
		if m.cfg.Flip {
			off = pf.staggerFl
		}
		for _, t := range pf.maps() {
			wide := 0
			if t == pf.wide {
				wide = 256
			}
			if pf.rowScroll {
				t.SetScrollRows(512)
				for row := range 512 {
					a := pf.rowBase + 2*row
					v := int(m.VRAM.Data[a]) | int(m.VRAM.Data[a+1])<<8
					t.SetScrollX(row, v-off+wide)
				}
			} else {
				t.SetScrollRows(1)
				t.SetScrollX(0, m.state.ScrollX[i]-off+wide)
			}
			t.SetScrollY(0, m.state.ScrollY[i])
		}
	}
}

func (m *m92) draw(dst *gfx.Bitmap, clip image.Rectangle) {
	m.updateScroll()
	for _, pf := range m.pf {
		t := pf.active()
		t.Draw(pf.back, clip, tilemap.Back)
		t.Draw(pf.front, clip, tilemap.Front)
	}

	m.spr.Fill(clip, gfx.NoPen)
	if m.spriteList > 0 {
		m.sprites.Draw(m.SpriteBuf.Data, m.spr, clip, sprite.Options{
			Flip:  m.cfg.Flip,
			Count: m.spriteList / m92Sprites.Stride,
		})
	}

	pf1, pf2, pf3 := m.pf[0], m.pf[1], m.pf[2]
	m.comp.Compose(dst, clip, 0,
		compose.Layer{Name: "pf3 back", Pixels: pf3.back},
		compose.Layer{Name: "pf3 front", Pixels: pf3.front, Priority: 1},
		compose.Layer{Name: "pf2 back", Pixels: pf2.back},
		compose.Layer{Name: "pf2 front", Pixels: pf2.front, Priority: 1},
		compose.Layer{Name: "pf1 back", Pixels: pf1.back},
		compose.Layer{Name: "pf1 front", Pixels: pf1.front, Priority: 1},
		compose.Layer{Name: "sprites", Pixels: m.spr, Masks: m92SpriteMasks},
	)
}

func (m *m92) vblank() {
	m.raise(hwdefs.VBlank, m92VBlankVector)
}

func (m *m92) saveState(v *snapshot.Video) {
	v.PaletteRAM = bytes.Clone(m.palRAM.Data)
	for i, pf := range m.pf {
		for j, b := range pf.ctrl {
			v.Regs[ctrlReg(i, j)] = int64(b)
		}
	}
	for j, b := range m.master {
		v.Regs[ctrlReg(3, j)] = int64(b)
	}
	v.Regs["sprite_extent"] = int64(m.spriteExtent)
	v.Regs["sprite_list"] = int64(m.spriteList)
	v.Regs["sprite_busy"] = int64(m.Busy.Value)
	v.Regs["palette_bank"] = int64(m.paletteBank)
	v.Regs["dma_due"] = -1
	if m.dma != nil && m.dma.Pending() {
		v.Regs["dma_due"] = m.dma.When()
	}
	m.attract.save(v.Regs)
}

func (m *m92) resize(sched.Timing) {
	for _, pf := range m.pf {
		pf.back = m.layer()
		pf.front = m.layer()
	}
	m.spr = m.layer().WithAttr()
}

func (m *m92) checkState(v *snapshot.Video) error {
	err := errors.Join(
		checkRange("palette bank", v.Regs["palette_bank"], 2),
		checkRange("sprite list", v.Regs["sprite_list"], int64(len(m.SpriteBuf.Data))+1),
	)
	if len(v.PaletteRAM) != len(m.palRAM.Data) {
		err = errors.Join(err, fmt.Errorf("palette RAM has %d bytes, want %d", len(v.PaletteRAM), len(m.palRAM.Data)))
	}
	return err
}

func (m *m92) loadState(v *snapshot.Video) {
	copy(m.palRAM.Data, v.PaletteRAM)
	m.palRAM.Rebuild()
	for i, pf := range m.pf {
		for j := range pf.ctrl {
			pf.ctrl[j] = uint8(v.Regs[ctrlReg(i, j)])
		}
	}
	for j := range m.master {
		m.master[j] = uint8(v.Regs[ctrlReg(3, j)])
	}
	m.spriteExtent = uint8(v.Regs["sprite_extent"])
	m.spriteList = int(v.Regs["sprite_list"])
	m.Busy.Value = uint8(v.Regs["sprite_busy"])
	m.paletteBank = int(v.Regs["palette_bank"])

	// the clock was reset: pending events are gone
	m.dma = nil
	if due := v.Regs["dma_due"]; due >= 0 {
		m.dma = m.clock.ScheduleAt(due, m.spriteDMADone)
	}
	m.attract.load(v.Regs)

	for i, pf := range m.pf {
		m.setMode(pf, m.state.Mode[i], true)
		for _, t := range pf.maps() {
			t.MarkAllDirty()
		}
	}
}

func ctrlReg(layer, i int) string {
	return [4]string{"pf1_ctrl", "pf2_ctrl", "pf3_ctrl", "master"}[layer] + strconv.Itoa(i)
}
