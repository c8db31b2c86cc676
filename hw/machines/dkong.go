package machines

import (
	"errors"
	"image"

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

// Donkey Kong board raster: 6.144 MHz pixel clock, 384x264 total, 256x224
// visible.
var dkongTiming = sched.Timing{
	PixelClock:  6144000,
	HTotal:      384,
	VTotal:      264,
	Visible:     image.Rect(0, 16, 256, 240),
	VBlankStart: 240,
}

const (
	dkongVideoBase  = 0x7400
	dkongSpriteBase = 0x6900
	dkongColorCodes = 0x200 // offset of the color code PROM in the proms region
)

type dkongModel struct {
	name    string
	decoder *palette.StaticDecoder
	regions []Region
	// base of the control latches (flip, NMI mask, palette bank...)
	regBase uint32
	gfxBank bool
	// the gfx bank bit is active low
	gfxBankInverted bool
	radar           bool
}

var dkongModels = []dkongModel{
	{
		name:    "dkong",
		decoder: palette.DkongDecoder,
		regions: dkongRegions(0x1000, 0x2000),
		regBase: 0x7d80,
	},
	{
		name:    "dkongjr",
		decoder: palette.DkongDecoder,
		regions: dkongRegions(0x2000, 0x2000),
		regBase: 0x7d80,
		gfxBank: true,
	},
	{
		name:            "dkong3",
		decoder:         palette.Dkong3Decoder,
		regions:         dkongRegions(0x2000, 0x4000),
		regBase:         0x7e80,
		gfxBank:         true,
		gfxBankInverted: true,
	},
	{
		name:    "radarscp",
		decoder: palette.RadarscpDecoder,
		regions: append(dkongRegions(0x1000, 0x2000), Region{Name: "stars", Size: radarTableSize, Optional: true}),
		regBase: 0x7d80,
		radar:   true,
	},
}

func dkongRegions(tiles, sprites int) []Region {
	return []Region{
		{Name: "tiles", Size: tiles},
		{Name: "sprites", Size: sprites},
		{Name: "proms", Size: 0x300},
	}
}

func init() {
	for i := range dkongModels {
		m := &dkongModels[i]
		register(Desc{
			Name:    m.name,
			Regions: m.regions,
			New: func(regions Regions, cfg Config) (Machine, error) {
				d, err := newDkong(m, regions, cfg)
				if err != nil {
					return nil, err
				}
				return d, nil
			},
		})
	}
}

// 8x8 characters, 2 bitplanes in the two halves of the region.
func dkongCharGfx(size int) gfx.Layout {
	return gfx.Layout{
		Width:        8,
		Height:       8,
		Total:        size * 8 / 2 / 64,
		PlaneOffsets: []int{gfx.Frac(size, 1, 2), 0},
		XOffsets:     []int{0, 1, 2, 3, 4, 5, 6, 7},
		YOffsets:     []int{0 * 8, 1 * 8, 2 * 8, 3 * 8, 4 * 8, 5 * 8, 6 * 8, 7 * 8},
		CharModulo:   8 * 8,
	}
}

// 16x16 sprites: 2 bitplanes in the two halves of the region, the right
// half of each sprite in the second quarter of each half.
func dkongSpriteGfx(size int) gfx.Layout {
	l := gfx.Layout{
		Width:        16,
		Height:       16,
		Total:        size * 8 / 4 / 128,
		PlaneOffsets: []int{gfx.Frac(size, 1, 2), 0},
		CharModulo:   16 * 8,
	}
	for x := range 8 {
		l.XOffsets = append(l.XOffsets, x)
	}
	for x := range 8 {
		l.XOffsets = append(l.XOffsets, gfx.Frac(size, 1, 4)+x)
	}
	for y := range 16 {
		l.YOffsets = append(l.YOffsets, y*8)
	}
	return l
}

// Sprite RAM entries: y, code (bit 7: flip y), attributes (bit 7: flip x,
// bit 6: code bank, bits 0-3: color), x.
var dkongSprites = sprite.Layout{
	Stride:      4,
	Count:       0x180 / 4,
	Enable:      sprite.Byte(0, 0, 0xff),
	Code:        sprite.Byte(1, 0, 0x7f),
	Bank:        sprite.Byte(2, 6, 1),
	BankShift:   7,
	Color:       sprite.Byte(2, 0, 0x0f),
	X:           sprite.Byte(3, 0, 0xff),
	Y:           sprite.Byte(0, 0, 0xff),
	FlipX:       sprite.Byte(2, 7, 1),
	FlipY:       sprite.Byte(1, 7, 1),
	XOffset:     -8,
	YInvert:     247,
	FlipOriginX: 240,
	FlipOriginY: 240,
	WrapX:       256,
}

type dkong struct {
	core
	model *dkongModel

	pal        *palette.Palette
	colorCodes []byte
	tiles      *tilemap.Tilemap
	sprites    *sprite.Compositor
	bg, spr    *gfx.Bitmap
	flip       bool
	radar      *radar

	Video     hwio.Mem    `hwio:"size=0x400,wcb"`
	Sprite    hwio.Mem    `hwio:"size=0x200,vsize=0x180"`
	Status    hwio.Reg8   `hwio:"readonly,rcb"`
	Flip      hwio.Reg8   `hwio:"offset=2,writeonly,wcb"`
	NMIMask   hwio.Reg8   `hwio:"offset=4,writeonly"`
	PalBank   hwio.Device `hwio:"offset=6,size=2,writeonly,wcb"`
	GfxBank   hwio.Reg8   `hwio:"bank=1,offset=1,writeonly,wcb"`
	GridOn    hwio.Reg8   `hwio:"bank=2,offset=1,writeonly"`
	Snd02     hwio.Reg8   `hwio:"bank=2,offset=3,writeonly"`
	GridColor hwio.Reg8   `hwio:"writeonly"`

	palBank uint8 // CPU side value of the palette bank latches
	attract attractState
}

func newDkong(model *dkongModel, regions Regions, cfg Config) (*dkong, error) {
	d := &dkong{model: model}
	hwio.MustInitRegs(d)

	proms := regions["proms"]
	entries, err := model.decoder.Decode(proms)
	if err != nil {
		return nil, err
	}
	d.colorCodes = proms[dkongColorCodes : dkongColorCodes+0x100]

	size := 256
	if model.radar {
		size = radarPens
	}
	d.pal = palette.New(1, size)
	d.pal.SetEntries(entries)
	if model.radar {
		radarPalette(d.pal)
	}

	chars, err := gfx.Decode(dkongCharGfx(len(regions["tiles"])), regions["tiles"])
	if err != nil {
		return nil, err
	}
	sprites, err := gfx.Decode(dkongSpriteGfx(len(regions["sprites"])), regions["sprites"])
	if err != nil {
		return nil, err
	}

	if err := d.init(model.name, cfg, dkongTiming, d.pal, d); err != nil {
		return nil, err
	}

	d.tiles = tilemap.New(tilemap.Config{
		Name:         "bg",
		TileWidth:    8,
		TileHeight:   8,
		Cols:         32,
		Rows:         32,
		Gfx:          chars,
		Opaque:       true,
		ScreenWidth:  dkongTiming.HTotal,
		ScreenHeight: 256,
	}, tilemap.TileInfoFunc(d.tileInfo))
	d.tiles.SetScrollDX(0, 128)

	d.sprites = sprite.NewCompositor(dkongSprites, sprites)
	d.bg = d.layer()
	d.spr = d.layer()

	if model.radar {
		if d.radar, err = newRadar(regions["stars"], cfg.Seed, dkongTiming); err != nil {
			return nil, err
		}
	}

	d.mem.MapMem(dkongVideoBase, &d.Video)
	d.mem.MapMem(dkongSpriteBase, &d.Sprite)
	d.mem.MapReg8(model.regBase-0x80, &d.Status)
	d.mem.MapBank(model.regBase, d, 0)
	if model.gfxBank {
		d.mem.MapBank(model.regBase, d, 1)
	}
	if model.radar {
		d.mem.MapBank(model.regBase, d, 2)
		d.mem.MapReg8(0x7c80, &d.GridColor)
	}
	// the video registers are memory mapped
	d.io = d.mem

	d.addMem("video", &d.Video)
	d.addMem("sprite", &d.Sprite)
	d.start()
	return d, nil
}

// TileInfo of the background: the color code is shared by the 4x1 cell
// groups of a 32x4 PROM.
func (d *dkong) tileInfo(i int) tilemap.TileInfo {
	return tilemap.TileInfo{
		Code:  int(d.Video.Data[i]) + 256*d.state.GfxBank,
		Color: int(d.colorCodes[i%32+32*(i/32/4)]&0x0f) + 0x10*d.state.PaletteBank,
	}
}

func (d *dkong) WriteVIDEO(off uint32, old, val uint8) {
	if old != val {
		d.tiles.MarkDirty(int(off))
	}
}

func (d *dkong) WriteFLIP(_, val uint8) {
	d.write(latch.Mode, 0, int(^val&1))
}

func (d *dkong) WritePALBANK(off uint32, val uint8) {
	hwio.SetBit(&d.palBank, uint(off), hwio.Bit(val, 0))
	d.write(latch.PaletteBank, 0, int(d.palBank))
}

func (d *dkong) WriteGFXBANK(_, val uint8) {
	bank := int(val & 1)
	if d.model.gfxBankInverted {
		bank ^= 1
	}
	d.write(latch.GfxBank, 0, bank)
}

// ReadSTATUS returns the vblank signal in bit 7.
func (d *dkong) ReadSTATUS(uint8, bool) uint8 {
	if d.inVBlank {
		return 0x80
	}
	return 0
}

func (d *dkong) applyLatch(line int, st *latch.State) {
	if flip := st.Mode[0]&1 != 0; flip != d.flip {
		d.flip = flip
		d.setFlip()
	}
	if st.PaletteBank != d.state.PaletteBank || st.GfxBank != d.state.GfxBank {
		d.tiles.MarkAllDirty()
	}
	if d.radar != nil {
		d.radar.step(line, d.sched.Frame(), d.GridOn.Bit(0), d.Snd02.Bit(0))
	}
}

func (d *dkong) setFlip() {
	var f tilemap.Flags
	if d.flip {
		f = tilemap.FlipX | tilemap.FlipY
	}
	d.tiles.SetFlip(f)
}

func (d *dkong) draw(dst *gfx.Bitmap, clip image.Rectangle) {
	d.tiles.Draw(d.bg, clip, tilemap.All)
	d.spr.Fill(clip, gfx.NoPen)
	d.sprites.Draw(d.Sprite.Data, d.spr, clip, sprite.Options{
		Flip:        d.flip,
		ColorOffset: 16 * d.state.PaletteBank,
	})
	d.comp.Compose(dst, clip, 0,
		compose.Layer{Name: "bg", Pixels: d.bg},
		compose.Layer{Name: "sprites", Pixels: d.spr},
	)
	if d.radar != nil {
		d.radar.draw(dst, clip, d.flip, int(d.GridColor.Value&7)^7, d.sched.Frame())
	}
}

func (d *dkong) vblank() {
	if d.NMIMask.Bit(0) {
		d.raise(hwdefs.VBlank, 0)
	}
}

func (d *dkong) resize(t sched.Timing) {
	d.bg = d.layer()
	d.spr = d.layer()
	if d.radar != nil {
		d.radar.resize(t)
	}
}

func (d *dkong) checkState(v *snapshot.Video) error {
	return errors.Join(
		checkRange("palette bank", v.Regs["palette_bank"], 4),
		checkRange("latched palette bank", int64(v.Latch.PaletteBank), 4),
		checkRange("latched gfx bank", int64(v.Latch.GfxBank), 2),
	)
}

func (d *dkong) saveState(v *snapshot.Video) {
	v.Regs["flip"] = int64(d.Flip.Value)
	v.Regs["nmi_mask"] = int64(d.NMIMask.Value)
	v.Regs["palette_bank"] = int64(d.palBank)
	v.Regs["gfx_bank"] = int64(d.GfxBank.Value)
	if d.radar != nil {
		v.Regs["grid_on"] = int64(d.GridOn.Value)
		v.Regs["grid_color"] = int64(d.GridColor.Value)
		v.Regs["snd02"] = int64(d.Snd02.Value)
		d.radar.saveState(v.Regs)
	}
	d.attract.save(v.Regs)
}

func (d *dkong) loadState(v *snapshot.Video) {
	d.Flip.Value = uint8(v.Regs["flip"])
	d.NMIMask.Value = uint8(v.Regs["nmi_mask"])
	d.palBank = uint8(v.Regs["palette_bank"])
	d.GfxBank.Value = uint8(v.Regs["gfx_bank"])
	if d.radar != nil {
		d.GridOn.Value = uint8(v.Regs["grid_on"])
		d.GridColor.Value = uint8(v.Regs["grid_color"])
		d.Snd02.Value = uint8(v.Regs["snd02"])
		d.radar.loadState(v.Regs)
	}
	d.attract.load(v.Regs)

	d.flip = d.state.Mode[0]&1 != 0
	d.setFlip()
	d.tiles.MarkAllDirty()
}
