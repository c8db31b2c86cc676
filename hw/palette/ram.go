package palette

import "vidcore/emu/log"

// A Format decodes the raw bytes of a palette RAM entry.
type Format interface {
	Size() int
	Decode(raw []byte) RGB
}

func pal5bit(v uint8) uint8 { return v<<3 | v>>2 }
func pal4bit(v uint8) uint8 { return v<<4 | v }

type xbgr555le struct{}

// XBGR555LE is a 16-bit little-endian xBBBBBGGGGGRRRRR format.
var XBGR555LE Format = xbgr555le{}

func (xbgr555le) Size() int { return 2 }
func (xbgr555le) Decode(raw []byte) RGB {
	v := uint16(raw[0]) | uint16(raw[1])<<8
	return RGB{
		R: pal5bit(uint8(v & 0x1f)),
		G: pal5bit(uint8(v >> 5 & 0x1f)),
		B: pal5bit(uint8(v >> 10 & 0x1f)),
	}
}

type rgb444 struct{}

// RGB444 is a 16-bit big-endian RRRRGGGGBBBBxxxx format.
var RGB444 Format = rgb444{}

func (rgb444) Size() int { return 2 }
func (rgb444) Decode(raw []byte) RGB {
	return RGB{
		R: pal4bit(raw[0] >> 4),
		G: pal4bit(raw[0] & 0xf),
		B: pal4bit(raw[1] >> 4),
	}
}

// WeightedRGB332 is a one byte RRRGGGBB format, each channel converted
// through resistor weights.
type WeightedRGB332 struct{ Weights Weights }

func (WeightedRGB332) Size() int { return 1 }
func (f WeightedRGB332) Decode(raw []byte) RGB {
	return RGB{
		R: f.Weights.Level(int(raw[0]>>5), 0),
		G: f.Weights.Level(int(raw[0]>>2&7), 1),
		B: f.Weights.Level(int(raw[0]&3), 2),
	}
}

// RAM is a writable palette RAM backing a Palette: every bank of the palette
// has its own range of the RAM.
type RAM struct {
	Data   []byte
	Format Format
	pal    *Palette
}

func NewRAM(pal *Palette, f Format) *RAM {
	return &RAM{
		Data:   make([]byte, pal.NumBanks()*pal.Size()*f.Size()),
		Format: f,
		pal:    pal,
	}
}

func (r *RAM) Palette() *Palette { return r.pal }

// Write stores val at off and updates the single palette entry containing
// it, in whichever bank it belongs to.
func (r *RAM) Write(off int, val uint8) Entry {
	r.Data[off] = val
	return r.update(off / r.Format.Size())
}

func (r *RAM) update(idx int) Entry {
	sz := r.Format.Size()
	c := r.Format.Decode(r.Data[idx*sz : (idx+1)*sz])
	bank, pen := idx/r.pal.Size(), idx%r.pal.Size()
	r.pal.Set(bank, pen, c)
	return Entry{Index: uint16(pen), RGB: c}
}

// SetDisplayBank selects the bank used for output.
func (r *RAM) SetDisplayBank(bank int) {
	r.pal.SetDisplayBank(bank)
}

// Rebuild decodes every entry from the raw RAM contents.
func (r *RAM) Rebuild() {
	n := len(r.Data) / r.Format.Size()
	for i := range n {
		r.update(i)
	}
	log.ModPalette.DebugZ("rebuilt palette").Int("entries", n).End()
}
