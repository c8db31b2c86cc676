package palette

import (
	"errors"
	"fmt"
	"image/color"

	"vidcore/emu/log"
)

var ErrInvalidPromSize = errors.New("invalid PROM size")

type RGB struct{ R, G, B uint8 }

func (c RGB) Color() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Entry is a decoded palette color.
type Entry struct {
	Index uint16
	RGB   RGB
}

// Palette is a banked color table. Pens are looked up in the displayed bank.
type Palette struct {
	size    int
	banks   [][]RGB
	display int
}

func New(banks, size int) *Palette {
	p := &Palette{size: size, banks: make([][]RGB, banks)}
	for i := range p.banks {
		p.banks[i] = make([]RGB, size)
	}
	return p
}

// Size is the number of entries of each bank.
func (p *Palette) Size() int { return p.size }

func (p *Palette) NumBanks() int { return len(p.banks) }

func (p *Palette) Set(bank, idx int, c RGB) {
	p.banks[bank][idx] = c
}

func (p *Palette) Get(bank, idx int) RGB {
	return p.banks[bank][idx]
}

// SetEntries stores a list of decoded entries in bank 0.
func (p *Palette) SetEntries(entries []Entry) {
	for _, e := range entries {
		p.banks[0][e.Index] = e.RGB
	}
}

func (p *Palette) DisplayBank() int { return p.display }

func (p *Palette) SetDisplayBank(bank int) {
	if bank != p.display {
		log.ModPalette.DebugZ("display bank").Int("bank", bank).End()
	}
	p.display = bank
}

// Lookup returns the color of pen in the displayed bank. Pens out of the
// palette are black.
func (p *Palette) Lookup(pen uint16) RGB {
	if int(pen) >= p.size {
		return RGB{}
	}
	return p.banks[p.display][pen]
}

// Source selects (prom[i+Offset] >> Shift) & Mask and places it at bit Pos
// of a channel value.
type Source struct {
	Offset int
	Shift  uint
	Mask   uint8
	Pos    uint
}

// Channel assembles a channel value from one or more PROM bytes, which
// supports encodings where a channel is split across PROM ranges.
type Channel []Source

func (c Channel) value(prom []byte, i int) int {
	v := 0
	for _, s := range c {
		v |= int((prom[i+s.Offset]>>s.Shift)&s.Mask) << s.Pos
	}
	return v
}

func (c Channel) extent() int {
	n := 0
	for _, s := range c {
		n = max(n, s.Offset)
	}
	return n
}

// StaticDecoder decodes a color PROM at startup.
type StaticDecoder struct {
	Entries  int
	MinSize  int // minimum PROM length, including extra tables
	Channels [3]Channel
	Conv     Converter
}

func (d *StaticDecoder) Decode(prom []byte) ([]Entry, error) {
	need := d.MinSize
	for _, c := range d.Channels {
		need = max(need, d.Entries+c.extent())
	}
	if len(prom) < need {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrInvalidPromSize, len(prom), need)
	}

	entries := make([]Entry, d.Entries)
	for i := range entries {
		entries[i] = Entry{
			Index: uint16(i),
			RGB: RGB{
				R: d.Conv.Level(d.Channels[0].value(prom, i), 0),
				G: d.Conv.Level(d.Channels[1].value(prom, i), 1),
				B: d.Conv.Level(d.Channels[2].value(prom, i), 2),
			},
		}
	}
	log.ModPalette.DebugZ("decoded PROM").Int("entries", d.Entries).Int("size", len(prom)).End()
	return entries, nil
}

// Decoders of the Donkey Kong board family: two 256x4 PROMs, the first one
// holding the low bits.
var (
	DkongDecoder = &StaticDecoder{
		Entries: 256,
		MinSize: 0x300,
		Channels: [3]Channel{
			{{Offset: 256, Shift: 1, Mask: 7}},
			{{Offset: 256, Mask: 1, Pos: 2}, {Shift: 2, Mask: 3}},
			{{Mask: 3}},
		},
		Conv: DkongDAC,
	}

	RadarscpDecoder = &StaticDecoder{
		Entries:  256,
		MinSize:  0x300,
		Channels: DkongDecoder.Channels,
		Conv:     RadarscpDAC,
	}

	Dkong3Decoder = &StaticDecoder{
		Entries: 256,
		MinSize: 0x300,
		Channels: [3]Channel{
			{{Shift: 4, Mask: 0xf}},
			{{Mask: 0xf}},
			{{Offset: 256, Mask: 0xf}},
		},
		Conv: Dkong3DAC,
	}
)
