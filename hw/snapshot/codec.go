package snapshot

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-faster/jx"
)

var ErrVersion = errors.New("unsupported save state version")

// Marshal encodes the save state as JSON. Byte slices are base64-encoded.
func Marshal(v *Video) []byte {
	var e jx.Encoder
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(v.Version) })
		e.Field("machine", func(e *jx.Encoder) { e.Str(v.Machine) })
		e.Field("frame", func(e *jx.Encoder) { e.UInt64(v.Frame) })
		e.Field("scanline", func(e *jx.Encoder) { e.Int(v.Scanline) })
		e.Field("clock", func(e *jx.Encoder) { e.Int64(v.Clock) })
		e.Field("next_tick", func(e *jx.Encoder) { e.Int64(v.NextTick) })
		e.Field("latch", func(e *jx.Encoder) { encodeLatch(e, &v.Latch) })
		e.Field("palette_ram", func(e *jx.Encoder) { e.Base64(v.PaletteRAM) })
		e.Field("memory", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, k := range sortedKeys(v.Memory) {
					e.Field(k, func(e *jx.Encoder) { e.Base64(v.Memory[k]) })
				}
			})
		})
		e.Field("regs", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, k := range sortedKeys(v.Regs) {
					e.Field(k, func(e *jx.Encoder) { e.Int64(v.Regs[k]) })
				}
			})
		})
	})
	return e.Bytes()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func encodeInts(e *jx.Encoder, s []int) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range s {
			e.Int(v)
		}
	})
}

func encodeLatch(e *jx.Encoder, l *Latch) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("line", func(e *jx.Encoder) { e.Int(l.Line) })
		e.Field("scroll_x", func(e *jx.Encoder) { encodeInts(e, l.ScrollX) })
		e.Field("scroll_y", func(e *jx.Encoder) { encodeInts(e, l.ScrollY) })
		e.Field("palette_bank", func(e *jx.Encoder) { e.Int(l.PaletteBank) })
		e.Field("gfx_bank", func(e *jx.Encoder) { e.Int(l.GfxBank) })
		e.Field("mode", func(e *jx.Encoder) { encodeInts(e, l.Mode) })
		e.Field("extra", func(e *jx.Encoder) { encodeInts(e, l.Extra) })
		e.Field("irq_line", func(e *jx.Encoder) { e.Int(l.IRQLine) })
		e.Field("fire_irq", func(e *jx.Encoder) { e.Bool(l.FireIRQ) })
		e.Field("pending", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, w := range l.Pending {
					encodeInts(e, []int{w.Kind, w.Index, w.Value})
				}
			})
		})
		e.Field("last", func(e *jx.Encoder) { e.Int(l.Last) })
		e.Field("irq_armed", func(e *jx.Encoder) { e.Bool(l.IRQArmed) })
	})
}

// Unmarshal decodes a save state produced by Marshal.
func Unmarshal(data []byte) (*Video, error) {
	v := &Video{
		Memory: make(map[string][]byte),
		Regs:   make(map[string]int64),
	}
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			v.Version, err = d.Int()
		case "machine":
			v.Machine, err = d.Str()
		case "frame":
			v.Frame, err = d.UInt64()
		case "scanline":
			v.Scanline, err = d.Int()
		case "clock":
			v.Clock, err = d.Int64()
		case "next_tick":
			v.NextTick, err = d.Int64()
		case "latch":
			err = decodeLatch(d, &v.Latch)
		case "palette_ram":
			v.PaletteRAM, err = d.Base64()
		case "memory":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				buf, err := d.Base64()
				v.Memory[key] = buf
				return err
			})
		case "regs":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				n, err := d.Int64()
				v.Regs[key] = n
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode save state: %w", err)
	}
	if v.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v.Version)
	}
	return v, nil
}

func decodeInts(d *jx.Decoder) ([]int, error) {
	s := []int{}
	err := d.Arr(func(d *jx.Decoder) error {
		n, err := d.Int()
		s = append(s, n)
		return err
	})
	return s, err
}

func decodeLatch(d *jx.Decoder, l *Latch) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "line":
			l.Line, err = d.Int()
		case "scroll_x":
			l.ScrollX, err = decodeInts(d)
		case "scroll_y":
			l.ScrollY, err = decodeInts(d)
		case "palette_bank":
			l.PaletteBank, err = d.Int()
		case "gfx_bank":
			l.GfxBank, err = d.Int()
		case "mode":
			l.Mode, err = decodeInts(d)
		case "extra":
			l.Extra, err = decodeInts(d)
		case "irq_line":
			l.IRQLine, err = d.Int()
		case "fire_irq":
			l.FireIRQ, err = d.Bool()
		case "pending":
			l.Pending = []Write{}
			err = d.Arr(func(d *jx.Decoder) error {
				w, err := decodeInts(d)
				if err != nil {
					return err
				}
				if len(w) != 3 {
					return fmt.Errorf("invalid pending write %v", w)
				}
				l.Pending = append(l.Pending, Write{Kind: w[0], Index: w[1], Value: w[2]})
				return nil
			})
		case "last":
			l.Last, err = d.Int()
		case "irq_armed":
			l.IRQArmed, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}
