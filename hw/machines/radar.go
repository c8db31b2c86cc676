package machines

import (
	"fmt"
	"image"
	"math"

	"vidcore/hw/compose"
	"vidcore/hw/gfx"
	"vidcore/hw/palette"
	"vidcore/hw/sched"
)

// Radar Scope pens, after the 256 pens of the color PROM.
const (
	radarBackgroundPen = 256
	radarGridPen       = radarBackgroundPen + 256
	radarStarPen       = radarGridPen + 8
	radarPens          = radarStarPen + 1
)

// size of the star/grid table ROM
const radarTableSize = 0x800

func radarPalette(p *palette.Palette) {
	p.Set(0, radarStarPen, palette.RGB{
		R: palette.RadarscpStarsDAC.Level(1, 0),
		G: palette.RadarscpStarsDAC.Level(0, 1),
		B: palette.RadarscpStarsDAC.Level(0, 2),
	})
	for i := range 256 {
		p.Set(0, radarBackgroundPen+i, palette.RGB{
			R: palette.RadarscpBackgroundDAC.Level(0, 0),
			G: palette.RadarscpBackgroundDAC.Level(0, 1),
			B: palette.RadarscpBackgroundDAC.Level(i, 2),
		})
	}
	for i := range 8 {
		p.Set(0, radarGridPen+i, palette.RGB{
			R: palette.RadarscpGridDAC.Level(i&1, 0),
			G: palette.RadarscpGridDAC.Level(i>>1&1, 1),
			B: palette.RadarscpGridDAC.Level(i>>2&1, 2),
		})
	}
}

// The CD4049 inverters of the blue signal are used as amplifiers, in the
// undefined area of their transfer function (between 1.5V and 3.5V).
const (
	cd4049VL = 1.5 / 5.0
	cd4049VH = 3.5 / 5.0
	cd4049AL = 0.01
)

var (
	cd4049B = (math.Log(-math.Log(cd4049AL)) - math.Log(-math.Log(1-cd4049AL))) / math.Log(cd4049VH/cd4049VL)
	cd4049A = math.Log(-math.Log(cd4049AL)) - cd4049B*math.Log(cd4049VH)
)

func cd4049(x float64) float64 {
	if x > 0 {
		return math.Exp(-cd4049A * math.Pow(x, cd4049B))
	}
	return 1
}

// RC constants of the background circuit.
const (
	radarRC1  = 2.2e3 * 22e-6
	radarRC2  = 10e3 * 33e-6
	radarRC31 = 18e3 * 33e-6
	radarRC32 = (18e3 + 68e3) * 33e-6
	radarRC4  = 90e3 * 0.47e-6
)

// radarLine is the output of the background circuit for one scanline.
type radarLine struct {
	pen   uint16 // background pen (blue level)
	grid  bool
	star  bool
	rflip bool
}

// radar is the analog background of Radar Scope: an oscillating blue level,
// a radar grid and stars. The circuit is stepped once per scanline; the
// star/grid positions come from a table ROM, walked during the frame.
type radar struct {
	table []byte
	seed  uint64
	// noise stars, when the table ROM is missing
	stars *compose.Starfield

	htotal, vtotal int
	visible        image.Rectangle
	dt             float64
	period2        int

	cv1, cv2, vg1, vg2, vg3, cv3, cv4 float64

	lineCnt  int
	pixelCnt int
	sig30Hz  bool
	starFF   bool

	lines   []radarLine
	counter int
}

// newRadar returns the background circuit. A table shorter than
// radarTableSize is an error, bytes past it are ignored.
func newRadar(table []byte, seed uint64, t sched.Timing) (*radar, error) {
	if len(table) > 0 && len(table) < radarTableSize {
		return nil, fmt.Errorf("%w: stars table has %d bytes, want %d",
			gfx.ErrRegionTooSmall, len(table), radarTableSize)
	}
	r := &radar{
		seed:    seed,
		lineCnt: 512 - t.VTotal,
	}
	r.resize(t)
	if len(table) > 0 {
		r.table = table[:radarTableSize]
	} else {
		r.stars = &compose.Starfield{
			Seed:    seed,
			Density: 96,
			Pens:    []uint16{radarStarPen},
			Eligible: func(pen uint16) bool {
				return pen >= radarBackgroundPen && pen < radarGridPen
			},
		}
	}
	return r, nil
}

// resize follows a change of the raster timing. The lines stepped so far
// are kept.
func (r *radar) resize(t sched.Timing) {
	r.htotal = t.HTotal
	r.vtotal = t.VTotal
	r.visible = t.Visible
	r.dt = 1 / 60. / float64(t.VTotal)
	// half period of the star flip-flop, in pixels
	r.period2 = int(t.PixelClock * 33 * 68 / 10000000 / 3)

	lines := make([]radarLine, t.VTotal)
	copy(lines, r.lines)
	r.lines = lines
}

func rcStep(diff, rc, dt float64) float64 {
	return diff - diff*math.Exp(-dt/rc)
}

// step advances the circuit by one scanline.
func (r *radar) step(line int, frame uint64, gridOn, snd02 bool) {
	r.lineCnt++
	if r.lineCnt >= 512 {
		r.lineCnt = 512 - r.vtotal
	}
	// 30Hz noise mixed by the sound board
	if r.lineCnt&0x40 == 0 && (r.lineCnt+1)&0x40 != 0 {
		if compose.LineRand(r.seed, frame, line).Float64() > 0.5 {
			r.sig30Hz = !r.sig30Hz
		}
	}
	rflip := snd02 && r.sig30Hz
	sig := rflip != (r.lineCnt&0x80 != 0)

	if sig {
		r.cv1 += rcStep(0-r.cv1, radarRC1, r.dt)
	} else {
		r.cv1 += rcStep(3.4-r.cv1, radarRC1, r.dt)
	}
	r.cv2 += rcStep(r.cv1-r.cv2-r.vg1, radarRC2, r.dt)
	r.vg1 = (r.cv1-r.cv2)*0.9 + 0.1*r.vg2
	r.vg2 = 5 * cd4049(r.vg1/5)
	vg3i := 0.9*r.vg2 + 0.1*r.vg3
	r.vg3 = 5 * cd4049(vg3i/5)
	blue := r.vg3

	if gridOn {
		r.cv3 += rcStep(0-r.cv3, radarRC32, r.dt)
	} else {
		r.cv3 += rcStep(5-r.cv3, radarRC31, r.dt)
	}
	r.cv4 += rcStep(r.vg2-0.8*r.cv3-r.cv4, radarRC4, r.dt)
	grid := !(cd4049(cd4049(r.vg2-r.cv4)) > 2.4/5)

	r.pixelCnt += r.htotal
	if r.pixelCnt > r.period2 {
		r.starFF = !r.starFF
		r.pixelCnt -= r.period2
	}

	level := min(max(int(blue/5*255), 0), 255)
	r.lines[line] = radarLine{
		pen:   uint16(radarBackgroundPen + level),
		grid:  grid,
		star:  r.starFF,
		rflip: rflip,
	}
}

// draw paints the background under the pixels of the screen bitmap using
// the first pen of their color. Bands must be drawn in raster order.
func (r *radar) draw(dst *gfx.Bitmap, clip image.Rectangle, flip bool, gridColor int, frame uint64) {
	vis := r.visible
	if clip.Min.Y == vis.Min.Y {
		r.counter = 0
	}
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		ln := r.lines[y]
		row := dst.Row(y)
		if r.table == nil {
			for x := vis.Min.X; x < vis.Max.X; x++ {
				if row[x]&3 == 0 {
					row[x] = ln.pen
				}
			}
			continue
		}

		offset := 0x400
		if flip || ln.rflip {
			offset = 0
		}
		at := func(i int) int { return 4 * int(r.table[i|offset]&0x7f) }
		n := len(r.table)

		x := vis.Min.X
		for r.counter < n && x > at(r.counter) {
			r.counter++
		}
		for ; x < vis.Max.X; x++ {
			ok := row[x]&3 == 0
			if r.counter < n && x == at(r.counter) {
				if ok {
					star := r.table[r.counter|offset]&0x80 != 0
					switch {
					case ln.star && star:
						row[x] = radarStarPen
					case ln.grid && !star:
						row[x] = uint16(radarGridPen + gridColor)
					default:
						row[x] = ln.pen
					}
				}
				r.counter++
			} else if ok {
				row[x] = ln.pen
			}
		}
		for r.counter < n && vis.Max.X-1 < at(r.counter) {
			r.counter++
		}
	}
	if r.stars != nil {
		r.stars.Draw(dst, clip.Intersect(vis), frame)
	}
}

func (r *radar) saveState(regs map[string]int64) {
	for name, v := range r.analog() {
		regs["radar_"+name] = int64(math.Float64bits(*v))
	}
	regs["radar_line_cnt"] = int64(r.lineCnt)
	regs["radar_pixel_cnt"] = int64(r.pixelCnt)
	regs["radar_sig30hz"] = b2i(r.sig30Hz)
	regs["radar_star_ff"] = b2i(r.starFF)
	regs["radar_counter"] = int64(r.counter)
}

func (r *radar) loadState(regs map[string]int64) {
	for name, v := range r.analog() {
		*v = math.Float64frombits(uint64(regs["radar_"+name]))
	}
	r.lineCnt = int(regs["radar_line_cnt"])
	r.pixelCnt = int(regs["radar_pixel_cnt"])
	r.sig30Hz = regs["radar_sig30hz"] != 0
	r.starFF = regs["radar_star_ff"] != 0
	r.counter = min(max(int(regs["radar_counter"]), 0), len(r.table))
}

func (r *radar) analog() map[string]*float64 {
	return map[string]*float64{
		"cv1": &r.cv1, "cv2": &r.cv2, "cv3": &r.cv3, "cv4": &r.cv4,
		"vg1": &r.vg1, "vg2": &r.vg2, "vg3": &r.vg3,
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
