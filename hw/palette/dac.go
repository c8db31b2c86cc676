package palette

// A Converter turns the raw value of a color channel (0: red, 1: green,
// 2: blue) into an 8-bit intensity.
type Converter interface {
	Level(val, ch int) uint8
}

// Weights is a resistor-weighted converter: each set bit of the channel
// value contributes its weight, the sum is clamped to 255.
type Weights [3][]int

func (w Weights) Level(val, ch int) uint8 {
	sum := 0
	for i, wt := range w[ch] {
		if val>>i&1 != 0 {
			sum += wt
		}
	}
	return uint8(min(max(sum, 0), 255))
}

// DACChannel describes the resistor network of one output channel. R lists
// the resistors from bit 0 upwards, a zero resistor is not connected.
type DACChannel struct {
	MinOut float64
	Cut    float64
	VBias  float64
	RBias  float64
	RGnd   float64
	R      []float64
}

// DAC models the resistor network found between color PROMs and the RGB
// output: the voltage of the network is computed from the channel value,
// then inverted against Vcc.
type DAC struct {
	Vcc           float64
	VOL           float64
	VOH           float64
	OpenCollector bool
	Channels      [3]DACChannel
}

func (d *DAC) Level(val, ch int) uint8 {
	c := &d.Channels[ch]
	var rTotal, v float64
	for i, r := range c.R {
		if r == 0 {
			continue
		}
		bit := val>>i&1 != 0
		if d.OpenCollector {
			if !bit {
				rTotal += 1 / r
			}
			continue
		}
		rTotal += 1 / r
		if bit {
			v += d.VOH / r
		} else {
			v += d.VOL / r
		}
	}
	if c.RBias != 0 {
		rTotal += 1 / c.RBias
		v += c.VBias / c.RBias
	}
	if c.RGnd != 0 {
		rTotal += 1 / c.RGnd
	}
	rTotal = 1 / rTotal
	v *= rTotal
	v = max(c.MinOut, v-c.Cut)
	v = d.Vcc - v
	return uint8(int(v*255/d.Vcc + 0.4))
}

// Resistor networks of the Donkey Kong board family.
var (
	DkongDAC = &DAC{
		Vcc: 5, VOL: 0.35, VOH: 3.4, OpenCollector: true,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 5, RBias: 470, R: []float64{1000, 470, 220}},
			{MinOut: 0.9, VBias: 5, RBias: 470, R: []float64{1000, 470, 220}},
			{Cut: 0.7, VBias: 5, RBias: 680, R: []float64{470, 220}},
		},
	}

	Dkong3DAC = &DAC{
		Vcc: 5, VOL: 0.35, VOH: 3.4, OpenCollector: true,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 5, RBias: 470, R: []float64{2200, 1000, 470, 220}},
			{MinOut: 0.9, VBias: 5, RBias: 470, R: []float64{2200, 1000, 470, 220}},
			{MinOut: 0.9, VBias: 5, RBias: 470, R: []float64{2200, 1000, 470, 220}},
		},
	}

	RadarscpDAC = &DAC{
		Vcc: 5, VOL: 0.35, VOH: 3.4, OpenCollector: true,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 3.4, RBias: 470, R: []float64{1000, 470, 220}},
			{MinOut: 0.9, VBias: 3.4, RBias: 470, R: []float64{1000, 470, 220}},
			{MinOut: 0.9, VBias: 3.4, RBias: 680, RGnd: 150000, R: []float64{470, 220}},
		},
	}

	RadarscpStarsDAC = &DAC{
		Vcc: 5, VOL: 0.35, VOH: 3.4,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 5, RBias: 4700, RGnd: 470},
			{MinOut: 0.9, VBias: 5, RBias: 1},
			{MinOut: 0.9, VBias: 5, RBias: 1},
		},
	}

	RadarscpBackgroundDAC = &DAC{
		Vcc: 5, VOL: 0, VOH: 5,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 5, RBias: 1},
			{MinOut: 0.9, VBias: 5, RBias: 1},
			{MinOut: 0.9, VBias: 5, R: []float64{128, 64, 32, 16, 8, 4, 2, 1}},
		},
	}

	RadarscpGridDAC = &DAC{
		Vcc: 5, VOL: 0.35, VOH: 3.4,
		Channels: [3]DACChannel{
			{MinOut: 0.9, VBias: 5, R: []float64{1}},
			{MinOut: 0.9, VBias: 5, R: []float64{1}},
			{MinOut: 0.9, VBias: 5, R: []float64{1}},
		},
	}
)
