package sched

import (
	"errors"
	"fmt"
	"image"
)

var ErrInvalidTiming = errors.New("invalid video timing")

// Timing describes the raster of a screen. Visible is the displayed area,
// in pixels and lines; VBlankStart is the line at which the vertical blank
// interrupt is raised.
type Timing struct {
	PixelClock  int64 // Hz
	HTotal      int
	VTotal      int
	Visible     image.Rectangle
	VBlankStart int
}

func (t Timing) Validate() error {
	switch {
	case t.PixelClock <= 0:
		return fmt.Errorf("%w: pixel clock %d", ErrInvalidTiming, t.PixelClock)
	case t.HTotal <= 0 || t.VTotal <= 0:
		return fmt.Errorf("%w: total %dx%d", ErrInvalidTiming, t.HTotal, t.VTotal)
	case t.Visible.Empty() || !t.Visible.In(image.Rect(0, 0, t.HTotal, t.VTotal)):
		return fmt.Errorf("%w: visible area %v outside of %dx%d", ErrInvalidTiming, t.Visible, t.HTotal, t.VTotal)
	case t.VBlankStart < 0 || t.VBlankStart >= t.VTotal:
		return fmt.Errorf("%w: vblank start %d", ErrInvalidTiming, t.VBlankStart)
	}
	return nil
}

// PixelPeriod returns the duration of a pixel, in clock ticks.
func (t Timing) PixelPeriod() int64 {
	return TicksPerSecond / t.PixelClock
}

// LinePeriod returns the duration of a scanline, in clock ticks.
func (t Timing) LinePeriod() int64 {
	return int64(t.HTotal) * TicksPerSecond / t.PixelClock
}

// FramePeriod returns the duration of a frame, in clock ticks.
func (t Timing) FramePeriod() int64 {
	return t.LinePeriod() * int64(t.VTotal)
}

// RefreshRate returns the number of frames per second.
func (t Timing) RefreshRate() float64 {
	return float64(t.PixelClock) / float64(t.HTotal*t.VTotal)
}
