// Package emu runs machines headless: it loads their regions, drives the
// frames and publishes digests, screenshots and save states.
package emu

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sync/atomic"

	"vidcore/emu/log"
	"vidcore/hw/hwdefs"
	"vidcore/hw/machines"
	"vidcore/hw/snapshot"
)

type Emulator struct {
	Machine machines.Machine
	cfg     Config
	digest  Digest

	// accessed concurrently by the emulator loop and its controller.
	quit atomic.Bool
}

// Launch loads the regions of the configured machine and powers it up with
// the attract script in place of a CPU. It doesn't run any frame, call Run
// for that.
func Launch(cfg Config) (*Emulator, error) {
	desc, ok := machines.All[cfg.Emulation.Machine]
	if !ok {
		return nil, fmt.Errorf("%w: %q", machines.ErrUnknownMachine, cfg.Emulation.Machine)
	}
	regions, err := LoadRegions(desc, cfg.Emulation.ROMs, cfg.Emulation.Seed)
	if err != nil {
		return nil, err
	}

	e := &Emulator{cfg: cfg}
	m, err := machines.New(desc.Name, regions, machines.Config{
		Flip:      cfg.Video.Flip,
		Seed:      cfg.Emulation.Seed,
		Interrupt: e.interrupt,
	})
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	e.Machine = m
	m.Attract(0)

	log.ModEmu.InfoZ("machine started").
		String("machine", desc.Name).
		Uint64("seed", cfg.Emulation.Seed).
		Bool("synthetic", cfg.Emulation.ROMs == "").
		End()
	return e, nil
}

// interrupt services the interrupts of the machine, playing the part of
// the CPU.
func (e *Emulator) interrupt(irq hwdefs.IRQLine, vector uint8) {
	log.ModEmu.DebugZ("interrupt taken").
		Stringer("irq", irq).
		Hex8("vector", vector).
		End()
	e.Machine.Attract(irq)
	e.Machine.Acknowledge(irq)
}

// RunOneFrame runs the machine until the end of the current frame, then
// adds the frame to the digest.
func (e *Emulator) RunOneFrame() {
	e.Machine.RunFrame()
	e.digest.Add(e.Machine.FrameBuffer())
}

// Run runs the configured number of frames, or until Stop is called.
func (e *Emulator) Run() {
	for i := 0; i < e.cfg.Emulation.Frames && !e.quit.Load(); i++ {
		e.RunOneFrame()
	}
	log.ModEmu.InfoZ("Emulation loop exited").
		Int("frames", e.digest.Frames()).
		Stringer("digest", &e.digest).
		End()
}

// Stop makes Run return after the frame being emulated. It's safe to call
// concurrently with Run.
func (e *Emulator) Stop() { e.quit.Store(true) }

func (e *Emulator) Digest() *Digest { return &e.digest }

// Screenshot returns a copy of the last frame, upscaled with the configured
// factor.
func (e *Emulator) Screenshot() *image.RGBA {
	return Scale(e.Machine.FrameBuffer(), e.cfg.Video.Scale)
}

// SaveState writes the state of the machine as JSON.
func (e *Emulator) SaveState(w io.Writer) error {
	_, err := w.Write(snapshot.Marshal(e.Machine.State()))
	return err
}

// LoadState reads a state written by SaveState.
func (e *Emulator) LoadState(r io.Reader) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	v, err := snapshot.Unmarshal(buf.Bytes())
	if err != nil {
		return err
	}
	return e.Machine.LoadState(v)
}
