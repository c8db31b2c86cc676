package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"vidcore/emu"
	"vidcore/emu/log"
	"vidcore/hw/machines"
)

// apply overrides cfg with the flags set on the command line.
func (f RunFlags) apply(cfg *emu.Config, machine string) {
	cfg.Emulation.Machine = machine
	if f.Frames > 0 {
		cfg.Emulation.Frames = f.Frames
	}
	if f.Seed != 0 {
		cfg.Emulation.Seed = f.Seed
	}
	if f.ROMs != "" {
		cfg.Emulation.ROMs = f.ROMs
	}
	cfg.Video.Flip = cfg.Video.Flip || f.Flip
}

// launch starts the emulator and adds the machine raster position to the
// log entries.
func launch(cfg emu.Config) *emu.Emulator {
	e, err := emu.Launch(cfg)
	checkf(err, "failed to start %s", cfg.Emulation.Machine)
	log.AddContext(e.Machine)
	return e
}

// renderMain runs a machine and saves its last frame as a PNG file.
func renderMain(args Render, cfg emu.Config) {
	args.apply(&cfg, args.Machine)
	if args.Scale > 0 {
		cfg.Video.Scale = args.Scale
		cfg.Video.Check()
	}
	out := args.Out
	if out == "" {
		out = args.Machine + ".png"
	}

	e := launch(cfg)
	defer log.RemoveContext(e.Machine)
	e.Run()

	checkf(emu.SaveAsPNG(e.Screenshot(), out), "failed to save screenshot")
	fmt.Printf("%s: frame %d written to %s (digest %v)\n",
		args.Machine, e.Digest().Frames(), out, e.Digest())
}

// digestMain runs each machine in its own goroutine. Machines share no
// state, the log context is left out since it is global.
func digestMain(args Digest, cfg emu.Config) {
	names := args.Machines
	if len(names) == 0 {
		names = machines.Names()
	}

	digests := make([]*emu.Digest, len(names))
	var g errgroup.Group
	for i, name := range names {
		mcfg := cfg
		args.apply(&mcfg, name)
		g.Go(func() error {
			e, err := emu.Launch(mcfg)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			e.Run()
			digests[i] = e.Digest()
			return nil
		})
	}
	checkf(g.Wait(), "failed to run machines")

	for i, name := range names {
		fmt.Printf("%-10s %4d %v\n", name, digests[i].Frames(), digests[i])
	}
}

// stateMain runs a machine and writes its save state.
func stateMain(args State, cfg emu.Config) {
	args.apply(&cfg, args.Machine)

	e := launch(cfg)
	defer log.RemoveContext(e.Machine)
	e.Run()

	if args.Out == nil {
		checkf(e.SaveState(os.Stdout), "failed to write save state")
		return
	}
	defer args.Out.Close()
	checkf(e.SaveState(args.Out), "failed to write save state")
}
