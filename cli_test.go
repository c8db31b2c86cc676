package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"vidcore/emu"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args     []string
		mode     mode
		render   Render
		digest   Digest
		machines []string
	}{
		{
			args: []string{"render", "m92", "-n", "5", "--seed", "3", "--scale", "2"},
			mode: renderMode,
			render: Render{
				Machine:  "m92",
				RunFlags: RunFlags{Frames: 5, Seed: 3},
				Scale:    2,
			},
		},
		{
			args:   []string{"digest", "dkong", "radarscp", "--flip"},
			mode:   digestMode,
			digest: Digest{Machines: []string{"dkong", "radarscp"}, RunFlags: RunFlags{Flip: true}},
		},
		{
			args: []string{"digest"},
			mode: digestMode,
		},
		{
			args: []string{"machines"},
			mode: machinesMode,
		},
	}
	for _, tt := range tests {
		cli := parseArgs(tt.args)
		if cli.mode != tt.mode {
			t.Errorf("parseArgs(%q) mode = %d, want %d", tt.args, cli.mode, tt.mode)
		}
		if diff := cmp.Diff(tt.render, cli.Render); diff != "" {
			t.Errorf("parseArgs(%q) render (-want +got):\n%s", tt.args, diff)
		}
		if diff := cmp.Diff(tt.digest, cli.Digest, cmp.Comparer(func(a, b []string) bool {
			return len(a) == len(b) && (len(a) == 0 || cmp.Equal(a, b))
		})); diff != "" {
			t.Errorf("parseArgs(%q) digest (-want +got):\n%s", tt.args, diff)
		}
	}
}

func TestRunFlagsApply(t *testing.T) {
	cfg := emu.DefaultConfig
	cfg.Emulation.ROMs = "roms"
	cfg.Video.Flip = true

	RunFlags{Frames: 12}.apply(&cfg, "m92")

	want := emu.DefaultConfig
	want.Emulation.Machine = "m92"
	want.Emulation.Frames = 12
	want.Emulation.ROMs = "roms"
	want.Video.Flip = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("apply() (-want +got):\n%s", diff)
	}
}
