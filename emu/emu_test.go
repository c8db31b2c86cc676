package emu

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vidcore/emu/log"
	"vidcore/hw/machines"
	"vidcore/tests"
)

func testConfig(machine string, frames int) Config {
	cfg := DefaultConfig
	cfg.Emulation.Machine = machine
	cfg.Emulation.Frames = frames
	return cfg
}

func launch(tb testing.TB, cfg Config) *Emulator {
	tb.Helper()
	log.Disable()

	e, err := Launch(cfg)
	if err != nil {
		tb.Fatal(err)
	}
	return e
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	want := DefaultConfig
	want.Video = VideoConfig{Scale: 3, Flip: true}
	want.Emulation = EmulationConfig{Machine: "m92", Frames: 10, Seed: 42, ROMs: "roms/m92"}
	want.Log.Modules = []string{"latch", "sched"}
	if err := SaveConfig(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig() (-want +got):\n%s", diff)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	got := LoadConfigOrDefault(filepath.Join(dir, "missing.toml"))
	if diff := cmp.Diff(DefaultConfig, got); diff != "" {
		t.Errorf("LoadConfigOrDefault(missing) (-want +got):\n%s", diff)
	}

	// missing settings keep their default, invalid ones are fixed
	path := filepath.Join(dir, "partial.toml")
	data := "[video]\nscale = 100\n\n[emulation]\nmachine = \"radarscp\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig
	want.Emulation.Machine = "radarscp"
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig(partial) (-want +got):\n%s", diff)
	}
}

func TestLogConfigMask(t *testing.T) {
	mask, err := LogConfig{Modules: []string{"latch", "sched"}}.Mask()
	if err != nil {
		t.Fatal(err)
	}
	if want := log.ModLatch.Mask() | log.ModSched.Mask(); mask != want {
		t.Errorf("Mask() = %#x, want %#x", mask, want)
	}
	if _, err := (LogConfig{Modules: []string{"ppu"}}).Mask(); err == nil {
		t.Errorf("Mask() with an unknown module: want an error")
	}
}

func TestLaunchUnknownMachine(t *testing.T) {
	_, err := Launch(testConfig("galaxian", 1))
	if !errors.Is(err, machines.ErrUnknownMachine) {
		t.Errorf("Launch() error = %v, want %v", err, machines.ErrUnknownMachine)
	}
}

func TestLoadRegions(t *testing.T) {
	desc := machines.All["radarscp"]
	dir := t.TempDir()

	write := func(name string, size int) {
		t.Helper()
		buf := bytes.Repeat([]byte{byte(len(name))}, size)
		if err := os.WriteFile(filepath.Join(dir, name+".bin"), buf, 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("tiles", 0x1000)
	write("sprites", 0x2000)

	if _, err := LoadRegions(desc, dir, 0); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("LoadRegions() without proms: error = %v, want %v", err, fs.ErrNotExist)
	}

	// stars are optional
	write("proms", 0x300)
	regions, err := LoadRegions(desc, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"tiles": 0x1000, "sprites": 0x2000, "proms": 0x300}
	got := make(map[string]int)
	for name, buf := range regions {
		got[name] = len(buf)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("region sizes (-want +got):\n%s", diff)
	}

	synth, err := LoadRegions(desc, "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(desc.Synthetic(5), synth); diff != "" {
		t.Errorf("synthetic regions (-want +got):\n%s", diff)
	}
}

func TestDigestDeterministic(t *testing.T) {
	for _, name := range machines.Names() {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(name, 4)
			a := launch(t, cfg)
			b := launch(t, cfg)
			a.Run()
			b.Run()

			if a.Digest().Frames() != 4 {
				t.Fatalf("digest of %d frames, want 4", a.Digest().Frames())
			}
			if a.Digest().Sum() != b.Digest().Sum() {
				t.Errorf("digests differ: %v != %v", a.Digest(), b.Digest())
			}

			cfg.Emulation.Seed++
			c := launch(t, cfg)
			c.Run()
			if a.Digest().Sum() == c.Digest().Sum() {
				t.Errorf("different seeds gave the same digest %v", a.Digest())
			}
		})
	}
}

func TestDigestChained(t *testing.T) {
	img1 := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img2 := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img2.Set(1, 1, color.RGBA{R: 1, A: 0xff})

	var d12, d21 Digest
	d12.Add(img1)
	d12.Add(img2)
	d21.Add(img2)
	d21.Add(img1)
	if d12.Sum() == d21.Sum() {
		t.Errorf("digest doesn't depend on the frame order")
	}

	// only visible pixels are hashed
	var d1, d1sub Digest
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	big.Set(3, 3, color.RGBA{G: 1, A: 0xff})
	d1.Add(img1)
	d1sub.Add(big.SubImage(image.Rect(0, 0, 2, 2)).(*image.RGBA))
	if d1.Sum() != d1sub.Sum() {
		t.Errorf("digest of a sub image = %v, want %v", &d1sub, &d1)
	}
}

func TestSaveLoadState(t *testing.T) {
	cfg := testConfig("m92", 3)
	a := launch(t, cfg)
	a.Run()

	var buf bytes.Buffer
	if err := a.SaveState(&buf); err != nil {
		t.Fatal(err)
	}
	b := launch(t, cfg)
	if err := b.LoadState(&buf); err != nil {
		t.Fatal(err)
	}

	a.RunOneFrame()
	b.RunOneFrame()
	if !bytes.Equal(a.Machine.FrameBuffer().Pix, b.Machine.FrameBuffer().Pix) {
		t.Errorf("frames differ after LoadState")
	}
}

func TestScale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{R: 0xff, A: 0xff}
	img.Set(1, 0, red)

	got := Scale(img, 3)
	if got.Bounds() != image.Rect(0, 0, 6, 3) {
		t.Fatalf("bounds = %v, want 6x3", got.Bounds())
	}
	for y := range 3 {
		for x := range 6 {
			want := color.RGBA{}
			if x >= 3 {
				want = red
			}
			if c := got.RGBAAt(x, y); c != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, c, want)
			}
		}
	}
}

func TestScreenshotGolden(t *testing.T) {
	for _, name := range machines.Names() {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(name, 30)
			cfg.Video.Scale = 2
			e := launch(t, cfg)
			e.Run()

			var buf bytes.Buffer
			if err := png.Encode(&buf, e.Screenshot()); err != nil {
				t.Fatal(err)
			}
			tests.Golden(t, filepath.Join("testdata", name+".png"), buf.Bytes())
		})
	}
}

func BenchmarkRunFrame(b *testing.B) {
	for _, name := range machines.Names() {
		b.Run(name, func(b *testing.B) {
			e := launch(b, testConfig(name, 0))
			b.ReportAllocs()
			for b.Loop() {
				e.RunOneFrame()
			}
		})
	}
}
