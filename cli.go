package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"vidcore/emu/log"
)

type mode byte

const (
	renderMode   mode = iota // Render frames to a PNG file
	digestMode               // Print frame digests
	stateMode                // Dump a save state
	machinesMode             // List machines
	versionMode              // Show version
)

type (
	CLI struct {
		Render   Render   `cmd:"" help:"Run a machine and save its last frame as PNG."`
		Digest   Digest   `cmd:"" help:"Run machines and print the digest of their frames."`
		State    State    `cmd:"" help:"Run a machine and write its save state."`
		Machines Machines `cmd:"" help:"List the supported machines."`
		Version  Version  `cmd:"" help:"Show vidcore version."`

		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`
		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	// RunFlags override the emulation settings of the configuration file,
	// when set.
	RunFlags struct {
		Frames int    `name:"frames" short:"n" help:"Number of frames to run."`
		Seed   uint64 `name:"seed" help:"${seed_help}"`
		ROMs   string `name:"roms" help:"${roms_help}" type:"path"`
		Flip   bool   `name:"flip" help:"Flip the screen, on boards with a flip dip switch."`
	}

	Render struct {
		Machine  string `arg:"" help:"Machine to run."`
		RunFlags `embed:""`

		Out   string `name:"out" short:"o" help:"Output PNG file. (default: MACHINE.png)" type:"path"`
		Scale int    `name:"scale" help:"Upscaling factor of the PNG file."`
	}

	Digest struct {
		Machines []string `arg:"" help:"Machines to run, all of them by default." optional:""`
		RunFlags `embed:""`
	}

	State struct {
		Machine  string `arg:"" help:"Machine to run."`
		RunFlags `embed:""`

		Out *outfile `name:"out" short:"o" help:"Write the save state there." placeholder:"FILE|stdout|stderr"`
	}

	Machines struct{}
	Version  struct{}
)

var vars = kong.Vars{
	"config_help": "Configuration file. (toml)",
	"log_help":    "Enable logging for specified modules.",
	"seed_help":   "Seed of the noise sources and of the synthetic regions.",
	"roms_help":   "Directory of the region files. (synthetic regions if not set)",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("vidcore"),
		kong.Description("Scanline accurate arcade video hardware."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	// the command name, without its positional arguments
	switch strings.Fields(ctx.Command())[0] {
	case "render":
		cfg.mode = renderMode
	case "digest":
		cfg.mode = digestMode
	case "state":
		cfg.mode = stateMode
	case "machines":
		cfg.mode = machinesMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
