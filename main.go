package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"vidcore/emu"
	"vidcore/emu/log"
	"vidcore/hw/machines"
)

func main() {
	cli := parseArgs(os.Args[1:])

	cfg := emu.DefaultConfig
	if cli.Config != "" {
		var err error
		cfg, err = emu.LoadConfig(cli.Config)
		checkf(err, "failed to load configuration")
		mask, err := cfg.Log.Mask()
		checkf(err, "invalid configuration")
		log.EnableDebugModules(mask)
	}

	switch cli.mode {
	case renderMode:
		renderMain(cli.Render, cfg)
	case digestMode:
		digestMain(cli.Digest, cfg)
	case stateMode:
		stateMain(cli.State, cfg)
	case machinesMode:
		for _, name := range machines.Names() {
			fmt.Println(name)
		}
	case versionMode:
		fmt.Println("vidcore", version())
	}
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
