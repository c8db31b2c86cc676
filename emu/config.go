package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"vidcore/emu/log"
)

type Config struct {
	Video     VideoConfig     `toml:"video"`
	Emulation EmulationConfig `toml:"emulation"`
	Log       LogConfig       `toml:"log"`
}

type VideoConfig struct {
	// Scale is the upscaling factor of screenshots.
	Scale int  `toml:"scale"`
	Flip  bool `toml:"flip"`
}

const maxScale = 8

func (vcfg *VideoConfig) Check() {
	if vcfg.Scale < 1 || vcfg.Scale > maxScale {
		log.ModEmu.Warnf("Invalid scale %d, fallback to 1", vcfg.Scale)
		vcfg.Scale = 1
	}
}

type EmulationConfig struct {
	Machine string `toml:"machine"`
	Frames  int    `toml:"frames"`
	Seed    uint64 `toml:"seed"`
	// ROMs is the directory holding the region files of the machine. When
	// empty, regions are filled with noise.
	ROMs string `toml:"roms"`
}

type LogConfig struct {
	// Modules lists the modules with debug logs enabled.
	Modules []string `toml:"modules"`
}

// Mask returns the module mask of the configured modules.
func (lcfg LogConfig) Mask() (log.ModuleMask, error) {
	var mask log.ModuleMask
	for _, name := range lcfg.Modules {
		if name == "all" {
			mask |= log.ModuleMaskAll
			continue
		}
		mod, ok := log.ModuleByName(name)
		if !ok {
			return 0, fmt.Errorf("unknown log module %s", name)
		}
		mask |= mod.Mask()
	}
	return mask, nil
}

var DefaultConfig = Config{
	Video: VideoConfig{
		Scale: 1,
	},
	Emulation: EmulationConfig{
		Machine: "dkong",
		Frames:  60,
		Seed:    1,
	},
}

// LoadConfig loads a configuration file. Settings missing from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig, fmt.Errorf("load config: %w", err)
	}
	cfg.Video.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration at path, or provides the
// default one.
func LoadConfigOrDefault(path string) Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WithField("path", path).Warnf("Invalid configuration, using defaults: %v", err)
		}
		return DefaultConfig
	}
	return cfg
}

func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
