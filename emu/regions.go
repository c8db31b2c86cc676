package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"vidcore/emu/log"
	"vidcore/hw/machines"
)

// LoadRegions reads the regions of a machine from dir, one file per region
// named after it with a .bin extension. With an empty dir, regions are
// filled with noise from seed.
func LoadRegions(desc machines.Desc, dir string, seed uint64) (machines.Regions, error) {
	if dir == "" {
		log.ModEmu.WarnZ("no ROM directory, using synthetic regions").
			String("machine", desc.Name).
			End()
		return desc.Synthetic(seed), nil
	}

	regions := make(machines.Regions, len(desc.Regions))
	for _, r := range desc.Regions {
		path := filepath.Join(dir, r.Name+".bin")
		buf, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) && r.Optional {
			log.ModEmu.InfoZ("optional region not found").
				String("region", r.Name).
				String("path", path).
				End()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", r.Name, err)
		}
		if len(buf) != r.Size {
			log.ModEmu.WarnZ("unexpected region size").
				String("region", r.Name).
				Int("size", len(buf)).
				Int("want", r.Size).
				End()
		}
		regions[r.Name] = buf
	}
	return regions, nil
}
