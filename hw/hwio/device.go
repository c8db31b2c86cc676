package hwio

import "vidcore/emu/log"

// Device allows manual management of an entire range of addresses. Callbacks
// receive offsets relative to the address the device is mapped at.
type Device struct {
	Name  string // name of the memory area (for debugging)
	Size  int    // size of the memory area
	Flags RWFlags

	ReadCb  func(off uint32, peek bool) uint8
	WriteCb func(off uint32, val uint8)
}

type deviceIO struct {
	dev  *Device
	base uint32
}

func (d deviceIO) Read8(addr uint32, peek bool) uint8 {
	switch {
	case d.dev.Flags&WriteOnlyFlag != 0:
		if !peek {
			log.ModHwIo.ErrorZ("invalid Read8 from writeonly device").
				String("name", d.dev.Name).
				Hex32("addr", addr).
				End()
		}
		return 0
	case d.dev.ReadCb == nil:
		return 0
	}
	return d.dev.ReadCb(addr-d.base, peek)
}

func (d deviceIO) Write8(addr uint32, val uint8) {
	switch {
	case d.dev.Flags&ReadOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Write8 to readonly device").
			String("name", d.dev.Name).
			Hex32("addr", addr).
			End()
		return
	case d.dev.WriteCb == nil:
		return
	}
	d.dev.WriteCb(addr-d.base, val)
}
