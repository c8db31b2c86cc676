package tilemap

import "vidcore/hw/hwio"

// DirtySet tracks the cells whose cached pixels are stale. Marking the whole
// set is a flag, expanded by the next redraw.
type DirtySet struct {
	bits *hwio.Bitset
	all  bool
}

func newDirtySet(n int) *DirtySet {
	return &DirtySet{bits: hwio.NewBitset(n), all: true}
}

func (d *DirtySet) Mark(i int) { d.bits.Set(uint(i)) }
func (d *DirtySet) MarkAll()   { d.all = true }

// Test reports whether cell i is stale.
func (d *DirtySet) Test(i int) bool {
	return d.all || d.bits.Test(uint(i))
}

// Count returns the number of stale cells.
func (d *DirtySet) Count() int {
	if d.all {
		return d.bits.Len()
	}
	return d.bits.Count()
}

func (d *DirtySet) Empty() bool {
	return !d.all && !d.bits.Any()
}

// drain calls fn for every stale cell and empties the set.
func (d *DirtySet) drain(fn func(i int)) {
	if d.all {
		for i := range d.bits.Len() {
			fn(i)
		}
		d.all = false
		d.bits.Reset()
		return
	}
	for i := d.bits.NextSet(0); i >= 0; i = d.bits.NextSet(uint(i) + 1) {
		fn(i)
		d.bits.Clear(uint(i))
	}
}
