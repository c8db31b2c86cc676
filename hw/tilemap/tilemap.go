package tilemap

import (
	"fmt"
	"image"

	"vidcore/emu/log"
	"vidcore/hw/gfx"
)

type Flags uint8

const (
	FlipX Flags = 1 << iota
	FlipY
)

// TileInfo is the decoded form of a tilemap cell.
type TileInfo struct {
	Code  int
	Color int
	Flags Flags
	// Split selects the transparency masks of the cell (see Config.Split).
	Split int
}

// TileInfoProvider decodes cells from the memory of a machine.
type TileInfoProvider interface {
	TileInfo(index int) TileInfo
}

// TileInfoFunc adapts a function to the TileInfoProvider interface.
type TileInfoFunc func(index int) TileInfo

func (f TileInfoFunc) TileInfo(index int) TileInfo { return f(index) }

// ScanFunc maps a cell position to a memory index.
type ScanFunc func(col, row, cols, rows int) int

func ScanRows(col, row, cols, rows int) int { return row*cols + col }
func ScanCols(col, row, cols, rows int) int { return col*rows + row }

// Category selects which pixels of a split tilemap are drawn.
type Category int

const (
	All Category = iota
	Back
	Front
)

func (c Category) String() string {
	switch c {
	case All:
		return "all"
	case Back:
		return "back"
	case Front:
		return "front"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Split holds the transparency masks of a split type: bit n set means pen n
// is transparent in that category.
type Split struct {
	Front, Back uint32
}

type Config struct {
	Name string

	TileWidth, TileHeight int
	Cols, Rows            int
	Scan                  ScanFunc

	Gfx       *gfx.Element
	ColorBase int

	// Opaque tilemaps draw every pen. Otherwise TransPen is transparent in
	// the All category and Split masks apply to Front and Back.
	Opaque   bool
	TransPen int
	Split    []Split

	// Blank is the code drawn instead of codes out of the graphics element.
	Blank int

	// Size of the screen bitmap, used to mirror scroll values when flipped.
	ScreenWidth, ScreenHeight int
}

const (
	transAll = 1 << iota
	transBack
	transFront
)

// Tilemap caches the pixels of every cell and blits them with scroll, flip
// and per-row scroll applied.
type Tilemap struct {
	cfg      Config
	provider TileInfoProvider
	dirty    *DirtySet
	cellPos  []int32 // memory index -> row*cols+col

	width, height int
	pix           []uint16
	trans         []uint8

	flip    Flags
	enabled bool

	rowScroll []int
	colScroll []int
	dx, dxf   int
	dy, dyf   int
}

func New(cfg Config, provider TileInfoProvider) *Tilemap {
	if cfg.Scan == nil {
		cfg.Scan = ScanRows
	}
	w, h := cfg.Cols*cfg.TileWidth, cfg.Rows*cfg.TileHeight
	if cfg.ScreenWidth == 0 {
		cfg.ScreenWidth = w
	}
	if cfg.ScreenHeight == 0 {
		cfg.ScreenHeight = h
	}
	pos := make([]int32, cfg.Cols*cfg.Rows)
	for row := range cfg.Rows {
		for col := range cfg.Cols {
			pos[cfg.Scan(col, row, cfg.Cols, cfg.Rows)] = int32(row*cfg.Cols + col)
		}
	}
	return &Tilemap{
		cellPos:   pos,
		cfg:       cfg,
		provider:  provider,
		dirty:     newDirtySet(cfg.Cols * cfg.Rows),
		width:     w,
		height:    h,
		pix:       make([]uint16, w*h),
		trans:     make([]uint8, w*h),
		enabled:   true,
		rowScroll: make([]int, 1),
		colScroll: make([]int, 1),
	}
}

func (t *Tilemap) Name() string { return t.cfg.Name }

// Width and Height are the dimensions of the whole map, in pixels.
func (t *Tilemap) Width() int  { return t.width }
func (t *Tilemap) Height() int { return t.height }

func (t *Tilemap) NumTiles() int { return t.cfg.Cols * t.cfg.Rows }

// Dirty exposes the set of stale cells.
func (t *Tilemap) Dirty() *DirtySet { return t.dirty }

// MarkDirty invalidates the cell at memory index i.
func (t *Tilemap) MarkDirty(i int) { t.dirty.Mark(i) }

// MarkAllDirty invalidates every cell.
func (t *Tilemap) MarkAllDirty() { t.dirty.MarkAll() }

func (t *Tilemap) SetEnable(on bool) { t.enabled = on }
func (t *Tilemap) Enabled() bool     { return t.enabled }

func (t *Tilemap) Flip() Flags { return t.flip }

// SetFlip sets the global flip. Changing it changes every cell.
func (t *Tilemap) SetFlip(f Flags) {
	if f != t.flip {
		t.flip = f
		t.MarkAllDirty()
	}
}

// SetScrollRows sets the number of independently scrolled rows bands.
func (t *Tilemap) SetScrollRows(n int) {
	if n == len(t.rowScroll) {
		return
	}
	t.rowScroll = make([]int, n)
	t.MarkAllDirty()
}

func (t *Tilemap) SetScrollCols(n int) {
	if n == len(t.colScroll) {
		return
	}
	t.colScroll = make([]int, n)
	t.MarkAllDirty()
}

func (t *Tilemap) SetScrollX(row, v int) { t.rowScroll[row] = v }
func (t *Tilemap) SetScrollY(col, v int) { t.colScroll[col] = v }
func (t *Tilemap) ScrollX(row int) int   { return t.rowScroll[row] }
func (t *Tilemap) ScrollY(col int) int   { return t.colScroll[col] }

// SetScrollDX sets the display offset, and its value used when flipped.
func (t *Tilemap) SetScrollDX(dx, flipped int) { t.dx, t.dxf = dx, flipped }
func (t *Tilemap) SetScrollDY(dy, flipped int) { t.dy, t.dyf = dy, flipped }

func (t *Tilemap) updateCell(idx int) {
	p := int(t.cellPos[idx])
	t.drawCell(idx, p%t.cfg.Cols, p/t.cfg.Cols)
}

func (t *Tilemap) drawCell(idx, col, row int) {
	ti := t.provider.TileInfo(idx)
	e := t.cfg.Gfx
	tw, th := t.cfg.TileWidth, t.cfg.TileHeight

	code := ti.Code
	if !e.Valid(code) {
		log.ModTilemap.DebugZ("tile code out of range").
			String("map", t.cfg.Name).
			Int("idx", idx).
			Int("code", code).
			End()
		code = t.cfg.Blank
	}

	flipx := ti.Flags&FlipX != 0
	flipy := ti.Flags&FlipY != 0
	if t.flip&FlipX != 0 {
		col = t.cfg.Cols - 1 - col
		flipx = !flipx
	}
	if t.flip&FlipY != 0 {
		row = t.cfg.Rows - 1 - row
		flipy = !flipy
	}

	var split Split
	if ti.Split >= 0 && ti.Split < len(t.cfg.Split) {
		split = t.cfg.Split[ti.Split]
	}
	base := t.cfg.ColorBase + ti.Color*e.Granularity
	valid := e.Valid(code)

	for y := range th {
		ey := y
		if flipy {
			ey = th - 1 - y
		}
		off := (row*th+y)*t.width + col*tw
		for x := range tw {
			ex := x
			if flipx {
				ex = tw - 1 - ex
			}
			var pen uint8
			if valid {
				pen = e.Pixel(code, ex, ey)
			}
			var tr uint8
			if !t.cfg.Opaque {
				if int(pen) == t.cfg.TransPen {
					tr |= transAll
				}
				if t.cfg.Split == nil {
					if tr != 0 {
						tr |= transBack | transFront
					}
				} else {
					if split.Back&(1<<pen) != 0 {
						tr |= transBack
					}
					if split.Front&(1<<pen) != 0 {
						tr |= transFront
					}
				}
			}
			t.pix[off+x] = uint16(base + int(pen))
			t.trans[off+x] = tr
		}
	}
}

// update redraws every stale cell into the cache.
func (t *Tilemap) update() {
	if t.dirty.Empty() {
		return
	}
	cols, rows := t.cfg.Cols, t.cfg.Rows
	if t.dirty.all {
		for row := range rows {
			for col := range cols {
				t.drawCell(t.cfg.Scan(col, row, cols, rows), col, row)
			}
		}
		t.dirty.drain(func(int) {})
		return
	}
	t.dirty.drain(t.updateCell)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// xoffset returns the value to add to a screen x to get a map x, for the
// given row scroll band of the map.
func (t *Tilemap) xoffset(band int) int {
	if t.flip&FlipY != 0 {
		band = len(t.rowScroll) - 1 - band
	}
	if t.flip&FlipX != 0 {
		return t.width - t.cfg.ScreenWidth + t.dxf - t.rowScroll[band]
	}
	return t.rowScroll[band] - t.dx
}

func (t *Tilemap) yoffset(band int) int {
	if t.flip&FlipX != 0 {
		band = len(t.colScroll) - 1 - band
	}
	if t.flip&FlipY != 0 {
		return t.height - t.cfg.ScreenHeight + t.dyf - t.colScroll[band]
	}
	return t.colScroll[band] - t.dy
}

// Draw renders the clip rectangle of the map into dst. Pixels transparent in
// the category are set to gfx.NoPen.
func (t *Tilemap) Draw(dst *gfx.Bitmap, clip image.Rectangle, cat Category) {
	clip = clip.Intersect(dst.Bounds())
	if !t.enabled {
		dst.Fill(clip, gfx.NoPen)
		return
	}
	t.update()

	var tmask uint8
	switch cat {
	case All:
		tmask = transAll
	case Back:
		tmask = transBack
	case Front:
		tmask = transFront
	}

	nrows, ncols := len(t.rowScroll), len(t.colScroll)
	rowh, colw := t.height/nrows, t.width/ncols
	xoff0 := t.xoffset(0)
	yoff0 := t.yoffset(0)

	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		drow := dst.Pix[y*dst.Width:]
		sy := wrap(y+yoff0, t.height)
		xoff := xoff0
		if nrows > 1 {
			xoff = t.xoffset(sy / rowh)
		}
		for x := clip.Min.X; x < clip.Max.X; x++ {
			sx := wrap(x+xoff, t.width)
			if ncols > 1 {
				sy = wrap(y+t.yoffset(sx/colw), t.height)
			}
			i := sy*t.width + sx
			if t.trans[i]&tmask != 0 {
				drow[x] = gfx.NoPen
			} else {
				drow[x] = t.pix[i]
			}
		}
	}
}
