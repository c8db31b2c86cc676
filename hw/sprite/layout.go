package sprite

// Field locates a value within a sprite entry: (entry[Offset:Offset+Size]
// read little-endian >> Shift) & Mask. A zero Size means the field does not
// exist and always reads 0.
type Field struct {
	Offset int
	Size   int
	Shift  uint
	Mask   uint32
}

// Byte is a shorthand for a one byte field.
func Byte(off int, shift uint, mask uint32) Field {
	return Field{Offset: off, Size: 1, Shift: shift, Mask: mask}
}

// Word is a shorthand for a little-endian 16-bit field.
func Word(off int, shift uint, mask uint32) Field {
	return Field{Offset: off, Size: 2, Shift: shift, Mask: mask}
}

func (f Field) Get(entry []byte) int {
	var v uint32
	switch f.Size {
	case 0:
		return 0
	case 1:
		v = uint32(entry[f.Offset])
	case 2:
		v = uint32(entry[f.Offset]) | uint32(entry[f.Offset+1])<<8
	}
	return int(v >> f.Shift & f.Mask)
}

// Order is the order in which entries are drawn; entries drawn last are on
// top.
type Order int

const (
	Forward Order = iota
	Reverse
	ByPriority
)

// Layout is the per-machine description of the sprite RAM entry format and
// of the positioning rules of the hardware.
type Layout struct {
	Stride int
	Count  int

	// Enable, when present, must be non-zero for the entry to be drawn.
	Enable Field

	Code      Field
	Bank      Field
	BankShift uint // code += Bank << BankShift
	Color     Field
	X, Y      Field
	FlipX     Field
	FlipY     Field
	Priority  Field
	// PriorityMap translates the Priority field into a priority class.
	PriorityMap []int

	// XCells and YCells hold log2 of the number of cells of multi-cell
	// sprites; SizeClasses, when set, maps the Size field to cell counts.
	XCells, YCells Field
	Size           Field
	SizeClasses    [][2]int

	// CodeStrideX/Y are the code increments between adjacent cells.
	CodeStrideX, CodeStrideY int
	// AnchorBottom places the Y coordinate at the bottom cell, cells
	// stacking upwards.
	AnchorBottom bool
	// ConsumeColumns makes each column of a multi-cell sprite use one entry.
	ConsumeColumns bool

	// Position: x = X + XOffset; y = Y + YOffset, or YInvert - Y + YOffset
	// when YInvert is non-zero.
	XOffset, YOffset int
	YInvert          int

	// With the flip screen, cells are mirrored around the origin:
	// x = FlipOriginX - x.
	FlipOriginX, FlipOriginY int

	// Wraparound copies are drawn at ±WrapX and ±WrapY when non-zero.
	WrapX, WrapY int

	Order Order
}

// Record is a decoded sprite entry.
type Record struct {
	Index        int
	Code         int
	Color        int
	X, Y         int
	W, H         int // in cells
	FlipX, FlipY bool
	Priority     int
}

func (l *Layout) entry(ram []byte, i int) []byte {
	return ram[i*l.Stride : (i+1)*l.Stride]
}

// Decode returns the record of entry i, and whether it is enabled.
func (l *Layout) Decode(ram []byte, i int) (Record, bool) {
	e := l.entry(ram, i)
	if l.Enable.Size != 0 && l.Enable.Get(e) == 0 {
		return Record{}, false
	}

	r := Record{
		Index: i,
		Code:  l.Code.Get(e) + l.Bank.Get(e)<<l.BankShift,
		Color: l.Color.Get(e),
		X:     l.X.Get(e) + l.XOffset,
		FlipX: l.FlipX.Get(e) != 0,
		FlipY: l.FlipY.Get(e) != 0,
		W:     1 << l.XCells.Get(e),
		H:     1 << l.YCells.Get(e),
	}
	if l.YInvert != 0 {
		r.Y = l.YInvert - l.Y.Get(e) + l.YOffset
	} else {
		r.Y = l.Y.Get(e) + l.YOffset
	}
	if l.SizeClasses != nil {
		sz := l.SizeClasses[l.Size.Get(e)%len(l.SizeClasses)]
		r.W, r.H = sz[0], sz[1]
	}
	r.Priority = l.Priority.Get(e)
	if l.PriorityMap != nil {
		r.Priority = l.PriorityMap[r.Priority%len(l.PriorityMap)]
	}
	return r, true
}
