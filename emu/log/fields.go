package log

import (
	"fmt"
	"strconv"
	"strings"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeInt
	FieldTypeUint
	FieldTypeError
	FieldTypeStringer
)

// ZField is a typed field of an EntryZ, formatted only when the entry is
// emitted.
type ZField struct {
	Type FieldType
	Key  string

	// Only the value matching Type is set.
	String    string
	Integer   uint64
	Error     error
	Interface fmt.Stringer
	Boolean   bool
}

// hex formats v with at least digits hexadecimal digits.
func hex(v uint64, digits int) string {
	s := strconv.FormatUint(v, 16)
	if len(s) < digits {
		s = strings.Repeat("0", digits-len(s)) + s
	}
	return s
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Boolean)
	case FieldTypeString:
		return f.String
	case FieldTypeHex8:
		return hex(f.Integer, 2)
	case FieldTypeHex16:
		return hex(f.Integer, 4)
	case FieldTypeHex32:
		return hex(f.Integer, 8)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeStringer:
		if f.Interface == nil {
			return "<nil>"
		}
		return f.Interface.String()
	}
	return ""
}
