package log

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

var disabled bool

// Disable turns off all logging, warnings and errors included.
func Disable() {
	disabled = true
}

// SetOutput redirects the standard logger.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}

// A LogContext adds fields to every log entry, for instance the current
// frame and scanline of a running machine.
type LogContext interface {
	AddLogContext(z *EntryZ)
}

var contexts []LogContext

func AddContext(c LogContext) {
	contexts = append(contexts, c)
}

func RemoveContext(c LogContext) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

const maxZFields = 16

// EntryZ is a log entry built by chaining typed field setters, ended by a
// call to End. A nil *EntryZ is valid: every method is a no-op, so disabled
// log statements cost a single branch.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

var zpool = sync.Pool{New: func() any { return new(EntryZ) }}

func NewEntryZ() *EntryZ {
	e := zpool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) field(key string, typ FieldType) *ZField {
	if z.zfidx == maxZFields {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	*f = ZField{Key: key, Type: typ}
	z.zfidx++
	return f
}

func (z *EntryZ) String(key, val string) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeString); f != nil {
			f.String = val
		}
	}
	return z
}

func (z *EntryZ) integer(key string, typ FieldType, val uint64) *EntryZ {
	if z != nil {
		if f := z.field(key, typ); f != nil {
			f.Integer = val
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, val uint8) *EntryZ   { return z.integer(key, FieldTypeHex8, uint64(val)) }
func (z *EntryZ) Hex16(key string, val uint16) *EntryZ { return z.integer(key, FieldTypeHex16, uint64(val)) }
func (z *EntryZ) Hex32(key string, val uint32) *EntryZ { return z.integer(key, FieldTypeHex32, uint64(val)) }
func (z *EntryZ) Int(key string, val int) *EntryZ      { return z.integer(key, FieldTypeInt, uint64(val)) }
func (z *EntryZ) Int64(key string, val int64) *EntryZ  { return z.integer(key, FieldTypeInt, uint64(val)) }
func (z *EntryZ) Uint64(key string, val uint64) *EntryZ {
	return z.integer(key, FieldTypeUint, val)
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeBool); f != nil {
			f.Boolean = val
		}
	}
	return z
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeError); f != nil {
			f.Error = err
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeStringer); f != nil {
			f.Interface = s
		}
	}
	return z
}

// export adds the fields of z to fields.
func (z *EntryZ) export(fields logrus.Fields) {
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
}

// End emits the entry and recycles it.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	for _, c := range contexts {
		c.AddLogContext(z)
	}
	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	z.export(fields)

	entry := logrus.StandardLogger().WithFields(fields)
	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	case PanicLevel:
		entry.Panic(z.msg)
	}

	zpool.Put(z)
}
