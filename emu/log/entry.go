package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

// Entry is a printf-style log entry of a module, for messages where the
// formatting cost doesn't matter (startup, configuration). Fields are only
// evaluated when the entry is emitted.
type Entry struct {
	mod    Module
	fields []func() Fields
}

func (entry Entry) build() *logrus.Entry {
	fields := logrus.Fields{"_mod": entry.mod.String()}
	for _, lf := range entry.fields {
		for k, v := range lf() {
			fields[k] = v
		}
	}

	var z EntryZ
	for _, c := range contexts {
		c.AddLogContext(&z)
	}
	z.export(fields)
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) WithFields(fields Fields) Entry {
	return entry.WithDelayedFields(func() Fields { return fields })
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithDelayedFields(func() Fields {
		return Fields{key: value}
	})
}

// WithDelayedFields adds fields computed only if the entry is emitted.
func (entry Entry) WithDelayedFields(getfields func() Fields) Entry {
	entry.fields = append(entry.fields[:len(entry.fields):len(entry.fields)], getfields)
	return entry
}

func (entry Entry) logf(lvl Level, format string, args ...any) {
	if !entry.mod.Enabled(lvl) {
		return
	}
	e := entry.build()
	switch lvl {
	case DebugLevel:
		e.Debugf(format, args...)
	case InfoLevel:
		e.Infof(format, args...)
	case WarnLevel:
		e.Warnf(format, args...)
	case ErrorLevel:
		e.Errorf(format, args...)
	case FatalLevel:
		e.Fatalf(format, args...)
	case PanicLevel:
		e.Panicf(format, args...)
	}
}

func (entry Entry) Debugf(format string, args ...any) { entry.logf(DebugLevel, format, args...) }
func (entry Entry) Infof(format string, args ...any)  { entry.logf(InfoLevel, format, args...) }
func (entry Entry) Warnf(format string, args ...any)  { entry.logf(WarnLevel, format, args...) }
func (entry Entry) Errorf(format string, args ...any) { entry.logf(ErrorLevel, format, args...) }
func (entry Entry) Fatalf(format string, args ...any) { entry.logf(FatalLevel, format, args...) }
func (entry Entry) Panicf(format string, args ...any) { entry.logf(PanicLevel, format, args...) }
