package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"gopkg.in/Sirupsen/logrus.v0"
)

type rasterContext struct{ frame, line int }

func (c rasterContext) AddLogContext(z *EntryZ) {
	z.Int("frame", c.frame).Int("line", c.line)
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return &buf
}

func checkContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output %q doesn't contain %q", out, w)
		}
	}
}

func TestFieldValue(t *testing.T) {
	tests := []struct {
		f    ZField
		want string
	}{
		{ZField{Type: FieldTypeBool, Boolean: true}, "true"},
		{ZField{Type: FieldTypeString, String: "bg"}, "bg"},
		{ZField{Type: FieldTypeHex8, Integer: 0x7}, "07"},
		{ZField{Type: FieldTypeHex16, Integer: 0x7d86}, "7d86"},
		{ZField{Type: FieldTypeHex32, Integer: 0xf9008}, "000f9008"},
		{ZField{Type: FieldTypeInt, Integer: uint64(0xffffffffffffffff)}, "-1"},
		{ZField{Type: FieldTypeUint, Integer: 376}, "376"},
		{ZField{Type: FieldTypeError, Error: errors.New("bad prom")}, "bad prom"},
		{ZField{Type: FieldTypeError}, "<nil>"},
	}
	for _, tt := range tests {
		if got := tt.f.Value(); got != tt.want {
			t.Errorf("Value() of type %d = %q, want %q", tt.f.Type, got, tt.want)
		}
	}
}

func TestEntryZ(t *testing.T) {
	buf := captureOutput(t)

	if z := ModLatch.DebugZ("applied"); z != nil {
		t.Fatalf("DebugZ() of a disabled module = %v, want nil", z)
	}
	// a nil entry ignores every call
	ModLatch.DebugZ("applied").Int("line", 3).End()
	if buf.Len() != 0 {
		t.Fatalf("disabled entry was emitted: %q", buf.String())
	}

	EnableDebugModules(ModLatch.Mask())
	defer DisableDebugModules(ModLatch.Mask())

	ctx := rasterContext{frame: 3, line: 100}
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModLatch.DebugZ("applied").Hex16("addr", 0x7d86).Bool("pending", false).End()
	checkContains(t, buf.String(), "applied", "_mod=latch", "addr=7d86", "pending=false", "frame=3", "line=100")
}

func TestEntryPrintf(t *testing.T) {
	buf := captureOutput(t)

	ModEmu.Infof("not emitted")
	if buf.Len() != 0 {
		t.Fatalf("info entry of a disabled module was emitted: %q", buf.String())
	}

	ModEmu.WithField("path", "vidcore.toml").Warnf("invalid scale %d", 12)
	checkContains(t, buf.String(), "invalid scale 12", "_mod=emu", "path=vidcore.toml")
}

func TestModuleByName(t *testing.T) {
	for _, name := range ModuleNames() {
		mod, ok := ModuleByName(name)
		if !ok || mod.String() != name {
			t.Errorf("ModuleByName(%q) = %v, %t", name, mod, ok)
		}
	}
	if _, ok := ModuleByName("ppu"); ok {
		t.Errorf("ModuleByName(ppu) found a module")
	}
}
