package hwio

import "testing"

func TestReg8(t *testing.T) {
	r := Reg8{Value: 0x11, RoMask: 0xF0}

	if got := r.Read8(0, false); got != 0x11 {
		t.Errorf("invalid read: %x", got)
	}
	if got := r.Read8(9999, false); got != 0x11 {
		t.Errorf("invalid read with offset: %x", got)
	}

	r.Write8(0, 0x77)
	if r.Value != 0x17 {
		t.Errorf("romask not respected: %x", r.Value)
	}
	r.Write8(9999, 0x88)
	if r.Value != 0x18 {
		t.Errorf("romask with offset not respected: %x", r.Value)
	}
}

type test1 struct {
	Reg1   Reg8 `hwio:"offset=0x111,reset=0x23,romask=0x1,wcb"`
	Reg2   Reg8 `hwio:"offset=0x444,bank=1,rcb"`
	called bool
}

func (t *test1) WriteREG1(old, val uint8) {
	t.called = true
}

func (t *test1) ReadREG2(val uint8, peek bool) uint8 {
	return val | 1
}

func TestReflect(t *testing.T) {
	ts := &test1{}

	if err := InitRegs(ts); err != nil {
		t.Fatal(err)
	}

	if ts.Reg1.Name != "Reg1" || ts.Reg2.Name != "Reg2" {
		t.Error("invalid names:", ts.Reg1, ts.Reg2)
	}
	if got := ts.Reg2.Read8(0, false); got != 1 {
		t.Error("invalid read8:", got)
	}
	if got := ts.Reg1.Read8(0, false); got != 0x23 {
		t.Error("invalid read8", got)
	}

	ts.Reg1.Write8(0, 0)
	if ts.Reg1.Value != 0x01 {
		t.Errorf("invalid value after romask write: %02x", ts.Reg1.Value)
	}
	if !ts.called {
		t.Error("callback not called")
	}
}

func TestParseBank(t *testing.T) {
	ts := &test1{}
	info, err := bankGetRegs(ts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x111 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}
	rptr, ok := info[0].regPtr.(*Reg8)
	if !ok {
		t.Errorf("invalid reg ptr type: %T", info[0].regPtr)
	} else if rptr != &ts.Reg1 {
		t.Errorf("invalid reg ptr")
	}

	info, err = bankGetRegs(ts, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x444 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}
}

func TestReadWriteOnly(t *testing.T) {
	type test2 struct {
		Reg1 Reg8 `hwio:"reset=0x23,readonly"`
		Reg2 Reg8 `hwio:"writeonly"`
	}

	ts := &test2{}
	if err := InitRegs(ts); err != nil {
		t.Fatal(err)
	}

	ts.Reg1.Write8(0, 0) // ignored
	if got := ts.Reg1.Read8(0, false); got != 0x23 {
		t.Error("invalid reg1 read:", got)
	}

	ts.Reg2.Write8(0, 0x23)
	if got := ts.Reg2.Read8(0, false); got != 0 {
		t.Error("invalid reg2 read:", got)
	}
	if ts.Reg2.Value != 0x23 {
		t.Error("invalid reg2 value:", ts.Reg2.Value)
	}
}

func TestInitRegsErrors(t *testing.T) {
	type tooBig struct {
		R Reg8 `hwio:"reset=0x123"`
	}
	type maskTooBig struct {
		R Reg8 `hwio:"romask=0x123"`
	}
	type noMethod struct {
		R Reg8 `hwio:"rcb"`
	}
	type notPow2 struct {
		M Mem `hwio:"size=0x300"`
	}

	for _, data := range []any{&tooBig{}, &maskTooBig{}, &noMethod{}, &notPow2{}, tooBig{}} {
		if err := InitRegs(data); err == nil {
			t.Errorf("InitRegs(%T) should fail", data)
		}
	}
}
