package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	offset uint32
	regPtr any
}

type tagOpts map[string]string

func parseTag(tag string) tagOpts {
	opts := make(tagOpts)
	for _, kv := range strings.Split(tag, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		opts[k] = v
	}
	return opts
}

func (o tagOpts) uint(key string, bits int) (uint64, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, true, nil
}

func structOf(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("hwio: pointer to struct expected")
	}
	return v, nil
}

// method looks up a callback method on the bank. The name is either the one
// given in the tag, or the prefix followed by the uppercase field name.
func method(bank reflect.Value, opts tagOpts, key, prefix, field string, dst any) error {
	name, ok := opts[key]
	if !ok {
		return nil
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return fmt.Errorf("%s: cannot find method %s", field, name)
	}
	fn := reflect.ValueOf(dst).Elem()
	if !m.Type().AssignableTo(fn.Type()) {
		return fmt.Errorf("%s: method %s has type %v, want %v", field, name, m.Type(), fn.Type())
	}
	fn.Set(m)
	return nil
}

func initReg8(bank reflect.Value, field string, reg *Reg8, opts tagOpts) error {
	reg.Name = field
	if v, ok, err := opts.uint("reset", 8); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	} else if ok {
		reg.Value = uint8(v)
	}
	if v, ok, err := opts.uint("romask", 8); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	} else if ok {
		reg.RoMask = uint8(v)
	}
	if _, ok := opts["readonly"]; ok {
		reg.Flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		reg.Flags |= WriteOnlyFlag
	}
	if err := method(bank, opts, "rcb", "Read", field, &reg.ReadCb); err != nil {
		return err
	}
	if err := method(bank, opts, "pcb", "Peek", field, &reg.PeekCb); err != nil {
		return err
	}
	return method(bank, opts, "wcb", "Write", field, &reg.WriteCb)
}

func initMem(bank reflect.Value, field string, mem *Mem, opts tagOpts) error {
	mem.Name = field
	size, ok, err := opts.uint("size", 32)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !ok {
		return fmt.Errorf("%s: size not specified", field)
	}
	if size&(size-1) != 0 {
		return fmt.Errorf("%s: size %#x is not a power of 2", field, size)
	}
	mem.Data = make([]byte, size)
	mem.VSize = int(size)
	if v, ok, err := opts.uint("vsize", 32); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	} else if ok {
		mem.VSize = int(v)
	}
	if _, ok := opts["readonly"]; ok {
		mem.Flags |= MemFlag8ReadOnly
	}
	return method(bank, opts, "wcb", "Write", field, &mem.WriteCb)
}

func initDevice(bank reflect.Value, field string, dev *Device, opts tagOpts) error {
	dev.Name = field
	size, ok, err := opts.uint("size", 32)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !ok {
		return fmt.Errorf("%s: size not specified", field)
	}
	dev.Size = int(size)
	if _, ok := opts["readonly"]; ok {
		dev.Flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		dev.Flags |= WriteOnlyFlag
	}
	if err := method(bank, opts, "rcb", "Read", field, &dev.ReadCb); err != nil {
		return err
	}
	return method(bank, opts, "wcb", "Write", field, &dev.WriteCb)
}

// InitRegs initializes all Reg8, Mem and Device fields of the struct pointed
// by data, according to their "hwio" struct tag:
//
//	reset=0x12      initial register value
//	romask=0xF0     register bits not modified by bus writes
//	size=0x800      size of a Mem buffer (power of 2) or of a Device range
//	vsize=0x2000    mirrored size of a Mem
//	readonly        writes are ignored (and logged)
//	writeonly       reads return 0 (and are logged)
//	rcb, wcb, pcb   bind the read/write/peek callback to the method named
//	                Read<NAME>, Write<NAME> or Peek<NAME> (NAME is the field
//	                name in uppercase); "rcb=Method" binds to a custom name.
func InitRegs(data any) error {
	v, err := structOf(data)
	if err != nil {
		return err
	}
	s := v.Elem()
	for i := 0; i < s.NumField(); i++ {
		sf := s.Type().Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		switch p := s.Field(i).Addr().Interface().(type) {
		case *Reg8:
			err = initReg8(v, sf.Name, p, opts)
		case *Mem:
			err = initMem(v, sf.Name, p, opts)
		case *Device:
			err = initDevice(v, sf.Name, p, opts)
		default:
			err = fmt.Errorf("%s: unsupported hwio field type %T", sf.Name, p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

func bankGetRegs(data any, bankNum int) ([]bankReg, error) {
	v, err := structOf(data)
	if err != nil {
		return nil, err
	}
	s := v.Elem()

	var regs []bankReg
	for i := 0; i < s.NumField(); i++ {
		sf := s.Type().Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		off, ok, err := opts.uint("offset", 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sf.Name, err)
		}
		if !ok {
			continue
		}
		bank, _, err := opts.uint("bank", 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sf.Name, err)
		}
		if int(bank) != bankNum {
			continue
		}
		regs = append(regs, bankReg{offset: uint32(off), regPtr: s.Field(i).Addr().Interface()})
	}
	return regs, nil
}
