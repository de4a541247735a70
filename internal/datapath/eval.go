package datapath

import (
	"math/big"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/sim"
)

// Memory is the subset of *memview.View the evaluator needs.
type Memory interface {
	ReadAddress(slot sim.Slot, addr sim.Address) (sim.Address, error)
	WriteAddress(slot sim.Slot, addr sim.Address, val sim.Address) error
	ReadInt(slot sim.Slot, addr sim.Address, width int, signed bool) (*big.Int, error)
	WriteInt(slot sim.Slot, addr sim.Address, width int, signed bool, value *big.Int) error
	ReadFloat(slot sim.Slot, addr sim.Address, width int) (float64, error)
	WriteFloat(slot sim.Slot, addr sim.Address, width int, value float64) error
}

var _ Memory = (*memview.View)(nil)

// address walks p's edges against slot starting from its root, per
// evaluation rules: Offset does address arithmetic only,
// Deref reads a pointer and follows it, Nullable peeks the pointer at the
// current address and short-circuits the whole evaluation to "no
// address" without consuming it if null.
//
// Returns ok=false (with a nil error) exactly when a Nullable edge found
// a null pointer — the caller's signal to produce datatype.Null on read
// or silently no-op on write.
func address(p *DataPath, m Memory, slot sim.Slot) (addr sim.Address, ok bool, err error) {
	if p.Root.Kind != RootGlobal {
		return sim.Null, false, &NotAddressableError{Type: p.Root.Type.String()}
	}
	addr = p.Root.Address
	for _, e := range p.Edges {
		switch e.Kind {
		case EdgeOffset:
			addr = addr.Add(e.Offset)
		case EdgeDeref:
			next, err := m.ReadAddress(slot, addr)
			if err != nil {
				return sim.Null, false, err
			}
			if next == sim.Null {
				return sim.Null, false, memview.ErrNullDeref
			}
			addr = next
		case EdgeNullable:
			peek, err := m.ReadAddress(slot, addr)
			if err != nil {
				return sim.Null, false, err
			}
			if peek == sim.Null {
				return sim.Null, false, nil
			}
		}
	}
	return addr, true, nil
}

// Read evaluates p against slot and returns the value stored there.
// A Nullable edge over a null pointer yields datatype.Null.
func Read(p *DataPath, m Memory, slot sim.Slot, layout Layout) (datatype.Value, error) {
	addr, ok, err := address(p, m, slot)
	if err != nil {
		return datatype.Value{}, err
	}
	if !ok {
		return datatype.Null, nil
	}
	v, err := readTyped(p.ConcreteType, m, slot, addr, layout)
	if err != nil {
		return datatype.Value{}, err
	}
	if p.HasMask {
		if v.Kind != datatype.ValueInt {
			return datatype.Value{}, &MaskOnNonIntError{Type: p.ConcreteType.String()}
		}
		v = datatype.Value{Kind: datatype.ValueInt, Int: new(big.Int).And(v.Int, p.Mask)}
	}
	return v, nil
}

// Write evaluates p against slot and stores value there. A Nullable edge
// over a null pointer is a silent no-op, preserving "reset when pointer
// absent" semantics.
func Write(p *DataPath, m Memory, slot sim.Slot, layout Layout, value datatype.Value) error {
	addr, ok, err := address(p, m, slot)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if p.HasMask {
		concrete, err := layout.Concrete(p.ConcreteType)
		if err != nil {
			return err
		}
		if concrete.Kind != datatype.KindInt {
			return &MaskOnNonIntError{Type: p.ConcreteType.String()}
		}
		if value.Kind != datatype.ValueInt {
			return &ValueKindMismatchError{Type: p.ConcreteType.String(), Value: value.String()}
		}
		old, err := m.ReadInt(slot, addr, concrete.Width, concrete.Signed)
		if err != nil {
			return err
		}
		notMask := new(big.Int).Not(p.Mask)
		masked := new(big.Int).And(value.Int, p.Mask)
		newVal := new(big.Int).Or(new(big.Int).And(old, notMask), masked)
		return m.WriteInt(slot, addr, concrete.Width, concrete.Signed, newVal)
	}
	return writeTyped(p.ConcreteType, m, slot, addr, layout, value)
}

// readTyped reads a single value of type t at addr, recursing into
// aggregates field by field / element by element.
func readTyped(t *datatype.Type, m Memory, slot sim.Slot, addr sim.Address, layout Layout) (datatype.Value, error) {
	concrete, err := layout.Concrete(t)
	if err != nil {
		return datatype.Value{}, err
	}
	switch concrete.Kind {
	case datatype.KindInt:
		v, err := m.ReadInt(slot, addr, concrete.Width, concrete.Signed)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.Value{Kind: datatype.ValueInt, Int: v}, nil

	case datatype.KindFloat:
		v, err := m.ReadFloat(slot, addr, concrete.Width)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.NewFloat(v), nil

	case datatype.KindPointer:
		v, err := m.ReadAddress(slot, addr)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.NewAddress(v), nil

	case datatype.KindStruct, datatype.KindUnion:
		fields := make([]datatype.NamedValue, len(concrete.Fields))
		for i, f := range concrete.Fields {
			fv, err := readTyped(f.Type, m, slot, addr.Add(f.Offset), layout)
			if err != nil {
				return datatype.Value{}, err
			}
			fields[i] = datatype.NamedValue{Name: f.Name, Value: fv}
		}
		return datatype.Value{Kind: datatype.ValueStruct, Struct: fields}, nil

	case datatype.KindArray:
		if concrete.Length == nil {
			return datatype.Value{}, &UnsizedBaseTypeError{Type: concrete.String()}
		}
		n := *concrete.Length
		elems := make([]datatype.Value, n)
		for i := int64(0); i < n; i++ {
			ev, err := readTyped(concrete.Element, m, slot, addr.Add(i*concrete.ArrStride), layout)
			if err != nil {
				return datatype.Value{}, err
			}
			elems[i] = ev
		}
		return datatype.Value{Kind: datatype.ValueArray, Array: elems}, nil

	default:
		return datatype.Value{}, &UnsizedBaseTypeError{Type: concrete.String()}
	}
}

// writeTyped writes value (of a type compatible with t) at addr.
func writeTyped(t *datatype.Type, m Memory, slot sim.Slot, addr sim.Address, layout Layout, value datatype.Value) error {
	concrete, err := layout.Concrete(t)
	if err != nil {
		return err
	}
	switch concrete.Kind {
	case datatype.KindInt:
		if value.Kind != datatype.ValueInt {
			return &ValueKindMismatchError{Type: concrete.String(), Value: value.String()}
		}
		return m.WriteInt(slot, addr, concrete.Width, concrete.Signed, value.Int)

	case datatype.KindFloat:
		if value.Kind != datatype.ValueFloat {
			return &ValueKindMismatchError{Type: concrete.String(), Value: value.String()}
		}
		return m.WriteFloat(slot, addr, concrete.Width, value.Float)

	case datatype.KindPointer:
		if value.Kind != datatype.ValueAddress {
			return &ValueKindMismatchError{Type: concrete.String(), Value: value.String()}
		}
		return m.WriteAddress(slot, addr, value.Address)

	case datatype.KindStruct:
		if value.Kind != datatype.ValueStruct {
			return &ValueKindMismatchError{Type: concrete.String(), Value: value.String()}
		}
		if mismatch := structFieldMismatch(concrete, value); mismatch != nil {
			return mismatch
		}
		for _, f := range concrete.Fields {
			nv, _ := value.Field(f.Name)
			if err := writeTyped(f.Type, m, slot, addr.Add(f.Offset), layout, nv); err != nil {
				return err
			}
		}
		return nil

	case datatype.KindUnion:
		return &UnionWriteDisallowedError{Type: concrete.String()}

	case datatype.KindArray:
		if value.Kind != datatype.ValueArray {
			return &ValueKindMismatchError{Type: concrete.String(), Value: value.String()}
		}
		if concrete.Length == nil {
			return &UnsizedBaseTypeError{Type: concrete.String()}
		}
		n := *concrete.Length
		if int64(len(value.Array)) != n {
			return &IndexOutOfBoundsError{Index: int64(len(value.Array)), Length: n}
		}
		for i := int64(0); i < n; i++ {
			if err := writeTyped(concrete.Element, m, slot, addr.Add(i*concrete.ArrStride), layout, value.Array[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		return &UnsizedBaseTypeError{Type: concrete.String()}
	}
}

// structFieldMismatch reports extra/missing fields between a struct
// type and a ValueStruct meant to be written to it.
func structFieldMismatch(t *datatype.Type, value datatype.Value) error {
	want := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		want[f.Name] = true
	}
	have := make(map[string]bool, len(value.Struct))
	for _, nv := range value.Struct {
		have[nv.Name] = true
	}
	var missing, extra []string
	for name := range want {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	for name := range have {
		if !want[name] {
			extra = append(extra, name)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return &StructFieldMismatchError{Type: t.String(), Missing: missing, Extra: extra}
}
