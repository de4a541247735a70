package datatype

import (
	"fmt"
	"math/big"

	"github.com/branpk/wafel-sub001/sim"
)

// ValueKind tags the variant a Value holds.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueInt
	ValueFloat
	ValueString
	ValueAddress
	ValueStruct
	ValueArray
)

// Value is the tagged result of reading (or input to writing) a primitive
// or aggregate through a data path. Ints widen on read and truncate on
// write per the target Type; math/big.Int gives Wafel the full 128-bit
// headroom requires without inventing a bespoke wide-int type.
type Value struct {
	Kind    ValueKind
	Int     *big.Int
	Float   float64
	Bytes   []byte
	Address sim.Address
	Struct  []NamedValue
	Array   []Value
}

// NamedValue is one field of a Value in the ValueStruct kind. Ordered to
// match the struct's field order, not sorted.
type NamedValue struct {
	Name  string
	Value Value
}

// Null is the canonical Value for "no value"/"no address".
var Null = Value{Kind: ValueNull}

// NewInt returns an integer Value from an int64 — the common case.
func NewInt(v int64) Value {
	return Value{Kind: ValueInt, Int: big.NewInt(v)}
}

// NewUint returns an integer Value from a uint64 — needed because a
// signed int64 can't represent the top half of a 64-bit unsigned read.
func NewUint(v uint64) Value {
	return Value{Kind: ValueInt, Int: new(big.Int).SetUint64(v)}
}

// NewFloat returns a floating point Value.
func NewFloat(v float64) Value {
	return Value{Kind: ValueFloat, Float: v}
}

// NewAddress returns an address-typed Value.
func NewAddress(a sim.Address) Value {
	return Value{Kind: ValueAddress, Address: a}
}

// NewString returns a byte-string Value (fixed-length char arrays read as
// a path's base type, not a Go string: no encoding is assumed).
func NewString(b []byte) Value {
	return Value{Kind: ValueString, Bytes: b}
}

// MarshalText implements encoding.TextMarshaler so a Value encodes into
// TOML without a bespoke codec: every kind marshals as its String()
// form. Value has no UnmarshalText, so decoding back is not supported.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool {
	return v.Kind == ValueNull
}

// Field looks up a named field of a ValueStruct by name.
func (v Value) Field(name string) (Value, bool) {
	for _, nv := range v.Struct {
		if nv.Name == name {
			return nv.Value, true
		}
	}
	return Value{}, false
}

// Int64 returns the value's integer payload truncated to an int64. Callers
// that need the full width should use v.Int directly.
func (v Value) Int64() int64 {
	if v.Int == nil {
		return 0
	}
	return v.Int.Int64()
}

// Uint64 returns the value's integer payload truncated to a uint64.
func (v Value) Uint64() uint64 {
	if v.Int == nil {
		return 0
	}
	return v.Int.Uint64()
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNull:
		return "null"
	case ValueInt:
		return v.Int.String()
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueString:
		return string(v.Bytes)
	case ValueAddress:
		return fmt.Sprintf("0x%X", uint64(v.Address))
	case ValueStruct:
		return "struct{...}"
	case ValueArray:
		return fmt.Sprintf("[%d]", len(v.Array))
	default:
		return "?"
	}
}

// TruncateInt masks the value's integer payload down to width bits,
// re-applying the sign if signed is true. Used on write, where a wider
// intermediate (e.g. from Lua or a config file) must fit the target
// primitive's declared width.
func TruncateInt(value *big.Int, width int, signed bool) *big.Int {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	mask.Sub(mask, big.NewInt(1))
	out := new(big.Int).And(value, mask)
	if signed {
		signBit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
		if out.Cmp(signBit) >= 0 {
			out.Sub(out, new(big.Int).Lsh(big.NewInt(1), uint(width)))
		}
	}
	return out
}
