// Package memview is abstract, typed read/write access to
// primitives at addresses within a slot. It is the only code in the repo
// that calls sim.Simulator's Read*/Write* methods directly — everything
// above it (internal/datapath's evaluator) goes through here rather than
// through a raw byte slice.
package memview

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/sim"
)

// AddressRange is a half-open [Start, End) span of static (non-slot)
// memory: a small list of ranges consulted on every access, rather than
// a bit per byte.
type AddressRange struct {
	Start sim.Address
	End   sim.Address
}

// Contains reports whether addr falls within the range.
func (r AddressRange) Contains(addr sim.Address) bool {
	return addr >= r.Start && addr < r.End
}

// View is a Memory View over one simulator. staticRanges marks addresses
// that are never part of a slot's own relocatable buffer — writing to one
// is forbidden regardless of which slot is passed in.
type View struct {
	sim          sim.Simulator
	staticRanges []AddressRange
}

// New returns a Memory View over sim, forbidding writes into any of the
// given static ranges.
func New(s sim.Simulator, staticRanges []AddressRange) *View {
	return &View{sim: s, staticRanges: staticRanges}
}

func (v *View) isStatic(addr sim.Address) bool {
	for _, r := range v.staticRanges {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

func (v *View) checkRead(addr sim.Address) error {
	if addr == sim.Null {
		return ErrNullDeref
	}
	return nil
}

func (v *View) checkWrite(addr sim.Address) error {
	if addr == sim.Null {
		return ErrNullDeref
	}
	if v.isStatic(addr) {
		return &WriteToStaticMemoryError{Address: addr}
	}
	return nil
}

// ReadU8/16/32/64 and ReadAddress read one primitive at addr within slot.
func (v *View) ReadU8(slot sim.Slot, addr sim.Address) (uint8, error) {
	if err := v.checkRead(addr); err != nil {
		return 0, err
	}
	val, err := v.sim.ReadU8(slot, addr)
	if err != nil {
		return 0, &InvalidAddressError{Address: addr, Width: 8, Cause: err}
	}
	return val, nil
}

func (v *View) ReadU16(slot sim.Slot, addr sim.Address) (uint16, error) {
	if err := v.checkRead(addr); err != nil {
		return 0, err
	}
	val, err := v.sim.ReadU16(slot, addr)
	if err != nil {
		return 0, &InvalidAddressError{Address: addr, Width: 16, Cause: err}
	}
	return val, nil
}

func (v *View) ReadU32(slot sim.Slot, addr sim.Address) (uint32, error) {
	if err := v.checkRead(addr); err != nil {
		return 0, err
	}
	val, err := v.sim.ReadU32(slot, addr)
	if err != nil {
		return 0, &InvalidAddressError{Address: addr, Width: 32, Cause: err}
	}
	return val, nil
}

func (v *View) ReadU64(slot sim.Slot, addr sim.Address) (uint64, error) {
	if err := v.checkRead(addr); err != nil {
		return 0, err
	}
	val, err := v.sim.ReadU64(slot, addr)
	if err != nil {
		return 0, &InvalidAddressError{Address: addr, Width: 64, Cause: err}
	}
	return val, nil
}

func (v *View) ReadAddress(slot sim.Slot, addr sim.Address) (sim.Address, error) {
	if err := v.checkRead(addr); err != nil {
		return sim.Null, err
	}
	val, err := v.sim.ReadAddr(slot, addr)
	if err != nil {
		return sim.Null, &InvalidAddressError{Address: addr, Width: 64, Cause: err}
	}
	return val, nil
}

// WriteU8/16/32/64 and WriteAddress write one primitive at addr within
// slot. Writing to sim.Null or to a static range both fail without
// touching the simulator.
func (v *View) WriteU8(slot sim.Slot, addr sim.Address, val uint8) error {
	if err := v.checkWrite(addr); err != nil {
		return err
	}
	if err := v.sim.WriteU8(slot, addr, val); err != nil {
		return &InvalidAddressError{Address: addr, Width: 8, Write: true, Cause: err}
	}
	return nil
}

func (v *View) WriteU16(slot sim.Slot, addr sim.Address, val uint16) error {
	if err := v.checkWrite(addr); err != nil {
		return err
	}
	if err := v.sim.WriteU16(slot, addr, val); err != nil {
		return &InvalidAddressError{Address: addr, Width: 16, Write: true, Cause: err}
	}
	return nil
}

func (v *View) WriteU32(slot sim.Slot, addr sim.Address, val uint32) error {
	if err := v.checkWrite(addr); err != nil {
		return err
	}
	if err := v.sim.WriteU32(slot, addr, val); err != nil {
		return &InvalidAddressError{Address: addr, Width: 32, Write: true, Cause: err}
	}
	return nil
}

func (v *View) WriteU64(slot sim.Slot, addr sim.Address, val uint64) error {
	if err := v.checkWrite(addr); err != nil {
		return err
	}
	if err := v.sim.WriteU64(slot, addr, val); err != nil {
		return &InvalidAddressError{Address: addr, Width: 64, Write: true, Cause: err}
	}
	return nil
}

func (v *View) WriteAddress(slot sim.Slot, addr sim.Address, val sim.Address) error {
	if err := v.checkWrite(addr); err != nil {
		return err
	}
	if err := v.sim.WriteAddr(slot, addr, val); err != nil {
		return &InvalidAddressError{Address: addr, Width: 64, Write: true, Cause: err}
	}
	return nil
}

// ReadInt reads a width-bit integer at addr and returns it as a big.Int,
// sign-extended if signed. width must be 8, 16, 32, or 64.
func (v *View) ReadInt(slot sim.Slot, addr sim.Address, width int, signed bool) (*big.Int, error) {
	var raw uint64
	var err error
	switch width {
	case 8:
		var u8 uint8
		u8, err = v.ReadU8(slot, addr)
		raw = uint64(u8)
	case 16:
		var u16 uint16
		u16, err = v.ReadU16(slot, addr)
		raw = uint64(u16)
	case 32:
		var u32 uint32
		u32, err = v.ReadU32(slot, addr)
		raw = uint64(u32)
	case 64:
		raw, err = v.ReadU64(slot, addr)
	default:
		return nil, errors.Errorf("memview: unsupported integer width %d", width)
	}
	if err != nil {
		return nil, err
	}
	result := new(big.Int).SetUint64(raw)
	if signed {
		result = datatype.TruncateInt(result, width, true)
	}
	return result, nil
}

// WriteInt truncates value to width bits (reapplying sign if signed) and
// writes it at addr.
func (v *View) WriteInt(slot sim.Slot, addr sim.Address, width int, signed bool, value *big.Int) error {
	truncated := datatype.TruncateInt(value, width, signed)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
	u64 := new(big.Int).And(truncated, mask).Uint64()
	switch width {
	case 8:
		return v.WriteU8(slot, addr, uint8(u64))
	case 16:
		return v.WriteU16(slot, addr, uint16(u64))
	case 32:
		return v.WriteU32(slot, addr, uint32(u64))
	case 64:
		return v.WriteU64(slot, addr, u64)
	default:
		return errors.Errorf("memview: unsupported integer width %d", width)
	}
}

// ReadFloat reads a 32- or 64-bit IEEE 754 float at addr.
func (v *View) ReadFloat(slot sim.Slot, addr sim.Address, width int) (float64, error) {
	switch width {
	case 32:
		bits, err := v.ReadU32(slot, addr)
		if err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(bits)), nil
	case 64:
		bits, err := v.ReadU64(slot, addr)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(bits), nil
	default:
		return 0, errors.Errorf("memview: unsupported float width %d", width)
	}
}

// WriteFloat writes a 32- or 64-bit IEEE 754 float at addr, narrowing
// from float64 for a 32-bit target.
func (v *View) WriteFloat(slot sim.Slot, addr sim.Address, width int, value float64) error {
	switch width {
	case 32:
		return v.WriteU32(slot, addr, math.Float32bits(float32(value)))
	case 64:
		return v.WriteU64(slot, addr, math.Float64bits(value))
	default:
		return errors.Errorf("memview: unsupported float width %d", width)
	}
}
