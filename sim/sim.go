// Package sim defines the boundary between Wafel and the native game
// library it drives. Wafel never rewrites or interprets the game binary —
// it treats it as a black box stepped forward one frame at a time, and
// everything in this file is the interface that black box must expose.
package sim

// Address is a machine-word value tagged as pointing either into a Slot's
// buffer (relocatable) or outside it (static, e.g. a symbol in the game's
// data segment). Null is the distinguished zero value.
type Address uint64

// Null is the distinguished "no address" value.
const Null Address = 0

// Add returns addr+offset. Adding to Null stays Null, matching the
// pointer-arithmetic-on-nil convention callers rely on when chasing
// optional fields.
func (a Address) Add(offset int64) Address {
	if a == Null {
		return Null
	}
	return Address(int64(a) + offset)
}

// Slot is an opaque handle to a buffer owned by the simulator holding one
// complete copy of the game's mutable state. Slots are never aliased: any
// call that mutates a slot has unique access to it for the duration of the
// call.
type Slot interface {
	// slotHandle is unexported so only a Simulator's own slot values
	// satisfy this interface — callers can't fabricate one.
	slotHandle()
}

// SlotHandle grants the unexported slotHandle method. A Simulator
// implementation embeds this in its slot type to satisfy Slot, since
// slotHandle can only be defined from within this package.
type SlotHandle struct{}

func (SlotHandle) slotHandle() {}

// GlobalDescriptor names one symbol the native library exposes, with its
// resolved static address (or Null if the simulator could not resolve it,
// e.g. a symbol optimized away in release builds).
type GlobalDescriptor struct {
	Name    string
	Address Address
}

// Simulator is the ABI a native game library exposes. All methods except
// CreateBackupSlot are expected to be cheap and are called on the
// hot path of scrubbing through a movie.
type Simulator interface {
	// CreateBackupSlot allocates a new slot sized to hold one full copy
	// of the game's state. The returned slot starts in an undefined
	// content state — callers must CopySlot into it before reading.
	CreateBackupSlot() (Slot, error)

	// PowerOnSlot returns the simulator's immutable baseline slot,
	// representing the game's state immediately after init() and before
	// any frame has been advanced. It must never be passed as dst to
	// CopySlot or AdvanceBaseSlot.
	PowerOnSlot() Slot

	// BaseSlot returns the single slot AdvanceBaseSlot is legal on.
	BaseSlot() Slot

	// CopySlot overwrites dst's contents with src's (memcpy-equivalent).
	// dst must not be the power-on slot.
	CopySlot(dst, src Slot) error

	// AdvanceBaseSlot runs one deterministic simulation step (the game's
	// update entry point) against the base slot's contents in place.
	AdvanceBaseSlot() error

	// ReadU8/16/32/64/Addr read a little-endian primitive out of the
	// given slot at the given address.
	ReadU8(slot Slot, addr Address) (uint8, error)
	ReadU16(slot Slot, addr Address) (uint16, error)
	ReadU32(slot Slot, addr Address) (uint32, error)
	ReadU64(slot Slot, addr Address) (uint64, error)
	ReadAddr(slot Slot, addr Address) (Address, error)

	// WriteU8/16/32/64/Addr write a little-endian primitive into the
	// given slot at the given address. Writing to a slot outside the
	// base/backups (i.e. the power-on slot, or static memory outside any
	// slot's buffer) is forbidden and may leave the game in an undefined
	// state — callers are expected to guard against it; see
	// internal/memview.
	WriteU8(slot Slot, addr Address, v uint8) error
	WriteU16(slot Slot, addr Address, v uint16) error
	WriteU32(slot Slot, addr Address, v uint32) error
	WriteU64(slot Slot, addr Address, v uint64) error
	WriteAddr(slot Slot, addr Address, v Address) error

	// SymbolAddress resolves a global's static address, or returns
	// (sim.Null, false) if the symbol does not exist in this build of
	// the library.
	SymbolAddress(name string) (Address, bool)

	// TypeDescription returns the serialized type/global/constant
	// description the library was built with — typically extracted once
	// from the library's debug info at load time. See
	// internal/typelayout.Descriptions for the shape Wafel expects and
	// internal/dwarfload for one way to produce it.
	TypeDescription() ([]byte, error)
}
