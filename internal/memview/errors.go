package memview

import (
	"fmt"

	"github.com/branpk/wafel-sub001/sim"
)

// ErrNullDeref is returned when a read or write targets sim.Null. Only the
// data path's `?` edge is allowed to observe and short-circuit a null
// pointer; every other access through a null address is an error.
var ErrNullDeref = fmt.Errorf("memview: null pointer dereference")

// WriteToStaticMemoryError reports an attempted write to an address
// outside any slot's relocatable buffer — e.g. a raw symbol address
// living in the simulator's static data segment. Per spec, such a write
// is forbidden outright rather than merely discouraged: it would mutate
// state shared across every slot at once, silently breaking the
// single-slot-ownership model the rest of the package relies on.
type WriteToStaticMemoryError struct {
	Address sim.Address
}

func (e *WriteToStaticMemoryError) Error() string {
	return fmt.Sprintf("memview: write to static memory at %#x is forbidden", uint64(e.Address))
}

// InvalidAddressError wraps a low-level read/write failure reported by
// the simulator ABI with the address and access width that triggered it.
type InvalidAddressError struct {
	Address sim.Address
	Width   int
	Write   bool
	Cause   error
}

func (e *InvalidAddressError) Error() string {
	verb := "read"
	if e.Write {
		verb = "write"
	}
	return fmt.Sprintf("memview: invalid address %#x (%d-bit %s): %v", uint64(e.Address), e.Width, verb, e.Cause)
}

func (e *InvalidAddressError) Unwrap() error { return e.Cause }
