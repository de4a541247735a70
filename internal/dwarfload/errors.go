package dwarfload

import "fmt"

// UnsupportedLocationError describes a global variable whose
// DW_AT_location expression isn't the simple "DW_OP_addr <addr>" form this
// loader understands. Wafel only targets static globals in a known,
// non-relocated binary — anything fancier (register-relative,
// loclist-based) isn't a static global in that sense. LoadFromELF does
// not return this error: it silently skips such globals instead of
// failing the whole load.
type UnsupportedLocationError struct {
	Variable string
}

func (e *UnsupportedLocationError) Error() string {
	return fmt.Sprintf("dwarfload: global %q has a non-address location expression", e.Variable)
}

// UnsupportedTypeError describes a DWARF type tag this loader does not
// know how to translate into a typelayout.Desc. LoadFromELF does not
// return it: entries with unknown tags are skipped.
type UnsupportedTypeError struct {
	Tag string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("dwarfload: unsupported DWARF type tag %q", e.Tag)
}
