package datapath

import "fmt"

// ParseError reports a malformed path source string, with the byte
// offset into source where parsing gave up.
type ParseError struct {
	Source string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("datapath: parse error in %q at offset %d: %s", e.Source, e.Offset, e.Reason)
}

// UndefinedFieldError reports `.f`/`->f` against a struct or union with
// no field of that name.
type UndefinedFieldError struct {
	Type  string
	Field string
}

func (e *UndefinedFieldError) Error() string {
	return fmt.Sprintf("datapath: %s has no field %q", e.Type, e.Field)
}

// UndefinedSymbolError reports a root identifier that resolves to neither
// a global nor a typedef. An unknown constant in an index or mask is
// reported by the layout's own Constant lookup error instead.
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("datapath: undefined symbol %q", e.Name)
}

// UndefinedTypeError describes a tagged root (`struct X`, `union X`,
// `typedef X`) naming a type the layout doesn't have. Compile does not
// return it: such a root fails with the layout's TypeByName error.
type UndefinedTypeError struct {
	NameSpace string
	Ident     string
}

func (e *UndefinedTypeError) Error() string {
	return fmt.Sprintf("datapath: undefined %s %q", e.NameSpace, e.Ident)
}

// NotAStructError reports `.f`/`->f` against a type that isn't a struct
// or union (after auto-deref through at most one pointer).
type NotAStructError struct {
	Type string
}

func (e *NotAStructError) Error() string {
	return fmt.Sprintf("datapath: %s is not a struct or union", e.Type)
}

// NotAnArrayError reports `[k]` against a type that is neither an array
// nor a pointer.
type NotAnArrayError struct {
	Type string
}

func (e *NotAnArrayError) Error() string {
	return fmt.Sprintf("datapath: %s is not an array or pointer", e.Type)
}

// NotAPointerError reports `->f` or `?` against a non-pointer type.
type NotAPointerError struct {
	Type string
	Edge string
}

func (e *NotAPointerError) Error() string {
	return fmt.Sprintf("datapath: %s is not a pointer (for %s)", e.Type, e.Edge)
}

// IndexOutOfBoundsError reports `[k]` against an array of known length
// with k outside [0, length).
type IndexOutOfBoundsError struct {
	Index  int64
	Length int64
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("datapath: index %d out of bounds for array of length %d", e.Index, e.Length)
}

// UnsizedBaseTypeError reports an operation needing a byte size (pointer
// indexing with k≠0, reading/writing an array whole) where the base
// type's size, or stride, is not known.
type UnsizedBaseTypeError struct {
	Type string
}

func (e *UnsizedBaseTypeError) Error() string {
	return fmt.Sprintf("datapath: %s has no known size", e.Type)
}

// MaskOnNonIntError reports a trailing `& V` where the final concrete
// type is not an integer.
type MaskOnNonIntError struct {
	Type string
}

func (e *MaskOnNonIntError) Error() string {
	return fmt.Sprintf("datapath: cannot mask non-integer type %s", e.Type)
}

// ConcatTypeMismatchError reports concat(p1, p2) where p1's concrete
// type and p2's root type disagree.
type ConcatTypeMismatchError struct {
	Left  string
	Right string
}

func (e *ConcatTypeMismatchError) Error() string {
	return fmt.Sprintf("datapath: cannot concatenate %s with path rooted at %s", e.Left, e.Right)
}

// NotAddressableError reports an attempt to evaluate a Local-rooted path
// directly; Local paths only become addressable once concatenated onto a
// Global (or already-addressable) path.
type NotAddressableError struct {
	Type string
}

func (e *NotAddressableError) Error() string {
	return fmt.Sprintf("datapath: path rooted at local type %s has no address of its own; concatenate it onto an addressable path first", e.Type)
}

// ValueKindMismatchError reports a Write whose supplied Value doesn't
// match the path's concrete type's kind.
type ValueKindMismatchError struct {
	Type  string
	Value string
}

func (e *ValueKindMismatchError) Error() string {
	return fmt.Sprintf("datapath: value %s does not match type %s", e.Value, e.Type)
}

// StructFieldMismatchError reports a struct Write whose Value carries
// extra or missing fields relative to the target type.
type StructFieldMismatchError struct {
	Type    string
	Missing []string
	Extra   []string
}

func (e *StructFieldMismatchError) Error() string {
	return fmt.Sprintf("datapath: struct write to %s: missing %v, extra %v", e.Type, e.Missing, e.Extra)
}

// UnionWriteDisallowedError reports an attempt to write a union value as
// a whole — disallowed because the active arm is ambiguous.
type UnionWriteDisallowedError struct {
	Type string
}

func (e *UnionWriteDisallowedError) Error() string {
	return fmt.Sprintf("datapath: cannot write union %s as a whole value", e.Type)
}
