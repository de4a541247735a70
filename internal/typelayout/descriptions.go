package typelayout

import (
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/sim"
)

// TypeID is a description-local identifier used to wire up shallow
// references between types before Build resolves them into a real type
// graph. IDs only need to be unique within one Descriptions value.
type TypeID string

// SizeKind tags which form a SizeSpec takes.
type SizeKind int

const (
	SizeUnknown SizeKind = iota
	SizeKnown
	SizeDefer
)

// SizeSpec is a type's declared size
// Known(n), Defer(other_id), or Unknown (only legal for void and
// unbounded arrays).
type SizeSpec struct {
	Kind    SizeKind
	Known   int64
	DeferID TypeID
}

// Known returns a SizeSpec carrying an already-known byte size, typically
// read straight out of the native library's debug info.
func Known(n int64) SizeSpec { return SizeSpec{Kind: SizeKnown, Known: n} }

// DeferTo returns a SizeSpec that defers sizing to another description by
// ID — used when two types are known to share a size (e.g. a typedef
// description pointing at its underlying type) before either is resolved.
func DeferTo(id TypeID) SizeSpec { return SizeSpec{Kind: SizeDefer, DeferID: id} }

// FieldDesc is one field of a Struct or Union description.
type FieldDesc struct {
	Name   string
	Offset int64
	Type   TypeID
}

// Desc describes one node of the type graph before it has been built.
// Only the fields relevant to Kind are read.
type Desc struct {
	ID   TypeID
	Kind datatype.Kind

	// KindInt
	Signed bool
	Width  int // bits

	// KindFloat reuses Width (32 or 64)

	// KindPointer
	Pointee TypeID
	Stride  *int64

	// KindArray
	Element TypeID
	Length  *int64

	// KindStruct, KindUnion
	Fields []FieldDesc

	// KindName — a forward/lazy reference into the Named table below.
	// Name descriptions never need a Size; they're leaves of the
	// dependency graph and resolved after every other type is built.
	NameSpace datatype.Namespace
	Ident     string

	Size SizeSpec
}

// NamedTypeDesc binds a (namespace, identifier) pair — the vocabulary a
// data path root like `struct Foo` or a field's Name reference uses — to
// one of the Desc entries above.
type NamedTypeDesc struct {
	NameSpace datatype.Namespace
	Ident     string
	Type      TypeID
}

// GlobalDesc describes one entry of the globals table.
type GlobalDesc struct {
	Name    string
	Type    TypeID
	Address sim.Address
}

// ConstantDesc describes one named integer constant (an enum value, a
// flag bit, an array bound) usable from data-path index/mask expressions.
type ConstantDesc struct {
	Name  string
	Value int64
}

// Descriptions is the complete, shallow input to Build: every type node
// the native library exposes, the names bound to them, the global
// variables, and the named integer constants.
type Descriptions struct {
	Types     []Desc
	Named     []NamedTypeDesc
	Globals   []GlobalDesc
	Constants []ConstantDesc

	// PointerWidth is the platform's pointer size in bytes (4 or 8),
	// supplied by whatever loaded the native library — the type graph
	// itself doesn't know it ("pointer platform-
	// dependent and provided by memory").
	PointerWidth int64
}
