// Package datatype holds the C-style type and value vocabulary shared by
// the type layout builder, the data-path compiler, and the memory view.
// Types are immutable once built and compared by pointer identity — two
// Types describing the same shape but built independently are distinct.
package datatype

import "fmt"

// Kind tags the variant a Type holds.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindName:
		return "name"
	default:
		return "unknown"
	}
}

// Namespace distinguishes the three tables a Name can refer into.
type Namespace int

const (
	NamespaceStruct Namespace = iota
	NamespaceUnion
	NamespaceTypedef
)

// Field is one named, offset member of a Struct or Union.
type Field struct {
	Name   string
	Offset int64
	Type   *Type
}

// Type is a tagged variant over the C-style shapes a type layout can
// describe. Only the fields relevant to Kind are populated; the rest are
// zero. Types are built once by internal/typelayout and never mutated
// afterward (Name
// resolution happens by mutating the Resolved pointer exactly once,
// during build — see internal/typelayout.Build).
type Type struct {
	Kind Kind

	// KindInt
	Signed bool
	Width  int // 8, 16, 32, 64

	// KindFloat uses Width too (32 or 64)

	// KindPointer
	Pointee *Type
	Stride  *int64 // nil if the pointee's size isn't known at build time

	// KindArray
	Element *Type
	Length  *int64 // nil for an unbounded/flexible array
	ArrStride int64

	// KindStruct, KindUnion
	Fields []Field

	// KindName
	NameSpace Namespace
	Ident     string
	Resolved  *Type // filled in during typelayout.Build; nil until then
}

// Void is the shared singleton void type.
var Void = &Type{Kind: KindVoid}

// NewIntType returns a new integer type of the given signedness and bit width.
func NewIntType(signed bool, width int) *Type {
	return &Type{Kind: KindInt, Signed: signed, Width: width}
}

// NewFloatType returns a new floating point type of the given bit width.
func NewFloatType(width int) *Type {
	return &Type{Kind: KindFloat, Width: width}
}

// NewPointer returns a new pointer-to-pointee type. stride is the size of
// one pointee element for `[k]` indexing; pass nil when it isn't known.
func NewPointer(pointee *Type, stride *int64) *Type {
	return &Type{Kind: KindPointer, Pointee: pointee, Stride: stride}
}

// NewArray returns a new array-of-element type. length is nil for an
// unbounded array.
func NewArray(element *Type, length *int64, stride int64) *Type {
	return &Type{Kind: KindArray, Element: element, Length: length, ArrStride: stride}
}

// NewStruct returns a new struct type with the given ordered fields.
func NewStruct(fields []Field) *Type {
	return &Type{Kind: KindStruct, Fields: fields}
}

// NewUnion returns a new union type with the given ordered fields (fields
// share offset 0 in practice, but callers may describe explicit overlay
// offsets).
func NewUnion(fields []Field) *Type {
	return &Type{Kind: KindUnion, Fields: fields}
}

// NewName returns an unresolved reference into one of the layout's
// namespaces. Resolve it via internal/typelayout.Layout.Concrete.
func NewName(ns Namespace, ident string) *Type {
	return &Type{Kind: KindName, NameSpace: ns, Ident: ident}
}

// Field looks up a struct/union field by name.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindInt:
		sign := "u"
		if t.Signed {
			sign = "s"
		}
		return fmt.Sprintf("%sint%d", sign, t.Width)
	case KindFloat:
		return fmt.Sprintf("float%d", t.Width)
	case KindPointer:
		return fmt.Sprintf("*%s", t.Pointee)
	case KindArray:
		if t.Length != nil {
			return fmt.Sprintf("[%d]%s", *t.Length, t.Element)
		}
		return fmt.Sprintf("[]%s", t.Element)
	case KindStruct:
		return "struct{...}"
	case KindUnion:
		return "union{...}"
	case KindName:
		return fmt.Sprintf("%s(%s)", t.NameSpace, t.Ident)
	default:
		return "?"
	}
}

func (n Namespace) String() string {
	switch n {
	case NamespaceStruct:
		return "struct"
	case NamespaceUnion:
		return "union"
	case NamespaceTypedef:
		return "typedef"
	default:
		return "?"
	}
}
