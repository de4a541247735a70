// Package typelayout builds the immutable type/global/constant graph a
// native game library describes from a flat,
// shallow Descriptions value, the way a linker resolves a shallow object
// file's symbol table into a concrete address space. Build is the only
// entry point; everything else in the package is a read-only query
// against its result.
package typelayout

import (
	"fmt"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/sim"
)

// maxNameChain bounds Name-to-Name resolution so a malformed Named table
// (a Name description whose Resolved points at another Name, forever)
// fails loudly instead of hanging.
const maxNameChain = 64

// Global is one resolved entry of the globals table: a type paired with
// the static address holding a value of that type.
type Global struct {
	Type    *datatype.Type
	Address sim.Address
}

// Layout is the built result of Build. Safe for concurrent reads; never
// mutated after Build returns.
type Layout struct {
	ptrWidth  int64
	sizeOf    map[*datatype.Type]int64
	types     map[string]*datatype.Type
	globals   map[string]Global
	constants map[string]int64
}

func namedKey(ns datatype.Namespace, ident string) string {
	return fmt.Sprintf("%d:%s", ns, ident)
}

// Build resolves a Descriptions value into a Layout. Types are built in
// dependency order (an array before its bound is known needs its
// element's size; a struct needs every field's type node to already
// exist); a reference that cannot be scheduled — because it forms a
// cycle with no Name indirection to break it — fails with
// CyclicDependencyError rather than looping forever.
func Build(d Descriptions) (*Layout, error) {
	index := make(map[TypeID]*Desc, len(d.Types))
	for i := range d.Types {
		index[d.Types[i].ID] = &d.Types[i]
	}

	deps := make(map[TypeID][]TypeID, len(index))
	for id, desc := range index {
		var ds []TypeID
		if desc.Size.Kind == SizeDefer {
			ds = append(ds, desc.Size.DeferID)
		}
		switch desc.Kind {
		case datatype.KindArray:
			ds = append(ds, desc.Element)
		case datatype.KindPointer:
			if desc.Pointee != "" {
				ds = append(ds, desc.Pointee)
			}
		case datatype.KindStruct, datatype.KindUnion:
			for _, f := range desc.Fields {
				ds = append(ds, f.Type)
			}
		}
		deps[id] = ds
	}

	built := make(map[TypeID]*datatype.Type, len(index))
	sizeOf := make(map[*datatype.Type]int64, len(index))

	remaining := make(map[TypeID]*Desc, len(index))
	for id, desc := range index {
		remaining[id] = desc
	}

	for len(remaining) > 0 {
		progressed := false
		for id, desc := range remaining {
			ready := true
			for _, dep := range deps[id] {
				if _, ok := built[dep]; ok {
					continue
				}
				if _, exists := index[dep]; !exists {
					return nil, &UndefinedTypeIDError{ID: dep}
				}
				ready = false
				break
			}
			if !ready {
				continue
			}

			node, size, hasSize, err := buildNode(desc, built, sizeOf)
			if err != nil {
				return nil, err
			}
			built[id] = node
			if hasSize {
				sizeOf[node] = size
			}
			delete(remaining, id)
			progressed = true
		}
		if !progressed {
			ids := make([]TypeID, 0, len(remaining))
			for id := range remaining {
				ids = append(ids, id)
			}
			return nil, &CyclicDependencyError{IDs: ids}
		}
	}

	types := make(map[string]*datatype.Type, len(d.Named))
	for _, n := range d.Named {
		node, ok := built[n.Type]
		if !ok {
			return nil, &UndefinedTypeIDError{ID: n.Type}
		}
		types[namedKey(n.NameSpace, n.Ident)] = node
	}

	// Every Name node must resolve against the Named table before Build
	// returns: callers never observe a dangling Name.
	for _, node := range built {
		if node.Kind != datatype.KindName {
			continue
		}
		target, ok := types[namedKey(node.NameSpace, node.Ident)]
		if !ok {
			return nil, &UndefinedTypeNameError{NameSpace: node.NameSpace.String(), Ident: node.Ident}
		}
		node.Resolved = target
	}

	globals := make(map[string]Global, len(d.Globals))
	for _, g := range d.Globals {
		node, ok := built[g.Type]
		if !ok {
			return nil, &UndefinedTypeIDError{ID: g.Type}
		}
		globals[g.Name] = Global{Type: node, Address: g.Address}
	}

	constants := make(map[string]int64, len(d.Constants))
	for _, c := range d.Constants {
		constants[c.Name] = c.Value
	}

	return &Layout{
		ptrWidth:  d.PointerWidth,
		sizeOf:    sizeOf,
		types:     types,
		globals:   globals,
		constants: constants,
	}, nil
}

// buildNode constructs one concrete *datatype.Type node from its Desc.
// built holds every dependency buildNode itself requires already
// resolved (enforced by Build's scheduling loop); sizeOf holds their
// resolved sizes where known.
func buildNode(desc *Desc, built map[TypeID]*datatype.Type, sizeOf map[*datatype.Type]int64) (node *datatype.Type, size int64, hasSize bool, err error) {
	switch desc.Kind {
	case datatype.KindVoid:
		return datatype.Void, 0, false, nil

	case datatype.KindInt:
		node = datatype.NewIntType(desc.Signed, desc.Width)
		size, hasSize, err = sizeFromSpec(desc, built, sizeOf)
		if err != nil {
			return nil, 0, false, err
		}
		if !hasSize {
			size, hasSize = int64(desc.Width)/8, true
		}
		return node, size, hasSize, nil

	case datatype.KindFloat:
		node = datatype.NewFloatType(desc.Width)
		size, hasSize, err = sizeFromSpec(desc, built, sizeOf)
		if err != nil {
			return nil, 0, false, err
		}
		if !hasSize {
			size, hasSize = int64(desc.Width)/8, true
		}
		return node, size, hasSize, nil

	case datatype.KindPointer:
		var pointee *datatype.Type
		if desc.Pointee != "" {
			pointee = built[desc.Pointee]
			if pointee == nil {
				return nil, 0, false, &UndefinedTypeIDError{ID: desc.Pointee}
			}
		}
		node = datatype.NewPointer(pointee, desc.Stride)
		return node, 0, false, nil

	case datatype.KindArray:
		element := built[desc.Element]
		if element == nil {
			return nil, 0, false, &UndefinedTypeIDError{ID: desc.Element}
		}
		stride := desc.Stride
		elemStride := int64(0)
		if s, ok := sizeOf[element]; ok {
			elemStride = s
		} else if stride != nil {
			elemStride = *stride
		}
		node = datatype.NewArray(element, desc.Length, elemStride)

		size, hasSize, err = sizeFromSpec(desc, built, sizeOf)
		if err != nil {
			return nil, 0, false, err
		}
		if !hasSize && desc.Length != nil {
			size, hasSize = *desc.Length*elemStride, true
		}
		return node, size, hasSize, nil

	case datatype.KindStruct, datatype.KindUnion:
		fields := make([]datatype.Field, len(desc.Fields))
		for i, f := range desc.Fields {
			ft := built[f.Type]
			if ft == nil {
				return nil, 0, false, &UndefinedTypeIDError{ID: f.Type}
			}
			fields[i] = datatype.Field{Name: f.Name, Offset: f.Offset, Type: ft}
		}
		if desc.Kind == datatype.KindStruct {
			node = datatype.NewStruct(fields)
		} else {
			node = datatype.NewUnion(fields)
		}
		size, hasSize, err = sizeFromSpec(desc, built, sizeOf)
		if err != nil {
			return nil, 0, false, err
		}
		return node, size, hasSize, nil

	case datatype.KindName:
		node = datatype.NewName(desc.NameSpace, desc.Ident)
		return node, 0, false, nil

	default:
		return nil, 0, false, fmt.Errorf("typelayout: unknown type kind %v", desc.Kind)
	}
}

// sizeFromSpec resolves a Desc's declared SizeSpec, independent of kind.
// A SizeUnknown spec reports hasSize=false so the caller can fall back to
// a structural computation (or leave the size unresolved, for void and
// unbounded arrays).
func sizeFromSpec(desc *Desc, built map[TypeID]*datatype.Type, sizeOf map[*datatype.Type]int64) (int64, bool, error) {
	switch desc.Size.Kind {
	case SizeKnown:
		return desc.Size.Known, true, nil
	case SizeDefer:
		target, ok := built[desc.Size.DeferID]
		if !ok {
			return 0, false, &UndefinedTypeIDError{ID: desc.Size.DeferID}
		}
		if sz, ok := sizeOf[target]; ok {
			return sz, true, nil
		}
		return 0, false, nil
	default:
		return 0, false, nil
	}
}

// Concrete follows a Name node's Resolved chain until it reaches a
// non-Name type. Any non-Name type (including one passed in directly) is
// returned unchanged.
func (l *Layout) Concrete(t *datatype.Type) (*datatype.Type, error) {
	for i := 0; t.Kind == datatype.KindName; i++ {
		if i >= maxNameChain {
			return nil, fmt.Errorf("typelayout: name resolution chain too long at %q", t.Ident)
		}
		if t.Resolved == nil {
			return nil, &UndefinedTypeNameError{NameSpace: t.NameSpace.String(), Ident: t.Ident}
		}
		t = t.Resolved
	}
	return t, nil
}

// Size returns t's byte size, resolving Name indirection first. Pointer
// sizes come from the layout's configured platform pointer width, not
// from the built type graph. Returns UnknownSizeError for void and for
// unbounded arrays.
func (l *Layout) Size(t *datatype.Type) (int64, error) {
	c, err := l.Concrete(t)
	if err != nil {
		return 0, err
	}
	switch c.Kind {
	case datatype.KindVoid:
		return 0, &UnknownSizeError{Type: "void"}
	case datatype.KindPointer:
		if l.ptrWidth == 0 {
			return 0, &UnknownSizeError{Type: "pointer (no platform pointer width configured)"}
		}
		return l.ptrWidth, nil
	default:
		if sz, ok := l.sizeOf[c]; ok {
			return sz, nil
		}
		return 0, &UnknownSizeError{Type: c.String()}
	}
}

// Global looks up a global variable's type and static address by name.
func (l *Layout) Global(name string) (Global, error) {
	g, ok := l.globals[name]
	if !ok {
		return Global{}, &UndefinedGlobalError{Name: name}
	}
	return g, nil
}

// Constant looks up a named integer constant.
func (l *Layout) Constant(name string) (int64, error) {
	v, ok := l.constants[name]
	if !ok {
		return 0, &UndefinedConstantError{Name: name}
	}
	return v, nil
}

// TypeByName looks up a struct, union, or typedef by its bound name —
// the entry point a data path's `struct Foo` / `union Bar` root uses.
func (l *Layout) TypeByName(ns datatype.Namespace, ident string) (*datatype.Type, error) {
	t, ok := l.types[namedKey(ns, ident)]
	if !ok {
		return nil, &UndefinedTypeNameError{NameSpace: ns.String(), Ident: ident}
	}
	return t, nil
}
