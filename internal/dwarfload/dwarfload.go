// Package dwarfload produces a typelayout.Descriptions value — the
// shallow, shallow-referenced input to typelayout.Build — by walking the
// DWARF debug info of an ELF binary, instead of requiring one to be
// hand-authored. It stands in for whatever private process a real native
// game library's loader would use to extract a serialized description of
// types, globals, and constants once at load time from the native
// library's debug info.
//
// Walks compile units in the flat DIE-walking style of a typical
// debug/dwarf consumer, turning struct/pointer/array/base-type DIEs into
// typelayout.Desc entries, simplified to the narrower shallow-reference-graph shape
// typelayout.Descriptions already expects: base types, structs, unions,
// pointers, arrays, typedefs, and enumerations (enumerators become
// typelayout.ConstantDesc entries, the same named-integer vocabulary a
// data path's mask/index constants resolve against).
package dwarfload

import (
	"debug/dwarf"
	"debug/elf"
	"fmt"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/sim"
)

// Options controls how LoadFromELF interprets a binary's debug info.
type Options struct {
	// PointerWidth overrides the ELF class's natural pointer width (4 for
	// a 32-bit binary, 8 for 64-bit) — left zero to use the ELF class.
	PointerWidth int64
}

// LoadFromELF opens path, reads its DWARF debug info, and returns a
// typelayout.Descriptions ready for typelayout.Build. Only the simple
// DW_OP_addr global-variable location form is understood — a loclist or
// register-relative expression doesn't name a static address in a known
// memory layout, and that global is skipped rather than failing the
// whole load.
func LoadFromELF(path string, opts Options) (typelayout.Descriptions, error) {
	f, err := elf.Open(path)
	if err != nil {
		return typelayout.Descriptions{}, err
	}
	defer f.Close()

	data, err := f.DWARF()
	if err != nil {
		return typelayout.Descriptions{}, err
	}

	ptrWidth := opts.PointerWidth
	if ptrWidth == 0 {
		ptrWidth = 8
		if f.Class == elf.ELFCLASS32 {
			ptrWidth = 4
		}
	}

	l := &loader{
		data:           data,
		ptrWidth:       ptrWidth,
		seen:           make(map[typelayout.TypeID]bool),
		qualifierAlias: make(map[typelayout.TypeID]typelayout.TypeID),
	}
	if err := l.run(); err != nil {
		return typelayout.Descriptions{}, err
	}
	l.rewriteAliases()
	l.resolveStrides()

	return typelayout.Descriptions{
		PointerWidth: ptrWidth,
		Types:        l.types,
		Named:        l.named,
		Globals:      l.globals,
		Constants:    l.constants,
	}, nil
}

type pendingStride struct {
	id typelayout.TypeID // the pointer/array Desc to patch
	of typelayout.TypeID // whose size becomes the stride
}

type loader struct {
	data     *dwarf.Data
	ptrWidth int64

	types     []typelayout.Desc
	named     []typelayout.NamedTypeDesc
	globals   []typelayout.GlobalDesc
	constants []typelayout.ConstantDesc

	seen           map[typelayout.TypeID]bool
	qualifierAlias map[typelayout.TypeID]typelayout.TypeID
	pendingStride  []pendingStride
}

func (l *loader) idFor(off dwarf.Offset) typelayout.TypeID {
	return typelayout.TypeID(fmt.Sprintf("t%x", uint64(off)))
}

func (l *loader) addDesc(d typelayout.Desc) {
	l.types = append(l.types, d)
	l.seen[d.ID] = true
}

func (l *loader) voidID() typelayout.TypeID {
	const id = typelayout.TypeID("void")
	if !l.seen[id] {
		l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindVoid})
	}
	return id
}

func (l *loader) run() error {
	r := l.data.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if e == nil {
			return nil
		}
		if e.Tag == 0 {
			continue
		}
		if err := l.visit(e, r); err != nil {
			return err
		}
	}
}

func (l *loader) visit(e *dwarf.Entry, r *dwarf.Reader) error {
	switch e.Tag {
	case dwarf.TagCompileUnit, dwarf.TagPartialUnit:
		return l.visitChildren(r)
	case dwarf.TagStructType, dwarf.TagUnionType:
		return l.addComposite(e, r)
	case dwarf.TagArrayType:
		return l.addArray(e, r)
	case dwarf.TagEnumerationType:
		return l.addEnum(e, r)
	case dwarf.TagBaseType:
		l.addBase(e)
		skipIfChildren(e, r)
	case dwarf.TagPointerType:
		l.addPointer(e)
		skipIfChildren(e, r)
	case dwarf.TagTypedef:
		l.addTypedef(e)
		skipIfChildren(e, r)
	case dwarf.TagConstType, dwarf.TagVolatileType, dwarf.TagRestrictType:
		l.addQualifier(e)
		skipIfChildren(e, r)
	case dwarf.TagVariable:
		l.addGlobal(e)
		skipIfChildren(e, r)
	default:
		skipIfChildren(e, r)
	}
	return nil
}

func (l *loader) visitChildren(r *dwarf.Reader) error {
	for {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if e == nil || e.Tag == 0 {
			return nil
		}
		if err := l.visit(e, r); err != nil {
			return err
		}
	}
}

func skipIfChildren(e *dwarf.Entry, r *dwarf.Reader) {
	if e.Children {
		r.SkipChildren()
	}
}

func (l *loader) addBase(e *dwarf.Entry) {
	id := l.idFor(e.Offset)
	byteSize, _ := attrInt64(e, dwarf.AttrByteSize)
	encoding, _ := attrInt64(e, dwarf.AttrEncoding)

	const (
		dwAteFloat        = 4
		dwAteSigned       = 5
		dwAteSignedChar   = 6
		dwAteUnsignedChar = 8
	)

	if encoding == dwAteFloat {
		l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindFloat, Width: int(byteSize * 8), Size: typelayout.Known(byteSize)})
		return
	}
	signed := encoding == dwAteSigned || encoding == dwAteSignedChar
	_ = dwAteUnsignedChar
	l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindInt, Signed: signed, Width: int(byteSize * 8), Size: typelayout.Known(byteSize)})
}

func (l *loader) addPointer(e *dwarf.Entry) {
	id := l.idFor(e.Offset)
	pointeeID := l.voidID()
	if off, ok := e.Val(dwarf.AttrType).(dwarf.Offset); ok {
		pointeeID = l.idFor(off)
	}
	byteSize, ok := attrInt64(e, dwarf.AttrByteSize)
	if !ok {
		byteSize = l.ptrWidth
	}
	_ = byteSize // pointer's own size is platform-provided by the memory view; only stride (pointee size) needs recording here
	l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindPointer, Pointee: pointeeID})
	l.pendingStride = append(l.pendingStride, pendingStride{id: id, of: pointeeID})
}

func (l *loader) addArray(e *dwarf.Entry, r *dwarf.Reader) error {
	id := l.idFor(e.Offset)
	elemID := l.voidID()
	if off, ok := e.Val(dwarf.AttrType).(dwarf.Offset); ok {
		elemID = l.idFor(off)
	}

	var length *int64
	if e.Children {
		for {
			c, err := r.Next()
			if err != nil {
				return err
			}
			if c == nil || c.Tag == 0 {
				break
			}
			if c.Tag == dwarf.TagSubrangeType {
				if n, ok := attrInt64(c, dwarf.AttrCount); ok {
					length = &n
				} else if ub, ok := attrInt64(c, dwarf.AttrUpperBound); ok {
					n := ub + 1
					length = &n
				}
			}
			skipIfChildren(c, r)
		}
	}

	l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindArray, Element: elemID, Length: length})
	l.pendingStride = append(l.pendingStride, pendingStride{id: id, of: elemID})
	return nil
}

func (l *loader) addComposite(e *dwarf.Entry, r *dwarf.Reader) error {
	id := l.idFor(e.Offset)
	name := attrString(e, dwarf.AttrName)
	byteSize, _ := attrInt64(e, dwarf.AttrByteSize)

	kind := datatype.KindStruct
	ns := datatype.NamespaceStruct
	if e.Tag == dwarf.TagUnionType {
		kind = datatype.KindUnion
		ns = datatype.NamespaceUnion
	}

	var fields []typelayout.FieldDesc
	if e.Children {
		for {
			c, err := r.Next()
			if err != nil {
				return err
			}
			if c == nil || c.Tag == 0 {
				break
			}
			if c.Tag == dwarf.TagMember {
				fieldType := l.voidID()
				if off, ok := c.Val(dwarf.AttrType).(dwarf.Offset); ok {
					fieldType = l.idFor(off)
				}
				fields = append(fields, typelayout.FieldDesc{
					Name:   attrString(c, dwarf.AttrName),
					Offset: memberOffset(c),
					Type:   fieldType,
				})
			}
			skipIfChildren(c, r)
		}
	}

	l.addDesc(typelayout.Desc{ID: id, Kind: kind, Fields: fields, Size: typelayout.Known(byteSize)})
	if name != "" {
		l.named = append(l.named, typelayout.NamedTypeDesc{NameSpace: ns, Ident: name, Type: id})
	}
	return nil
}

func (l *loader) addEnum(e *dwarf.Entry, r *dwarf.Reader) error {
	id := l.idFor(e.Offset)
	name := attrString(e, dwarf.AttrName)
	byteSize, ok := attrInt64(e, dwarf.AttrByteSize)
	if !ok {
		byteSize = 4
	}

	if e.Children {
		for {
			c, err := r.Next()
			if err != nil {
				return err
			}
			if c == nil || c.Tag == 0 {
				break
			}
			if c.Tag == dwarf.TagEnumerator {
				cVal, _ := attrInt64(c, dwarf.AttrConstValue)
				l.constants = append(l.constants, typelayout.ConstantDesc{
					Name:  attrString(c, dwarf.AttrName),
					Value: cVal,
				})
			}
			skipIfChildren(c, r)
		}
	}

	// An enum is, for data-path purposes, just a sized integer — its
	// enumerators already went into Constants above for index/mask use.
	l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindInt, Signed: true, Width: int(byteSize * 8), Size: typelayout.Known(byteSize)})
	if name != "" {
		l.named = append(l.named, typelayout.NamedTypeDesc{NameSpace: datatype.NamespaceTypedef, Ident: name, Type: id})
	}
	return nil
}

func (l *loader) addTypedef(e *dwarf.Entry) {
	id := l.idFor(e.Offset)
	name := attrString(e, dwarf.AttrName)
	underlying := l.voidID()
	if off, ok := e.Val(dwarf.AttrType).(dwarf.Offset); ok {
		underlying = l.idFor(off)
	}
	l.named = append(l.named, typelayout.NamedTypeDesc{NameSpace: datatype.NamespaceTypedef, Ident: name, Type: underlying})
	// The typedef's own offset becomes a Name leaf pointing at the same
	// Named entry, so a field/pointer referencing the typedef DIE directly
	// (rather than the name) still resolves, per typelayout's "Name nodes
	// are the only legal way to break a cycle" rule.
	l.addDesc(typelayout.Desc{ID: id, Kind: datatype.KindName, NameSpace: datatype.NamespaceTypedef, Ident: name})
}

// addQualifier records that references to a const/volatile/restrict DIE
// should be treated as references to its underlying type — DWARF
// qualifiers don't correspond to anything in Wafel's Type model, whose
// tagged-variant list has no qualifier kind.
func (l *loader) addQualifier(e *dwarf.Entry) {
	id := l.idFor(e.Offset)
	underlying := l.voidID()
	if off, ok := e.Val(dwarf.AttrType).(dwarf.Offset); ok {
		underlying = l.idFor(off)
	}
	l.qualifierAlias[id] = underlying
}

func (l *loader) addGlobal(e *dwarf.Entry) {
	name := attrString(e, dwarf.AttrName)
	if name == "" {
		return
	}
	typeOff, hasType := e.Val(dwarf.AttrType).(dwarf.Offset)
	if !hasType {
		return
	}
	loc, ok := e.Val(dwarf.AttrLocation).([]byte)
	if !ok || len(loc) != 1+int(l.ptrWidth) || loc[0] != 0x03 { // DW_OP_addr
		return // not a static DW_OP_addr location; see UnsupportedLocationError doc
	}
	var addr uint64
	for i := int(l.ptrWidth) - 1; i >= 0; i-- {
		addr = addr<<8 | uint64(loc[1+i])
	}

	l.globals = append(l.globals, typelayout.GlobalDesc{
		Name:    name,
		Type:    l.idFor(typeOff),
		Address: sim.Address(addr),
	})
}

// resolveAlias follows a chain of qualifier aliases (e.g. "const volatile
// int" is two qualifier DIEs deep) down to the first non-qualifier id.
func (l *loader) resolveAlias(id typelayout.TypeID) typelayout.TypeID {
	visited := map[typelayout.TypeID]bool{}
	for {
		target, ok := l.qualifierAlias[id]
		if !ok || visited[id] {
			return id
		}
		visited[id] = true
		id = target
	}
}

func (l *loader) rewriteAliases() {
	for i := range l.types {
		d := &l.types[i]
		switch d.Kind {
		case datatype.KindPointer:
			d.Pointee = l.resolveAlias(d.Pointee)
		case datatype.KindArray:
			d.Element = l.resolveAlias(d.Element)
		}
		for j := range d.Fields {
			d.Fields[j].Type = l.resolveAlias(d.Fields[j].Type)
		}
	}
	for i := range l.globals {
		l.globals[i].Type = l.resolveAlias(l.globals[i].Type)
	}
}

// resolveStrides fills in the Stride every pointer/array Desc needs (the
// byte size of what it points into/holds), deferred until every type in
// the graph has been visited at least once — a pointer to a
// forward-declared struct can't know that struct's size until the struct
// DIE itself has been walked.
func (l *loader) resolveStrides() {
	byID := make(map[typelayout.TypeID]*typelayout.Desc, len(l.types))
	for i := range l.types {
		byID[l.types[i].ID] = &l.types[i]
	}
	namedTarget := make(map[string]typelayout.TypeID, len(l.named))
	for _, n := range l.named {
		namedTarget[fmt.Sprintf("%d:%s", n.NameSpace, n.Ident)] = n.Type
	}

	var sizeOf func(id typelayout.TypeID, depth int) (int64, bool)
	sizeOf = func(id typelayout.TypeID, depth int) (int64, bool) {
		if depth > 32 {
			return 0, false
		}
		d, ok := byID[id]
		if !ok {
			return 0, false
		}
		switch d.Kind {
		case datatype.KindInt, datatype.KindFloat:
			return int64(d.Width) / 8, true
		case datatype.KindName:
			target, ok := namedTarget[fmt.Sprintf("%d:%s", d.NameSpace, d.Ident)]
			if !ok {
				return 0, false
			}
			return sizeOf(target, depth+1)
		case datatype.KindPointer:
			return l.ptrWidth, true
		default:
			if d.Size.Kind == typelayout.SizeKnown {
				return d.Size.Known, true
			}
			return 0, false
		}
	}

	for _, p := range l.pendingStride {
		of := l.resolveAlias(p.of)
		if n, ok := sizeOf(of, 0); ok {
			stride := n
			byID[p.id].Stride = &stride
		}
	}
}

func attrString(e *dwarf.Entry, a dwarf.Attr) string {
	v, _ := e.Val(a).(string)
	return v
}

func attrInt64(e *dwarf.Entry, a dwarf.Attr) (int64, bool) {
	switch v := e.Val(a).(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// memberOffset reads DW_AT_data_member_loc, which compilers emit either
// as a plain constant or as a one-op "DW_OP_plus_uconst N" location
// expression; plain C struct layouts this loader targets never need
// anything richer (no virtual base classes).
func memberOffset(c *dwarf.Entry) int64 {
	switch v := c.Val(dwarf.AttrDataMemberLoc).(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case []byte:
		const dwOpPlusUconst = 0x23
		if len(v) > 1 && v[0] == dwOpPlusUconst {
			n, _ := uleb128(v[1:])
			return n
		}
	}
	return 0
}

func uleb128(b []byte) (int64, int) {
	var result int64
	var shift uint
	i := 0
	for ; i < len(b); i++ {
		result |= int64(b[i]&0x7f) << shift
		if b[i]&0x80 == 0 {
			i++
			break
		}
		shift += 7
	}
	return result, i
}
