package datapath_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/sim"
)

// fakeSlot/fakeSim mirror internal/memview's test double: a single
// byte-addressable buffer standing in for a real native library.
type fakeSlot struct {
	sim.SlotHandle
	buf []byte
}

type fakeSim struct{ slot *fakeSlot }

func newFakeSim() *fakeSim { return &fakeSim{slot: &fakeSlot{buf: make([]byte, 1<<16)}} }

func (s *fakeSim) CreateBackupSlot() (sim.Slot, error) { return &fakeSlot{buf: make([]byte, 1<<16)}, nil }
func (s *fakeSim) PowerOnSlot() sim.Slot               { return s.slot }
func (s *fakeSim) BaseSlot() sim.Slot                  { return s.slot }
func (s *fakeSim) CopySlot(dst, src sim.Slot) error {
	copy(dst.(*fakeSlot).buf, src.(*fakeSlot).buf)
	return nil
}
func (s *fakeSim) AdvanceBaseSlot() error { return nil }

func (s *fakeSim) ReadU8(slot sim.Slot, addr sim.Address) (uint8, error) {
	return slot.(*fakeSlot).buf[addr], nil
}
func (s *fakeSim) ReadU16(slot sim.Slot, addr sim.Address) (uint16, error) {
	b := slot.(*fakeSlot).buf
	return uint16(b[addr]) | uint16(b[addr+1])<<8, nil
}
func (s *fakeSim) ReadU32(slot sim.Slot, addr sim.Address) (uint32, error) {
	b := slot.(*fakeSlot).buf
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[int(addr)+i]) << (8 * i)
	}
	return v, nil
}
func (s *fakeSim) ReadU64(slot sim.Slot, addr sim.Address) (uint64, error) {
	b := slot.(*fakeSlot).buf
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[int(addr)+i]) << (8 * i)
	}
	return v, nil
}
func (s *fakeSim) ReadAddr(slot sim.Slot, addr sim.Address) (sim.Address, error) {
	v, err := s.ReadU64(slot, addr)
	return sim.Address(v), err
}
func (s *fakeSim) WriteU8(slot sim.Slot, addr sim.Address, val uint8) error {
	slot.(*fakeSlot).buf[addr] = val
	return nil
}
func (s *fakeSim) WriteU16(slot sim.Slot, addr sim.Address, val uint16) error {
	b := slot.(*fakeSlot).buf
	b[addr], b[addr+1] = byte(val), byte(val>>8)
	return nil
}
func (s *fakeSim) WriteU32(slot sim.Slot, addr sim.Address, val uint32) error {
	b := slot.(*fakeSlot).buf
	for i := 0; i < 4; i++ {
		b[int(addr)+i] = byte(val >> (8 * i))
	}
	return nil
}
func (s *fakeSim) WriteU64(slot sim.Slot, addr sim.Address, val uint64) error {
	b := slot.(*fakeSlot).buf
	for i := 0; i < 8; i++ {
		b[int(addr)+i] = byte(val >> (8 * i))
	}
	return nil
}
func (s *fakeSim) WriteAddr(slot sim.Slot, addr sim.Address, val sim.Address) error {
	return s.WriteU64(slot, addr, uint64(val))
}
func (s *fakeSim) SymbolAddress(name string) (sim.Address, bool) { return sim.Null, false }
func (s *fakeSim) TypeDescription() ([]byte, error)              { return nil, nil }

// buildMarioLayout builds a small type graph standing in for the kind of
// layout a real DWARF-extracted description would produce: a global
// pointer to a Mario struct with a position vector, an integer flags
// field, and an optional pointer to an Area with a nested camera.
func buildMarioLayout(t *testing.T) (*typelayout.Layout, sim.Address) {
	const (
		f32    typelayout.TypeID = "f32"
		i32    typelayout.TypeID = "i32"
		vec3   typelayout.TypeID = "vec3"
		camera typelayout.TypeID = "camera"
		area   typelayout.TypeID = "area"
		areaP  typelayout.TypeID = "areaP"
		mario  typelayout.TypeID = "mario"
		marioP typelayout.TypeID = "marioP"
	)
	stride4 := int64(4)
	stride8 := int64(8)

	descs := typelayout.Descriptions{
		PointerWidth: 8,
		Types: []typelayout.Desc{
			{ID: f32, Kind: datatype.KindFloat, Width: 32},
			{ID: i32, Kind: datatype.KindInt, Signed: true, Width: 32},
			{ID: vec3, Kind: datatype.KindArray, Element: f32, Length: int64Ptr(3), Stride: &stride4},
			{ID: camera, Kind: datatype.KindStruct, Fields: []typelayout.FieldDesc{
				{Name: "pos", Offset: 0, Type: vec3},
			}},
			{ID: area, Kind: datatype.KindStruct, Fields: []typelayout.FieldDesc{
				{Name: "camera", Offset: 0, Type: camera},
			}},
			{ID: areaP, Kind: datatype.KindPointer, Pointee: area, Stride: &stride8},
			{ID: mario, Kind: datatype.KindStruct, Fields: []typelayout.FieldDesc{
				{Name: "pos", Offset: 0, Type: vec3},
				{Name: "flags", Offset: 12, Type: i32},
				{Name: "area", Offset: 16, Type: areaP},
			}},
			{ID: marioP, Kind: datatype.KindPointer, Pointee: mario, Stride: &stride8},
		},
		Named: []typelayout.NamedTypeDesc{
			{NameSpace: datatype.NamespaceStruct, Ident: "mario", Type: mario},
			{NameSpace: datatype.NamespaceStruct, Ident: "area", Type: area},
			{NameSpace: datatype.NamespaceStruct, Ident: "camera", Type: camera},
			{NameSpace: datatype.NamespaceTypedef, Ident: "AreaPtr", Type: areaP},
		},
		Globals: []typelayout.GlobalDesc{
			{Name: "gMario", Type: marioP, Address: 0x2000},
		},
		Constants: []typelayout.ConstantDesc{
			{Name: "FLAG_JUMPING", Value: 0x4},
		},
	}

	layout, err := typelayout.Build(descs)
	require.NoError(t, err)
	return layout, 0x2000
}

func TestCompileAndReadWriteVector(t *testing.T) {
	layout, _ := buildMarioLayout(t)
	s := newFakeSim()
	view := memview.New(s, nil)
	slot := s.BaseSlot()

	// gMario (at 0x2000) points at a Mario struct at 0x100.
	require.NoError(t, view.WriteAddress(slot, 0x2000, 0x100))

	p, err := datapath.Compile("gMario->pos[1]", layout)
	require.NoError(t, err)

	require.NoError(t, datapath.Write(p, view, slot, layout, datatype.NewFloat(123.5)))
	v, err := datapath.Read(p, view, slot, layout)
	require.NoError(t, err)
	assert.Equal(t, 123.5, v.Float)

	// Directly confirm the write landed at pos[1] == base+0x100+4.
	raw, err := view.ReadFloat(slot, 0x104, 32)
	require.NoError(t, err)
	assert.Equal(t, float32(123.5), float32(raw))
}

func TestNullableShortCircuits(t *testing.T) {
	layout, _ := buildMarioLayout(t)
	s := newFakeSim()
	view := memview.New(s, nil)
	slot := s.BaseSlot()

	require.NoError(t, view.WriteAddress(slot, 0x2000, 0x100))
	// Leave Mario.area (offset 16) as the zero value: null.

	p, err := datapath.Compile("gMario->area?->camera.pos[1]", layout)
	require.NoError(t, err)

	v, err := datapath.Read(p, view, slot, layout)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	// Write through a null optional is a silent no-op, not an error.
	require.NoError(t, datapath.Write(p, view, slot, layout, datatype.NewFloat(9.0)))

	// Now point area at a real Area struct and confirm normal behaviour.
	require.NoError(t, view.WriteAddress(slot, 0x110, 0x200))
	require.NoError(t, datapath.Write(p, view, slot, layout, datatype.NewFloat(7.5)))
	v, err = datapath.Read(p, view, slot, layout)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v.Float)
}

func TestMaskRoundTrip(t *testing.T) {
	layout, _ := buildMarioLayout(t)
	s := newFakeSim()
	view := memview.New(s, nil)
	slot := s.BaseSlot()

	require.NoError(t, view.WriteAddress(slot, 0x2000, 0x100))
	require.NoError(t, view.WriteInt(slot, 0x10c, 32, true, big.NewInt(0x13))) // flags = 0b10011

	p, err := datapath.Compile("gMario->flags & FLAG_JUMPING", layout)
	require.NoError(t, err)

	v, err := datapath.Read(p, view, slot, layout)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Int64()) // bit 2 (0x4) is clear in 0x13

	require.NoError(t, datapath.Write(p, view, slot, layout, datatype.NewInt(1)))
	v, err = datapath.Read(p, view, slot, layout)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())

	// Only bit 2 changed; the rest of flags is untouched.
	full, err := view.ReadInt(slot, 0x10c, 32, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0x17), full.Int64())
}

func TestConcatAssociativity(t *testing.T) {
	layout, _ := buildMarioLayout(t)

	a, err := datapath.Compile("gMario->area?", layout)
	require.NoError(t, err)
	b, err := datapath.Compile("typedef AreaPtr->camera", layout)
	require.NoError(t, err)
	c, err := datapath.Compile("struct camera.pos[1]", layout)
	require.NoError(t, err)

	require.Equal(t, a.ConcreteType, b.RootType(), "a's concrete type must match b's root for concat to type-check")
	require.Equal(t, b.ConcreteType, c.RootType(), "b's concrete type must match c's root for concat to type-check")

	ab, err := datapath.Concat(a, b)
	require.NoError(t, err)
	abc1, err := datapath.Concat(ab, c)
	require.NoError(t, err)

	bc, err := datapath.Concat(b, c)
	require.NoError(t, err)
	abc2, err := datapath.Concat(a, bc)
	require.NoError(t, err)

	assert.Equal(t, abc1.Edges, abc2.Edges)
	assert.Equal(t, abc1.ConcreteType, abc2.ConcreteType)
	assert.Equal(t, abc1.Source, abc2.Source)

	// And the associated result must behave identically to compiling the
	// equivalent path directly.
	direct, err := datapath.Compile("gMario->area?->camera.pos[1]", layout)
	require.NoError(t, err)
	assert.Equal(t, direct.Edges, abc1.Edges)
}

func TestUndefinedFieldError(t *testing.T) {
	layout, _ := buildMarioLayout(t)
	_, err := datapath.Compile("gMario->nope", layout)
	require.Error(t, err)
	var uf *datapath.UndefinedFieldError
	assert.ErrorAs(t, err, &uf)
}

func int64Ptr(v int64) *int64 { return &v }
