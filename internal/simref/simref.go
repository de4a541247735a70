// Package simref is a pure-Go reference implementation of the sim.Simulator
// ABI: a tiny deterministic "game" with a handful of global structs
// and pointers, standing in for a real native library in tests and in the
// command-line front end when --dwarf is not given, the way a headless stand-in
// replaces real hardware backends in CI.
//
// The state it steps is a small Mario-64-shaped struct graph — the genre
// Wafel targets — with a global Mario pointer, an
// optional current area reached through a nullable pointer, and a status
// bitfield, so every data-path edge kind (offset, deref, nullable, mask)
// and every movie input byte has something real to read and write.
package simref

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/sim"
)

// Layout constants. The buffer is laid out like a linker would place
// static data: globals first, then the two structs they point into.
const (
	addrGlobalTimer sim.Address = 0x0008
	addrMarioPtr    sim.Address = 0x0010 // holds a pointer to marioState
	addrAreaPtr     sim.Address = 0x0018 // holds a pointer to area, or null

	addrMarioState sim.Address = 0x0100
	addrArea       sim.Address = 0x0200

	// MarioState field offsets.
	offMarioPos    int64 = 0  // [3]float32
	offMarioVel    int64 = 12 // [3]float32
	offMarioHP     int64 = 24 // uint16
	offMarioAction int64 = 28 // uint32
	offMarioFlags  int64 = 32 // uint32 (status bitfield)
	offMarioArea   int64 = 36 // pointer to Area, nullable
	sizeMarioState int64 = 44

	// Area field offsets. camera is a nested Camera struct, not a
	// pointer, matching own example path
	// "gMario->area?->camera.pos[1]".
	offAreaCamera    int64 = 0  // Camera{pos Vec3f, yaw u16}
	offAreaCameraPos int64 = 0  // [3]float32, relative to Area
	offAreaCameraYaw int64 = 12 // uint16, relative to Area
	offAreaFlags     int64 = 16 // uint32
	sizeArea         int64 = 20
	sizeCamera       int64 = 14

	// BufSize is large enough to hold every static global plus both
	// structs with headroom for growth.
	BufSize = 0x400

	// FlagOnGround is the constant "& FLAG" example masks
	// against: bit 2 of MarioState.Flags.
	FlagOnGround uint32 = 0x4
)

// Slot is one full copy of the reference game's state: a flat byte
// buffer addressed exactly like a real process's static+heap memory
// would be, so memview's width-specific reads/writes work unmodified.
type Slot struct {
	sim.SlotHandle
	buf [BufSize]byte
}

func (s *Slot) clone() *Slot {
	cp := &Slot{}
	cp.buf = s.buf
	return cp
}

// Sim implements sim.Simulator over a deterministic step function: each
// AdvanceBaseSlot call nudges Mario's position by his velocity, decays
// velocity slightly, and advances a linear-congruential word held on the
// Sim (not in any slot) that no game field reads — just enough
// determinism-with-motion to exercise the Slot Manager's advance/copy
// bookkeeping meaningfully.
type Sim struct {
	powerOn *Slot
	base    *Slot
	rng     uint32
}

// New returns a Sim whose power-on state has Mario standing at the
// origin with a small initial velocity and no current area (area pointer
// null), matching nullable-pointer example directly.
func New() *Sim {
	s := &Sim{powerOn: &Slot{}, base: &Slot{}, rng: 0x2545F491}
	initState(s.powerOn)
	initState(s.base)
	return s
}

func initState(s *Slot) {
	binary.LittleEndian.PutUint32(s.buf[addrGlobalTimer:], 0)
	binary.LittleEndian.PutUint64(s.buf[addrMarioPtr:], uint64(addrMarioState))
	binary.LittleEndian.PutUint64(s.buf[addrAreaPtr:], 0) // null: no current area

	putF32(s, addrMarioState.Add(offMarioPos), 0)
	putF32(s, addrMarioState.Add(offMarioPos+4), 0)
	putF32(s, addrMarioState.Add(offMarioPos+8), 0)
	putF32(s, addrMarioState.Add(offMarioVel), 0.5)
	putF32(s, addrMarioState.Add(offMarioVel+4), 0)
	putF32(s, addrMarioState.Add(offMarioVel+8), 0.25)
	binary.LittleEndian.PutUint16(s.buf[addrMarioState.Add(offMarioHP):], 8)
	binary.LittleEndian.PutUint32(s.buf[addrMarioState.Add(offMarioAction):], 0)
	binary.LittleEndian.PutUint32(s.buf[addrMarioState.Add(offMarioFlags):], 0)
	binary.LittleEndian.PutUint64(s.buf[addrMarioState.Add(offMarioArea):], 0)

	putF32(s, addrArea.Add(offAreaCameraPos), 0)
	putF32(s, addrArea.Add(offAreaCameraPos+4), 100)
	putF32(s, addrArea.Add(offAreaCameraPos+8), 0)
	binary.LittleEndian.PutUint16(s.buf[addrArea.Add(offAreaCameraYaw):], 0)
	binary.LittleEndian.PutUint32(s.buf[addrArea.Add(offAreaFlags):], 0)
}

func putF32(s *Slot, addr sim.Address, v float32) {
	binary.LittleEndian.PutUint32(s.buf[addr:], math.Float32bits(v))
}

func getF32(s *Slot, addr sim.Address) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(s.buf[addr:]))
}

// CreateBackupSlot allocates a fresh, zeroed Slot. Its contents are
// undefined until the caller Copies into it, per sim.Simulator's contract.
func (s *Sim) CreateBackupSlot() (sim.Slot, error) { return &Slot{}, nil }

// PowerOnSlot returns the immutable baseline.
func (s *Sim) PowerOnSlot() sim.Slot { return s.powerOn }

// BaseSlot returns the only slot AdvanceBaseSlot is legal on.
func (s *Sim) BaseSlot() sim.Slot { return s.base }

// CopySlot overwrites dst's contents with src's.
func (s *Sim) CopySlot(dst, src sim.Slot) error {
	dst.(*Slot).buf = src.(*Slot).buf
	return nil
}

// AdvanceBaseSlot runs one deterministic step: integrate position by
// velocity, decay velocity, tick the global timer, and — as a function
// purely of the timer, not of any live randomness — give Mario a current
// area and set the on-ground status flag for the first 32 frames of every
// 64-frame cycle and clear both for the other 32, so nullable-pointer and
// masked-bit paths both have something to observe changing over a scrub.
func (s *Sim) AdvanceBaseSlot() error {
	timer := binary.LittleEndian.Uint32(s.base.buf[addrGlobalTimer:]) + 1
	binary.LittleEndian.PutUint32(s.base.buf[addrGlobalTimer:], timer)

	for i := 0; i < 3; i++ {
		posAddr := addrMarioState.Add(offMarioPos + int64(i)*4)
		velAddr := addrMarioState.Add(offMarioVel + int64(i)*4)
		pos := getF32(s.base, posAddr)
		vel := getF32(s.base, velAddr)
		putF32(s.base, posAddr, pos+vel)
		putF32(s.base, velAddr, vel*0.99)
	}

	flags := binary.LittleEndian.Uint32(s.base.buf[addrMarioState.Add(offMarioFlags):])
	if timer%64 < 32 {
		flags |= FlagOnGround
		binary.LittleEndian.PutUint64(s.base.buf[addrMarioState.Add(offMarioArea):], uint64(addrArea))
	} else {
		flags &^= FlagOnGround
		binary.LittleEndian.PutUint64(s.base.buf[addrMarioState.Add(offMarioArea):], 0)
	}
	binary.LittleEndian.PutUint32(s.base.buf[addrMarioState.Add(offMarioFlags):], flags)

	s.rng = s.rng*1664525 + 1013904223
	return nil
}

func (s *Sim) ReadU8(slot sim.Slot, addr sim.Address) (uint8, error) {
	return slot.(*Slot).buf[addr], nil
}
func (s *Sim) ReadU16(slot sim.Slot, addr sim.Address) (uint16, error) {
	return binary.LittleEndian.Uint16(slot.(*Slot).buf[addr:]), nil
}
func (s *Sim) ReadU32(slot sim.Slot, addr sim.Address) (uint32, error) {
	return binary.LittleEndian.Uint32(slot.(*Slot).buf[addr:]), nil
}
func (s *Sim) ReadU64(slot sim.Slot, addr sim.Address) (uint64, error) {
	return binary.LittleEndian.Uint64(slot.(*Slot).buf[addr:]), nil
}
func (s *Sim) ReadAddr(slot sim.Slot, addr sim.Address) (sim.Address, error) {
	v, err := s.ReadU64(slot, addr)
	return sim.Address(v), err
}

func (s *Sim) WriteU8(slot sim.Slot, addr sim.Address, v uint8) error {
	slot.(*Slot).buf[addr] = v
	return nil
}
func (s *Sim) WriteU16(slot sim.Slot, addr sim.Address, v uint16) error {
	binary.LittleEndian.PutUint16(slot.(*Slot).buf[addr:], v)
	return nil
}
func (s *Sim) WriteU32(slot sim.Slot, addr sim.Address, v uint32) error {
	binary.LittleEndian.PutUint32(slot.(*Slot).buf[addr:], v)
	return nil
}
func (s *Sim) WriteU64(slot sim.Slot, addr sim.Address, v uint64) error {
	binary.LittleEndian.PutUint64(slot.(*Slot).buf[addr:], v)
	return nil
}
func (s *Sim) WriteAddr(slot sim.Slot, addr sim.Address, v sim.Address) error {
	return s.WriteU64(slot, addr, uint64(v))
}

// symbolTable maps every global's name to its static address, shared by
// SymbolAddress and Descriptions.
var symbolTable = map[string]sim.Address{
	"gGlobalTimer": addrGlobalTimer,
	"gMario":       addrMarioPtr,
	"gCurrentArea": addrAreaPtr,
}

func (s *Sim) SymbolAddress(name string) (sim.Address, bool) {
	a, ok := symbolTable[name]
	return a, ok
}

// TypeDescription returns the JSON-encoded typelayout.Descriptions for
// this reference game's type graph — standing in for the serialized
// debug-info dump a real native library would hand over at load time.
// encoding/json is stdlib rather than a third-party codec because
// Descriptions is a plain exported-field struct graph with no
// recursive/cyclic Go values (Name nodes break cycles by string
// identifier, not pointer), so there is no ecosystem schema codec this
// shape would call for.
func (s *Sim) TypeDescription() ([]byte, error) {
	return json.Marshal(Descriptions())
}

// Descriptions returns the type/global/constant graph describing this
// reference game directly, for callers (tests, the CLI when --dwarf is
// not given) that don't need to round-trip through JSON.
func Descriptions() typelayout.Descriptions {
	u32 := typelayout.Desc{ID: "u32", Kind: datatype.KindInt, Signed: false, Width: 32}
	u16 := typelayout.Desc{ID: "u16", Kind: datatype.KindInt, Signed: false, Width: 16}
	f32 := typelayout.Desc{ID: "f32", Kind: datatype.KindFloat, Width: 32}

	vec3Stride := int64(4)
	vec3 := typelayout.Desc{
		ID: "Vec3f", Kind: datatype.KindArray,
		Element: "f32", Length: int64Ptr(3), Stride: &vec3Stride,
		Size: typelayout.Known(12),
	}

	camera := typelayout.Desc{
		ID: "Camera", Kind: datatype.KindStruct,
		Fields: []typelayout.FieldDesc{
			{Name: "pos", Offset: offAreaCameraPos - offAreaCamera, Type: "Vec3f"},
			{Name: "yaw", Offset: offAreaCameraYaw - offAreaCamera, Type: "u16"},
		},
		Size: typelayout.Known(sizeCamera),
	}

	area := typelayout.Desc{
		ID: "Area", Kind: datatype.KindStruct,
		Fields: []typelayout.FieldDesc{
			{Name: "camera", Offset: offAreaCamera, Type: "Camera"},
			{Name: "flags", Offset: offAreaFlags, Type: "u32"},
		},
		Size: typelayout.Known(sizeArea),
	}
	areaPtrStride := sizeArea
	areaPtr := typelayout.Desc{ID: "*Area", Kind: datatype.KindPointer, Pointee: "Area", Stride: &areaPtrStride}

	marioState := typelayout.Desc{
		ID: "MarioState", Kind: datatype.KindStruct,
		Fields: []typelayout.FieldDesc{
			{Name: "pos", Offset: offMarioPos, Type: "Vec3f"},
			{Name: "vel", Offset: offMarioVel, Type: "Vec3f"},
			{Name: "health", Offset: offMarioHP, Type: "u16"},
			{Name: "action", Offset: offMarioAction, Type: "u32"},
			{Name: "flags", Offset: offMarioFlags, Type: "u32"},
			{Name: "area", Offset: offMarioArea, Type: "*Area"},
		},
		Size: typelayout.Known(sizeMarioState),
	}
	marioPtrStride := sizeMarioState
	marioPtr := typelayout.Desc{ID: "*MarioState", Kind: datatype.KindPointer, Pointee: "MarioState", Stride: &marioPtrStride}

	return typelayout.Descriptions{
		PointerWidth: 8,
		Types:        []typelayout.Desc{u32, u16, f32, vec3, camera, area, areaPtr, marioState, marioPtr},
		Named: []typelayout.NamedTypeDesc{
			{NameSpace: datatype.NamespaceStruct, Ident: "MarioState", Type: "MarioState"},
			{NameSpace: datatype.NamespaceStruct, Ident: "Area", Type: "Area"},
		},
		Globals: []typelayout.GlobalDesc{
			{Name: "gGlobalTimer", Type: "u32", Address: addrGlobalTimer},
			{Name: "gMario", Type: "*MarioState", Address: addrMarioPtr},
			{Name: "gCurrentArea", Type: "*Area", Address: addrAreaPtr},
		},
		Constants: []typelayout.ConstantDesc{
			{Name: "FLAG_ON_GROUND", Value: int64(FlagOnGround)},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }
