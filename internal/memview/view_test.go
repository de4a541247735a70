package memview_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/sim"
)

// fakeSlot is the only slot handle fakeSim produces.
type fakeSlot struct {
	sim.SlotHandle
	buf []byte
}

// fakeSim is a minimal byte-addressable sim.Simulator good enough to
// exercise memview without a real native library.
type fakeSim struct{}

func (fakeSim) CreateBackupSlot() (sim.Slot, error) { return &fakeSlot{buf: make([]byte, 1<<16)}, nil }
func (fakeSim) PowerOnSlot() sim.Slot               { return &fakeSlot{buf: make([]byte, 1<<16)} }
func (fakeSim) BaseSlot() sim.Slot                  { return &fakeSlot{buf: make([]byte, 1<<16)} }
func (fakeSim) CopySlot(dst, src sim.Slot) error {
	copy(dst.(*fakeSlot).buf, src.(*fakeSlot).buf)
	return nil
}
func (fakeSim) AdvanceBaseSlot() error { return nil }

func (fakeSim) ReadU8(slot sim.Slot, addr sim.Address) (uint8, error) {
	return slot.(*fakeSlot).buf[addr], nil
}
func (fakeSim) ReadU16(slot sim.Slot, addr sim.Address) (uint16, error) {
	b := slot.(*fakeSlot).buf
	return uint16(b[addr]) | uint16(b[addr+1])<<8, nil
}
func (fakeSim) ReadU32(slot sim.Slot, addr sim.Address) (uint32, error) {
	b := slot.(*fakeSlot).buf
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[int(addr)+i]) << (8 * i)
	}
	return v, nil
}
func (fakeSim) ReadU64(slot sim.Slot, addr sim.Address) (uint64, error) {
	b := slot.(*fakeSlot).buf
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[int(addr)+i]) << (8 * i)
	}
	return v, nil
}
func (s fakeSim) ReadAddr(slot sim.Slot, addr sim.Address) (sim.Address, error) {
	v, err := s.ReadU64(slot, addr)
	return sim.Address(v), err
}

func (fakeSim) WriteU8(slot sim.Slot, addr sim.Address, val uint8) error {
	slot.(*fakeSlot).buf[addr] = val
	return nil
}
func (fakeSim) WriteU16(slot sim.Slot, addr sim.Address, val uint16) error {
	b := slot.(*fakeSlot).buf
	b[addr], b[addr+1] = byte(val), byte(val>>8)
	return nil
}
func (fakeSim) WriteU32(slot sim.Slot, addr sim.Address, val uint32) error {
	b := slot.(*fakeSlot).buf
	for i := 0; i < 4; i++ {
		b[int(addr)+i] = byte(val >> (8 * i))
	}
	return nil
}
func (fakeSim) WriteU64(slot sim.Slot, addr sim.Address, val uint64) error {
	b := slot.(*fakeSlot).buf
	for i := 0; i < 8; i++ {
		b[int(addr)+i] = byte(val >> (8 * i))
	}
	return nil
}
func (s fakeSim) WriteAddr(slot sim.Slot, addr sim.Address, val sim.Address) error {
	return s.WriteU64(slot, addr, uint64(val))
}
func (fakeSim) SymbolAddress(name string) (sim.Address, bool)  { return sim.Null, false }
func (fakeSim) TypeDescription() ([]byte, error)               { return nil, nil }

func TestReadWriteRoundTrip(t *testing.T) {
	s := fakeSim{}
	slot := s.BaseSlot()
	v := memview.New(s, nil)

	require.NoError(t, v.WriteU32(slot, 0x10, 0xdeadbeef))
	got, err := v.ReadU32(slot, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), got)

	require.NoError(t, v.WriteFloat(slot, 0x20, 64, 3.5))
	f, err := v.ReadFloat(slot, 0x20, 64)
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)

	require.NoError(t, v.WriteInt(slot, 0x30, 8, true, big.NewInt(-5)))
	i, err := v.ReadInt(slot, 0x30, 8, true)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), i.Int64())
}

func TestNullDerefRejected(t *testing.T) {
	v := memview.New(fakeSim{}, nil)
	slot := fakeSim{}.BaseSlot()

	_, err := v.ReadU8(slot, sim.Null)
	assert.ErrorIs(t, err, memview.ErrNullDeref)

	err = v.WriteU8(slot, sim.Null, 1)
	assert.ErrorIs(t, err, memview.ErrNullDeref)
}

func TestStaticWriteForbidden(t *testing.T) {
	statics := []memview.AddressRange{{Start: 0x8000, End: 0x9000}}
	v := memview.New(fakeSim{}, statics)
	slot := fakeSim{}.BaseSlot()

	_, err := v.ReadU8(slot, 0x8010)
	require.NoError(t, err, "reads from static memory are allowed")

	err = v.WriteU8(slot, 0x8010, 1)
	require.Error(t, err)
	var staticErr *memview.WriteToStaticMemoryError
	assert.ErrorAs(t, err, &staticErr)
}
