package timeline_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/sim"
	"github.com/branpk/wafel-sub001/timeline"
)

// counterSlot/counterSim mirror slotmgr's test double: AdvanceBaseSlot
// increments a little-endian counter at a fixed address, standing in for
// a real game's update step.
type counterSlot struct {
	sim.SlotHandle
	buf [64]byte
}

type counterSim struct {
	powerOn *counterSlot
	base    *counterSlot
}

const counterAddr = sim.Address(0x10)

func newCounterSim() *counterSim {
	return &counterSim{powerOn: &counterSlot{}, base: &counterSlot{}}
}

func (s *counterSim) CreateBackupSlot() (sim.Slot, error) { return &counterSlot{}, nil }
func (s *counterSim) PowerOnSlot() sim.Slot               { return s.powerOn }
func (s *counterSim) BaseSlot() sim.Slot                  { return s.base }
func (s *counterSim) CopySlot(dst, src sim.Slot) error {
	dst.(*counterSlot).buf = src.(*counterSlot).buf
	return nil
}
func (s *counterSim) AdvanceBaseSlot() error {
	v := binary.LittleEndian.Uint32(s.base.buf[counterAddr:])
	binary.LittleEndian.PutUint32(s.base.buf[counterAddr:], v+1)
	return nil
}
func (s *counterSim) ReadU8(slot sim.Slot, addr sim.Address) (uint8, error) {
	return slot.(*counterSlot).buf[addr], nil
}
func (s *counterSim) ReadU16(slot sim.Slot, addr sim.Address) (uint16, error) {
	return binary.LittleEndian.Uint16(slot.(*counterSlot).buf[addr:]), nil
}
func (s *counterSim) ReadU32(slot sim.Slot, addr sim.Address) (uint32, error) {
	return binary.LittleEndian.Uint32(slot.(*counterSlot).buf[addr:]), nil
}
func (s *counterSim) ReadU64(slot sim.Slot, addr sim.Address) (uint64, error) {
	return binary.LittleEndian.Uint64(slot.(*counterSlot).buf[addr:]), nil
}
func (s *counterSim) ReadAddr(slot sim.Slot, addr sim.Address) (sim.Address, error) {
	v, err := s.ReadU64(slot, addr)
	return sim.Address(v), err
}
func (s *counterSim) WriteU8(slot sim.Slot, addr sim.Address, v uint8) error {
	slot.(*counterSlot).buf[addr] = v
	return nil
}
func (s *counterSim) WriteU16(slot sim.Slot, addr sim.Address, v uint16) error {
	binary.LittleEndian.PutUint16(slot.(*counterSlot).buf[addr:], v)
	return nil
}
func (s *counterSim) WriteU32(slot sim.Slot, addr sim.Address, v uint32) error {
	binary.LittleEndian.PutUint32(slot.(*counterSlot).buf[addr:], v)
	return nil
}
func (s *counterSim) WriteU64(slot sim.Slot, addr sim.Address, v uint64) error {
	binary.LittleEndian.PutUint64(slot.(*counterSlot).buf[addr:], v)
	return nil
}
func (s *counterSim) WriteAddr(slot sim.Slot, addr sim.Address, v sim.Address) error {
	return s.WriteU64(slot, addr, uint64(v))
}
func (s *counterSim) SymbolAddress(name string) (sim.Address, bool) { return sim.Null, false }
func (s *counterSim) TypeDescription() ([]byte, error)              { return nil, nil }

func buildCounterLayout(t *testing.T) *typelayout.Layout {
	descs := typelayout.Descriptions{
		PointerWidth: 8,
		Types: []typelayout.Desc{
			{ID: "i32", Kind: datatype.KindInt, Signed: true, Width: 32},
		},
		Globals: []typelayout.GlobalDesc{
			{Name: "gCounter", Type: "i32", Address: counterAddr},
		},
	}
	layout, err := typelayout.Build(descs)
	require.NoError(t, err)
	return layout
}

func newTestTimeline(t *testing.T) (*timeline.Timeline, *datapath.DataPath) {
	s := newCounterSim()
	layout := buildCounterLayout(t)
	view := memview.New(s, nil)
	path, err := datapath.Compile("gCounter", layout)
	require.NoError(t, err)

	tl, err := timeline.New(s, view, layout, timeline.Config{
		NumBackupSlots:  2,
		CacheBudgetByte: 1 << 16,
	})
	require.NoError(t, err)
	return tl, path
}

func TestReadAdvancesAndCaches(t *testing.T) {
	tl, path := newTestTimeline(t)

	v, err := tl.Read(5, path)
	require.NoError(t, err)
	// PowerOn -> At(0) takes one step, so gCounter at frame 5 is 6.
	assert.Equal(t, int64(6), v.Int64())

	v2, err := tl.Read(5, path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v2.Int64())
}

func TestWriteInvalidatesForwardFrames(t *testing.T) {
	tl, path := newTestTimeline(t)

	_, err := tl.Read(10, path)
	require.NoError(t, err)

	tl.Write(3, path, datatype.NewInt(999))

	// Frame 10 must re-derive through the edit at frame 3 rather than
	// returning the stale cached value: 999 at frame 3, then seven more
	// counter steps to frame 10.
	v, err := tl.Read(10, path)
	require.NoError(t, err)
	assert.Equal(t, int64(1006), v.Int64())
}

func TestResetRestoresUnderlyingValue(t *testing.T) {
	tl, path := newTestTimeline(t)

	tl.Write(3, path, datatype.NewInt(999))
	v, err := tl.Read(3, path)
	require.NoError(t, err)
	assert.Equal(t, int64(999), v.Int64())

	tl.Reset(3, path)
	v, err = tl.Read(3, path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Int64())
}

func TestBaseSlotMutMarksUnknownForcingRederive(t *testing.T) {
	tl, path := newTestTimeline(t)

	_, err := tl.Read(7, path)
	require.NoError(t, err)

	_, err = tl.BaseSlotMut(7)
	require.NoError(t, err)

	// A later read at the same frame must still succeed, re-deriving
	// through a fresh request since the base was marked Unknown.
	v, err := tl.Read(7, path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), v.Int64())
}

func TestBalanceDistributionRespectsCancelledContext(t *testing.T) {
	tl, _ := newTestTimeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tl.BalanceDistribution(ctx, time.Second)
	assert.Error(t, err)
}
