package rangeedit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/rangeedit"
)

func countWrites(ops []rangeedit.Op) int {
	n := 0
	for _, op := range ops {
		if op.Kind == rangeedit.OpWrite {
			n++
		}
	}
	return n
}

func countResets(ops []rangeedit.Op) int {
	n := 0
	for _, op := range ops {
		if op.Kind == rangeedit.OpReset {
			n++
		}
	}
	return n
}

func TestWriteNewSingletonEmitsOneWrite(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	ops := m.Write(col, 500, datatype.NewInt(7))
	require.Len(t, ops, 1)
	assert.Equal(t, rangeedit.OpWrite, ops[0].Kind)
	assert.Equal(t, uint32(500), ops[0].Frame)
}

func TestResetSplitsAndReemitsFarSide(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	// Build a wide range [10,20) by driving a drag across it, then reset
	// an interior frame and confirm the far side gets re-written.
	m.BeginDrag(col, 10, datatype.NewInt(1))
	_, err := m.UpdateDrag(19)
	require.NoError(t, err)
	require.NoError(t, m.ReleaseDrag())

	ops := m.Reset(col, 15)
	require.Len(t, ops, 2)
	assert.Equal(t, rangeedit.OpReset, ops[0].Kind)
	assert.Equal(t, uint32(15), ops[0].Frame)
	assert.Equal(t, rangeedit.OpWrite, ops[1].Kind)
	assert.Equal(t, uint32(16), ops[1].Frame)
}

func TestDragGrowEmitsWriteForWholeSpan(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	m.BeginDrag(col, 500, datatype.NewInt(7))
	ops, err := m.UpdateDrag(600)
	require.NoError(t, err)
	// [500, 601) is 101 frames, all newly covered.
	assert.Equal(t, 101, countWrites(ops))
	require.NoError(t, m.ReleaseDrag())
}

func TestRollbackDragRestoresPriorState(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	m.Write(col, 50, datatype.NewInt(1))
	m.BeginDrag(col, 50, datatype.NewInt(1))
	_, err := m.UpdateDrag(60)
	require.NoError(t, err)

	ops := m.RollbackDrag()
	// Every frame (51..60) that the grown preview introduced must be
	// reset back to nothing, since the only committed state was the
	// original singleton at 50.
	assert.Equal(t, 10, countResets(ops))
}

func TestInsertFrameShiftsLaterRanges(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	m.Write(col, 100, datatype.NewInt(1))
	m.InsertFrame(50)

	// The singleton should now sit at frame 101, so writing at 101 lands
	// on it and emits exactly one Write at the shifted frame.
	ops := m.Write(col, 101, datatype.NewInt(9))
	require.Len(t, ops, 1)
	assert.Equal(t, uint32(101), ops[0].Frame)
}

func TestDeleteFrameIsInsertInverse(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	m.Write(col, 100, datatype.NewInt(1))
	m.InsertFrame(50)
	m.DeleteFrame(50)

	// After inserting then deleting the same frame, a reset at 100 should
	// behave exactly as it would have before either operation: removing
	// the singleton there.
	ops := m.Reset(col, 100)
	require.Len(t, ops, 1)
	assert.Equal(t, rangeedit.OpReset, ops[0].Kind)
}

func TestUpdateDragToSourceOnInteriorFrameIsNoOp(t *testing.T) {
	m := rangeedit.New()
	col := &datapath.DataPath{Source: "player.flags"}

	// Build a wide range [10,20) by driving a drag across it.
	m.BeginDrag(col, 10, datatype.NewInt(7))
	_, err := m.UpdateDrag(19)
	require.NoError(t, err)
	require.NoError(t, m.ReleaseDrag())

	// Dragging an interior frame (not a singleton, not touching either
	// edge) back to its own position must not split the range into two
	// adjacent pieces sharing the same value.
	m.BeginDrag(col, 15, datatype.NewInt(7))
	ops, err := m.UpdateDrag(15)
	require.NoError(t, err)
	assert.Empty(t, ops)
	require.NoError(t, m.ReleaseDrag())

	// If the drag had split [10,20) into [10,15)+[15,20), InsertFrame(15)
	// would leave the left piece untouched (its hi bound sits exactly on
	// the insertion point, not past it) while shifting the right piece
	// forward, opening a gap at frame 15. A single surviving [10,20)
	// entry instead widens to [10,21), so frame 15 stays covered and
	// Reset finds something to remove: it resets 15 and re-emits the far
	// side [16,21) as a Write at 16.
	m.InsertFrame(15)
	ops = m.Reset(col, 15)
	require.Len(t, ops, 2)
	assert.Equal(t, rangeedit.OpReset, ops[0].Kind)
}

func TestUpdateDragWithoutBeginReturnsError(t *testing.T) {
	m := rangeedit.New()
	_, err := m.UpdateDrag(10)
	require.Error(t, err)
	var nad *rangeedit.NoActiveDragError
	assert.ErrorAs(t, err, &nad)
}
