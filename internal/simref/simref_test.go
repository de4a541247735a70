package simref_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/simref"
	"github.com/branpk/wafel-sub001/internal/typelayout"
)

func TestDescriptionsBuild(t *testing.T) {
	_, err := typelayout.Build(simref.Descriptions())
	require.NoError(t, err)
}

func TestNullableAreaPointerFollowsMarioGroundState(t *testing.T) {
	s := simref.New()
	layout, err := typelayout.Build(simref.Descriptions())
	require.NoError(t, err)
	view := memview.New(s, nil)

	path, err := datapath.Compile("gMario->area?->camera.pos[1]", layout)
	require.NoError(t, err)

	// Power-on starts with no current area: the nullable edge short
	// circuits to Null.
	v, err := datapath.Read(path, view, s.PowerOnSlot(), layout)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	// After one advance Mario is on the ground and has a current area,
	// so the same path reads through to the camera's y coordinate.
	require.NoError(t, s.AdvanceBaseSlot())
	v, err = datapath.Read(path, view, s.BaseSlot(), layout)
	require.NoError(t, err)
	assert.Equal(t, float64(100), v.Float)
}

func TestStatusFlagMaskRoundTrip(t *testing.T) {
	s := simref.New()
	layout, err := typelayout.Build(simref.Descriptions())
	require.NoError(t, err)
	view := memview.New(s, nil)

	require.NoError(t, s.AdvanceBaseSlot())

	path, err := datapath.Compile("gMario->flags & FLAG_ON_GROUND", layout)
	require.NoError(t, err)

	v, err := datapath.Read(path, view, s.BaseSlot(), layout)
	require.NoError(t, err)
	assert.Equal(t, int64(simref.FlagOnGround), v.Int64())
}
