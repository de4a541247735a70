package script_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/script"
	"github.com/branpk/wafel-sub001/internal/simref"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/pipeline"
	"github.com/branpk/wafel-sub001/timeline"
)

const testCatalog = `
[[variable]]
name = "mario-hp"
group = "mario"
path = "gMario->health"

[[variable]]
name = "mario-on-ground"
group = "mario"
path = "gMario->flags"
flag = "FLAG_ON_GROUND"
`

func newTestEngine(t *testing.T) *script.Engine {
	t.Helper()
	s := simref.New()
	layout, err := typelayout.Build(simref.Descriptions())
	require.NoError(t, err)
	view := memview.New(s, nil)
	tl, err := timeline.New(s, view, layout, timeline.Config{NumBackupSlots: 4})
	require.NoError(t, err)

	cat, err := pipeline.DecodeCatalog(testCatalog)
	require.NoError(t, err)
	p, err := pipeline.New(tl, layout, cat)
	require.NoError(t, err)

	e := script.New(p)
	t.Cleanup(e.Close)
	return e
}

func TestScriptReadWrite(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.DoString(`
		wafel.write(5, "mario-hp", 3)
		local v = wafel.read(5, "mario-hp")
		assert(v == 3, "expected 3, got " .. tostring(v))
	`))
}

func TestScriptSetRangeAndFlag(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.DoString(`
		wafel.set_range("mario-hp", 100, 110, 1)
		for f = 100, 109 do
			assert(wafel.read(f, "mario-hp") == 1)
		end
		-- no edit at 110; simref never rewrites health, so 109's value carries
		assert(wafel.read(110, "mario-hp") == 1)

		wafel.write(10, "mario-on-ground", 1)
		assert(wafel.read(10, "mario-on-ground") == 1)
	`))
}

func TestScriptUndefinedVariableRaisesLuaError(t *testing.T) {
	e := newTestEngine(t)
	err := e.DoString(`wafel.read(0, "nonexistent")`)
	require.Error(t, err)
}

func TestScriptVariablesListing(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.DoString(`
		local names = wafel.variables()
		assert(#names == 2)
	`))
}
