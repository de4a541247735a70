package monitor_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/monitor"
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

type fakeClipboard struct {
	last string
}

func (c *fakeClipboard) Write(text string) error {
	c.last = text
	return nil
}

func newTestMonitor(t *testing.T, clip monitor.Clipboard) *monitor.Monitor {
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

	return monitor.New(p, clip)
}

func run(t *testing.T, m *monitor.Monitor, script string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, m.Run(strings.NewReader(script), &out))
	return out.String()
}

func TestMonitorGotoReadWrite(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "goto 5\nwrite mario-hp 3\nread mario-hp\n")
	require.Contains(t, out, "5: mario-hp = 3")
}

func TestMonitorReset(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "goto 5\nwrite mario-hp 3\nreset mario-hp\nread mario-hp\n")
	require.Contains(t, out, "5: mario-hp = 8")
}

func TestMonitorRange(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "range mario-hp 100 110 1\ngoto 105\nread mario-hp\ngoto 110\nread mario-hp\n")
	require.Contains(t, out, "105: mario-hp = 1")
	// No edit at 110; simref never rewrites health, so 109's value carries.
	require.Contains(t, out, "110: mario-hp = 1")
}

func TestMonitorDrag(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "write mario-hp 2\ngoto 0\nread mario-hp\ndrag mario-hp 0 3\ngoto 3\nread mario-hp\n")
	require.Contains(t, out, "0: mario-hp = 2")
	require.Contains(t, out, "3: mario-hp = 2")
}

func TestMonitorFlagVariable(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "write mario-on-ground 1\nread mario-on-ground\n")
	require.Contains(t, out, "mario-on-ground = 1")
}

func TestMonitorYankRequiresPriorRead(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "yank\n")
	require.Contains(t, out, "nothing read yet")
}

func TestMonitorYankUsesClipboard(t *testing.T) {
	clip := &fakeClipboard{}
	m := newTestMonitor(t, clip)
	run(t, m, "write mario-hp 7\nread mario-hp\nyank\n")
	require.Equal(t, "7", clip.last)
}

func TestMonitorUnknownCommand(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "bogus\n")
	require.Contains(t, out, "unknown command")
}

func TestMonitorUsageError(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "write mario-hp\n")
	require.Contains(t, out, "usage:")
}

func TestMonitorHelp(t *testing.T) {
	m := newTestMonitor(t, nil)
	out := run(t, m, "help\n")
	require.Contains(t, out, "goto <frame>")
}
