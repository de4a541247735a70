// Package monitor is an interactive, line-oriented console over the
// Pipeline — evaluating catalog variables, scrubbing frames, and driving
// range edits from a terminal. A command verb plus flat string arguments
// is parsed and dispatched through a table of handlers, printing to a
// scrollback rather than panicking on a bad command. Like the Script
// Console, it never bypasses the Pipeline.
package monitor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/moviecodec"
	"github.com/branpk/wafel-sub001/pipeline"
	"github.com/branpk/wafel-sub001/sim"
)

// Clipboard is the narrow surface Monitor's "yank" command needs —
// satisfied by golang.design/x/clipboard in the interactive front end
// and by a fake in tests, the same narrow-interface discipline
// sim.Simulator uses for the native library.
type Clipboard interface {
	Write(text string) error
}

// Monitor is a REPL over one Pipeline: a frame cursor plus the last
// value read, for "yank".
type Monitor struct {
	pl   *pipeline.Pipeline
	clip Clipboard

	frame   uint32
	lastVal datatype.Value
	haveVal bool

	out io.Writer
}

// New returns a Monitor driving pl. clip may be nil — "yank" then
// reports that no clipboard is configured instead of failing the whole
// command loop.
func New(pl *pipeline.Pipeline, clip Clipboard) *Monitor {
	return &Monitor{pl: pl, clip: clip}
}

// Run reads one command per line from in until EOF or a "quit", writing
// output to out. It never aborts the loop on a bad command — the error
// is printed and the next line is read.
func (m *Monitor) Run(in io.Reader, out io.Writer) error {
	m.out = out
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := ParseCommand(scanner.Text())
		if cmd.Name == "" {
			continue
		}
		if cmd.Name == "quit" || cmd.Name == "exit" {
			return nil
		}
		if err := m.dispatch(cmd); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (m *Monitor) dispatch(cmd Command) error {
	switch cmd.Name {
	case "goto":
		return m.cmdGoto(cmd)
	case "read":
		return m.cmdRead(cmd)
	case "write":
		return m.cmdWrite(cmd)
	case "reset":
		return m.cmdReset(cmd)
	case "range":
		return m.cmdRange(cmd)
	case "drag":
		return m.cmdDrag(cmd)
	case "hotspot":
		return m.cmdHotspot(cmd)
	case "yank":
		return m.cmdYank(cmd)
	case "movie":
		return m.cmdMovie(cmd)
	case "help":
		m.cmdHelp()
		return nil
	default:
		return &UnknownCommandError{Name: cmd.Name}
	}
}

func (m *Monitor) cmdGoto(cmd Command) error {
	if len(cmd.Args) != 1 {
		return &UsageError{Name: cmd.Name, Usage: "goto <frame>"}
	}
	f, err := parseFrame(cmd.Args[0])
	if err != nil {
		return err
	}
	m.frame = f
	return nil
}

func (m *Monitor) cmdRead(cmd Command) error {
	if len(cmd.Args) != 1 {
		return &UsageError{Name: cmd.Name, Usage: "read <variable>"}
	}
	v, err := m.pl.Read(m.frame, cmd.Args[0])
	if err != nil {
		return err
	}
	m.lastVal, m.haveVal = v, true
	fmt.Fprintf(m.out, "%d: %s = %s\n", m.frame, cmd.Args[0], v.String())
	return nil
}

func (m *Monitor) cmdWrite(cmd Command) error {
	if len(cmd.Args) != 2 {
		return &UsageError{Name: cmd.Name, Usage: "write <variable> <value>"}
	}
	kind, err := m.pl.Kind(cmd.Args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(cmd.Args[1], kind)
	if err != nil {
		return err
	}
	return m.pl.Write(m.frame, cmd.Args[0], v)
}

func (m *Monitor) cmdReset(cmd Command) error {
	if len(cmd.Args) != 1 {
		return &UsageError{Name: cmd.Name, Usage: "reset <variable>"}
	}
	return m.pl.Reset(m.frame, cmd.Args[0])
}

func (m *Monitor) cmdRange(cmd Command) error {
	if len(cmd.Args) != 4 {
		return &UsageError{Name: cmd.Name, Usage: "range <variable> <lo> <hi> <value>"}
	}
	lo, hi, err := parseSpan(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return err
	}
	kind, err := m.pl.Kind(cmd.Args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(cmd.Args[3], kind)
	if err != nil {
		return err
	}
	return m.pl.SetRange(cmd.Args[0], lo, hi, v)
}

// cmdDrag runs the three-step interactive preview in one shot: begin at
// src with its currently-read value, update to target, release.
func (m *Monitor) cmdDrag(cmd Command) error {
	if len(cmd.Args) != 3 {
		return &UsageError{Name: cmd.Name, Usage: "drag <variable> <src_frame> <target_frame>"}
	}
	src, target, err := parseSpan(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return err
	}
	sourceValue, err := m.pl.Read(src, cmd.Args[0])
	if err != nil {
		return err
	}
	if err := m.pl.BeginDrag(cmd.Args[0], src, sourceValue); err != nil {
		return err
	}
	if err := m.pl.UpdateDrag(target); err != nil {
		return err
	}
	return m.pl.ReleaseDrag()
}

func (m *Monitor) cmdHotspot(cmd Command) error {
	if len(cmd.Args) != 2 {
		return &UsageError{Name: cmd.Name, Usage: "hotspot <name> <frame>"}
	}
	f, err := parseFrame(cmd.Args[1])
	if err != nil {
		return err
	}
	m.pl.Hotspot(cmd.Args[0], f)
	return nil
}

func (m *Monitor) cmdYank(cmd Command) error {
	if !m.haveVal {
		return &NoCursorValueError{}
	}
	if m.clip == nil {
		fmt.Fprintln(m.out, "yank: no clipboard configured")
		return nil
	}
	return m.clip.Write(m.lastVal.String())
}

func (m *Monitor) cmdMovie(cmd Command) error {
	if len(cmd.Args) != 2 || cmd.Args[0] != "load" {
		return &UsageError{Name: cmd.Name, Usage: "movie load <file>"}
	}
	f, err := os.Open(cmd.Args[1])
	if err != nil {
		return err
	}
	defer f.Close()
	mv, err := moviecodec.Read(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "loaded %d inputs from %s\n", len(mv.Inputs), cmd.Args[1])
	return nil
}

func (m *Monitor) cmdHelp() {
	fmt.Fprint(m.out, `commands:
  goto <frame>
  read <variable>
  write <variable> <value>
  reset <variable>
  range <variable> <lo> <hi> <value>
  drag <variable> <src_frame> <target_frame>
  hotspot <name> <frame>
  yank
  movie load <file>
  quit
`)
}

func parseFrame(text string) (uint32, error) {
	f, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, &ValueParseError{Text: text, Kind: "frame number"}
	}
	return uint32(f), nil
}

func parseSpan(a, b string) (uint32, uint32, error) {
	lo, err := parseFrame(a)
	if err != nil {
		return 0, 0, err
	}
	hi, err := parseFrame(b)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// parseValue parses a REPL argument into a datatype.Value shaped to
// kind — the string-input mirror of internal/script's Lua-number
// conversion, since a terminal only ever hands Monitor plain text.
func parseValue(text string, kind datatype.ValueKind) (datatype.Value, error) {
	switch kind {
	case datatype.ValueFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return datatype.Value{}, &ValueParseError{Text: text, Kind: "float"}
		}
		return datatype.NewFloat(f), nil
	case datatype.ValueAddress:
		n, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 64)
		if err != nil {
			return datatype.Value{}, &ValueParseError{Text: text, Kind: "address"}
		}
		return datatype.NewAddress(sim.Address(n)), nil
	case datatype.ValueInt:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return datatype.Value{}, &ValueParseError{Text: text, Kind: "integer"}
		}
		return datatype.NewInt(n), nil
	default:
		return datatype.Value{}, &ValueParseError{Text: text, Kind: "scalar"}
	}
}
