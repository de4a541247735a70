// Package pipeline is a thin façade over the Timeline and Range Edits
// manager that lets a UI speak in logical variable names ("mario-hp",
// "mario-on-ground") instead of raw data-path source strings. It is the
// only package a front end — the monitor REPL, the script console, the
// CLI — needs to import to read or edit game state.
package pipeline

import (
	"math/big"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/rangeedit"
	"github.com/branpk/wafel-sub001/timeline"
)

// VariableDef is one entry of a catalog loaded from TOML: a per-game
// concern kept out of the core packages entirely. Flag, when set, is
// compiled onto Path as a trailing "& Flag" mask clause — the same
// constant-or-literal grammar datapath.Compile already accepts for a
// mask — so a flag variable reads/writes a single bit without this
// package re-implementing constant lookup.
type VariableDef struct {
	Name  string `toml:"name"`
	Group string `toml:"group"`
	Path  string `toml:"path"`
	Flag  string `toml:"flag,omitempty"`
	Label string `toml:"label,omitempty"`
}

// Catalog is the top-level shape of a variable catalog TOML file.
type Catalog struct {
	Variable []VariableDef `toml:"variable"`
}

// variable is a VariableDef with its data path already compiled.
type variable struct {
	def    VariableDef
	path   *datapath.DataPath
	isFlag bool
}

// Pipeline owns one Timeline and one Range Edits manager and exposes
// variable-level operations over both.
type Pipeline struct {
	tl     *timeline.Timeline
	ranges *rangeedit.Manager
	vars   map[string]*variable
	order  []string
}

// New compiles every entry of catalog against layout and returns a
// Pipeline driving tl. Compilation happens once, up front, so a bad
// catalog entry fails at construction rather than at first use.
func New(tl *timeline.Timeline, layout datapath.Layout, catalog Catalog) (*Pipeline, error) {
	p := &Pipeline{
		tl:     tl,
		ranges: rangeedit.New(),
		vars:   make(map[string]*variable, len(catalog.Variable)),
	}
	for _, def := range catalog.Variable {
		if _, exists := p.vars[def.Name]; exists {
			return nil, &DuplicateVariableError{Name: def.Name}
		}
		src := def.Path
		isFlag := def.Flag != ""
		if isFlag {
			src = src + " & " + def.Flag
		}
		path, err := datapath.Compile(src, layout)
		if err != nil {
			return nil, &CatalogCompileError{Variable: def.Name, Source: src, Cause: err}
		}
		p.vars[def.Name] = &variable{def: def, path: path, isFlag: isFlag}
		p.order = append(p.order, def.Name)
	}
	return p, nil
}

// Variables returns every variable definition in catalog order, for a UI
// to build a frame×variable table or a command completer from.
func (p *Pipeline) Variables() []VariableDef {
	defs := make([]VariableDef, 0, len(p.order))
	for _, name := range p.order {
		defs = append(defs, p.vars[name].def)
	}
	return defs
}

func (p *Pipeline) lookup(name string) (*variable, error) {
	v, ok := p.vars[name]
	if !ok {
		return nil, &UndefinedVariableError{Name: name}
	}
	return v, nil
}

// Kind reports the datatype.ValueKind a front end must build to Write
// name — a flag variable always reports ValueInt (the 0/1 a UI works
// with), regardless of the underlying field's width, since Write expands
// it to the full mask value itself.
func (p *Pipeline) Kind(name string) (datatype.ValueKind, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	if v.isFlag {
		return datatype.ValueInt, nil
	}
	switch v.path.ConcreteType.Kind {
	case datatype.KindFloat:
		return datatype.ValueFloat, nil
	case datatype.KindPointer:
		return datatype.ValueAddress, nil
	case datatype.KindStruct, datatype.KindUnion:
		return datatype.ValueStruct, nil
	case datatype.KindArray:
		return datatype.ValueArray, nil
	default:
		return datatype.ValueInt, nil
	}
}

// Read returns the current value of variable at frame. Flag variables
// normalize the masked integer down to 0 or 1.
func (p *Pipeline) Read(frame uint32, name string) (datatype.Value, error) {
	v, err := p.lookup(name)
	if err != nil {
		return datatype.Value{}, err
	}
	val, err := p.tl.Read(frame, v.path)
	if err != nil {
		return datatype.Value{}, err
	}
	if v.isFlag && val.Kind == datatype.ValueInt {
		if val.Int.Sign() != 0 {
			return datatype.NewInt(1), nil
		}
		return datatype.NewInt(0), nil
	}
	return val, nil
}

// Write performs a single-cell edit of variable at frame, going through
// Range Edits so the write participates in the same column bookkeeping
// a subsequent range/drag operation would see. A flag variable's
// incoming 0/1 value is expanded to the full mask value on write so the
// Controller's masked read-modify-write (internal/datapath's Write)
// sets or clears exactly the declared bit.
func (p *Pipeline) Write(frame uint32, name string, value datatype.Value) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	value = p.normalizeWrite(v, value)
	ops := p.ranges.Write(v.path, frame, value)
	p.applyOps(ops)
	return nil
}

// Reset removes the edit at (frame, variable), symmetric to Write.
func (p *Pipeline) Reset(frame uint32, name string) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	ops := p.ranges.Reset(v.path, frame)
	p.applyOps(ops)
	return nil
}

// SetRange assigns value to every frame in the half-open range [lo, hi)
// of variable's column in one operation, built out of the same drag
// primitives an interactive range-grow would use: write the anchor cell
// at lo, then drag it out to hi-1 and release (the same case a manual
// drag of a single-frame range from lo to hi-1 takes).
func (p *Pipeline) SetRange(name string, lo, hi uint32, value datatype.Value) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	if hi <= lo {
		return &EmptyRangeError{Variable: name, Lo: lo, Hi: hi}
	}
	value = p.normalizeWrite(v, value)

	p.applyOps(p.ranges.Write(v.path, lo, value))
	if hi == lo+1 {
		return nil
	}
	p.applyOps(p.ranges.BeginDrag(v.path, lo, value))
	dragOps, err := p.ranges.UpdateDrag(hi - 1)
	if err != nil {
		return err
	}
	p.applyOps(dragOps)
	return p.ranges.ReleaseDrag()
}

// BeginDrag, UpdateDrag, ReleaseDrag, and RollbackDrag expose the
// interactive range-drag preview directly, for a UI driving it frame by
// frame (the monitor REPL's "drag" command, or a script console call).
func (p *Pipeline) BeginDrag(name string, sourceFrame uint32, sourceValue datatype.Value) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	p.applyOps(p.ranges.BeginDrag(v.path, sourceFrame, p.normalizeWrite(v, sourceValue)))
	return nil
}

func (p *Pipeline) UpdateDrag(targetFrame uint32) error {
	ops, err := p.ranges.UpdateDrag(targetFrame)
	if err != nil {
		return err
	}
	p.applyOps(ops)
	return nil
}

func (p *Pipeline) ReleaseDrag() error {
	return p.ranges.ReleaseDrag()
}

func (p *Pipeline) RollbackDrag() {
	p.applyOps(p.ranges.RollbackDrag())
}

// Hotspot and DeleteHotspot forward to the underlying Timeline.
func (p *Pipeline) Hotspot(name string, frame uint32) {
	p.tl.SetHotspot(name, frame)
}

func (p *Pipeline) DeleteHotspot(name string) {
	p.tl.DeleteHotspot(name)
}

// normalizeWrite expands a flag variable's boolean-ish 0/1 value to the
// full mask value so the masked write in internal/datapath sets/clears
// exactly the declared bit; non-flag variables pass through unchanged.
func (p *Pipeline) normalizeWrite(v *variable, value datatype.Value) datatype.Value {
	if !v.isFlag || value.Kind != datatype.ValueInt {
		return value
	}
	if value.Int.Sign() != 0 {
		return datatype.Value{Kind: datatype.ValueInt, Int: new(big.Int).Set(v.path.Mask)}
	}
	return datatype.NewInt(0)
}

// applyOps realizes a batch of rangeedit.Ops against the Timeline. The
// four Op kinds map directly onto Timeline's own Write/Reset/
// InsertFrame/DeleteFrame surface, since Range Edits never touches a
// Controller itself — it only ever describes what should happen to one.
func (p *Pipeline) applyOps(ops []rangeedit.Op) {
	for _, op := range ops {
		switch op.Kind {
		case rangeedit.OpWrite:
			p.tl.Write(op.Frame, op.Col, op.Value)
		case rangeedit.OpReset:
			p.tl.Reset(op.Frame, op.Col)
		case rangeedit.OpInsert:
			p.tl.InsertFrame(op.Frame)
		case rangeedit.OpDelete:
			p.tl.DeleteFrame(op.Frame)
		}
	}
}
