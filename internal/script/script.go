// Package script is an embedded Lua automation surface over the
// Pipeline, for batch/automated edits — the real-world analogue of the
// macro consoles TAS tools in this genre ship. A real embedded language
// via github.com/yuin/gopher-lua, rather than a line-replay "script"
// command that just replays recorded command lines, since Wafel's edits
// are richer than a flat command vocabulary can express comfortably
// (loops over frame ranges, conditionals on a read value).
package script

import (
	"math/big"

	lua "github.com/yuin/gopher-lua"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/pipeline"
	"github.com/branpk/wafel-sub001/sim"
)

// Engine wraps a *lua.LState with a "wafel" table bound to one Pipeline.
// Scripts are plain files with no persistence of their own — there is no
// cross-session state cache to persist, so an Engine is created fresh
// per run.
type Engine struct {
	L  *lua.LState
	pl *pipeline.Pipeline
}

// New returns an Engine whose "wafel" table drives pl.
func New(pl *pipeline.Pipeline) *Engine {
	e := &Engine{L: lua.NewState(), pl: pl}
	e.register()
	return e
}

// Close releases the underlying Lua state.
func (e *Engine) Close() {
	e.L.Close()
}

// DoString runs src as a Lua chunk.
func (e *Engine) DoString(src string) error {
	return e.L.DoString(src)
}

// DoFile runs the Lua chunk in path.
func (e *Engine) DoFile(path string) error {
	return e.L.DoFile(path)
}

func (e *Engine) register() {
	tbl := e.L.NewTable()
	e.L.SetFuncs(tbl, map[string]lua.LGFunction{
		"read":      e.luaRead,
		"write":     e.luaWrite,
		"reset":     e.luaReset,
		"set_range": e.luaSetRange,
		"hotspot":   e.luaHotspot,
		"variables": e.luaVariables,
	})
	e.L.SetGlobal("wafel", tbl)
}

// luaRead implements wafel.read(frame, name) -> value.
func (e *Engine) luaRead(L *lua.LState) int {
	frame := uint32(L.CheckInt(1))
	name := L.CheckString(2)
	v, err := e.pl.Read(frame, name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(valueToLua(L, v))
	return 1
}

// luaWrite implements wafel.write(frame, name, value).
func (e *Engine) luaWrite(L *lua.LState) int {
	frame := uint32(L.CheckInt(1))
	name := L.CheckString(2)
	kind, err := e.pl.Kind(name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	v, err := luaToValue(L, L.CheckAny(3), kind)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	if err := e.pl.Write(frame, name, v); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// luaReset implements wafel.reset(frame, name).
func (e *Engine) luaReset(L *lua.LState) int {
	frame := uint32(L.CheckInt(1))
	name := L.CheckString(2)
	if err := e.pl.Reset(frame, name); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// luaSetRange implements wafel.set_range(name, lo, hi, value).
func (e *Engine) luaSetRange(L *lua.LState) int {
	name := L.CheckString(1)
	lo := uint32(L.CheckInt(2))
	hi := uint32(L.CheckInt(3))
	kind, err := e.pl.Kind(name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	v, err := luaToValue(L, L.CheckAny(4), kind)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	if err := e.pl.SetRange(name, lo, hi, v); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// luaHotspot implements wafel.hotspot(name, frame).
func (e *Engine) luaHotspot(L *lua.LState) int {
	name := L.CheckString(1)
	frame := uint32(L.CheckInt(2))
	e.pl.Hotspot(name, frame)
	return 0
}

// luaVariables implements wafel.variables() -> {name, name, ...}.
func (e *Engine) luaVariables(L *lua.LState) int {
	defs := e.pl.Variables()
	out := L.NewTable()
	for i, d := range defs {
		out.RawSetInt(i+1, lua.LString(d.Name))
	}
	L.Push(out)
	return 1
}

// valueToLua converts a read datatype.Value into the Lua value a script
// sees: numbers for int/float/address, a string for a byte-string, nil
// for Null. Structs/arrays aren't exposed to Lua — a script addresses
// their fields as separate catalog variables instead.
func valueToLua(L *lua.LState, v datatype.Value) lua.LValue {
	switch v.Kind {
	case datatype.ValueNull:
		return lua.LNil
	case datatype.ValueInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return lua.LNumber(f)
	case datatype.ValueFloat:
		return lua.LNumber(v.Float)
	case datatype.ValueAddress:
		return lua.LNumber(v.Address)
	case datatype.ValueString:
		return lua.LString(v.Bytes)
	default:
		return lua.LString(v.String())
	}
}

// luaToValue converts a Lua argument back into a datatype.Value shaped
// to kind, which the caller derived from the target variable's declared
// type (pipeline.Pipeline.Kind) — the mirror of valueToLua.
func luaToValue(L *lua.LState, lv lua.LValue, kind datatype.ValueKind) (datatype.Value, error) {
	switch kind {
	case datatype.ValueFloat:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return datatype.Value{}, &TypeMismatchError{Want: "number", Got: lv.Type().String()}
		}
		return datatype.NewFloat(float64(n)), nil
	case datatype.ValueAddress:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return datatype.Value{}, &TypeMismatchError{Want: "number", Got: lv.Type().String()}
		}
		return datatype.NewAddress(sim.Address(int64(n))), nil
	default:
		switch x := lv.(type) {
		case lua.LNumber:
			return datatype.NewInt(int64(x)), nil
		case lua.LBool:
			if bool(x) {
				return datatype.NewInt(1), nil
			}
			return datatype.NewInt(0), nil
		default:
			return datatype.Value{}, &TypeMismatchError{Want: "number", Got: lv.Type().String()}
		}
	}
}
