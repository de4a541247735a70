// Package rangeedit is per-column, disjoint half-open
// frame ranges bound to a single value each, with an interactive drag
// preview layered on top as a non-destructive overlay. Every mutation
// bottoms out in a sequence of Write/Reset/Insert/Delete Ops that the
// caller applies to an internal/controller.Controller — rangeedit never
// touches a Controller itself, matching the "edits as data, not
// callbacks" discipline the whole editor is built on.
//
// Because internal/controller stores exactly one edit per (frame, path)
// — the same one-sample-per-frame granularity moviecodec's movie format
// uses — a range spanning many frames realizes to one Write per frame in
// that range; there is no "apply once and let simulation carry it
// forward" shortcut, since the simulator is free to recompute anything
// not re-asserted every frame.
package rangeedit

import (
	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
)

// OpKind tags the variant of an Op.
type OpKind int

const (
	OpWrite OpKind = iota
	OpReset
	OpInsert
	OpDelete
)

// Op is one edit to apply to a Controller. Frame/Value are meaningful
// only for OpWrite; Frame only for OpReset/OpInsert/OpDelete; Col is
// unset for OpInsert/OpDelete, which apply across every column at once.
type Op struct {
	Kind  OpKind
	Col   *datapath.DataPath
	Frame uint32
	Value datatype.Value
}

// span is a half-open frame interval [Lo, Hi).
type span struct {
	lo, hi uint32
}

func (s span) contains(f uint32) bool { return f >= s.lo && f < s.hi }

type rangeEntry struct {
	id    int
	span  span
	value datatype.Value
}

type column struct {
	entries map[int]*rangeEntry
}

func newColumn() *column { return &column{entries: make(map[int]*rangeEntry)} }

func (c *column) find(frame uint32) *rangeEntry {
	for _, e := range c.entries {
		if e.span.contains(frame) {
			return e
		}
	}
	return nil
}

type dragState struct {
	col        *datapath.DataPath
	source     uint32
	value      datatype.Value
	reservedID int

	// committed is a frozen snapshot of the column's entries at
	// BeginDrag time, used by RollbackDrag to compute the ops that
	// restore Controller state exactly as it was before the drag began.
	committed map[int]*rangeEntry

	// overlay is the last preview materialized into the Controller (via
	// the Ops UpdateDrag returned); it starts equal to committed.
	overlay map[int]*rangeEntry
}

// Manager holds the range-edit state for every column (a data path with
// the frame dimension stripped) plus at most one in-progress drag.
type Manager struct {
	nextID  int
	columns map[*datapath.DataPath]*column
	drag    *dragState
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{columns: make(map[*datapath.DataPath]*column)}
}

func (m *Manager) col(path *datapath.DataPath) *column {
	c, ok := m.columns[path]
	if !ok {
		c = newColumn()
		m.columns[path] = c
	}
	return c
}

func (m *Manager) allocID() int {
	m.nextID++
	return m.nextID
}

// Write performs a single-cell write at (col, frame), finding or creating
// a singleton range [frame, frame+1) holding value.
func (m *Manager) Write(path *datapath.DataPath, frame uint32, value datatype.Value) []Op {
	ops := m.rollbackDrag()
	c := m.col(path)
	existing := c.find(frame)

	switch {
	case existing == nil:
		id := m.allocID()
		c.entries[id] = &rangeEntry{id: id, span: span{frame, frame + 1}, value: value}

	case existing.span.lo == frame && existing.span.hi == frame+1:
		existing.value = value

	default:
		old := *existing
		delete(c.entries, existing.id)
		if old.span.lo < frame {
			c.entries[old.id] = &rangeEntry{id: old.id, span: span{old.span.lo, frame}, value: old.value}
		}
		if frame+1 < old.span.hi {
			rightID := m.allocID()
			c.entries[rightID] = &rangeEntry{id: rightID, span: span{frame + 1, old.span.hi}, value: old.value}
		}
		newID := m.allocID()
		c.entries[newID] = &rangeEntry{id: newID, span: span{frame, frame + 1}, value: value}
	}

	return append(ops, Op{Kind: OpWrite, Col: path, Frame: frame, Value: value})
}

// Reset removes the single-frame edit at (col, frame), shrinking or
// splitting the containing range to exclude it. If the range splits, the
// far side gets a new id and is re-emitted as a Write.
func (m *Manager) Reset(path *datapath.DataPath, frame uint32) []Op {
	ops := m.rollbackDrag()
	c := m.col(path)
	existing := c.find(frame)
	if existing == nil {
		return ops
	}

	old := *existing
	delete(c.entries, existing.id)
	if old.span.lo < frame {
		c.entries[old.id] = &rangeEntry{id: old.id, span: span{old.span.lo, frame}, value: old.value}
	}
	ops = append(ops, Op{Kind: OpReset, Col: path, Frame: frame})
	if frame+1 < old.span.hi {
		rightID := m.allocID()
		c.entries[rightID] = &rangeEntry{id: rightID, span: span{frame + 1, old.span.hi}, value: old.value}
		ops = append(ops, Op{Kind: OpWrite, Col: path, Frame: frame + 1, Value: old.value})
	}
	return ops
}

// InsertFrame shifts every range at or after frame in every column
// forward by one, widening any range that straddled frame to cover the
// newly inserted one.
func (m *Manager) InsertFrame(frame uint32) []Op {
	ops := m.rollbackDrag()
	for _, c := range m.columns {
		for id, e := range c.entries {
			switch {
			case e.span.lo >= frame:
				c.entries[id] = &rangeEntry{id: id, span: span{e.span.lo + 1, e.span.hi + 1}, value: e.value}
			case e.span.hi > frame:
				c.entries[id] = &rangeEntry{id: id, span: span{e.span.lo, e.span.hi + 1}, value: e.value}
			}
		}
	}
	return append(ops, Op{Kind: OpInsert, Frame: frame})
}

// DeleteFrame is the index-shift inverse of InsertFrame: it removes frame
// from every column (collapsing a singleton range that sat exactly on
// it) and shifts everything after it backward by one. Implemented
// directly rather than in terms of InsertFrame, so the two stay each
// other's true inverse instead of one delegating to the other.
func (m *Manager) DeleteFrame(frame uint32) []Op {
	ops := m.rollbackDrag()
	for _, c := range m.columns {
		next := make(map[int]*rangeEntry, len(c.entries))
		for id, e := range c.entries {
			switch {
			case e.span.lo > frame:
				next[id] = &rangeEntry{id: id, span: span{e.span.lo - 1, e.span.hi - 1}, value: e.value}
			case e.span.hi > frame && e.span.hi-e.span.lo > 1:
				next[id] = &rangeEntry{id: id, span: span{e.span.lo, e.span.hi - 1}, value: e.value}
			case e.span.hi > frame:
				// singleton exactly at frame: dropped.
			default:
				next[id] = e
			}
		}
		c.entries = next
	}
	return append(ops, Op{Kind: OpDelete, Frame: frame})
}

// BeginDrag starts an interactive preview, rolling back any prior one
// first. It emits no ops of its own.
func (m *Manager) BeginDrag(path *datapath.DataPath, source uint32, sourceValue datatype.Value) []Op {
	ops := m.rollbackDrag()
	c := m.col(path)
	snapshot := make(map[int]*rangeEntry, len(c.entries))
	for id, e := range c.entries {
		cp := *e
		snapshot[id] = &cp
	}
	overlay := make(map[int]*rangeEntry, len(snapshot))
	for id, e := range snapshot {
		cp := *e
		overlay[id] = &cp
	}
	m.drag = &dragState{
		col:        path,
		source:     source,
		value:      sourceValue,
		reservedID: m.allocID(),
		committed:  snapshot,
		overlay:    overlay,
	}
	return ops
}

// UpdateDrag recomputes the preview for a new target frame and returns
// the minimal delta of ops needed to realize it. The case analysis below
// covers five shapes: no existing range at the source frame, dragging a
// range's top or bottom edge, and splitting a range's middle upward or
// downward.
func (m *Manager) UpdateDrag(target uint32) ([]Op, error) {
	d := m.drag
	if d == nil {
		return nil, &NoActiveDragError{}
	}

	newOverlay := make(map[int]*rangeEntry, len(d.overlay)+2)
	for id, e := range d.overlay {
		cp := *e
		newOverlay[id] = &cp
	}

	s, t := d.source, target
	var r *rangeEntry
	for _, e := range newOverlay {
		if e.span.contains(s) {
			r = e
			break
		}
	}

	switch {
	case r == nil:
		switch {
		case t == s:
			// no ops: dragging in place with nothing under the cursor.
		case t < s:
			newOverlay[d.reservedID] = &rangeEntry{id: d.reservedID, span: span{t, s + 1}, value: d.value}
			clearOverlap(newOverlay, m, t, s+1, d.reservedID)
		default:
			newOverlay[d.reservedID] = &rangeEntry{id: d.reservedID, span: span{s, t + 1}, value: d.value}
			clearOverlap(newOverlay, m, s, t+1, d.reservedID)
		}

	case r.span.hi-r.span.lo == 1:
		// r is a single-frame range and s is its only frame, so it's
		// simultaneously "the top edge" and "the bottom edge" — cases 2
		// and 3 would disagree about which bound stays fixed. Resolve it
		// the same way case 1 treats a bare cell: the whole range moves
		// with the drag, keeping whichever of source/target is smaller
		// as the new lower bound.
		switch {
		case t == s:
			// no change.
		case t < s:
			newOverlay[r.id] = &rangeEntry{id: r.id, span: span{t, s + 1}, value: r.value}
			clearOverlap(newOverlay, m, t, s+1, r.id)
		default:
			newOverlay[r.id] = &rangeEntry{id: r.id, span: span{s, t + 1}, value: r.value}
			clearOverlap(newOverlay, m, s, t+1, r.id)
		}

	case r.span.lo == s: // case 2: dragging the top edge
		clearOverlap(newOverlay, m, min(t, r.span.lo), r.span.lo, r.id)
		newOverlay[r.id] = &rangeEntry{id: r.id, span: span{t, r.span.hi}, value: r.value}

	case r.span.hi-1 == s: // case 3: dragging the bottom edge
		clearOverlap(newOverlay, m, r.span.hi, max(t+1, r.span.hi), r.id)
		newOverlay[r.id] = &rangeEntry{id: r.id, span: span{r.span.lo, t + 1}, value: r.value}

	case t == s:
		// dragging an interior frame back to itself: no split, no change.

	case t < s: // case 4: split upward
		reservedValue := r.value
		newOverlay[r.id] = &rangeEntry{id: r.id, span: span{r.span.lo, t + 1}, value: r.value}
		newOverlay[d.reservedID] = &rangeEntry{id: d.reservedID, span: span{s + 1, r.span.hi}, value: reservedValue}

	default: // case 5: split downward
		reservedValue := r.value
		newOverlay[d.reservedID] = &rangeEntry{id: d.reservedID, span: span{r.span.lo, s}, value: reservedValue}
		newOverlay[r.id] = &rangeEntry{id: r.id, span: span{t, r.span.hi}, value: r.value}
	}

	ops := diffOverlay(d.col, d.overlay, newOverlay)
	d.overlay = newOverlay
	return ops, nil
}

// ReleaseDrag commits the current preview into the column's base ranges
// and ends the drag. Because UpdateDrag already synced the preview into
// the Controller live, no further ops are needed here beyond ending the
// drag state itself.
func (m *Manager) ReleaseDrag() error {
	d := m.drag
	if d == nil {
		return &NoActiveDragError{}
	}
	c := m.col(d.col)
	committed := make(map[int]*rangeEntry, len(d.overlay))
	for id, e := range d.overlay {
		if e.span.lo >= e.span.hi {
			continue
		}
		cp := *e
		committed[id] = &cp
	}
	c.entries = committed
	m.drag = nil
	return nil
}

// RollbackDrag discards the current preview, restoring Controller state
// to what it was before the drag began, and returns the ops to do so.
func (m *Manager) RollbackDrag() []Op {
	return m.rollbackDrag()
}

// rollbackDrag is the internal form every other mutating operation calls
// first, so a Write/Reset/InsertFrame/DeleteFrame never leaves a stale
// drag preview lying around underneath it.
func (m *Manager) rollbackDrag() []Op {
	d := m.drag
	if d == nil {
		return nil
	}
	ops := diffOverlay(d.col, d.overlay, d.committed)
	m.drag = nil
	return ops
}

// clearOverlap removes the portion of every range in overlay (other than
// exclude) that falls in [lo, hi), splitting a range that straddles the
// boundary into its surviving pieces. mgr supplies fresh ids for any
// split-off remainder.
func clearOverlap(overlay map[int]*rangeEntry, mgr *Manager, lo, hi uint32, exclude int) {
	if lo >= hi {
		return
	}
	for id, e := range overlay {
		if id == exclude {
			continue
		}
		if e.span.hi <= lo || e.span.lo >= hi {
			continue
		}
		switch {
		case e.span.lo >= lo && e.span.hi <= hi:
			delete(overlay, id)
		case e.span.lo < lo && e.span.hi > hi:
			overlay[id] = &rangeEntry{id: id, span: span{e.span.lo, lo}, value: e.value}
			rightID := mgr.allocID()
			overlay[rightID] = &rangeEntry{id: rightID, span: span{hi, e.span.hi}, value: e.value}
		case e.span.lo < lo:
			overlay[id] = &rangeEntry{id: id, span: span{e.span.lo, lo}, value: e.value}
		default:
			overlay[id] = &rangeEntry{id: id, span: span{hi, e.span.hi}, value: e.value}
		}
	}
}

func materializeAt(overlay map[int]*rangeEntry, frame uint32) (datatype.Value, bool) {
	for _, e := range overlay {
		if e.span.contains(frame) {
			return e.value, true
		}
	}
	return datatype.Value{}, false
}

// diffOverlay compares two overlays frame by frame across their combined
// bounds and returns the minimal Write/Reset ops needed to turn the
// Controller state matching oldOverlay into one matching newOverlay.
func diffOverlay(col *datapath.DataPath, oldOverlay, newOverlay map[int]*rangeEntry) []Op {
	lo, hi, ok := bounds(oldOverlay, newOverlay)
	if !ok {
		return nil
	}
	var ops []Op
	for f := lo; f < hi; f++ {
		oldV, oldOK := materializeAt(oldOverlay, f)
		newV, newOK := materializeAt(newOverlay, f)
		switch {
		case newOK && (!oldOK || !valuesEqual(oldV, newV)):
			ops = append(ops, Op{Kind: OpWrite, Col: col, Frame: f, Value: newV})
		case oldOK && !newOK:
			ops = append(ops, Op{Kind: OpReset, Col: col, Frame: f})
		}
	}
	return ops
}

func bounds(maps ...map[int]*rangeEntry) (lo, hi uint32, ok bool) {
	first := true
	for _, m := range maps {
		for _, e := range m {
			if first {
				lo, hi, first = e.span.lo, e.span.hi, false
				ok = true
				continue
			}
			if e.span.lo < lo {
				lo = e.span.lo
			}
			if e.span.hi > hi {
				hi = e.span.hi
			}
		}
	}
	return lo, hi, ok
}

func valuesEqual(a, b datatype.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case datatype.ValueInt:
		if a.Int == nil || b.Int == nil {
			return a.Int == b.Int
		}
		return a.Int.Cmp(b.Int) == 0
	case datatype.ValueFloat:
		return a.Float == b.Float
	case datatype.ValueAddress:
		return a.Address == b.Address
	case datatype.ValueNull:
		return true
	default:
		return false
	}
}
