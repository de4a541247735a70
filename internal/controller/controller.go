// Package controller is a collection of per-frame edits
// (path→value overrides) applied by the Slot Manager at the end of each
// advance. Edits are plain data, not callbacks — this keeps the
// scheduler (internal/slotmgr) trivially reason-about-able: it never
// calls back into anything more complex than "write this value at this
// address."
package controller

import (
	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/invalidate"
	"github.com/branpk/wafel-sub001/sim"
)

type entry struct {
	path  *datapath.DataPath
	value datatype.Value
}

// Controller holds the edit list and applies it against a slot at the
// point the Slot Manager calls Apply — after advancing, before the edited
// frame is ever read back.
type Controller struct {
	memory datapath.Memory
	layout datapath.Layout

	edits  map[uint32][]entry
	errors map[uint32]error
}

// New returns a Controller that writes edits through memory against
// layout.
func New(memory datapath.Memory, layout datapath.Layout) *Controller {
	return &Controller{
		memory: memory,
		layout: layout,
		edits:  make(map[uint32][]entry),
		errors: make(map[uint32]error),
	}
}

// Write records that path should hold value at frame, replacing any
// existing entry for the same path identity in that frame (moving it to
// the end of the list, so later writes still override earlier ones for
// the same key). Returns the resulting invalidation set.
func (c *Controller) Write(frame uint32, path *datapath.DataPath, value datatype.Value) invalidate.Set {
	list := c.edits[frame]
	out := make([]entry, 0, len(list)+1)
	for _, e := range list {
		if e.path != path {
			out = append(out, e)
		}
	}
	out = append(out, entry{path: path, value: value})
	c.edits[frame] = out
	delete(c.errors, frame)
	return invalidate.From(frame)
}

// Reset removes any edit for path at frame. Returns From(frame) iff an
// entry was actually removed, else None.
func (c *Controller) Reset(frame uint32, path *datapath.DataPath) invalidate.Set {
	list, ok := c.edits[frame]
	if !ok {
		return invalidate.None
	}
	out := make([]entry, 0, len(list))
	removed := false
	for _, e := range list {
		if e.path == path {
			removed = true
			continue
		}
		out = append(out, e)
	}
	if !removed {
		return invalidate.None
	}
	if len(out) == 0 {
		delete(c.edits, frame)
	} else {
		c.edits[frame] = out
	}
	delete(c.errors, frame)
	return invalidate.From(frame)
}

// Apply writes every edit scheduled for frame, in list order, into slot.
// It implements slotmgr.EditApplier. Apply errors are not propagated —
// they're recorded in the sparse per-frame error map and
// surfaced later through Error/FirstErrorAtOrBefore.
func (c *Controller) Apply(frame uint32, slot sim.Slot) {
	list, ok := c.edits[frame]
	if !ok {
		return
	}
	for _, e := range list {
		if err := datapath.Write(e.path, c.memory, slot, c.layout, e.value); err != nil {
			c.errors[frame] = err
		}
	}
}

// InsertFrame shifts every edit and recorded error at or after frame
// forward by one, making room for a newly inserted frame of simulation.
// Insert and Delete are each other's index-shift inverse, never
// implemented in terms of one another.
func (c *Controller) InsertFrame(frame uint32) invalidate.Set {
	c.edits = shiftEdits(c.edits, frame, 1)
	c.errors = shiftErrors(c.errors, frame, 1)
	return invalidate.From(frame)
}

// DeleteFrame drops any edit/error recorded exactly at frame, then shifts
// everything after it back by one.
func (c *Controller) DeleteFrame(frame uint32) invalidate.Set {
	delete(c.edits, frame)
	delete(c.errors, frame)
	c.edits = shiftEdits(c.edits, frame, -1)
	c.errors = shiftErrors(c.errors, frame, -1)
	return invalidate.From(frame)
}

// shiftEdits re-keys every entry at or after frame by delta (+1 or -1).
func shiftEdits(edits map[uint32][]entry, frame uint32, delta int32) map[uint32][]entry {
	out := make(map[uint32][]entry, len(edits))
	for f, list := range edits {
		if f >= frame {
			out[uint32(int64(f)+int64(delta))] = list
		} else {
			out[f] = list
		}
	}
	return out
}

func shiftErrors(errs map[uint32]error, frame uint32, delta int32) map[uint32]error {
	out := make(map[uint32]error, len(errs))
	for f, err := range errs {
		if f >= frame {
			out[uint32(int64(f)+int64(delta))] = err
		} else {
			out[f] = err
		}
	}
	return out
}

// Error returns the apply error recorded for frame, if any.
func (c *Controller) Error(frame uint32) (error, bool) {
	err, ok := c.errors[frame]
	return err, ok
}

// FirstErrorAtOrBefore scans the sparse error map for the earliest frame
// at or before upTo carrying a recorded apply error — what Timeline.Read
// uses to surface the earliest edit-apply error on any frame <= frame.
func (c *Controller) FirstErrorAtOrBefore(upTo uint32) (frame uint32, err error, found bool) {
	bestFrame := uint32(0)
	var bestErr error
	found = false
	for f, e := range c.errors {
		if f > upTo {
			continue
		}
		if !found || f < bestFrame {
			bestFrame, bestErr, found = f, e, true
		}
	}
	return bestFrame, bestErr, found
}
