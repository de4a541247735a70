// Package timeline is the composition of the Slot Manager,
// Controller, and Data Cache into the single "random access frame" API
// the rest of Wafel is built on. Nothing outside this package should ever
// reach into internal/slotmgr, internal/controller, or internal/datacache
// directly — Timeline is the only thing that owns all three at once, per
// ownership rule.
package timeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/branpk/wafel-sub001/internal/controller"
	"github.com/branpk/wafel-sub001/internal/datacache"
	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/invalidate"
	"github.com/branpk/wafel-sub001/internal/slotmgr"
	"github.com/branpk/wafel-sub001/sim"
)

// Config bounds the Data Cache and lists paths to opportunistically
// preload whenever a cache miss forces a slot visit, so a single advance
// pays for several reads at once.
type Config struct {
	NumBackupSlots  int
	CacheBudgetByte int
	CacheCapHint    int
	Preload         []*datapath.DataPath
}

// Timeline is the public, single-threaded-owner entry point for random
// access to simulated frame state.
type Timeline struct {
	sim    sim.Simulator
	memory datapath.Memory
	layout datapath.Layout

	slots      *slotmgr.Manager
	ctrl       *controller.Controller
	cache      *datacache.Cache
	preload    []*datapath.DataPath
	guard      *semaphore.Weighted
}

// New builds a Timeline over sim using memory/layout to evaluate data
// paths, per cfg.
func New(s sim.Simulator, memory datapath.Memory, layout datapath.Layout, cfg Config) (*Timeline, error) {
	t := &Timeline{
		sim:     s,
		memory:  memory,
		layout:  layout,
		preload: cfg.Preload,
		guard:   semaphore.NewWeighted(1),
	}
	ctrl := controller.New(memory, layout)
	t.ctrl = ctrl

	capHint := cfg.CacheCapHint
	if capHint <= 0 {
		capHint = 4096
	}
	cache, err := datacache.New(cfg.CacheBudgetByte, capHint)
	if err != nil {
		return nil, err
	}
	t.cache = cache

	mgr, err := slotmgr.New(s, cfg.NumBackupSlots, ctrl)
	if err != nil {
		return nil, err
	}
	t.slots = mgr

	return t, nil
}

// enter acquires the single-owner guard non-blockingly, panicking if it
// is already held — a reentrant call from inside an edit-apply callback,
// or a genuinely concurrent call from another goroutine, turning a
// documented precondition into a checked one.
func (t *Timeline) enter(op string) {
	if !t.guard.TryAcquire(1) {
		panic(fmt.Sprintf("timeline: reentrant or concurrent call to %s", op))
	}
}

func (t *Timeline) leave() {
	t.guard.Release(1)
}

// Read evaluates path at frame, preferring the cache, and surfaces the
// earliest edit-apply error recorded on any frame <= frame.
func (t *Timeline) Read(frame uint32, path *datapath.DataPath) (datatype.Value, error) {
	t.enter("Read")
	defer t.leave()
	return t.read(frame, path)
}

func (t *Timeline) read(frame uint32, path *datapath.DataPath) (datatype.Value, error) {
	if v, ok := t.cache.Get(frame, path); ok {
		if _, err, found := t.ctrl.FirstErrorAtOrBefore(frame); found {
			return datatype.Value{}, err
		}
		return v, nil
	}

	slot, err := t.slots.Request(frame, false)
	if err != nil {
		return datatype.Value{}, err
	}

	v, err := datapath.Read(path, t.memory, slot, t.layout)
	if err != nil {
		return datatype.Value{}, err
	}
	t.cache.Put(frame, path, v)

	for _, p := range t.preload {
		if p == path {
			continue
		}
		if _, ok := t.cache.Get(frame, p); ok {
			continue
		}
		if pv, perr := datapath.Read(p, t.memory, slot, t.layout); perr == nil {
			t.cache.Put(frame, p, pv)
		}
	}

	if _, applyErr, found := t.ctrl.FirstErrorAtOrBefore(frame); found {
		return datatype.Value{}, applyErr
	}
	return v, nil
}

// Write installs value at (frame, path) and invalidates every slot/cache
// entry from frame forward.
func (t *Timeline) Write(frame uint32, path *datapath.DataPath, value datatype.Value) {
	t.enter("Write")
	defer t.leave()
	inv := t.ctrl.Write(frame, path, value)
	t.applyInvalidation(inv)
}

// Reset removes any edit at (frame, path), symmetric to Write.
func (t *Timeline) Reset(frame uint32, path *datapath.DataPath) {
	t.enter("Reset")
	defer t.leave()
	inv := t.ctrl.Reset(frame, path)
	t.applyInvalidation(inv)
}

func (t *Timeline) applyInvalidation(inv invalidate.Set) {
	frame, ok := inv.Frame()
	if !ok {
		return
	}
	t.slots.Invalidate(frame)
	t.cache.Invalidate(frame)
}

// BaseSlot hands out an immutable borrow of the base slot holding frame,
// for read-only introspection.
func (t *Timeline) BaseSlot(frame uint32) (sim.Slot, error) {
	t.enter("BaseSlot")
	defer t.leave()
	return t.slots.Request(frame, true)
}

// BaseSlotMut hands out a unique borrow of the base slot holding frame
// for direct mutation (e.g. running an introspection function that may
// have side effects). The slot is marked Unknown on return, per
// mutable base access rule.
func (t *Timeline) BaseSlotMut(frame uint32) (sim.Slot, error) {
	t.enter("BaseSlotMut")
	defer t.leave()
	if _, err := t.slots.Request(frame, true); err != nil {
		return nil, err
	}
	return t.slots.BaseSlotMut(), nil
}

// InsertFrame and DeleteFrame shift every Controller edit at or after
// frame, then invalidate everything from frame forward
// since the simulated trajectory itself has shifted.
func (t *Timeline) InsertFrame(frame uint32) {
	t.enter("InsertFrame")
	defer t.leave()
	t.applyInvalidation(t.ctrl.InsertFrame(frame))
}

func (t *Timeline) DeleteFrame(frame uint32) {
	t.enter("DeleteFrame")
	defer t.leave()
	t.applyInvalidation(t.ctrl.DeleteFrame(frame))
}

// SetHotspot and DeleteHotspot control housekeeping.
func (t *Timeline) SetHotspot(name string, frame uint32) {
	t.enter("SetHotspot")
	defer t.leave()
	t.slots.SetHotspot(name, frame)
}

func (t *Timeline) DeleteHotspot(name string) {
	t.enter("DeleteHotspot")
	defer t.leave()
	t.slots.DeleteHotspot(name)
}

// BalanceDistribution runs one bounded housekeeping pass, meant to be
// driven periodically by the UI's frame loop under a wall-clock budget.
// If ctx is already cancelled it returns immediately without doing any
// work.
func (t *Timeline) BalanceDistribution(ctx context.Context, budget time.Duration) error {
	t.enter("BalanceDistribution")
	defer t.leave()
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.slots.BalanceDistribution(budget)
}
