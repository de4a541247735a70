// Package slotmgr is the slot-based state cache and
// scheduler that turns "read state at frame N" into a primitive despite
// the underlying simulator only supporting linear frame advance and
// whole-state snapshots. The request algorithm in Request is the core of
// the whole editor — everything else in the repo exists to make calling
// it cheap and to hide that it's being called at all.
//
// Generalizes a single save-slot's save/restore idea into a scheduled
// pool of them.
package slotmgr

import (
	"math/rand"
	"slices"
	"time"

	"github.com/branpk/wafel-sub001/sim"
)

// FrameKind tags the three states a tracked slot's Frame label can hold.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FramePowerOn
	FrameAt
)

// FrameLabel is the logical frame a slot's contents correspond to, or
// Unknown if its contents don't correspond to any known frame (because an
// edit invalidated it, or it has never been written).
type FrameLabel struct {
	Kind  FrameKind
	Frame uint32 // meaningful only when Kind == FrameAt
}

// At returns a FrameLabel naming a concrete frame.
func At(f uint32) FrameLabel { return FrameLabel{Kind: FrameAt, Frame: f} }

// PowerOn is the FrameLabel for the immutable baseline.
var PowerOn = FrameLabel{Kind: FramePowerOn}

// Unknown is the FrameLabel for a slot whose contents don't correspond to
// any frame.
var Unknown = FrameLabel{Kind: FrameUnknown}

// EditApplier is the Controller's view from the Slot Manager's side:
// apply every edit scheduled for frame against slot's contents. Errors
// are the Controller's problem to record and surface later — Advance
// never sees or propagates them, matching the requirement that applying
// edits can't make the scheduler itself fail.
type EditApplier interface {
	Apply(frame uint32, slot sim.Slot)
}

type trackedSlot struct {
	slot  sim.Slot
	label FrameLabel
}

// hotspotLadder is the fixed geometric alignment ladder BalanceDistribution
// rounds each hotspot down to, roughly one rung per UI zoom level.
var hotspotLadder = []uint32{1, 15, 40, 145, 410, 1505, 4010, 14005}

// Manager owns the one base slot, the power-on slot, and K backup slots
// for a single Timeline.
type Manager struct {
	sim     sim.Simulator
	applier EditApplier

	powerOn *trackedSlot
	base    *trackedSlot
	backups []*trackedSlot

	hotspots map[string]uint32
	rng      *rand.Rand

	numAdvances uint64
	numCopies   uint64
}

// New allocates numBackups backup slots from sim and returns a Manager
// with the base and power-on slots both starting at the power-on label
// (the game state right after init(), before any frame has advanced).
func New(s sim.Simulator, numBackups int, applier EditApplier) (*Manager, error) {
	m := &Manager{
		sim:      s,
		applier:  applier,
		powerOn:  &trackedSlot{slot: s.PowerOnSlot(), label: PowerOn},
		base:     &trackedSlot{slot: s.BaseSlot(), label: PowerOn},
		hotspots: make(map[string]uint32),
		rng:      rand.New(rand.NewSource(1)),
	}
	for i := 0; i < numBackups; i++ {
		slot, err := s.CreateBackupSlot()
		if err != nil {
			return nil, err
		}
		m.backups = append(m.backups, &trackedSlot{slot: slot, label: Unknown})
	}
	return m, nil
}

// NumSlots returns 1 (base) + 1 (power-on) + len(backups), per invariant
// 4 in : this never changes for the Manager's lifetime.
func (m *Manager) NumSlots() int { return 2 + len(m.backups) }

// NumAdvances and NumCopies are diagnostic counters.
func (m *Manager) NumAdvances() uint64 { return m.numAdvances }
func (m *Manager) NumCopies() uint64   { return m.numCopies }

// advance steps the base slot forward one frame, applying controller
// edits for the new frame before returning.
func (m *Manager) advance() error {
	if m.base.label.Kind == FrameUnknown {
		return ErrBaseUnknown
	}
	if err := m.sim.AdvanceBaseSlot(); err != nil {
		return err
	}
	var next uint32
	if m.base.label.Kind == FrameAt {
		next = m.base.label.Frame + 1
	}
	m.base.label = At(next)
	m.numAdvances++
	if m.applier != nil {
		m.applier.Apply(next, m.base.slot)
	}
	return nil
}

// copy overwrites dst's contents with src's. dst must
// not be the power-on slot.
func (m *Manager) copy(dst, src *trackedSlot) error {
	if dst == m.powerOn {
		return ErrMutatePowerOn
	}
	if err := m.sim.CopySlot(dst.slot, src.slot); err != nil {
		return err
	}
	dst.label = src.label
	m.numCopies++
	return nil
}

func candidateCost(target uint32, ts *trackedSlot, frame uint32, isBase bool) int64 {
	copiesNeeded := int64(0)
	if !isBase {
		copiesNeeded = 1
	}
	return 10*copiesNeeded + int64(target) - int64(frame)
}

// Request returns a slot holding frame target's contents, choosing the
// cheapest eligible source slot and advancing/copying as needed. When
// requireBase is true the returned slot is guaranteed to be the base
// slot (callers that need to keep scrubbing forward from here, or that
// need a Slot the simulator is willing to Advance again).
func (m *Manager) Request(target uint32, requireBase bool) (sim.Slot, error) {
	type candidate struct {
		ts     *trackedSlot
		frame  uint32
		isBase bool
	}
	var candidates []candidate
	consider := func(ts *trackedSlot, isBase bool) {
		switch ts.label.Kind {
		case FramePowerOn:
			candidates = append(candidates, candidate{ts, 0, isBase})
		case FrameAt:
			if ts.label.Frame <= target {
				candidates = append(candidates, candidate{ts, ts.label.Frame, isBase})
			}
		}
	}
	consider(m.powerOn, false)
	consider(m.base, true)
	for _, b := range m.backups {
		consider(b, false)
	}
	if len(candidates) == 0 {
		return nil, &NoCandidateSlotError{Target: target}
	}

	best := candidates[0]
	bestCost := candidateCost(target, best.ts, best.frame, best.isBase)
	for _, c := range candidates[1:] {
		cost := candidateCost(target, c.ts, c.frame, c.isBase)
		if cost < bestCost {
			best, bestCost = c, cost
		}
	}

	chosen := best.ts
	if chosen.label.Kind == FrameAt && chosen.label.Frame == target && (!requireBase || chosen == m.base) {
		return chosen.slot, nil
	}

	if chosen != m.base {
		if err := m.copy(m.base, chosen); err != nil {
			return nil, err
		}
	}
	for !(m.base.label.Kind == FrameAt && m.base.label.Frame == target) {
		if err := m.advance(); err != nil {
			return nil, err
		}
	}
	return m.base.slot, nil
}

// Invalidate marks every tracked slot (base and backups; the power-on
// slot is never invalidated) whose frame is at or after fromFrame as
// Unknown.
func (m *Manager) Invalidate(fromFrame uint32) {
	invalidate := func(ts *trackedSlot) {
		if ts.label.Kind == FrameAt && ts.label.Frame >= fromFrame {
			ts.label = Unknown
		}
	}
	invalidate(m.base)
	for _, b := range m.backups {
		invalidate(b)
	}
}

// BaseSlot returns the base slot for read-only introspection without
// disturbing its frame label.
func (m *Manager) BaseSlot() sim.Slot { return m.base.slot }

// BaseFrame reports the base slot's current frame label.
func (m *Manager) BaseFrame() FrameLabel { return m.base.label }

// BaseSlotMut returns the base slot for mutation outside the normal
// Advance/Copy path (e.g. running an introspection function with side
// effects). Its frame label is set to Unknown first so Request will
// never hand it out again to satisfy an At(f) request without first
// re-deriving it.
func (m *Manager) BaseSlotMut() sim.Slot {
	m.base.label = Unknown
	return m.base.slot
}

// SetHotspot records a frame the user is likely to scrub near, used by
// BalanceDistribution to decide where to park backup slots.
func (m *Manager) SetHotspot(name string, frame uint32) { m.hotspots[name] = frame }

// DeleteHotspot removes a previously set hotspot.
func (m *Manager) DeleteHotspot(name string) { delete(m.hotspots, name) }

// BalanceDistribution performs hotspot housekeeping, bounded by budget:
// for each target frame derived from the current hotspots (rounded down
// to each rung of hotspotLadder, deduplicated and sorted), land a
// non-base backup slot on it if one isn't there already, continuing
// until every target is covered or budget elapses.
func (m *Manager) BalanceDistribution(budget time.Duration) error {
	deadline := time.Now().Add(budget)

	targetSet := make(map[uint32]bool)
	for _, hotspot := range m.hotspots {
		for _, align := range hotspotLadder {
			targetSet[(hotspot/align)*align] = true
		}
	}
	targets := make([]uint32, 0, len(targetSet))
	for t := range targetSet {
		targets = append(targets, t)
	}
	slices.Sort(targets)

	used := make(map[*trackedSlot]bool)
	for _, target := range targets {
		if time.Now().After(deadline) {
			return nil
		}

		landed := false
		for _, b := range m.backups {
			if !used[b] && b.label.Kind == FrameAt && b.label.Frame == target {
				used[b] = true
				landed = true
				break
			}
		}
		if landed {
			continue
		}

		if _, err := m.Request(target, false); err != nil {
			return err
		}

		var pool []*trackedSlot
		for _, b := range m.backups {
			if !used[b] {
				pool = append(pool, b)
			}
		}
		if len(pool) == 0 {
			continue
		}
		pick := pool[m.rng.Intn(len(pool))]
		if err := m.copy(pick, m.base); err != nil {
			return err
		}
		used[pick] = true
	}
	return nil
}
