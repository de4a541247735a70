package datapath

import (
	"math/big"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/sim"
)

// RootKind tags whether a DataPath starts from a static address or is an
// unanchored fragment meant to be concatenated onto one.
type RootKind int

const (
	RootGlobal RootKind = iota
	RootLocal
)

// Root is a compiled path's starting point.
type Root struct {
	Kind RootKind

	// RootGlobal
	Address sim.Address

	// The type of the value stored at Address (RootGlobal) or the named
	// type this fragment is rooted at (RootLocal). Either way this is
	// the "current type" edges are applied against starting out.
	Type *datatype.Type
}

// EdgeKind tags one step of a compiled path.
type EdgeKind int

const (
	EdgeOffset EdgeKind = iota
	EdgeDeref
	EdgeNullable
)

// Edge is one compiled step.
type Edge struct {
	Kind   EdgeKind
	Offset int64 // EdgeOffset only
}

// DataPath is a compiled, immutable data path: a root, an edge list, an
// optional mask, and the fully resolved type the path points to.
type DataPath struct {
	Source       string
	Root         Root
	Edges        []Edge
	HasMask      bool
	Mask         *big.Int
	ConcreteType *datatype.Type
}

// RootType returns the type the path is rooted at — the type concat
// checks p2's root against.
func (p *DataPath) RootType() *datatype.Type {
	return p.Root.Type
}

// Concat appends p2's edges (and mask) onto p1, producing a new path
// rooted wherever p1 is rooted. Requires p1.ConcreteType == p2.RootType()
// by pointer identity (types are interned during a single Build, so
// pointer equality is the correct notion of "same type" here).
func Concat(p1, p2 *DataPath) (*DataPath, error) {
	if p1.ConcreteType != p2.Root.Type {
		return nil, &ConcatTypeMismatchError{Left: p1.ConcreteType.String(), Right: p2.Root.Type.String()}
	}
	edges := make([]Edge, 0, len(p1.Edges)+len(p2.Edges))
	edges = append(edges, p1.Edges...)
	edges = append(edges, p2.Edges...)
	return &DataPath{
		Source:       p1.Source + p2.Source,
		Root:         p1.Root,
		Edges:        edges,
		HasMask:      p2.HasMask,
		Mask:         p2.Mask,
		ConcreteType: p2.ConcreteType,
	}, nil
}
