// Package network holds the placement tree snapshot and the read-side walkers
// used by placement and commission calculation. A Tree is immutable once built
// and safe for concurrent readers.
package network

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

var (
	ErrIntegrityViolation = errors.New("network integrity violation")
	ErrRootExists         = errors.New("network already has a root")
	ErrNotPlaced          = errors.New("participant is not placed in the network")
)

type node struct {
	placement model.Placement
	children  [model.BinaryLegs]*node
}

// Tree is an in-memory snapshot of every placement record.
type Tree struct {
	nodes map[uuid.UUID]*node
	root  *node
}

// NewTree builds a snapshot from placement records and rejects malformed input:
// duplicate participants, parents that do not exist, more than one root, levels
// that are not parent+1, and two children claiming the same leg.
func NewTree(placements []model.Placement) (*Tree, error) {
	t := &Tree{nodes: make(map[uuid.UUID]*node, len(placements))}

	for _, p := range placements {
		if _, dup := t.nodes[p.ParticipantID]; dup {
			return nil, fmt.Errorf("%w: participant %s has two placement records", ErrIntegrityViolation, p.ParticipantID)
		}
		t.nodes[p.ParticipantID] = &node{placement: p}
	}

	for _, n := range t.nodes {
		p := n.placement
		if p.IsRoot() {
			if t.root != nil {
				return nil, fmt.Errorf("%w: roots %s and %s", ErrRootExists, t.root.placement.ParticipantID, p.ParticipantID)
			}
			t.root = n
			continue
		}

		parent, ok := t.nodes[*p.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: participant %s references missing parent %s", ErrIntegrityViolation, p.ParticipantID, *p.ParentID)
		}
		if p.Level != parent.placement.Level+1 {
			return nil, fmt.Errorf("%w: participant %s at level %d under parent at level %d",
				ErrIntegrityViolation, p.ParticipantID, p.Level, parent.placement.Level)
		}

		slot := legIndex(p.Position)
		if slot < 0 {
			return nil, fmt.Errorf("%w: participant %s has position %q", ErrIntegrityViolation, p.ParticipantID, p.Position)
		}
		if parent.children[slot] != nil {
			return nil, fmt.Errorf("%w: %s leg of %s is taken twice", ErrIntegrityViolation, p.Position, *p.ParentID)
		}
		parent.children[slot] = n
	}

	return t, nil
}

func legIndex(pos model.Position) int {
	for i, p := range model.LegPositions {
		if p == pos {
			return i
		}
	}
	return -1
}

// Len returns the number of placed participants.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root placement, if the tree has one.
func (t *Tree) Root() (model.Placement, bool) {
	if t.root == nil {
		return model.Placement{}, false
	}
	return t.root.placement, true
}

func (t *Tree) Get(id uuid.UUID) (model.Placement, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return model.Placement{}, false
	}
	return n.placement, true
}

// Placements returns every placement in the snapshot in breadth-first order from the root.
// Nodes unreachable from the root cannot exist in a validated tree.
func (t *Tree) Placements() []model.Placement {
	if t.root == nil {
		return nil
	}
	out := make([]model.Placement, 0, len(t.nodes))
	queue := []*node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n.placement)
		for _, c := range n.children {
			if c != nil {
				queue = append(queue, c)
			}
		}
	}
	return out
}
