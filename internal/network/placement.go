package network

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

// Slot is an open leg under a parent.
type Slot struct {
	ParentID uuid.UUID
	Position model.Position
	Level    int
}

// NextOpenSlot finds the first empty leg beneath sponsorID, searching breadth-first
// from the sponsor's own node and preferring legs in model.LegPositions order.
func (t *Tree) NextOpenSlot(sponsorID uuid.UUID) (Slot, error) {
	start, ok := t.nodes[sponsorID]
	if !ok {
		return Slot{}, fmt.Errorf("%w: sponsor %s", ErrNotPlaced, sponsorID)
	}

	queue := []*node{start}
	visited := make(map[uuid.UUID]struct{}, len(t.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		id := n.placement.ParticipantID
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		for i, c := range n.children {
			if c == nil {
				return Slot{
					ParentID: id,
					Position: model.LegPositions[i],
					Level:    n.placement.Level + 1,
				}, nil
			}
		}
		for _, c := range n.children {
			queue = append(queue, c)
		}
	}

	// A finite binary tree always has an open leg below any node.
	return Slot{}, fmt.Errorf("%w: no open leg below %s", ErrIntegrityViolation, sponsorID)
}

// NewPlacement builds the record for participantID in slot, sponsored by sponsorID.
func NewPlacement(participantID, sponsorID uuid.UUID, slot Slot) model.Placement {
	parent := slot.ParentID
	sponsor := sponsorID
	return model.Placement{
		ParticipantID: participantID,
		SponsorID:     &sponsor,
		ParentID:      &parent,
		Position:      slot.Position,
		Level:         slot.Level,
	}
}

// NewRootPlacement builds the record for the first participant of the network.
func NewRootPlacement(participantID uuid.UUID) model.Placement {
	return model.Placement{
		ParticipantID: participantID,
		Position:      model.PositionRoot,
		Level:         0,
	}
}

// Insert returns a new tree with p added. The receiver is left untouched so
// concurrent readers of the old snapshot are unaffected.
func (t *Tree) Insert(p model.Placement) (*Tree, error) {
	placements := make([]model.Placement, 0, len(t.nodes)+1)
	for _, n := range t.nodes {
		placements = append(placements, n.placement)
	}
	placements = append(placements, p)
	return NewTree(placements)
}
