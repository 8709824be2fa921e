package network

import (
	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/shopspring/decimal"
)

// UplineChain returns the ancestors of id nearest-first, stopping at the root or
// after maxLevels entries.
func (t *Tree) UplineChain(id uuid.UUID, maxLevels int) []model.Placement {
	n, ok := t.nodes[id]
	if !ok || maxLevels <= 0 {
		return nil
	}

	var chain []model.Placement
	// The step bound keeps a corrupted parent cycle from looping forever.
	for steps := 0; n.placement.ParentID != nil && len(chain) < maxLevels && steps < len(t.nodes); steps++ {
		parent, ok := t.nodes[*n.placement.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent.placement)
		n = parent
	}
	return chain
}

// Volumes maps a participant to its personal volume for a period.
type Volumes map[uuid.UUID]decimal.Decimal

func (v Volumes) Of(id uuid.UUID) decimal.Decimal {
	if vol, ok := v[id]; ok {
		return vol
	}
	return decimal.Zero
}

// Aggregate is the result of a downline scan.
type Aggregate struct {
	Volume decimal.Decimal
	// Depth is the deepest level reached below the scanned participant, 0 without children.
	Depth int
}

// DownlineAggregate sums the volume of every descendant of id at most maxDepth
// levels below it and reports the deepest level reached. Levels past maxDepth
// are never visited.
func (t *Tree) DownlineAggregate(id uuid.UUID, maxDepth int, volumes Volumes) Aggregate {
	n, ok := t.nodes[id]
	if !ok {
		return Aggregate{Volume: decimal.Zero}
	}
	return scanDownline(n, 1, maxDepth, volumes)
}

// scanDownline scans the children of n, which sit at depth relative to the
// participant the scan started from.
func scanDownline(n *node, depth, maxDepth int, volumes Volumes) Aggregate {
	agg := Aggregate{Volume: decimal.Zero}
	if depth > maxDepth {
		return agg
	}

	for _, c := range n.children {
		if c == nil {
			continue
		}
		below := scanDownline(c, depth+1, maxDepth, volumes)
		agg.Volume = agg.Volume.Add(volumes.Of(c.placement.ParticipantID)).Add(below.Volume)
		if branch := 1 + below.Depth; branch > agg.Depth {
			agg.Depth = branch
		}
	}
	return agg
}

// LegOf reports which leg of ancestorID contains descendantID by searching
// downward from the ancestor's left child. It returns "" when descendantID is not
// below ancestorID.
func (t *Tree) LegOf(ancestorID, descendantID uuid.UUID) model.Position {
	a, ok := t.nodes[ancestorID]
	if !ok {
		return ""
	}
	for i, c := range a.children {
		if c != nil && subtreeContains(c, descendantID) {
			return model.LegPositions[i]
		}
	}
	return ""
}

func subtreeContains(start *node, id uuid.UUID) bool {
	queue := []*node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.placement.ParticipantID == id {
			return true
		}
		for _, c := range n.children {
			if c != nil {
				queue = append(queue, c)
			}
		}
	}
	return false
}

type LegCount struct {
	Total int `json:"total"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// DownlineCount counts every descendant of id, split by leg.
func (t *Tree) DownlineCount(id uuid.UUID) LegCount {
	n, ok := t.nodes[id]
	if !ok {
		return LegCount{}
	}
	var lc LegCount
	if c := n.children[0]; c != nil {
		lc.Left = countSubtree(c)
	}
	if c := n.children[1]; c != nil {
		lc.Right = countSubtree(c)
	}
	lc.Total = lc.Left + lc.Right
	return lc
}

func countSubtree(n *node) int {
	count := 1
	for _, c := range n.children {
		if c != nil {
			count += countSubtree(c)
		}
	}
	return count
}
