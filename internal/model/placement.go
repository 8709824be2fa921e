package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Position string

const (
	PositionRoot  Position = "root"
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// LegPositions lists child slots in fill order.
var LegPositions = []Position{PositionLeft, PositionRight}

type Placement struct {
	ParticipantID uuid.UUID       `json:"participant_id" db:"participant_id"`
	SponsorID     *uuid.UUID      `json:"sponsor_id,omitempty" db:"sponsor_id"`
	ParentID      *uuid.UUID      `json:"parent_id,omitempty" db:"parent_id"`
	Position      Position        `json:"position" db:"position"`
	Level         int             `json:"level" db:"level"`
	LeftVolume    decimal.Decimal `json:"left_volume" db:"left_volume"`
	RightVolume   decimal.Decimal `json:"right_volume" db:"right_volume"`
	TotalVolume   decimal.Decimal `json:"total_volume" db:"total_volume"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *Placement) IsRoot() bool {
	return p.ParentID == nil
}

// LegVolumes is the per-period volume recomputed for a placement.
type LegVolumes struct {
	Left  decimal.Decimal `json:"left"`
	Right decimal.Decimal `json:"right"`
	Total decimal.Decimal `json:"total"`
}
