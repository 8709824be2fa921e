package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionType string

const (
	CommissionTypeSelf              CommissionType = "self"
	CommissionTypeDirect            CommissionType = "direct"
	CommissionTypePassivePool       CommissionType = "passive_pool"
	CommissionTypeMatchingBonus     CommissionType = "matching_bonus"
	CommissionTypeAffiliateReferral CommissionType = "affiliate_referral"
)

// LevelCommissionType names the per-level override paid at upline level n (n >= 2).
func LevelCommissionType(n int) CommissionType {
	return CommissionType(fmt.Sprintf("level_%d", n))
}

type CommissionStatus string

const (
	CommissionStatusEarned        CommissionStatus = "earned"
	CommissionStatusPendingPayout CommissionStatus = "pending_payout"
	CommissionStatusPaid          CommissionStatus = "paid"
	CommissionStatusCancelled     CommissionStatus = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid commission status transition")

// CanTransitionTo reports whether a commission may move from s to next.
func (s CommissionStatus) CanTransitionTo(next CommissionStatus) bool {
	switch s {
	case CommissionStatusEarned:
		return next == CommissionStatusPendingPayout || next == CommissionStatusCancelled
	case CommissionStatusPendingPayout:
		return next == CommissionStatusPaid || next == CommissionStatusCancelled
	}
	return false
}

// Transition validates a status change and returns ErrInvalidTransition when it is not allowed.
func (s CommissionStatus) Transition(next CommissionStatus) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}

type Commission struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	ParticipantID uuid.UUID        `json:"participant_id" db:"participant_id"`
	OrderID       *uuid.UUID       `json:"order_id,omitempty" db:"order_id"`
	PayoutID      *uuid.UUID       `json:"payout_id,omitempty" db:"payout_id"`
	Period        string           `json:"period" db:"period"`
	Type          CommissionType   `json:"type" db:"type"`
	Rate          decimal.Decimal  `json:"rate" db:"rate"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	Status        CommissionStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusCancelled PayoutStatus = "cancelled"
)

type Payout struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ParticipantID uuid.UUID       `json:"participant_id" db:"participant_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        PayoutStatus    `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// Settled reports whether the commission has left the earned state for a payout.
func (c Commission) Settled() bool {
	return c.Status == CommissionStatusPendingPayout || c.Status == CommissionStatusPaid
}

type settleKey struct {
	order uuid.UUID
	typ   CommissionType
}

func keyOf(c Commission) settleKey {
	k := settleKey{typ: c.Type}
	if c.OrderID != nil {
		k.order = *c.OrderID
	}
	return k
}

// Unsettled reduces lines by the amounts already settled for the same order and
// type, dropping lines that are fully covered. Recommitting a period after a
// payout request therefore only adds what the earlier commit did not.
func Unsettled(lines, settled []Commission) []Commission {
	covered := make(map[settleKey]decimal.Decimal)
	for _, c := range settled {
		if c.Settled() {
			k := keyOf(c)
			covered[k] = covered[k].Add(c.Amount)
		}
	}

	out := make([]Commission, 0, len(lines))
	for _, line := range lines {
		k := keyOf(line)
		if have := covered[k]; have.IsPositive() {
			if have.GreaterThanOrEqual(line.Amount) {
				covered[k] = have.Sub(line.Amount)
				continue
			}
			covered[k] = decimal.Zero
			line.Amount = line.Amount.Sub(have)
		}
		if line.Amount.IsPositive() {
			out = append(out, line)
		}
	}
	return out
}
