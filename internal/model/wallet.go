package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Breakdown splits a participant's earnings for one period by category.
type Breakdown struct {
	Self     decimal.Decimal `json:"self"`
	Direct   decimal.Decimal `json:"direct"`
	Passive  decimal.Decimal `json:"passive"`
	Level    decimal.Decimal `json:"level"`
	Matching decimal.Decimal `json:"matching"`
}

func (b Breakdown) Total() decimal.Decimal {
	return b.Self.Add(b.Direct).Add(b.Passive).Add(b.Level).Add(b.Matching)
}

// Add credits amount to the category that commission type t belongs to.
func (b *Breakdown) Add(t CommissionType, amount decimal.Decimal) {
	switch t {
	case CommissionTypeSelf:
		b.Self = b.Self.Add(amount)
	case CommissionTypeDirect, CommissionTypeAffiliateReferral:
		b.Direct = b.Direct.Add(amount)
	case CommissionTypePassivePool:
		b.Passive = b.Passive.Add(amount)
	case CommissionTypeMatchingBonus:
		b.Matching = b.Matching.Add(amount)
	default:
		b.Level = b.Level.Add(amount)
	}
}

type Wallet struct {
	ParticipantID  uuid.UUID       `json:"participant_id" db:"participant_id"`
	BalanceSelf    decimal.Decimal `json:"balance_self" db:"balance_self"`
	BalanceDirect  decimal.Decimal `json:"balance_direct" db:"balance_direct"`
	BalancePassive decimal.Decimal `json:"balance_passive" db:"balance_passive"`
	BalanceLevel   decimal.Decimal `json:"balance_level" db:"balance_level"`
	BalanceMatch   decimal.Decimal `json:"balance_matching" db:"balance_matching"`
	TotalEarnings  decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	LastPeriod     *string         `json:"last_period,omitempty" db:"last_period"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletFromBreakdown builds the overwrite image of a wallet for one batch commit.
func WalletFromBreakdown(participantID uuid.UUID, period string, b Breakdown) Wallet {
	return Wallet{
		ParticipantID:  participantID,
		BalanceSelf:    b.Self,
		BalanceDirect:  b.Direct,
		BalancePassive: b.Passive,
		BalanceLevel:   b.Level,
		BalanceMatch:   b.Matching,
		TotalEarnings:  b.Total(),
		LastPeriod:     &period,
	}
}

// ReportRow is one line of the master earnings report.
type ReportRow struct {
	ParticipantID uuid.UUID       `json:"id" db:"participant_id"`
	Email         string          `json:"email" db:"email"`
	Self          decimal.Decimal `json:"self" db:"balance_self"`
	Direct        decimal.Decimal `json:"direct" db:"balance_direct"`
	Passive       decimal.Decimal `json:"passive" db:"balance_passive"`
	Level         decimal.Decimal `json:"level" db:"balance_level"`
	Matching      decimal.Decimal `json:"matching" db:"balance_matching"`
	Total         decimal.Decimal `json:"total" db:"total_earnings"`
}

// PlatformStats summarises revenue against committed earnings.
type PlatformStats struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Payout   decimal.Decimal `json:"payout"`
	Profit   decimal.Decimal `json:"profit"`
	Users    int             `json:"users"`
	Packages map[string]int  `json:"packages"`
}

// PeriodCommit is everything one batch run writes for one participant.
type PeriodCommit struct {
	ParticipantID uuid.UUID
	Period        string
	Commissions   []Commission
	Wallet        Wallet
}

// TableCount is the number of rows a reset would remove from one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}
