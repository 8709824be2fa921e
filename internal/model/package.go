package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package defaults applied when the admin leaves a shape parameter unset.
const (
	DefaultCapLimit     = 10
	DefaultMinDepth     = 1
	DefaultMaxTreeDepth = 10
	BinaryLegs          = 2
)

type Package struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	CVValue           decimal.Decimal `json:"cv_value" db:"cv_value"`
	CapLimit          int             `json:"cap_limit" db:"cap_limit"`
	MinDepth          int             `json:"min_depth" db:"min_depth"`
	MaxTreeDepth      int             `json:"max_tree_depth" db:"max_tree_depth"`
	DirectRate        decimal.Decimal `json:"direct_rate" db:"direct_rate"`
	Level2Rate        decimal.Decimal `json:"level2_rate" db:"level2_rate"`
	Level3Rate        decimal.Decimal `json:"level3_rate" db:"level3_rate"`
	MatchingBonusRate decimal.Decimal `json:"matching_bonus_rate" db:"matching_bonus_rate"`
	MaxWidth          int             `json:"max_width" db:"max_width"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// EffectiveCapLimit returns the downline depth cap, defaulting to DefaultCapLimit.
func (p *Package) EffectiveCapLimit() int {
	if p.CapLimit <= 0 {
		return DefaultCapLimit
	}
	return p.CapLimit
}

// EffectiveMinDepth returns the divisor floor. It is never below 1.
func (p *Package) EffectiveMinDepth() int {
	if p.MinDepth <= 0 {
		return DefaultMinDepth
	}
	return p.MinDepth
}

func (p *Package) EffectiveMaxTreeDepth() int {
	if p.MaxTreeDepth <= 0 {
		return DefaultMaxTreeDepth
	}
	return p.MaxTreeDepth
}

// CommissionValue is the CV captured on orders for this package.
// Packages without an explicit CV fall back to their price.
func (p *Package) CommissionValue() decimal.Decimal {
	if p.CVValue.IsZero() {
		return p.Price
	}
	return p.CVValue
}

// LevelRate returns the percent rate paid at upline chain position i (0-based).
func (p *Package) LevelRate(i int) decimal.Decimal {
	switch i {
	case 0:
		return p.DirectRate
	case 1:
		return p.Level2Rate
	default:
		return p.Level3Rate
	}
}

type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	VendorID  uuid.UUID       `json:"vendor_id" db:"vendor_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CVValue   decimal.Decimal `json:"cv_value" db:"cv_value"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
