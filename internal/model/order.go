package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypePackage OrderType = "package"
	OrderTypeRenewal OrderType = "renewal"
	OrderTypeProduct OrderType = "product"
)

type Order struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	BuyerID    uuid.UUID           `json:"buyer_id" db:"buyer_id"`
	PackageID  *uuid.UUID          `json:"package_id,omitempty" db:"package_id"`
	ProductID  *uuid.UUID          `json:"product_id,omitempty" db:"product_id"`
	ReferrerID *uuid.UUID          `json:"referrer_id,omitempty" db:"referrer_id"`
	Amount     decimal.Decimal     `json:"amount" db:"amount"`
	CVSnapshot decimal.NullDecimal `json:"cv_snapshot" db:"cv_snapshot"`
	Period     string              `json:"period" db:"period"`
	Type       OrderType           `json:"type" db:"type"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
}

// CV returns the commissionable value of the order. The snapshot taken at order
// time wins over the cash amount so later package edits never change history.
func (o *Order) CV() decimal.Decimal {
	if o.CVSnapshot.Valid {
		return o.CVSnapshot.Decimal
	}
	return o.Amount
}
