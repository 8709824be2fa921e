package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

const insertOrderQuery = `
	INSERT INTO orders (id, buyer_id, package_id, product_id, referrer_id, amount, cv_snapshot, period, type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertOrder(ctx context.Context, q rowQueryer, o *model.Order) error {
	return q.QueryRowContext(ctx, insertOrderQuery+" RETURNING created_at",
		o.ID, o.BuyerID, o.PackageID, o.ProductID, o.ReferrerID, o.Amount, o.CVSnapshot, o.Period, o.Type,
	).Scan(&o.CreatedAt)
}

func (r *Repository) CreateOrder(ctx context.Context, o *model.Order) error {
	return insertOrder(ctx, r.db, o)
}

// EnsureRenewal inserts a renewal order unless the buyer already has one for the period.
func (r *Repository) EnsureRenewal(ctx context.Context, o *model.Order) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertOrderQuery+`
		ON CONFLICT (buyer_id, period) WHERE type = 'renewal' DO NOTHING`,
		o.ID, o.BuyerID, o.PackageID, o.ProductID, o.ReferrerID, o.Amount, o.CVSnapshot, o.Period, model.OrderTypeRenewal,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListOrdersByPeriod(ctx context.Context, period string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE period = $1 ORDER BY created_at ASC, id ASC", period)
	return orders, err
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC", buyerID)
	return orders, err
}
