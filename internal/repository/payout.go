package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrPayoutNotFound  = errors.New("payout not found")
	ErrNothingToPayout = errors.New("no earned commissions to pay out")
)

func (r *Repository) GetPayout(ctx context.Context, id uuid.UUID) (*model.Payout, error) {
	var p model.Payout
	err := r.db.GetContext(ctx, &p, "SELECT * FROM payouts WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return &p, nil
}

// RequestPayout gathers every earned commission of the participant into a new
// pending payout and moves those commissions to pending_payout.
func (r *Repository) RequestPayout(ctx context.Context, participantID uuid.UUID) (*model.Payout, error) {
	var payout model.Payout
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var ids []uuid.UUID
		err := tx.SelectContext(ctx, &ids,
			"SELECT id FROM commissions WHERE participant_id = $1 AND status = $2 FOR UPDATE",
			participantID, model.CommissionStatusEarned)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNothingToPayout
		}

		var total decimal.Decimal
		err = tx.GetContext(ctx, &total,
			"SELECT COALESCE(SUM(amount), 0) FROM commissions WHERE participant_id = $1 AND status = $2",
			participantID, model.CommissionStatusEarned)
		if err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payouts (participant_id, amount, status)
			VALUES ($1, $2, $3)
			RETURNING *`,
			participantID, total, model.PayoutStatusPending,
		).StructScan(&payout)
		if err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE commissions SET status = $3, payout_id = $2
			WHERE participant_id = $1 AND status = $4`,
			participantID, payout.ID, model.CommissionStatusPendingPayout, model.CommissionStatusEarned)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// SettlePayout moves a pending payout to status and its commissions to
// commissionStatus. A payout that is no longer pending yields model.ErrInvalidTransition.
func (r *Repository) SettlePayout(ctx context.Context, id uuid.UUID, status model.PayoutStatus, commissionStatus model.CommissionStatus) (*model.Payout, error) {
	var payout model.Payout
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE payouts SET status = $2,
				completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END
			WHERE id = $1 AND status = 'pending'
			RETURNING *`,
			id, status,
		).StructScan(&payout)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: payout %s is not pending", model.ErrInvalidTransition, id)
			}
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE commissions SET status = $2 WHERE payout_id = $1 AND status = $3",
			id, commissionStatus, model.CommissionStatusPendingPayout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
