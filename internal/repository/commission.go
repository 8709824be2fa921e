package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jmoiron/sqlx"
)

// CommitPeriod replaces one participant's earned commissions for the period and
// overwrites the wallet with the new totals, atomically. Amounts already pending
// payout or paid for the period are not inserted again.
func (r *Repository) CommitPeriod(ctx context.Context, c model.PeriodCommit) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM commissions WHERE participant_id = $1 AND period = $2 AND status = $3",
			c.ParticipantID, c.Period, model.CommissionStatusEarned)
		if err != nil {
			return fmt.Errorf("failed to clear earned commissions: %w", err)
		}

		var settled []model.Commission
		err = tx.SelectContext(ctx, &settled, `
			SELECT order_id, type, amount, status FROM commissions
			WHERE participant_id = $1 AND period = $2 AND status IN ($3, $4)`,
			c.ParticipantID, c.Period, model.CommissionStatusPendingPayout, model.CommissionStatusPaid)
		if err != nil {
			return fmt.Errorf("failed to load settled commissions: %w", err)
		}

		for _, line := range model.Unsettled(c.Commissions, settled) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO commissions (id, participant_id, order_id, period, type, rate, amount, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				line.ID, c.ParticipantID, line.OrderID, c.Period, line.Type, line.Rate, line.Amount, model.CommissionStatusEarned)
			if err != nil {
				return fmt.Errorf("failed to insert commission: %w", err)
			}
		}

		w := c.Wallet
		_, err = tx.ExecContext(ctx, `
			INSERT INTO wallets (participant_id, balance_self, balance_direct, balance_passive,
				balance_level, balance_matching, total_earnings, last_period, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (participant_id) DO UPDATE SET
				balance_self = EXCLUDED.balance_self,
				balance_direct = EXCLUDED.balance_direct,
				balance_passive = EXCLUDED.balance_passive,
				balance_level = EXCLUDED.balance_level,
				balance_matching = EXCLUDED.balance_matching,
				total_earnings = EXCLUDED.total_earnings,
				last_period = EXCLUDED.last_period,
				updated_at = NOW()`,
			c.ParticipantID, w.BalanceSelf, w.BalanceDirect, w.BalancePassive,
			w.BalanceLevel, w.BalanceMatch, w.TotalEarnings, w.LastPeriod)
		if err != nil {
			return fmt.Errorf("failed to write wallet: %w", err)
		}
		return nil
	})
}

func (r *Repository) ListCommissions(ctx context.Context, participantID uuid.UUID, period string) ([]model.Commission, error) {
	var commissions []model.Commission
	err := r.db.SelectContext(ctx, &commissions, `
		SELECT * FROM commissions
		WHERE participant_id = $1 AND period = $2
		ORDER BY created_at ASC, id ASC`,
		participantID, period)
	return commissions, err
}

func (r *Repository) GetWallet(ctx context.Context, participantID uuid.UUID) (*model.Wallet, error) {
	var w model.Wallet
	err := r.db.GetContext(ctx, &w, "SELECT * FROM wallets WHERE participant_id = $1", participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.Wallet{ParticipantID: participantID}, nil
		}
		return nil, err
	}
	return &w, nil
}
