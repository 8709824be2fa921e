package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jmoiron/sqlx"
)

// resetSteps run in order inside one transaction. $1 is always the root identity.
var resetSteps = []struct {
	name  string
	query string
}{
	{"payouts", "DELETE FROM payouts"},
	{"commissions", "DELETE FROM commissions"},
	{"orders", "DELETE FROM orders"},
	{"placements", "DELETE FROM placements WHERE participant_id <> $1"},
	{"wallets", "DELETE FROM wallets WHERE participant_id <> $1"},
	{"products", "DELETE FROM products"},
	{"root package", "UPDATE participants SET package_id = NULL, sponsor_id = NULL, updated_at = NOW() WHERE id = $1"},
	{"packages", "DELETE FROM packages"},
	{"participants", "DELETE FROM participants WHERE id <> $1"},
	{"root wallet", `
		INSERT INTO wallets (participant_id) VALUES ($1)
		ON CONFLICT (participant_id) DO UPDATE SET
			balance_self = 0, balance_direct = 0, balance_passive = 0,
			balance_level = 0, balance_matching = 0, total_earnings = 0,
			last_period = NULL, updated_at = NOW()`},
	{"root placement", `
		INSERT INTO placements (participant_id, position, level) VALUES ($1, 'root', 0)
		ON CONFLICT (participant_id) DO UPDATE SET
			sponsor_id = NULL, parent_id = NULL, position = 'root', level = 0,
			left_volume = 0, right_volume = 0, total_volume = 0, updated_at = NOW()`},
}

// ResetSystem wipes all business data except the root participant, whose
// wallet and placement are zeroed. Either every step applies or none does.
func (r *Repository) ResetSystem(ctx context.Context, rootID uuid.UUID) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, step := range resetSteps {
			var err error
			if usesRoot(step.query) {
				_, err = tx.ExecContext(ctx, step.query, rootID)
			} else {
				_, err = tx.ExecContext(ctx, step.query)
			}
			if err != nil {
				return fmt.Errorf("reset %s: %w", step.name, err)
			}
		}
		return nil
	})
}

// ResetPreview counts what ResetSystem would delete.
func (r *Repository) ResetPreview(ctx context.Context, rootID uuid.UUID) ([]model.TableCount, error) {
	queries := []struct {
		table string
		query string
	}{
		{"payouts", "SELECT COUNT(*) FROM payouts"},
		{"commissions", "SELECT COUNT(*) FROM commissions"},
		{"orders", "SELECT COUNT(*) FROM orders"},
		{"placements", "SELECT COUNT(*) FROM placements WHERE participant_id <> $1"},
		{"wallets", "SELECT COUNT(*) FROM wallets WHERE participant_id <> $1"},
		{"products", "SELECT COUNT(*) FROM products"},
		{"packages", "SELECT COUNT(*) FROM packages"},
		{"participants", "SELECT COUNT(*) FROM participants WHERE id <> $1"},
	}

	counts := make([]model.TableCount, 0, len(queries))
	for _, q := range queries {
		var n int64
		var err error
		if usesRoot(q.query) {
			err = r.db.GetContext(ctx, &n, q.query, rootID)
		} else {
			err = r.db.GetContext(ctx, &n, q.query)
		}
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", q.table, err)
		}
		counts = append(counts, model.TableCount{Table: q.table, Rows: n})
	}
	return counts, nil
}

func usesRoot(query string) bool {
	return strings.Contains(query, "$1")
}
