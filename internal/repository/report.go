package repository

import (
	"context"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

// MasterReport lists every participant with the wallet image of the last batch.
func (r *Repository) MasterReport(ctx context.Context) ([]model.ReportRow, error) {
	var rows []model.ReportRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id AS participant_id, p.email,
			COALESCE(w.balance_self, 0) AS balance_self,
			COALESCE(w.balance_direct, 0) AS balance_direct,
			COALESCE(w.balance_passive, 0) AS balance_passive,
			COALESCE(w.balance_level, 0) AS balance_level,
			COALESCE(w.balance_matching, 0) AS balance_matching,
			COALESCE(w.total_earnings, 0) AS total_earnings
		FROM participants p
		LEFT JOIN wallets w ON w.participant_id = p.id
		ORDER BY total_earnings DESC, p.email ASC`)
	return rows, err
}

func (r *Repository) PlatformStats(ctx context.Context) (*model.PlatformStats, error) {
	stats := &model.PlatformStats{Packages: map[string]int{}}

	// Revenue
	err := r.db.GetContext(ctx, &stats.Revenue, "SELECT COALESCE(SUM(amount), 0) FROM orders")
	if err != nil {
		return nil, err
	}

	// Committed earnings
	err = r.db.GetContext(ctx, &stats.Payout, "SELECT COALESCE(SUM(total_earnings), 0) FROM wallets")
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats.Users, "SELECT COUNT(*) FROM participants")
	if err != nil {
		return nil, err
	}

	var holders []struct {
		Name  string `db:"name"`
		Count int    `db:"count"`
	}
	err = r.db.SelectContext(ctx, &holders, `
		SELECT COALESCE(pk.name, 'None') AS name, COUNT(*) AS count
		FROM participants p
		LEFT JOIN packages pk ON pk.id = p.package_id
		GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	for _, h := range holders {
		stats.Packages[h.Name] = h.Count
	}

	stats.Profit = stats.Revenue.Sub(stats.Payout)
	return stats, nil
}
