package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrPackageNotFound = errors.New("package not found")

func (r *Repository) GetPackage(ctx context.Context, id uuid.UUID) (*model.Package, error) {
	var pkg model.Package
	err := r.db.GetContext(ctx, &pkg, "SELECT * FROM packages WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *Repository) ListPackages(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	var packages []model.Package
	query := "SELECT * FROM packages ORDER BY price ASC, name ASC"
	if activeOnly {
		query = "SELECT * FROM packages WHERE is_active = true ORDER BY price ASC, name ASC"
	}
	err := r.db.SelectContext(ctx, &packages, query)
	return packages, err
}

func (r *Repository) CreatePackage(ctx context.Context, pkg *model.Package) error {
	query := `
		INSERT INTO packages (name, price, cv_value, cap_limit, min_depth, max_tree_depth,
			direct_rate, level2_rate, level3_rate, matching_bonus_rate, max_width, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *`

	return r.db.QueryRowxContext(ctx, query,
		pkg.Name,
		pkg.Price,
		pkg.CVValue,
		pkg.EffectiveCapLimit(),
		pkg.EffectiveMinDepth(),
		pkg.EffectiveMaxTreeDepth(),
		pkg.DirectRate,
		pkg.Level2Rate,
		pkg.Level3Rate,
		pkg.MatchingBonusRate,
		model.BinaryLegs,
		pkg.IsActive,
	).StructScan(pkg)
}

func (r *Repository) UpdatePackage(ctx context.Context, pkg *model.Package) error {
	query := `
		UPDATE packages SET
			name = $2,
			price = $3,
			cv_value = $4,
			cap_limit = $5,
			min_depth = $6,
			max_tree_depth = $7,
			direct_rate = $8,
			level2_rate = $9,
			level3_rate = $10,
			matching_bonus_rate = $11,
			is_active = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *`

	err := r.db.QueryRowxContext(ctx, query,
		pkg.ID,
		pkg.Name,
		pkg.Price,
		pkg.CVValue,
		pkg.EffectiveCapLimit(),
		pkg.EffectiveMinDepth(),
		pkg.EffectiveMaxTreeDepth(),
		pkg.DirectRate,
		pkg.Level2Rate,
		pkg.Level3Rate,
		pkg.MatchingBonusRate,
		pkg.IsActive,
	).StructScan(pkg)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPackageNotFound
	}
	return err
}

// ActivatePackage points the participant at pkg and records the purchase order in one transaction.
func (r *Repository) ActivatePackage(ctx context.Context, participantID uuid.UUID, order *model.Order) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE participants SET package_id = $2, is_affiliate = true, updated_at = NOW() WHERE id = $1",
			participantID, order.PackageID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrParticipantNotFound
		}
		return insertOrder(ctx, tx, order)
	})
}
