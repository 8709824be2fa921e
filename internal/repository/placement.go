package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrPlacementNotFound = errors.New("placement not found")

func (r *Repository) GetPlacement(ctx context.Context, participantID uuid.UUID) (*model.Placement, error) {
	var p model.Placement
	err := r.db.GetContext(ctx, &p, "SELECT * FROM placements WHERE participant_id = $1", participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlacementNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPlacements(ctx context.Context) ([]model.Placement, error) {
	var placements []model.Placement
	err := r.db.SelectContext(ctx, &placements, "SELECT * FROM placements ORDER BY level ASC, created_at ASC")
	return placements, err
}

// insertPlacement inserts p. Unique and foreign key failures surface as
// network.ErrIntegrityViolation, or network.ErrRootExists for a second root.
func insertPlacement(ctx context.Context, tx *sqlx.Tx, p *model.Placement) error {
	query := `
		INSERT INTO placements (participant_id, sponsor_id, parent_id, position, level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := tx.QueryRowContext(ctx, query,
		p.ParticipantID,
		p.SponsorID,
		p.ParentID,
		p.Position,
		p.Level,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return placementError(err)
	}
	return nil
}

// ReplaceLegVolumes zeroes every counter and writes volumes, so a rerun for the
// same period lands on the same values.
func (r *Repository) ReplaceLegVolumes(ctx context.Context, volumes map[uuid.UUID]model.LegVolumes) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE placements SET left_volume = 0, right_volume = 0, total_volume = 0, updated_at = NOW()")
		if err != nil {
			return err
		}

		for id, v := range volumes {
			_, err := tx.ExecContext(ctx, `
				UPDATE placements SET left_volume = $2, right_volume = $3, total_volume = $4, updated_at = NOW()
				WHERE participant_id = $1`,
				id, v.Left, v.Right, v.Total)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
