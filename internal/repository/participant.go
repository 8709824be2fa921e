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

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEmailTaken          = errors.New("email already registered")
)

func (r *Repository) GetParticipant(ctx context.Context, id uuid.UUID) (*model.Participant, error) {
	var p model.Participant
	err := r.db.GetContext(ctx, &p, "SELECT * FROM participants WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error) {
	var p model.Participant
	err := r.db.GetContext(ctx, &p, "SELECT * FROM participants WHERE LOWER(email) = LOWER($1)", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateParticipant inserts p together with its empty wallet and its placement,
// so a participant never exists outside the network.
func (r *Repository) CreateParticipant(ctx context.Context, p *model.Participant, placement *model.Placement) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO participants (id, email, display_name, sponsor_id, is_affiliate)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, p.ID, p.Email, p.DisplayName, p.SponsorID, p.IsAffiliate).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO wallets (participant_id) VALUES ($1) ON CONFLICT (participant_id) DO NOTHING", p.ID)
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}

		return insertPlacement(ctx, tx, placement)
	})
}

func (r *Repository) CountDirectReferrals(ctx context.Context, sponsorID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM participants WHERE sponsor_id = $1", sponsorID)
	return n, err
}

// ListParticipantsWithPackages returns every participant joined with its current package.
func (r *Repository) ListParticipantsWithPackages(ctx context.Context) ([]model.ParticipantWithPackage, error) {
	var participants []model.Participant
	if err := r.db.SelectContext(ctx, &participants, "SELECT * FROM participants ORDER BY created_at, id"); err != nil {
		return nil, err
	}

	packages, err := r.ListPackages(ctx, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Package, len(packages))
	for i := range packages {
		byID[packages[i].ID] = &packages[i]
	}

	out := make([]model.ParticipantWithPackage, 0, len(participants))
	for _, p := range participants {
		pw := model.ParticipantWithPackage{Participant: p}
		if p.PackageID != nil {
			pw.Package = byID[*p.PackageID]
		}
		out = append(out, pw)
	}
	return out, nil
}
