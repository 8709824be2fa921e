package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

// The store interfaces below are satisfied by *repository.Repository. Each
// service depends only on the slice of the repository it uses.

type NetworkStore interface {
	GetPlacement(ctx context.Context, participantID uuid.UUID) (*model.Placement, error)
	ListPlacements(ctx context.Context) ([]model.Placement, error)
	CreateParticipant(ctx context.Context, p *model.Participant, placement *model.Placement) error
}

type BatchStore interface {
	ListParticipantsWithPackages(ctx context.Context) ([]model.ParticipantWithPackage, error)
	ListPlacements(ctx context.Context) ([]model.Placement, error)
	ListOrdersByPeriod(ctx context.Context, period string) ([]model.Order, error)
	EnsureRenewal(ctx context.Context, o *model.Order) (bool, error)
	CommitPeriod(ctx context.Context, c model.PeriodCommit) error
	ReplaceLegVolumes(ctx context.Context, volumes map[uuid.UUID]model.LegVolumes) error
}

type ResetStore interface {
	GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error)
	ResetSystem(ctx context.Context, rootID uuid.UUID) error
	ResetPreview(ctx context.Context, rootID uuid.UUID) ([]model.TableCount, error)
}

type ReportStore interface {
	MasterReport(ctx context.Context) ([]model.ReportRow, error)
	PlatformStats(ctx context.Context) (*model.PlatformStats, error)
}

type PayoutStore interface {
	GetPayout(ctx context.Context, id uuid.UUID) (*model.Payout, error)
	RequestPayout(ctx context.Context, participantID uuid.UUID) (*model.Payout, error)
	SettlePayout(ctx context.Context, id uuid.UUID, status model.PayoutStatus, commissionStatus model.CommissionStatus) (*model.Payout, error)
}

type PackageStore interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*model.Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]model.Package, error)
	CreatePackage(ctx context.Context, pkg *model.Package) error
	UpdatePackage(ctx context.Context, pkg *model.Package) error
	GetParticipant(ctx context.Context, id uuid.UUID) (*model.Participant, error)
	ActivatePackage(ctx context.Context, participantID uuid.UUID, order *model.Order) error
}

type ParticipantStore interface {
	GetParticipant(ctx context.Context, id uuid.UUID) (*model.Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*model.Package, error)
	GetWallet(ctx context.Context, participantID uuid.UUID) (*model.Wallet, error)
	ListCommissions(ctx context.Context, participantID uuid.UUID, period string) ([]model.Commission, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)
	CountDirectReferrals(ctx context.Context, sponsorID uuid.UUID) (int, error)
}
