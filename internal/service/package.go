package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPackage  = errors.New("invalid package")
	ErrPackageInactive = errors.New("package is not available")
)

type PackageInput struct {
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	CVValue           decimal.Decimal `json:"cv"`
	CapLimit          int             `json:"depth"`
	MinDepth          int             `json:"min_depth"`
	MaxTreeDepth      int             `json:"max_tree_depth"`
	DirectRate        decimal.Decimal `json:"direct_rate"`
	Level2Rate        decimal.Decimal `json:"level2_rate"`
	Level3Rate        decimal.Decimal `json:"level3_rate"`
	MatchingBonusRate decimal.Decimal `json:"matching_bonus_rate"`
}

// PackagePatch carries optional package edits; nil fields are left unchanged.
type PackagePatch struct {
	Name              *string          `json:"name"`
	Price             *decimal.Decimal `json:"price"`
	CVValue           *decimal.Decimal `json:"cv"`
	CapLimit          *int             `json:"depth"`
	MinDepth          *int             `json:"min_depth"`
	MaxTreeDepth      *int             `json:"max_tree_depth"`
	DirectRate        *decimal.Decimal `json:"direct_rate"`
	Level2Rate        *decimal.Decimal `json:"level2_rate"`
	Level3Rate        *decimal.Decimal `json:"level3_rate"`
	MatchingBonusRate *decimal.Decimal `json:"matching_bonus_rate"`
	IsActive          *bool            `json:"is_active"`
}

type PackageService struct {
	store PackageStore
	clock clockwork.Clock
	log   *slog.Logger
}

func NewPackageService(store PackageStore, clock clockwork.Clock, log *slog.Logger) *PackageService {
	return &PackageService{store: store, clock: clock, log: log}
}

func (s *PackageService) List(ctx context.Context) ([]model.Package, error) {
	packages, err := s.store.ListPackages(ctx, true)
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = []model.Package{}
	}
	return packages, nil
}

func (s *PackageService) Create(ctx context.Context, in PackageInput) (*model.Package, error) {
	pkg := &model.Package{
		Name:              strings.TrimSpace(in.Name),
		Price:             in.Price,
		CVValue:           in.CVValue,
		CapLimit:          in.CapLimit,
		MinDepth:          in.MinDepth,
		MaxTreeDepth:      in.MaxTreeDepth,
		DirectRate:        in.DirectRate,
		Level2Rate:        in.Level2Rate,
		Level3Rate:        in.Level3Rate,
		MatchingBonusRate: in.MatchingBonusRate,
		IsActive:          true,
	}
	if err := validatePackage(pkg); err != nil {
		return nil, err
	}
	if err := s.store.CreatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	s.log.Info("package created", "package_id", pkg.ID, "name", pkg.Name, "price", pkg.Price)
	return pkg, nil
}

func (s *PackageService) Update(ctx context.Context, id uuid.UUID, patch PackagePatch) (*model.Package, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		pkg.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		pkg.Price = *patch.Price
	}
	if patch.CVValue != nil {
		pkg.CVValue = *patch.CVValue
	}
	if patch.CapLimit != nil {
		pkg.CapLimit = *patch.CapLimit
	}
	if patch.MinDepth != nil {
		pkg.MinDepth = *patch.MinDepth
	}
	if patch.MaxTreeDepth != nil {
		pkg.MaxTreeDepth = *patch.MaxTreeDepth
	}
	if patch.DirectRate != nil {
		pkg.DirectRate = *patch.DirectRate
	}
	if patch.Level2Rate != nil {
		pkg.Level2Rate = *patch.Level2Rate
	}
	if patch.Level3Rate != nil {
		pkg.Level3Rate = *patch.Level3Rate
	}
	if patch.MatchingBonusRate != nil {
		pkg.MatchingBonusRate = *patch.MatchingBonusRate
	}
	if patch.IsActive != nil {
		pkg.IsActive = *patch.IsActive
	}

	if err := validatePackage(pkg); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func validatePackage(pkg *model.Package) error {
	if pkg.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPackage)
	}
	if pkg.Price.IsNegative() || pkg.CVValue.IsNegative() {
		return fmt.Errorf("%w: price and cv must not be negative", ErrInvalidPackage)
	}
	if pkg.CapLimit < 0 || pkg.MinDepth < 0 || pkg.MaxTreeDepth < 0 {
		return fmt.Errorf("%w: depth settings must not be negative", ErrInvalidPackage)
	}
	hundred := decimal.NewFromInt(100)
	for _, rate := range []decimal.Decimal{pkg.DirectRate, pkg.Level2Rate, pkg.Level3Rate, pkg.MatchingBonusRate} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: rates are percentages between 0 and 100", ErrInvalidPackage)
		}
	}
	return nil
}

// Activate assigns a package to a participant and records the purchase as a
// package order in the current period, with the package CV captured on the order.
func (s *PackageService) Activate(ctx context.Context, participantID, packageID uuid.UUID) (*model.Order, error) {
	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, ErrPackageInactive
	}
	if _, err := s.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}

	pkgID := pkg.ID
	order := &model.Order{
		ID:         uuid.New(),
		BuyerID:    participantID,
		PackageID:  &pkgID,
		Amount:     pkg.Price,
		CVSnapshot: decimal.NewNullDecimal(pkg.CommissionValue()),
		Period:     CurrentPeriod(s.clock.Now()),
		Type:       model.OrderTypePackage,
	}
	if err := s.store.ActivatePackage(ctx, participantID, order); err != nil {
		return nil, err
	}

	s.log.Info("package activated", "participant_id", participantID, "package", pkg.Name, "period", order.Period)
	return order, nil
}
