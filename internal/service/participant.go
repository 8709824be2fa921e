package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
)

var (
	ErrInvalidEmail    = errors.New("a valid email is required")
	ErrSponsorNotFound = errors.New("sponsor not found")
)

type SignupInput struct {
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	SponsorEmail string `json:"sponsorEmail"`
	IsAffiliate  bool   `json:"asAffiliate"`
}

type Team struct {
	Directs  int              `json:"directs"`
	Downline network.LegCount `json:"downline"`
}

type UserData struct {
	Profile     *model.Participant `json:"profile"`
	Package     *model.Package     `json:"package,omitempty"`
	Wallet      *model.Wallet      `json:"wallet"`
	Orders      []model.Order      `json:"orders"`
	Commissions []model.Commission `json:"commissions"`
	Team        Team               `json:"team"`
}

type ParticipantService struct {
	store   ParticipantStore
	network *NetworkService
	log     *slog.Logger
}

func NewParticipantService(store ParticipantStore, networkSvc *NetworkService, log *slog.Logger) *ParticipantService {
	return &ParticipantService{store: store, network: networkSvc, log: log}
}

// Signup registers a participant with an empty wallet and its placement in the
// network, or stores nothing when it cannot be placed. Without a sponsor email
// the participant is sponsored by the network root, or becomes the root of an
// empty network.
func (s *ParticipantService) Signup(ctx context.Context, in SignupInput) (*model.Participant, *model.Placement, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, ErrInvalidEmail
	}

	sponsorID, err := s.resolveSponsor(ctx, strings.TrimSpace(in.SponsorEmail))
	if err != nil {
		return nil, nil, err
	}

	p := &model.Participant{
		ID:          uuid.New(),
		Email:       email,
		SponsorID:   sponsorID,
		IsAffiliate: in.IsAffiliate,
	}
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		p.DisplayName = &name
	}

	placement, err := s.network.Place(ctx, p)
	if errors.Is(err, network.ErrRootExists) && sponsorID == nil {
		// another signup became the root after the sponsor was resolved
		if p.SponsorID, err = s.resolveSponsor(ctx, ""); err != nil {
			return nil, nil, err
		}
		placement, err = s.network.Place(ctx, p)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to place participant: %w", err)
	}
	return p, placement, nil
}

func (s *ParticipantService) resolveSponsor(ctx context.Context, sponsorEmail string) (*uuid.UUID, error) {
	if sponsorEmail != "" {
		sponsor, err := s.store.GetParticipantByEmail(ctx, sponsorEmail)
		if err != nil {
			if errors.Is(err, repository.ErrParticipantNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrSponsorNotFound, sponsorEmail)
			}
			return nil, err
		}
		return &sponsor.ID, nil
	}

	root, err := s.network.Root(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	return &root.ParticipantID, nil
}

// UserData assembles a participant's dashboard view.
func (s *ParticipantService) UserData(ctx context.Context, id uuid.UUID) (*UserData, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	data := &UserData{Profile: p}

	if p.PackageID != nil {
		pkg, err := s.store.GetPackage(ctx, *p.PackageID)
		if err != nil && !errors.Is(err, repository.ErrPackageNotFound) {
			return nil, err
		}
		data.Package = pkg
	}

	if data.Wallet, err = s.store.GetWallet(ctx, id); err != nil {
		return nil, err
	}
	// commission lines of the most recently committed period
	data.Commissions = []model.Commission{}
	if data.Wallet.LastPeriod != nil {
		if data.Commissions, err = s.store.ListCommissions(ctx, id, *data.Wallet.LastPeriod); err != nil {
			return nil, err
		}
		if data.Commissions == nil {
			data.Commissions = []model.Commission{}
		}
	}
	if data.Orders, err = s.store.ListOrdersByBuyer(ctx, id); err != nil {
		return nil, err
	}
	if data.Orders == nil {
		data.Orders = []model.Order{}
	}
	if data.Team.Directs, err = s.store.CountDirectReferrals(ctx, id); err != nil {
		return nil, err
	}
	if data.Team.Downline, err = s.network.TeamCounts(ctx, id); err != nil {
		return nil, err
	}
	return data, nil
}
