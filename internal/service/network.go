package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/metrics"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
)

type NetworkService struct {
	store NetworkStore
	log   *slog.Logger

	// mu covers snapshot, slot search and insert so two placements never race for one leg.
	mu sync.Mutex
}

func NewNetworkService(store NetworkStore, log *slog.Logger) *NetworkService {
	return &NetworkService{store: store, log: log}
}

// Snapshot loads every placement into an immutable tree.
func (s *NetworkService) Snapshot(ctx context.Context) (*network.Tree, error) {
	placements, err := s.store.ListPlacements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}
	return network.NewTree(placements)
}

// Place registers participant and puts it into the network below its sponsor,
// or as the root when it has none. The participant and its placement are stored
// together. Placing an already placed participant returns the existing record.
func (s *NetworkService) Place(ctx context.Context, participant *model.Participant) (*model.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participantID, sponsorID := participant.ID, participant.SponsorID
	existing, err := s.store.GetPlacement(ctx, participantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrPlacementNotFound) {
		return nil, err
	}

	tree, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var p model.Placement
	if sponsorID == nil {
		if root, ok := tree.Root(); ok {
			return nil, fmt.Errorf("%w: %s", network.ErrRootExists, root.ParticipantID)
		}
		p = network.NewRootPlacement(participantID)
	} else {
		slot, err := tree.NextOpenSlot(*sponsorID)
		if err != nil {
			if errors.Is(err, network.ErrNotPlaced) {
				return nil, fmt.Errorf("%w: %w", network.ErrIntegrityViolation, err)
			}
			return nil, err
		}
		p = network.NewPlacement(participantID, *sponsorID, slot)
	}

	if err := s.store.CreateParticipant(ctx, participant, &p); err != nil {
		return nil, err
	}

	metrics.PlacementsTotal.WithLabelValues(string(p.Position)).Inc()
	s.log.Info("participant placed",
		"participant_id", participantID,
		"parent_id", p.ParentID,
		"position", p.Position,
		"level", p.Level,
	)
	return &p, nil
}

// TeamCounts returns the size of each leg below participantID.
func (s *NetworkService) TeamCounts(ctx context.Context, participantID uuid.UUID) (network.LegCount, error) {
	tree, err := s.Snapshot(ctx)
	if err != nil {
		return network.LegCount{}, err
	}
	return tree.DownlineCount(participantID), nil
}

// Root returns the participant at the top of the network, if any.
func (s *NetworkService) Root(ctx context.Context) (*model.Placement, error) {
	tree, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	root, ok := tree.Root()
	if !ok {
		return nil, nil
	}
	return &root, nil
}
