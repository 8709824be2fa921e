package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/metrics"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
)

var ErrRootIdentityNotFound = errors.New("root identity not found")

type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ResetService struct {
	store     ResetStore
	rootEmail string
	log       *slog.Logger
}

func NewResetService(store ResetStore, rootEmail string, log *slog.Logger) *ResetService {
	return &ResetService{store: store, rootEmail: rootEmail, log: log}
}

func (s *ResetService) root(ctx context.Context) (*model.Participant, error) {
	if s.rootEmail == "" {
		return nil, fmt.Errorf("%w: no root identity configured", ErrRootIdentityNotFound)
	}
	root, err := s.store.GetParticipantByEmail(ctx, s.rootEmail)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRootIdentityNotFound, s.rootEmail)
		}
		return nil, err
	}
	return root, nil
}

// ResetSystem deletes all business data except the root identity. When the root
// identity cannot be resolved nothing is touched.
func (s *ResetService) ResetSystem(ctx context.Context) (*ResetResult, error) {
	root, err := s.root(ctx)
	if err != nil {
		metrics.ResetRunsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, ErrRootIdentityNotFound) {
			return &ResetResult{Success: false, Message: "Root identity not found."}, err
		}
		return nil, err
	}

	if err := s.store.ResetSystem(ctx, root.ID); err != nil {
		metrics.ResetRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to reset system: %w", err)
	}

	metrics.ResetRunsTotal.WithLabelValues("success").Inc()
	s.log.Warn("system reset", "root_id", root.ID, "root_email", root.Email)
	return &ResetResult{Success: true, Message: "System fully reset. Root identity preserved."}, nil
}

// Preview reports how many rows ResetSystem would remove per table.
func (s *ResetService) Preview(ctx context.Context) ([]model.TableCount, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ResetPreview(ctx, root.ID)
}
