package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/metrics"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

type PayoutService struct {
	store PayoutStore
	log   *slog.Logger
}

func NewPayoutService(store PayoutStore, log *slog.Logger) *PayoutService {
	return &PayoutService{store: store, log: log}
}

// Request bundles the participant's earned commissions into a pending payout.
func (s *PayoutService) Request(ctx context.Context, participantID uuid.UUID) (*model.Payout, error) {
	payout, err := s.store.RequestPayout(ctx, participantID)
	if err != nil {
		return nil, err
	}
	metrics.PayoutTransitionsTotal.WithLabelValues(string(payout.Status)).Inc()
	s.log.Info("payout requested", "payout_id", payout.ID, "participant_id", participantID, "amount", payout.Amount)
	return payout, nil
}

// MarkPaid completes a pending payout; its commissions become paid.
func (s *PayoutService) MarkPaid(ctx context.Context, payoutID uuid.UUID) (*model.Payout, error) {
	return s.settle(ctx, payoutID, model.PayoutStatusCompleted, model.CommissionStatusPaid)
}

// Cancel abandons a pending payout; its commissions become cancelled.
func (s *PayoutService) Cancel(ctx context.Context, payoutID uuid.UUID) (*model.Payout, error) {
	return s.settle(ctx, payoutID, model.PayoutStatusCancelled, model.CommissionStatusCancelled)
}

func (s *PayoutService) settle(ctx context.Context, payoutID uuid.UUID, status model.PayoutStatus, next model.CommissionStatus) (*model.Payout, error) {
	current, err := s.store.GetPayout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.PayoutStatusPending {
		return nil, fmt.Errorf("%w: payout %s is %s", model.ErrInvalidTransition, payoutID, current.Status)
	}
	if err := model.CommissionStatusPendingPayout.Transition(next); err != nil {
		return nil, err
	}

	payout, err := s.store.SettlePayout(ctx, payoutID, status, next)
	if err != nil {
		return nil, err
	}
	metrics.PayoutTransitionsTotal.WithLabelValues(string(payout.Status)).Inc()
	s.log.Info("payout settled", "payout_id", payoutID, "status", payout.Status)
	return payout, nil
}
