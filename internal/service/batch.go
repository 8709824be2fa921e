package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/commission"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/lock"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/metrics"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/retry"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPeriod   = errors.New("period must be formatted YYYY-MM")
	ErrBatchInProgress = errors.New("a batch for this period is already running")
)

const (
	DefaultBatchLockTTL = 30 * time.Minute
	noRevenueMessage    = "No revenue found."
)

type BatchResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Period           string `json:"period"`
	Policy           string `json:"policy"`
	ParticipantsPaid int    `json:"participantsPaid"`
	Failed           int    `json:"failed,omitempty"`
	RenewalsCreated  int    `json:"renewalsCreated"`
}

// PeriodRunner runs the commission batch for one period.
type PeriodRunner interface {
	RunPeriodBatch(ctx context.Context, period string) (*BatchResult, error)
}

type BatchService struct {
	store   BatchStore
	policy  commission.Policy
	locker  lock.Locker
	lockTTL time.Duration
	retry   retry.Config
	log     *slog.Logger
}

func NewBatchService(store BatchStore, policy commission.Policy, locker lock.Locker, log *slog.Logger) *BatchService {
	return &BatchService{
		store:   store,
		policy:  policy,
		locker:  locker,
		lockTTL: DefaultBatchLockTTL,
		retry:   retry.DefaultConfig(),
		log:     log,
	}
}

func (s *BatchService) SetRetry(cfg retry.Config) {
	s.retry = cfg
}

func (s *BatchService) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

func (s *BatchService) PolicyName() string {
	return s.policy.Name()
}

// ValidatePeriod accepts calendar months written as YYYY-MM.
func ValidatePeriod(period string) error {
	if len(period) != 7 {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if _, err := time.Parse("2006-01", period); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return nil
}

// RunPeriodBatch computes and commits every participant's earnings for period.
// Running it again for the same period over the same data yields the same wallets.
func (s *BatchService) RunPeriodBatch(ctx context.Context, period string) (*BatchResult, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	release, err := s.locker.TryLock(ctx, "batch:"+period, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, fmt.Errorf("%w: %s", ErrBatchInProgress, period)
		}
		return nil, fmt.Errorf("failed to acquire batch lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("failed to release batch lock", "period", period, "error", err)
		}
	}()

	start := time.Now()
	res, err := s.run(ctx, period)
	metrics.BatchDuration.WithLabelValues(s.policy.Name()).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.BatchRunsTotal.WithLabelValues(s.policy.Name(), "error").Inc()
		s.log.Error("batch failed", "period", period, "policy", s.policy.Name(), "error", err)
		return nil, err
	case res.ParticipantsPaid == 0 && res.Message == noRevenueMessage:
		metrics.BatchRunsTotal.WithLabelValues(s.policy.Name(), "no_revenue").Inc()
	default:
		metrics.BatchRunsTotal.WithLabelValues(s.policy.Name(), "success").Inc()
		metrics.ParticipantsPaid.Set(float64(res.ParticipantsPaid))
	}

	s.log.Info("batch finished",
		"period", period,
		"policy", s.policy.Name(),
		"paid", res.ParticipantsPaid,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *BatchService) run(ctx context.Context, period string) (*BatchResult, error) {
	res := &BatchResult{Period: period, Policy: s.policy.Name()}

	participants, err := s.store.ListParticipantsWithPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	res.RenewalsCreated, err = s.ensureRenewals(ctx, period, participants)
	if err != nil {
		return nil, err
	}

	placements, err := s.store.ListPlacements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}
	tree, err := network.NewTree(placements)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrdersByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	volumes := commission.AggregateVolume(orders)
	if len(volumes) == 0 {
		res.Success = true
		res.Message = noRevenueMessage
		return res, nil
	}

	byID := make(map[uuid.UUID]model.ParticipantWithPackage, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	result, err := commission.Calculate(ctx, s.policy, commission.Input{
		Period:       period,
		Orders:       orders,
		Volumes:      volumes,
		Tree:         tree,
		Participants: byID,
	})
	if err != nil {
		return nil, err
	}

	res.ParticipantsPaid, res.Failed = s.commit(ctx, period, result)

	if result.LegVolumes != nil {
		err := retry.Do(ctx, s.retry, func() error {
			return s.store.ReplaceLegVolumes(ctx, result.LegVolumes)
		})
		if err != nil {
			s.log.Error("failed to write leg volumes", "period", period, "error", err)
			metrics.CommitFailuresTotal.Inc()
		}
	}

	res.Success = true
	res.Message = fmt.Sprintf("Batch complete using %s policy. Paid %d participants.", s.policy.Name(), res.ParticipantsPaid)
	if res.Failed > 0 {
		res.Message += fmt.Sprintf(" %d commits failed.", res.Failed)
	}
	return res, nil
}

// ensureRenewals creates the period's renewal order for every holder of a
// package that is still sold at a positive price.
func (s *BatchService) ensureRenewals(ctx context.Context, period string, participants []model.ParticipantWithPackage) (int, error) {
	created := 0
	for _, p := range participants {
		if !p.HasActivePackage() || !p.Package.Price.IsPositive() {
			continue
		}

		pkgID := p.Package.ID
		order := &model.Order{
			ID:         uuid.New(),
			BuyerID:    p.ID,
			PackageID:  &pkgID,
			Amount:     p.Package.Price,
			CVSnapshot: decimal.NewNullDecimal(p.Package.CommissionValue()),
			Period:     period,
			Type:       model.OrderTypeRenewal,
		}
		ok, err := s.store.EnsureRenewal(ctx, order)
		if err != nil {
			return created, fmt.Errorf("failed to create renewal for %s: %w", p.ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// commit writes each credited participant in its own transaction. A failure
// is logged and counted and never stops the remaining participants.
func (s *BatchService) commit(ctx context.Context, period string, result *commission.Result) (paid, failed int) {
	lines := result.ByParticipant()

	for _, id := range result.Paid() {
		c := model.PeriodCommit{
			ParticipantID: id,
			Period:        period,
			Wallet:        model.WalletFromBreakdown(id, period, result.Breakdowns[id]),
		}
		for _, l := range lines[id] {
			c.Commissions = append(c.Commissions, model.Commission{
				ID:            uuid.New(),
				ParticipantID: id,
				OrderID:       l.OrderID,
				Period:        period,
				Type:          l.Type,
				Rate:          l.Rate,
				Amount:        l.Amount,
				Status:        model.CommissionStatusEarned,
			})
		}

		err := retry.Do(ctx, s.retry, func() error {
			return s.store.CommitPeriod(ctx, c)
		})
		if err != nil {
			failed++
			metrics.CommitFailuresTotal.Inc()
			s.log.Error("failed to commit participant earnings", "participant_id", id, "period", period, "error", err)
			continue
		}

		paid++
		for _, cm := range c.Commissions {
			metrics.CommissionAmountTotal.WithLabelValues(string(cm.Type)).Add(cm.Amount.InexactFloat64())
		}
	}
	return paid, failed
}
