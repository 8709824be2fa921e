// Package commission turns a period's orders and the network snapshot into
// per-participant earnings. Three mutually exclusive payout models are exposed
// as Policy implementations; a deployment pins one of them by name.
package commission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/shopspring/decimal"
)

const (
	PolicyPool   = "pool"
	PolicyBinary = "binary"
	PolicyFlat   = "flat"

	// moneyScale matches NUMERIC(20,6) in the store. Amounts are truncated, never
	// rounded up, so per-order sums cannot drift above the allocation ceiling.
	moneyScale = 6
)

var (
	ErrUnknownPolicy      = errors.New("unknown commission policy")
	ErrAllocationExceeded = errors.New("commission allocation exceeds order value")
)

var hundred = decimal.NewFromInt(100)

// Rates are the platform-wide percentages used by the policies, as fractions (0.10 = 10%).
type Rates struct {
	Self     decimal.Decimal
	Direct   decimal.Decimal
	Pool     decimal.Decimal
	Referrer decimal.Decimal
	FlatPool decimal.Decimal
	// BinaryAllocation caps the per-order sum of binary level overrides.
	BinaryAllocation decimal.Decimal
	UplineLevels     int
	Workers          int
}

func DefaultRates() Rates {
	return Rates{
		Self:             decimal.RequireFromString("0.10"),
		Direct:           decimal.RequireFromString("0.15"),
		Pool:             decimal.RequireFromString("0.50"),
		Referrer:         decimal.RequireFromString("0.05"),
		FlatPool:         decimal.RequireFromString("0.05"),
		BinaryAllocation: decimal.NewFromInt(1),
		UplineLevels:     10,
		Workers:          8,
	}
}

// Input is the snapshot a policy calculates over. Nothing in it is mutated.
type Input struct {
	Period       string
	Orders       []model.Order
	Volumes      network.Volumes
	Tree         *network.Tree
	Participants map[uuid.UUID]model.ParticipantWithPackage
}

// Line is one commission amount owed to a participant.
type Line struct {
	ParticipantID uuid.UUID
	OrderID       *uuid.UUID
	Type          model.CommissionType
	Rate          decimal.Decimal
	Amount        decimal.Decimal
}

type Result struct {
	Policy     string
	Breakdowns map[uuid.UUID]model.Breakdown
	Lines      []Line
	// LegVolumes is only filled by policies that maintain binary leg counters.
	LegVolumes map[uuid.UUID]model.LegVolumes
}

func newResult(policy string) *Result {
	return &Result{
		Policy:     policy,
		Breakdowns: make(map[uuid.UUID]model.Breakdown),
	}
}

func (r *Result) add(l Line) {
	l.Amount = l.Amount.Truncate(moneyScale)
	if !l.Amount.IsPositive() {
		return
	}
	b := r.Breakdowns[l.ParticipantID]
	b.Add(l.Type, l.Amount)
	r.Breakdowns[l.ParticipantID] = b
	r.Lines = append(r.Lines, l)
}

// Paid returns every participant with a positive total, in a stable order.
func (r *Result) Paid() []uuid.UUID {
	var ids []uuid.UUID
	for id, b := range r.Breakdowns {
		if b.Total().IsPositive() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// ByParticipant groups the result's lines by the participant they are owed to.
func (r *Result) ByParticipant() map[uuid.UUID][]Line {
	out := make(map[uuid.UUID][]Line, len(r.Breakdowns))
	for _, l := range r.Lines {
		out[l.ParticipantID] = append(out[l.ParticipantID], l)
	}
	return out
}

// Total sums every line of the result.
func (r *Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

type Policy interface {
	Name() string
	// Allocation is the ceiling, as a fraction of CV, on order-linked commissions for one order.
	Allocation() decimal.Decimal
	Calculate(ctx context.Context, in Input) (*Result, error)
}

// New returns the policy registered under name.
func New(name string, rates Rates) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyPool, "":
		return &PoolPolicy{rates: rates}, nil
	case PolicyBinary:
		return &BinaryPolicy{rates: rates}, nil
	case PolicyFlat:
		return &FlatPolicy{rates: rates}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Calculate runs policy over in and verifies no order pays out more than the
// policy's allocation ceiling. A violation is a formula bug and nothing should be committed.
func Calculate(ctx context.Context, policy Policy, in Input) (*Result, error) {
	res, err := policy.Calculate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s policy: %w", policy.Name(), err)
	}
	if err := CheckAllocation(in.Orders, res.Lines, policy.Allocation()); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckAllocation fails when the order-linked lines of any order sum to more
// than that order's CV times ceiling.
func CheckAllocation(orders []model.Order, lines []Line, ceiling decimal.Decimal) error {
	perOrder := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range lines {
		if l.OrderID == nil {
			continue
		}
		perOrder[*l.OrderID] = perOrder[*l.OrderID].Add(l.Amount)
	}
	for _, o := range orders {
		paid, ok := perOrder[o.ID]
		if !ok {
			continue
		}
		if limit := o.CV().Mul(ceiling); paid.GreaterThan(limit) {
			return fmt.Errorf("%w: order %s pays %s against a limit of %s", ErrAllocationExceeded, o.ID, paid, limit)
		}
	}
	return nil
}

// referrerOf resolves who referred an order: the explicit referrer, else the buyer's sponsor.
func referrerOf(o model.Order, participants map[uuid.UUID]model.ParticipantWithPackage) *uuid.UUID {
	if o.ReferrerID != nil {
		return o.ReferrerID
	}
	if buyer, ok := participants[o.BuyerID]; ok {
		return buyer.SponsorID
	}
	return nil
}

func sortedParticipants(participants map[uuid.UUID]model.ParticipantWithPackage, keep func(model.ParticipantWithPackage) bool) []model.ParticipantWithPackage {
	out := make([]model.ParticipantWithPackage, 0, len(participants))
	for _, p := range participants {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
