package commission

import (
	"context"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PoolPolicy pays a flat self and sponsor override per order, plus one lump
// passive payment per participant sized by downline volume over a depth divisor.
type PoolPolicy struct {
	rates Rates
}

func (p *PoolPolicy) Name() string { return PolicyPool }

func (p *PoolPolicy) Allocation() decimal.Decimal {
	return p.rates.Self.Add(p.rates.Direct)
}

func (p *PoolPolicy) Calculate(ctx context.Context, in Input) (*Result, error) {
	res := newResult(p.Name())

	for _, o := range in.Orders {
		cv := o.CV()
		orderID := o.ID

		res.add(Line{
			ParticipantID: o.BuyerID,
			OrderID:       &orderID,
			Type:          model.CommissionTypeSelf,
			Rate:          p.rates.Self,
			Amount:        cv.Mul(p.rates.Self),
		})

		buyer, ok := in.Participants[o.BuyerID]
		if !ok || buyer.SponsorID == nil {
			continue
		}
		res.add(Line{
			ParticipantID: *buyer.SponsorID,
			OrderID:       &orderID,
			Type:          model.CommissionTypeDirect,
			Rate:          p.rates.Direct,
			Amount:        cv.Mul(p.rates.Direct),
		})
	}

	active := sortedParticipants(in.Participants, func(pp model.ParticipantWithPackage) bool {
		return pp.HasActivePackage()
	})

	passive := make([]decimal.Decimal, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.rates.Workers, 1))
	for i, participant := range active {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			passive[i] = PassivePayout(in.Tree, participant, in.Volumes, p.rates.Pool)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, participant := range active {
		res.add(Line{
			ParticipantID: participant.ID,
			Type:          model.CommissionTypePassivePool,
			Rate:          p.rates.Pool,
			Amount:        passive[i],
		})
	}

	return res, nil
}

// PassivePayout computes (downline volume * pool) / max(actual depth, package min depth),
// scanning no deeper than the package cap.
func PassivePayout(tree *network.Tree, participant model.ParticipantWithPackage, volumes network.Volumes, pool decimal.Decimal) decimal.Decimal {
	if participant.Package == nil {
		return decimal.Zero
	}
	agg := tree.DownlineAggregate(participant.ID, participant.Package.EffectiveCapLimit(), volumes)
	if !agg.Volume.IsPositive() {
		return decimal.Zero
	}
	divisor := max(agg.Depth, participant.Package.EffectiveMinDepth())
	return agg.Volume.Mul(pool).Div(decimal.NewFromInt(int64(divisor)))
}
