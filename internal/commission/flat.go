package commission

import (
	"context"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/shopspring/decimal"
)

// FlatPolicy pays the order's referrer a fixed share and splits a second share
// evenly among all other affiliates.
type FlatPolicy struct {
	rates Rates
}

func (p *FlatPolicy) Name() string { return PolicyFlat }

func (p *FlatPolicy) Allocation() decimal.Decimal {
	return p.rates.Referrer.Add(p.rates.FlatPool)
}

func (p *FlatPolicy) Calculate(ctx context.Context, in Input) (*Result, error) {
	res := newResult(p.Name())
	affiliates := sortedParticipants(in.Participants, func(pp model.ParticipantWithPackage) bool {
		return pp.IsAffiliate
	})

	for _, o := range in.Orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref := referrerOf(o, in.Participants)
		if ref == nil {
			continue
		}
		cv := o.CV()
		orderID := o.ID

		res.add(Line{
			ParticipantID: *ref,
			OrderID:       &orderID,
			Type:          model.CommissionTypeAffiliateReferral,
			Rate:          p.rates.Referrer,
			Amount:        cv.Mul(p.rates.Referrer),
		})

		others := 0
		for _, a := range affiliates {
			if a.ID != *ref {
				others++
			}
		}
		if others == 0 {
			continue
		}

		n := decimal.NewFromInt(int64(others))
		share := cv.Mul(p.rates.FlatPool).Div(n).Truncate(moneyScale)
		rate := p.rates.FlatPool.Div(n)
		for _, a := range affiliates {
			if a.ID == *ref {
				continue
			}
			res.add(Line{
				ParticipantID: a.ID,
				OrderID:       &orderID,
				Type:          model.CommissionTypePassivePool,
				Rate:          rate,
				Amount:        share,
			})
		}
	}

	return res, nil
}
