package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/shopspring/decimal"
)

// BinaryPolicy walks the upline of each order's referrer paying per-level
// package rates, keeps left/right leg volume for every ancestor, and pays a
// matching bonus on the weaker leg of each referrer.
type BinaryPolicy struct {
	rates Rates
}

func (p *BinaryPolicy) Name() string { return PolicyBinary }

func (p *BinaryPolicy) Allocation() decimal.Decimal {
	return p.rates.BinaryAllocation
}

func (p *BinaryPolicy) Calculate(ctx context.Context, in Input) (*Result, error) {
	res := newResult(p.Name())
	legs := make(map[uuid.UUID]model.LegVolumes)
	levels := max(p.rates.UplineLevels, 1)

	var referrers []uuid.UUID
	seen := make(map[uuid.UUID]bool)

	for _, o := range in.Orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref := referrerOf(o, in.Participants)
		if ref == nil {
			continue
		}
		self, ok := in.Tree.Get(*ref)
		if !ok {
			continue
		}

		cv := o.CV()
		orderID := o.ID
		addLegVolume(in.Tree, legs, *ref, cv, levels)

		chain := append([]model.Placement{self}, in.Tree.UplineChain(*ref, levels-1)...)
		for i, anc := range chain {
			participant, ok := in.Participants[anc.ParticipantID]
			if !ok || participant.Package == nil {
				continue
			}
			if i >= participant.Package.EffectiveMaxTreeDepth() {
				break
			}
			rate := participant.Package.LevelRate(i)
			if !rate.IsPositive() {
				continue
			}

			typ := model.CommissionTypeDirect
			if i > 0 {
				typ = model.LevelCommissionType(i + 1)
			}
			res.add(Line{
				ParticipantID: anc.ParticipantID,
				OrderID:       &orderID,
				Type:          typ,
				Rate:          rate,
				Amount:        cv.Mul(rate).Div(hundred),
			})
		}

		if !seen[*ref] {
			seen[*ref] = true
			referrers = append(referrers, *ref)
		}
	}

	for _, id := range referrers {
		participant, ok := in.Participants[id]
		if !ok || participant.Package == nil || !participant.Package.MatchingBonusRate.IsPositive() {
			continue
		}
		lv := legs[id]
		rate := participant.Package.MatchingBonusRate
		res.add(Line{
			ParticipantID: id,
			Type:          model.CommissionTypeMatchingBonus,
			Rate:          rate,
			Amount:        decimal.Min(lv.Left, lv.Right).Mul(rate).Div(hundred),
		})
	}

	res.LegVolumes = legs
	return res, nil
}

// addLegVolume credits cv to the referrer's total and to the leg of every
// ancestor that contains the referrer.
func addLegVolume(tree *network.Tree, legs map[uuid.UUID]model.LegVolumes, referrer uuid.UUID, cv decimal.Decimal, levels int) {
	own := legs[referrer]
	own.Total = own.Total.Add(cv)
	legs[referrer] = own

	for _, anc := range tree.UplineChain(referrer, levels) {
		lv := legs[anc.ParticipantID]
		switch tree.LegOf(anc.ParticipantID, referrer) {
		case model.PositionLeft:
			lv.Left = lv.Left.Add(cv)
		case model.PositionRight:
			lv.Right = lv.Right.Add(cv)
		default:
			continue
		}
		lv.Total = lv.Total.Add(cv)
		legs[anc.ParticipantID] = lv
	}
}
