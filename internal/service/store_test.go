package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for *repository.Repository that keeps the
// same sentinel errors and write semantics.
type memStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]model.Participant
	packages     map[uuid.UUID]model.Package
	placements   map[uuid.UUID]model.Placement
	orders       []model.Order
	commissions  []model.Commission
	wallets      map[uuid.UUID]model.Wallet
	payouts      map[uuid.UUID]model.Payout

	failCommit map[uuid.UUID]error
	resets     int
}

var (
	_ NetworkStore     = (*memStore)(nil)
	_ BatchStore       = (*memStore)(nil)
	_ ResetStore       = (*memStore)(nil)
	_ ReportStore      = (*memStore)(nil)
	_ PayoutStore      = (*memStore)(nil)
	_ PackageStore     = (*memStore)(nil)
	_ ParticipantStore = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		participants: make(map[uuid.UUID]model.Participant),
		packages:     make(map[uuid.UUID]model.Package),
		placements:   make(map[uuid.UUID]model.Placement),
		wallets:      make(map[uuid.UUID]model.Wallet),
		payouts:      make(map[uuid.UUID]model.Payout),
		failCommit:   make(map[uuid.UUID]error),
	}
}

func (m *memStore) GetPlacement(_ context.Context, id uuid.UUID) (*model.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.placements[id]
	if !ok {
		return nil, repository.ErrPlacementNotFound
	}
	return &p, nil
}

func (m *memStore) ListPlacements(context.Context) ([]model.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Placement, 0, len(m.placements))
	for _, p := range m.placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (m *memStore) ListParticipantsWithPackages(context.Context) ([]model.ParticipantWithPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ParticipantWithPackage, 0, len(m.participants))
	for _, p := range m.participants {
		pw := model.ParticipantWithPackage{Participant: p}
		if p.PackageID != nil {
			if pkg, ok := m.packages[*p.PackageID]; ok {
				pw.Package = &pkg
			}
		}
		out = append(out, pw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *memStore) ListOrdersByPeriod(_ context.Context, period string) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.Period == period {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListOrdersByBuyer(_ context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) EnsureRenewal(_ context.Context, o *model.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.Type == model.OrderTypeRenewal && existing.BuyerID == o.BuyerID && existing.Period == o.Period {
			return false, nil
		}
	}
	m.orders = append(m.orders, *o)
	return true, nil
}

func (m *memStore) CommitPeriod(_ context.Context, c model.PeriodCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCommit[c.ParticipantID]; err != nil {
		return err
	}

	var kept, settled []model.Commission
	for _, cm := range m.commissions {
		if cm.ParticipantID == c.ParticipantID && cm.Period == c.Period {
			if cm.Status == model.CommissionStatusEarned {
				continue
			}
			settled = append(settled, cm)
		}
		kept = append(kept, cm)
	}
	m.commissions = append(kept, model.Unsettled(c.Commissions, settled)...)
	m.wallets[c.ParticipantID] = c.Wallet
	return nil
}

func (m *memStore) ReplaceLegVolumes(_ context.Context, volumes map[uuid.UUID]model.LegVolumes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.placements {
		v := volumes[id]
		p.LeftVolume, p.RightVolume, p.TotalVolume = v.Left, v.Right, v.Total
		m.placements[id] = p
	}
	return nil
}

func (m *memStore) GetParticipant(_ context.Context, id uuid.UUID) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	return &p, nil
}

func (m *memStore) GetParticipantByEmail(_ context.Context, email string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, repository.ErrParticipantNotFound
}

func (m *memStore) CreateParticipant(_ context.Context, p *model.Participant, placement *model.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.participants {
		if strings.EqualFold(existing.Email, p.Email) {
			return repository.ErrEmailTaken
		}
	}
	for _, existing := range m.placements {
		if placement.ParentID == nil && existing.ParentID == nil {
			return network.ErrRootExists
		}
		if placement.ParentID != nil && existing.ParentID != nil &&
			*existing.ParentID == *placement.ParentID && existing.Position == placement.Position {
			return network.ErrIntegrityViolation
		}
	}
	if _, ok := m.placements[placement.ParticipantID]; ok {
		return network.ErrIntegrityViolation
	}
	m.participants[p.ID] = *p
	m.wallets[p.ID] = model.Wallet{ParticipantID: p.ID}
	m.placements[placement.ParticipantID] = *placement
	return nil
}

func (m *memStore) CountDirectReferrals(_ context.Context, sponsorID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.participants {
		if p.SponsorID != nil && *p.SponsorID == sponsorID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetWallet(_ context.Context, id uuid.UUID) (*model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		w = model.Wallet{ParticipantID: id}
	}
	return &w, nil
}

func (m *memStore) GetPackage(_ context.Context, id uuid.UUID) (*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return nil, repository.ErrPackageNotFound
	}
	return &pkg, nil
}

func (m *memStore) ListPackages(_ context.Context, activeOnly bool) ([]model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Package
	for _, pkg := range m.packages {
		if activeOnly && !pkg.IsActive {
			continue
		}
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

func (m *memStore) CreatePackage(_ context.Context, pkg *model.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg.ID = uuid.New()
	m.packages[pkg.ID] = *pkg
	return nil
}

func (m *memStore) UpdatePackage(_ context.Context, pkg *model.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[pkg.ID]; !ok {
		return repository.ErrPackageNotFound
	}
	m.packages[pkg.ID] = *pkg
	return nil
}

func (m *memStore) ActivatePackage(_ context.Context, participantID uuid.UUID, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	p.PackageID = order.PackageID
	p.IsAffiliate = true
	m.participants[participantID] = p
	m.orders = append(m.orders, *order)
	return nil
}

func (m *memStore) ResetSystem(_ context.Context, rootID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++

	root := m.participants[rootID]
	root.PackageID, root.SponsorID = nil, nil
	m.participants = map[uuid.UUID]model.Participant{rootID: root}
	m.packages = make(map[uuid.UUID]model.Package)
	m.placements = map[uuid.UUID]model.Placement{rootID: network.NewRootPlacement(rootID)}
	m.orders = nil
	m.commissions = nil
	m.wallets = map[uuid.UUID]model.Wallet{rootID: {ParticipantID: rootID}}
	m.payouts = make(map[uuid.UUID]model.Payout)
	return nil
}

func (m *memStore) ResetPreview(_ context.Context, rootID uuid.UUID) ([]model.TableCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []model.TableCount{
		{Table: "payouts", Rows: int64(len(m.payouts))},
		{Table: "commissions", Rows: int64(len(m.commissions))},
		{Table: "orders", Rows: int64(len(m.orders))},
		{Table: "participants", Rows: int64(len(m.participants) - 1)},
	}, nil
}

func (m *memStore) MasterReport(context.Context) ([]model.ReportRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ReportRow
	for id, p := range m.participants {
		w := m.wallets[id]
		out = append(out, model.ReportRow{
			ParticipantID: id,
			Email:         p.Email,
			Self:          w.BalanceSelf,
			Direct:        w.BalanceDirect,
			Passive:       w.BalancePassive,
			Level:         w.BalanceLevel,
			Matching:      w.BalanceMatch,
			Total:         w.TotalEarnings,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (m *memStore) PlatformStats(context.Context) (*model.PlatformStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.PlatformStats{Users: len(m.participants), Packages: map[string]int{}}
	for _, o := range m.orders {
		stats.Revenue = stats.Revenue.Add(o.Amount)
	}
	for _, w := range m.wallets {
		stats.Payout = stats.Payout.Add(w.TotalEarnings)
	}
	stats.Profit = stats.Revenue.Sub(stats.Payout)
	return stats, nil
}

func (m *memStore) GetPayout(_ context.Context, id uuid.UUID) (*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrPayoutNotFound
	}
	return &p, nil
}

func (m *memStore) RequestPayout(_ context.Context, participantID uuid.UUID) (*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payout := model.Payout{ID: uuid.New(), ParticipantID: participantID, Status: model.PayoutStatusPending}
	for i, cm := range m.commissions {
		if cm.ParticipantID != participantID || cm.Status != model.CommissionStatusEarned {
			continue
		}
		payout.Amount = payout.Amount.Add(cm.Amount)
		id := payout.ID
		m.commissions[i].Status = model.CommissionStatusPendingPayout
		m.commissions[i].PayoutID = &id
	}
	if !payout.Amount.IsPositive() {
		return nil, repository.ErrNothingToPayout
	}
	m.payouts[payout.ID] = payout
	return &payout, nil
}

func (m *memStore) SettlePayout(_ context.Context, id uuid.UUID, status model.PayoutStatus, next model.CommissionStatus) (*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok || p.Status != model.PayoutStatusPending {
		return nil, model.ErrInvalidTransition
	}
	p.Status = status
	m.payouts[id] = p
	for i, cm := range m.commissions {
		if cm.PayoutID != nil && *cm.PayoutID == id {
			m.commissions[i].Status = next
		}
	}
	return &p, nil
}

// Helpers for building fixtures directly in the store.

func (m *memStore) addPackage(price int64) model.Package {
	pkg := model.Package{
		ID:         uuid.New(),
		Name:       "Package",
		Price:      decimal.NewFromInt(price),
		CVValue:    decimal.NewFromInt(price),
		CapLimit:   10,
		MinDepth:   1,
		DirectRate: decimal.NewFromInt(15),
		Level2Rate: decimal.NewFromInt(10),
		Level3Rate: decimal.NewFromInt(5),
		IsActive:   true,
	}
	m.packages[pkg.ID] = pkg
	return pkg
}

// addMember registers a participant holding pkg, placed below sponsor (or as root).
func (m *memStore) addMember(email string, sponsor *uuid.UUID, pkg *model.Package) uuid.UUID {
	p := model.Participant{ID: uuid.New(), Email: email, SponsorID: sponsor, IsAffiliate: true}
	if pkg != nil {
		id := pkg.ID
		p.PackageID = &id
	}
	m.participants[p.ID] = p
	m.wallets[p.ID] = model.Wallet{ParticipantID: p.ID}

	placements := make([]model.Placement, 0, len(m.placements))
	for _, pl := range m.placements {
		placements = append(placements, pl)
	}
	tree, err := network.NewTree(placements)
	if err != nil {
		panic(err)
	}
	if sponsor == nil {
		m.placements[p.ID] = network.NewRootPlacement(p.ID)
		return p.ID
	}
	slot, err := tree.NextOpenSlot(*sponsor)
	if err != nil {
		panic(err)
	}
	m.placements[p.ID] = network.NewPlacement(p.ID, *sponsor, slot)
	return p.ID
}

func (m *memStore) ListCommissions(_ context.Context, id uuid.UUID, period string) ([]model.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Commission
	for _, cm := range m.commissions {
		if cm.ParticipantID == id && cm.Period == period {
			out = append(out, cm)
		}
	}
	return out, nil
}

func (m *memStore) commissionsFor(id uuid.UUID) []model.Commission {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Commission
	for _, cm := range m.commissions {
		if cm.ParticipantID == id {
			out = append(out, cm)
		}
	}
	return out
}

var errCommitFailed = errors.New("commit failed")
