package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/commission"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/logger"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupFixture struct {
	store        *memStore
	participants *ParticipantService
	packages     *PackageService
	clock        *clockwork.FakeClock
}

func newSignupFixture() *signupFixture {
	store := newMemStore()
	log := logger.Discard()
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC))
	return &signupFixture{
		store:        store,
		participants: NewParticipantService(store, NewNetworkService(store, log), log),
		packages:     NewPackageService(store, clock, log),
		clock:        clock,
	}
}

func TestSignup_SponsorResolution(t *testing.T) {
	t.Parallel()
	f := newSignupFixture()
	ctx := context.Background()

	root, rootPlacement, err := f.participants.Signup(ctx, SignupInput{Email: "admin@hfc.com"})
	require.NoError(t, err)
	assert.Nil(t, root.SponsorID)
	assert.True(t, rootPlacement.IsRoot())

	// No sponsor email: sponsored by the network root.
	alice, placement, err := f.participants.Signup(ctx, SignupInput{Email: "alice@hfc.com", DisplayName: " Alice "})
	require.NoError(t, err)
	require.NotNil(t, alice.SponsorID)
	assert.Equal(t, root.ID, *alice.SponsorID)
	assert.Equal(t, root.ID, *placement.ParentID)
	assert.Equal(t, model.PositionLeft, placement.Position)
	require.NotNil(t, alice.DisplayName)
	assert.Equal(t, "Alice", *alice.DisplayName)

	bob, placement, err := f.participants.Signup(ctx, SignupInput{Email: "bob@hfc.com", SponsorEmail: "ALICE@hfc.com"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, *bob.SponsorID)
	assert.Equal(t, alice.ID, *placement.ParentID)
	assert.Equal(t, 2, placement.Level)
}

func TestSignup_Errors(t *testing.T) {
	t.Parallel()
	f := newSignupFixture()
	ctx := context.Background()

	_, _, err := f.participants.Signup(ctx, SignupInput{Email: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = f.participants.Signup(ctx, SignupInput{Email: "a@hfc.com", SponsorEmail: "ghost@hfc.com"})
	require.ErrorIs(t, err, ErrSponsorNotFound)

	_, _, err = f.participants.Signup(ctx, SignupInput{Email: "a@hfc.com"})
	require.NoError(t, err)
	_, _, err = f.participants.Signup(ctx, SignupInput{Email: "A@hfc.com"})
	require.ErrorIs(t, err, repository.ErrEmailTaken)
}

// gatedStore holds the first two placement reads until both have arrived, so two
// signups resolve their sponsor against the same empty network.
type gatedStore struct {
	*memStore
	arrived sync.WaitGroup
	reads   atomic.Int32
}

func (g *gatedStore) ListPlacements(ctx context.Context) ([]model.Placement, error) {
	if g.reads.Add(1) <= 2 {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return g.memStore.ListPlacements(ctx)
}

func TestSignup_ConcurrentOnEmptyNetwork(t *testing.T) {
	t.Parallel()
	store := &gatedStore{memStore: newMemStore()}
	store.arrived.Add(2)
	log := logger.Discard()
	svc := NewParticipantService(store, NewNetworkService(store, log), log)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, email := range []string{"first@hfc.com", "second@hfc.com"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = svc.Signup(ctx, SignupInput{Email: email})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, store.participants, 2)
	assert.Len(t, store.placements, 2)
	root, err := NewNetworkService(store.memStore, log).Root(ctx)
	require.NoError(t, err)
	require.NotNil(t, root)
	for id, p := range store.participants {
		if id == root.ParticipantID {
			assert.Nil(t, p.SponsorID)
			continue
		}
		require.NotNil(t, p.SponsorID)
		assert.Equal(t, root.ParticipantID, *p.SponsorID)
	}
}

func TestPackage_CreateValidation(t *testing.T) {
	t.Parallel()
	f := newSignupFixture()
	ctx := context.Background()

	_, err := f.packages.Create(ctx, PackageInput{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidPackage)
	_, err = f.packages.Create(ctx, PackageInput{Name: "Gold", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, ErrInvalidPackage)
	_, err = f.packages.Create(ctx, PackageInput{Name: "Gold", DirectRate: decimal.NewFromInt(101)})
	require.ErrorIs(t, err, ErrInvalidPackage)

	pkg, err := f.packages.Create(ctx, PackageInput{Name: "Gold", Price: decimal.NewFromInt(500), DirectRate: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.True(t, pkg.IsActive)

	price := decimal.NewFromInt(600)
	inactive := false
	updated, err := f.packages.Update(ctx, pkg.ID, PackagePatch{Price: &price, IsActive: &inactive})
	require.NoError(t, err)
	requireAmount(t, "600", updated.Price)
	assert.Equal(t, "Gold", updated.Name)

	list, err := f.packages.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestPackage_ActivateAndUserData(t *testing.T) {
	t.Parallel()
	f := newSignupFixture()
	ctx := context.Background()

	root, _, err := f.participants.Signup(ctx, SignupInput{Email: "admin@hfc.com"})
	require.NoError(t, err)
	member, _, err := f.participants.Signup(ctx, SignupInput{Email: "m@hfc.com"})
	require.NoError(t, err)

	pkg, err := f.packages.Create(ctx, PackageInput{Name: "Silver", Price: decimal.NewFromInt(100), CVValue: decimal.NewFromInt(80)})
	require.NoError(t, err)

	order, err := f.packages.Activate(ctx, member.ID, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderTypePackage, order.Type)
	assert.Equal(t, "2026-10", order.Period)
	requireAmount(t, "100", order.Amount)
	requireAmount(t, "80", order.CV())

	data, err := f.participants.UserData(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, data.Package)
	assert.Equal(t, pkg.ID, data.Package.ID)
	assert.True(t, data.Profile.IsAffiliate)
	assert.Len(t, data.Orders, 1)

	rootData, err := f.participants.UserData(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rootData.Team.Directs)
	assert.Equal(t, 1, rootData.Team.Downline.Total)
	assert.Nil(t, rootData.Package)
	assert.NotNil(t, rootData.Orders)
	assert.NotNil(t, rootData.Commissions)
	assert.Empty(t, rootData.Commissions)

	_, err = f.packages.Update(ctx, pkg.ID, PackagePatch{IsActive: new(bool)})
	require.NoError(t, err)
	_, err = f.packages.Activate(ctx, root.ID, pkg.ID)
	require.ErrorIs(t, err, ErrPackageInactive)
}

func TestUserData_ListsLastPeriodCommissions(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	root, _ := twoLevel(store)
	batch, _ := newBatch(t, store, commission.PolicyPool)
	ctx := context.Background()
	_, err := batch.RunPeriodBatch(ctx, "2026-01")
	require.NoError(t, err)

	log := logger.Discard()
	svc := NewParticipantService(store, NewNetworkService(store, log), log)
	data, err := svc.UserData(ctx, root)
	require.NoError(t, err)

	require.NotEmpty(t, data.Commissions)
	total := decimal.Zero
	for _, cm := range data.Commissions {
		assert.Equal(t, "2026-01", cm.Period)
		total = total.Add(cm.Amount)
	}
	requireAmount(t, "75", total)
	requireAmount(t, "75", data.Wallet.TotalEarnings)
}
