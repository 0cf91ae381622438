package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/kvstore"
	"github.com/hivelabs/namehive/internal/repository"
)

// =============================================================================
// Test fixtures
// =============================================================================

// memoryAccountLedger keeps per user/day counts in memory, standing in for
// the usage_events table.
type memoryAccountLedger struct {
	counts    map[string]int64
	countErr  error
	insertErr error
}

func newMemoryAccountLedger() *memoryAccountLedger {
	return &memoryAccountLedger{counts: make(map[string]int64)}
}

func ledgerKey(userID uuid.UUID, day string) string {
	return userID.String() + "|" + day
}

func (l *memoryAccountLedger) CountUsageEvents(_ context.Context, arg repository.CountUsageEventsParams) (int64, error) {
	if l.countErr != nil {
		return 0, l.countErr
	}
	return l.counts[ledgerKey(arg.UserID, arg.Day)], nil
}

func (l *memoryAccountLedger) CreateUsageEvent(_ context.Context, arg repository.CreateUsageEventParams) (repository.UsageEvent, error) {
	if l.insertErr != nil {
		return repository.UsageEvent{}, l.insertErr
	}
	l.counts[ledgerKey(arg.UserID, arg.Day)]++
	return repository.UsageEvent{
		ID:            uuid.New(),
		UserID:        arg.UserID,
		GeneratorType: arg.GeneratorType,
		Day:           arg.Day,
		IsPremium:     arg.IsPremium,
	}, nil
}

// brokenStore fails every operation, for ledger-error policy tests.
type brokenStore struct{}

func (brokenStore) Get(string) (string, error)       { return "", errors.New("store down") }
func (brokenStore) Set(string, string) error         { return errors.New("store down") }
func (brokenStore) Remove(string) error              { return errors.New("store down") }
func (brokenStore) Keys(string) ([]string, error)    { return nil, errors.New("store down") }

func testEntitlement(t *testing.T, policy LedgerErrorPolicy) (*entitlementService, *memoryAccountLedger, kvstore.Store) {
	t.Helper()
	ledger := newMemoryAccountLedger()
	store := kvstore.NewMemory()
	svc := &entitlementService{
		queries: ledger,
		store:   store,
		policy:  policy,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		today:   func() string { return "2026-08-28" },
	}
	return svc, ledger, store
}

func premiumUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "pro@example.com", SubscriptionStatus: domain.SubscriptionStatusActive}
}

func freeUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "free@example.com", SubscriptionStatus: domain.SubscriptionStatusInactive}
}

// =============================================================================
// Resolver
// =============================================================================

func TestResolveCaller(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorAllow)

	t.Run("visitor with cookie", func(t *testing.T) {
		c := svc.ResolveCaller(nil, "anon_1756300000000_abcdefg")
		assert.Equal(t, domain.TierAnonymous, c.Tier)
		assert.Equal(t, "anon_1756300000000_abcdefg", c.PseudoID)
	})

	t.Run("visitor without cookie gets minted identity", func(t *testing.T) {
		c := svc.ResolveCaller(nil, "")
		assert.Equal(t, domain.TierAnonymous, c.Tier)
		assert.True(t, domain.IsPseudoID(c.PseudoID))
	})

	t.Run("free account", func(t *testing.T) {
		u := freeUser()
		c := svc.ResolveCaller(u, "")
		assert.Equal(t, domain.TierFree, c.Tier)
		assert.Equal(t, u.ID, c.UserID)
	})

	t.Run("premium account", func(t *testing.T) {
		c := svc.ResolveCaller(premiumUser(), "ignored")
		assert.Equal(t, domain.TierPremium, c.Tier)
	})

	t.Run("classification is re-derived, not cached", func(t *testing.T) {
		u := premiumUser()
		c := svc.ResolveCaller(u, "")
		require.Equal(t, domain.TierPremium, c.Tier)

		// Subscription lapses between requests. The next resolution must
		// see the free tier immediately.
		u.SubscriptionStatus = domain.SubscriptionStatusCanceled
		c = svc.ResolveCaller(u, "")
		assert.Equal(t, domain.TierFree, c.Tier)

		status := svc.Status(context.Background(), c)
		assert.Equal(t, domain.AllowanceFree, status.Allowance)
	})
}

// =============================================================================
// Anonymous quota
// =============================================================================

func TestAnonymousQuotaLifecycle(t *testing.T) {
	svc, _, store := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()
	caller := domain.AnonymousCaller("anon_1756300000000_zzzzzzz")

	// Three generations succeed with remaining counting down.
	for i, wantRemaining := range []int{2, 1, 0} {
		status, err := svc.TryConsume(ctx, caller, domain.GeneratorBusiness, nil)
		require.NoError(t, err, "generation %d", i+1)
		assert.Equal(t, i+1, status.Used)
		assert.Equal(t, wantRemaining, status.Remaining)
	}

	// The fourth is denied with the payment-required code, and records nothing.
	_, err := svc.TryConsume(ctx, caller, domain.GeneratorBusiness, nil)
	require.Error(t, err)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "Upgrade")

	raw, err := store.Get(AnonDayKey("2026-08-28"))
	require.NoError(t, err)
	m, err := domain.DecodeDayMap(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, m[caller.PseudoID], "denied attempt must not be recorded")

	status := svc.Status(ctx, caller)
	assert.Equal(t, 3, status.Used)
	assert.Equal(t, 0, status.Remaining)
}

func TestAnonymousCallersAreIsolated(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()
	first := domain.AnonymousCaller("anon_1756300000000_aaaaaaa")
	second := domain.AnonymousCaller("anon_1756300000000_bbbbbbb")

	for i := 0; i < domain.AllowanceAnonymous; i++ {
		_, err := svc.TryConsume(ctx, first, domain.GeneratorPet, nil)
		require.NoError(t, err)
	}
	_, err := svc.TryConsume(ctx, first, domain.GeneratorPet, nil)
	require.Error(t, err)

	// A different visitor on the same day is unaffected.
	status := svc.Status(ctx, second)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, domain.AllowanceAnonymous, status.Remaining)
}

func TestAnonymousDayRollover(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()
	caller := domain.AnonymousCaller("anon_1756300000000_ccccccc")

	for i := 0; i < domain.AllowanceAnonymous; i++ {
		_, err := svc.TryConsume(ctx, caller, domain.GeneratorBand, nil)
		require.NoError(t, err)
	}
	_, err := svc.TryConsume(ctx, caller, domain.GeneratorBand, nil)
	require.Error(t, err)

	// Midnight UTC passes. Yesterday's usage no longer counts.
	svc.today = func() string { return "2026-08-29" }

	status := svc.Status(ctx, caller)
	assert.Equal(t, 0, status.Used)

	got, err := svc.TryConsume(ctx, caller, domain.GeneratorBand, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Used)
}

// =============================================================================
// Account quota
// =============================================================================

func TestFreeAccountQuota(t *testing.T) {
	svc, ledger, _ := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()
	u := freeUser()
	caller := domain.AccountCaller(u)

	// Ten generations already recorded earlier today.
	ledger.counts[ledgerKey(u.ID, "2026-08-28")] = 10

	status := svc.Status(ctx, caller)
	assert.Equal(t, domain.TierFree, status.Tier)
	assert.Equal(t, 15, status.Allowance)
	assert.Equal(t, 10, status.Used)
	assert.Equal(t, 5, status.Remaining)

	got, err := svc.TryConsume(ctx, caller, domain.GeneratorStartup, nil)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Used)
	assert.Equal(t, 4, got.Remaining)
	assert.Equal(t, int64(11), ledger.counts[ledgerKey(u.ID, "2026-08-28")])
}

func TestPremiumBoundary(t *testing.T) {
	svc, ledger, _ := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()
	u := premiumUser()
	caller := domain.AccountCaller(u)

	ledger.counts[ledgerKey(u.ID, "2026-08-28")] = int64(domain.AllowancePremium - 1)

	got, err := svc.TryConsume(ctx, caller, domain.GeneratorProduct, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AllowancePremium, got.Used)
	assert.Equal(t, 0, got.Remaining)

	// The soft cap holds even for premium.
	_, err = svc.TryConsume(ctx, caller, domain.GeneratorProduct, nil)
	require.Error(t, err)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
}

func TestRemainingNeverNegative(t *testing.T) {
	svc, ledger, _ := testEntitlement(t, LedgerErrorAllow)
	u := freeUser()
	caller := domain.AccountCaller(u)

	// Concurrent overshoot can leave used above the allowance.
	ledger.counts[ledgerKey(u.ID, "2026-08-28")] = 20

	status := svc.Status(context.Background(), caller)
	assert.Equal(t, 20, status.Used)
	assert.Equal(t, 0, status.Remaining)
}

// =============================================================================
// Ledger error policy
// =============================================================================

func TestLedgerErrorFailOpen(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorAllow)
	svc.store = brokenStore{}
	ctx := context.Background()
	caller := domain.AnonymousCaller("anon_1756300000000_ddddddd")

	got, err := svc.TryConsume(ctx, caller, domain.GeneratorFantasy, nil)
	require.NoError(t, err, "broken ledger must not block generation")
	assert.Equal(t, 1, got.Used)

	status := svc.Status(ctx, caller)
	assert.Equal(t, domain.AllowanceAnonymous, status.Remaining)
}

func TestLedgerErrorFailClosed(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorDeny)
	svc.store = brokenStore{}
	ctx := context.Background()
	caller := domain.AnonymousCaller("anon_1756300000000_eeeeeee")

	_, err := svc.TryConsume(ctx, caller, domain.GeneratorFantasy, nil)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	status := svc.Status(ctx, caller)
	assert.Equal(t, 0, status.Remaining)
}

func TestAccountLedgerErrorFailOpen(t *testing.T) {
	svc, ledger, _ := testEntitlement(t, LedgerErrorAllow)
	ledger.countErr = errors.New("connection refused")
	caller := domain.AccountCaller(freeUser())

	got, err := svc.TryConsume(context.Background(), caller, domain.GeneratorPodcast, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Used)
}

// =============================================================================
// Sweep
// =============================================================================

func TestSweepAnonymousDays(t *testing.T) {
	svc, _, store := testEntitlement(t, LedgerErrorAllow)

	for _, day := range []string{"2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"} {
		encoded, err := domain.EncodeDayMap(domain.DayMap{"anon_1_aaaaaaa": 2})
		require.NoError(t, err)
		require.NoError(t, store.Set(AnonDayKey(day), encoded))
	}
	require.NoError(t, store.Set("session:other", "untouched"))

	removed, err := svc.SweepAnonymousDays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, err = store.Get(AnonDayKey("2026-08-28"))
	assert.NoError(t, err, "current day must survive the sweep")
	_, err = store.Get(AnonDayKey("2026-08-27"))
	assert.Equal(t, kvstore.ErrNotFound, err)
	_, err = store.Get("session:other")
	assert.NoError(t, err, "keys outside the usage namespace must survive")
}

// =============================================================================
// Allowance table
// =============================================================================

func TestAllowancePerTier(t *testing.T) {
	svc, _, _ := testEntitlement(t, LedgerErrorAllow)
	ctx := context.Background()

	tests := []struct {
		caller    domain.Caller
		allowance int
	}{
		{domain.AnonymousCaller("anon_1756300000000_fffffff"), 3},
		{domain.AccountCaller(freeUser()), 15},
		{domain.AccountCaller(premiumUser()), 750},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%d", tt.caller.Tier, tt.allowance), func(t *testing.T) {
			status := svc.Status(ctx, tt.caller)
			assert.Equal(t, tt.allowance, status.Allowance)
			assert.Equal(t, tt.allowance, status.Remaining)
		})
	}
}
