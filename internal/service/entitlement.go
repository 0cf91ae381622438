// Package service contains the business logic layer.
//
// This file implements the entitlement core: the policy deciding whether a
// caller may run one more name generation today, and how remaining quota is
// reported. It composes the identity resolver, the fixed quota table, and
// the two usage ledgers (Postgres for accounts, the key-value entitlement
// store for anonymous visitors).
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sqlc-dev/pqtype"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/kvstore"
	"github.com/hivelabs/namehive/internal/repository"
)

// =============================================================================
// Ledger Error Policy
// =============================================================================

// LedgerErrorPolicy names the behavior when a usage ledger read or write
// fails. The product default is fail-open: a broken counter must not block
// generation for everyone. Tests and stricter deployments flip it to deny.
type LedgerErrorPolicy string

const (
	LedgerErrorAllow LedgerErrorPolicy = "allow"
	LedgerErrorDeny  LedgerErrorPolicy = "deny"
)

// ParseLedgerErrorPolicy converts the config string, defaulting to allow.
func ParseLedgerErrorPolicy(s string) LedgerErrorPolicy {
	if s == string(LedgerErrorDeny) {
		return LedgerErrorDeny
	}
	return LedgerErrorAllow
}

// anonDayKeyPrefix namespaces the anonymous day-maps inside the entitlement
// store: "usage:<day>" -> JSON {pseudoID: count}.
const anonDayKeyPrefix = "usage:"

// AnonDayKey returns the entitlement-store key for a calendar day.
func AnonDayKey(day string) string {
	return anonDayKeyPrefix + day
}

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementService is the gate every generator endpoint consults.
//
// The check-then-record in TryConsume has no atomicity guarantee: two
// concurrent requests from the same caller can both observe used < allowance
// before either records, overshooting the daily allowance by a small margin.
// That race is an accepted property of a soft quota, not a bug to fix here.
type EntitlementService interface {
	// ResolveCaller classifies the request. user is the freshly loaded
	// session user, nil for visitors; pseudoID is the visitor cookie value.
	// Classification is re-derived on every call, never cached.
	ResolveCaller(user *domain.User, pseudoID string) domain.Caller

	// TryConsume answers "is one more generation allowed right now?" and, if
	// yes, records the event and returns the post-consume quota status.
	// When the caller is out of quota it returns a domain error with code
	// EPAYMENT and records nothing; that result is terminal for this call.
	TryConsume(ctx context.Context, caller domain.Caller, generatorType string, properties json.RawMessage) (*domain.QuotaStatus, error)

	// Status reports the caller's current allowance and usage for display.
	// Recomputed fresh on each call; Remaining is never negative.
	Status(ctx context.Context, caller domain.Caller) domain.QuotaStatus

	// SweepAnonymousDays removes anonymous day-maps for days before today.
	// Called by the maintenance worker; old days no longer count anyway,
	// this just reclaims space.
	SweepAnonymousDays(ctx context.Context) (int, error)
}

// =============================================================================
// Implementation
// =============================================================================

// accountLedger is the slice of repository.Queries the entitlement core
// touches. *repository.Queries satisfies it.
type accountLedger interface {
	CountUsageEvents(ctx context.Context, arg repository.CountUsageEventsParams) (int64, error)
	CreateUsageEvent(ctx context.Context, arg repository.CreateUsageEventParams) (repository.UsageEvent, error)
}

type entitlementService struct {
	queries accountLedger
	store   kvstore.Store
	policy  LedgerErrorPolicy
	logger  *slog.Logger

	// now is the day source, overridable in tests for rollover scenarios.
	today func() string
}

// NewEntitlementService creates an EntitlementService.
//
// Dependencies:
// - queries: the authenticated ledger (usage_events table)
// - store: the anonymous ledger's key-value adapter
// - policy: what to do when a ledger operation fails
func NewEntitlementService(queries *repository.Queries, store kvstore.Store, policy LedgerErrorPolicy, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		queries: queries,
		store:   store,
		policy:  policy,
		logger:  logger,
		today:   domain.Today,
	}
}

// ResolveCaller classifies the request into exactly one caller class.
// A nil user with an empty pseudoID should not happen (the visitor
// middleware always mints one), but resolves to a fresh anonymous identity
// rather than failing.
func (s *entitlementService) ResolveCaller(user *domain.User, pseudoID string) domain.Caller {
	if user != nil {
		return domain.AccountCaller(user)
	}
	if pseudoID == "" {
		pseudoID = domain.MintPseudoID()
	}
	return domain.AnonymousCaller(pseudoID)
}

func (s *entitlementService) TryConsume(ctx context.Context, caller domain.Caller, generatorType string, properties json.RawMessage) (*domain.QuotaStatus, error) {
	const op = "entitlement.try_consume"

	allowance := domain.AllowanceFor(caller.Tier)

	used, err := s.countToday(ctx, caller)
	if err != nil {
		if s.policy == LedgerErrorDeny {
			return nil, domain.Internal(err, op, "Usage ledger unavailable")
		}
		// Fail-open: proceed as if under quota.
		s.logger.Warn("ledger read failed, allowing per policy",
			"error", err, "caller", caller.Key(), "tier", caller.Tier)
		used = 0
	}

	if used >= allowance {
		s.logger.Info("generation denied, quota exhausted",
			"tier", caller.Tier, "used", used, "allowance", allowance)
		return nil, domain.QuotaExceeded(op, caller.Tier, used, allowance)
	}

	if err := s.record(ctx, caller, generatorType, properties); err != nil {
		if s.policy == LedgerErrorDeny {
			return nil, domain.Internal(err, op, "Usage ledger unavailable")
		}
		s.logger.Warn("ledger write failed, allowing per policy",
			"error", err, "caller", caller.Key(), "tier", caller.Tier)
	}

	remaining := allowance - used - 1
	if remaining < 0 {
		remaining = 0
	}
	return &domain.QuotaStatus{
		Tier:      caller.Tier,
		Allowance: allowance,
		Used:      used + 1,
		Remaining: remaining,
	}, nil
}

func (s *entitlementService) Status(ctx context.Context, caller domain.Caller) domain.QuotaStatus {
	allowance := domain.AllowanceFor(caller.Tier)

	used, err := s.countToday(ctx, caller)
	if err != nil {
		if s.policy == LedgerErrorDeny {
			// Strict mode shows nothing left rather than pretending.
			return domain.QuotaStatus{Tier: caller.Tier, Allowance: allowance, Used: allowance}
		}
		s.logger.Warn("ledger read failed, reporting full allowance per policy",
			"error", err, "caller", caller.Key())
		used = 0
	}

	remaining := allowance - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaStatus{
		Tier:      caller.Tier,
		Allowance: allowance,
		Used:      used,
		Remaining: remaining,
	}
}

func (s *entitlementService) SweepAnonymousDays(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(anonDayKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list anonymous day keys: %w", err)
	}

	todayKey := AnonDayKey(s.today())
	removed := 0
	for _, key := range keys {
		if key >= todayKey {
			continue
		}
		if err := s.store.Remove(key); err != nil {
			return removed, fmt.Errorf("remove %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

// =============================================================================
// Ledger access
// =============================================================================

// countToday reads the caller's usage for the current UTC day, routing to
// the ledger matching the caller class.
func (s *entitlementService) countToday(ctx context.Context, caller domain.Caller) (int, error) {
	day := s.today()

	if caller.IsAnonymous() {
		raw, err := s.store.Get(AnonDayKey(day))
		if err != nil {
			if err == kvstore.ErrNotFound {
				return 0, nil
			}
			return 0, fmt.Errorf("read anonymous day map: %w", err)
		}
		m, err := domain.DecodeDayMap(raw)
		if err != nil {
			return 0, fmt.Errorf("decode anonymous day map: %w", err)
		}
		return m[caller.PseudoID], nil
	}

	count, err := s.queries.CountUsageEvents(ctx, repository.CountUsageEventsParams{
		UserID: caller.UserID,
		Day:    day,
	})
	if err != nil {
		return 0, fmt.Errorf("count usage events: %w", err)
	}
	return int(count), nil
}

// record appends one generation event. Anonymous events are counted, not
// individually recorded: the whole day-map is read, incremented, and written
// back, exactly the shape a browser keeps in local storage.
func (s *entitlementService) record(ctx context.Context, caller domain.Caller, generatorType string, properties json.RawMessage) error {
	day := s.today()

	if caller.IsAnonymous() {
		key := AnonDayKey(day)
		raw, err := s.store.Get(key)
		if err != nil && err != kvstore.ErrNotFound {
			return fmt.Errorf("read anonymous day map: %w", err)
		}
		m, err := domain.DecodeDayMap(raw)
		if err != nil {
			return fmt.Errorf("decode anonymous day map: %w", err)
		}
		m[caller.PseudoID]++
		encoded, err := domain.EncodeDayMap(m)
		if err != nil {
			return fmt.Errorf("encode anonymous day map: %w", err)
		}
		if err := s.store.Set(key, encoded); err != nil {
			return fmt.Errorf("write anonymous day map: %w", err)
		}
		return nil
	}

	props := pqtype.NullRawMessage{}
	if len(properties) > 0 {
		props = pqtype.NullRawMessage{RawMessage: properties, Valid: true}
	}
	_, err := s.queries.CreateUsageEvent(ctx, repository.CreateUsageEventParams{
		UserID:        caller.UserID,
		GeneratorType: generatorType,
		Day:           day,
		IsPremium:     caller.Tier == domain.TierPremium,
		Properties:    props,
	})
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}
