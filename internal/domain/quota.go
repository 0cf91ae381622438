// Package domain contains core business types and interfaces.
//
// This file defines the quota policy: the fixed daily generation allowance
// per caller tier. This is a constant table, not derived data.
package domain

// Daily generation allowances per tier. The premium value is a documented
// soft cap: the gate enforces it like any other allowance, but product treats
// it as advisory and it must not be relied on as a hard ceiling.
const (
	AllowanceAnonymous = 3
	AllowanceFree      = 15
	AllowancePremium   = 750
)

// tierAllowances maps each caller tier to its daily allowance.
var tierAllowances = map[Tier]int{
	TierAnonymous: AllowanceAnonymous,
	TierFree:      AllowanceFree,
	TierPremium:   AllowancePremium,
}

// AllowanceFor returns the daily allowance for a tier, defaulting to the
// anonymous allowance for unknown tiers (most restrictive).
func AllowanceFor(tier Tier) int {
	if n, ok := tierAllowances[tier]; ok {
		return n
	}
	return AllowanceAnonymous
}
