// Package domain contains core business types and interfaces.
//
// This file defines the caller identity used by the entitlement gate: every
// generation request is attributed to exactly one of three classes
// (anonymous visitor, free account, premium account). The class is re-derived
// on every request and never cached across requests.
package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier classifies a caller for quota lookup.
type Tier string

const (
	TierAnonymous Tier = "anonymous"
	TierFree      Tier = "free"
	TierPremium   Tier = "premium"
)

// Valid checks if the tier is one of the three known classes.
func (t Tier) Valid() bool {
	switch t {
	case TierAnonymous, TierFree, TierPremium:
		return true
	default:
		return false
	}
}

// Caller is the resolved identity of a request. Exactly one of PseudoID or
// UserID is meaningful: anonymous callers carry a PseudoID minted client-side
// (via cookie), authenticated callers carry their account UUID.
type Caller struct {
	Tier     Tier
	PseudoID string    // set when Tier == TierAnonymous
	UserID   uuid.UUID // set when Tier == TierFree or TierPremium
}

// AnonymousCaller builds a caller for an unauthenticated visitor.
func AnonymousCaller(pseudoID string) Caller {
	return Caller{Tier: TierAnonymous, PseudoID: pseudoID}
}

// AccountCaller builds a caller for a signed-in user, classifying by
// subscription state.
func AccountCaller(u *User) Caller {
	tier := TierFree
	if u.IsPremium() {
		tier = TierPremium
	}
	return Caller{Tier: tier, UserID: u.ID}
}

// IsAnonymous reports whether this caller has no account.
func (c Caller) IsAnonymous() bool {
	return c.Tier == TierAnonymous
}

// Key returns the ledger key for this caller: the pseudo-ID for visitors,
// the user UUID string for accounts.
func (c Caller) Key() string {
	if c.IsAnonymous() {
		return c.PseudoID
	}
	return c.UserID.String()
}

// =============================================================================
// Pseudo-identity minting
// =============================================================================

const (
	// PseudoIDPrefix marks visitor identifiers so they are recognizable in
	// logs and can never collide with account UUIDs.
	PseudoIDPrefix = "anon_"

	pseudoIDSuffixLen      = 7
	pseudoIDSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// MintPseudoID creates a fresh visitor identifier:
// "anon_" + unix millis + "_" + 7 random alphanumerics.
//
// This is a convenience identity, not a security boundary. A visitor who
// clears their cookies gets a fresh quota. Accepted limitation.
func MintPseudoID() string {
	var b strings.Builder
	b.WriteString(PseudoIDPrefix)
	fmt.Fprintf(&b, "%d_", time.Now().UnixMilli())
	for i := 0; i < pseudoIDSuffixLen; i++ {
		b.WriteByte(pseudoIDSuffixAlphabet[randIndex(len(pseudoIDSuffixAlphabet))])
	}
	return b.String()
}

// IsPseudoID reports whether s has the shape of a minted visitor identifier.
func IsPseudoID(s string) bool {
	return strings.HasPrefix(s, PseudoIDPrefix) && len(s) > len(PseudoIDPrefix)
}

// randIndex returns a cryptographically random int in [0, max).
func randIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		return 0
	}
	return int(n.Int64())
}
