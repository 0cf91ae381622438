package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintPseudoID(t *testing.T) {
	id := MintPseudoID()

	require.True(t, strings.HasPrefix(id, "anon_"))
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3, "expected anon_<millis>_<suffix>")
	assert.Len(t, parts[2], 7)
	assert.True(t, IsPseudoID(id))
}

func TestMintPseudoID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := MintPseudoID()
		assert.False(t, seen[id], "duplicate pseudo-ID %s", id)
		seen[id] = true
	}
}

func TestIsPseudoID(t *testing.T) {
	assert.True(t, IsPseudoID("anon_1724800000000_ab3k9xz"))
	assert.False(t, IsPseudoID("anon_"))
	assert.False(t, IsPseudoID(uuid.NewString()))
	assert.False(t, IsPseudoID(""))
}

func TestAccountCaller_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status SubscriptionStatus
		want   Tier
	}{
		{"active is premium", SubscriptionStatusActive, TierPremium},
		{"trialing is premium", SubscriptionStatusTrialing, TierPremium},
		{"canceled is free", SubscriptionStatusCanceled, TierFree},
		{"past_due is free", SubscriptionStatusPastDue, TierFree},
		{"inactive is free", SubscriptionStatusInactive, TierFree},
		{"unpaid is free", SubscriptionStatusUnpaid, TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{ID: uuid.New(), SubscriptionStatus: tt.status}
			c := AccountCaller(u)
			assert.Equal(t, tt.want, c.Tier)
			assert.Equal(t, u.ID, c.UserID)
			assert.False(t, c.IsAnonymous())
			assert.Equal(t, u.ID.String(), c.Key())
		})
	}
}

func TestAnonymousCaller(t *testing.T) {
	c := AnonymousCaller("anon_123_abcdefg")
	assert.True(t, c.IsAnonymous())
	assert.Equal(t, "anon_123_abcdefg", c.Key())
	assert.Equal(t, TierAnonymous, c.Tier)
}
