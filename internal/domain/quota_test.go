package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowanceFor(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		want int
	}{
		{"anonymous", TierAnonymous, 3},
		{"free", TierFree, 15},
		{"premium", TierPremium, 750},
		{"unknown tier defaults to anonymous", Tier("enterprise"), 3},
		{"empty tier defaults to anonymous", Tier(""), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowanceFor(tt.tier))
		})
	}
}

func TestTierValid(t *testing.T) {
	assert.True(t, TierAnonymous.Valid())
	assert.True(t, TierFree.Valid())
	assert.True(t, TierPremium.Valid())
	assert.False(t, Tier("gold").Valid())
	assert.False(t, Tier("").Valid())
}
