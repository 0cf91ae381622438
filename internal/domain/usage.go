// Package domain contains core business types and interfaces.
//
// This file defines the usage ledger types: the append-only record of
// generation events counted against the daily allowance.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DayFormat is the layout of ledger day strings.
const DayFormat = "2006-01-02"

// Today returns the current UTC calendar day string. All ledger reads and
// writes use UTC so a caller's reset time does not drift across devices.
func Today() string {
	return time.Now().UTC().Format(DayFormat)
}

// UsageEvent is one row of the authenticated usage ledger. Events are
// inserted on each allowed generation and never mutated or deleted by the
// entitlement subsystem; counts are derived by filtering on Day at read time.
type UsageEvent struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	GeneratorType string
	Day           string // UTC calendar day, DayFormat
	IsPremium     bool   // premium-ness at time of use
	Properties    json.RawMessage
	CreatedAt     time.Time
}

// QuotaStatus is the derived view served to the quota widget. It is
// recomputed fresh on every call; nothing here is cached.
type QuotaStatus struct {
	Tier      Tier `json:"tier"`
	Allowance int  `json:"allowance"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
}

// DayMap is the anonymous ledger's per-day counter map, keyed by pseudo-ID.
// It round-trips through the entitlement store as JSON, mirroring the shape
// a browser would keep in local storage.
type DayMap map[string]int

// EncodeDayMap serializes a day map for the entitlement store.
func EncodeDayMap(m DayMap) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDayMap parses a stored day map. An empty value decodes to an empty
// map, missing entries default to zero.
func DecodeDayMap(s string) (DayMap, error) {
	if s == "" {
		return DayMap{}, nil
	}
	var m DayMap
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = DayMap{}
	}
	return m, nil
}
