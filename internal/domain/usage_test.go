package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UTCFormat(t *testing.T) {
	day := Today()

	parsed, err := time.Parse(DayFormat, day)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format(DayFormat), day)
	assert.Equal(t, parsed.Format(DayFormat), day)
}

func TestDayMapRoundTrip(t *testing.T) {
	m := DayMap{"anon_1_aaaaaaa": 3, "anon_2_bbbbbbb": 1}

	encoded, err := EncodeDayMap(m)
	require.NoError(t, err)

	decoded, err := DecodeDayMap(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDecodeDayMap_Empty(t *testing.T) {
	m, err := DecodeDayMap("")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 0, m["anon_1_aaaaaaa"], "missing entries default to zero")
}

func TestDecodeDayMap_NullJSON(t *testing.T) {
	m, err := DecodeDayMap("null")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestDecodeDayMap_Invalid(t *testing.T) {
	_, err := DecodeDayMap("{not json")
	assert.Error(t, err)
}
