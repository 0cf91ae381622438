package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	s := NewMemory()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("k", "v1"))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Set("k", "v2"))
	v, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestMemory_Remove(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Remove("k"))

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing a missing key is not an error
	assert.NoError(t, s.Remove("k"))
}

func TestMemory_Keys(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("usage:2025-01-01", "{}"))
	require.NoError(t, s.Set("usage:2025-01-02", "{}"))
	require.NoError(t, s.Set("other:key", "{}"))

	keys, err := s.Keys("usage:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"usage:2025-01-01", "usage:2025-01-02"}, keys)
}
