package controllers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMarkets(t *testing.T) {
	out := normalizeMarkets([]string{" Austin ", "", "Denver", "  "})

	assert.Len(t, out, 2)
	assert.Equal(t, "Austin", out[0])
	assert.Equal(t, "Denver", out[1])
}

func TestParseUUIDList(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	out, err := parseUUIDList([]string{a.String(), " " + b.String() + " "})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, a, out[0])
	assert.Equal(t, b, out[1])

	_, err = parseUUIDList([]string{a.String(), "not-a-uuid"})
	assert.Error(t, err)
}
