package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugPattern(t *testing.T) {
	valid := []string{"home-staging", "photo", "drone-photos-4k", "a1"}
	for _, s := range valid {
		assert.True(t, slugPattern.MatchString(s), "expected %q to be a valid slug", s)
	}

	invalid := []string{"", "Home-Staging", "-leading", "trailing-", "two--dashes", "with space", "dot.com"}
	for _, s := range invalid {
		assert.False(t, slugPattern.MatchString(s), "expected %q to be rejected", s)
	}
}
