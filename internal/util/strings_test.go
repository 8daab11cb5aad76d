package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShaPrefixMatch(t *testing.T) {
	t.Run("success - long sha matches short prefix", func(t *testing.T) {
		assert.True(t, ShaPrefixMatch("abcdef1234567890", "abcdef12"))
	})
	t.Run("success - short sha matches long sha", func(t *testing.T) {
		assert.True(t, ShaPrefixMatch("abcdef12", "abcdef1234567890"))
	})
	t.Run("failure - different shas do not match", func(t *testing.T) {
		assert.False(t, ShaPrefixMatch("1111111", "2222222"))
	})
	t.Run("failure - empty sha never matches", func(t *testing.T) {
		assert.False(t, ShaPrefixMatch("", "abcdef12"))
		assert.False(t, ShaPrefixMatch("abcdef12", ""))
	})
}
