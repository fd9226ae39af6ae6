package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectVibes(t *testing.T) {
	t.Run("finds keywords case-insensitively", func(t *testing.T) {
		vibes := DetectVibes("Very COSY place, super chill")
		assert.Equal(t, []string{"cosy", "chill"}, vibes)
	})

	t.Run("deduplicates within one review", func(t *testing.T) {
		vibes := DetectVibes("cosy cosy cosy")
		assert.Equal(t, []string{"cosy"}, vibes)
	})

	t.Run("matches inside longer words", func(t *testing.T) {
		// Substring semantics are intentional: "atas-looking" still counts.
		vibes := DetectVibes("quite an atas-looking spot")
		assert.Contains(t, vibes, "atas")
	})

	t.Run("empty review", func(t *testing.T) {
		assert.Nil(t, DetectVibes(""))
	})

	t.Run("no keywords", func(t *testing.T) {
		assert.Nil(t, DetectVibes("the service took forever"))
	})
}

func TestIsFoodQuery(t *testing.T) {
	foodQueries := []string{
		"where to eat tonight",
		"any good RAMEN around?",
		"cheap supper spots",
		"something romantic for date night",
		"anywhere in Bugis?",
	}
	for _, q := range foodQueries {
		assert.True(t, IsFoodQuery(q), "expected food query: %q", q)
	}

	nonFoodQueries := []string{
		"how do I reset my password",
		"help me draft an email",
		"2+2",
	}
	for _, q := range nonFoodQueries {
		assert.False(t, IsFoodQuery(q), "expected non-food query: %q", q)
	}
}
