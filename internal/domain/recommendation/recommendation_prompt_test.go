package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

func TestBuildRankingPrompt(t *testing.T) {
	t.Run("profile signals reach the ranker", func(t *testing.T) {
		rating := 5
		profile := &types.TasteProfile{
			HasHistory: true,
			TopAreas:   []string{"Orchard", "Tiong Bahru"},
			Vibes:      []string{"cosy", "chill"},
			Occasions:  []string{"date"},
			RecentVisits: []types.RecentVisit{
				{Place: "Wild Rocket", Rating: &rating, Review: "cosy corner table"},
			},
			WishlistHighlights: []types.WishlistHighlight{
				{Name: "Burnt Ends", Area: "Dempsey"},
			},
		}

		prompt := buildRankingPrompt("cosy dinner in Orchard", profile, nil)

		assert.Contains(t, prompt, "Favourite areas: Orchard, Tiong Bahru")
		assert.Contains(t, prompt, "Vibe preferences: cosy, chill")
		assert.Contains(t, prompt, "Usual occasions: date")
		assert.Contains(t, prompt, "Wild Rocket")
		assert.Contains(t, prompt, `"cosy corner table"`)
		assert.Contains(t, prompt, "Burnt Ends (Dempsey)")
		assert.Contains(t, prompt, `User query: "cosy dinner in Orchard"`)
	})

	t.Run("empty signal lists fall back to neutral phrasing", func(t *testing.T) {
		profile := &types.TasteProfile{HasHistory: true}

		prompt := buildRankingPrompt("lunch", profile, nil)

		assert.Contains(t, prompt, "Favourite areas: no strong preference")
		assert.Contains(t, prompt, "Vibe preferences: none detected yet")
		assert.Contains(t, prompt, "Usual occasions: mixed")
	})

	t.Run("new user branch skips the profile section", func(t *testing.T) {
		prompt := buildRankingPrompt("supper", &types.TasteProfile{}, nil)

		assert.Contains(t, prompt, "New user with no visit history yet")
		assert.NotContains(t, prompt, "Favourite areas")
	})

	t.Run("candidates are numbered with place ids", func(t *testing.T) {
		rating := 4.4
		candidates := []types.Candidate{
			{PlaceID: "place-abc", Name: "Tippling Club", Address: "38 Tanjong Pagar Rd",
				Rating: &rating, MapsURL: "https://maps.example/abc"},
		}

		prompt := buildRankingPrompt("cocktail bar", &types.TasteProfile{}, candidates)

		assert.Contains(t, prompt, "1. Tippling Club")
		assert.Contains(t, prompt, "Google rating: 4.4")
		assert.Contains(t, prompt, "place_id: place-abc")
		assert.NotContains(t, prompt, "No external candidates found")
	})
}
