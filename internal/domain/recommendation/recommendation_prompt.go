package recommendation

import (
	"fmt"
	"strings"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

const parseSystemPrompt = "You are a query parser for a Singapore F&B recommendation app. " +
	"Extract search parameters from the user query. Return JSON."

func buildParsePrompt(query string) string {
	return fmt.Sprintf(`Parse this query: %q

Return JSON with these fields (use null if not mentioned):
{"area": null, "cuisine": null, "vibe": null, "occasion": null, "budget": null, "open_now": false}`, query)
}

const rankingSystemPrompt = "You are eatwatah, a casual and friendly Singaporean F&B recommendation assistant. " +
	"Respond in warm, light Singlish tone — natural, never forced. " +
	"Reference the group's actual taste history where possible. " +
	"Never give generic responses. Return valid JSON."

func buildRankingPrompt(query string, profile *types.TasteProfile, candidates []types.Candidate) string {
	var b strings.Builder

	if profile.HasHistory {
		b.WriteString("This group's taste profile:\n")
		fmt.Fprintf(&b, "- Favourite areas: %s\n", joinOr(profile.TopAreas, "no strong preference"))
		fmt.Fprintf(&b, "- Vibe preferences: %s\n", joinOr(profile.Vibes, "none detected yet"))
		fmt.Fprintf(&b, "- Usual occasions: %s\n", joinOr(profile.Occasions, "mixed"))

		b.WriteString("- Recent visits:")
		if len(profile.RecentVisits) == 0 {
			b.WriteString(" (none yet)")
		}
		for _, v := range profile.RecentVisits {
			stars := "unrated"
			if v.Rating != nil && *v.Rating > 0 {
				stars = strings.Repeat("⭐", *v.Rating)
			}
			fmt.Fprintf(&b, "\n  - %s (%s)", v.Place, stars)
			if v.Review != "" {
				fmt.Fprintf(&b, " — %q", v.Review)
			}
		}

		b.WriteString("\n- Wishlist:")
		if len(profile.WishlistHighlights) == 0 {
			b.WriteString(" (empty)")
		}
		for _, w := range profile.WishlistHighlights {
			fmt.Fprintf(&b, "\n  - %s (%s)", w.Name, w.Area)
		}
	} else {
		b.WriteString("New user with no visit history yet. " +
			"Recommend popular, well-loved Singapore F&B spots suited to the query.")
	}

	b.WriteString("\n\nExternal candidates from Google Places:")
	if len(candidates) == 0 {
		b.WriteString("\n(No external candidates found — use your knowledge of Singapore F&B.)")
	}
	for i, c := range candidates {
		ratingStr := ""
		if c.Rating != nil {
			ratingStr = fmt.Sprintf(", Google rating: %.1f", *c.Rating)
		}
		fmt.Fprintf(&b, "\n%d. %s — %s%s\n   Maps: %s\n   place_id: %s",
			i+1, c.Name, c.Address, ratingStr, c.MapsURL, c.PlaceID)
	}

	fmt.Fprintf(&b, "\n\nUser query: %q\n\n", query)
	b.WriteString(`Return 3-5 recommendations ranked by fit as JSON:
{"recommendations": [{"name": "...", "address": "...", "source": "from your wishlist|you might like|trending nearby", "reason": "1-2 sentences referencing group history", "maps_url": "...", "google_place_id": "..."}]}`)

	return b.String()
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
