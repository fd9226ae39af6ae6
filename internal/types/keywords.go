package types

import (
	"regexp"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

// VibeKeywords is the fixed vocabulary scanned for in review text when
// building a taste profile. Order matters: ties in frequency are broken by
// first-encountered order, which for equal counts follows review scan order.
var VibeKeywords = []string{
	"cosy", "chill", "romantic", "aesthetic", "loud", "lively",
	"value", "cheap", "instagrammable", "quiet", "family", "date",
	"work", "casual", "fancy", "atas", "hawker", "vibey", "noisy",
}

var (
	vibeBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})
	vibeMatcher = vibeBuilder.Build(VibeKeywords)
)

// DetectVibes returns the distinct vibe keywords present in a review,
// each reported once regardless of repeats within the text. Keywords come
// back in text-scan order, not VibeKeywords order.
func DetectVibes(review string) []string {
	if review == "" {
		return nil
	}
	matches := vibeMatcher.FindAll(strings.ToLower(review))
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(matches))
	var vibes []string
	for _, m := range matches {
		idx := m.Pattern()
		if seen[idx] {
			continue
		}
		seen[idx] = true
		vibes = append(vibes, VibeKeywords[idx])
	}
	return vibes
}

// Food-query gate keywords, scanned before the pipeline runs so off-topic
// questions get a friendly redirect instead of an LLM call.
var foodKeywords = []string{
	"eat", "food", "restaurant", "cafe", "bar", "hawker", "supper",
	"lunch", "dinner", "breakfast", "ramen", "sushi", "pizza", "burger",
	"chicken", "coffee", "brunch", "dessert", "boba", "noodle", "rice",
	"steak", "seafood", "dim sum", "bbq", "buffet", "recommend", "place",
	"where", "near", "cheap", "budget", "atas", "good", "best", "try",
	"drink", "cuisine", "western", "chinese", "japanese", "korean", "indian",
	"thai", "malay", "halal", "vegetarian", "vegan",
	"cosy", "cozy", "chill", "romantic", "aesthetic", "lively", "quiet",
	"casual", "fancy", "vibey", "instagrammable", "noisy",
	"spot", "spots", "something", "anywhere", "area", "vibes",
}

var (
	foodBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})
	foodMatcher = foodBuilder.Build(foodKeywords)

	// "in Bugis", "in the East", "in town": a place-seeking signal
	locationPattern = regexp.MustCompile(`(?i)\bin\s+\w`)
)

// IsFoodQuery reports whether free text looks like a food/restaurant request.
func IsFoodQuery(text string) bool {
	iter := foodMatcher.Iter(strings.ToLower(text))
	if iter.Next() != nil {
		return true
	}
	return locationPattern.MatchString(text)
}
