package types

// RecommendationSource labels where a recommendation came from.
type RecommendationSource string

const (
	SourceWishlist  RecommendationSource = "from your wishlist"
	SourceMightLike RecommendationSource = "you might like"
	SourceTrending  RecommendationSource = "trending nearby"
)

// RecentVisit is a single projected visit inside a taste profile.
type RecentVisit struct {
	Place    string  `json:"place"`
	Rating   *int    `json:"rating,omitempty"`
	Review   string  `json:"review"` // truncated to 100 chars
	Occasion *string `json:"occasion,omitempty"`
}

// WishlistHighlight is a projected wishlist entry inside a taste profile.
type WishlistHighlight struct {
	Name string `json:"name"`
	Area string `json:"area"` // "Unknown" when the entry has no area
}

// TasteProfile summarises a chat's history for the ranking step.
// Derived per request, never persisted or cached.
type TasteProfile struct {
	HasHistory         bool                `json:"has_history"`
	TopAreas           []string            `json:"top_areas"`  // <=5, frequency desc
	Vibes              []string            `json:"vibes"`      // <=5
	Occasions          []string            `json:"occasions"`  // <=3
	RecentVisits       []RecentVisit       `json:"recent_visits"`       // <=10, most-recent-first
	WishlistHighlights []WishlistHighlight `json:"wishlist_highlights"` // <=10
	VisitedPlaceIDs    map[string]struct{} `json:"-"`
}

// ParsedQuery holds the structured parameters extracted from a free-text
// query. Absent fields stay nil; the parser never guesses.
type ParsedQuery struct {
	Area     *string `json:"area"`
	Cuisine  *string `json:"cuisine"`
	Vibe     *string `json:"vibe"`
	Occasion *string `json:"occasion"`
	Budget   *string `json:"budget"`
	OpenNow  bool    `json:"open_now"`
}

// Candidate is an external place-search result considered for recommendation.
type Candidate struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Area        *string  `json:"area,omitempty"`
	CuisineType *string  `json:"cuisine_type,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	MapsURL     string   `json:"maps_url"`
}

// Recommendation is one ranked, explained suggestion returned to the caller.
type Recommendation struct {
	Name          string               `json:"name"`
	Address       string               `json:"address"`
	Source        RecommendationSource `json:"source"`
	Reason        string               `json:"reason"`
	MapsURL       string               `json:"maps_url"`
	GooglePlaceID string               `json:"google_place_id"`
	Area          *string              `json:"area,omitempty"`
	Lat           *float64             `json:"lat,omitempty"`
	Lng           *float64             `json:"lng,omitempty"`
}

// RecommendationResult is the pipeline's public output.
// SourceLabels is index-parallel to Recommendations.
type RecommendationResult struct {
	Recommendations []Recommendation       `json:"recommendations"`
	SourceLabels    []RecommendationSource `json:"source_labels"`
	HasHistory      bool                   `json:"has_history"`
}
