package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

const searchTextURL = "https://places.googleapis.com/v1/places:searchText"

// The new Places API returns nothing without an explicit field mask.
const fieldMask = "places.id," +
	"places.displayName," +
	"places.formattedAddress," +
	"places.addressComponents," +
	"places.rating," +
	"places.types," +
	"places.googleMapsUri," +
	"places.location"

// Singapore geographic centre plus a radius covering the whole island.
const (
	sgLat     = 1.3521
	sgLng     = 103.8198
	sgRadiusM = 40000
)

// Client is the place-search collaborator consumed by the pipeline.
type Client interface {
	SearchText(ctx context.Context, query string, maxResults int) ([]types.Candidate, error)
}

// GoogleClient talks to the Google Places API v1 searchText endpoint.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	cache      *cache.Cache
}

// NewGoogleClient builds the Places client. The API key is an explicit
// dependency; calls fail with a configuration error when it is empty.
func NewGoogleClient(apiKey string, logger *slog.Logger) *GoogleClient {
	return &GoogleClient{
		apiKey:     apiKey,
		baseURL:    searchTextURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		cache:      cache.New(5*time.Minute, 10*time.Minute),
	}
}

type searchRequest struct {
	TextQuery      string       `json:"textQuery"`
	MaxResultCount int          `json:"maxResultCount"`
	LocationBias   locationBias `json:"locationBias"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchResponse struct {
	Places []place `json:"places"`
}

type place struct {
	ID                string             `json:"id"`
	DisplayName       displayName        `json:"displayName"`
	FormattedAddress  string             `json:"formattedAddress"`
	AddressComponents []addressComponent `json:"addressComponents"`
	Rating            *float64           `json:"rating"`
	Types             []string           `json:"types"`
	GoogleMapsURI     string             `json:"googleMapsUri"`
	Location          *latLng            `json:"location"`
}

type displayName struct {
	Text string `json:"text"`
}

// SearchText searches for up to maxResults places, biased toward Singapore.
// Returns an empty slice on zero matches and a types.ErrPlacesUnavailable
// wrapped error on network or API failure.
func (c *GoogleClient) SearchText(ctx context.Context, query string, maxResults int) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "SearchText", trace.WithAttributes(
		attribute.String("places.query", query),
		attribute.Int("places.max_results", maxResults),
	))
	defer span.End()

	if c.apiKey == "" {
		err := fmt.Errorf("%w: GOOGLE_PLACES_API_KEY not set", types.ErrPlacesUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing api key")
		return nil, err
	}

	// Bias the text itself toward Singapore results as well.
	textQuery := query
	if !strings.Contains(strings.ToLower(query), "singapore") {
		textQuery = query + " Singapore"
	}

	if maxResults < 1 {
		maxResults = 1
	} else if maxResults > 20 { // API caps at 20
		maxResults = 20
	}

	cacheKey := fmt.Sprintf("search:%s:%d", strings.ToLower(textQuery), maxResults)
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("places.cache_hit", true))
		return cached.([]types.Candidate), nil
	}

	payload := searchRequest{
		TextQuery:      textQuery,
		MaxResultCount: maxResults,
		LocationBias: locationBias{
			Circle: circle{
				Center: latLng{Latitude: sgLat, Longitude: sgLng},
				Radius: sgRadiusM,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%w: %v", types.ErrPlacesUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("%w: HTTP %d: %s", types.ErrPlacesUnavailable, resp.StatusCode, string(raw))
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-2xx response")
		return nil, err
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("%w: failed to decode response: %v", types.ErrPlacesUnavailable, err)
	}

	candidates := make([]types.Candidate, 0, len(data.Places))
	for _, p := range data.Places {
		area := areaFromComponents(p.AddressComponents)
		if area == nil {
			area = ExtractArea(p.FormattedAddress)
		}
		mapsURL := p.GoogleMapsURI
		if mapsURL == "" {
			mapsURL = fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", p.ID)
		}
		cand := types.Candidate{
			PlaceID:     p.ID,
			Name:        p.DisplayName.Text,
			Address:     p.FormattedAddress,
			Area:        area,
			CuisineType: cuisineFromTypes(p.Types),
			Rating:      p.Rating,
			MapsURL:     mapsURL,
		}
		if p.Location != nil {
			lat, lng := p.Location.Latitude, p.Location.Longitude
			cand.Lat = &lat
			cand.Lng = &lng
		}
		candidates = append(candidates, cand)
	}

	c.cache.Set(cacheKey, candidates, cache.DefaultExpiration)

	c.logger.DebugContext(ctx, "places search completed",
		slog.String("query", textQuery),
		slog.Int("results", len(candidates)))
	span.SetAttributes(attribute.Int("places.results", len(candidates)))
	span.SetStatus(codes.Ok, "search completed")
	return candidates, nil
}

// cuisineFromTypes turns the first "<cuisine>_restaurant" place type into a
// display label, e.g. "japanese_restaurant" -> "Japanese".
func cuisineFromTypes(placeTypes []string) *string {
	for _, t := range placeTypes {
		cuisine, ok := strings.CutSuffix(t, "_restaurant")
		if !ok || cuisine == "" {
			continue
		}
		parts := strings.Split(cuisine, "_")
		for i, p := range parts {
			if p != "" {
				parts[i] = strings.ToUpper(p[:1]) + p[1:]
			}
		}
		label := strings.Join(parts, " ")
		return &label
	}
	return nil
}
