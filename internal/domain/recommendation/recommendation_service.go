package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/eatwatah/eatwatah-api/internal/domain/visits"
	"github.com/eatwatah/eatwatah-api/internal/domain/wishlist"
	"github.com/eatwatah/eatwatah-api/internal/llm"
	"github.com/eatwatah/eatwatah-api/internal/places"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/observability"
)

const (
	parseMaxTokens   = 150
	rankingMaxTokens = 1500
	candidateLimit   = 10
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the three-layer recommendation pipeline: taste profile from
// the chat's history, candidate discovery via Places, model re-ranking.
type Service interface {
	// GetRecommendations answers a free-text food query for a chat.
	// Enrichment failures (query parsing, candidate search) degrade to
	// partial inputs; profile and ranking failures propagate.
	GetRecommendations(ctx context.Context, query, chatID, userID string) (*types.RecommendationResult, error)
}

//revive:disable-next-line:exported
type ServiceImpl struct {
	logger   *slog.Logger
	llm      llm.ChatClient
	places   places.Client
	visits   visits.Repository
	wishlist wishlist.Repository
}

func NewServiceImpl(
	chatClient llm.ChatClient,
	placesClient places.Client,
	visitsRepo visits.Repository,
	wishlistRepo wishlist.Repository,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		llm:      chatClient,
		places:   placesClient,
		visits:   visitsRepo,
		wishlist: wishlistRepo,
	}
}

func (s *ServiceImpl) GetRecommendations(ctx context.Context, query, chatID, userID string) (*types.RecommendationResult, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "GetRecommendations", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetRecommendations"), slog.String("chat_id", chatID))
	start := time.Now()

	// Configuration is checked before any network or DB work.
	if s.llm == nil {
		span.SetStatus(codes.Error, "missing model client")
		return nil, types.ErrMissingAPIKey
	}

	var (
		profile *types.TasteProfile
		parsed  types.ParsedQuery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.buildTasteProfile(gctx, chatID)
		if err != nil {
			observability.CountStageFailure("profile")
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		// Parsing is best-effort: on failure the search falls back to
		// the raw query.
		parsed = s.parseQuery(gctx, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile build failed")
		observability.ObserveRecommendation("error", time.Since(start))
		return nil, err
	}

	candidates := s.searchCandidates(ctx, parsed, query)

	recs, err := s.rank(ctx, query, profile, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranking failed")
		observability.CountStageFailure("rank")
		observability.ObserveRecommendation("error", time.Since(start))
		return nil, err
	}

	labels := make([]types.RecommendationSource, len(recs))
	for i, r := range recs {
		labels[i] = r.Source
	}

	l.InfoContext(ctx, "recommendations generated",
		slog.Int("count", len(recs)),
		slog.Int("candidates", len(candidates)),
		slog.Bool("has_history", profile.HasHistory),
		slog.Duration("duration", time.Since(start)))
	span.SetAttributes(attribute.Int("recommendations.count", len(recs)))
	span.SetStatus(codes.Ok, "recommendations generated")
	observability.ObserveRecommendation("ok", time.Since(start))

	return &types.RecommendationResult{
		Recommendations: recs,
		SourceLabels:    labels,
		HasHistory:      profile.HasHistory,
	}, nil
}

// parseQuery extracts structured search parameters from the query. Any
// failure is downgraded to an empty ParsedQuery.
func (s *ServiceImpl) parseQuery(ctx context.Context, query string) types.ParsedQuery {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "ParseQuery")
	defer span.End()

	start := time.Now()
	raw, err := s.llm.GenerateJSON(ctx, parseSystemPrompt, buildParsePrompt(query), parseMaxTokens)
	observability.ObserveLLMCall("parse", time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "query parse failed, using empty params", slog.Any("error", err))
		span.RecordError(err)
		observability.CountStageFailure("parse")
		return types.ParsedQuery{}
	}

	var parsed types.ParsedQuery
	if err := json.Unmarshal([]byte(CleanJSONResponse(raw)), &parsed); err != nil {
		s.logger.WarnContext(ctx, "query parse returned bad JSON, using empty params", slog.Any("error", err))
		span.RecordError(err)
		observability.CountStageFailure("parse")
		return types.ParsedQuery{}
	}
	return parsed
}

// searchCandidates finds up to candidateLimit external places. A structured
// area or cuisine narrows the search text; otherwise the raw query is used
// as-is. Failures degrade to an empty candidate list.
func (s *ServiceImpl) searchCandidates(ctx context.Context, parsed types.ParsedQuery, rawQuery string) []types.Candidate {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "SearchCandidates")
	defer span.End()

	searchText := rawQuery
	area := derefOr(parsed.Area, "")
	cuisine := derefOr(parsed.Cuisine, "")
	if area != "" || cuisine != "" {
		var parts []string
		for _, p := range []string{cuisine, area, "Singapore"} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		searchText = strings.Join(parts, " ")
	}

	candidates, err := s.places.SearchText(ctx, searchText, candidateLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "candidate search failed, ranking without candidates",
			slog.String("search_text", searchText), slog.Any("error", err))
		span.RecordError(err)
		observability.CountStageFailure("places")
		return nil
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	return candidates
}

type rankedResponse struct {
	Recommendations []rankedRec `json:"recommendations"`
}

type rankedRec struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Source        string `json:"source"`
	Reason        string `json:"reason"`
	MapsURL       string `json:"maps_url"`
	GooglePlaceID string `json:"google_place_id"`
}

// rank asks the model to synthesise profile and candidates into ranked
// recommendations, then backfills area and coordinates from the candidate
// set. Ranking errors propagate: without it there is no result.
func (s *ServiceImpl) rank(ctx context.Context, query string, profile *types.TasteProfile, candidates []types.Candidate) ([]types.Recommendation, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Rank", trace.WithAttributes(
		attribute.Int("candidates.count", len(candidates)),
		attribute.Bool("profile.has_history", profile.HasHistory),
	))
	defer span.End()

	start := time.Now()
	raw, err := s.llm.GenerateJSON(ctx, rankingSystemPrompt, buildRankingPrompt(query, profile, candidates), rankingMaxTokens)
	observability.ObserveLLMCall("rank", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return nil, fmt.Errorf("failed to rank recommendations: %w", err)
	}

	var ranked rankedResponse
	if err := json.Unmarshal([]byte(CleanJSONResponse(raw)), &ranked); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad model JSON")
		return nil, fmt.Errorf("failed to decode ranked recommendations: %w", err)
	}

	candidateByID := make(map[string]types.Candidate, len(candidates))
	for _, c := range candidates {
		candidateByID[c.PlaceID] = c
	}

	recs := make([]types.Recommendation, 0, len(ranked.Recommendations))
	for _, r := range ranked.Recommendations {
		rec := types.Recommendation{
			Name:          r.Name,
			Address:       r.Address,
			Source:        normaliseSource(r.Source),
			Reason:        r.Reason,
			MapsURL:       r.MapsURL,
			GooglePlaceID: r.GooglePlaceID,
		}
		if cand, ok := candidateByID[r.GooglePlaceID]; ok {
			rec.Area = cand.Area
			rec.Lat = cand.Lat
			rec.Lng = cand.Lng
		}
		if rec.Area == nil {
			rec.Area = places.ExtractArea(r.Address)
		}
		recs = append(recs, rec)
	}

	span.SetStatus(codes.Ok, "ranked")
	return recs, nil
}

func normaliseSource(source string) types.RecommendationSource {
	switch types.RecommendationSource(source) {
	case types.SourceWishlist, types.SourceMightLike, types.SourceTrending:
		return types.RecommendationSource(source)
	default:
		return types.SourceMightLike
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
