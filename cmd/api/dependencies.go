package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eatwatah/eatwatah-api/internal/domain/recommendation"
	"github.com/eatwatah/eatwatah-api/internal/domain/stats"
	"github.com/eatwatah/eatwatah-api/internal/domain/user"
	"github.com/eatwatah/eatwatah-api/internal/domain/visits"
	"github.com/eatwatah/eatwatah-api/internal/domain/wishlist"
	"github.com/eatwatah/eatwatah-api/internal/llm"
	"github.com/eatwatah/eatwatah-api/internal/places"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/config"
	"github.com/eatwatah/eatwatah-api/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Clients
	ChatClient   llm.ChatClient
	PlacesClient places.Client

	// Repositories
	UserRepo     user.Repository
	WishlistRepo wishlist.Repository
	VisitsRepo   visits.Repository
	StatsRepo    stats.Repository

	// Services
	WishlistSvc       wishlist.Service
	RecommendationSvc recommendation.Service

	// Handlers
	UserHandler           *user.Handler
	WishlistHandler       *wishlist.Handler
	VisitsHandler         *visits.Handler
	StatsHandler          *stats.Handler
	RecommendationHandler *recommendation.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := deps.initClients(ctx); err != nil {
		return nil, fmt.Errorf("failed to init clients: %w", err)
	}
	deps.initRepositories()
	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initClients initializes the external API clients. A missing model key is
// fatal; the recommendation surface is the point of the service.
func (d *Dependencies) initClients(ctx context.Context) error {
	chatClient, err := llm.NewGeminiChatClient(ctx, d.Config.Gemini.APIKey, d.Config.Gemini.Model)
	if err != nil {
		return fmt.Errorf("failed to init model client: %w", err)
	}
	d.ChatClient = chatClient

	if d.Config.Places.APIKey == "" {
		return fmt.Errorf("places client: %w", types.ErrMissingAPIKey)
	}
	d.PlacesClient = places.NewGoogleClient(d.Config.Places.APIKey, d.Logger)

	d.Logger.Info("external clients initialized")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.UserRepo = user.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.WishlistRepo = wishlist.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.VisitsRepo = visits.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.StatsRepo = stats.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() {
	d.WishlistSvc = wishlist.NewServiceImpl(d.WishlistRepo, d.PlacesClient, d.Logger)
	d.RecommendationSvc = recommendation.NewServiceImpl(
		d.ChatClient,
		d.PlacesClient,
		d.VisitsRepo,
		d.WishlistRepo,
		d.Logger,
	)
	d.Logger.Info("services initialized")
}

func (d *Dependencies) initHandlers() {
	d.UserHandler = user.NewHandler(d.UserRepo, d.Config.Telegram, d.Logger)
	d.WishlistHandler = wishlist.NewHandler(d.WishlistSvc, d.Logger)
	d.VisitsHandler = visits.NewHandler(d.VisitsRepo, d.Logger)
	d.StatsHandler = stats.NewHandler(d.StatsRepo, d.Config.Telegram.AdminIDs, d.Logger)
	d.RecommendationHandler = recommendation.NewHandler(
		d.RecommendationSvc,
		d.StatsRepo,
		d.Config.Server.RecommendTimeout,
		d.Logger,
	)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
