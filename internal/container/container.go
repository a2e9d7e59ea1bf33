package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FACorreiaa/go-trip-assistant/app/cache"
	database "github.com/FACorreiaa/go-trip-assistant/app/db"
	"github.com/FACorreiaa/go-trip-assistant/app/docstore"
	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/config"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/chat"
	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/places"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/planedit"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/profiles"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/selections"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/trips"
	"github.com/FACorreiaa/go-trip-assistant/internal/session"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Mongo   *mongo.Client
	Redis   *redis.Client
	Metrics *metrics.AppMetrics

	ChatRouter        *chat.RouterImpl
	ChatHandler       *chat.HandlerImpl
	SelectionsHandler *selections.HandlerImpl
	ItineraryHandler  *itinerary.HandlerImpl
}

// NewContainer connects the stores and wires every service and handler.
// Migrations are not run here.
func NewContainer(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: m}

	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Pool, err = database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}

	c.Mongo, err = docstore.Connect(ctx, cfg.Repositories.Mongo.URI, logger)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	docs := c.Mongo.Database(cfg.Repositories.Mongo.Database)
	if err = docstore.EnsureIndexes(ctx, docs, logger); err != nil {
		c.Close(ctx)
		return nil, err
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		c.Redis, err = cache.NewRedis(ctx, cfg.Repositories.Redis.Addr, cfg.Repositories.Redis.Password, cfg.Repositories.Redis.DB, logger)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		sessions = session.NewRedisStore(c.Redis, cfg.Session.PendingTTL, cfg.Session.HistoryLimit)
	case "", "memory":
		sessions = session.NewMemoryStore(cfg.Session.PendingTTL, cfg.Session.HistoryLimit)
	default:
		c.Close(ctx)
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	ai, err := generativeAI.NewAIClient(ctx, generativeAI.Options{
		APIKey:         cfg.LLM.GeminiAPIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
	}, m, logger)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	var classifier generativeAI.IntentClassifier = ai
	if cfg.LLM.ClassifierProvider == "openai" {
		classifier, err = generativeAI.NewOpenAIClassifier(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel, cfg.LLM.Timeout, m, logger)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
	}

	var translator generativeAI.Translator
	if cfg.Translation.TargetLanguage != "" {
		translator, err = generativeAI.NewLLMTranslator(ai, cfg.Translation.TargetLanguage, logger)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
	}

	mapsClient, err := places.NewMapsClient(cfg.Maps.APIKey)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	searcher := places.NewMapsSearcher(mapsClient, translator, places.SearchOptions{
		Language:         cfg.Maps.Language,
		Timeout:          cfg.Maps.Timeout,
		Concurrency:      cfg.Translation.Concurrency,
		TranslateResults: cfg.Translation.TranslateResults,
	}, m, logger)

	tzFinder, err := itinerary.NewTimezoneFinder()
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	// Repositories
	profilesRepo := profiles.NewPostgresProfilesRepo(c.Pool, m, logger)
	tripsRepo := trips.NewPostgresTripsRepo(c.Pool, m, logger)
	itineraryRepo := itinerary.NewPostgresItineraryRepo(c.Pool, m, logger)
	selectionsRepo := selections.NewMongoSelectionsRepo(docs, m, logger)
	transcripts := chat.NewMongoTranscriptRepo(docs, m, logger)

	// Services
	profilesService := profiles.NewProfilesService(profilesRepo, logger)
	selectionsService := selections.NewSelectionsService(selectionsRepo, cfg.Assistant.DedupeSelections, logger)
	itineraryService := itinerary.NewItineraryService(itineraryRepo, tripsRepo, selectionsService, ai,
		itinerary.NewCalendarExporter(tzFinder), logger)
	planEditService := planedit.NewPlanEditService(sessions, itineraryRepo, ai, cfg.Assistant.SimilarityThreshold, logger)

	c.ChatRouter = chat.NewRouter(chat.Deps{
		Classifier:  classifier,
		Generator:   ai,
		Searcher:    searcher,
		Ranker:      places.NewLLMRanker(ai, logger),
		Hints:       profilesService,
		Selections:  selectionsService,
		Planner:     itineraryService,
		Edits:       planEditService,
		History:     sessions,
		Transcripts: transcripts,
	}, cfg.Assistant.ConfirmKeywords, m, logger)

	// Handlers
	c.ChatHandler = chat.NewHandler(c.ChatRouter, transcripts, logger)
	c.SelectionsHandler = selections.NewHandler(selectionsService, logger)
	c.ItineraryHandler = itinerary.NewHandler(itineraryService, logger)

	return c, nil
}

// Close releases all resources held by the container
func (c *Container) Close(ctx context.Context) {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			c.Logger.Warn("Error disconnecting from mongo", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
